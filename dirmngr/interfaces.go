package dirmngr

import (
	"context"
	"io"
)

// Cert is an opaque certificate handle; the X.509 ASN.1 reader lives
// outside the core (spec §1's external collaborators).
type Cert struct {
	DER        []byte
	IssuerHash [20]byte
	Serial     []byte
}

// CRLVerdict is the closed set of outcomes the CRL cache may report.
type CRLVerdict int

const (
	CRLValid CRLVerdict = iota
	CRLRevoked
	CRLDontKnow
	CRLCantUse
)

// OCSPVerdict is the closed set of outcomes the OCSP validator may report.
type OCSPVerdict int

const (
	OCSPGood OCSPVerdict = iota
	OCSPRevoked
	OCSPUnknown
	OCSPExpired
	OCSPTransportError
)

// CertCache is the §6 certificate cache collaborator.
type CertCache interface {
	GetByFingerprint(ctx context.Context, fpr [20]byte) (*Cert, error)
	GetByPattern(ctx context.Context, pattern string, each func(*Cert) error) error
	Insert(ctx context.Context, cert *Cert) error
}

// CRLCache is the §6 CRL cache collaborator.
type CRLCache interface {
	IsValid(ctx context.Context, issuerHash [20]byte, serial []byte, forceRefresh bool) (CRLVerdict, error)
	CertIsValid(ctx context.Context, cert *Cert, forceRefresh bool) (CRLVerdict, error)
	ReloadCRL(ctx context.Context, cert *Cert) error
	Load(ctx context.Context, path string) error
	List(w io.Writer) error
	Insert(ctx context.Context, url string, r io.Reader) error
}

// OCSPValidator is the §6 OCSP collaborator.
type OCSPValidator interface {
	IsValid(ctx context.Context, cert, issuerCert *Cert, forceDefaultResponder bool) (OCSPVerdict, error)
}

// ValidateFlags controls VALIDATE's chain-building mode.
type ValidateFlags struct {
	Systrust   bool
	TLS        bool
	NoCRLCheck bool
}

// ChainValidator is the §6 PKIX chain-validation collaborator.
type ChainValidator interface {
	ValidateChain(ctx context.Context, cert *Cert, trustAnchor *Cert, flags ValidateFlags) ([]*Cert, error)
}

// Fetcher is the §6 HTTP fetch collaborator.
type Fetcher interface {
	FetchCertByURL(ctx context.Context, url string) ([]byte, error)
}

// CryptoProvider is the §6 narrow cryptographic-primitive collaborator:
// hashing and randomness, with the actual algorithm implementations kept
// external to the core per spec §1.
type CryptoProvider interface {
	SHA1(data []byte) [20]byte
	SHA256(data []byte) [32]byte
	Random(n int) ([]byte, error)
}
