package dirmngr

import (
	"context"
	"encoding/hex"
	"strings"
)

// isvalidArg is the parsed form of ISVALID's single positional argument,
// either an "issuerhash.serial" pair or a bare 40-hex fingerprint.
type isvalidArg struct {
	IsFingerprint bool
	Fingerprint   string
	IssuerHash    [20]byte
	Serial        []byte
}

// parseISVALIDArg splits on the first '.', falling back to fingerprint
// mode when there is none, per spec §4.6's ISVALID contract.
func parseISVALIDArg(s string) (isvalidArg, error) {
	if i := strings.IndexByte(s, '.'); i >= 0 {
		hashHex, serialHex := s[:i], s[i+1:]
		hashBytes, err := hex.DecodeString(hashHex)
		if err != nil || len(hashBytes) != 20 {
			return isvalidArg{}, newError(KindInvalidArgument, "malformed issuer hash in ISVALID argument")
		}
		serial, err := hex.DecodeString(serialHex)
		if err != nil {
			return isvalidArg{}, newError(KindInvalidArgument, "malformed serial in ISVALID argument")
		}
		var a isvalidArg
		copy(a.IssuerHash[:], hashBytes)
		a.Serial = serial
		return a, nil
	}
	if len(s) != 40 {
		return isvalidArg{}, newError(KindInvalidArgument, "ISVALID argument is neither issuerhash.serial nor a 40-hex fingerprint")
	}
	if _, err := hex.DecodeString(s); err != nil {
		return isvalidArg{}, newError(KindInvalidArgument, "ISVALID argument is not valid hex")
	}
	return isvalidArg{IsFingerprint: true, Fingerprint: strings.ToLower(s)}, nil
}

// decideISVALID implements spec §4.8's ISVALID composition: CRL path
// with one inquiry-driven reload-and-retry, or OCSP path for a bare
// fingerprint argument.
func decideISVALID(ctx context.Context, c *Controller, inq inquirer, onlyOCSP, forceDefaultResponder bool, arg isvalidArg) error {
	if arg.IsFingerprint {
		if !c.settings.OCSP.Enabled {
			return newError(KindNotSupported, "OCSP is not enabled")
		}
		cert, err := c.certCache.GetByFingerprint(ctx, mustFingerprintBytes(arg.Fingerprint))
		if err != nil {
			return wrapError(KindMissingCertificate, "certificate not found for OCSP check", err)
		}
		return decideOCSP(ctx, c, cert, nil, forceDefaultResponder)
	}

	verdict, err := c.crlCache.IsValid(ctx, arg.IssuerHash, arg.Serial, c.ForceCRLRefresh)
	if err != nil {
		return wrapError(KindInternal, "CRL cache lookup failed", err)
	}
	// --only-ocsp suppresses the INQUIRE/reload/retry fallback on DontKnow;
	// it does not switch this dot-form argument over to the OCSP path.
	return resolveCRLVerdict(ctx, c, inq, verdict, arg, !onlyOCSP)
}

// resolveCRLVerdict applies the match arms of spec §4.8's pseudocode,
// recursing exactly once on DontKnow via the INQUIRE/reload/retry path
// (allowRetry guards the recursion so it can never loop more than once,
// matching the "retries capped at one" rule of §4.8 and §8 property 7).
func resolveCRLVerdict(ctx context.Context, c *Controller, inq inquirer, verdict CRLVerdict, arg isvalidArg, allowRetry bool) error {
	recordCRLDecision(crlVerdictName(verdict))
	switch verdict {
	case CRLValid:
		return nil
	case CRLRevoked:
		return newError(KindCertificateRevoked, "certificate is on the CRL")
	case CRLCantUse:
		return newError(KindNoCRLKnown, "no usable CRL for this issuer")
	case CRLDontKnow:
		if !allowRetry {
			return newError(KindNoCRLKnown, "CRL status unknown after retry")
		}

		certData, err := inq.inquire(ctx, "SENDCERT", 0)
		if err != nil {
			return wrapError(KindNoCRLKnown, "failed to obtain certificate for CRL reload", err)
		}
		cert := &Cert{DER: certData, IssuerHash: arg.IssuerHash, Serial: arg.Serial}
		if err := c.crlCache.ReloadCRL(ctx, cert); err != nil {
			return wrapError(KindNoCRLKnown, "CRL reload failed", err)
		}
		retried, err := c.crlCache.IsValid(ctx, arg.IssuerHash, arg.Serial, true)
		if err != nil {
			return wrapError(KindInternal, "CRL cache lookup failed after reload", err)
		}
		return resolveCRLVerdict(ctx, c, inq, retried, arg, false)
	default:
		return newError(KindInternal, "unrecognized CRL verdict")
	}
}

// decideCHECKCRL implements CHECKCRL: a cert is acquired either from fpr
// (looked up in the cache) or via INQUIRE TARGETCERT, then the same
// reload-once-on-dontknow flow as ISVALID's CRL path runs against it.
func decideCHECKCRL(ctx context.Context, c *Controller, inq inquirer, fpr string) error {
	cert, err := acquireTargetCert(ctx, c, inq, fpr)
	if err != nil {
		return err
	}
	verdict, err := c.crlCache.CertIsValid(ctx, cert, c.ForceCRLRefresh)
	if err != nil {
		return wrapError(KindInternal, "CRL cache lookup failed", err)
	}
	arg := isvalidArg{IssuerHash: cert.IssuerHash, Serial: cert.Serial}
	return resolveCRLVerdict(ctx, c, inq, verdict, arg, true)
}

// decideCHECKOCSP implements CHECKOCSP: same cert acquisition as
// CHECKCRL, then a direct OCSP validate with no retry (OCSP has no
// dontknow-and-reload state to recurse on).
func decideCHECKOCSP(ctx context.Context, c *Controller, inq inquirer, forceDefaultResponder bool, fpr string) error {
	if !c.settings.OCSP.Enabled {
		return newError(KindNotSupported, "OCSP is not enabled")
	}
	cert, err := acquireTargetCert(ctx, c, inq, fpr)
	if err != nil {
		return err
	}
	return decideOCSP(ctx, c, cert, nil, forceDefaultResponder)
}

func decideOCSP(ctx context.Context, c *Controller, cert, issuer *Cert, forceDefaultResponder bool) error {
	force := forceDefaultResponder || c.settings.OCSP.ForceDefaultResponder
	verdict, err := c.ocsp.IsValid(ctx, cert, issuer, force)
	if err != nil {
		return wrapError(KindInternal, "OCSP validation failed", err)
	}
	recordOCSPDecision(ocspVerdictName(verdict))
	switch verdict {
	case OCSPGood:
		return nil
	case OCSPRevoked:
		return newError(KindCertificateRevoked, "certificate is revoked per OCSP")
	case OCSPExpired:
		return newError(KindNoCRLKnown, "OCSP response has expired")
	case OCSPTransportError:
		return newError(KindTransport, "OCSP responder unreachable")
	default:
		return newError(KindNoCRLKnown, "OCSP status unknown")
	}
}

// acquireTargetCert looks up fpr in the certificate cache if given,
// otherwise inquires TARGETCERT from the peer, per CHECKCRL/CHECKOCSP's
// shared cert-acquisition contract.
func acquireTargetCert(ctx context.Context, c *Controller, inq inquirer, fpr string) (*Cert, error) {
	if fpr != "" {
		cert, err := c.certCache.GetByFingerprint(ctx, mustFingerprintBytes(fpr))
		if err == nil {
			return cert, nil
		}
	}
	data, err := inq.inquire(ctx, "TARGETCERT", 0)
	if err != nil {
		return nil, wrapError(KindMissingCertificate, "failed to obtain target certificate", err)
	}
	return &Cert{DER: data}, nil
}

// inquirer is the handler-side view of the dispatcher's inquiry
// mechanism (spec §4.6 step 4); defined here so decision.go's
// functions are testable against a fake without pulling in the full
// wire codec.
type inquirer interface {
	inquire(ctx context.Context, keyword string, maxBytes int) ([]byte, error)
}

func mustFingerprintBytes(fpr string) [20]byte {
	var out [20]byte
	b, err := hex.DecodeString(fpr)
	if err != nil || len(b) != 20 {
		return out
	}
	copy(out[:], b)
	return out
}

func crlVerdictName(v CRLVerdict) string {
	switch v {
	case CRLValid:
		return "valid"
	case CRLRevoked:
		return "revoked"
	case CRLCantUse:
		return "cantuse"
	case CRLDontKnow:
		return "dontknow"
	default:
		return "unknown"
	}
}

func ocspVerdictName(v OCSPVerdict) string {
	switch v {
	case OCSPGood:
		return "good"
	case OCSPRevoked:
		return "revoked"
	case OCSPUnknown:
		return "unknown"
	case OCSPExpired:
		return "expired"
	case OCSPTransportError:
		return "transporterror"
	default:
		return "unknown"
	}
}
