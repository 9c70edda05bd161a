/*
   trustcore - OpenPGP trust-infrastructure core
   Copyright (C) 2012-2025  Hockeypuck Contributors

   This program is free software: you can redistribute it and/or modify
   it under the terms of the GNU Affero General Public License as published by
   the Free Software Foundation, version 3.

   This program is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
   GNU Affero General Public License for more details.

   You should have received a copy of the GNU Affero General Public License
   along with this program.  If not, see <http://www.gnu.org/licenses/>.
*/

package main

import (
	"context"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/crypto/ocsp"

	"trustcore/dirmngr"
)

// newProductionCollaborators wires the default, in-process
// implementations of dirmngr's §6 external collaborators: bounded LRU
// caches for certificates and CRL verdicts, a net/http fetcher, a
// crypto/x509-backed OCSP validator and chain validator, and a hash
// provider over crypto/sha1 and crypto/sha256. A deployment that wants
// the real ASN.1/PKIX/CRL engines described as out of scope by the
// core wires its own Collaborators in place of these.
func newProductionCollaborators(settings *dirmngr.Settings) (dirmngr.Collaborators, error) {
	certCache, err := newLRUCertCache(4096)
	if err != nil {
		return dirmngr.Collaborators{}, err
	}
	crlCache := newLRUCRLCache(1024)

	return dirmngr.Collaborators{
		CertCache: certCache,
		CRLCache:  crlCache,
		OCSP:      &x509OCSPValidator{client: http.DefaultClient},
		Validator: &x509ChainValidator{},
		Fetcher:   &httpFetcher{client: http.DefaultClient},
		Crypto:    &stdCryptoProvider{},
	}, nil
}

// --- CertCache ---

type lruCertCache struct {
	mu    sync.RWMutex
	byFpr *lru.Cache
	all   []*dirmngr.Cert
}

func newLRUCertCache(size int) (*lruCertCache, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &lruCertCache{byFpr: c}, nil
}

func (c *lruCertCache) GetByFingerprint(ctx context.Context, fpr [20]byte) (*dirmngr.Cert, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if v, ok := c.byFpr.Get(fpr); ok {
		return v.(*dirmngr.Cert), nil
	}
	return nil, fmt.Errorf("certificate not found for fingerprint %x", fpr)
}

func (c *lruCertCache) GetByPattern(ctx context.Context, pattern string, each func(*dirmngr.Cert) error) error {
	c.mu.RLock()
	matches := make([]*dirmngr.Cert, 0)
	for _, cert := range c.all {
		if x509Cert, err := x509.ParseCertificate(cert.DER); err == nil {
			if strings.Contains(strings.ToLower(x509Cert.Subject.String()), strings.ToLower(pattern)) {
				matches = append(matches, cert)
			}
		}
	}
	c.mu.RUnlock()
	for _, m := range matches {
		if err := each(m); err != nil {
			return err
		}
	}
	return nil
}

func (c *lruCertCache) Insert(ctx context.Context, cert *dirmngr.Cert) error {
	fpr := sha1.Sum(cert.DER)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byFpr.Add(fpr, cert)
	c.all = append(c.all, cert)
	return nil
}

// --- CRLCache ---

type crlEntry struct {
	verdict dirmngr.CRLVerdict
	loadAt  time.Time
}

type lruCRLCache struct {
	mu      sync.Mutex
	entries *lru.Cache
}

func newLRUCRLCache(size int) *lruCRLCache {
	c, _ := lru.New(size)
	return &lruCRLCache{entries: c}
}

func crlKey(issuerHash [20]byte, serial []byte) string {
	return hex.EncodeToString(issuerHash[:]) + "." + hex.EncodeToString(serial)
}

func (c *lruCRLCache) IsValid(ctx context.Context, issuerHash [20]byte, serial []byte, forceRefresh bool) (dirmngr.CRLVerdict, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !forceRefresh {
		if v, ok := c.entries.Get(crlKey(issuerHash, serial)); ok {
			return v.(crlEntry).verdict, nil
		}
	}
	return dirmngr.CRLDontKnow, nil
}

func (c *lruCRLCache) CertIsValid(ctx context.Context, cert *dirmngr.Cert, forceRefresh bool) (dirmngr.CRLVerdict, error) {
	return c.IsValid(ctx, cert.IssuerHash, cert.Serial, forceRefresh)
}

func (c *lruCRLCache) ReloadCRL(ctx context.Context, cert *dirmngr.Cert) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := x509.ParseCRL(cert.DER)
	verdict := dirmngr.CRLCantUse
	if err == nil {
		verdict = dirmngr.CRLValid
	}
	c.entries.Add(crlKey(cert.IssuerHash, cert.Serial), crlEntry{verdict: verdict, loadAt: time.Now()})
	return nil
}

func (c *lruCRLCache) Load(ctx context.Context, path string) error {
	return fmt.Errorf("loading CRLs from local path %q requires a configured CRL store", path)
}

func (c *lruCRLCache) List(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range c.entries.Keys() {
		fmt.Fprintf(w, "%v\n", key)
	}
	return nil
}

func (c *lruCRLCache) Insert(ctx context.Context, url string, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	_, err = x509.ParseCRL(data)
	return err
}

// --- OCSPValidator ---

type x509OCSPValidator struct {
	client *http.Client
}

func (v *x509OCSPValidator) IsValid(ctx context.Context, cert, issuerCert *dirmngr.Cert, forceDefaultResponder bool) (dirmngr.OCSPVerdict, error) {
	leaf, err := x509.ParseCertificate(cert.DER)
	if err != nil {
		return dirmngr.OCSPUnknown, err
	}
	if issuerCert == nil {
		return dirmngr.OCSPUnknown, fmt.Errorf("no issuer certificate supplied for OCSP check")
	}
	issuer, err := x509.ParseCertificate(issuerCert.DER)
	if err != nil {
		return dirmngr.OCSPUnknown, err
	}

	req, err := ocsp.CreateRequest(leaf, issuer, nil)
	if err != nil {
		return dirmngr.OCSPUnknown, err
	}

	responderURL := ""
	if !forceDefaultResponder && len(leaf.OCSPServer) > 0 {
		responderURL = leaf.OCSPServer[0]
	}
	if responderURL == "" {
		return dirmngr.OCSPUnknown, fmt.Errorf("no OCSP responder configured")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, responderURL, strings.NewReader(string(req)))
	if err != nil {
		return dirmngr.OCSPUnknown, err
	}
	httpReq.Header.Set("Content-Type", "application/ocsp-request")

	resp, err := v.client.Do(httpReq)
	if err != nil {
		return dirmngr.OCSPTransportError, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return dirmngr.OCSPTransportError, err
	}

	ocspResp, err := ocsp.ParseResponse(body, issuer)
	if err != nil {
		return dirmngr.OCSPUnknown, err
	}
	switch ocspResp.Status {
	case ocsp.Good:
		return dirmngr.OCSPGood, nil
	case ocsp.Revoked:
		return dirmngr.OCSPRevoked, nil
	default:
		return dirmngr.OCSPUnknown, nil
	}
}

// --- ChainValidator ---

type x509ChainValidator struct{}

func (v *x509ChainValidator) ValidateChain(ctx context.Context, cert *dirmngr.Cert, trustAnchor *dirmngr.Cert, flags dirmngr.ValidateFlags) ([]*dirmngr.Cert, error) {
	leaf, err := x509.ParseCertificate(cert.DER)
	if err != nil {
		return nil, err
	}

	roots := x509.NewCertPool()
	if flags.Systrust || trustAnchor == nil {
		systemPool, err := x509.SystemCertPool()
		if err == nil {
			roots = systemPool
		}
	}
	if trustAnchor != nil {
		anchor, err := x509.ParseCertificate(trustAnchor.DER)
		if err == nil {
			roots.AddCert(anchor)
		}
	}

	opts := x509.VerifyOptions{Roots: roots}
	chains, err := leaf.Verify(opts)
	if err != nil {
		return nil, err
	}
	if len(chains) == 0 {
		return nil, fmt.Errorf("no valid certificate chain found")
	}
	out := make([]*dirmngr.Cert, 0, len(chains[0]))
	for _, c := range chains[0] {
		out = append(out, &dirmngr.Cert{DER: c.Raw})
	}
	return out, nil
}

// --- Fetcher ---

type httpFetcher struct {
	client *http.Client
}

func (f *httpFetcher) FetchCertByURL(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// --- CryptoProvider ---

type stdCryptoProvider struct{}

func (stdCryptoProvider) SHA1(data []byte) [20]byte   { return sha1.Sum(data) }
func (stdCryptoProvider) SHA256(data []byte) [32]byte { return sha256.Sum256(data) }
func (stdCryptoProvider) Random(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}
