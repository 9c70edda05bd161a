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

// Package dirmngrtest provides call-recording fakes for dirmngr's §6
// external collaborator interfaces, built on the same Recorder plus
// functional-options pattern as hockeypuck's storage mocks.
package dirmngrtest

import (
	"context"
	"io"

	"trustcore/dirmngr"
)

// MethodCall records one invocation of a faked method.
type MethodCall struct {
	Name string
	Args []interface{}
}

// Recorder accumulates MethodCalls; embed it in a fake to get
// call-counting for free.
type Recorder struct {
	Calls []MethodCall
}

func (r *Recorder) record(name string, args ...interface{}) {
	r.Calls = append(r.Calls, MethodCall{Name: name, Args: args})
}

// MethodCount returns how many times name was called.
func (r *Recorder) MethodCount(name string) int {
	var n int
	for _, c := range r.Calls {
		if c.Name == name {
			n++
		}
	}
	return n
}

// --- CertCache ---

type getByFingerprintFunc func(fpr [20]byte) (*dirmngr.Cert, error)
type getByPatternFunc func(pattern string, each func(*dirmngr.Cert) error) error
type insertCertFunc func(cert *dirmngr.Cert) error

// CertCache is a fake of dirmngr.CertCache.
type CertCache struct {
	Recorder
	getByFingerprint getByFingerprintFunc
	getByPattern     getByPatternFunc
	insert           insertCertFunc
}

// CertCacheOption configures a CertCache fake.
type CertCacheOption func(*CertCache)

func GetByFingerprint(f getByFingerprintFunc) CertCacheOption {
	return func(m *CertCache) { m.getByFingerprint = f }
}
func GetByPattern(f getByPatternFunc) CertCacheOption {
	return func(m *CertCache) { m.getByPattern = f }
}
func InsertCert(f insertCertFunc) CertCacheOption {
	return func(m *CertCache) { m.insert = f }
}

func NewCertCache(opts ...CertCacheOption) *CertCache {
	m := &CertCache{}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *CertCache) GetByFingerprint(ctx context.Context, fpr [20]byte) (*dirmngr.Cert, error) {
	m.record("GetByFingerprint", fpr)
	if m.getByFingerprint != nil {
		return m.getByFingerprint(fpr)
	}
	return nil, nil
}

func (m *CertCache) GetByPattern(ctx context.Context, pattern string, each func(*dirmngr.Cert) error) error {
	m.record("GetByPattern", pattern)
	if m.getByPattern != nil {
		return m.getByPattern(pattern, each)
	}
	return nil
}

func (m *CertCache) Insert(ctx context.Context, cert *dirmngr.Cert) error {
	m.record("Insert", cert)
	if m.insert != nil {
		return m.insert(cert)
	}
	return nil
}

// --- CRLCache ---

type crlIsValidFunc func(issuerHash [20]byte, serial []byte, forceRefresh bool) (dirmngr.CRLVerdict, error)
type crlCertIsValidFunc func(cert *dirmngr.Cert, forceRefresh bool) (dirmngr.CRLVerdict, error)
type crlReloadFunc func(cert *dirmngr.Cert) error
type crlLoadFunc func(path string) error
type crlListFunc func(w io.Writer) error
type crlInsertFunc func(url string, r io.Reader) error

// CRLCache is a fake of dirmngr.CRLCache.
type CRLCache struct {
	Recorder
	isValid     crlIsValidFunc
	certIsValid crlCertIsValidFunc
	reload      crlReloadFunc
	load        crlLoadFunc
	list        crlListFunc
	insert      crlInsertFunc
}

type CRLCacheOption func(*CRLCache)

func CRLIsValid(f crlIsValidFunc) CRLCacheOption         { return func(m *CRLCache) { m.isValid = f } }
func CRLCertIsValid(f crlCertIsValidFunc) CRLCacheOption { return func(m *CRLCache) { m.certIsValid = f } }
func CRLReload(f crlReloadFunc) CRLCacheOption           { return func(m *CRLCache) { m.reload = f } }
func CRLLoad(f crlLoadFunc) CRLCacheOption               { return func(m *CRLCache) { m.load = f } }
func CRLList(f crlListFunc) CRLCacheOption               { return func(m *CRLCache) { m.list = f } }
func CRLInsert(f crlInsertFunc) CRLCacheOption           { return func(m *CRLCache) { m.insert = f } }

func NewCRLCache(opts ...CRLCacheOption) *CRLCache {
	m := &CRLCache{}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *CRLCache) IsValid(ctx context.Context, issuerHash [20]byte, serial []byte, forceRefresh bool) (dirmngr.CRLVerdict, error) {
	m.record("IsValid", issuerHash, serial, forceRefresh)
	if m.isValid != nil {
		return m.isValid(issuerHash, serial, forceRefresh)
	}
	return dirmngr.CRLCantUse, nil
}

func (m *CRLCache) CertIsValid(ctx context.Context, cert *dirmngr.Cert, forceRefresh bool) (dirmngr.CRLVerdict, error) {
	m.record("CertIsValid", cert, forceRefresh)
	if m.certIsValid != nil {
		return m.certIsValid(cert, forceRefresh)
	}
	return dirmngr.CRLCantUse, nil
}

func (m *CRLCache) ReloadCRL(ctx context.Context, cert *dirmngr.Cert) error {
	m.record("ReloadCRL", cert)
	if m.reload != nil {
		return m.reload(cert)
	}
	return nil
}

func (m *CRLCache) Load(ctx context.Context, path string) error {
	m.record("Load", path)
	if m.load != nil {
		return m.load(path)
	}
	return nil
}

func (m *CRLCache) List(w io.Writer) error {
	m.record("List")
	if m.list != nil {
		return m.list(w)
	}
	return nil
}

func (m *CRLCache) Insert(ctx context.Context, url string, r io.Reader) error {
	m.record("Insert", url)
	if m.insert != nil {
		return m.insert(url, r)
	}
	return nil
}

// --- OCSPValidator ---

type ocspIsValidFunc func(cert, issuerCert *dirmngr.Cert, forceDefaultResponder bool) (dirmngr.OCSPVerdict, error)

// OCSPValidator is a fake of dirmngr.OCSPValidator.
type OCSPValidator struct {
	Recorder
	isValid ocspIsValidFunc
}

type OCSPValidatorOption func(*OCSPValidator)

func OCSPIsValid(f ocspIsValidFunc) OCSPValidatorOption {
	return func(m *OCSPValidator) { m.isValid = f }
}

func NewOCSPValidator(opts ...OCSPValidatorOption) *OCSPValidator {
	m := &OCSPValidator{}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *OCSPValidator) IsValid(ctx context.Context, cert, issuerCert *dirmngr.Cert, forceDefaultResponder bool) (dirmngr.OCSPVerdict, error) {
	m.record("IsValid", cert, issuerCert, forceDefaultResponder)
	if m.isValid != nil {
		return m.isValid(cert, issuerCert, forceDefaultResponder)
	}
	return dirmngr.OCSPUnknown, nil
}

// --- ChainValidator ---

type validateChainFunc func(cert, trustAnchor *dirmngr.Cert, flags dirmngr.ValidateFlags) ([]*dirmngr.Cert, error)

// ChainValidator is a fake of dirmngr.ChainValidator.
type ChainValidator struct {
	Recorder
	validateChain validateChainFunc
}

type ChainValidatorOption func(*ChainValidator)

func ValidateChain(f validateChainFunc) ChainValidatorOption {
	return func(m *ChainValidator) { m.validateChain = f }
}

func NewChainValidator(opts ...ChainValidatorOption) *ChainValidator {
	m := &ChainValidator{}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *ChainValidator) ValidateChain(ctx context.Context, cert *dirmngr.Cert, trustAnchor *dirmngr.Cert, flags dirmngr.ValidateFlags) ([]*dirmngr.Cert, error) {
	m.record("ValidateChain", cert, trustAnchor, flags)
	if m.validateChain != nil {
		return m.validateChain(cert, trustAnchor, flags)
	}
	return nil, nil
}

// --- Fetcher ---

type fetchCertByURLFunc func(url string) ([]byte, error)

// Fetcher is a fake of dirmngr.Fetcher.
type Fetcher struct {
	Recorder
	fetchCertByURL fetchCertByURLFunc
}

type FetcherOption func(*Fetcher)

func FetchCertByURL(f fetchCertByURLFunc) FetcherOption {
	return func(m *Fetcher) { m.fetchCertByURL = f }
}

func NewFetcher(opts ...FetcherOption) *Fetcher {
	m := &Fetcher{}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *Fetcher) FetchCertByURL(ctx context.Context, url string) ([]byte, error) {
	m.record("FetchCertByURL", url)
	if m.fetchCertByURL != nil {
		return m.fetchCertByURL(url)
	}
	return nil, nil
}

// --- CryptoProvider ---

// CryptoProvider is a fake of dirmngr.CryptoProvider using fixed,
// non-cryptographic stand-ins suitable only for tests.
type CryptoProvider struct {
	Recorder
	RandomBytes []byte
}

func NewCryptoProvider() *CryptoProvider { return &CryptoProvider{} }

func (m *CryptoProvider) SHA1(data []byte) [20]byte {
	m.record("SHA1", data)
	var out [20]byte
	copy(out[:], data)
	return out
}

func (m *CryptoProvider) SHA256(data []byte) [32]byte {
	m.record("SHA256", data)
	var out [32]byte
	copy(out[:], data)
	return out
}

func (m *CryptoProvider) Random(n int) ([]byte, error) {
	m.record("Random", n)
	if m.RandomBytes != nil {
		return m.RandomBytes, nil
	}
	return make([]byte, n), nil
}
