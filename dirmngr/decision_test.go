package dirmngr_test

import (
	"context"
	"strings"
	"testing"

	"trustcore/dirmngr"
	"trustcore/dirmngr/dirmngrtest"
)

// fakeInquirer is a minimal inquirer for decision.go's unit tests: each
// call to inquire pops the next scripted response (or error) in order.
type fakeInquirer struct {
	responses [][]byte
	errs      []error
	calls     int
}

func (f *fakeInquirer) Inquire(ctx context.Context, keyword string, maxBytes int) ([]byte, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return nil, nil
}

func newTestController(t *testing.T, collab dirmngr.Collaborators) *dirmngr.Controller {
	t.Helper()
	settings := dirmngr.DefaultSettings()
	settings.OCSP.Enabled = true
	return dirmngr.NewController(&settings, collab)
}

// TestISVALIDCRLDontKnowThenValidRetriesOnce covers scenario S3: a
// DontKnow verdict triggers one SENDCERT inquiry and CRL reload, after
// which a retried lookup of Valid succeeds.
func TestISVALIDCRLDontKnowThenValidRetriesOnce(t *testing.T) {
	var lookups int
	crl := dirmngrtest.NewCRLCache(dirmngrtest.CRLIsValid(func(issuerHash [20]byte, serial []byte, forceRefresh bool) (dirmngr.CRLVerdict, error) {
		lookups++
		if lookups == 1 {
			return dirmngr.CRLDontKnow, nil
		}
		return dirmngr.CRLValid, nil
	}), dirmngrtest.CRLReload(func(cert *dirmngr.Cert) error { return nil }))

	c := newTestController(t, dirmngr.Collaborators{CRLCache: crl})
	inq := &fakeInquirer{responses: [][]byte{[]byte("fake-der-cert")}}

	arg, err := dirmngr.ParseISVALIDArg("0123456789abcdef0123456789abcdef01234567.01")
	if err != nil {
		t.Fatalf("parseISVALIDArg: %v", err)
	}
	if err := dirmngr.DecideISVALID(context.Background(), c, inq, false, false, arg); err != nil {
		t.Fatalf("expected OK, got %v", err)
	}
	if inq.calls != 1 {
		t.Fatalf("expected exactly one inquiry, got %d", inq.calls)
	}
	if lookups != 2 {
		t.Fatalf("expected CRL lookup then one retry, got %d lookups", lookups)
	}
}

// TestISVALIDRetryCapOne covers §8 property 7: a second DontKnow after
// the retry does not issue a second inquiry.
func TestISVALIDRetryCapOne(t *testing.T) {
	crl := dirmngrtest.NewCRLCache(
		dirmngrtest.CRLIsValid(func(issuerHash [20]byte, serial []byte, forceRefresh bool) (dirmngr.CRLVerdict, error) {
			return dirmngr.CRLDontKnow, nil
		}),
		dirmngrtest.CRLReload(func(cert *dirmngr.Cert) error { return nil }),
	)
	c := newTestController(t, dirmngr.Collaborators{CRLCache: crl})
	inq := &fakeInquirer{responses: [][]byte{[]byte("fake-der-cert")}}

	arg, err := dirmngr.ParseISVALIDArg("0123456789abcdef0123456789abcdef01234567.01")
	if err != nil {
		t.Fatalf("parseISVALIDArg: %v", err)
	}
	err = dirmngr.DecideISVALID(context.Background(), c, inq, false, false, arg)
	de := dirmngr.AsError(err)
	if de == nil || de.Kind != dirmngr.KindNoCRLKnown {
		t.Fatalf("expected no-crl-known, got %v", err)
	}
	if inq.calls != 1 {
		t.Fatalf("expected exactly one inquiry even after a second DontKnow, got %d", inq.calls)
	}
}

// TestISVALIDRetryAllowedAcrossSeparateInvocations guards against
// scoping the retry cap to the Controller (session lifetime) instead of
// a single command invocation: the same issuer/serial queried twice in
// one session — e.g. a second ISVALID after an intervening LOADCRL
// refreshed the CRL — must get its own inquiry each time, not be denied
// a retry because an earlier, unrelated invocation already used one.
func TestISVALIDRetryAllowedAcrossSeparateInvocations(t *testing.T) {
	var lookups int
	crl := dirmngrtest.NewCRLCache(dirmngrtest.CRLIsValid(func(issuerHash [20]byte, serial []byte, forceRefresh bool) (dirmngr.CRLVerdict, error) {
		lookups++
		// Every initial lookup (odd call) comes back DontKnow; every
		// retry lookup (even call) comes back Valid.
		if lookups%2 == 1 {
			return dirmngr.CRLDontKnow, nil
		}
		return dirmngr.CRLValid, nil
	}), dirmngrtest.CRLReload(func(cert *dirmngr.Cert) error { return nil }))

	c := newTestController(t, dirmngr.Collaborators{CRLCache: crl})
	arg, err := dirmngr.ParseISVALIDArg("0123456789abcdef0123456789abcdef01234567.01")
	if err != nil {
		t.Fatalf("parseISVALIDArg: %v", err)
	}

	first := &fakeInquirer{responses: [][]byte{[]byte("fake-der-cert")}}
	if err := dirmngr.DecideISVALID(context.Background(), c, first, false, false, arg); err != nil {
		t.Fatalf("first invocation: expected OK, got %v", err)
	}
	if first.calls != 1 {
		t.Fatalf("first invocation: expected exactly one inquiry, got %d", first.calls)
	}

	second := &fakeInquirer{responses: [][]byte{[]byte("fake-der-cert")}}
	if err := dirmngr.DecideISVALID(context.Background(), c, second, false, false, arg); err != nil {
		t.Fatalf("second invocation: expected OK, got %v", err)
	}
	if second.calls != 1 {
		t.Fatalf("second invocation for the same target must get its own retry, got %d inquiries", second.calls)
	}
}

// TestISVALIDOnlyOCSPFingerprintNotSupported covers scenario S4: a bare
// fingerprint with OCSP disabled fails not-supported.
func TestISVALIDOnlyOCSPFingerprintNotSupported(t *testing.T) {
	settings := dirmngr.DefaultSettings()
	settings.OCSP.Enabled = false
	c := dirmngr.NewController(&settings, dirmngr.Collaborators{})
	inq := &fakeInquirer{}

	arg, err := dirmngr.ParseISVALIDArg("AABBCCDDEEFF00112233445566778899AABBCCDD")
	if err != nil {
		t.Fatalf("parseISVALIDArg: %v", err)
	}
	err = dirmngr.DecideISVALID(context.Background(), c, inq, true, false, arg)
	de := dirmngr.AsError(err)
	if de == nil || de.Kind != dirmngr.KindNotSupported {
		t.Fatalf("expected not-supported, got %v", err)
	}
}

// TestISVALIDOnlyOCSPSuppressesCRLRetry exercises the dot-form
// --only-ocsp modifier: a DontKnow verdict is reported immediately,
// without an INQUIRE round trip.
func TestISVALIDOnlyOCSPSuppressesCRLRetry(t *testing.T) {
	crl := dirmngrtest.NewCRLCache(dirmngrtest.CRLIsValid(func(issuerHash [20]byte, serial []byte, forceRefresh bool) (dirmngr.CRLVerdict, error) {
		return dirmngr.CRLDontKnow, nil
	}))
	c := newTestController(t, dirmngr.Collaborators{CRLCache: crl})
	inq := &fakeInquirer{}

	arg, err := dirmngr.ParseISVALIDArg("0123456789abcdef0123456789abcdef01234567.01")
	if err != nil {
		t.Fatalf("parseISVALIDArg: %v", err)
	}
	err = dirmngr.DecideISVALID(context.Background(), c, inq, true, false, arg)
	de := dirmngr.AsError(err)
	if de == nil || de.Kind != dirmngr.KindNoCRLKnown {
		t.Fatalf("expected no-crl-known, got %v", err)
	}
	if inq.calls != 0 {
		t.Fatalf("--only-ocsp must suppress the inquiry fallback, got %d calls", inq.calls)
	}
}

// TestParseISVALIDArgRejectsMalformed checks the argument-shape
// validation that gates both the dot-form and fingerprint-form paths.
func TestParseISVALIDArgRejectsMalformed(t *testing.T) {
	for _, bad := range []string{"", "not-hex", "aa.bb.cc", strings.Repeat("a", 39)} {
		if _, err := dirmngr.ParseISVALIDArg(bad); err == nil {
			t.Errorf("expected parseISVALIDArg(%q) to fail", bad)
		}
	}
}
