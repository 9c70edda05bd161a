package openpgp

import (
	"bytes"
	"testing"
)

func TestOIDRoundTrip(t *testing.T) {
	// NIST P-256 curve OID content octets.
	in := []byte{0x08, 0x2A, 0x86, 0x48, 0xCE, 0x3D, 0x03, 0x01, 0x07}
	r := NewReader(in)
	oid, err := ParseOID(r)
	if err != nil {
		t.Fatal(err)
	}
	if len(oid.Bytes) != 8 {
		t.Fatalf("expected 8 content bytes, got %d", len(oid.Bytes))
	}
	if out := oid.Serialize(); !bytes.Equal(out, in) {
		t.Fatalf("round trip mismatch: got % x want % x", out, in)
	}
}

func TestOIDReservedLengths(t *testing.T) {
	if _, err := ParseOID(NewReader([]byte{0x00})); err == nil {
		t.Fatal("expected error for reserved length 0")
	}
	if _, err := ParseOID(NewReader([]byte{0xFF})); err == nil {
		t.Fatal("expected error for reserved length 0xFF")
	}
}
