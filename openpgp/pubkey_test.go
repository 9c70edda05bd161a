package openpgp

import (
	"bytes"
	"testing"
)

func TestPublicKeyDataV3RSARoundTrip(t *testing.T) {
	// version=3, created, daysValid, algo=RSA(1), N mpi, E mpi.
	body := []byte{
		3,
		0x5A, 0x64, 0x9C, 0x0A, // created
		0x01, 0x00, // daysValid
		1, // RSA encrypt+sign
		0, 8, 0xAB, // N
		0, 8, 0x03, // E
	}
	r := NewReader(body)
	d, err := ParsePublicKeyData(r)
	if err != nil {
		t.Fatal(err)
	}
	if d.Version != KeyVersion3 || d.DaysValid != 0x0100 || d.Algorithm != PubKeyAlgoRSAEncryptSign {
		t.Fatalf("unexpected parse: %+v", d)
	}
	if out := d.Serialize(); !bytes.Equal(out, body) {
		t.Fatalf("round trip mismatch: got % x want % x", out, body)
	}
}

func TestPublicKeyDataV3RejectsNonRSA(t *testing.T) {
	body := []byte{
		3,
		0x5A, 0x64, 0x9C, 0x0A,
		0x01, 0x00,
		17, // DSA -- not legal for v3
		0, 8, 0x01,
	}
	if _, err := ParsePublicKeyData(NewReader(body)); err == nil {
		t.Fatal("expected error for v3 non-RSA algorithm")
	}
}

func TestPublicKeyDataV4ECDSARoundTrip(t *testing.T) {
	body := []byte{
		4,
		0x5A, 0x64, 0x9C, 0x0A,
		19,                                                 // ECDSA
		0x08, 0x2A, 0x86, 0x48, 0xCE, 0x3D, 0x03, 0x01, 0x07, // curve OID
		0, 8, 0x04, // Q mpi
	}
	r := NewReader(body)
	d, err := ParsePublicKeyData(r)
	if err != nil {
		t.Fatal(err)
	}
	if d.Algorithm != PubKeyAlgoECDSA || len(d.Material.ECDSA.Curve.Bytes) != 8 {
		t.Fatalf("unexpected parse: %+v", d)
	}
	if out := d.Serialize(); !bytes.Equal(out, body) {
		t.Fatalf("round trip mismatch: got % x want % x", out, body)
	}
}

func TestPublicKeyDataV4ECDHRoundTrip(t *testing.T) {
	body := []byte{
		4,
		0x5A, 0x64, 0x9C, 0x0A,
		18,                                                 // ECDH
		0x08, 0x2A, 0x86, 0x48, 0xCE, 0x3D, 0x03, 0x01, 0x07, // curve OID
		0, 8, 0x04, // Q mpi
		3, 0x01, 0x08, 0x07, // KDF: len=3, reserved, hash, symmetric
	}
	r := NewReader(body)
	d, err := ParsePublicKeyData(r)
	if err != nil {
		t.Fatal(err)
	}
	if d.Material.ECDH.KDF.HashID != 0x08 || d.Material.ECDH.KDF.SymmetricID != 0x07 {
		t.Fatalf("unexpected kdf: %+v", d.Material.ECDH.KDF)
	}
	if out := d.Serialize(); !bytes.Equal(out, body) {
		t.Fatalf("round trip mismatch: got % x want % x", out, body)
	}
}

func TestPublicKeyDataUnknownAlgorithmPreservesRaw(t *testing.T) {
	body := []byte{
		4,
		0x5A, 0x64, 0x9C, 0x0A,
		99, // unassigned algorithm id
		0xDE, 0xAD, 0xBE, 0xEF,
	}
	r := NewReader(body)
	d, err := ParsePublicKeyData(r)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(d.Material.Raw, []byte{0xDE, 0xAD, 0xBE, 0xEF}) {
		t.Fatalf("unexpected raw material: % x", d.Material.Raw)
	}
	if out := d.Serialize(); !bytes.Equal(out, body) {
		t.Fatalf("round trip mismatch: got % x want % x", out, body)
	}
}

func TestPublicKeyDataUnsupportedVersion(t *testing.T) {
	body := []byte{5, 0, 0, 0, 0}
	if _, err := ParsePublicKeyData(NewReader(body)); err == nil {
		t.Fatal("expected error for unsupported key version")
	}
}
