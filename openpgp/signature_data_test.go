package openpgp

import (
	"bytes"
	"testing"
)

func TestSignatureDataV3RoundTrip(t *testing.T) {
	body := []byte{
		3,
		5, // hashed length, must be 5
		0x10, // type
		0x5A, 0x64, 0x9C, 0x0A, // created
		1, 2, 3, 4, 5, 6, 7, 8, // issuer key id
		1,          // RSA
		2,          // SHA-1
		0xAB, 0xCD, // quick16
		0, 8, 0xFF, // MD mpi
	}
	d, err := ParseSignatureData(body)
	if err != nil {
		t.Fatal(err)
	}
	if d.Version != SignatureVersion3 || d.Type != 0x10 || d.PKAlgorithm != PubKeyAlgoRSAEncryptSign {
		t.Fatalf("unexpected parse: %+v", d)
	}
	if out := d.Serialize(); !bytes.Equal(out, body) {
		t.Fatalf("round trip mismatch: got % x want % x", out, body)
	}
}

func TestSignatureDataV3RejectsWrongHashedLength(t *testing.T) {
	body := []byte{3, 4, 0x10, 0, 0, 0, 0, 1, 2, 3, 4, 5, 6, 7, 8, 1, 2, 0xAB, 0xCD}
	if _, err := ParseSignatureData(body); err == nil {
		t.Fatal("expected error for v3 hashed length != 5")
	}
}

func TestSignatureDataV4WithSubpacketsRoundTrip(t *testing.T) {
	creationSP := buildSubpacket(true, spSignatureCreationTime, []byte{0x5A, 0x64, 0x9C, 0x0A})
	issuerSP := buildSubpacket(false, spIssuer, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	hashedArea := creationSP
	unhashedArea := issuerSP

	body := []byte{4, 0x13, 17, 2}
	body = append(body, byte(len(hashedArea)>>8), byte(len(hashedArea)))
	body = append(body, hashedArea...)
	body = append(body, byte(len(unhashedArea)>>8), byte(len(unhashedArea)))
	body = append(body, unhashedArea...)
	body = append(body, 0xAB, 0xCD)
	body = append(body, 0, 8, 0xFF) // DSA R
	body = append(body, 0, 8, 0xEE) // DSA S

	d, err := ParseSignatureData(body)
	if err != nil {
		t.Fatal(err)
	}
	if len(d.HashedSubpackets) != 1 || len(d.UnhashedSubpackets) != 1 {
		t.Fatalf("unexpected subpacket counts: %d hashed, %d unhashed", len(d.HashedSubpackets), len(d.UnhashedSubpackets))
	}
	if d.HashedSubpackets[0].SignatureCreationTime != 0x5A649C0A {
		t.Fatalf("unexpected creation time: %+v", d.HashedSubpackets[0])
	}
	if out := d.Serialize(); !bytes.Equal(out, body) {
		t.Fatalf("round trip mismatch: got % x want % x", out, body)
	}
}

func TestSignatureDataUnsupportedVersion(t *testing.T) {
	if _, err := ParseSignatureData([]byte{9, 0, 0, 0}); err == nil {
		t.Fatal("expected error for unsupported signature version")
	}
}
