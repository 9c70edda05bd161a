package openpgp

import (
	"bytes"
	"testing"
)

func buildSubpacket(critical bool, typ byte, payload []byte) []byte {
	typeOctet := typ
	if critical {
		typeOctet |= 0x80
	}
	body := append([]byte{typeOctet}, payload...)
	return append(writeSubpacketLength(len(body)), body...)
}

func TestSignatureCreationTimeRoundTrip(t *testing.T) {
	data := buildSubpacket(true, spSignatureCreationTime, []byte{0x5A, 0x64, 0x9C, 0x0A})
	sps, err := ParseSubpacketArea(data, SignatureSubpacket)
	if err != nil {
		t.Fatal(err)
	}
	if len(sps) != 1 {
		t.Fatalf("expected 1 subpacket, got %d", len(sps))
	}
	sp := sps[0]
	if !sp.Critical || !sp.Known || sp.SignatureCreationTime != 0x5A649C0A {
		t.Fatalf("unexpected parse: %+v", sp)
	}
	if out := sp.Serialize(); !bytes.Equal(out, data) {
		t.Fatalf("round trip mismatch: got % x want % x", out, data)
	}
}

func TestNotationDataHumanReadableRequiresUTF8(t *testing.T) {
	// Human-readable bit set, invalid UTF-8 in the name -> error.
	// flags(4) + nameLen(2)=2 + valueLen(2)=0 + name(2 invalid UTF-8 bytes).
	bad := []byte{0x80, 0, 0, 0, 0, 2, 0, 0, 0xFF, 0xFE}
	data := buildSubpacket(false, spNotationData, bad)
	if _, err := ParseSubpacketArea(data, SignatureSubpacket); err == nil {
		t.Fatal("expected UTF-8 validation error for human-readable notation name")
	}
}

func TestNotationDataNonHumanReadableSkipsUTF8Check(t *testing.T) {
	// Human-readable bit clear: invalid UTF-8 bytes are accepted verbatim.
	payload := []byte{0x00, 0, 0, 0, 0, 2, 0, 0, 0xFF, 0xFE}
	data := buildSubpacket(false, spNotationData, payload)
	sps, err := ParseSubpacketArea(data, SignatureSubpacket)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(sps[0].NotationData.Name, []byte{0xFF, 0xFE}) {
		t.Fatalf("unexpected notation name: % x", sps[0].NotationData.Name)
	}
	if out := sps[0].Serialize(); !bytes.Equal(out, data) {
		t.Fatalf("round trip mismatch: got % x want % x", out, data)
	}
}

func TestUnknownSignatureSubpacketPreservesRaw(t *testing.T) {
	data := buildSubpacket(false, 100, []byte{0xDE, 0xAD, 0xBE, 0xEF})
	sps, err := ParseSubpacketArea(data, SignatureSubpacket)
	if err != nil {
		t.Fatal(err)
	}
	sp := sps[0]
	if sp.Known {
		t.Fatal("expected unknown subpacket type to be unparsed")
	}
	if !bytes.Equal(sp.Raw, []byte{0xDE, 0xAD, 0xBE, 0xEF}) {
		t.Fatalf("unexpected raw payload: % x", sp.Raw)
	}
	if out := sp.Serialize(); !bytes.Equal(out, data) {
		t.Fatalf("round trip mismatch: got % x want % x", out, data)
	}
}

func TestEmbeddedSignatureSubpacket(t *testing.T) {
	// Build a minimal v4 signature body: version, type, pk_algo, hash_algo,
	// zero-length hashed area, zero-length unhashed area, 2-byte quick
	// check, and enough material bytes for a DSA-like signature (2 MPIs).
	sigBody := []byte{
		4,          // version
		0x13,       // sig type
		17,         // DSA
		2,          // SHA-1
		0, 0,       // hashed subpacket area: 0 bytes
		0, 0,       // unhashed subpacket area: 0 bytes
		0xAB, 0xCD, // quick check
		0, 8, 0xFF, // MPI r: 8 bits, 1 byte
		0, 8, 0xEE, // MPI s: 8 bits, 1 byte
	}
	data := buildSubpacket(false, spEmbeddedSignature, sigBody)
	sps, err := ParseSubpacketArea(data, SignatureSubpacket)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sp := sps[0]
	if sp.EmbeddedSignature == nil {
		t.Fatal("expected embedded signature to be parsed")
	}
	if sp.EmbeddedSignature.PKAlgorithm != 17 {
		t.Fatalf("unexpected embedded pk algorithm: %d", sp.EmbeddedSignature.PKAlgorithm)
	}
	if out := sp.Serialize(); !bytes.Equal(out, data) {
		t.Fatalf("round trip mismatch: got % x want % x", out, data)
	}
}

func TestUserAttributeImageSubpacketPreservesExtraHeader(t *testing.T) {
	// headerLen=6 means 2 extra header bytes beyond the fixed 4 (length LE,
	// version, format) must be captured verbatim in HeaderRest.
	payload := []byte{6, 0, 1, 1, 0xAA, 0xBB, 'J', 'P', 'G'}
	data := buildSubpacket(false, uaImage, payload)
	sps, err := ParseSubpacketArea(data, UserAttributeSubpacket)
	if err != nil {
		t.Fatal(err)
	}
	img := sps[0].Image
	if img.HeaderLen != 6 || img.Version != 1 || img.Format != 1 {
		t.Fatalf("unexpected image header: %+v", img)
	}
	if !bytes.Equal(img.HeaderRest, []byte{0xAA, 0xBB}) {
		t.Fatalf("unexpected header tail: % x", img.HeaderRest)
	}
	if string(img.Data) != "JPG" {
		t.Fatalf("unexpected image data: %q", img.Data)
	}
	if out := sps[0].Serialize(); !bytes.Equal(out, data) {
		t.Fatalf("round trip mismatch: got % x want % x", out, data)
	}
}

func TestZeroLengthSubpacketIsInvalid(t *testing.T) {
	data := []byte{0x00} // length 0
	if _, err := ParseSubpacketArea(data, SignatureSubpacket); err == nil {
		t.Fatal("expected error for zero-length subpacket")
	}
}

func TestSubpacketAreaTruncatedInnerLength(t *testing.T) {
	// Declares a 10-byte subpacket but only supplies 3 bytes of data.
	data := []byte{10, 0x02, 0x01, 0x02}
	if _, err := ParseSubpacketArea(data, SignatureSubpacket); err == nil {
		t.Fatal("expected truncation error")
	}
}
