package openpgp

import "testing"

func TestReaderBoundedReads(t *testing.T) {
	r := NewReader([]byte{1, 2, 3, 4, 5})
	if r.Len() != 5 {
		t.Fatalf("expected length 5, got %d", r.Len())
	}
	b, err := r.ReadByte()
	if err != nil || b != 1 {
		t.Fatalf("unexpected ReadByte result: %v %v", b, err)
	}
	peek, err := r.PeekByte()
	if err != nil || peek != 2 {
		t.Fatalf("unexpected PeekByte result: %v %v", peek, err)
	}
	if r.Pos() != 1 {
		t.Fatalf("PeekByte must not advance cursor, pos=%d", r.Pos())
	}
	n, err := r.ReadN(3)
	if err != nil || len(n) != 3 {
		t.Fatalf("unexpected ReadN result: %v %v", n, err)
	}
	if rest := r.Rest(); len(rest) != 1 || rest[0] != 5 {
		t.Fatalf("unexpected Rest: %v", rest)
	}
}

func TestReaderTruncatedReads(t *testing.T) {
	r := NewReader([]byte{1, 2})
	if _, err := r.ReadN(3); err == nil {
		t.Fatal("expected truncation error reading past end")
	}
	if _, err := r.ReadUint32(); err == nil {
		t.Fatal("expected truncation error reading uint32 from 2 bytes")
	}
	empty := NewReader(nil)
	if _, err := empty.ReadByte(); err == nil {
		t.Fatal("expected truncation error reading byte from empty buffer")
	}
	if _, err := empty.PeekByte(); err == nil {
		t.Fatal("expected truncation error peeking empty buffer")
	}
}

func TestReaderUint16Endianness(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02})
	v, err := r.ReadUint16()
	if err != nil || v != 0x0102 {
		t.Fatalf("expected big-endian 0x0102, got %#x (%v)", v, err)
	}
	rle := NewReader([]byte{0x01, 0x02})
	vle, err := rle.ReadUint16LE()
	if err != nil || vle != 0x0201 {
		t.Fatalf("expected little-endian 0x0201, got %#x (%v)", vle, err)
	}
}

func TestReaderNegativeReadN(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})
	if _, err := r.ReadN(-1); err == nil {
		t.Fatal("expected error for negative ReadN")
	}
}
