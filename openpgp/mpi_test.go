package openpgp

import (
	"bytes"
	"testing"
)

func TestMPIRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
	}{
		{"one byte", []byte{0x00, 0x08, 0x80}},
		{"two bytes full", []byte{0x00, 0x10, 0xFF, 0xFF}},
		{"leading partial byte", []byte{0x00, 0x01, 0x01}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := NewReader(c.in)
			m, err := ParseMPI(r)
			if err != nil {
				t.Fatal(err)
			}
			if out := m.Serialize(); !bytes.Equal(out, c.in) {
				t.Fatalf("round trip mismatch: got % x want % x", out, c.in)
			}
		})
	}
}

func TestMPITruncated(t *testing.T) {
	r := NewReader([]byte{0x00, 0x10, 0xFF}) // declares 2 bytes, supplies 1
	if _, err := ParseMPI(r); err == nil {
		t.Fatal("expected truncation error")
	}
}

func TestNewMPIStripsLeadingZeroesAndComputesBitLength(t *testing.T) {
	m := NewMPI([]byte{0x00, 0x00, 0x01})
	if m.BitLength != 1 || !bytes.Equal(m.Bytes, []byte{0x01}) {
		t.Fatalf("unexpected MPI: %+v", m)
	}
	m2 := NewMPI([]byte{0xFF})
	if m2.BitLength != 8 {
		t.Fatalf("expected bit length 8, got %d", m2.BitLength)
	}
	m3 := NewMPI(nil)
	if m3.BitLength != 0 || m3.Bytes != nil {
		t.Fatalf("expected zero MPI for empty input, got %+v", m3)
	}
}
