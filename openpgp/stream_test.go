package openpgp

import (
	"bytes"
	stderrors "errors"
	"testing"

	"github.com/pkg/errors"
)

func TestParseAllMultiplePackets(t *testing.T) {
	marker := []byte{0xA8, 0x03, 'P', 'G', 'P'}        // old format tag 10, indeterminate-free 1-octet length
	trust := []byte{0xB0, 0x02, 0x01, 0x02}             // old format tag 12, 1-octet length
	var input []byte
	input = append(input, marker...)
	input = append(input, trust...)

	pkts, err := ParseAll(bytes.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if len(pkts) != 2 {
		t.Fatalf("expected 2 packets, got %d", len(pkts))
	}
	if pkts[0].Marker == nil || string(pkts[0].Marker.Body) != "PGP" {
		t.Fatalf("unexpected first packet: %+v", pkts[0])
	}
	if pkts[1].Trust == nil || !bytes.Equal(pkts[1].Trust.Data, []byte{0x01, 0x02}) {
		t.Fatalf("unexpected second packet: %+v", pkts[1])
	}
	var out []byte
	for _, p := range pkts {
		out = append(out, p.Serialize()...)
	}
	if !bytes.Equal(out, input) {
		t.Fatalf("round trip mismatch: got % x want % x", out, input)
	}
}

func TestParseAllStopsAtFirstError(t *testing.T) {
	good := []byte{0xB0, 0x02, 0x01, 0x02}
	bad := []byte{0xB0, 0x05, 0x01} // declares 5-byte body, supplies 1
	input := append(append([]byte{}, good...), bad...)

	pkts, err := ParseAll(bytes.NewReader(input))
	if err == nil {
		t.Fatal("expected error from truncated second packet")
	}
	if len(pkts) != 1 {
		t.Fatalf("expected 1 packet parsed before the error, got %d", len(pkts))
	}
}

func TestIndeterminateLengthConsumesRemainder(t *testing.T) {
	// Old-format literal packet (streamable), indeterminate length,
	// consuming everything left in the source.
	input := []byte{0xAF, 'b', 1, 'A', 0, 0, 0, 0, 'x', 'y', 'z'}
	pkts, err := ParseAll(bytes.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	if len(pkts) != 1 || string(pkts[0].Literal.Data) != "xyz" {
		t.Fatalf("unexpected result: %+v", pkts)
	}
}

func TestErrTruncatedIsTheCause(t *testing.T) {
	_, err := ParseAll(bytes.NewReader([]byte{0xB0, 0x05, 0x01}))
	if err == nil {
		t.Fatal("expected error")
	}
	var pe *ParseError
	if !stderrors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if errors.Cause(pe) != ErrTruncated {
		t.Fatalf("expected ErrTruncated as cause, got %v", errors.Cause(pe))
	}
}
