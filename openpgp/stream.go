package openpgp

import (
	"io"

	"github.com/pkg/errors"
)

// StreamReader pulls a lazy finite sequence of packets from a byte
// source. Per spec §5, codec parsing has no suspension points: the
// source is read to completion up front and then walked with the same
// bounds-checked Reader the variant parsers use.
type StreamReader struct {
	r *Reader
}

// NewStreamReader materializes src and prepares it for sequential packet
// parsing.
func NewStreamReader(src io.Reader) (*StreamReader, error) {
	buf, err := io.ReadAll(src)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return &StreamReader{r: NewReader(buf)}, nil
}

// Next returns the next packet, or io.EOF once the source is exhausted.
// Any parse error is fatal for the stream: per §4.4 the parser never
// attempts resynchronization, so a caller that receives a non-EOF error
// must stop calling Next.
func (s *StreamReader) Next() (Packet, error) {
	if s.r.Len() == 0 {
		return Packet{}, io.EOF
	}
	hdr, err := ParsePacketHeader(s.r)
	if err != nil {
		return Packet{}, err
	}
	body, err := s.readBody(&hdr)
	if err != nil {
		return Packet{}, err
	}
	pkt, err := ParsePacketBody(hdr.Tag, body)
	if err != nil {
		return Packet{}, err
	}
	pkt.Header = hdr
	return pkt, nil
}

// readBody assembles a flat body for hdr, following the partial-body
// chain (if any) so that the variant parser in ParsePacketBody always sees
// a single contiguous slice, per §4.4.
func (s *StreamReader) readBody(hdr *PacketHeader) ([]byte, error) {
	switch hdr.LengthKind {
	case Definite:
		return s.r.ReadN(int(hdr.BodyLength))

	case Indeterminate:
		n := s.r.Len()
		return s.r.ReadN(n)

	case Partial:
		var body []byte
		var chunkSizes []uint32
		chunkSize := hdr.BodyLength
		for {
			chunk, err := s.r.ReadN(int(chunkSize))
			if err != nil {
				return nil, truncated("partial body chunk")
			}
			body = append(body, chunk...)
			chunkSizes = append(chunkSizes, chunkSize)

			kind, _, length, err := readNewFormatLength(s.r)
			if err != nil {
				return nil, err
			}
			if kind == Partial {
				chunkSize = length
				continue
			}
			final, err := s.r.ReadN(int(length))
			if err != nil {
				return nil, truncated("final partial chunk")
			}
			body = append(body, final...)
			hdr.PartialChunkSizes = chunkSizes
			return body, nil
		}

	default:
		return nil, invalid("packet body", "unrecognized length kind")
	}
}

// ParseAll drains a StreamReader into a slice, stopping at the first
// error (which is returned alongside whatever packets were parsed before
// it).
func ParseAll(src io.Reader) ([]Packet, error) {
	sr, err := NewStreamReader(src)
	if err != nil {
		return nil, err
	}
	var out []Packet
	for {
		pkt, err := sr.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, pkt)
	}
}
