package openpgp

// Packet tags, restricted to the set spec §1 puts in scope: session-key
// and private-key material are deliberately absent, since the directory/
// keyserver service never handles secret key material.
const (
	TagSignature              uint8 = 2
	TagPublicKey              uint8 = 6
	TagCompressedData         uint8 = 8
	TagSymmetricallyEncrypted uint8 = 9
	TagMarker                 uint8 = 10
	TagLiteralData            uint8 = 11
	TagTrust                  uint8 = 12
	TagUserID                 uint8 = 13
	TagPublicSubkey           uint8 = 14
	TagUserAttribute          uint8 = 17
	TagSEIPD                  uint8 = 18
	TagMDC                    uint8 = 19
)

// MarkerPacket is the fixed "PGP" marker (tag 10), preserved verbatim.
type MarkerPacket struct {
	Body []byte
}

// LiteralPacket is literal data (tag 11): a one-octet format, a
// length-prefixed filename, a four-octet timestamp, and the data itself.
type LiteralPacket struct {
	Format   byte
	Filename string
	Date     uint32
	Data     []byte
}

// CompressedPacket (tag 8) carries an algorithm id and the opaque
// compressed payload; decompression is a crypto-provider concern (§1 out
// of scope), so the payload is kept opaque.
type CompressedPacket struct {
	Algorithm byte
	Data      []byte
}

// SymmetricallyEncryptedPacket (tag 9) is the legacy (non-MDC) symmetric
// data packet: pure opaque ciphertext.
type SymmetricallyEncryptedPacket struct {
	Data []byte
}

// SEIPDPacket (tag 18) is the symmetrically-encrypted, integrity-protected
// data packet: a one-octet version followed by the encrypted payload.
type SEIPDPacket struct {
	Version byte
	Data    []byte
}

// MDCPacket (tag 19) is the fixed 20-byte SHA-1 modification-detection
// code appended inside a decrypted SEIPD payload.
type MDCPacket struct {
	Hash [20]byte
}

// TrustPacket (tag 12) is opaque, implementation-defined trust data.
type TrustPacket struct {
	Data []byte
}

// UserIDPacket (tag 13) is a UTF-8 user id string (not necessarily valid
// UTF-8 on the wire; validation is the caller's responsibility).
type UserIDPacket struct {
	ID string
}

// UserAttributePacket (tag 17) holds a sequence of user-attribute
// subpackets (image subpackets being the only standard kind).
type UserAttributePacket struct {
	Subpackets []Subpacket
}

// PublicKeyPacket (tag 6) wraps a v3/v4 public key body.
type PublicKeyPacket struct {
	Data PublicKeyData
}

// PublicSubkeyPacket (tag 14) wraps a v3/v4 public subkey body; the body
// layout is identical to PublicKeyPacket.
type PublicSubkeyPacket struct {
	Data PublicKeyData
}

// SignaturePacket (tag 2) wraps a v3/v4 signature body.
type SignaturePacket struct {
	Data SignatureData
}

// RawPacket is the fallback for any tag not in the closed family above; it
// preserves the body verbatim so the stream parser never loses data it
// doesn't understand (spec §3's round-trip requirement for unknown tags).
type RawPacket struct {
	Tag  uint8
	Body []byte
}

// Packet is the closed tagged family of spec §3. Exactly one of the
// pointer fields is non-nil, selected by Tag.
type Packet struct {
	Header PacketHeader
	Tag    uint8

	Marker                 *MarkerPacket
	Literal                *LiteralPacket
	Compressed             *CompressedPacket
	SymmetricallyEncrypted *SymmetricallyEncryptedPacket
	SEIPD                  *SEIPDPacket
	MDC                    *MDCPacket
	Trust                  *TrustPacket
	UserID                 *UserIDPacket
	UserAttribute          *UserAttributePacket
	PublicKey              *PublicKeyPacket
	PublicSubkey           *PublicSubkeyPacket
	Signature              *SignaturePacket
	Raw                    *RawPacket
}

// ParsePacketBody dispatches on tag to build the tagged Packet variant
// from an already-materialized flat body (partial-length chunks already
// reassembled by the stream parser, per §4.4).
func ParsePacketBody(tag uint8, body []byte) (Packet, error) {
	p := Packet{Tag: tag}
	r := NewReader(body)
	switch tag {
	case TagSignature:
		d, err := ParseSignatureData(body)
		if err != nil {
			return p, err
		}
		p.Signature = &SignaturePacket{Data: d}

	case TagPublicKey:
		d, err := ParsePublicKeyData(r)
		if err != nil {
			return p, err
		}
		p.PublicKey = &PublicKeyPacket{Data: d}

	case TagPublicSubkey:
		d, err := ParsePublicKeyData(r)
		if err != nil {
			return p, err
		}
		p.PublicSubkey = &PublicSubkeyPacket{Data: d}

	case TagCompressedData:
		algo, err := r.ReadByte()
		if err != nil {
			return p, truncated("compressed data algorithm")
		}
		p.Compressed = &CompressedPacket{Algorithm: algo, Data: append([]byte(nil), r.Rest()...)}

	case TagSymmetricallyEncrypted:
		p.SymmetricallyEncrypted = &SymmetricallyEncryptedPacket{Data: append([]byte(nil), body...)}

	case TagMarker:
		p.Marker = &MarkerPacket{Body: append([]byte(nil), body...)}

	case TagLiteralData:
		format, err := r.ReadByte()
		if err != nil {
			return p, truncated("literal format")
		}
		nameLen, err := r.ReadByte()
		if err != nil {
			return p, truncated("literal filename length")
		}
		name, err := r.ReadN(int(nameLen))
		if err != nil {
			return p, truncated("literal filename")
		}
		date, err := r.ReadUint32()
		if err != nil {
			return p, truncated("literal date")
		}
		p.Literal = &LiteralPacket{
			Format:   format,
			Filename: string(name),
			Date:     date,
			Data:     append([]byte(nil), r.Rest()...),
		}

	case TagTrust:
		p.Trust = &TrustPacket{Data: append([]byte(nil), body...)}

	case TagUserID:
		p.UserID = &UserIDPacket{ID: string(body)}

	case TagUserAttribute:
		sps, err := ParseSubpacketArea(body, UserAttributeSubpacket)
		if err != nil {
			return p, err
		}
		p.UserAttribute = &UserAttributePacket{Subpackets: sps}

	case TagSEIPD:
		version, err := r.ReadByte()
		if err != nil {
			return p, truncated("seipd version")
		}
		p.SEIPD = &SEIPDPacket{Version: version, Data: append([]byte(nil), r.Rest()...)}

	case TagMDC:
		hash, err := r.ReadN(20)
		if err != nil {
			return p, truncated("mdc hash")
		}
		var m MDCPacket
		copy(m.Hash[:], hash)
		p.MDC = &m

	default:
		p.Raw = &RawPacket{Tag: tag, Body: append([]byte(nil), body...)}
	}
	return p, nil
}

// body reconstructs the packet's serialized body, independent of framing.
func (p Packet) body() []byte {
	switch p.Tag {
	case TagSignature:
		return p.Signature.Data.Serialize()
	case TagPublicKey:
		return p.PublicKey.Data.Serialize()
	case TagPublicSubkey:
		return p.PublicSubkey.Data.Serialize()
	case TagCompressedData:
		return append([]byte{p.Compressed.Algorithm}, p.Compressed.Data...)
	case TagSymmetricallyEncrypted:
		return append([]byte(nil), p.SymmetricallyEncrypted.Data...)
	case TagMarker:
		return append([]byte(nil), p.Marker.Body...)
	case TagLiteralData:
		lit := p.Literal
		out := []byte{lit.Format, byte(len(lit.Filename))}
		out = append(out, []byte(lit.Filename)...)
		out = append(out, byte(lit.Date>>24), byte(lit.Date>>16), byte(lit.Date>>8), byte(lit.Date))
		return append(out, lit.Data...)
	case TagTrust:
		return append([]byte(nil), p.Trust.Data...)
	case TagUserID:
		return []byte(p.UserID.ID)
	case TagUserAttribute:
		return serializeSubpackets(p.UserAttribute.Subpackets)
	case TagSEIPD:
		return append([]byte{p.SEIPD.Version}, p.SEIPD.Data...)
	case TagMDC:
		return append([]byte(nil), p.MDC.Hash[:]...)
	default:
		return append([]byte(nil), p.Raw.Body...)
	}
}

// Serialize writes the full packet -- header and body -- reproducing the
// exact original framing captured in p.Header when the packet came from
// the stream parser (spec §8 property 1).
func (p Packet) Serialize() []byte {
	body := p.body()
	if p.Header.LengthKind == Partial {
		return serializePartial(p.Header, body)
	}
	header := p.Header.Serialize(uint32(len(body)))
	return append(header, body...)
}

func serializePartial(h PacketHeader, body []byte) []byte {
	// Partial lengths are a new-format-only framing (old format's streaming
	// length type is Indeterminate, handled by the Definite/Indeterminate
	// path in Serialize via PacketHeader.Serialize).
	out := []byte{0xC0 | h.Tag}
	off := 0
	for _, size := range h.PartialChunkSizes {
		power := uintLog2(size)
		out = append(out, partialLengthOctet(power))
		out = append(out, body[off:off+int(size)]...)
		off += int(size)
	}
	remaining := body[off:]
	out = append(out, encodeNewFormatDefiniteLength(uint32(len(remaining)), 0)...)
	return append(out, remaining...)
}

func uintLog2(n uint32) uint {
	var p uint
	for n > 1 {
		n >>= 1
		p++
	}
	return p
}
