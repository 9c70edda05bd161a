package openpgp

import "fmt"

// Dump returns a one-line human-readable summary of the packet, in the
// spirit of NeoPG's packet-dump tool: tag, framing, and a
// variant-specific gloss. It never fails -- Dump is diagnostic, not a
// wire format.
func (p Packet) Dump() string {
	switch p.Tag {
	case TagSignature:
		s := p.Signature.Data
		return fmt.Sprintf("Signature: v%d type=%d pk_algo=%d hash_algo=%d",
			s.Version, s.Type, s.PKAlgorithm, s.HashAlgorithm)
	case TagPublicKey:
		k := p.PublicKey.Data
		return fmt.Sprintf("PublicKey: v%d algo=%d created=%d", k.Version, k.Algorithm, k.Created)
	case TagPublicSubkey:
		k := p.PublicSubkey.Data
		return fmt.Sprintf("PublicSubkey: v%d algo=%d created=%d", k.Version, k.Algorithm, k.Created)
	case TagUserID:
		return fmt.Sprintf("UserID: %q", p.UserID.ID)
	case TagUserAttribute:
		return fmt.Sprintf("UserAttribute: %d subpacket(s)", len(p.UserAttribute.Subpackets))
	case TagLiteralData:
		l := p.Literal
		return fmt.Sprintf("Literal: format=%c filename=%q date=%d bytes=%d", l.Format, l.Filename, l.Date, len(l.Data))
	case TagCompressedData:
		return fmt.Sprintf("Compressed: algo=%d bytes=%d", p.Compressed.Algorithm, len(p.Compressed.Data))
	case TagSymmetricallyEncrypted:
		return fmt.Sprintf("SymmetricallyEncrypted: bytes=%d", len(p.SymmetricallyEncrypted.Data))
	case TagSEIPD:
		return fmt.Sprintf("SEIPD: version=%d bytes=%d", p.SEIPD.Version, len(p.SEIPD.Data))
	case TagMDC:
		return fmt.Sprintf("MDC: %x", p.MDC.Hash)
	case TagTrust:
		return fmt.Sprintf("Trust: bytes=%d", len(p.Trust.Data))
	case TagMarker:
		return fmt.Sprintf("Marker: %q", p.Marker.Body)
	default:
		return fmt.Sprintf("Raw: tag=%d bytes=%d", p.Raw.Tag, len(p.Raw.Body))
	}
}
