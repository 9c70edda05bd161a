package openpgp

// OID carries a DER content-octets blob addressing an elliptic curve. On
// the wire it is a one-octet length prefix followed by that many content
// bytes; lengths 0 and 0xFF are reserved and rejected.
type OID struct {
	Bytes []byte
}

// ParseOID reads one length-prefixed OID from r.
func ParseOID(r *Reader) (OID, error) {
	l, err := r.ReadByte()
	if err != nil {
		return OID{}, truncated("oid length")
	}
	if l == 0 || l == 0xFF {
		return OID{}, invalid("oid length", "reserved OID length octet")
	}
	b, err := r.ReadN(int(l))
	if err != nil {
		return OID{}, truncated("oid bytes")
	}
	out := make([]byte, len(b))
	copy(out, b)
	return OID{Bytes: out}, nil
}

// Serialize writes the OID back in wire form.
func (o OID) Serialize() []byte {
	out := make([]byte, 1+len(o.Bytes))
	out[0] = byte(len(o.Bytes))
	copy(out[1:], o.Bytes)
	return out
}
