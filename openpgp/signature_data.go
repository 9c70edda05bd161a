package openpgp

// SignatureVersion identifies the signature packet body layout.
type SignatureVersion uint8

const (
	SignatureVersion3 SignatureVersion = 3
	SignatureVersion4 SignatureVersion = 4
)

// SignatureData is the tagged-by-version signature body of spec §3.
type SignatureData struct {
	Version SignatureVersion
	Type    byte

	// v3 only
	Created     uint32
	IssuerKeyID [8]byte

	PKAlgorithm   PublicKeyAlgorithm
	HashAlgorithm byte

	// v4 only
	HashedSubpackets   []Subpacket
	UnhashedSubpackets []Subpacket

	Quick16  [2]byte
	Material SignatureMaterial
}

// ParseSignatureData parses a complete signature packet body (v3 or v4),
// as found either as the body of a Signature packet or inside an
// embedded-signature subpacket.
func ParseSignatureData(body []byte) (SignatureData, error) {
	r := NewReader(body)
	var d SignatureData
	ver, err := r.ReadByte()
	if err != nil {
		return d, truncated("signature version")
	}
	d.Version = SignatureVersion(ver)

	switch d.Version {
	case SignatureVersion3:
		hashedLen, err := r.ReadByte()
		if err != nil {
			return d, truncated("signature v3 hashed length")
		}
		if hashedLen != 5 {
			return d, invalid("signature v3", "hashed material length must be 5")
		}
		sigType, err := r.ReadByte()
		if err != nil {
			return d, truncated("signature v3 type")
		}
		d.Type = sigType
		created, err := r.ReadUint32()
		if err != nil {
			return d, truncated("signature v3 created")
		}
		d.Created = created
		issuer, err := r.ReadN(8)
		if err != nil {
			return d, truncated("signature v3 issuer")
		}
		copy(d.IssuerKeyID[:], issuer)
		algo, err := r.ReadByte()
		if err != nil {
			return d, truncated("signature v3 pk algorithm")
		}
		d.PKAlgorithm = PublicKeyAlgorithm(algo)
		hashAlgo, err := r.ReadByte()
		if err != nil {
			return d, truncated("signature v3 hash algorithm")
		}
		d.HashAlgorithm = hashAlgo
		quick, err := r.ReadN(2)
		if err != nil {
			return d, truncated("signature v3 quick16")
		}
		copy(d.Quick16[:], quick)
		d.Material, err = ParseSignatureMaterial(r, d.PKAlgorithm)
		if err != nil {
			return d, err
		}

	case SignatureVersion4:
		sigType, err := r.ReadByte()
		if err != nil {
			return d, truncated("signature v4 type")
		}
		d.Type = sigType
		algo, err := r.ReadByte()
		if err != nil {
			return d, truncated("signature v4 pk algorithm")
		}
		d.PKAlgorithm = PublicKeyAlgorithm(algo)
		hashAlgo, err := r.ReadByte()
		if err != nil {
			return d, truncated("signature v4 hash algorithm")
		}
		d.HashAlgorithm = hashAlgo

		hashedLen, err := r.ReadUint16()
		if err != nil {
			return d, truncated("signature v4 hashed area length")
		}
		hashedArea, err := r.ReadN(int(hashedLen))
		if err != nil {
			return d, truncated("signature v4 hashed area")
		}
		d.HashedSubpackets, err = ParseSubpacketArea(hashedArea, SignatureSubpacket)
		if err != nil {
			return d, err
		}

		unhashedLen, err := r.ReadUint16()
		if err != nil {
			return d, truncated("signature v4 unhashed area length")
		}
		unhashedArea, err := r.ReadN(int(unhashedLen))
		if err != nil {
			return d, truncated("signature v4 unhashed area")
		}
		d.UnhashedSubpackets, err = ParseSubpacketArea(unhashedArea, SignatureSubpacket)
		if err != nil {
			return d, err
		}

		quick, err := r.ReadN(2)
		if err != nil {
			return d, truncated("signature v4 quick16")
		}
		copy(d.Quick16[:], quick)
		d.Material, err = ParseSignatureMaterial(r, d.PKAlgorithm)
		if err != nil {
			return d, err
		}

	default:
		return d, invalid("signature version", "unsupported signature version")
	}
	return d, nil
}

// Serialize writes the signature body back to wire form.
func (d SignatureData) Serialize() []byte {
	switch d.Version {
	case SignatureVersion3:
		out := []byte{byte(d.Version), 5, d.Type,
			byte(d.Created >> 24), byte(d.Created >> 16), byte(d.Created >> 8), byte(d.Created)}
		out = append(out, d.IssuerKeyID[:]...)
		out = append(out, byte(d.PKAlgorithm), d.HashAlgorithm)
		out = append(out, d.Quick16[:]...)
		return append(out, d.Material.Serialize()...)

	default: // v4
		out := []byte{byte(d.Version), d.Type, byte(d.PKAlgorithm), d.HashAlgorithm}
		hashed := serializeSubpackets(d.HashedSubpackets)
		out = append(out, byte(len(hashed)>>8), byte(len(hashed)))
		out = append(out, hashed...)
		unhashed := serializeSubpackets(d.UnhashedSubpackets)
		out = append(out, byte(len(unhashed)>>8), byte(len(unhashed)))
		out = append(out, unhashed...)
		out = append(out, d.Quick16[:]...)
		return append(out, d.Material.Serialize()...)
	}
}

func serializeSubpackets(sps []Subpacket) []byte {
	var out []byte
	for _, sp := range sps {
		out = append(out, sp.Serialize()...)
	}
	return out
}
