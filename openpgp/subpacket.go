package openpgp

import "unicode/utf8"

// SubpacketDomain distinguishes a v4 signature subpacket area from a
// user-attribute subpacket area. The two share identical wire framing
// (length-prefix, type octet with critical bit, data) but assign different
// meanings to the type octet.
type SubpacketDomain int

const (
	SignatureSubpacket SubpacketDomain = iota
	UserAttributeSubpacket
)

// Signature subpacket type octets (RFC 4880 §5.2.3.1).
const (
	spSignatureCreationTime         byte = 2
	spSignatureExpirationTime       byte = 3
	spExportableCertification       byte = 4
	spTrustSignature                byte = 5
	spRegularExpression             byte = 6
	spRevocable                     byte = 7
	spKeyExpirationTime             byte = 9
	spPreferredSymmetricAlgorithms  byte = 11
	spRevocationKey                 byte = 12
	spIssuer                        byte = 16
	spNotationData                  byte = 20
	spPreferredHashAlgorithms       byte = 21
	spPreferredCompressionAlgorithms byte = 22
	spKeyServerPreferences          byte = 23
	spPreferredKeyServer            byte = 24
	spPrimaryUserID                 byte = 25
	spPolicyURI                     byte = 26
	spKeyFlags                      byte = 27
	spSignerUserID                  byte = 28
	spReasonForRevocation           byte = 29
	spFeatures                      byte = 30
	spSignatureTarget               byte = 31
	spEmbeddedSignature             byte = 32
)

// User-attribute subpacket type octets (RFC 4880 §5.12).
const uaImage byte = 1

// TrustSignatureBody carries the level/amount pair of a trust-signature
// subpacket.
type TrustSignatureBody struct {
	Level  byte
	Amount byte
}

// RevocationKeyBody carries the designated-revoker triple.
type RevocationKeyBody struct {
	Class       byte
	Algorithm   PublicKeyAlgorithm
	Fingerprint [20]byte
}

// NotationDataBody carries notation flags plus name/value. Name is only
// guaranteed to be valid UTF-8 when the human-readable bit (bit 31 of
// Flags, i.e. the high bit of Flags[0]) is set; readers MUST NOT validate
// UTF-8 when that bit is clear (spec §4.3).
type NotationDataBody struct {
	Flags [4]byte
	Name  []byte
	Value []byte
}

// HumanReadable reports whether the notation's name/value are declared
// human-readable. When set, the parser rejects a Name that is not valid
// UTF-8; Value is not checked.
func (n NotationDataBody) HumanReadable() bool {
	return n.Flags[0]&0x80 != 0
}

// ReasonForRevocationBody carries the revocation code and free-text reason.
type ReasonForRevocationBody struct {
	Code   byte
	Reason string
}

// SignatureTargetBody identifies the target of a signature-target
// subpacket: the algorithm pair used to produce Hash.
type SignatureTargetBody struct {
	PubKeyAlgorithm PublicKeyAlgorithm
	HashAlgorithm   byte
	Hash            []byte
}

// ImageBody is the parsed user-attribute image subpacket. HeaderLen may
// legally exceed the fixed 16-byte header; HeaderRest preserves whatever
// trailing header bytes follow Version/Format verbatim so round-trip holds.
type ImageBody struct {
	HeaderLen  uint16
	Version    byte
	Format     byte
	HeaderRest []byte
	Data       []byte
}

// Subpacket is the closed, tagged family of spec §3 covering every defined
// signature subpacket and user-attribute subpacket. Exactly one of the
// typed fields is meaningful, selected by Type (and Domain, for the single
// type octet --- 1 --- that means different things in each domain); unknown
// Type values carry their payload verbatim in Raw.
type Subpacket struct {
	Domain   SubpacketDomain
	Critical bool
	Type     byte
	Known    bool // false => Raw holds the verbatim payload

	SignatureCreationTime   uint32
	SignatureExpirationTime uint32
	Exportable              bool
	TrustSignature          TrustSignatureBody
	RegularExpression       []byte
	Revocable               bool
	KeyExpirationTime       uint32
	PreferredSymmetric      []byte
	RevocationKey           RevocationKeyBody
	Issuer                  [8]byte
	NotationData            NotationDataBody
	PreferredHash           []byte
	PreferredCompression    []byte
	KeyServerPreferences    []byte
	PreferredKeyServer      string
	PrimaryUserID           bool
	PolicyURI               string
	KeyFlags                []byte
	SignerUserID            string
	ReasonForRevocation     ReasonForRevocationBody
	Features                []byte
	SignatureTarget         SignatureTargetBody
	EmbeddedSignature       *SignatureData
	Image                   ImageBody

	Raw []byte
}

// readSubpacketLength reads the RFC 4880 §5.2.3.1 variable-length
// encoding shared between new-format packet body lengths and subpacket
// lengths (minus the partial-body forms, which subpackets never use). The
// returned length counts the type octet plus the subpacket data.
func readSubpacketLength(r *Reader) (int, error) {
	first, err := r.ReadByte()
	if err != nil {
		return 0, truncated("subpacket length")
	}
	switch {
	case first < 192:
		return int(first), nil
	case first < 255:
		second, err := r.ReadByte()
		if err != nil {
			return 0, truncated("subpacket length")
		}
		return (int(first)-192)<<8 + int(second) + 192, nil
	default:
		n, err := r.ReadUint32()
		if err != nil {
			return 0, truncated("subpacket length")
		}
		return int(n), nil
	}
}

func writeSubpacketLength(n int) []byte {
	switch {
	case n < 192:
		return []byte{byte(n)}
	case n < 8384:
		n -= 192
		return []byte{byte(n>>8) + 192, byte(n)}
	default:
		return []byte{255, byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
	}
}

// ParseSubpacketArea parses the full concatenation of length-prefixed
// subpackets found in data (a hashed or unhashed signature subpacket area,
// or a user-attribute packet body). Because each subpacket is read
// directly off the shared cursor, the loop can only terminate with the
// cursor exactly exhausted or with an error -- it enforces spec
// §3's "inner lengths must sum to the declared area length" invariant by
// construction.
func ParseSubpacketArea(data []byte, domain SubpacketDomain) ([]Subpacket, error) {
	r := NewReader(data)
	var out []Subpacket
	for r.Len() > 0 {
		sp, err := parseOneSubpacket(r, domain)
		if err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, nil
}

func parseOneSubpacket(r *Reader, domain SubpacketDomain) (Subpacket, error) {
	length, err := readSubpacketLength(r)
	if err != nil {
		return Subpacket{}, err
	}
	if length < 1 {
		return Subpacket{}, invalid("subpacket", "zero-length subpacket")
	}
	body, err := r.ReadN(length)
	if err != nil {
		return Subpacket{}, truncated("subpacket body")
	}
	typeOctet := body[0]
	sp := Subpacket{
		Domain:   domain,
		Critical: typeOctet&0x80 != 0,
		Type:     typeOctet &^ 0x80,
	}
	payload := body[1:]
	if domain == UserAttributeSubpacket {
		return parseUserAttributeSubpacket(sp, payload)
	}
	return parseSignatureSubpacket(sp, payload)
}

func parseSignatureSubpacket(sp Subpacket, payload []byte) (Subpacket, error) {
	r := NewReader(payload)
	sp.Known = true
	var err error
	switch sp.Type {
	case spSignatureCreationTime:
		sp.SignatureCreationTime, err = r.ReadUint32()
	case spSignatureExpirationTime:
		sp.SignatureExpirationTime, err = r.ReadUint32()
	case spExportableCertification:
		var b byte
		b, err = r.ReadByte()
		sp.Exportable = b != 0
	case spTrustSignature:
		sp.TrustSignature.Level, err = r.ReadByte()
		if err == nil {
			sp.TrustSignature.Amount, err = r.ReadByte()
		}
	case spRegularExpression:
		sp.RegularExpression = append([]byte(nil), r.Rest()...)
	case spRevocable:
		var b byte
		b, err = r.ReadByte()
		sp.Revocable = b != 0
	case spKeyExpirationTime:
		sp.KeyExpirationTime, err = r.ReadUint32()
	case spPreferredSymmetricAlgorithms:
		sp.PreferredSymmetric = append([]byte(nil), r.Rest()...)
	case spRevocationKey:
		sp.RevocationKey.Class, err = r.ReadByte()
		if err == nil {
			var algo byte
			algo, err = r.ReadByte()
			sp.RevocationKey.Algorithm = PublicKeyAlgorithm(algo)
		}
		if err == nil {
			var fpr []byte
			fpr, err = r.ReadN(20)
			copy(sp.RevocationKey.Fingerprint[:], fpr)
		}
	case spIssuer:
		var id []byte
		id, err = r.ReadN(8)
		copy(sp.Issuer[:], id)
	case spNotationData:
		sp.NotationData, err = parseNotationData(r)
	case spPreferredHashAlgorithms:
		sp.PreferredHash = append([]byte(nil), r.Rest()...)
	case spPreferredCompressionAlgorithms:
		sp.PreferredCompression = append([]byte(nil), r.Rest()...)
	case spKeyServerPreferences:
		sp.KeyServerPreferences = append([]byte(nil), r.Rest()...)
	case spPreferredKeyServer:
		sp.PreferredKeyServer = string(r.Rest())
	case spPrimaryUserID:
		var b byte
		b, err = r.ReadByte()
		sp.PrimaryUserID = b != 0
	case spPolicyURI:
		sp.PolicyURI = string(r.Rest())
	case spKeyFlags:
		sp.KeyFlags = append([]byte(nil), r.Rest()...)
	case spSignerUserID:
		sp.SignerUserID = string(r.Rest())
	case spReasonForRevocation:
		sp.ReasonForRevocation.Code, err = r.ReadByte()
		if err == nil {
			sp.ReasonForRevocation.Reason = string(r.Rest())
		}
	case spFeatures:
		sp.Features = append([]byte(nil), r.Rest()...)
	case spSignatureTarget:
		var pk, hash byte
		pk, err = r.ReadByte()
		sp.SignatureTarget.PubKeyAlgorithm = PublicKeyAlgorithm(pk)
		if err == nil {
			hash, err = r.ReadByte()
			sp.SignatureTarget.HashAlgorithm = hash
		}
		if err == nil {
			sp.SignatureTarget.Hash = append([]byte(nil), r.Rest()...)
		}
	case spEmbeddedSignature:
		sig, perr := ParseSignatureData(r.Rest())
		if perr != nil {
			return sp, perr
		}
		sp.EmbeddedSignature = &sig
	default:
		sp.Known = false
		sp.Raw = append([]byte(nil), payload...)
	}
	if err != nil {
		return sp, err
	}
	return sp, nil
}

func parseNotationData(r *Reader) (NotationDataBody, error) {
	var n NotationDataBody
	flags, err := r.ReadN(4)
	if err != nil {
		return n, truncated("notation flags")
	}
	copy(n.Flags[:], flags)
	nameLen, err := r.ReadUint16()
	if err != nil {
		return n, truncated("notation name length")
	}
	valueLen, err := r.ReadUint16()
	if err != nil {
		return n, truncated("notation value length")
	}
	name, err := r.ReadN(int(nameLen))
	if err != nil {
		return n, truncated("notation name")
	}
	value, err := r.ReadN(int(valueLen))
	if err != nil {
		return n, truncated("notation value")
	}
	n.Name = append([]byte(nil), name...)
	n.Value = append([]byte(nil), value...)
	if n.HumanReadable() && !utf8.Valid(n.Name) {
		return n, invalid("notation data", "human-readable name is not valid UTF-8")
	}
	return n, nil
}

func parseUserAttributeSubpacket(sp Subpacket, payload []byte) (Subpacket, error) {
	if sp.Type != uaImage {
		sp.Known = false
		sp.Raw = append([]byte(nil), payload...)
		return sp, nil
	}
	sp.Known = true
	r := NewReader(payload)
	headerLen, err := r.ReadUint16LE()
	if err != nil {
		return sp, truncated("image header length")
	}
	version, err := r.ReadByte()
	if err != nil {
		return sp, truncated("image version")
	}
	format, err := r.ReadByte()
	if err != nil {
		return sp, truncated("image format")
	}
	// The fixed header accounted for so far is 2 (length) + 1 (version) + 1
	// (format) = 4 bytes; headerLen MAY declare a larger header, whose
	// trailing bytes must be preserved verbatim for round-trip.
	restHeader := int(headerLen) - 4
	if restHeader < 0 {
		return sp, invalid("image header", "declared header length shorter than fixed fields")
	}
	headerRest, err := r.ReadN(restHeader)
	if err != nil {
		return sp, truncated("image header tail")
	}
	sp.Image = ImageBody{
		HeaderLen:  headerLen,
		Version:    version,
		Format:     format,
		HeaderRest: append([]byte(nil), headerRest...),
		Data:       append([]byte(nil), r.Rest()...),
	}
	return sp, nil
}

// Serialize writes the subpacket back to its length-prefixed wire form,
// including the critical bit folded into the type octet.
func (sp Subpacket) Serialize() []byte {
	payload := sp.serializePayload()
	typeOctet := sp.Type
	if sp.Critical {
		typeOctet |= 0x80
	}
	body := append([]byte{typeOctet}, payload...)
	out := writeSubpacketLength(len(body))
	return append(out, body...)
}

func (sp Subpacket) serializePayload() []byte {
	if !sp.Known {
		return append([]byte(nil), sp.Raw...)
	}
	be32 := func(v uint32) []byte {
		return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)}
	}
	boolByte := func(b bool) []byte {
		if b {
			return []byte{1}
		}
		return []byte{0}
	}
	switch sp.Domain {
	case UserAttributeSubpacket:
		if sp.Type == uaImage {
			out := []byte{byte(sp.Image.HeaderLen), byte(sp.Image.HeaderLen >> 8), sp.Image.Version, sp.Image.Format}
			out = append(out, sp.Image.HeaderRest...)
			out = append(out, sp.Image.Data...)
			return out
		}
		return append([]byte(nil), sp.Raw...)
	}
	switch sp.Type {
	case spSignatureCreationTime:
		return be32(sp.SignatureCreationTime)
	case spSignatureExpirationTime:
		return be32(sp.SignatureExpirationTime)
	case spExportableCertification:
		return boolByte(sp.Exportable)
	case spTrustSignature:
		return []byte{sp.TrustSignature.Level, sp.TrustSignature.Amount}
	case spRegularExpression:
		return append([]byte(nil), sp.RegularExpression...)
	case spRevocable:
		return boolByte(sp.Revocable)
	case spKeyExpirationTime:
		return be32(sp.KeyExpirationTime)
	case spPreferredSymmetricAlgorithms:
		return append([]byte(nil), sp.PreferredSymmetric...)
	case spRevocationKey:
		out := []byte{sp.RevocationKey.Class, byte(sp.RevocationKey.Algorithm)}
		return append(out, sp.RevocationKey.Fingerprint[:]...)
	case spIssuer:
		return append([]byte(nil), sp.Issuer[:]...)
	case spNotationData:
		out := append([]byte(nil), sp.NotationData.Flags[:]...)
		out = append(out, byte(len(sp.NotationData.Name)>>8), byte(len(sp.NotationData.Name)))
		out = append(out, byte(len(sp.NotationData.Value)>>8), byte(len(sp.NotationData.Value)))
		out = append(out, sp.NotationData.Name...)
		out = append(out, sp.NotationData.Value...)
		return out
	case spPreferredHashAlgorithms:
		return append([]byte(nil), sp.PreferredHash...)
	case spPreferredCompressionAlgorithms:
		return append([]byte(nil), sp.PreferredCompression...)
	case spKeyServerPreferences:
		return append([]byte(nil), sp.KeyServerPreferences...)
	case spPreferredKeyServer:
		return []byte(sp.PreferredKeyServer)
	case spPrimaryUserID:
		return boolByte(sp.PrimaryUserID)
	case spPolicyURI:
		return []byte(sp.PolicyURI)
	case spKeyFlags:
		return append([]byte(nil), sp.KeyFlags...)
	case spSignerUserID:
		return []byte(sp.SignerUserID)
	case spReasonForRevocation:
		return append([]byte{sp.ReasonForRevocation.Code}, []byte(sp.ReasonForRevocation.Reason)...)
	case spFeatures:
		return append([]byte(nil), sp.Features...)
	case spSignatureTarget:
		out := []byte{byte(sp.SignatureTarget.PubKeyAlgorithm), sp.SignatureTarget.HashAlgorithm}
		return append(out, sp.SignatureTarget.Hash...)
	case spEmbeddedSignature:
		return sp.EmbeddedSignature.Serialize()
	default:
		return append([]byte(nil), sp.Raw...)
	}
}
