package openpgp

// PublicKeyAlgorithm identifies the public-key algorithm of a key or
// signature, per RFC 4880 and its ECC extensions.
type PublicKeyAlgorithm uint8

const (
	PubKeyAlgoRSAEncryptSign PublicKeyAlgorithm = 1
	PubKeyAlgoRSAEncryptOnly PublicKeyAlgorithm = 2
	PubKeyAlgoRSASignOnly    PublicKeyAlgorithm = 3
	PubKeyAlgoElgamal        PublicKeyAlgorithm = 16
	PubKeyAlgoDSA            PublicKeyAlgorithm = 17
	PubKeyAlgoECDH           PublicKeyAlgorithm = 18
	PubKeyAlgoECDSA          PublicKeyAlgorithm = 19
	PubKeyAlgoElgamalSign    PublicKeyAlgorithm = 20
	PubKeyAlgoEdDSA          PublicKeyAlgorithm = 22
)

func (a PublicKeyAlgorithm) isRSA() bool {
	switch a {
	case PubKeyAlgoRSAEncryptSign, PubKeyAlgoRSAEncryptOnly, PubKeyAlgoRSASignOnly:
		return true
	}
	return false
}

// KDFParams is the ECDH key-derivation-function parameter triple.
type KDFParams struct {
	Reserved  byte
	HashID    byte
	SymmetricID byte
}

// PublicKeyMaterial is the tagged union of per-algorithm public key
// component sets described in spec §3.
type PublicKeyMaterial struct {
	Algorithm PublicKeyAlgorithm

	// RSA (1,2,3)
	RSA struct {
		N, E MPI
	}
	// Elgamal (16,20)
	Elgamal struct {
		P, G, Y MPI
	}
	// DSA (17)
	DSA struct {
		P, Q, G, Y MPI
	}
	// ECDSA (19)
	ECDSA struct {
		Curve OID
		Q     MPI
	}
	// ECDH (18)
	ECDH struct {
		Curve OID
		Q     MPI
		KDF   KDFParams
	}
	// EdDSA (22)
	EdDSA struct {
		Curve OID
		Q     MPI
	}
	// Unknown algorithms keep their remaining body verbatim.
	Raw []byte
}

// ParsePublicKeyMaterial reads the algorithm-specific component set for
// algo from r. r must be positioned exactly at the start of that material;
// unknown algorithms consume the remainder of r.
func ParsePublicKeyMaterial(r *Reader, algo PublicKeyAlgorithm) (PublicKeyMaterial, error) {
	m := PublicKeyMaterial{Algorithm: algo}
	var err error
	switch {
	case algo.isRSA():
		if m.RSA.N, err = ParseMPI(r); err != nil {
			return m, err
		}
		if m.RSA.E, err = ParseMPI(r); err != nil {
			return m, err
		}
	case algo == PubKeyAlgoElgamal || algo == PubKeyAlgoElgamalSign:
		if m.Elgamal.P, err = ParseMPI(r); err != nil {
			return m, err
		}
		if m.Elgamal.G, err = ParseMPI(r); err != nil {
			return m, err
		}
		if m.Elgamal.Y, err = ParseMPI(r); err != nil {
			return m, err
		}
	case algo == PubKeyAlgoDSA:
		if m.DSA.P, err = ParseMPI(r); err != nil {
			return m, err
		}
		if m.DSA.Q, err = ParseMPI(r); err != nil {
			return m, err
		}
		if m.DSA.G, err = ParseMPI(r); err != nil {
			return m, err
		}
		if m.DSA.Y, err = ParseMPI(r); err != nil {
			return m, err
		}
	case algo == PubKeyAlgoECDSA:
		if m.ECDSA.Curve, err = ParseOID(r); err != nil {
			return m, err
		}
		if m.ECDSA.Q, err = ParseMPI(r); err != nil {
			return m, err
		}
	case algo == PubKeyAlgoEdDSA:
		if m.EdDSA.Curve, err = ParseOID(r); err != nil {
			return m, err
		}
		if m.EdDSA.Q, err = ParseMPI(r); err != nil {
			return m, err
		}
	case algo == PubKeyAlgoECDH:
		if m.ECDH.Curve, err = ParseOID(r); err != nil {
			return m, err
		}
		if m.ECDH.Q, err = ParseMPI(r); err != nil {
			return m, err
		}
		kdfLen, err := r.ReadByte()
		if err != nil {
			return m, truncated("ecdh kdf length")
		}
		kdf, err := r.ReadN(int(kdfLen))
		if err != nil {
			return m, truncated("ecdh kdf body")
		}
		if len(kdf) >= 3 {
			m.ECDH.KDF = KDFParams{Reserved: kdf[0], HashID: kdf[1], SymmetricID: kdf[2]}
		}
	default:
		m.Raw = append([]byte(nil), r.Rest()...)
		if _, err := r.ReadN(r.Len()); err != nil {
			return m, err
		}
	}
	return m, nil
}

// Serialize writes the material back to wire form.
func (m PublicKeyMaterial) Serialize() []byte {
	var out []byte
	switch {
	case m.Algorithm.isRSA():
		out = append(out, m.RSA.N.Serialize()...)
		out = append(out, m.RSA.E.Serialize()...)
	case m.Algorithm == PubKeyAlgoElgamal || m.Algorithm == PubKeyAlgoElgamalSign:
		out = append(out, m.Elgamal.P.Serialize()...)
		out = append(out, m.Elgamal.G.Serialize()...)
		out = append(out, m.Elgamal.Y.Serialize()...)
	case m.Algorithm == PubKeyAlgoDSA:
		out = append(out, m.DSA.P.Serialize()...)
		out = append(out, m.DSA.Q.Serialize()...)
		out = append(out, m.DSA.G.Serialize()...)
		out = append(out, m.DSA.Y.Serialize()...)
	case m.Algorithm == PubKeyAlgoECDSA:
		out = append(out, m.ECDSA.Curve.Serialize()...)
		out = append(out, m.ECDSA.Q.Serialize()...)
	case m.Algorithm == PubKeyAlgoEdDSA:
		out = append(out, m.EdDSA.Curve.Serialize()...)
		out = append(out, m.EdDSA.Q.Serialize()...)
	case m.Algorithm == PubKeyAlgoECDH:
		out = append(out, m.ECDH.Curve.Serialize()...)
		out = append(out, m.ECDH.Q.Serialize()...)
		out = append(out, 3, m.ECDH.KDF.Reserved, m.ECDH.KDF.HashID, m.ECDH.KDF.SymmetricID)
	default:
		out = append(out, m.Raw...)
	}
	return out
}

// KeyVersion identifies the public-key packet body layout.
type KeyVersion uint8

const (
	KeyVersion3 KeyVersion = 3
	KeyVersion4 KeyVersion = 4
)

// PublicKeyData is the tagged-by-version public key body of spec §3.
type PublicKeyData struct {
	Version   KeyVersion
	Created   uint32
	DaysValid uint16 // v3 only
	Algorithm PublicKeyAlgorithm
	Material  PublicKeyMaterial
}

// ParsePublicKeyData parses a v3 or v4 public-key (or public-subkey) body.
func ParsePublicKeyData(r *Reader) (PublicKeyData, error) {
	var d PublicKeyData
	ver, err := r.ReadByte()
	if err != nil {
		return d, truncated("public key version")
	}
	d.Version = KeyVersion(ver)
	created, err := r.ReadUint32()
	if err != nil {
		return d, truncated("public key created")
	}
	d.Created = created

	switch d.Version {
	case KeyVersion3:
		daysValid, err := r.ReadUint16()
		if err != nil {
			return d, truncated("public key days valid")
		}
		d.DaysValid = daysValid
		algo, err := r.ReadByte()
		if err != nil {
			return d, truncated("public key algorithm")
		}
		d.Algorithm = PublicKeyAlgorithm(algo)
		if !d.Algorithm.isRSA() {
			return d, invalid("public key v3", "v3 keys are only legal with RSA algorithms")
		}
		d.Material, err = ParsePublicKeyMaterial(r, d.Algorithm)
		if err != nil {
			return d, err
		}
	case KeyVersion4:
		algo, err := r.ReadByte()
		if err != nil {
			return d, truncated("public key algorithm")
		}
		d.Algorithm = PublicKeyAlgorithm(algo)
		d.Material, err = ParsePublicKeyMaterial(r, d.Algorithm)
		if err != nil {
			return d, err
		}
	default:
		return d, invalid("public key version", "unsupported public key version")
	}
	return d, nil
}

// Serialize writes the public key body back to wire form.
func (d PublicKeyData) Serialize() []byte {
	out := []byte{byte(d.Version), byte(d.Created >> 24), byte(d.Created >> 16), byte(d.Created >> 8), byte(d.Created)}
	if d.Version == KeyVersion3 {
		out = append(out, byte(d.DaysValid>>8), byte(d.DaysValid))
	}
	out = append(out, byte(d.Algorithm))
	out = append(out, d.Material.Serialize()...)
	return out
}
