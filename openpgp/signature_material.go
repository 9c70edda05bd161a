package openpgp

// SignatureAlgorithm aliases PublicKeyAlgorithm: the signature material
// shape is selected by the same algorithm id space as public keys.
type SignatureAlgorithm = PublicKeyAlgorithm

// SignatureMaterial is the tagged union of per-algorithm signature
// component sets described in spec §3.
type SignatureMaterial struct {
	Algorithm SignatureAlgorithm

	RSA struct {
		MD MPI
	}
	DSALike struct { // DSA, ECDSA, EdDSA all share {r, s}
		R, S MPI
	}
	Raw []byte
}

func isDSALike(a SignatureAlgorithm) bool {
	switch a {
	case PubKeyAlgoDSA, PubKeyAlgoECDSA, PubKeyAlgoEdDSA:
		return true
	}
	return false
}

// ParseSignatureMaterial reads the algorithm-specific signature component
// set for algo from r.
func ParseSignatureMaterial(r *Reader, algo SignatureAlgorithm) (SignatureMaterial, error) {
	m := SignatureMaterial{Algorithm: algo}
	var err error
	switch {
	case algo.isRSA():
		if m.RSA.MD, err = ParseMPI(r); err != nil {
			return m, err
		}
	case isDSALike(algo):
		if m.DSALike.R, err = ParseMPI(r); err != nil {
			return m, err
		}
		if m.DSALike.S, err = ParseMPI(r); err != nil {
			return m, err
		}
	default:
		m.Raw = append([]byte(nil), r.Rest()...)
		if _, err := r.ReadN(r.Len()); err != nil {
			return m, err
		}
	}
	return m, nil
}

// Serialize writes the signature material back to wire form.
func (m SignatureMaterial) Serialize() []byte {
	switch {
	case m.Algorithm.isRSA():
		return m.RSA.MD.Serialize()
	case isDSALike(m.Algorithm):
		out := append([]byte(nil), m.DSALike.R.Serialize()...)
		return append(out, m.DSALike.S.Serialize()...)
	default:
		return append([]byte(nil), m.Raw...)
	}
}
