package marlin

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/eon-protocol/darlin/algebra"
	"github.com/eon-protocol/darlin/dlog"
	"github.com/eon-protocol/darlin/errs"
)

// IndexLabels names the index polynomials, in commitment order.
var IndexLabels = [9]string{
	"a_row", "a_col", "a_val",
	"b_row", "b_col", "b_val",
	"c_row", "c_col", "c_val",
}

// VerifierKey is the committed index of a constraint system.
type VerifierKey[P any] struct {
	Info        IndexInfo
	Commitments [9]P
	Hash        [32]byte
}

// ProverKey extends the verifier key with the index polynomials themselves.
type ProverKey[E, P any] struct {
	VerifierKey *VerifierKey[P]
	R1CS        *R1CS[E]
	// Polys are in coefficient form, Evals are the same polynomials over K.
	Polys [9][]E
	Evals [9][]E
}

// domains builds H and K for info.
func domains[E, P any, PE algebra.Element[E], PP algebra.Point[P, E]](c *algebra.Curve[E, P, PE, PP], info IndexInfo) (h, k *algebra.Domain[E, PE], err error) {
	if h, err = c.BestDomain(uint64(max(info.NumInputs+info.NumWitness, info.NumConstraints))); err != nil {
		return nil, nil, errs.Wrap(errs.KindOther, fmt.Errorf("domain H: %w", err))
	}
	if k, err = c.BestDomain(uint64(info.NumNonZero)); err != nil {
		return nil, nil, errs.Wrap(errs.KindOther, fmt.Errorf("domain K: %w", err))
	}
	return h, k, nil
}

// Index encodes the matrices of r over K and commits to them.
func Index[E, P any, PE algebra.Element[E], PP algebra.Point[P, E]](c *algebra.Curve[E, P, PE, PP], ck *dlog.CommitterKey[P], r *R1CS[E]) (*ProverKey[E, P], error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	info := r.Info()
	h, k, err := domains(c, info)
	if err != nil {
		return nil, err
	}
	if k.Size > uint64(ck.Size()) {
		return nil, fmt.Errorf("index domain of size %d exceeds the committer key size %d", k.Size, ck.Size())
	}

	pk := &ProverKey[E, P]{R1CS: r, VerifierKey: &VerifierKey[P]{Info: info}}
	for m, entries := range r.matrices() {
		row := make([]E, k.Size)
		col := make([]E, k.Size)
		val := make([]E, k.Size)
		for i := range row {
			if i >= len(entries) {
				PE(&row[i]).SetOne()
				PE(&col[i]).SetOne()
				continue
			}
			e := entries[i]
			row[i] = h.Element(uint64(e.Row))
			col[i] = h.Element(uint64(e.Col))
			PE(&val[i]).Mul(&e.Value, &col[i])
			PE(&val[i]).Mul(&val[i], &h.SizeInv)
		}
		for j, evals := range [3][]E{row, col, val} {
			coeffs, err := k.Interpolate(evals)
			if err != nil {
				return nil, err
			}
			cm, err := dlog.Commit(c, ck, coeffs)
			if err != nil {
				return nil, err
			}
			pk.Evals[3*m+j] = evals
			pk.Polys[3*m+j] = coeffs
			pk.VerifierKey.Commitments[3*m+j] = cm
		}
	}
	pk.VerifierKey.Hash = verifierKeyHash(c, pk.VerifierKey)
	return pk, nil
}

func verifierKeyHash[E, P any, PE algebra.Element[E], PP algebra.Point[P, E]](c *algebra.Curve[E, P, PE, PP], vk *VerifierKey[P]) [32]byte {
	hash, _ := blake2b.New256(nil)
	var buf [8]byte
	for _, v := range []int{vk.Info.NumInputs, vk.Info.NumWitness, vk.Info.NumConstraints, vk.Info.NumNonZero} {
		binary.BigEndian.PutUint64(buf[:], uint64(v))
		hash.Write(buf[:])
	}
	for i := range vk.Commitments {
		hash.Write(PP(&vk.Commitments[i]).Marshal())
	}
	var res [32]byte
	copy(res[:], hash.Sum(nil))
	return res
}

// RefreshHash recomputes vk.Hash, e.g. after decoding a key.
func RefreshHash[E, P any, PE algebra.Element[E], PP algebra.Point[P, E]](c *algebra.Curve[E, P, PE, PP], vk *VerifierKey[P]) {
	vk.Hash = verifierKeyHash(c, vk)
}
