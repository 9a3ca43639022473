package darlin

import (
	"io"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bn254"

	"github.com/eon-protocol/darlin/dlog"
	"github.com/eon-protocol/darlin/errs"
	"github.com/eon-protocol/darlin/marlin"
)

// Points are written compressed and decoded with subgroup checks, scalars as
// canonical big-endian; both per gnark-crypto's encoders.

type encoder interface {
	Encode(v interface{}) error
	BytesWritten() int64
}

type decoder interface {
	Decode(v interface{}) error
	BytesRead() int64
}

func encodeAll(enc encoder, vals ...interface{}) (int64, error) {
	for _, v := range vals {
		if err := enc.Encode(v); err != nil {
			return enc.BytesWritten(), err
		}
	}
	return enc.BytesWritten(), nil
}

func decodeAll(dec decoder, vals ...interface{}) (int64, error) {
	for _, v := range vals {
		if err := dec.Decode(v); err != nil {
			return dec.BytesRead(), errs.Wrap(errs.KindOther, err)
		}
	}
	return dec.BytesRead(), nil
}

func writeItem[E, P any](enc encoder, item *dlog.Item[E, P]) (int64, error) {
	return encodeAll(enc, &item.G, item.CheckPoly.Xi)
}

func readItem[E, P any](dec decoder, item *dlog.Item[E, P]) (int64, error) {
	return decodeAll(dec, &item.G, &item.CheckPoly.Xi)
}

func (me *DeferredData) WriteTo(w io.Writer) (int64, error) {
	n, err := writeItem(bn254.NewEncoder(w), &me.PreviousAcc)
	if err != nil {
		return n, err
	}
	m, err := writeItem(bls12381.NewEncoder(w), &me.PrePreviousAcc)
	return n + m, err
}

func (me *DeferredData) ReadFrom(r io.Reader) (int64, error) {
	n, err := readItem(bn254.NewDecoder(r), &me.PreviousAcc)
	if err != nil {
		return n, err
	}
	m, err := readItem(bls12381.NewDecoder(r), &me.PrePreviousAcc)
	return n + m, err
}

func writeMarlinProof(enc encoder, proof *MarlinProof) (int64, error) {
	vals := make([]interface{}, 0, len(proof.Commitments)+6)
	for i := range proof.Commitments {
		vals = append(vals, &proof.Commitments[i])
	}
	o := &proof.Opening
	vals = append(vals, proof.Evaluations, &o.H, o.Opening.L, o.Opening.R, &o.Opening.GFinal, &o.Opening.A)
	return encodeAll(enc, vals...)
}

func readMarlinProof(dec decoder, proof *MarlinProof) (int64, error) {
	vals := make([]interface{}, 0, len(proof.Commitments)+6)
	for i := range proof.Commitments {
		vals = append(vals, &proof.Commitments[i])
	}
	o := &proof.Opening
	vals = append(vals, &proof.Evaluations, &o.H, &o.Opening.L, &o.Opening.R, &o.Opening.GFinal, &o.Opening.A)
	return decodeAll(dec, vals...)
}

func (me *SimpleMarlinPCD) WriteTo(w io.Writer) (int64, error) {
	enc := bls12381.NewEncoder(w)
	if _, err := encodeAll(enc, me.UsrIns); err != nil {
		return enc.BytesWritten(), err
	}
	return writeMarlinProof(enc, me.Proof)
}

func (me *SimpleMarlinPCD) ReadFrom(r io.Reader) (int64, error) {
	dec := bls12381.NewDecoder(r)
	if _, err := decodeAll(dec, &me.UsrIns); err != nil {
		return dec.BytesRead(), err
	}
	me.Proof = new(MarlinProof)
	return readMarlinProof(dec, me.Proof)
}

func (me *FinalDarlinPCD) WriteTo(w io.Writer) (int64, error) {
	m := SimpleMarlinPCD{Proof: me.Proof, UsrIns: me.UsrIns}
	n, err := m.WriteTo(w)
	if err != nil {
		return n, err
	}
	k, err := me.Deferred.WriteTo(w)
	return n + k, err
}

func (me *FinalDarlinPCD) ReadFrom(r io.Reader) (int64, error) {
	var m SimpleMarlinPCD
	n, err := m.ReadFrom(r)
	if err != nil {
		return n, err
	}
	me.Proof, me.UsrIns = m.Proof, m.UsrIns
	k, err := me.Deferred.ReadFrom(r)
	return n + k, err
}

func indexInfoFields(info *marlin.IndexInfo) [4]*int {
	return [4]*int{&info.NumInputs, &info.NumWitness, &info.NumConstraints, &info.NumNonZero}
}

// WriteIndexKey writes the circuit part of a verifier key. The committer keys
// are stored on their own, see WriteCommitterKeyG1.
func WriteIndexKey(w io.Writer, vk *IndexKey) (int64, error) {
	vals := make([]interface{}, 0, 4+len(vk.Commitments))
	for _, f := range indexInfoFields(&vk.Info) {
		vals = append(vals, uint64(*f))
	}
	for i := range vk.Commitments {
		vals = append(vals, &vk.Commitments[i])
	}
	return encodeAll(bls12381.NewEncoder(w), vals...)
}

// ReadIndexKey reads a key written by WriteIndexKey and recomputes its hash.
func ReadIndexKey(r io.Reader) (*IndexKey, int64, error) {
	dec := bls12381.NewDecoder(r)
	vk := new(IndexKey)
	var raw [4]uint64
	vals := make([]interface{}, 0, 4+len(vk.Commitments))
	for i := range raw {
		vals = append(vals, &raw[i])
	}
	for i := range vk.Commitments {
		vals = append(vals, &vk.Commitments[i])
	}
	n, err := decodeAll(dec, vals...)
	if err != nil {
		return nil, n, err
	}
	for i, f := range indexInfoFields(&vk.Info) {
		if raw[i] > 1<<32 {
			return nil, n, errs.New(errs.KindOther, "index size %d out of range", raw[i])
		}
		*f = int(raw[i])
	}
	marlin.RefreshHash(CurveG1(), vk)
	return vk, n, nil
}

func WriteCommitterKeyG1(w io.Writer, ck *CommitterKeyG1) (int64, error) {
	return encodeAll(bls12381.NewEncoder(w), ck.G, &ck.H)
}

// ReadCommitterKeyG1 decodes a key written by WriteCommitterKeyG1. The hash
// is recomputed, so callers can compare it against the expected one.
func ReadCommitterKeyG1(r io.Reader) (*CommitterKeyG1, int64, error) {
	ck := new(CommitterKeyG1)
	n, err := decodeAll(bls12381.NewDecoder(r), &ck.G, &ck.H)
	if err != nil {
		return nil, n, err
	}
	if err := checkCommitterKeySize(len(ck.G)); err != nil {
		return nil, n, err
	}
	ck.Hash = dlog.KeyHash(CurveG1(), ck)
	return ck, n, nil
}

func WriteCommitterKeyG2(w io.Writer, ck *CommitterKeyG2) (int64, error) {
	return encodeAll(bn254.NewEncoder(w), ck.G, &ck.H)
}

func ReadCommitterKeyG2(r io.Reader) (*CommitterKeyG2, int64, error) {
	ck := new(CommitterKeyG2)
	n, err := decodeAll(bn254.NewDecoder(r), &ck.G, &ck.H)
	if err != nil {
		return nil, n, err
	}
	if err := checkCommitterKeySize(len(ck.G)); err != nil {
		return nil, n, err
	}
	ck.Hash = dlog.KeyHash(CurveG2(), ck)
	return ck, n, nil
}

// checkCommitterKeySize rejects generator counts Setup cannot produce.
func checkCommitterKeySize(size int) error {
	if size < 2 || size&(size-1) != 0 {
		return errs.New(errs.KindOther, "committer key of %d generators is not a power of two >= 2", size)
	}
	return nil
}
