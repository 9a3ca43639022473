package darlin

import (
	"fmt"
	"io"

	frbls "github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	frbn "github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/eon-protocol/darlin/algebra"
	"github.com/eon-protocol/darlin/dlog"
	"github.com/eon-protocol/darlin/errs"
)

// challengeBits is the width of every accumulator challenge.
const challengeBits = 128

// DeferredData carries the accumulators left by the two previous recursion
// steps: PreviousAcc on the other curve and PrePreviousAcc on this one.
type DeferredData struct {
	PreviousAcc    ItemG2
	PrePreviousAcc ItemG1
}

// Validate reports why one of the accumulators is not well-formed.
func (me *DeferredData) Validate(ckG1 *CommitterKeyG1, ckG2 *CommitterKeyG2) error {
	if err := dlog.ValidateItem(CurveG2(), ckG2, &me.PreviousAcc); err != nil {
		return fmt.Errorf("previous accumulator: %w", err)
	}
	if err := dlog.ValidateItem(CurveG1(), ckG1, &me.PrePreviousAcc); err != nil {
		return fmt.Errorf("pre-previous accumulator: %w", err)
	}
	return nil
}

func (me *DeferredData) IsValid(ckG1 *CommitterKeyG1, ckG2 *CommitterKeyG2) bool {
	return me.Validate(ckG1, ckG2) == nil
}

// ToFieldElements serializes the deferred data as public input of the
// current circuit:
//
//	prev.G.X, prev.G.Y                 native, the BN254 base field fits
//	pre-prev.G as (xq, xm, yq, ym)     split modulo the scalar modulus
//	packed bits of every challenge     previous ones first, 128 bits each, MSB first
func (me *DeferredData) ToFieldElements() ([]FrG1, error) {
	g1, g2 := CurveG1(), CurveG2()
	if g2.BaseModulus.Cmp(g1.ScalarModulus) >= 0 {
		return nil, errs.New(errs.KindOther, "%s coordinates do not fit the %s scalar field", g2, g1)
	}
	prev, prePrev := &me.PreviousAcc, &me.PrePreviousAcc

	res := make([]FrG1, 0, NbDeferredElements(len(prev.CheckPoly.Xi), len(prePrev.CheckPoly.Xi)))
	x, y := g2.Coordinates(prev.G)
	res = append(res, algebra.FromBigInt[FrG1](&x), algebra.FromBigInt[FrG1](&y))
	res = append(res, g1.PointElements(prePrev.G)...)

	bits := make([]bool, 0, challengeBits*(len(prev.CheckPoly.Xi)+len(prePrev.CheckPoly.Xi)))
	for i, xi := range prev.CheckPoly.Xi {
		b, err := challengeToBits(algebra.ToBitsMSB(xi, frbn.Bits))
		if err != nil {
			return nil, fmt.Errorf("previous challenge %d: %w", i, err)
		}
		bits = append(bits, b...)
	}
	for i, xi := range prePrev.CheckPoly.Xi {
		b, err := challengeToBits(algebra.ToBitsMSB(xi, frbls.Bits))
		if err != nil {
			return nil, fmt.Errorf("pre-previous challenge %d: %w", i, err)
		}
		bits = append(bits, b...)
	}
	return append(res, algebra.PackBits[FrG1](bits, PACKING_CAPACITY)...), nil
}

// challengeToBits drops the leading bits of a full-width MSB-first
// serialization, which must all be zero.
func challengeToBits(full []bool) ([]bool, error) {
	top := len(full) - challengeBits
	for i := 0; i < top; i++ {
		if full[i] {
			return nil, errs.New(errs.KindOther, "challenge does not fit in %d bits", challengeBits)
		}
	}
	return full[top:], nil
}

// NbDeferredElements is the length of ToFieldElements for accumulators of
// k2 (previous) and k1 (pre-previous) challenges.
func NbDeferredElements(k2, k1 int) int {
	nbBits := challengeBits * (k2 + k1)
	return 2 + 4 + (nbBits+PACKING_CAPACITY-1)/PACKING_CAPACITY
}

// GenerateRandomDeferredData returns valid deferred data for the given keys.
// It is meant for tests and benchmarks.
func GenerateRandomDeferredData(ckG1 *CommitterKeyG1, ckG2 *CommitterKeyG2, rng io.Reader) (*DeferredData, error) {
	prev, err := dlog.GenerateRandomItem(CurveG2(), ckG2, rng)
	if err != nil {
		return nil, err
	}
	prePrev, err := dlog.GenerateRandomItem(CurveG1(), ckG1, rng)
	if err != nil {
		return nil, err
	}
	return &DeferredData{PreviousAcc: *prev, PrePreviousAcc: *prePrev}, nil
}

func cloneItem[E, P any](item *dlog.Item[E, P]) dlog.Item[E, P] {
	return dlog.Item[E, P]{
		G:         item.G,
		CheckPoly: dlog.SuccinctCheckPolynomial[E]{Xi: append([]E(nil), item.CheckPoly.Xi...)},
	}
}
