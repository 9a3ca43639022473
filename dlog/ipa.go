package dlog

import (
	"fmt"

	"github.com/eon-protocol/darlin/algebra"
	"github.com/eon-protocol/darlin/errs"
	"github.com/eon-protocol/darlin/transcript"
)

// OpeningProof proves p(z) = v for a committed p of at most N coefficients.
type OpeningProof[E, P any] struct {
	L, R   []P
	GFinal P
	// A is the fully folded coefficient vector.
	A E
}

// Open proves that the polynomial coeffs, committed as commitment, evaluates to
// value at point. tr must be in the same state the verifier will be in.
func Open[E, P any, PE algebra.Element[E], PP algebra.Point[P, E]](
	c *algebra.Curve[E, P, PE, PP],
	ck *CommitterKey[P],
	tr *transcript.Transcript[E, PE],
	coeffs []E, point E, commitment P, value E,
) (*OpeningProof[E, P], error) {
	n := ck.Size()
	if len(coeffs) > n {
		return nil, fmt.Errorf("polynomial of %d coefficients exceeds the key size %d", len(coeffs), n)
	}
	q, err := bindEvaluation(c, ck, tr, commitment, point, value)
	if err != nil {
		return nil, err
	}

	a := make([]E, n)
	copy(a, coeffs)
	b := algebra.Powers[E, PE](point, n)
	g := append([]P(nil), ck.G...)
	proof := &OpeningProof[E, P]{
		L: make([]P, 0, ck.LogSize()),
		R: make([]P, 0, ck.LogSize()),
	}

	for len(a) > 1 {
		h := len(a) / 2
		ipL := c.Poly.InnerProduct(a[:h], b[h:])
		ipR := c.Poly.InnerProduct(a[h:], b[:h])
		l, err := c.MultiExp(append(append(make([]P, 0, h+1), g[h:]...), q), append(append(make([]E, 0, h+1), a[:h]...), ipL), 0)
		if err != nil {
			return nil, err
		}
		r, err := c.MultiExp(append(append(make([]P, 0, h+1), g[:h]...), q), append(append(make([]E, 0, h+1), a[h:]...), ipR), 0)
		if err != nil {
			return nil, err
		}
		proof.L = append(proof.L, l)
		proof.R = append(proof.R, r)

		_, e, eInv, err := roundChallenge(c, tr, l, r)
		if err != nil {
			return nil, err
		}
		var t E
		for i := 0; i < h; i++ {
			PE(&t).Mul(&a[h+i], &eInv)
			PE(&a[i]).Add(&a[i], &t)
			PE(&t).Mul(&b[h+i], &e)
			PE(&b[i]).Add(&b[i], &t)
			g[i] = algebra.AddPoints[P, E, PP](g[i], algebra.ScalarMul[P, E, PP, PE](g[h+i], e))
		}
		a, b, g = a[:h], b[:h], g[:h]
	}
	proof.GFinal = g[0]
	proof.A = a[0]
	return proof, nil
}

// SuccinctVerify checks the cheap part of an opening and returns the deferred
// item: the claim that GFinal commits to the succinct check polynomial.
// A rejected opening returns an error wrapping errs.ErrCheckFailed.
func SuccinctVerify[E, P any, PE algebra.Element[E], PP algebra.Point[P, E]](
	c *algebra.Curve[E, P, PE, PP],
	ck *CommitterKey[P],
	tr *transcript.Transcript[E, PE],
	commitment P, point, value E,
	proof *OpeningProof[E, P],
) (*Item[E, P], error) {
	k := ck.LogSize()
	if proof == nil || len(proof.L) != k || len(proof.R) != k {
		return nil, errs.New(errs.KindOther, "malformed opening proof for a key of %d rounds", k)
	}
	if !validPoint[P, E, PP](proof.GFinal) {
		return nil, errs.New(errs.KindOther, "final generator is not a valid group element")
	}
	for j := 0; j < k; j++ {
		if !validRoundPoint[P, E, PP](proof.L[j]) || !validRoundPoint[P, E, PP](proof.R[j]) {
			return nil, errs.New(errs.KindOther, "round %d commitments are not valid group elements", j)
		}
	}
	q, err := bindEvaluation(c, ck, tr, commitment, point, value)
	if err != nil {
		return nil, err
	}

	// C_final = C + v*Q + sum_j e_j*L_j + e_j^-1*R_j
	bases := make([]P, 0, 2+2*k)
	scalars := make([]E, 0, 2+2*k)
	bases = append(bases, commitment, q)
	scalars = append(scalars, algebra.One[E, PE](), value)
	xi := make([]E, k)
	for j := 0; j < k; j++ {
		raw, e, eInv, err := roundChallenge(c, tr, proof.L[j], proof.R[j])
		if err != nil {
			return nil, err
		}
		xi[j] = raw
		bases = append(bases, proof.L[j], proof.R[j])
		scalars = append(scalars, e, eInv)
	}
	lhs, err := c.MultiExp(bases, scalars, 0)
	if err != nil {
		return nil, err
	}

	poly := SuccinctCheckPolynomial[E]{Xi: xi}
	hz := EvaluateCheckPolynomial(c, poly, point)
	rhs, err := c.MultiExp([]P{proof.GFinal, q}, []E{proof.A, algebra.Mul[E, PE](proof.A, hz)}, 0)
	if err != nil {
		return nil, err
	}
	if !algebra.EqualPoints[P, E, PP](lhs, rhs) {
		return nil, fmt.Errorf("inner-product opening: %w", errs.ErrCheckFailed)
	}
	return &Item[E, P]{G: proof.GFinal, CheckPoly: poly}, nil
}

// bindEvaluation absorbs the claim and derives the evaluation generator Q from
// H.
func bindEvaluation[E, P any, PE algebra.Element[E], PP algebra.Point[P, E]](
	c *algebra.Curve[E, P, PE, PP],
	ck *CommitterKey[P],
	tr *transcript.Transcript[E, PE],
	commitment P, point, value E,
) (P, error) {
	var q P
	if err := tr.AbsorbElements(c.PointElements(commitment)...); err != nil {
		return q, err
	}
	if err := tr.AbsorbElements(point, value); err != nil {
		return q, err
	}
	xi, err := tr.Squeeze128BitChallenges(1)
	if err != nil {
		return q, err
	}
	return algebra.ScalarMul[P, E, PP, PE](ck.H, c.EndoToScalar(xi[0])), nil
}

func roundChallenge[E, P any, PE algebra.Element[E], PP algebra.Point[P, E]](
	c *algebra.Curve[E, P, PE, PP],
	tr *transcript.Transcript[E, PE],
	l, r P,
) (raw, e, eInv E, err error) {
	if err = tr.AbsorbElements(c.PointElements(l)...); err != nil {
		return
	}
	if err = tr.AbsorbElements(c.PointElements(r)...); err != nil {
		return
	}
	xi, err := tr.Squeeze128BitChallenges(1)
	if err != nil {
		return
	}
	raw = xi[0]
	e = c.EndoToScalar(raw)
	if PE(&e).IsZero() {
		err = errs.New(errs.KindOther, "zero round challenge")
		return
	}
	eInv = algebra.Inverse[E, PE](e)
	return
}

func validPoint[P, E any, PP algebra.Point[P, E]](p P) bool {
	return !PP(&p).IsInfinity() && PP(&p).IsOnCurve() && PP(&p).IsInSubGroup()
}

// validRoundPoint is validPoint where infinity is allowed.
func validRoundPoint[P, E any, PP algebra.Point[P, E]](p P) bool {
	return PP(&p).IsInfinity() || (PP(&p).IsOnCurve() && PP(&p).IsInSubGroup())
}
