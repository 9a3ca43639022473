package marlin

import (
	"errors"
	"fmt"
	"time"

	"github.com/consensys/gnark/logger"

	"github.com/eon-protocol/darlin/algebra"
	"github.com/eon-protocol/darlin/dlog"
)

var errNotDivisible = errors.New("polynomial is not divisible by the vanishing polynomial")

// Prove produces a proof of knowledge of witness such that
// (1, publicInput, witness) satisfies the constraint system of pk.
// The prover is honest but not zero-knowledge: it adds no masking.
func Prove[E, P any, PE algebra.Element[E], PP algebra.Point[P, E]](
	c *algebra.Curve[E, P, PE, PP],
	ck *dlog.CommitterKey[P],
	pk *ProverKey[E, P],
	publicInput, witness []E,
) (*Proof[E, P], error) {
	log := logger.Logger().With().Str("curve", c.String()).Int("nbConstraints", pk.R1CS.NumConstraints).Logger()
	start := time.Now()

	r := pk.R1CS
	z := make([]E, 0, r.NumInputs+r.NumWitness)
	z = append(z, algebra.One[E, PE]())
	z = append(z, publicInput...)
	z = append(z, witness...)
	if err := IsSatisfied[E, PE](r, z); err != nil {
		return nil, err
	}
	vk := pk.VerifierKey
	tr, err := newTranscript(c, ck, vk)
	if err != nil {
		return nil, err
	}
	if err := tr.AbsorbElements(publicInput...); err != nil {
		return nil, err
	}
	proof := &Proof[E, P]{}
	polys := make(map[string][]E, len(ProofLabels)+len(IndexLabels))
	commit := func(labels ...string) error {
		for _, label := range labels {
			cm, err := dlog.Commit(c, ck, polys[label])
			if err != nil {
				return fmt.Errorf("commit %s: %w", label, err)
			}
			for i := range ProofLabels {
				if ProofLabels[i] == label {
					proof.Commitments[i] = cm
				}
			}
			if err := absorbCommitments(c, tr, cm); err != nil {
				return err
			}
		}
		return nil
	}

	h, k, err := domains(c, vk.Info)
	if err != nil {
		return nil, err
	}
	n := int(h.Size)
	l := r.NumInputs
	poly := c.Poly

	// first round: w, z_a, z_b
	xHat, vX := inputPolynomial(h, z[:l])
	zPadded := make([]E, n)
	copy(zPadded, z)
	wEvals := make([]E, n)
	vXEvals := make([]E, n)
	hElems := h.Elements()
	for i := l; i < n; i++ {
		vXEvals[i] = poly.Eval(vX, hElems[i])
		wEvals[i] = algebra.Sub[E, PE](zPadded[i], poly.Eval(xHat, hElems[i]))
	}
	poly.BatchInvert(vXEvals)
	for i := l; i < n; i++ {
		wEvals[i] = algebra.Mul[E, PE](wEvals[i], vXEvals[i])
	}
	mz := [3][]E{}
	for m, entries := range r.matrices() {
		mz[m] = mulVector[E, PE](entries, z, n)
	}
	if polys["w"], err = h.Interpolate(wEvals); err != nil {
		return nil, err
	}
	if polys["z_a"], err = h.Interpolate(mz[0]); err != nil {
		return nil, err
	}
	if polys["z_b"], err = h.Interpolate(mz[1]); err != nil {
		return nil, err
	}
	if err := commit("w", "z_a", "z_b"); err != nil {
		return nil, err
	}
	msg1, state, err := FirstRound(c, vk.Info, tr)
	if err != nil {
		return nil, err
	}
	alpha, eta := msg1.Alpha, msg1.Eta
	etas := algebra.Powers[E, PE](eta, 3)

	// second round: t, u_1, h_1
	vHAlpha := h.VanishingAt(alpha)
	rAlpha := make([]E, n)
	for i := range rAlpha {
		rAlpha[i] = algebra.Sub[E, PE](alpha, hElems[i])
	}
	poly.BatchInvert(rAlpha)
	for i := range rAlpha {
		rAlpha[i] = algebra.Mul[E, PE](rAlpha[i], vHAlpha)
	}
	tEvals := make([]E, n)
	for m, entries := range r.matrices() {
		for _, e := range entries {
			term := algebra.Mul[E, PE](etas[m], algebra.Mul[E, PE](e.Value, rAlpha[e.Row]))
			tEvals[e.Col] = algebra.Add[E, PE](tEvals[e.Col], term)
		}
	}
	if polys["t"], err = h.Interpolate(tEvals); err != nil {
		return nil, err
	}

	// r(alpha, X) = sum_i alpha^(n-1-i) X^i
	rPoly := algebra.Powers[E, PE](alpha, n)
	for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
		rPoly[i], rPoly[j] = rPoly[j], rPoly[i]
	}
	zPoly := poly.Add(xHat, poly.Mul(polys["w"], vX))
	combined := poly.AddScaled(polys["z_a"], etas[1], polys["z_b"])
	combined = poly.AddScaled(combined, etas[2], poly.Mul(polys["z_a"], polys["z_b"]))
	q1 := poly.Sub(poly.Mul(rPoly, combined), poly.Mul(polys["t"], zPoly))

	u1, h1, err := sumcheck(h, q1, algebra.FromUint64[E, PE](0))
	if err != nil {
		return nil, fmt.Errorf("outer sumcheck: %w", err)
	}
	polys["u_1"], polys["h_1"] = u1, h1
	if err := commit("t", "u_1", "h_1"); err != nil {
		return nil, err
	}
	msg2, err := state.SecondRound(tr)
	if err != nil {
		return nil, err
	}
	beta := msg2.Beta

	// third round: u_2, h_2
	vHBeta := h.VanishingAt(beta)
	tBeta := poly.Eval(polys["t"], beta)
	scale := algebra.Mul[E, PE](vHAlpha, vHBeta)
	var aPoly, bPoly []E
	var prods [3][]E
	for m := range prods {
		da := poly.AddConstant(poly.Neg(pk.Polys[3*m]), alpha)
		db := poly.AddConstant(poly.Neg(pk.Polys[3*m+1]), beta)
		prods[m] = poly.Mul(da, db)
	}
	bPoly = poly.Mul(prods[0], poly.Mul(prods[1], prods[2]))
	for m := range prods {
		term := poly.Mul(pk.Polys[3*m+2], poly.Mul(prods[(m+1)%3], prods[(m+2)%3]))
		aPoly = poly.AddScaled(aPoly, algebra.Mul[E, PE](etas[m], scale), term)
	}
	// f = a/b over K sums to t(beta); the inner sumcheck runs on a - b*f over K
	aEvals, err := evaluateOn(k, aPoly)
	if err != nil {
		return nil, err
	}
	bEvals, err := evaluateOn(k, bPoly)
	if err != nil {
		return nil, err
	}
	poly.BatchInvert(bEvals)
	fEvals := make([]E, k.Size)
	for i := range fEvals {
		fEvals[i] = algebra.Mul[E, PE](aEvals[i], bEvals[i])
	}
	fPoly, err := k.Interpolate(fEvals)
	if err != nil {
		return nil, err
	}
	u2, _, err := sumcheck(k, fPoly, tBeta)
	if err != nil {
		return nil, fmt.Errorf("inner sumcheck: %w", err)
	}
	s := poly.Sub(poly.ComposeScale(u2, k.Generator), u2)
	s = poly.AddConstant(s, algebra.Mul[E, PE](tBeta, k.SizeInv))
	h2, rem := poly.DivByVanishing(poly.Sub(aPoly, poly.Mul(bPoly, s)), int(k.Size))
	if !algebra.PolyIsZero[E, PE](rem) {
		return nil, fmt.Errorf("inner sumcheck: %w", errNotDivisible)
	}
	polys["u_2"], polys["h_2"] = u2, h2
	if err := commit("u_2", "h_2"); err != nil {
		return nil, err
	}
	if _, err := state.ThirdRound(tr); err != nil {
		return nil, err
	}

	// opening
	qs, err := state.QuerySet()
	if err != nil {
		return nil, err
	}
	commitments := make(map[string]P, len(ProofLabels)+len(IndexLabels))
	for i, label := range ProofLabels {
		commitments[label] = proof.Commitments[i]
	}
	for i, label := range IndexLabels {
		polys[label] = pk.Polys[i]
		commitments[label] = vk.Commitments[i]
	}
	queries := qs.Sorted()
	evals := make(dlog.Evaluations[E], len(queries))
	proof.Evaluations = make([]E, len(queries))
	for i, q := range queries {
		v := poly.Eval(polys[q.Poly], qs[q])
		evals[q] = v
		proof.Evaluations[i] = v
	}
	opening, err := dlog.OpenMultiPoint(c, ck, tr, polys, commitments, qs, evals)
	if err != nil {
		return nil, err
	}
	proof.Opening = *opening

	log.Debug().Dur("took", time.Since(start)).Msg("marlin proof")
	return proof, nil
}

// sumcheck splits q into the coboundary form
// q(X) - sum/|D| = u(gX) - u(X) + h(X)v_D(X) over the domain d, where sum is
// the claimed sum of q over d.
func sumcheck[E any, PE algebra.Element[E]](d *algebra.Domain[E, PE], q []E, sum E) (u, h []E, err error) {
	qEvals, err := evaluateOn(d, q)
	if err != nil {
		return nil, nil, err
	}
	mean := algebra.Mul[E, PE](sum, d.SizeInv)
	uEvals := make([]E, d.Size)
	for i := 0; i+1 < len(uEvals); i++ {
		uEvals[i+1] = algebra.Add[E, PE](uEvals[i], algebra.Sub[E, PE](qEvals[i], mean))
	}
	last := algebra.Add[E, PE](uEvals[len(uEvals)-1], algebra.Sub[E, PE](qEvals[len(qEvals)-1], mean))
	if !PE(&last).IsZero() {
		return nil, nil, fmt.Errorf("sum over the domain does not match the claimed value")
	}
	if u, err = d.Interpolate(uEvals); err != nil {
		return nil, nil, err
	}
	num := d.Poly.Add(d.Poly.AddConstant(q, algebra.Neg[E, PE](mean)), u)
	num = d.Poly.Sub(num, d.Poly.ComposeScale(u, d.Generator))
	h, rem := d.Poly.DivByVanishing(num, int(d.Size))
	if !algebra.PolyIsZero[E, PE](rem) {
		return nil, nil, errNotDivisible
	}
	return u, h, nil
}

// evaluateOn evaluates a polynomial of any degree over d, reducing it modulo
// the vanishing polynomial first.
func evaluateOn[E any, PE algebra.Element[E]](d *algebra.Domain[E, PE], p []E) ([]E, error) {
	_, r := d.Poly.DivByVanishing(p, int(d.Size))
	return d.Evaluate(r)
}

// inputPolynomial returns the interpolant of x over the first len(x)
// elements of h and their vanishing polynomial, both in coefficient form.
func inputPolynomial[E any, PE algebra.Element[E]](h *algebra.Domain[E, PE], x []E) (xHat, vX []E) {
	pts := algebra.Powers[E, PE](h.Generator, len(x))
	vX = []E{algebra.One[E, PE]()}
	for _, p := range pts {
		vX = h.Poly.Mul(vX, []E{algebra.Neg[E, PE](p), algebra.One[E, PE]()})
	}
	for i := range x {
		// L_i = v_X / ((X - p_i) * prod_{j != i}(p_i - p_j))
		li := h.Poly.DivByLinear(vX, pts[i])
		den := h.Poly.Eval(li, pts[i])
		xHat = h.Poly.AddScaled(xHat, algebra.Mul[E, PE](x[i], algebra.Inverse[E, PE](den)), li)
	}
	return xHat, vX
}
