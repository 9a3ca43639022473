package dlog

import (
	"cmp"
	"fmt"
	"maps"
	"slices"

	"github.com/eon-protocol/darlin/algebra"
	"github.com/eon-protocol/darlin/errs"
	"github.com/eon-protocol/darlin/transcript"
)

// Query names one evaluation: polynomial Poly at the point labelled Point.
type Query struct {
	Poly  string
	Point string
}

func (q Query) String() string {
	return q.Poly + "@" + q.Point
}

func compareQueries(a, b Query) int {
	if c := cmp.Compare(a.Poly, b.Poly); c != 0 {
		return c
	}
	return cmp.Compare(a.Point, b.Point)
}

// QuerySet maps every query to the value of its point.
type QuerySet[E any] map[Query]E

// Sorted returns the queries ordered by polynomial label, then point label.
func (me QuerySet[E]) Sorted() []Query {
	return slices.SortedFunc(maps.Keys(me), compareQueries)
}

// Evaluations holds the claimed value of every query.
type Evaluations[E any] map[Query]E

// MultiPointProof batches openings of several polynomials at several points
// into one inner-product opening.
type MultiPointProof[E, P any] struct {
	// H commits to sum_i lambda^i (p_i(X) - v_i)/(X - x_i).
	H       P
	Opening OpeningProof[E, P]
}

type batchedQuery[E, P any] struct {
	query      Query
	point      E
	value      E
	commitment P
}

// collect resolves the sorted queries against the commitments and evaluations
// and absorbs the evaluations.
func collect[E, P any, PE algebra.Element[E]](
	tr *transcript.Transcript[E, PE],
	commitments map[string]P, qs QuerySet[E], evals Evaluations[E],
) ([]batchedQuery[E, P], error) {
	if len(qs) == 0 {
		return nil, errs.New(errs.KindOther, "empty query set")
	}
	sorted := qs.Sorted()
	res := make([]batchedQuery[E, P], len(sorted))
	values := make([]E, len(sorted))
	for i, q := range sorted {
		v, ok := evals[q]
		if !ok {
			return nil, errs.New(errs.KindOther, "missing evaluation for %s", q)
		}
		c, ok := commitments[q.Poly]
		if !ok {
			return nil, errs.New(errs.KindOther, "missing commitment for %s", q.Poly)
		}
		res[i] = batchedQuery[E, P]{query: q, point: qs[q], value: v, commitment: c}
		values[i] = v
	}
	if err := tr.AbsorbElements(values...); err != nil {
		return nil, err
	}
	return res, nil
}

func challenge[E any, PE algebra.Element[E]](tr *transcript.Transcript[E, PE]) (E, error) {
	xi, err := tr.Squeeze128BitChallenges(1)
	if err != nil {
		var zero E
		return zero, err
	}
	return xi[0], nil
}

// combine returns the weights w_i = lambda^i/(zeta - x_i). It fails if zeta
// hits a query point.
func combine[E, P any, PE algebra.Element[E]](poly *algebra.Polynomials[E, PE], queries []batchedQuery[E, P], lambda, zeta E) ([]E, error) {
	w := make([]E, len(queries))
	for i := range queries {
		PE(&w[i]).Sub(&zeta, &queries[i].point)
		if PE(&w[i]).IsZero() {
			return nil, errs.New(errs.KindOther, "batching point coincides with the point of %s", queries[i].query)
		}
	}
	poly.BatchInvert(w)
	pow := algebra.One[E, PE]()
	for i := range w {
		PE(&w[i]).Mul(&w[i], &pow)
		PE(&pow).Mul(&pow, &lambda)
	}
	return w, nil
}

// batchedCommitment is C_L = sum_i w_i*C_i - (sum_i w_i*v_i)*G_0 - C_h.
func batchedCommitment[E, P any, PE algebra.Element[E], PP algebra.Point[P, E]](
	c *algebra.Curve[E, P, PE, PP], ck *CommitterKey[P],
	queries []batchedQuery[E, P], w []E, h P,
) (P, error) {
	bases := make([]P, 0, len(queries)+2)
	scalars := make([]E, 0, len(queries)+2)
	var sum, t E
	for i := range queries {
		bases = append(bases, queries[i].commitment)
		scalars = append(scalars, w[i])
		PE(&t).Mul(&w[i], &queries[i].value)
		PE(&sum).Add(&sum, &t)
	}
	bases = append(bases, ck.G[0], h)
	scalars = append(scalars, algebra.Neg[E, PE](sum), algebra.Neg[E, PE](algebra.One[E, PE]()))
	return c.MultiExp(bases, scalars, 0)
}

// OpenMultiPoint proves every query of qs. polys and commitments are keyed by
// polynomial label; evals must hold the true values.
func OpenMultiPoint[E, P any, PE algebra.Element[E], PP algebra.Point[P, E]](
	c *algebra.Curve[E, P, PE, PP],
	ck *CommitterKey[P],
	tr *transcript.Transcript[E, PE],
	polys map[string][]E, commitments map[string]P,
	qs QuerySet[E], evals Evaluations[E],
) (*MultiPointProof[E, P], error) {
	queries, err := collect(tr, commitments, qs, evals)
	if err != nil {
		return nil, err
	}
	lambda, err := challenge(tr)
	if err != nil {
		return nil, err
	}

	var h []E
	pow := algebra.One[E, PE]()
	for _, q := range queries {
		p, ok := polys[q.query.Poly]
		if !ok {
			return nil, fmt.Errorf("missing polynomial %s", q.query.Poly)
		}
		quotient := c.Poly.DivByLinear(c.Poly.Sub(p, []E{q.value}), q.point)
		h = c.Poly.AddScaled(h, pow, quotient)
		PE(&pow).Mul(&pow, &lambda)
	}
	ch, err := Commit(c, ck, h)
	if err != nil {
		return nil, err
	}
	if err := tr.AbsorbElements(c.PointElements(ch)...); err != nil {
		return nil, err
	}
	zeta, err := challenge(tr)
	if err != nil {
		return nil, err
	}
	w, err := combine(c.Poly, queries, lambda, zeta)
	if err != nil {
		return nil, err
	}

	// L(X) = sum_i w_i (p_i(X) - v_i) - h(X) vanishes at zeta
	l := c.Poly.Neg(h)
	for i, q := range queries {
		l = c.Poly.AddScaled(l, w[i], c.Poly.Sub(polys[q.query.Poly], []E{q.value}))
	}
	cl, err := batchedCommitment(c, ck, queries, w, ch)
	if err != nil {
		return nil, err
	}
	var zero E
	opening, err := Open(c, ck, tr, algebra.PolyTrim[E, PE](l), zeta, cl, zero)
	if err != nil {
		return nil, err
	}
	return &MultiPointProof[E, P]{H: ch, Opening: *opening}, nil
}

// SuccinctVerifyMultiPoint is the verifier of OpenMultiPoint. It returns the
// deferred item of the final opening.
func SuccinctVerifyMultiPoint[E, P any, PE algebra.Element[E], PP algebra.Point[P, E]](
	c *algebra.Curve[E, P, PE, PP],
	ck *CommitterKey[P],
	tr *transcript.Transcript[E, PE],
	commitments map[string]P, qs QuerySet[E], evals Evaluations[E],
	proof *MultiPointProof[E, P],
) (*Item[E, P], error) {
	if proof == nil {
		return nil, errs.New(errs.KindOther, "nil multi-point proof")
	}
	queries, err := collect(tr, commitments, qs, evals)
	if err != nil {
		return nil, err
	}
	lambda, err := challenge(tr)
	if err != nil {
		return nil, err
	}
	if !validRoundPoint[P, E, PP](proof.H) {
		return nil, errs.New(errs.KindOther, "quotient commitment is not a valid group element")
	}
	if err := tr.AbsorbElements(c.PointElements(proof.H)...); err != nil {
		return nil, err
	}
	zeta, err := challenge(tr)
	if err != nil {
		return nil, err
	}
	w, err := combine(c.Poly, queries, lambda, zeta)
	if err != nil {
		return nil, err
	}
	cl, err := batchedCommitment(c, ck, queries, w, proof.H)
	if err != nil {
		return nil, err
	}
	var zero E
	return SuccinctVerify(c, ck, tr, cl, zeta, zero, &proof.Opening)
}
