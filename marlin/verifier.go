package marlin

import (
	"fmt"

	"github.com/eon-protocol/darlin/algebra"
	"github.com/eon-protocol/darlin/dlog"
	"github.com/eon-protocol/darlin/errs"
	"github.com/eon-protocol/darlin/transcript"
)

const protocolName = "DARLIN-MARLIN"

// Point labels of the query set.
const (
	PointBeta         = "beta"
	PointShiftedBeta  = "g_h * beta"
	PointGamma        = "gamma"
	PointShiftedGamma = "g_k * gamma"
)

// ProofLabels names the prover polynomials, in round order.
var ProofLabels = [8]string{"w", "z_a", "z_b", "t", "u_1", "h_1", "u_2", "h_2"}

// NbQueries is the size of the query set.
const NbQueries = 3 + 3 + 1 + 2 + 1 + len(IndexLabels)

type Round1Msg[E any] struct {
	Alpha, Eta E
}

type Round2Msg[E any] struct {
	Beta E
}

type Round3Msg[E any] struct {
	Gamma E
}

// VerifierState collects the domains and the messages of the rounds played
// so far. Rounds must be played in order, each exactly once.
type VerifierState[E any, PE algebra.Element[E]] struct {
	Info    IndexInfo
	DomainH *algebra.Domain[E, PE]
	DomainK *algebra.Domain[E, PE]

	First  *Round1Msg[E]
	Second *Round2Msg[E]
	Third  *Round3Msg[E]
}

func squeezeChallenges[E any, PE algebra.Element[E]](tr *transcript.Transcript[E, PE], n int) ([]E, error) {
	return tr.Squeeze128BitChallenges(n)
}

// FirstRound builds the domains of the instance and samples alpha and eta.
func FirstRound[E, P any, PE algebra.Element[E], PP algebra.Point[P, E]](c *algebra.Curve[E, P, PE, PP], info IndexInfo, tr *transcript.Transcript[E, PE]) (*Round1Msg[E], *VerifierState[E, PE], error) {
	h, k, err := domains(c, info)
	if err != nil {
		return nil, nil, err
	}
	chals, err := squeezeChallenges(tr, 2)
	if err != nil {
		return nil, nil, err
	}
	msg := &Round1Msg[E]{Alpha: chals[0], Eta: chals[1]}
	if v := h.VanishingAt(msg.Alpha); PE(&v).IsZero() {
		return nil, nil, errs.New(errs.KindOther, "alpha is in domain H")
	}
	state := &VerifierState[E, PE]{Info: info, DomainH: h, DomainK: k, First: msg}
	return msg, state, nil
}

// SecondRound samples beta.
func (me *VerifierState[E, PE]) SecondRound(tr *transcript.Transcript[E, PE]) (*Round2Msg[E], error) {
	if me.First == nil || me.Second != nil {
		return nil, errs.New(errs.KindOther, "second round played out of order")
	}
	chals, err := squeezeChallenges(tr, 1)
	if err != nil {
		return nil, err
	}
	msg := &Round2Msg[E]{Beta: chals[0]}
	if v := me.DomainH.VanishingAt(msg.Beta); PE(&v).IsZero() {
		return nil, errs.New(errs.KindOther, "beta is in domain H")
	}
	me.Second = msg
	return msg, nil
}

// ThirdRound samples gamma.
func (me *VerifierState[E, PE]) ThirdRound(tr *transcript.Transcript[E, PE]) (*Round3Msg[E], error) {
	if me.Second == nil || me.Third != nil {
		return nil, errs.New(errs.KindOther, "third round played out of order")
	}
	chals, err := squeezeChallenges(tr, 1)
	if err != nil {
		return nil, err
	}
	me.Third = &Round3Msg[E]{Gamma: chals[0]}
	return me.Third, nil
}

// QuerySet returns the evaluation points of every polynomial. It requires
// all three rounds.
func (me *VerifierState[E, PE]) QuerySet() (dlog.QuerySet[E], error) {
	if me.Second == nil || me.Third == nil {
		return nil, errs.New(errs.KindOther, "query set requested before the third round")
	}
	beta, gamma := me.Second.Beta, me.Third.Gamma
	shiftedBeta := algebra.Mul[E, PE](me.DomainH.Generator, beta)
	shiftedGamma := algebra.Mul[E, PE](me.DomainK.Generator, gamma)

	qs := make(dlog.QuerySet[E], NbQueries)
	for _, label := range []string{"w", "z_a", "z_b", "t", "u_1", "h_1"} {
		qs[dlog.Query{Poly: label, Point: PointBeta}] = beta
	}
	qs[dlog.Query{Poly: "u_1", Point: PointShiftedBeta}] = shiftedBeta
	qs[dlog.Query{Poly: "u_2", Point: PointGamma}] = gamma
	qs[dlog.Query{Poly: "h_2", Point: PointGamma}] = gamma
	qs[dlog.Query{Poly: "u_2", Point: PointShiftedGamma}] = shiftedGamma
	for _, label := range IndexLabels {
		qs[dlog.Query{Poly: label, Point: PointGamma}] = gamma
	}
	return qs, nil
}

// Proof is a non-interactive Marlin proof.
type Proof[E, P any] struct {
	// Commitments are ordered as ProofLabels.
	Commitments [8]P
	// Evaluations are ordered as the sorted query set.
	Evaluations []E
	Opening     dlog.MultiPointProof[E, P]
}

func newTranscript[E, P any, PE algebra.Element[E], PP algebra.Point[P, E]](c *algebra.Curve[E, P, PE, PP], ck *dlog.CommitterKey[P], vk *VerifierKey[P]) (*transcript.Transcript[E, PE], error) {
	seed := transcript.NewSeedBuilder(protocolName).
		AddBytes(vk.Hash[:]).
		AddBytes(ck.Hash[:]).
		Finalize()
	return transcript.FromSeed[E, PE](c.NewPermutation(), seed)
}

func absorbCommitments[E, P any, PE algebra.Element[E], PP algebra.Point[P, E]](c *algebra.Curve[E, P, PE, PP], tr *transcript.Transcript[E, PE], cms ...P) error {
	for _, cm := range cms {
		if err := tr.AbsorbElements(c.PointElements(cm)...); err != nil {
			return err
		}
	}
	return nil
}

// SuccinctVerify replays the rounds, checks the two sumcheck identities at
// the query points and returns the deferred item of the batched opening.
// publicInput excludes the leading constant 1.
func SuccinctVerify[E, P any, PE algebra.Element[E], PP algebra.Point[P, E]](
	c *algebra.Curve[E, P, PE, PP],
	ck *dlog.CommitterKey[P],
	vk *VerifierKey[P],
	publicInput []E,
	proof *Proof[E, P],
) (*dlog.Item[E, P], error) {
	if proof == nil {
		return nil, errs.New(errs.KindOther, "nil proof")
	}
	if len(publicInput)+1 != vk.Info.NumInputs {
		return nil, errs.New(errs.KindOther, "got %d public inputs, want %d", len(publicInput), vk.Info.NumInputs-1)
	}
	for i := range proof.Commitments {
		if p := proof.Commitments[i]; !PP(&p).IsOnCurve() || !PP(&p).IsInSubGroup() {
			return nil, errs.New(errs.KindOther, "commitment %s is not a valid group element", ProofLabels[i])
		}
	}
	tr, err := newTranscript(c, ck, vk)
	if err != nil {
		return nil, err
	}
	if err := tr.AbsorbElements(publicInput...); err != nil {
		return nil, err
	}

	if err := absorbCommitments(c, tr, proof.Commitments[0:3]...); err != nil {
		return nil, err
	}
	_, state, err := FirstRound(c, vk.Info, tr)
	if err != nil {
		return nil, err
	}
	if err := absorbCommitments(c, tr, proof.Commitments[3:6]...); err != nil {
		return nil, err
	}
	if _, err := state.SecondRound(tr); err != nil {
		return nil, err
	}
	if err := absorbCommitments(c, tr, proof.Commitments[6:8]...); err != nil {
		return nil, err
	}
	if _, err := state.ThirdRound(tr); err != nil {
		return nil, err
	}

	qs, err := state.QuerySet()
	if err != nil {
		return nil, err
	}
	queries := qs.Sorted()
	if len(proof.Evaluations) != len(queries) {
		return nil, errs.New(errs.KindOther, "got %d evaluations, want %d", len(proof.Evaluations), len(queries))
	}
	evals := make(dlog.Evaluations[E], len(queries))
	for i, q := range queries {
		evals[q] = proof.Evaluations[i]
	}

	x := append([]E{algebra.One[E, PE]()}, publicInput...)
	if err := state.CheckIdentities(x, evals); err != nil {
		return nil, err
	}

	commitments := make(map[string]P, len(ProofLabels)+len(IndexLabels))
	for i, label := range ProofLabels {
		commitments[label] = proof.Commitments[i]
	}
	for i, label := range IndexLabels {
		commitments[label] = vk.Commitments[i]
	}
	return dlog.SuccinctVerifyMultiPoint(c, ck, tr, commitments, qs, evals, &proof.Opening)
}

// CheckIdentities checks the outer and inner sumcheck identities against
// the claimed evaluations. x is the full public input, constant included.
// A failed identity wraps errs.ErrCheckFailed.
func (me *VerifierState[E, PE]) CheckIdentities(x []E, evals dlog.Evaluations[E]) error {
	if me.Third == nil {
		return errs.New(errs.KindOther, "identities checked before the third round")
	}
	at := func(poly, point string) E {
		return evals[dlog.Query{Poly: poly, Point: point}]
	}
	alpha, eta := me.First.Alpha, me.First.Eta
	beta, gamma := me.Second.Beta, me.Third.Gamma
	etas := algebra.Powers[E, PE](eta, 3)

	vHAlpha := me.DomainH.VanishingAt(alpha)
	vHBeta := me.DomainH.VanishingAt(beta)
	diff := algebra.Sub[E, PE](alpha, beta)
	if PE(&diff).IsZero() {
		return errs.New(errs.KindOther, "alpha equals beta")
	}
	r := algebra.Mul[E, PE](algebra.Sub[E, PE](vHAlpha, vHBeta), algebra.Inverse[E, PE](diff))

	xHat, vX := inputPolynomialAt(me.DomainH, x, beta)
	z := algebra.Add[E, PE](xHat, algebra.Mul[E, PE](at("w", PointBeta), vX))

	// outer: r(a,b)(z_a + eta z_b + eta^2 z_a z_b) - t(b)z(b) = u_1(g b) - u_1(b) + h_1(b)v_H(b)
	za, zb, t := at("z_a", PointBeta), at("z_b", PointBeta), at("t", PointBeta)
	sum := algebra.Add[E, PE](za, algebra.Mul[E, PE](etas[1], zb))
	sum = algebra.Add[E, PE](sum, algebra.Mul[E, PE](etas[2], algebra.Mul[E, PE](za, zb)))
	lhs := algebra.Sub[E, PE](algebra.Mul[E, PE](r, sum), algebra.Mul[E, PE](t, z))
	rhs := algebra.Sub[E, PE](at("u_1", PointShiftedBeta), at("u_1", PointBeta))
	rhs = algebra.Add[E, PE](rhs, algebra.Mul[E, PE](at("h_1", PointBeta), vHBeta))
	if !algebra.Equal[E, PE](lhs, rhs) {
		return fmt.Errorf("outer sumcheck: %w", errs.ErrCheckFailed)
	}

	// inner: h_2(g)v_K(g) = a(g) - b(g)(u_2(g_K g) - u_2(g) + t(b)/|K|)
	var prods [3]E
	for m := range prods {
		da := algebra.Sub[E, PE](alpha, at(IndexLabels[3*m], PointGamma))
		db := algebra.Sub[E, PE](beta, at(IndexLabels[3*m+1], PointGamma))
		prods[m] = algebra.Mul[E, PE](da, db)
	}
	b := algebra.Mul[E, PE](prods[0], algebra.Mul[E, PE](prods[1], prods[2]))
	var a E
	for m := range prods {
		term := algebra.Mul[E, PE](etas[m], at(IndexLabels[3*m+2], PointGamma))
		term = algebra.Mul[E, PE](term, algebra.Mul[E, PE](prods[(m+1)%3], prods[(m+2)%3]))
		a = algebra.Add[E, PE](a, term)
	}
	a = algebra.Mul[E, PE](a, algebra.Mul[E, PE](vHAlpha, vHBeta))

	s := algebra.Sub[E, PE](at("u_2", PointShiftedGamma), at("u_2", PointGamma))
	s = algebra.Add[E, PE](s, algebra.Mul[E, PE](t, me.DomainK.SizeInv))
	lhs = algebra.Mul[E, PE](at("h_2", PointGamma), me.DomainK.VanishingAt(gamma))
	rhs = algebra.Sub[E, PE](a, algebra.Mul[E, PE](b, s))
	if !algebra.Equal[E, PE](lhs, rhs) {
		return fmt.Errorf("inner sumcheck: %w", errs.ErrCheckFailed)
	}
	return nil
}

// inputPolynomialAt evaluates at y the interpolant x^ of x over the first
// len(x) elements of h, and their vanishing polynomial v_X. y must not be one
// of those elements.
func inputPolynomialAt[E any, PE algebra.Element[E]](h *algebra.Domain[E, PE], x []E, y E) (xHat, vX E) {
	pts := algebra.Powers[E, PE](h.Generator, len(x))
	// barycentric weights 1/prod_{j != i}(p_i - p_j) and 1/(y - p_i)
	den := make([]E, 2*len(x))
	for i := range pts {
		w := algebra.One[E, PE]()
		for j := range pts {
			if j != i {
				w = algebra.Mul[E, PE](w, algebra.Sub[E, PE](pts[i], pts[j]))
			}
		}
		den[i] = w
		den[len(x)+i] = algebra.Sub[E, PE](y, pts[i])
	}
	vX = algebra.One[E, PE]()
	for i := range pts {
		vX = algebra.Mul[E, PE](vX, den[len(x)+i])
	}
	h.Poly.BatchInvert(den)
	for i := range x {
		xHat = algebra.Add[E, PE](xHat, algebra.Mul[E, PE](x[i], algebra.Mul[E, PE](den[i], den[len(x)+i])))
	}
	xHat = algebra.Mul[E, PE](xHat, vX)
	return xHat, vX
}
