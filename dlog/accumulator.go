package dlog

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"runtime"
	"sync"

	"github.com/eon-protocol/darlin/algebra"
	"github.com/eon-protocol/darlin/errs"
	"github.com/eon-protocol/darlin/transcript"
)

const accumulateProtocol = "DARLIN-DLOG-ACCUMULATE"

var ErrInvalidItem = errors.New("invalid accumulator item")

// SuccinctCheckPolynomial is h(X) = prod_j (1 + e_j X^(2^(k-j))), where e_j is
// the endomorphism scalar of the raw round challenge Xi[j].
type SuccinctCheckPolynomial[E any] struct {
	Xi []E
}

// Item is a deferred opening claim: G commits to CheckPoly under the
// committer key.
type Item[E, P any] struct {
	G         P
	CheckPoly SuccinctCheckPolynomial[E]
}

func endoScalars[E, P any, PE algebra.Element[E], PP algebra.Point[P, E]](c *algebra.Curve[E, P, PE, PP], p SuccinctCheckPolynomial[E]) []E {
	res := make([]E, len(p.Xi))
	for i := range p.Xi {
		res[i] = c.EndoToScalar(p.Xi[i])
	}
	return res
}

// EvaluateCheckPolynomial evaluates h at x in O(k).
func EvaluateCheckPolynomial[E, P any, PE algebra.Element[E], PP algebra.Point[P, E]](c *algebra.Curve[E, P, PE, PP], p SuccinctCheckPolynomial[E], x E) E {
	e := endoScalars(c, p)
	res := algebra.One[E, PE]()
	pow := x
	var t E
	one := algebra.One[E, PE]()
	for j := len(e) - 1; j >= 0; j-- {
		PE(&t).Mul(&e[j], &pow)
		PE(&t).Add(&t, &one)
		PE(&res).Mul(&res, &t)
		PE(&pow).Square(&pow)
	}
	return res
}

// CheckPolynomialCoefficients expands h into its 2^k coefficients.
func CheckPolynomialCoefficients[E, P any, PE algebra.Element[E], PP algebra.Point[P, E]](c *algebra.Curve[E, P, PE, PP], p SuccinctCheckPolynomial[E]) []E {
	e := endoScalars(c, p)
	res := make([]E, 1, 1<<len(e))
	PE(&res[0]).SetOne()
	// the last challenge multiplies X, the first one X^(2^(k-1))
	for j := len(e) - 1; j >= 0; j-- {
		n := len(res)
		res = res[:2*n]
		for i := 0; i < n; i++ {
			PE(&res[n+i]).Mul(&res[i], &e[j])
		}
	}
	return res
}

// ValidateItem reports why item cannot be accumulated under ck, or nil.
func ValidateItem[E, P any, PE algebra.Element[E], PP algebra.Point[P, E]](c *algebra.Curve[E, P, PE, PP], ck *CommitterKey[P], item *Item[E, P]) error {
	if item == nil {
		return fmt.Errorf("%w: nil", ErrInvalidItem)
	}
	if len(item.CheckPoly.Xi) != ck.LogSize() {
		return fmt.Errorf("%w: %d challenges for a key of %d rounds", ErrInvalidItem, len(item.CheckPoly.Xi), ck.LogSize())
	}
	if !validPoint[P, E, PP](item.G) {
		return fmt.Errorf("%w: G is not a valid group element", ErrInvalidItem)
	}
	for j, xi := range item.CheckPoly.Xi {
		if PE(&xi).IsZero() || !algebra.FitsIn128[E, PE](xi) {
			return fmt.Errorf("%w: challenge %d is not a non-zero 128-bit value", ErrInvalidItem, j)
		}
	}
	return nil
}

func IsValid[E, P any, PE algebra.Element[E], PP algebra.Point[P, E]](c *algebra.Curve[E, P, PE, PP], ck *CommitterKey[P], item *Item[E, P]) bool {
	return ValidateItem(c, ck, item) == nil
}

// Accumulate folds items into a single item and proves it with an opening
// of sum_i lambda^i*h_i at a point drawn after every item is absorbed. The new
// item passes CheckAccumulated iff all the inputs would, up to negligible
// probability. When the items do not commit to their check polynomials the
// folding may already fail, with an error wrapping errs.ErrCheckFailed.
//
// The items are consumed: on success every entry of the slice is reset.
func Accumulate[E, P any, PE algebra.Element[E], PP algebra.Point[P, E]](c *algebra.Curve[E, P, PE, PP], ck *CommitterKey[P], items []Item[E, P]) (*Item[E, P], *OpeningProof[E, P], error) {
	claim, err := newAccumulationClaim(c, ck, items)
	if err != nil {
		return nil, nil, err
	}
	coeffs := combineCheckPolynomials(c, ck.Size(), claim.polys, claim.weights)
	state := claim.tr.GetState()
	proof, err := Open(c, ck, claim.tr, coeffs, claim.point, claim.commitment, claim.value)
	if err != nil {
		return nil, nil, err
	}
	if err := claim.tr.SetState(state); err != nil {
		return nil, nil, err
	}
	item, err := SuccinctVerify(c, ck, claim.tr, claim.commitment, claim.point, claim.value, proof)
	if err != nil {
		return nil, nil, fmt.Errorf("accumulation: %w", err)
	}
	clear(items)
	return item, proof, nil
}

// VerifyAccumulation succinctly checks that proof folds items, and returns the
// folded item. The items are consumed.
func VerifyAccumulation[E, P any, PE algebra.Element[E], PP algebra.Point[P, E]](c *algebra.Curve[E, P, PE, PP], ck *CommitterKey[P], items []Item[E, P], proof *OpeningProof[E, P]) (*Item[E, P], error) {
	claim, err := newAccumulationClaim(c, ck, items)
	if err != nil {
		return nil, err
	}
	item, err := SuccinctVerify(c, ck, claim.tr, claim.commitment, claim.point, claim.value, proof)
	if err != nil {
		return nil, fmt.Errorf("accumulation: %w", err)
	}
	clear(items)
	return item, nil
}

// accumulationClaim is "commitment opens to value at point", where commitment
// is sum_i weights[i]*G_i and value is sum_i weights[i]*h_i(point).
type accumulationClaim[E, P any, PE algebra.Element[E]] struct {
	tr         *transcript.Transcript[E, PE]
	polys      []SuccinctCheckPolynomial[E]
	weights    []E
	commitment P
	point      E
	value      E
}

func newAccumulationClaim[E, P any, PE algebra.Element[E], PP algebra.Point[P, E]](c *algebra.Curve[E, P, PE, PP], ck *CommitterKey[P], items []Item[E, P]) (*accumulationClaim[E, P, PE], error) {
	if len(items) == 0 {
		return nil, errs.New(errs.KindOther, "no item to accumulate")
	}
	for i := range items {
		if err := ValidateItem(c, ck, &items[i]); err != nil {
			return nil, errs.Wrap(errs.KindOther, fmt.Errorf("item %d: %w", i, err))
		}
	}

	seed := transcript.NewSeedBuilder(accumulateProtocol).
		AddBytes(ck.Hash[:]).
		AddUint64(uint64(len(items))).
		Finalize()
	tr, err := transcript.FromSeed[E, PE](c.NewPermutation(), seed)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if err := tr.AbsorbElements(c.PointElements(items[i].G)...); err != nil {
			return nil, err
		}
		if err := tr.AbsorbElements(items[i].CheckPoly.Xi...); err != nil {
			return nil, err
		}
	}
	lambda, err := tr.Squeeze128BitChallenges(1)
	if err != nil {
		return nil, err
	}
	if PE(&lambda[0]).IsZero() {
		return nil, errs.New(errs.KindOther, "zero accumulation challenge")
	}

	claim := &accumulationClaim[E, P, PE]{
		tr:      tr,
		polys:   make([]SuccinctCheckPolynomial[E], len(items)),
		weights: algebra.Powers[E, PE](lambda[0], len(items)),
	}
	gs := make([]P, len(items))
	for i := range items {
		gs[i] = items[i].G
		claim.polys[i] = SuccinctCheckPolynomial[E]{Xi: append([]E(nil), items[i].CheckPoly.Xi...)}
	}
	if claim.commitment, err = c.MultiExp(gs, claim.weights, 0); err != nil {
		return nil, err
	}
	if err := tr.AbsorbElements(c.PointElements(claim.commitment)...); err != nil {
		return nil, err
	}
	if claim.point, err = tr.Squeeze(); err != nil {
		return nil, err
	}
	for i := range claim.polys {
		hz := EvaluateCheckPolynomial(c, claim.polys[i], claim.point)
		claim.value = algebra.Add[E, PE](claim.value, algebra.Mul[E, PE](claim.weights[i], hz))
	}
	return claim, nil
}

// MultiExpFunc computes sum_i scalars[i]*bases[i].
type MultiExpFunc[E, P any] func(bases []P, scalars []E) (P, error)

type checkConfig[E, P any] struct {
	multiExp MultiExpFunc[E, P]
	nbTasks  int
}

type CheckOption[E, P any] func(*checkConfig[E, P])

// WithMultiExp replaces the CPU MSM of the hard part, typically by a device
// MSM over the committer key bases.
func WithMultiExp[E, P any](fn MultiExpFunc[E, P]) CheckOption[E, P] {
	return func(c *checkConfig[E, P]) {
		c.multiExp = fn
	}
}

// WithNbTasks bounds the CPU parallelism of the hard part.
func WithNbTasks[E, P any](n int) CheckOption[E, P] {
	return func(c *checkConfig[E, P]) {
		c.nbTasks = n
	}
}

// CheckAccumulated is the hard part: it recomputes commit(h) with one MSM of
// size N and compares it with item.G. It returns (false, nil) when the item is
// well-formed but wrong.
func CheckAccumulated[E, P any, PE algebra.Element[E], PP algebra.Point[P, E]](c *algebra.Curve[E, P, PE, PP], ck *CommitterKey[P], item *Item[E, P], opts ...CheckOption[E, P]) (bool, error) {
	if item == nil {
		return false, errs.New(errs.KindOther, "nil accumulator item")
	}
	if len(item.CheckPoly.Xi) != ck.LogSize() {
		return false, errs.New(errs.KindOther, "check polynomial has %d challenges, key has %d rounds", len(item.CheckPoly.Xi), ck.LogSize())
	}
	cfg := checkConfig[E, P]{}
	for _, opt := range opts {
		opt(&cfg)
	}

	coeffs := CheckPolynomialCoefficients(c, item.CheckPoly)
	var (
		res P
		err error
	)
	if cfg.multiExp != nil {
		res, err = cfg.multiExp(ck.G, coeffs)
	} else {
		res, err = c.MultiExp(ck.G, coeffs, cfg.nbTasks)
	}
	if err != nil {
		return false, err
	}
	return algebra.EqualPoints[P, E, PP](res, item.G), nil
}

// Check validates item, then runs the hard part on it.
func Check[E, P any, PE algebra.Element[E], PP algebra.Point[P, E]](c *algebra.Curve[E, P, PE, PP], ck *CommitterKey[P], item *Item[E, P], opts ...CheckOption[E, P]) (bool, error) {
	if err := ValidateItem(c, ck, item); err != nil {
		return false, errs.Wrap(errs.KindOther, err)
	}
	return CheckAccumulated(c, ck, item, opts...)
}

// combineCheckPolynomials returns sum_i weights[i]*polys[i] as n coefficients.
func combineCheckPolynomials[E, P any, PE algebra.Element[E], PP algebra.Point[P, E]](c *algebra.Curve[E, P, PE, PP], n int, polys []SuccinctCheckPolynomial[E], weights []E) []E {
	coeffs := make([][]E, len(polys))
	parallelize(len(polys), func(start, end int) {
		for i := start; i < end; i++ {
			coeffs[i] = CheckPolynomialCoefficients(c, polys[i])
		}
	})
	res := make([]E, n)
	parallelize(n, func(start, end int) {
		var t E
		for i := range coeffs {
			for j := start; j < end; j++ {
				PE(&t).Mul(&coeffs[i][j], &weights[i])
				PE(&res[j]).Add(&res[j], &t)
			}
		}
	})
	return res
}

// GenerateRandomItem returns a valid item with challenges read from rng. It is
// meant for tests and benchmarks.
func GenerateRandomItem[E, P any, PE algebra.Element[E], PP algebra.Point[P, E]](c *algebra.Curve[E, P, PE, PP], ck *CommitterKey[P], rng io.Reader) (*Item[E, P], error) {
	xi := make([]E, ck.LogSize())
	var buf [16]byte
	for j := range xi {
		if _, err := io.ReadFull(rng, buf[:]); err != nil {
			return nil, err
		}
		var k big.Int
		k.SetBytes(buf[:])
		if k.Sign() == 0 {
			k.SetUint64(1)
		}
		PE(&xi[j]).SetBigInt(&k)
	}
	poly := SuccinctCheckPolynomial[E]{Xi: xi}
	g, err := c.MultiExp(ck.G, CheckPolynomialCoefficients(c, poly), 0)
	if err != nil {
		return nil, err
	}
	return &Item[E, P]{G: g, CheckPoly: poly}, nil
}

// parallelize splits [0, nbIterations) into one contiguous range per CPU.
func parallelize(nbIterations int, work func(int, int), maxCpus ...int) {
	nbTasks := runtime.NumCPU()
	if len(maxCpus) == 1 {
		nbTasks = maxCpus[0]
	}
	nbIterationsPerCpus := nbIterations / nbTasks

	// more CPUs than tasks: a CPU will work on exactly one iteration
	if nbIterationsPerCpus < 1 {
		nbIterationsPerCpus = 1
		nbTasks = nbIterations
	}

	var wg sync.WaitGroup
	extraTasks := nbIterations - (nbTasks * nbIterationsPerCpus)
	extraTasksOffset := 0
	for i := 0; i < nbTasks; i++ {
		wg.Add(1)
		_start := i*nbIterationsPerCpus + extraTasksOffset
		_end := _start + nbIterationsPerCpus
		if extraTasks > 0 {
			_end++
			extraTasks--
			extraTasksOffset++
		}
		go func() {
			work(_start, _end)
			wg.Done()
		}()
	}
	wg.Wait()
}
