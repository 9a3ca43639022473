package marlin

import (
	"testing"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark/test"

	"github.com/eon-protocol/darlin/algebra"
	"github.com/eon-protocol/darlin/dlog"
	"github.com/eon-protocol/darlin/errs"
	"github.com/eon-protocol/darlin/transcript"
)

type fixture struct {
	c   *algebra.BLS12381Curve
	ck  *dlog.CommitterKey[bls12381.G1Affine]
	pk  *ProverKey[fr.Element, bls12381.G1Affine]
	out fr.Element
	wit []fr.Element
}

func newFixture(t *testing.T) *fixture {
	c := algebra.BLS12381()
	ck, err := dlog.Setup(c, 64, []byte("marlin test key"))
	if err != nil {
		t.Fatal(err)
	}
	pk, err := Index(c, ck, CubicCircuit[fr.Element](0))
	if err != nil {
		t.Fatal(err)
	}
	out, wit := CubicAssignment(algebra.FromUint64[fr.Element](3))
	return &fixture{c: c, ck: ck, pk: pk, out: out, wit: wit}
}

func TestCubicAssignment(t *testing.T) {
	assert := test.NewAssert(t)
	out, wit := CubicAssignment(algebra.FromUint64[fr.Element](3))
	want := algebra.FromUint64[fr.Element](35)
	assert.True(out.Equal(&want))

	r := CubicCircuit[fr.Element](2)
	z := append([]fr.Element{algebra.One[fr.Element](), out, {}, {}}, wit...)
	assert.NoError(IsSatisfied(r, z))
	z[1].SetUint64(36)
	assert.ErrorIs(IsSatisfied(r, z), ErrUnsatisfied)
}

func TestProveVerify(t *testing.T) {
	assert := test.NewAssert(t)
	f := newFixture(t)

	proof, err := Prove(f.c, f.ck, f.pk, []fr.Element{f.out}, f.wit)
	assert.NoError(err)
	assert.Equal(NbQueries, len(proof.Evaluations))

	item, err := SuccinctVerify(f.c, f.ck, f.pk.VerifierKey, []fr.Element{f.out}, proof)
	assert.NoError(err)
	ok, err := dlog.Check(f.c, f.ck, item)
	assert.NoError(err)
	assert.True(ok)
}

func TestMutatedEvaluations(t *testing.T) {
	assert := test.NewAssert(t)
	f := newFixture(t)

	proof, err := Prove(f.c, f.ck, f.pk, []fr.Element{f.out}, f.wit)
	assert.NoError(err)
	one := algebra.One[fr.Element]()
	for i := range proof.Evaluations {
		mutated := *proof
		mutated.Evaluations = append([]fr.Element(nil), proof.Evaluations...)
		mutated.Evaluations[i].Add(&mutated.Evaluations[i], &one)
		_, err := SuccinctVerify(f.c, f.ck, f.pk.VerifierKey, []fr.Element{f.out}, &mutated)
		assert.ErrorIs(err, errs.ErrCheckFailed, "evaluation %d", i)
	}
}

func TestWrongStatement(t *testing.T) {
	assert := test.NewAssert(t)
	f := newFixture(t)

	proof, err := Prove(f.c, f.ck, f.pk, []fr.Element{f.out}, f.wit)
	assert.NoError(err)

	wrong := algebra.FromUint64[fr.Element](36)
	_, err = SuccinctVerify(f.c, f.ck, f.pk.VerifierKey, []fr.Element{wrong}, proof)
	assert.ErrorIs(err, errs.ErrCheckFailed)

	_, err = SuccinctVerify(f.c, f.ck, f.pk.VerifierKey, []fr.Element{f.out, wrong}, proof)
	assert.ErrorIs(err, errs.ErrOther)

	_, err = Prove(f.c, f.ck, f.pk, []fr.Element{wrong}, f.wit)
	assert.ErrorIs(err, ErrUnsatisfied)
}

func TestRoundOrder(t *testing.T) {
	assert := test.NewAssert(t)
	c := algebra.BLS12381()
	tr, err := transcript.FromSeed[fr.Element](c.NewPermutation(), []byte("rounds"))
	assert.NoError(err)
	info := CubicCircuit[fr.Element](0).Info()

	_, state, err := FirstRound(c, info, tr)
	assert.NoError(err)
	assert.Equal(uint64(8), state.DomainH.Size)
	assert.Equal(uint64(8), state.DomainK.Size)

	_, err = state.QuerySet()
	assert.ErrorIs(err, errs.ErrOther)
	_, err = state.ThirdRound(tr)
	assert.ErrorIs(err, errs.ErrOther)

	_, err = state.SecondRound(tr)
	assert.NoError(err)
	_, err = state.SecondRound(tr)
	assert.ErrorIs(err, errs.ErrOther)
	_, err = state.QuerySet()
	assert.ErrorIs(err, errs.ErrOther)

	_, err = state.ThirdRound(tr)
	assert.NoError(err)
	qs, err := state.QuerySet()
	assert.NoError(err)
	assert.Equal(NbQueries, len(qs))

	shifted := algebra.Mul(state.DomainH.Generator, state.Second.Beta)
	got := qs[dlog.Query{Poly: "u_1", Point: PointShiftedBeta}]
	assert.True(got.Equal(&shifted))
	got = qs[dlog.Query{Poly: "c_val", Point: PointGamma}]
	assert.True(got.Equal(&state.Third.Gamma))
}

func TestDomainTooLarge(t *testing.T) {
	assert := test.NewAssert(t)
	c := algebra.BLS12381()
	tr, err := transcript.FromSeed[fr.Element](c.NewPermutation(), []byte("large"))
	assert.NoError(err)

	_, _, err = FirstRound(c, IndexInfo{NumInputs: 1, NumConstraints: 1 << 40, NumNonZero: 1}, tr)
	assert.ErrorIs(err, errs.ErrOther)
	assert.ErrorIs(err, algebra.ErrDomainTooLarge)
}
