package dlog

import (
	"crypto/rand"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fp"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/test"

	"github.com/eon-protocol/darlin/algebra"
	"github.com/eon-protocol/darlin/errs"
	"github.com/eon-protocol/darlin/transcript"
)

const testKeySize = 16

func setup(t *testing.T) (*algebra.BN254Curve, *CommitterKey[bn254.G1Affine]) {
	c := algebra.BN254()
	ck, err := Setup(c, testKeySize, []byte("dlog test key"))
	if err != nil {
		t.Fatal(err)
	}
	return c, ck
}

func newTranscript(t *testing.T, c *algebra.BN254Curve, seed string) *transcript.Transcript[fr.Element, *fr.Element] {
	tr, err := transcript.FromSeed[fr.Element](c.NewPermutation(), []byte(seed))
	if err != nil {
		t.Fatal(err)
	}
	return tr
}

func randomPoly(n int) []fr.Element {
	p := make([]fr.Element, n)
	for i := range p {
		p[i].SetRandom()
	}
	return p
}

func TestSetup(t *testing.T) {
	assert := test.NewAssert(t)
	c, ck := setup(t)
	assert.Equal(testKeySize, ck.Size())
	assert.Equal(4, ck.LogSize())

	again, err := Setup(c, testKeySize, []byte("dlog test key"))
	assert.NoError(err)
	assert.Equal(ck.Hash, again.Hash)

	other, err := Setup(c, testKeySize, []byte("another key"))
	assert.NoError(err)
	assert.NotEqual(ck.Hash, other.Hash)

	_, err = Setup(c, 12, []byte("seed"))
	assert.Error(err)

	trimmed, err := Trim(c, ck, 8)
	assert.NoError(err)
	assert.Equal(3, trimmed.LogSize())
	assert.True(trimmed.G[7].Equal(&ck.G[7]))
	assert.NotEqual(ck.Hash, trimmed.Hash)
}

func TestSetupProgress(t *testing.T) {
	assert := test.NewAssert(t)
	total := 0
	_, err := Setup(algebra.BN254(), 512, []byte("progress"), WithProgress(func(n int) { total += n }))
	assert.NoError(err)
	assert.Equal(512, total)
}

func TestCheckPolynomial(t *testing.T) {
	assert := test.NewAssert(t)
	c := algebra.BN254()
	poly := SuccinctCheckPolynomial[fr.Element]{Xi: make([]fr.Element, 5)}
	for i := range poly.Xi {
		poly.Xi[i].SetUint64(uint64(1000 + i))
	}
	coeffs := CheckPolynomialCoefficients(c, poly)
	assert.Equal(32, len(coeffs))

	var x fr.Element
	x.SetRandom()
	want := c.Poly.Eval(coeffs, x)
	got := EvaluateCheckPolynomial(c, poly, x)
	assert.True(want.Equal(&got))
}

func TestOpenSuccinctVerify(t *testing.T) {
	assert := test.NewAssert(t)
	c, ck := setup(t)

	p := randomPoly(11)
	commitment, err := Commit(c, ck, p)
	assert.NoError(err)
	var z fr.Element
	z.SetRandom()
	v := c.Poly.Eval(p, z)

	proof, err := Open(c, ck, newTranscript(t, c, "ipa"), p, z, commitment, v)
	assert.NoError(err)
	assert.Equal(4, len(proof.L))

	item, err := SuccinctVerify(c, ck, newTranscript(t, c, "ipa"), commitment, z, v, proof)
	assert.NoError(err)
	assert.True(IsValid(c, ck, item))
	ok, err := Check(c, ck, item)
	assert.NoError(err)
	assert.True(ok)

	t.Run("wrong value", func(t *testing.T) {
		assert := test.NewAssert(t)
		bad := algebra.Add(v, algebra.One[fr.Element, *fr.Element]())
		_, err := SuccinctVerify(c, ck, newTranscript(t, c, "ipa"), commitment, z, bad, proof)
		assert.ErrorIs(err, errs.ErrCheckFailed)
	})
	t.Run("wrong transcript", func(t *testing.T) {
		assert := test.NewAssert(t)
		_, err := SuccinctVerify(c, ck, newTranscript(t, c, "other"), commitment, z, v, proof)
		assert.ErrorIs(err, errs.ErrCheckFailed)
	})
	t.Run("truncated proof", func(t *testing.T) {
		assert := test.NewAssert(t)
		short := *proof
		short.L = short.L[:3]
		_, err := SuccinctVerify(c, ck, newTranscript(t, c, "ipa"), commitment, z, v, &short)
		assert.ErrorIs(err, errs.ErrOther)
	})
	t.Run("off-curve round commitment", func(t *testing.T) {
		assert := test.NewAssert(t)
		bad := *proof
		bad.L = append([]bn254.G1Affine(nil), proof.L...)
		var one fp.Element
		bad.L[0].X.Add(&bad.L[0].X, one.SetOne())
		_, err := SuccinctVerify(c, ck, newTranscript(t, c, "ipa"), commitment, z, v, &bad)
		assert.ErrorIs(err, errs.ErrOther)
		assert.False(errs.Rejected(err))
	})
	t.Run("round commitment at infinity", func(t *testing.T) {
		assert := test.NewAssert(t)
		bad := *proof
		bad.R = append([]bn254.G1Affine(nil), proof.R...)
		bad.R[1] = bn254.G1Affine{}
		_, err := SuccinctVerify(c, ck, newTranscript(t, c, "ipa"), commitment, z, v, &bad)
		assert.ErrorIs(err, errs.ErrCheckFailed)
	})
	t.Run("polynomial too large", func(t *testing.T) {
		assert := test.NewAssert(t)
		_, err := Open(c, ck, newTranscript(t, c, "ipa"), randomPoly(testKeySize+1), z, commitment, v)
		assert.Error(err)
	})
}

func TestMultiPoint(t *testing.T) {
	assert := test.NewAssert(t)
	c, ck := setup(t)

	polys := map[string][]fr.Element{
		"a": randomPoly(16),
		"b": randomPoly(5),
		"c": randomPoly(9),
	}
	commitments := make(map[string]bn254.G1Affine)
	for label, p := range polys {
		cm, err := Commit(c, ck, p)
		assert.NoError(err)
		commitments[label] = cm
	}
	var x, y fr.Element
	x.SetRandom()
	y.SetRandom()
	qs := QuerySet[fr.Element]{
		{Poly: "a", Point: "x"}: x,
		{Poly: "a", Point: "y"}: y,
		{Poly: "b", Point: "x"}: x,
		{Poly: "c", Point: "y"}: y,
	}
	evals := make(Evaluations[fr.Element])
	for q, pt := range qs {
		evals[q] = c.Poly.Eval(polys[q.Poly], pt)
	}

	proof, err := OpenMultiPoint(c, ck, newTranscript(t, c, "multi"), polys, commitments, qs, evals)
	assert.NoError(err)

	item, err := SuccinctVerifyMultiPoint(c, ck, newTranscript(t, c, "multi"), commitments, qs, evals, proof)
	assert.NoError(err)
	ok, err := Check(c, ck, item)
	assert.NoError(err)
	assert.True(ok)

	t.Run("tampered evaluation", func(t *testing.T) {
		assert := test.NewAssert(t)
		bad := make(Evaluations[fr.Element])
		for q, v := range evals {
			bad[q] = v
		}
		q := Query{Poly: "b", Point: "x"}
		bad[q] = algebra.Add(bad[q], algebra.One[fr.Element, *fr.Element]())
		_, err := SuccinctVerifyMultiPoint(c, ck, newTranscript(t, c, "multi"), commitments, qs, bad, proof)
		assert.ErrorIs(err, errs.ErrCheckFailed)
	})
	t.Run("off-curve quotient commitment", func(t *testing.T) {
		assert := test.NewAssert(t)
		bad := *proof
		var one fp.Element
		bad.H.Y.Add(&bad.H.Y, one.SetOne())
		_, err := SuccinctVerifyMultiPoint(c, ck, newTranscript(t, c, "multi"), commitments, qs, evals, &bad)
		assert.ErrorIs(err, errs.ErrOther)
		assert.False(errs.Rejected(err))
	})
	t.Run("missing evaluation", func(t *testing.T) {
		assert := test.NewAssert(t)
		partial := Evaluations[fr.Element]{{Poly: "a", Point: "x"}: evals[Query{Poly: "a", Point: "x"}]}
		_, err := SuccinctVerifyMultiPoint(c, ck, newTranscript(t, c, "multi"), commitments, qs, partial, proof)
		assert.ErrorIs(err, errs.ErrOther)
	})
}

func TestQuerySetSorted(t *testing.T) {
	assert := test.NewAssert(t)
	qs := QuerySet[fr.Element]{
		{Poly: "b", Point: "beta"}:  {},
		{Poly: "a", Point: "gamma"}: {},
		{Poly: "a", Point: "beta"}:  {},
	}
	assert.Equal([]Query{
		{Poly: "a", Point: "beta"},
		{Poly: "a", Point: "gamma"},
		{Poly: "b", Point: "beta"},
	}, qs.Sorted())
}

func randomItems(t *testing.T, c *algebra.BN254Curve, ck *CommitterKey[bn254.G1Affine], n int) []Item[fr.Element, bn254.G1Affine] {
	items := make([]Item[fr.Element, bn254.G1Affine], n)
	for i := range items {
		item, err := GenerateRandomItem(c, ck, rand.Reader)
		if err != nil {
			t.Fatal(err)
		}
		items[i] = *item
	}
	return items
}

func TestAccumulate(t *testing.T) {
	assert := test.NewAssert(t)
	c, ck := setup(t)

	items := randomItems(t, c, ck, 3)
	for i := range items {
		assert.True(IsValid(c, ck, &items[i]))
	}
	kept := append([]Item[fr.Element, bn254.G1Affine](nil), items...)
	acc, proof, err := Accumulate(c, ck, items)
	assert.NoError(err)
	assert.True(IsValid(c, ck, acc))
	for i := range items {
		assert.Nil(items[i].CheckPoly.Xi, "item %d was not consumed", i)
	}

	ok, err := CheckAccumulated(c, ck, acc)
	assert.NoError(err)
	assert.True(ok)
	ok, err = CheckAccumulated(c, ck, acc, WithNbTasks[fr.Element, bn254.G1Affine](1))
	assert.NoError(err)
	assert.True(ok)

	verified, err := VerifyAccumulation(c, ck, kept, proof)
	assert.NoError(err)
	assert.True(verified.G.Equal(&acc.G))
	assert.Equal(acc.CheckPoly, verified.CheckPoly)
	assert.Nil(kept[0].CheckPoly.Xi)

	t.Run("wrong inputs", func(t *testing.T) {
		assert := test.NewAssert(t)
		_, err := VerifyAccumulation(c, ck, randomItems(t, c, ck, 3), proof)
		assert.ErrorIs(err, errs.ErrCheckFailed)
	})
}

func TestAccumulateAccumulated(t *testing.T) {
	assert := test.NewAssert(t)
	c, ck := setup(t)

	first, _, err := Accumulate(c, ck, randomItems(t, c, ck, 2))
	assert.NoError(err)
	second, _, err := Accumulate(c, ck, randomItems(t, c, ck, 3))
	assert.NoError(err)

	nested := append([]Item[fr.Element, bn254.G1Affine]{*first, *second}, randomItems(t, c, ck, 1)...)
	acc, _, err := Accumulate(c, ck, nested)
	assert.NoError(err)
	ok, err := Check(c, ck, acc)
	assert.NoError(err)
	assert.True(ok)

	single, _, err := Accumulate(c, ck, []Item[fr.Element, bn254.G1Affine]{*acc})
	assert.NoError(err)
	ok, err = Check(c, ck, single)
	assert.NoError(err)
	assert.True(ok)
}

func TestAccumulateRejectsBadItem(t *testing.T) {
	assert := test.NewAssert(t)
	c, ck := setup(t)

	items := randomItems(t, c, ck, 3)
	// a valid group element that does not commit to the check polynomial
	items[1].G = items[0].G
	_, _, err := Accumulate(c, ck, items)
	assert.ErrorIs(err, errs.ErrCheckFailed)
	assert.NotNil(items[0].CheckPoly.Xi, "inputs must survive a failed accumulation")

	// an accepted accumulator that lies is caught by the hard part
	item := randomItems(t, c, ck, 1)[0]
	item.G = algebra.AddPoints[bn254.G1Affine, fr.Element](item.G, c.Generator)
	ok, err := CheckAccumulated(c, ck, &item)
	assert.NoError(err)
	assert.False(ok)
}

func TestAccumulateInvalidInput(t *testing.T) {
	assert := test.NewAssert(t)
	c, ck := setup(t)

	_, _, err := Accumulate(c, ck, nil)
	assert.ErrorIs(err, errs.ErrOther)

	items := randomItems(t, c, ck, 2)
	items[1].CheckPoly.Xi = items[1].CheckPoly.Xi[:2]
	_, _, err = Accumulate(c, ck, items)
	assert.ErrorIs(err, errs.ErrOther)
	assert.ErrorIs(err, ErrInvalidItem)
	assert.NotNil(items[0].CheckPoly.Xi, "inputs must survive a failed accumulation")

	_, err = CheckAccumulated(c, ck, &items[1])
	assert.ErrorIs(err, errs.ErrOther)

	items = randomItems(t, c, ck, 1)
	items[0].G = bn254.G1Affine{}
	assert.False(IsValid(c, ck, &items[0]))

	items = randomItems(t, c, ck, 1)
	items[0].CheckPoly.Xi[0].SetZero()
	assert.False(IsValid(c, ck, &items[0]))
}

func TestCheckWithMultiExp(t *testing.T) {
	assert := test.NewAssert(t)
	c, ck := setup(t)

	items := randomItems(t, c, ck, 1)
	calls := 0
	msm := func(bases []bn254.G1Affine, scalars []fr.Element) (bn254.G1Affine, error) {
		calls++
		return c.MultiExp(bases, scalars, 1)
	}
	ok, err := Check(c, ck, &items[0], WithMultiExp[fr.Element, bn254.G1Affine](msm))
	assert.NoError(err)
	assert.True(ok)
	assert.Equal(1, calls)
}

func TestCheckGenerators(t *testing.T) {
	assert := test.NewAssert(t)
	c, ck := setup(t)
	seed := []byte("dlog test key")

	assert.NoError(CheckGenerators(c, ck, seed, 0, 7, testKeySize-1))
	assert.Error(CheckGenerators(c, ck, []byte("another key")))
	assert.Error(CheckGenerators(c, ck, seed, testKeySize))

	swapped := &CommitterKey[bn254.G1Affine]{G: append([]bn254.G1Affine(nil), ck.G...), H: ck.H}
	swapped.G[0], swapped.G[1] = swapped.G[1], swapped.G[0]
	assert.Error(CheckGenerators(c, swapped, seed, 0))
	assert.NoError(CheckGenerators(c, swapped, seed, 2))
}

