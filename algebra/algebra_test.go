package algebra

import (
	"math/big"
	"testing"

	frbls "github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	frbn "github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/test"
)

func TestEndoScalarIsCubeRoot(t *testing.T) {
	assert := test.NewAssert(t)

	zeta := BLS12381().EndoScalar()
	assert.False(zeta.IsOne())
	cube := ExpUint64(zeta, 3)
	assert.True(cube.IsOne())

	zbn := BN254().EndoScalar()
	assert.False(zbn.IsOne())
	cbn := ExpUint64(zbn, 3)
	assert.True(cbn.IsOne())
}

func TestEndoToScalar(t *testing.T) {
	assert := test.NewAssert(t)
	c := BLS12381()

	var x, y frbls.Element
	x.SetUint64(0xdeadbeef)
	y.SetUint64(0xdeadbeee)
	ex, ey := c.EndoToScalar(x), c.EndoToScalar(y)
	assert.False(ex.Equal(&ey))
	again := c.EndoToScalar(x)
	assert.True(ex.Equal(&again))

	// bits above 128 are ignored
	var hi frbls.Element
	hi.SetBigInt(new(big.Int).Lsh(big.NewInt(1), 200))
	hi.Add(&hi, &x)
	ehi := c.EndoToScalar(hi)
	assert.True(ex.Equal(&ehi))
}

func TestDomainInterpolateEvaluate(t *testing.T) {
	assert := test.NewAssert(t)
	c := BN254()

	d, err := c.BestDomain(5)
	assert.NoError(err)
	assert.Equal(uint64(8), d.Size)
	assert.Equal(3, d.LogSize)

	same, err := c.BestDomain(8)
	assert.NoError(err)
	assert.True(d == same, "domain should come from the cache")

	coeffs := make([]frbn.Element, 6)
	for i := range coeffs {
		coeffs[i].SetRandom()
	}
	evals, err := d.Evaluate(coeffs)
	assert.NoError(err)
	for i, e := range evals {
		want := d.Poly.Eval(coeffs, d.Element(uint64(i)))
		assert.True(e.Equal(&want), "evaluation %d", i)
		v := d.VanishingAt(d.Element(uint64(i)))
		assert.True(v.IsZero())
	}
	back, err := d.Interpolate(evals)
	assert.NoError(err)
	for i := range coeffs {
		assert.True(back[i].Equal(&coeffs[i]))
	}
	assert.True(back[6].IsZero() && back[7].IsZero())
}

func TestBestDomainTooLarge(t *testing.T) {
	assert := test.NewAssert(t)
	_, err := BN254().BestDomain(1<<28 + 1)
	assert.ErrorIs(err, ErrDomainTooLarge)
}

func TestPackBits(t *testing.T) {
	assert := test.NewAssert(t)

	var x frbls.Element
	x.SetUint64(0b1011)
	bits := ToBitsMSB(x, 6)
	assert.Equal([]bool{false, false, true, false, true, true}, bits)

	packed := PackBits[frbls.Element](append(bits, true, false), 3)
	assert.Equal(3, len(packed))
	want := []uint64{0b001, 0b011, 0b10}
	for i := range packed {
		var w frbls.Element
		w.SetUint64(want[i])
		assert.True(packed[i].Equal(&w), "chunk %d", i)
	}
}

func TestPointElements(t *testing.T) {
	assert := test.NewAssert(t)

	bls := BLS12381()
	assert.Equal(4, bls.NbPointElements())
	els := bls.PointElements(bls.Generator)
	assert.Equal(4, len(els))
	x, _ := bls.Coordinates(bls.Generator)
	var q, m, r big.Int
	els[0].BigInt(&q)
	els[1].BigInt(&m)
	r.Mul(&q, bls.ScalarModulus).Add(&r, &m)
	assert.Equal(0, r.Cmp(&x))

	// the bn254 base field is larger than its scalar field too
	bn := BN254()
	assert.Equal(4, bn.NbPointElements())
	assert.Equal(4, len(bn.PointElements(bn.Generator)))
}

func TestBatchInvert(t *testing.T) {
	assert := test.NewAssert(t)
	vec := make([]frbn.Element, 5)
	for i := range vec {
		vec[i].SetRandom()
	}
	vec[2].SetZero()
	orig := append([]frbn.Element(nil), vec...)
	BN254().Poly.BatchInvert(vec)
	for i := range vec {
		if i == 2 {
			assert.True(vec[i].IsZero())
			continue
		}
		p := Mul(vec[i], orig[i])
		assert.True(p.IsOne())
	}
}

func randomPoly(n int) []frbls.Element {
	res := make([]frbls.Element, n)
	for i := range res {
		res[i].SetRandom()
	}
	return res
}

func TestPolynomials(t *testing.T) {
	assert := test.NewAssert(t)
	poly := BLS12381().Poly

	var x frbls.Element
	x.SetRandom()
	for _, sizes := range [][2]int{{3, 5}, {20, 33}, {1, 40}} {
		a, b := randomPoly(sizes[0]), randomPoly(sizes[1])
		pa, pb := poly.Eval(a, x), poly.Eval(b, x)

		prod := poly.Mul(a, b)
		assert.Equal(sizes[0]+sizes[1]-1, len(prod), "sizes %v", sizes)
		got, want := poly.Eval(prod, x), Mul(pa, pb)
		assert.True(got.Equal(&want), "product of sizes %v", sizes)

		got, want = poly.Eval(poly.Sub(a, b), x), Sub(pa, pb)
		assert.True(got.Equal(&want), "difference of sizes %v", sizes)

		got, want = poly.Eval(poly.AddConstant(a, x), x), Add(pa, x)
		assert.True(got.Equal(&want), "constant added to size %d", sizes[0])
	}
	assert.Equal(0, len(poly.Mul(nil, randomPoly(3))))
	assert.True(PolyIsZero(poly.Sub(randomPoly(0), nil)))

	// (X - x) * q + p(x) = p
	p := randomPoly(9)
	q := poly.DivByLinear(p, x)
	back := poly.AddConstant(poly.Mul(q, []frbls.Element{Neg(x), One[frbls.Element]()}), poly.Eval(p, x))
	for i := range p {
		assert.True(back[i].Equal(&p[i]), "coefficient %d", i)
	}

	// (X^4 - 1) * q + r = p
	quo, rem := poly.DivByVanishing(p, 4)
	assert.True(len(rem) <= 4)
	vanishing := []frbls.Element{Neg(One[frbls.Element]()), {}, {}, {}, One[frbls.Element]()}
	back = poly.Add(poly.Mul(quo, vanishing), rem)
	for i := range p {
		assert.True(back[i].Equal(&p[i]), "coefficient %d", i)
	}

	got, want := poly.Eval(poly.ComposeScale(p, x), x), poly.Eval(p, Mul(x, x))
	assert.True(got.Equal(&want))

	a, b := randomPoly(7), randomPoly(7)
	var naive frbls.Element
	for i := range a {
		naive = Add(naive, Mul(a[i], b[i]))
	}
	ip := poly.InnerProduct(a, b)
	assert.True(ip.Equal(&naive))
}
