package algebra

import (
	"math/big"
	"sync"

	"github.com/consensys/gnark-crypto/ecc"
	lru "github.com/hashicorp/golang-lru"
)

const domainCacheSize = 64

// Permutation is the native sponge permutation (gnark-crypto poseidon2).
type Permutation[E any] interface {
	Permutation(input []E) error
}

// Curve bundles everything the verifier needs to know about one curve of the
// recursion pair: its scalar field E, its affine point type P, how to hash
// into the group, how to build evaluation domains, and the Poseidon2
// permutation used by its transcript.
type Curve[E, P any, PE Element[E], PP Point[P, E]] struct {
	ID            ecc.ID
	ScalarModulus *big.Int
	BaseModulus   *big.Int
	ScalarBits    int
	Generator     P
	// Poly is the polynomial arithmetic of the scalar field.
	Poly *Polynomials[E, PE]

	twoAdicity  int
	coordinates func(*P) (x, y big.Int)
	hashToPoint func(msg, dst []byte) (P, error)
	permutation func() Permutation[E]
	newDomain   func(size uint64) *Domain[E, PE]

	endo    func() E
	domains *lru.Cache
}

type curveParams[E, P any, PE Element[E], PP Point[P, E]] struct {
	id          ecc.ID
	scalarMod   *big.Int
	baseMod     *big.Int
	generator   P
	twoAdicity  int
	coordinates func(*P) (x, y big.Int)
	hashToPoint func(msg, dst []byte) (P, error)
	permutation func() Permutation[E]
	newDomain   func(size uint64) *Domain[E, PE]
	polys       PolyBackend[E]
}

func newCurve[E, P any, PE Element[E], PP Point[P, E]](p curveParams[E, P, PE, PP]) *Curve[E, P, PE, PP] {
	cache, err := lru.New(domainCacheSize)
	if err != nil {
		panic(err)
	}
	c := &Curve[E, P, PE, PP]{
		ID:            p.id,
		ScalarModulus: p.scalarMod,
		BaseModulus:   p.baseMod,
		ScalarBits:    p.scalarMod.BitLen(),
		Generator:     p.generator,
		twoAdicity:    p.twoAdicity,
		coordinates:   p.coordinates,
		hashToPoint:   p.hashToPoint,
		permutation:   p.permutation,
		newDomain:     p.newDomain,
		domains:       cache,
	}
	c.endo = sync.OnceValue(c.cubeRootOfUnity)
	c.Poly = newPolynomials(p.polys, c.BestDomain)
	return c
}

func (me *Curve[E, P, PE, PP]) String() string {
	return me.ID.String()
}

// NewPermutation returns the transcript permutation of this curve's scalar field.
func (me *Curve[E, P, PE, PP]) NewPermutation() Permutation[E] {
	return me.permutation()
}

func (me *Curve[E, P, PE, PP]) HashToPoint(msg, dst []byte) (P, error) {
	return me.hashToPoint(msg, dst)
}

func (me *Curve[E, P, PE, PP]) Coordinates(p P) (x, y big.Int) {
	return me.coordinates(&p)
}

// PointElements encodes p as scalar field elements. Coordinates that fit the
// scalar field are kept as is, otherwise each one is split into quotient and
// remainder modulo the scalar modulus. The point at infinity encodes as zeros.
func (me *Curve[E, P, PE, PP]) PointElements(p P) []E {
	x, y := me.Coordinates(p)
	if me.BaseModulus.Cmp(me.ScalarModulus) < 0 {
		return []E{FromBigInt[E, PE](&x), FromBigInt[E, PE](&y)}
	}
	xq, xm := Decompose[E, PE](&x, me.ScalarModulus)
	yq, ym := Decompose[E, PE](&y, me.ScalarModulus)
	return []E{xq, xm, yq, ym}
}

// NbPointElements is len(PointElements(p)) for any p.
func (me *Curve[E, P, PE, PP]) NbPointElements() int {
	if me.BaseModulus.Cmp(me.ScalarModulus) < 0 {
		return 2
	}
	return 4
}

// BestDomain returns the smallest power-of-two subgroup of order >= size.
// Domains are cached by size.
func (me *Curve[E, P, PE, PP]) BestDomain(size uint64) (*Domain[E, PE], error) {
	n, _, err := domainSize(size, me.twoAdicity)
	if err != nil {
		return nil, err
	}
	if d, ok := me.domains.Get(n); ok {
		return d.(*Domain[E, PE]), nil
	}
	d := me.newDomain(n)
	d.Poly = me.Poly
	me.domains.Add(n, d)
	return d, nil
}

// MultiExp is the CPU multi-scalar multiplication.
func (me *Curve[E, P, PE, PP]) MultiExp(bases []P, scalars []E, nbTasks int) (P, error) {
	return MultiExp[P, E, PP](bases, scalars, nbTasks)
}

// EndoScalar is the non-trivial cube root of unity used by EndoToScalar.
func (me *Curve[E, P, PE, PP]) EndoScalar() E {
	return me.endo()
}

func (me *Curve[E, P, PE, PP]) cubeRootOfUnity() E {
	var exp big.Int
	exp.Sub(me.ScalarModulus, big.NewInt(1))
	exp.Div(&exp, big.NewInt(3))
	for x := uint64(2); ; x++ {
		var r E
		PE(&r).Exp(FromUint64[E, PE](x), &exp)
		if !PE(&r).IsOne() {
			return r
		}
	}
}

// EndoToScalar maps the low 128 bits of chal to a scalar in endomorphism
// representation: bit pairs are consumed from the most significant pair down,
// the low bit of a pair picks the sign and the high bit picks which of a, b
// moves. The result is a*zeta + b.
func (me *Curve[E, P, PE, PP]) EndoToScalar(chal E) E {
	var k big.Int
	PE(&chal).BigInt(&k)

	a := FromUint64[E, PE](2)
	b := FromUint64[E, PE](2)
	one := One[E, PE]()
	for i := 63; i >= 0; i-- {
		PE(&a).Double(&a)
		PE(&b).Double(&b)
		target := &b
		if k.Bit(2*i+1) == 1 {
			target = &a
		}
		if k.Bit(2*i) == 1 {
			PE(target).Add(target, &one)
		} else {
			PE(target).Sub(target, &one)
		}
	}
	zeta := me.EndoScalar()
	PE(&a).Mul(&a, &zeta)
	PE(&a).Add(&a, &b)
	return a
}
