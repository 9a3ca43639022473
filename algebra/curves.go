package algebra

import (
	"math/big"
	"math/bits"
	"sync"

	"github.com/consensys/gnark-crypto/ecc"
	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	fpbls "github.com/consensys/gnark-crypto/ecc/bls12-381/fp"
	frbls "github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	fftbls "github.com/consensys/gnark-crypto/ecc/bls12-381/fr/fft"
	polybls "github.com/consensys/gnark-crypto/ecc/bls12-381/fr/polynomial"
	poseidonbls "github.com/consensys/gnark-crypto/ecc/bls12-381/fr/poseidon2"
	"github.com/consensys/gnark-crypto/ecc/bn254"
	fpbn "github.com/consensys/gnark-crypto/ecc/bn254/fp"
	frbn "github.com/consensys/gnark-crypto/ecc/bn254/fr"
	fftbn "github.com/consensys/gnark-crypto/ecc/bn254/fr/fft"
	polybn "github.com/consensys/gnark-crypto/ecc/bn254/fr/polynomial"
	poseidonbn "github.com/consensys/gnark-crypto/ecc/bn254/fr/poseidon2"
)

// Poseidon2 parameters of the transcript sponge, shared with the in-circuit
// sponge.
const SPONGE_WIDTH = 3
const SPONGE_RATE = 2
const SPONGE_ROUND_FULL = 8
const SPONGE_ROUND_PARTIAL = 56
const SPONGE_SEED = "DARLIN_POSEIDON2_SPONGE_SEED"

const twoAdicityBLS12381 = 32
const twoAdicityBN254 = 28

type (
	BLS12381Curve = Curve[frbls.Element, bls12381.G1Affine, *frbls.Element, *bls12381.G1Affine]
	BN254Curve    = Curve[frbn.Element, bn254.G1Affine, *frbn.Element, *bn254.G1Affine]
)

// BLS12381 is the curve the Marlin proofs and their public inputs live on.
var BLS12381 = sync.OnceValue(func() *BLS12381Curve {
	_, _, g1, _ := bls12381.Generators()
	return newCurve(curveParams[frbls.Element, bls12381.G1Affine, *frbls.Element, *bls12381.G1Affine]{
		id:         ecc.BLS12_381,
		scalarMod:  frbls.Modulus(),
		baseMod:    fpbls.Modulus(),
		generator:  g1,
		twoAdicity: twoAdicityBLS12381,
		coordinates: func(p *bls12381.G1Affine) (x, y big.Int) {
			p.X.BigInt(&x)
			p.Y.BigInt(&y)
			return
		},
		hashToPoint: bls12381.HashToG1,
		polys: PolyBackend[frbls.Element]{
			Eval: func(p []frbls.Element, x frbls.Element) frbls.Element {
				pp := polybls.Polynomial(p)
				return pp.Eval(&x)
			},
			Add: func(a, b []frbls.Element) []frbls.Element {
				var res polybls.Polynomial
				return *res.Add(a, b)
			},
			Scale: func(p []frbls.Element, s frbls.Element) []frbls.Element {
				var res polybls.Polynomial
				res.Scale(&s, p)
				return res
			},
			MulPointwise: func(a, b []frbls.Element) []frbls.Element {
				res := make(frbls.Vector, len(a))
				res.Mul(a, b)
				return res
			},
			InnerProduct: func(a, b []frbls.Element) frbls.Element {
				va := frbls.Vector(a)
				return va.InnerProduct(b)
			},
			BatchInvert: frbls.BatchInvert,
		},
		permutation: sync.OnceValue(func() Permutation[frbls.Element] {
			return poseidonbls.NewPermutationWithSeed(SPONGE_WIDTH, SPONGE_ROUND_FULL, SPONGE_ROUND_PARTIAL, SPONGE_SEED)
		}),
		newDomain: func(n uint64) *Domain[frbls.Element, *frbls.Element] {
			d := fftbls.NewDomain(n)
			return &Domain[frbls.Element, *frbls.Element]{
				Size:         d.Cardinality,
				LogSize:      bits.TrailingZeros64(d.Cardinality),
				Generator:    d.Generator,
				GeneratorInv: d.GeneratorInv,
				SizeInv:      d.CardinalityInv,
				fft: func(a []frbls.Element) {
					d.FFT(a, fftbls.DIF)
					fftbls.BitReverse(a)
				},
				ifft: func(a []frbls.Element) {
					d.FFTInverse(a, fftbls.DIF)
					fftbls.BitReverse(a)
				},
			}
		},
	})
})

// BN254 is the other curve of the pair; accumulators of the previous
// recursion step live on it.
var BN254 = sync.OnceValue(func() *BN254Curve {
	_, _, g1, _ := bn254.Generators()
	return newCurve(curveParams[frbn.Element, bn254.G1Affine, *frbn.Element, *bn254.G1Affine]{
		id:         ecc.BN254,
		scalarMod:  frbn.Modulus(),
		baseMod:    fpbn.Modulus(),
		generator:  g1,
		twoAdicity: twoAdicityBN254,
		coordinates: func(p *bn254.G1Affine) (x, y big.Int) {
			p.X.BigInt(&x)
			p.Y.BigInt(&y)
			return
		},
		hashToPoint: bn254.HashToG1,
		polys: PolyBackend[frbn.Element]{
			Eval: func(p []frbn.Element, x frbn.Element) frbn.Element {
				pp := polybn.Polynomial(p)
				return pp.Eval(&x)
			},
			Add: func(a, b []frbn.Element) []frbn.Element {
				var res polybn.Polynomial
				return *res.Add(a, b)
			},
			Scale: func(p []frbn.Element, s frbn.Element) []frbn.Element {
				var res polybn.Polynomial
				res.Scale(&s, p)
				return res
			},
			MulPointwise: func(a, b []frbn.Element) []frbn.Element {
				res := make(frbn.Vector, len(a))
				res.Mul(a, b)
				return res
			},
			InnerProduct: func(a, b []frbn.Element) frbn.Element {
				va := frbn.Vector(a)
				return va.InnerProduct(b)
			},
			BatchInvert: frbn.BatchInvert,
		},
		permutation: sync.OnceValue(func() Permutation[frbn.Element] {
			return poseidonbn.NewPermutationWithSeed(SPONGE_WIDTH, SPONGE_ROUND_FULL, SPONGE_ROUND_PARTIAL, SPONGE_SEED)
		}),
		newDomain: func(n uint64) *Domain[frbn.Element, *frbn.Element] {
			d := fftbn.NewDomain(n)
			return &Domain[frbn.Element, *frbn.Element]{
				Size:         d.Cardinality,
				LogSize:      bits.TrailingZeros64(d.Cardinality),
				Generator:    d.Generator,
				GeneratorInv: d.GeneratorInv,
				SizeInv:      d.CardinalityInv,
				fft: func(a []frbn.Element) {
					d.FFT(a, fftbn.DIF)
					fftbn.BitReverse(a)
				},
				ifft: func(a []frbn.Element) {
					d.FFTInverse(a, fftbn.DIF)
					fftbn.BitReverse(a)
				},
			}
		},
	})
})
