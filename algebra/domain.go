package algebra

import (
	"errors"
	"fmt"
	"math/big"
	"math/bits"
)

var ErrDomainTooLarge = errors.New("evaluation domain too large for the scalar field")

// Domain is a multiplicative subgroup of order Size (a power of two).
type Domain[E any, PE Element[E]] struct {
	Size         uint64
	LogSize      int
	Generator    E
	GeneratorInv E
	SizeInv      E
	// Poly is the polynomial arithmetic of the field the domain lives in.
	Poly *Polynomials[E, PE]

	fft  func([]E)
	ifft func([]E)
}

// Element returns Generator^i.
func (me *Domain[E, PE]) Element(i uint64) E {
	return ExpUint64[E, PE](me.Generator, i%me.Size)
}

// Elements returns the subgroup in generator order.
func (me *Domain[E, PE]) Elements() []E {
	return Powers[E, PE](me.Generator, int(me.Size))
}

// VanishingAt evaluates X^Size - 1 at x.
func (me *Domain[E, PE]) VanishingAt(x E) E {
	one := One[E, PE]()
	return Sub[E, PE](ExpUint64[E, PE](x, me.Size), one)
}

// Evaluate returns the evaluations over the domain, in generator order, of the
// polynomial with the given coefficients.
func (me *Domain[E, PE]) Evaluate(coeffs []E) ([]E, error) {
	if uint64(len(coeffs)) > me.Size {
		return nil, fmt.Errorf("polynomial of %d coefficients does not fit a domain of size %d", len(coeffs), me.Size)
	}
	res := make([]E, me.Size)
	copy(res, coeffs)
	me.fft(res)
	return res, nil
}

// Interpolate returns the coefficients of the unique polynomial of degree
// below Size taking the given values over the domain.
func (me *Domain[E, PE]) Interpolate(evals []E) ([]E, error) {
	if uint64(len(evals)) != me.Size {
		return nil, fmt.Errorf("got %d evaluations for a domain of size %d", len(evals), me.Size)
	}
	res := make([]E, me.Size)
	copy(res, evals)
	me.ifft(res)
	return res, nil
}

// domainSize returns the smallest power of two >= n, or an error when the
// field has no subgroup of that order.
func domainSize(n uint64, twoAdicity int) (uint64, int, error) {
	if n <= 1 {
		return 1, 0, nil
	}
	log := bits.Len64(n - 1)
	if log > twoAdicity {
		return 0, 0, fmt.Errorf("%w: requested %d, max 2^%d", ErrDomainTooLarge, n, twoAdicity)
	}
	return 1 << log, log, nil
}

// Decompose splits v as q*modulus + m and returns (q, m) as field elements.
func Decompose[E any, PE Element[E]](v, modulus *big.Int) (q, m E) {
	var bq, bm big.Int
	bq.DivMod(v, modulus, &bm)
	PE(&q).SetBigInt(&bq)
	PE(&m).SetBigInt(&bm)
	return
}
