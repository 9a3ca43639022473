// Package algebra describes the field, group and evaluation-domain capabilities
// the verifier needs from gnark-crypto, and instantiates them for the two curves
// of the recursion pair.
package algebra

import (
	"math/big"
)

// Element is the method set shared by gnark-crypto scalar field elements
// (fr.Element of every curve), seen through its pointer type.
type Element[E any] interface {
	*E
	Set(*E) *E
	Add(*E, *E) *E
	Sub(*E, *E) *E
	Mul(*E, *E) *E
	Neg(*E) *E
	Double(*E) *E
	Square(*E) *E
	Inverse(*E) *E
	Exp(E, *big.Int) *E
	SetUint64(uint64) *E
	SetOne() *E
	SetZero() *E
	SetBigInt(*big.Int) *E
	BigInt(*big.Int) *big.Int
	SetRandom() (*E, error)
	IsZero() bool
	IsOne() bool
	Equal(*E) bool
	Marshal() []byte
	String() string
}

func Add[E any, PE Element[E]](a, b E) E {
	var r E
	PE(&r).Add(&a, &b)
	return r
}

func Sub[E any, PE Element[E]](a, b E) E {
	var r E
	PE(&r).Sub(&a, &b)
	return r
}

func Mul[E any, PE Element[E]](a, b E) E {
	var r E
	PE(&r).Mul(&a, &b)
	return r
}

func Neg[E any, PE Element[E]](a E) E {
	var r E
	PE(&r).Neg(&a)
	return r
}

func Square[E any, PE Element[E]](a E) E {
	var r E
	PE(&r).Square(&a)
	return r
}

// Inverse returns 1/a, and 0 for a = 0.
func Inverse[E any, PE Element[E]](a E) E {
	var r E
	PE(&r).Inverse(&a)
	return r
}

func ExpUint64[E any, PE Element[E]](a E, k uint64) E {
	var r E
	PE(&r).Exp(a, new(big.Int).SetUint64(k))
	return r
}

func FromUint64[E any, PE Element[E]](v uint64) E {
	var r E
	PE(&r).SetUint64(v)
	return r
}

func FromBigInt[E any, PE Element[E]](v *big.Int) E {
	var r E
	PE(&r).SetBigInt(v)
	return r
}

func BigInt[E any, PE Element[E]](a E) *big.Int {
	var b big.Int
	PE(&a).BigInt(&b)
	return &b
}

func One[E any, PE Element[E]]() E {
	var r E
	PE(&r).SetOne()
	return r
}

func IsZero[E any, PE Element[E]](a E) bool {
	return PE(&a).IsZero()
}

func Equal[E any, PE Element[E]](a, b E) bool {
	return PE(&a).Equal(&b)
}

// Powers returns 1, x, x^2, ..., x^(n-1).
func Powers[E any, PE Element[E]](x E, n int) []E {
	res := make([]E, n)
	if n == 0 {
		return res
	}
	PE(&res[0]).SetOne()
	for i := 1; i < n; i++ {
		PE(&res[i]).Mul(&res[i-1], &x)
	}
	return res
}
