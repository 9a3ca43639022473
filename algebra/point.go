package algebra

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
)

// Point is the method set shared by gnark-crypto affine G1 points whose
// scalars are of type E.
type Point[P, E any] interface {
	*P
	Set(*P) *P
	Add(*P, *P) *P
	Neg(*P) *P
	ScalarMultiplication(*P, *big.Int) *P
	MultiExp([]P, []E, ecc.MultiExpConfig) (*P, error)
	Equal(*P) bool
	IsInfinity() bool
	IsOnCurve() bool
	IsInSubGroup() bool
	Marshal() []byte
	Unmarshal([]byte) error
}

func AddPoints[P, E any, PP Point[P, E]](a, b P) P {
	var r P
	PP(&r).Add(&a, &b)
	return r
}

func NegPoint[P, E any, PP Point[P, E]](a P) P {
	var r P
	PP(&r).Neg(&a)
	return r
}

func ScalarMul[P, E any, PP Point[P, E], PE Element[E]](p P, s E) P {
	var k big.Int
	PE(&s).BigInt(&k)
	var r P
	PP(&r).ScalarMultiplication(&p, &k)
	return r
}

// MultiExp computes sum_i scalars[i]*bases[i] on the CPU. nbTasks = 0 lets
// gnark-crypto pick the parallelism.
func MultiExp[P, E any, PP Point[P, E]](bases []P, scalars []E, nbTasks int) (P, error) {
	var r P
	if len(bases) == 0 {
		return r, nil
	}
	_, err := PP(&r).MultiExp(bases, scalars, ecc.MultiExpConfig{NbTasks: nbTasks})
	return r, err
}

func EqualPoints[P, E any, PP Point[P, E]](a, b P) bool {
	return PP(&a).Equal(&b)
}
