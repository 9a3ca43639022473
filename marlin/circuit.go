package marlin

import "github.com/eon-protocol/darlin/algebra"

// CubicCircuit is the constraint system of x^3 + x + 5 = out. The public
// inputs are out followed by nbFree inputs the constraints do not use, which
// is how a circuit carries data it only binds into its statement.
//
// Variables: 1, out, free..., x, x^2, x^3.
func CubicCircuit[E any, PE algebra.Element[E]](nbFree int) *R1CS[E] {
	one := algebra.One[E, PE]()
	five := algebra.FromUint64[E, PE](5)
	in := 2 + nbFree
	x, x2, x3 := in, in+1, in+2
	return &R1CS[E]{
		NumInputs:      in,
		NumWitness:     3,
		NumConstraints: 3,
		A: []Entry[E]{
			{Row: 0, Col: x, Value: one},
			{Row: 1, Col: x2, Value: one},
			{Row: 2, Col: x3, Value: one},
			{Row: 2, Col: x, Value: one},
			{Row: 2, Col: 0, Value: five},
		},
		B: []Entry[E]{
			{Row: 0, Col: x, Value: one},
			{Row: 1, Col: x, Value: one},
			{Row: 2, Col: 0, Value: one},
		},
		C: []Entry[E]{
			{Row: 0, Col: x2, Value: one},
			{Row: 1, Col: x3, Value: one},
			{Row: 2, Col: 1, Value: one},
		},
	}
}

// CubicAssignment returns out and the witness of CubicCircuit for x.
func CubicAssignment[E any, PE algebra.Element[E]](x E) (out E, witness []E) {
	x2 := algebra.Square[E, PE](x)
	x3 := algebra.Mul[E, PE](x2, x)
	out = algebra.Add[E, PE](algebra.Add[E, PE](x3, x), algebra.FromUint64[E, PE](5))
	return out, []E{x, x2, x3}
}
