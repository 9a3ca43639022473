// Package marlin implements the Marlin IOP (coboundary sumcheck variant)
// compiled with the dlog polynomial commitment: an indexer, an honest prover
// and the round-by-round verifier state machine.
package marlin

import (
	"errors"
	"fmt"

	"github.com/eon-protocol/darlin/algebra"
)

var ErrUnsatisfied = errors.New("constraint system is not satisfied")

// Entry is one non-zero coefficient of a sparse matrix.
type Entry[E any] struct {
	Row, Col int
	Value    E
}

// R1CS is a rank-one constraint system Az o Bz = Cz over the assignment
// z = (1, public inputs..., witness...).
type R1CS[E any] struct {
	// NumInputs counts the leading constant 1.
	NumInputs      int
	NumWitness     int
	NumConstraints int
	A, B, C        []Entry[E]
}

// IndexInfo holds the instance metrics the verifier sizes its domains with.
type IndexInfo struct {
	NumInputs      int
	NumWitness     int
	NumConstraints int
	// NumNonZero is the largest number of entries among A, B and C.
	NumNonZero int
}

func (me *R1CS[E]) Info() IndexInfo {
	return IndexInfo{
		NumInputs:      me.NumInputs,
		NumWitness:     me.NumWitness,
		NumConstraints: me.NumConstraints,
		NumNonZero:     max(len(me.A), len(me.B), len(me.C)),
	}
}

func (me *R1CS[E]) matrices() [3][]Entry[E] {
	return [3][]Entry[E]{me.A, me.B, me.C}
}

func (me *R1CS[E]) check() error {
	if me.NumInputs < 1 || me.NumWitness < 0 || me.NumConstraints < 1 {
		return fmt.Errorf("invalid constraint system shape (inputs=%d, witness=%d, constraints=%d)", me.NumInputs, me.NumWitness, me.NumConstraints)
	}
	nbVars := me.NumInputs + me.NumWitness
	for m, entries := range me.matrices() {
		for _, e := range entries {
			if e.Row < 0 || e.Row >= me.NumConstraints || e.Col < 0 || e.Col >= nbVars {
				return fmt.Errorf("matrix %c: entry (%d, %d) out of range", 'A'+m, e.Row, e.Col)
			}
		}
	}
	return nil
}

// mulVector returns M*z padded with zeros to n rows.
func mulVector[E any, PE algebra.Element[E]](entries []Entry[E], z []E, n int) []E {
	res := make([]E, n)
	var t E
	for _, e := range entries {
		PE(&t).Mul(&e.Value, &z[e.Col])
		PE(&res[e.Row]).Add(&res[e.Row], &t)
	}
	return res
}

// IsSatisfied checks the full assignment z against r.
func IsSatisfied[E any, PE algebra.Element[E]](r *R1CS[E], z []E) error {
	if len(z) != r.NumInputs+r.NumWitness {
		return fmt.Errorf("assignment has %d values, want %d", len(z), r.NumInputs+r.NumWitness)
	}
	if !PE(&z[0]).IsOne() {
		return fmt.Errorf("%w: first variable is not 1", ErrUnsatisfied)
	}
	az := mulVector[E, PE](r.A, z, r.NumConstraints)
	bz := mulVector[E, PE](r.B, z, r.NumConstraints)
	cz := mulVector[E, PE](r.C, z, r.NumConstraints)
	var t E
	for i := range az {
		PE(&t).Mul(&az[i], &bz[i])
		if !PE(&t).Equal(&cz[i]) {
			return fmt.Errorf("%w: constraint %d", ErrUnsatisfied, i)
		}
	}
	return nil
}
