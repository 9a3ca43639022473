// Package sponge provides the in-circuit twin of the BLS12-381 transcript,
// the building block of a recursive verifier. For the same seed and inputs it
// squeezes the same values as transcript.Transcript.
package sponge

import (
	"math/big"

	frbls "github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark/frontend"

	"github.com/eon-protocol/darlin/algebra"
	"github.com/eon-protocol/darlin/transcript"
)

const width = algebra.SPONGE_WIDTH
const rate = algebra.SPONGE_RATE

type Sponge struct {
	api      frontend.API
	perm     *Permutation
	state    [width]frontend.Variable
	pending  []frontend.Variable
	squeezed int
}

// NewSponge seeds a sponge. The seed is a circuit constant, so it is absorbed
// natively and only the resulting state enters the circuit.
func NewSponge(api frontend.API, seed []byte) (*Sponge, error) {
	tr, err := transcript.FromSeed[frbls.Element](algebra.BLS12381().NewPermutation(), seed)
	if err != nil {
		return nil, err
	}
	st := tr.GetState()
	s := &Sponge{api: api, perm: NewPermutation(api), squeezed: st.Squeezed}
	for i := range st.Lanes {
		s.state[i] = st.Lanes[i].BigInt(new(big.Int))
	}
	for i := range st.Pending {
		s.pending = append(s.pending, st.Pending[i].BigInt(new(big.Int)))
	}
	return s, nil
}

func (me *Sponge) Absorb(vars ...frontend.Variable) {
	me.pending = append(me.pending, vars...)
	me.squeezed = rate
	for len(me.pending) >= rate {
		for i := 0; i < rate; i++ {
			me.state[i] = me.api.Add(me.state[i], me.pending[i])
		}
		me.pending = me.pending[rate:]
		me.permute()
	}
}

// Squeeze returns n outputs. A partial pending block is padded with +1 in the
// capacity lane first.
func (me *Sponge) Squeeze(n int) []frontend.Variable {
	if len(me.pending) > 0 {
		for i := range me.pending {
			me.state[i] = me.api.Add(me.state[i], me.pending[i])
		}
		me.state[width-1] = me.api.Add(me.state[width-1], 1)
		me.pending = nil
		me.permute()
	}
	res := make([]frontend.Variable, n)
	for i := range res {
		if me.squeezed == rate {
			me.permute()
		}
		res[i] = me.state[me.squeezed]
		me.squeezed++
	}
	return res
}

func (me *Sponge) permute() {
	// the state always has the permutation width
	_ = me.perm.Permutation(me.state[:])
	me.squeezed = 0
}
