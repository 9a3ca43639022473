package transcript

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	frbn "github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/test"

	"github.com/eon-protocol/darlin/algebra"
	"github.com/eon-protocol/darlin/errs"
)

func newTranscript(t *testing.T, seed string) *Transcript[fr.Element, *fr.Element] {
	tr, err := FromSeed[fr.Element](algebra.BLS12381().NewPermutation(), []byte(seed))
	if err != nil {
		t.Fatalf("from seed: %v", err)
	}
	return tr
}

func elements(vals ...uint64) []fr.Element {
	res := make([]fr.Element, len(vals))
	for i, v := range vals {
		res[i].SetUint64(v)
	}
	return res
}

func TestDeterminism(t *testing.T) {
	assert := test.NewAssert(t)

	run := func() []fr.Element {
		tr := newTranscript(t, "determinism")
		assert.NoError(tr.AbsorbElements(elements(1, 2, 3)...))
		a, err := tr.SqueezeMany(3)
		assert.NoError(err)
		assert.NoError(tr.Absorb(Bytes[fr.Element, *fr.Element]("more data")))
		b, err := tr.SqueezeMany(2)
		assert.NoError(err)
		return append(a, b...)
	}
	first, second := run(), run()
	for i := range first {
		assert.True(first[i].Equal(&second[i]), "output %d differs", i)
	}
	// consecutive outputs are distinct
	assert.False(first[0].Equal(&first[1]))
	assert.False(first[2].Equal(&first[3]))
}

func TestDomainSeparation(t *testing.T) {
	assert := test.NewAssert(t)

	ab := newTranscript(t, "order")
	assert.NoError(ab.AbsorbElements(elements(7, 9)...))
	x, err := ab.Squeeze()
	assert.NoError(err)

	ba := newTranscript(t, "order")
	assert.NoError(ba.AbsorbElements(elements(9, 7)...))
	y, err := ba.Squeeze()
	assert.NoError(err)
	assert.False(x.Equal(&y))

	// a partial block and the same block padded with zero differ
	short := newTranscript(t, "order")
	assert.NoError(short.AbsorbElements(elements(5)...))
	s, _ := short.Squeeze()
	padded := newTranscript(t, "order")
	assert.NoError(padded.AbsorbElements(elements(5, 0)...))
	p, _ := padded.Squeeze()
	assert.False(s.Equal(&p))

	// different seeds
	other := newTranscript(t, "order2")
	assert.NoError(other.AbsorbElements(elements(7, 9)...))
	z, _ := other.Squeeze()
	assert.False(x.Equal(&z))
}

func TestBadInitialization(t *testing.T) {
	assert := test.NewAssert(t)
	_, err := FromSeed[fr.Element](algebra.BLS12381().NewPermutation(), nil)
	assert.ErrorIs(err, errs.ErrBadFiatShamirInitialization)
	_, err = FromSeed[fr.Element](nil, []byte("seed"))
	assert.ErrorIs(err, errs.ErrBadFiatShamirInitialization)
}

type failing struct{}

func (failing) ToFieldElements() ([]fr.Element, error) {
	return nil, errs.ErrCheckFailed
}

func TestAbsorbAndSqueezeErrors(t *testing.T) {
	assert := test.NewAssert(t)
	tr := newTranscript(t, "errors")
	assert.ErrorIs(tr.Absorb(failing{}), errs.ErrAbsorption)
	_, err := tr.SqueezeMany(-1)
	assert.ErrorIs(err, errs.ErrSqueeze)
}

func TestCheckpoint(t *testing.T) {
	assert := test.NewAssert(t)
	tr := newTranscript(t, "checkpoint")
	assert.NoError(tr.AbsorbElements(elements(1, 2, 3)...))
	state := tr.GetState()

	a, err := tr.SqueezeMany(4)
	assert.NoError(err)

	assert.NoError(tr.SetState(state))
	b, err := tr.SqueezeMany(4)
	assert.NoError(err)
	for i := range a {
		assert.True(a[i].Equal(&b[i]))
	}

	// the checkpoint is not aliased by later absorptions
	assert.NoError(tr.SetState(state))
	assert.NoError(tr.AbsorbElements(elements(4)...))
	assert.Equal(1, len(state.Pending))
}

func TestChallengesCrossFields(t *testing.T) {
	assert := test.NewAssert(t)
	tr := newTranscript(t, "cross")
	chals, err := SqueezeMany128BitChallenges[frbn.Element](tr, 5)
	assert.NoError(err)
	assert.Equal(5, len(chals))
	for _, c := range chals {
		assert.True(algebra.FitsIn128(c))
	}

	native := newTranscript(t, "cross")
	raw, err := native.SqueezeMany(5)
	assert.NoError(err)
	for i := range raw {
		low := algebra.Low128(raw[i])
		var a, b = algebra.BigInt(low), algebra.BigInt(chals[i])
		assert.Equal(0, a.Cmp(b))
	}
}

func TestSeedBuilder(t *testing.T) {
	assert := test.NewAssert(t)
	a := NewSeedBuilder("proto").AddBytes([]byte("ab")).AddBytes([]byte("c")).Finalize()
	b := NewSeedBuilder("proto").AddBytes([]byte("a")).AddBytes([]byte("bc")).Finalize()
	assert.Equal(32, len(a))
	assert.NotEqual(a, b)
}
