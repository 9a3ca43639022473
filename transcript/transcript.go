// Package transcript implements the Fiat-Shamir transcript: a Poseidon2 duplex
// sponge over a native scalar field.
package transcript

import (
	"fmt"
	"math/big"

	"github.com/eon-protocol/darlin/algebra"
	"github.com/eon-protocol/darlin/errs"
)

const width = algebra.SPONGE_WIDTH
const rate = algebra.SPONGE_RATE

// Absorbable values know how to encode themselves as sponge elements.
type Absorbable[E any] interface {
	ToFieldElements() ([]E, error)
}

// Elements adapts a plain slice to Absorbable.
type Elements[E any] []E

func (me Elements[E]) ToFieldElements() ([]E, error) {
	return me, nil
}

// Bytes absorbs raw bytes through algebra.BytesToElements.
type Bytes[E any, PE algebra.Element[E]] []byte

func (me Bytes[E, PE]) ToFieldElements() ([]E, error) {
	return algebra.BytesToElements[E, PE](me), nil
}

// Transcript is a duplex sponge with rate 2 and capacity 1. Absorbed elements
// queue in pending until a full rate block is available; a squeeze flushes the
// partial block with a domain tag in the capacity lane.
//
// A Transcript is not safe for concurrent use: every challenge depends on
// everything absorbed before it.
type Transcript[E any, PE algebra.Element[E]] struct {
	perm    algebra.Permutation[E]
	state   [width]E
	pending []E
	// number of rate lanes of the current state already handed out by a squeeze;
	// rate means none is left.
	squeezed int
}

// State is a checkpoint of a Transcript.
type State[E any] struct {
	Lanes    [width]E
	Pending  []E
	Squeezed int
}

// FromSeed creates a transcript and absorbs seed into it. When the seed does
// not fill a whole number of rate blocks the sponge is flushed, so the
// returned transcript never carries a pending block.
func FromSeed[E any, PE algebra.Element[E]](perm algebra.Permutation[E], seed []byte) (*Transcript[E, PE], error) {
	if perm == nil {
		return nil, errs.New(errs.KindBadFiatShamirInitialization, "nil permutation")
	}
	if len(seed) == 0 {
		return nil, errs.New(errs.KindBadFiatShamirInitialization, "empty seed")
	}
	t := &Transcript[E, PE]{perm: perm, squeezed: rate}
	t.pending = algebra.BytesToElements[E, PE](seed)
	if err := t.absorbFullBlocks(); err != nil {
		return nil, errs.Wrap(errs.KindBadFiatShamirInitialization, err)
	}
	if len(t.pending) > 0 {
		if err := t.flush(); err != nil {
			return nil, errs.Wrap(errs.KindBadFiatShamirInitialization, err)
		}
		t.squeezed = rate
	}
	return t, nil
}

// Absorb appends the encodings of values to the sponge input.
func (me *Transcript[E, PE]) Absorb(values ...Absorbable[E]) error {
	for _, v := range values {
		elems, err := v.ToFieldElements()
		if err != nil {
			return errs.Wrap(errs.KindAbsorption, err)
		}
		me.pending = append(me.pending, elems...)
	}
	me.squeezed = rate
	if err := me.absorbFullBlocks(); err != nil {
		return errs.Wrap(errs.KindAbsorption, err)
	}
	return nil
}

func (me *Transcript[E, PE]) AbsorbElements(elems ...E) error {
	return me.Absorb(Elements[E](elems))
}

// SqueezeMany returns n sponge outputs.
func (me *Transcript[E, PE]) SqueezeMany(n int) ([]E, error) {
	if n < 0 {
		return nil, errs.New(errs.KindSqueeze, "cannot squeeze %d elements", n)
	}
	if len(me.pending) > 0 {
		if err := me.flush(); err != nil {
			return nil, errs.Wrap(errs.KindSqueeze, err)
		}
	}
	res := make([]E, n)
	for i := range res {
		if me.squeezed == rate {
			if err := me.permute(); err != nil {
				return nil, errs.Wrap(errs.KindSqueeze, err)
			}
		}
		res[i] = me.state[me.squeezed]
		me.squeezed++
	}
	return res, nil
}

func (me *Transcript[E, PE]) Squeeze() (E, error) {
	res, err := me.SqueezeMany(1)
	if err != nil {
		var zero E
		return zero, err
	}
	return res[0], nil
}

// SqueezeMany128BitChallenges squeezes n native elements and returns the low
// 128 bits of each as an element of the field T. T may differ from the sponge
// field; this is how challenges reach the scalar field of the other curve.
func SqueezeMany128BitChallenges[T any, PT algebra.Element[T], E any, PE algebra.Element[E]](tr *Transcript[E, PE], n int) ([]T, error) {
	out, err := tr.SqueezeMany(n)
	if err != nil {
		return nil, err
	}
	mask := new(big.Int).Lsh(big.NewInt(1), 128)
	mask.Sub(mask, big.NewInt(1))
	res := make([]T, n)
	for i := range out {
		var k big.Int
		PE(&out[i]).BigInt(&k)
		k.And(&k, mask)
		PT(&res[i]).SetBigInt(&k)
	}
	return res, nil
}

// Squeeze128BitChallenges is SqueezeMany128BitChallenges with T the sponge field.
func (me *Transcript[E, PE]) Squeeze128BitChallenges(n int) ([]E, error) {
	return SqueezeMany128BitChallenges[E, PE](me, n)
}

// GetState returns a deep copy of the sponge state.
func (me *Transcript[E, PE]) GetState() State[E] {
	return State[E]{
		Lanes:    me.state,
		Pending:  append([]E(nil), me.pending...),
		Squeezed: me.squeezed,
	}
}

// SetState restores a checkpoint taken with GetState.
func (me *Transcript[E, PE]) SetState(s State[E]) error {
	if s.Squeezed < 0 || s.Squeezed > rate || len(s.Pending) >= rate {
		return fmt.Errorf("invalid transcript state (squeezed=%d, pending=%d)", s.Squeezed, len(s.Pending))
	}
	me.state = s.Lanes
	me.pending = append(me.pending[:0], s.Pending...)
	me.squeezed = s.Squeezed
	return nil
}

func (me *Transcript[E, PE]) absorbFullBlocks() error {
	for len(me.pending) >= rate {
		for i := 0; i < rate; i++ {
			PE(&me.state[i]).Add(&me.state[i], &me.pending[i])
		}
		me.pending = me.pending[rate:]
		if err := me.permute(); err != nil {
			return err
		}
	}
	if len(me.pending) == 0 {
		me.pending = nil
	}
	return nil
}

// flush absorbs a partial block. The capacity lane gets +1 so that a padded
// block can never collide with a full one.
func (me *Transcript[E, PE]) flush() error {
	for i := range me.pending {
		PE(&me.state[i]).Add(&me.state[i], &me.pending[i])
	}
	one := algebra.One[E, PE]()
	PE(&me.state[width-1]).Add(&me.state[width-1], &one)
	me.pending = nil
	return me.permute()
}

func (me *Transcript[E, PE]) permute() error {
	if err := me.perm.Permutation(me.state[:]); err != nil {
		return err
	}
	me.squeezed = 0
	return nil
}
