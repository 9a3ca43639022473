package darlin

import (
	"testing"

	"github.com/consensys/gnark/test"

	"github.com/eon-protocol/darlin/algebra"
	"github.com/eon-protocol/darlin/errs"
)

func TestNbDeferredElements(t *testing.T) {
	assert := test.NewAssert(t)
	assert.Equal(254, PACKING_CAPACITY)
	assert.Equal(6, NbDeferredElements(0, 0))
	// 12 challenges of 128 bits fill 7 packed elements
	assert.Equal(13, NbDeferredElements(5, 7))
	assert.Equal(7, NbDeferredElements(1, 0))
}

func TestDeferredToFieldElements(t *testing.T) {
	assert := test.NewAssert(t)
	k := getKeys(t)

	d := randomDeferred(t, k, 1)
	assert.NoError(d.Validate(k.ckG1, k.ckG2))
	elems, err := d.ToFieldElements()
	assert.NoError(err)
	assert.Equal(NbDeferredElements(k.ckG2.LogSize(), k.ckG1.LogSize()), len(elems))

	x, y := CurveG2().Coordinates(d.PreviousAcc.G)
	assert.Equal(0, algebra.BigInt(elems[0]).Cmp(&x))
	assert.Equal(0, algebra.BigInt(elems[1]).Cmp(&y))
	assert.Equal(CurveG1().PointElements(d.PrePreviousAcc.G), elems[2:6])

	again, err := d.ToFieldElements()
	assert.NoError(err)
	assert.Equal(elems, again)

	t.Run("wide challenge", func(t *testing.T) {
		assert := test.NewAssert(t)
		bad := *d
		bad.PrePreviousAcc = cloneItem(&d.PrePreviousAcc)
		bad.PrePreviousAcc.CheckPoly.Xi[2] = algebra.Neg(algebra.One[FrG1]())
		_, err := bad.ToFieldElements()
		assert.ErrorIs(err, errs.ErrOther)
		assert.False(bad.IsValid(k.ckG1, k.ckG2))
	})
}
