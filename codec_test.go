package darlin

import (
	"bytes"
	"os"
	"testing"

	"github.com/consensys/gnark/test"

	"github.com/eon-protocol/darlin/errs"
)

func TestPCDCodec(t *testing.T) {
	assert := test.NewAssert(t)
	k := getKeys(t)

	final := proveFinal(t, k, 8, randomDeferred(t, k, 9))
	var buf bytes.Buffer
	n, err := final.WriteTo(&buf)
	assert.NoError(err)
	assert.Equal(int64(buf.Len()), n)

	var read FinalDarlinPCD
	m, err := read.ReadFrom(&buf)
	assert.NoError(err)
	assert.Equal(n, m)
	assert.Equal(final.Proof, read.Proof)
	assert.Equal(final.Deferred, read.Deferred)
	ok, err := Verify(&read, k.finalVk())
	assert.NoError(err)
	assert.True(ok)

	simple := proveSimple(t, k, 2)
	buf.Reset()
	_, err = simple.WriteTo(&buf)
	assert.NoError(err)
	var readSimple SimpleMarlinPCD
	_, err = readSimple.ReadFrom(&buf)
	assert.NoError(err)
	assert.Equal(simple.UsrIns, readSimple.UsrIns)
	ok, err = Verify(&readSimple, k.simpleVk())
	assert.NoError(err)
	assert.True(ok)

	t.Run("truncated", func(t *testing.T) {
		assert := test.NewAssert(t)
		buf.Reset()
		_, err := final.WriteTo(&buf)
		assert.NoError(err)
		var read FinalDarlinPCD
		_, err = read.ReadFrom(bytes.NewReader(buf.Bytes()[:buf.Len()-1]))
		assert.ErrorIs(err, errs.ErrOther)
	})
}

func TestIndexKeyCodec(t *testing.T) {
	assert := test.NewAssert(t)
	k := getKeys(t)

	var buf bytes.Buffer
	_, err := WriteIndexKey(&buf, k.final.VerifierKey)
	assert.NoError(err)
	vk, _, err := ReadIndexKey(&buf)
	assert.NoError(err)
	assert.Equal(k.final.VerifierKey, vk)
}

func TestCommitterKeyCodec(t *testing.T) {
	assert := test.NewAssert(t)
	k := getKeys(t)

	var buf bytes.Buffer
	_, err := WriteCommitterKeyG1(&buf, k.ckG1)
	assert.NoError(err)
	ck1, _, err := ReadCommitterKeyG1(&buf)
	assert.NoError(err)
	assert.Equal(k.ckG1, ck1)

	buf.Reset()
	_, err = WriteCommitterKeyG2(&buf, k.ckG2)
	assert.NoError(err)
	ck2, _, err := ReadCommitterKeyG2(&buf)
	assert.NoError(err)
	assert.Equal(k.ckG2, ck2)

	t.Run("invalid size", func(t *testing.T) {
		assert := test.NewAssert(t)
		var buf bytes.Buffer
		_, err := WriteCommitterKeyG1(&buf, &CommitterKeyG1{G: k.ckG1.G[:96], H: k.ckG1.H})
		assert.NoError(err)
		_, _, err = ReadCommitterKeyG1(&buf)
		assert.ErrorIs(err, errs.ErrOther)

		buf.Reset()
		_, err = WriteCommitterKeyG2(&buf, &CommitterKeyG2{G: []G2{}, H: k.ckG2.H})
		assert.NoError(err)
		_, _, err = ReadCommitterKeyG2(&buf)
		assert.ErrorIs(err, errs.ErrOther)
	})
}

func TestLoadCommitterKeys(t *testing.T) {
	assert := test.NewAssert(t)

	cfg := newDefaultCommitterKeyConfig()
	cfg.Dir = t.TempDir()
	cfg.SizeG1, cfg.SizeG2 = 16, 8

	ck1, ck2, err := LoadCommitterKeys(cfg)
	assert.NoError(err)
	assert.Equal(16, ck1.Size())
	assert.Equal(8, ck2.Size())
	_, err = os.Stat(CommitterKeyPath(cfg.Dir, "G1", 16))
	assert.NoError(err)

	cached1, cached2, err := LoadCommitterKeys(cfg)
	assert.NoError(err)
	assert.Equal(ck1.Hash, cached1.Hash)
	assert.Equal(ck2.Hash, cached2.Hash)

	// a missing file is regenerated
	assert.NoError(os.Remove(CommitterKeyPath(cfg.Dir, "G2", 8)))
	_, regenerated2, err := LoadCommitterKeys(cfg)
	assert.NoError(err)
	assert.Equal(ck2.Hash, regenerated2.Hash)

	// so is a cached key that does not derive from its seed
	f, err := os.Create(CommitterKeyPath(cfg.Dir, "G1", 16))
	assert.NoError(err)
	_, err = WriteCommitterKeyG1(f, swapEnds(ck1))
	assert.NoError(err)
	assert.NoError(f.Close())

	regenerated, _, err := LoadCommitterKeys(cfg)
	assert.NoError(err)
	assert.Equal(ck1.Hash, regenerated.Hash)

	_, _, err = LoadCommitterKeys(&CommitterKeyConfig{Dir: cfg.Dir, SizeG1: 12, SizeG2: 8})
	assert.Error(err)
}

// swapEnds swaps the first and last generators.
func swapEnds(ck *CommitterKeyG1) *CommitterKeyG1 {
	res := &CommitterKeyG1{G: append([]G1(nil), ck.G...), H: ck.H}
	res.G[0], res.G[len(res.G)-1] = res.G[len(res.G)-1], res.G[0]
	return res
}
