package transcript

import (
	"encoding/binary"
	"hash"

	"golang.org/x/crypto/blake2b"
)

// SeedBuilder derives a transcript seed from protocol-level public
// parameters. Every item is length-prefixed.
type SeedBuilder struct {
	h hash.Hash
}

func NewSeedBuilder(protocol string) *SeedBuilder {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(err)
	}
	b := &SeedBuilder{h: h}
	return b.AddBytes([]byte(protocol))
}

func (me *SeedBuilder) AddBytes(b []byte) *SeedBuilder {
	me.AddUint64(uint64(len(b)))
	me.h.Write(b)
	return me
}

func (me *SeedBuilder) AddUint64(v uint64) *SeedBuilder {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	me.h.Write(buf[:])
	return me
}

func (me *SeedBuilder) Finalize() []byte {
	return me.h.Sum(nil)
}
