package algebra

import (
	"fmt"
	"math/big"
)

// chunk size used when turning bytes into field elements; 31 bytes always
// fit below a 254-bit modulus.
const bytesPerElement = 31

// ToBitsMSB returns the nbits low bits of x, most significant first.
func ToBitsMSB[E any, PE Element[E]](x E, nbits int) []bool {
	var k big.Int
	PE(&x).BigInt(&k)
	res := make([]bool, nbits)
	for i := 0; i < nbits; i++ {
		res[i] = k.Bit(nbits-1-i) == 1
	}
	return res
}

// PackBits packs a bit string into field elements, capacity bits per element
// (the last one possibly shorter), each chunk read most significant bit
// first. capacity must be below the modulus bit size for the packing to be
// injective.
func PackBits[E any, PE Element[E]](bits []bool, capacity int) []E {
	if capacity <= 0 {
		panic(fmt.Sprintf("invalid packing capacity %d", capacity))
	}
	res := make([]E, 0, (len(bits)+capacity-1)/capacity)
	for start := 0; start < len(bits); start += capacity {
		end := min(start+capacity, len(bits))
		var k big.Int
		for _, b := range bits[start:end] {
			k.Lsh(&k, 1)
			if b {
				k.SetBit(&k, 0, 1)
			}
		}
		res = append(res, FromBigInt[E, PE](&k))
	}
	return res
}

// BytesToElements encodes b as its length followed by 31-byte big-endian
// chunks.
func BytesToElements[E any, PE Element[E]](b []byte) []E {
	res := make([]E, 0, 1+(len(b)+bytesPerElement-1)/bytesPerElement)
	res = append(res, FromUint64[E, PE](uint64(len(b))))
	for start := 0; start < len(b); start += bytesPerElement {
		end := min(start+bytesPerElement, len(b))
		var k big.Int
		k.SetBytes(b[start:end])
		res = append(res, FromBigInt[E, PE](&k))
	}
	return res
}

// Low128 keeps the low 128 bits of x.
func Low128[E any, PE Element[E]](x E) E {
	var k big.Int
	PE(&x).BigInt(&k)
	mask := new(big.Int).Lsh(big.NewInt(1), 128)
	mask.Sub(mask, big.NewInt(1))
	k.And(&k, mask)
	return FromBigInt[E, PE](&k)
}

// FitsIn128 reports whether x < 2^128.
func FitsIn128[E any, PE Element[E]](x E) bool {
	var k big.Int
	PE(&x).BigInt(&k)
	return k.BitLen() <= 128
}
