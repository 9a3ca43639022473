package sponge

import (
	"errors"
	"math/big"

	poseidonbls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381/fr/poseidon2"
	"github.com/consensys/gnark/frontend"

	"github.com/eon-protocol/darlin/algebra"
)

var ErrInvalidSizebuffer = errors.New("the size of the input should match the width of the permutation")

// Permutation is the in-circuit Poseidon2 permutation, with the same
// parameters as the native transcript permutation.
type Permutation struct {
	api    frontend.API
	params parameters
}

type parameters struct {
	width           int
	degreeSBox      int
	nbFullRounds    int
	nbPartialRounds int
	// [round][lane]; partial rounds only carry the key of lane 0.
	roundKeys [][]big.Int
}

func NewPermutation(api frontend.API) *Permutation {
	params := parameters{
		width:           algebra.SPONGE_WIDTH,
		degreeSBox:      poseidonbls12381.DegreeSBox(),
		nbFullRounds:    algebra.SPONGE_ROUND_FULL,
		nbPartialRounds: algebra.SPONGE_ROUND_PARTIAL,
	}
	concrete := poseidonbls12381.NewParametersWithSeed(params.width, params.nbFullRounds, params.nbPartialRounds, algebra.SPONGE_SEED)
	params.roundKeys = make([][]big.Int, len(concrete.RoundKeys))
	for i := range params.roundKeys {
		params.roundKeys[i] = make([]big.Int, len(concrete.RoundKeys[i]))
		for j := range params.roundKeys[i] {
			concrete.RoundKeys[i][j].BigInt(&params.roundKeys[i][j])
		}
	}
	return &Permutation{api: api, params: params}
}

func (h *Permutation) sBox(index int, input []frontend.Variable) {
	tmp := input[index]
	switch h.params.degreeSBox {
	case 3:
		input[index] = h.api.Mul(input[index], input[index])
		input[index] = h.api.Mul(tmp, input[index])
	case 5:
		input[index] = h.api.Mul(input[index], input[index])
		input[index] = h.api.Mul(input[index], input[index])
		input[index] = h.api.Mul(input[index], tmp)
	case 7:
		input[index] = h.api.Mul(input[index], input[index])
		input[index] = h.api.Mul(input[index], tmp)
		input[index] = h.api.Mul(input[index], input[index])
		input[index] = h.api.Mul(input[index], tmp)
	default:
		panic("unsupported sBox degree")
	}
}

// matMulExternalInPlace is circ(2, 1, 1) for width 3.
func (h *Permutation) matMulExternalInPlace(input []frontend.Variable) {
	sum := h.api.Add(input[0], input[1], input[2])
	for i := range input {
		input[i] = h.api.Add(input[i], sum)
	}
}

// matMulInternalInPlace is diag(1, 1, 2) + J for width 3, as in gnark-crypto.
func (h *Permutation) matMulInternalInPlace(input []frontend.Variable) {
	sum := h.api.Add(input[0], input[1], input[2])
	input[0] = h.api.Add(input[0], sum)
	input[1] = h.api.Add(input[1], sum)
	input[2] = h.api.Add(h.api.Mul(input[2], 2), sum)
}

func (h *Permutation) addRoundKeyInPlace(round int, input []frontend.Variable) {
	for i := range h.params.roundKeys[round] {
		input[i] = h.api.Add(input[i], h.params.roundKeys[round][i])
	}
}

// Permutation applies the Poseidon2 permutation in place.
func (h *Permutation) Permutation(input []frontend.Variable) error {
	if len(input) != h.params.width {
		return ErrInvalidSizebuffer
	}

	h.matMulExternalInPlace(input)

	rf := h.params.nbFullRounds / 2
	for i := 0; i < rf; i++ {
		h.addRoundKeyInPlace(i, input)
		for j := 0; j < h.params.width; j++ {
			h.sBox(j, input)
		}
		h.matMulExternalInPlace(input)
	}
	for i := rf; i < rf+h.params.nbPartialRounds; i++ {
		h.addRoundKeyInPlace(i, input)
		h.sBox(0, input)
		h.matMulInternalInPlace(input)
	}
	for i := rf + h.params.nbPartialRounds; i < h.params.nbFullRounds+h.params.nbPartialRounds; i++ {
		h.addRoundKeyInPlace(i, input)
		for j := 0; j < h.params.width; j++ {
			h.sBox(j, input)
		}
		h.matMulExternalInPlace(input)
	}
	return nil
}
