package darlin

import (
	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	frbls "github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254"
	frbn "github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/eon-protocol/darlin/algebra"
	"github.com/eon-protocol/darlin/dlog"
	"github.com/eon-protocol/darlin/marlin"
)

// Default committer key sizes: the maximum number of coefficients of a
// committed polynomial on each curve.
const CK_SIZE_G1 = 1 << 16
const CK_SIZE_G2 = 1 << 16

const CK_SEED_G1 = "DARLIN_DLOG_COMMITTER_KEY_G1"
const CK_SEED_G2 = "DARLIN_DLOG_COMMITTER_KEY_G2"

// DATA_CACHE_DIR is where committer keys are cached between runs.
var DATA_CACHE_DIR = ".darlin"

// PACKING_CAPACITY is the number of bits packed into one element of the
// BLS12-381 scalar field when deferred challenges are serialized.
const PACKING_CAPACITY = frbls.Bits - 1

// Types of the "this" curve (G1, BLS12-381) and of the "other" curve (G2,
// BN254) of the recursion pair.
type (
	FrG1 = frbls.Element
	G1   = bls12381.G1Affine
	FrG2 = frbn.Element
	G2   = bn254.G1Affine

	ItemG1         = dlog.Item[FrG1, G1]
	ItemG2         = dlog.Item[FrG2, G2]
	CommitterKeyG1 = dlog.CommitterKey[G1]
	CommitterKeyG2 = dlog.CommitterKey[G2]
	MarlinProof    = marlin.Proof[FrG1, G1]
	IndexKey       = marlin.VerifierKey[G1]
)

var (
	CurveG1 = algebra.BLS12381
	CurveG2 = algebra.BN254
)
