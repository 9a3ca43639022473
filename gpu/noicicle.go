//go:build !icicle

package gpu

import (
	"errors"

	curve "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

const HasIcicle = false

var errNoIcicle = errors.New("icicle requested but program compiled without 'icicle' build tag")

type DeviceBases struct{}

func NewDeviceBases(_ []curve.G1Affine) (*DeviceBases, error) {
	return nil, errNoIcicle
}

func (me *DeviceBases) MultiExp(_ []fr.Element) (curve.G1Affine, error) {
	return curve.G1Affine{}, errNoIcicle
}

func (me *DeviceBases) Free() {}
