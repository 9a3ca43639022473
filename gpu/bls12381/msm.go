//go:build icicle

package bls12_381_gpu

import (
	curve "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fp"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	icicle_core "github.com/ingonyama-zk/icicle-gnark/v3/wrappers/golang/core"
	icicle_bls12_381 "github.com/ingonyama-zk/icicle-gnark/v3/wrappers/golang/curves/bls12381"
	icicle_msm "github.com/ingonyama-zk/icicle-gnark/v3/wrappers/golang/curves/bls12381/msm"
	icicle_runtime "github.com/ingonyama-zk/icicle-gnark/v3/wrappers/golang/runtime"
)

func blsProjectiveToGnarkAffine(p icicle_bls12_381.Projective) curve.G1Affine {
	bx := p.X.ToBytesLittleEndian()
	by := p.Y.ToBytesLittleEndian()
	bz := p.Z.ToBytesLittleEndian()

	var ax, ay, az fp.Element
	ax, _ = fp.LittleEndian.Element((*[fp.Bytes]byte)(bx))
	ay, _ = fp.LittleEndian.Element((*[fp.Bytes]byte)(by))
	az, _ = fp.LittleEndian.Element((*[fp.Bytes]byte)(bz))
	if az.IsZero() {
		return curve.G1Affine{}
	}

	var zInv fp.Element
	zInv.Inverse(&az)
	ax.Mul(&ax, &zInv)
	ay.Mul(&ay, &zInv)

	return curve.G1Affine{X: ax, Y: ay}
}

// CopyBasesToDevice uploads bases and converts them out of Montgomery form
// on the device.
func CopyBasesToDevice(bases []curve.G1Affine) (icicle_core.DeviceSlice, icicle_runtime.EIcicleError) {
	var dev icicle_core.DeviceSlice
	host := icicle_core.HostSlice[curve.G1Affine](bases)
	host.CopyToDevice(&dev, true)
	if st := icicle_bls12_381.AffineFromMontgomery(dev); st != icicle_runtime.Success {
		_ = dev.Free()
		return dev, st
	}
	return dev, icicle_runtime.Success
}

// OnDeviceMultiExp computes sum scalars[i]·bases[i] with bases already on
// the device. Scalars are in Montgomery form, as gnark-crypto keeps them.
func OnDeviceMultiExp(scalars []fr.Element, bases icicle_core.DeviceSlice) (curve.G1Affine, icicle_runtime.EIcicleError) {
	host := icicle_core.HostSliceFromElements(scalars)

	var scalarsDev icicle_core.DeviceSlice
	host.CopyToDevice(&scalarsDev, true)
	defer scalarsDev.Free()

	cfg := icicle_msm.GetDefaultMSMConfig()
	cfg.AreScalarsMontgomeryForm = true
	cfg.AreBasesMontgomeryForm = false

	out := make(icicle_core.HostSlice[icicle_bls12_381.Projective], 1)
	if st := icicle_msm.Msm(scalarsDev, bases.RangeTo(len(scalars), false), &cfg, out); st != icicle_runtime.Success {
		return curve.G1Affine{}, st
	}
	return blsProjectiveToGnarkAffine(out[0]), icicle_runtime.Success
}
