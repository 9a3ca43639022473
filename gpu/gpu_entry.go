//go:build icicle

package gpu

import (
	"errors"
	"fmt"
	"sync"

	curve "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"

	msm "github.com/eon-protocol/darlin/gpu/bls12381"

	icicle_core "github.com/ingonyama-zk/icicle-gnark/v3/wrappers/golang/core"
	icicle_runtime "github.com/ingonyama-zk/icicle-gnark/v3/wrappers/golang/runtime"
)

const HasIcicle = true

var loadBackend = sync.OnceValue(func() error {
	if st := icicle_runtime.LoadBackendFromEnvOrDefault(); st != icicle_runtime.Success {
		return fmt.Errorf("icicle backend: %s", st.AsString())
	}
	return nil
})

// DeviceBases is a committer key resident on the GPU.
type DeviceBases struct {
	device icicle_runtime.Device
	bases  icicle_core.DeviceSlice
	size   int
}

// NewDeviceBases copies bases to the first CUDA device.
func NewDeviceBases(bases []curve.G1Affine) (*DeviceBases, error) {
	if err := loadBackend(); err != nil {
		return nil, err
	}
	db := &DeviceBases{device: icicle_runtime.CreateDevice("CUDA", 0), size: len(bases)}
	var copyErr error
	icicle_runtime.RunOnDevice(&db.device, func(args ...any) {
		var st icicle_runtime.EIcicleError
		if db.bases, st = msm.CopyBasesToDevice(bases); st != icicle_runtime.Success {
			copyErr = fmt.Errorf("copy bases: %s", st.AsString())
		}
	})
	if copyErr != nil {
		return nil, copyErr
	}
	return db, nil
}

// MultiExp computes sum scalars[i]·bases[i]; len(scalars) must not exceed the
// number of bases.
func (me *DeviceBases) MultiExp(scalars []fr.Element) (curve.G1Affine, error) {
	if len(scalars) > me.size {
		return curve.G1Affine{}, errors.New("more scalars than device bases")
	}
	var (
		res curve.G1Affine
		err error
	)
	icicle_runtime.RunOnDevice(&me.device, func(args ...any) {
		var st icicle_runtime.EIcicleError
		if res, st = msm.OnDeviceMultiExp(scalars, me.bases); st != icicle_runtime.Success {
			err = fmt.Errorf("msm: %s", st.AsString())
		}
	})
	return res, err
}

func (me *DeviceBases) Free() {
	icicle_runtime.RunOnDevice(&me.device, func(args ...any) {
		_ = me.bases.Free()
	})
}
