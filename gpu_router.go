package darlin

import (
	"sync"

	"github.com/eon-protocol/darlin/dlog"
	"github.com/eon-protocol/darlin/gpu"
)

// deviceBases caches committer keys uploaded to the GPU, keyed by ck.Hash.
var deviceBases sync.Map

// checkOptionsG1 routes the G1 hard part to the GPU when the config asks for
// it and the binary was built with the icicle tag. A failing device falls
// back to the CPU.
func (me *BatchVerifier) checkOptionsG1(ck *CommitterKeyG1) []dlog.CheckOption[FrG1, G1] {
	opts := []dlog.CheckOption[FrG1, G1]{dlog.WithNbTasks[FrG1, G1](me.cfg.HardPart.NbTasks)}
	if me.cfg.HardPart.Accelerator != "icicle" || !gpu.HasIcicle {
		return opts
	}
	msm := func(bases []G1, scalars []FrG1) (G1, error) {
		db, err := loadDeviceBases(ck)
		if err == nil {
			var res G1
			if res, err = db.MultiExp(scalars); err == nil {
				return res, nil
			}
		}
		me.log.Warn().Err(err).Msg("[GPU failed -> CPU] hard part")
		return CurveG1().MultiExp(bases, scalars, me.cfg.HardPart.NbTasks)
	}
	return append(opts, dlog.WithMultiExp[FrG1, G1](msm))
}

func loadDeviceBases(ck *CommitterKeyG1) (*gpu.DeviceBases, error) {
	if db, ok := deviceBases.Load(ck.Hash); ok {
		return db.(*gpu.DeviceBases), nil
	}
	db, err := gpu.NewDeviceBases(ck.G)
	if err != nil {
		return nil, err
	}
	if prev, loaded := deviceBases.LoadOrStore(ck.Hash, db); loaded {
		db.Free()
		return prev.(*gpu.DeviceBases), nil
	}
	return db, nil
}
