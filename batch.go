package darlin

import (
	"context"
	"fmt"
	"time"

	"github.com/consensys/gnark/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/eon-protocol/darlin/dlog"
	"github.com/eon-protocol/darlin/errs"
)

// BatchVerifier verifies many PCDs with one hard part per curve.
type BatchVerifier struct {
	cfg     *Config
	metrics *Metrics
	log     zerolog.Logger
}

// NewBatchVerifier validates cfg and registers the verifier metrics on reg
// (which may be nil).
func NewBatchVerifier(cfg *Config, reg prometheus.Registerer) (*BatchVerifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	m := newMetrics()
	if reg != nil {
		var err error
		if m, err = NewMetrics(reg); err != nil {
			return nil, err
		}
	}
	return newBatchVerifier(cfg, m), nil
}

func newBatchVerifier(cfg *Config, m *Metrics) *BatchVerifier {
	return &BatchVerifier{
		cfg:     cfg,
		metrics: m,
		log:     logger.Logger().With().Str("accelerator", cfg.HardPart.Accelerator).Logger(),
	}
}

// Verify succinctly verifies pcds[i] against vks[i] on a bounded worker pool,
// then accumulates the items of each curve into one and runs at most two hard
// parts.
// It fails fast: the first failed proof fails the batch. The result is true
// iff every proof would pass Verify on its own.
//
// All verifier keys must share the same committer keys.
func (me *BatchVerifier) Verify(ctx context.Context, pcds []PCD, vks []*VerifierKey) (bool, error) {
	if len(pcds) != len(vks) {
		return false, errs.New(errs.KindOther, "%d proofs for %d verifier keys", len(pcds), len(vks))
	}
	if len(pcds) == 0 {
		return false, errs.New(errs.KindOther, "empty batch")
	}
	for i, vk := range vks {
		if pcds[i] == nil {
			return false, errs.New(errs.KindOther, "proof %d is nil", i)
		}
		if err := vk.check(); err != nil {
			return false, fmt.Errorf("verifier key %d: %w", i, err)
		}
		if vk.CommitterKeyG1.Hash != vks[0].CommitterKeyG1.Hash || vk.CommitterKeyG2.Hash != vks[0].CommitterKeyG2.Hash {
			return false, errs.Wrap(errs.KindOther, fmt.Errorf("verifier key %d: %w", i, errMismatchedKeys))
		}
	}
	start := time.Now()
	defer func() {
		me.metrics.BatchDuration.Observe(time.Since(start).Seconds())
	}()
	log := me.log.With().Int("nbProofs", len(pcds)).Logger()

	results := make([]*DualItem, len(pcds))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(me.cfg.workers())
	for i := range pcds {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			items, err := pcds[i].SuccinctVerify(vks[i])
			me.metrics.observeProof(pcds[i].kind(), err)
			if err != nil {
				return fmt.Errorf("proof %d: %w", i, err)
			}
			results[i] = items
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		log.Debug().Err(err).Msg("batch failed succinct verification")
		return decide(err)
	}
	log.Debug().Dur("took", time.Since(start)).Msg("succinct verification done")

	var merged DualItem
	for _, items := range results {
		merged.G1 = append(merged.G1, items.G1...)
		merged.G2 = append(merged.G2, items.G2...)
	}
	ok, err := me.hardPart(vks[0], &merged)
	log.Debug().Bool("ok", ok).Dur("took", time.Since(start)).Msg("batch verified")
	return ok, err
}

// hardPart accumulates each non-empty partition of items into a single item
// and checks the two results in parallel. The items are consumed. A
// partition that fails to fold is a rejection of the batch.
func (me *BatchVerifier) hardPart(vk *VerifierKey, items *DualItem) (bool, error) {
	var (
		eg       errgroup.Group
		ok1, ok2 = true, true
	)
	if len(items.G1) > 0 {
		eg.Go(func() error {
			acc, _, err := dlog.Accumulate(CurveG1(), vk.CommitterKeyG1, items.G1)
			if err != nil {
				return err
			}
			me.metrics.HardPartChecks.WithLabelValues(CurveG1().String()).Inc()
			ok1, err = dlog.CheckAccumulated(CurveG1(), vk.CommitterKeyG1, acc, me.checkOptionsG1(vk.CommitterKeyG1)...)
			return err
		})
	}
	if len(items.G2) > 0 {
		eg.Go(func() error {
			acc, _, err := dlog.Accumulate(CurveG2(), vk.CommitterKeyG2, items.G2)
			if err != nil {
				return err
			}
			me.metrics.HardPartChecks.WithLabelValues(CurveG2().String()).Inc()
			ok2, err = dlog.CheckAccumulated(CurveG2(), vk.CommitterKeyG2, acc, dlog.WithNbTasks[FrG2, G2](me.cfg.HardPart.NbTasks))
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return decide(err)
	}
	return ok1 && ok2, nil
}

// BatchVerifyProofs is BatchVerifier.Verify with a verifier built from opts.
func BatchVerifyProofs(ctx context.Context, pcds []PCD, vks []*VerifierKey, opts ...VerifyOption) (bool, error) {
	v, err := newVerifier(opts...)
	if err != nil {
		return false, err
	}
	return v.Verify(ctx, pcds, vks)
}
