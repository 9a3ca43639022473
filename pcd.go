package darlin

import (
	"errors"
	"fmt"

	"github.com/eon-protocol/darlin/errs"
	"github.com/eon-protocol/darlin/marlin"
)

// VerifierKey is everything needed to verify a proof of one circuit: its
// committed index and the committer keys of both curves.
type VerifierKey struct {
	Index          *IndexKey
	CommitterKeyG1 *CommitterKeyG1
	CommitterKeyG2 *CommitterKeyG2
}

func (me *VerifierKey) check() error {
	if me == nil || me.Index == nil || me.CommitterKeyG1 == nil || me.CommitterKeyG2 == nil {
		return errs.New(errs.KindOther, "incomplete verifier key")
	}
	return nil
}

// DualItem holds the accumulators produced by a succinct verification,
// split by curve.
type DualItem struct {
	G1 []ItemG1
	G2 []ItemG2
}

// PCD is a proof together with its statement. The set of implementations is
// closed: SimpleMarlinPCD and FinalDarlinPCD.
type PCD interface {
	// SuccinctVerify checks everything but the hard part and returns the
	// accumulators deferring it.
	SuccinctVerify(vk *VerifierKey) (*DualItem, error)
	kind() string
}

// SimpleMarlinPCD is a Marlin proof that does not carry previous
// accumulators.
type SimpleMarlinPCD struct {
	Proof  *MarlinProof
	UsrIns []FrG1
}

func (me *SimpleMarlinPCD) kind() string {
	return "simple_marlin"
}

func (me *SimpleMarlinPCD) SuccinctVerify(vk *VerifierKey) (*DualItem, error) {
	if me == nil {
		return nil, errs.Wrap(errs.KindFailedSuccinctVerification, errNilPCD)
	}
	if err := vk.check(); err != nil {
		return nil, errs.Wrap(errs.KindFailedSuccinctVerification, err)
	}
	item, err := marlin.SuccinctVerify(CurveG1(), vk.CommitterKeyG1, vk.Index, me.UsrIns, me.Proof)
	if err != nil {
		return nil, errs.Wrap(errs.KindFailedSuccinctVerification, err)
	}
	return &DualItem{G1: []ItemG1{*item}}, nil
}

// FinalDarlinPCD is a Marlin proof whose statement also binds the
// accumulators of the two previous recursion steps.
type FinalDarlinPCD struct {
	Proof    *MarlinProof
	UsrIns   []FrG1
	Deferred DeferredData
}

func (me *FinalDarlinPCD) kind() string {
	return "final_darlin"
}

// PublicInput is the statement the circuit is proven against: UsrIns
// followed by the serialized deferred data.
func (me *FinalDarlinPCD) PublicInput() ([]FrG1, error) {
	deferred, err := me.Deferred.ToFieldElements()
	if err != nil {
		return nil, err
	}
	return append(append(make([]FrG1, 0, len(me.UsrIns)+len(deferred)), me.UsrIns...), deferred...), nil
}

// SuccinctVerify returns the new accumulator with the pre-previous one on G1
// and the previous one on G2. The deferred accumulators are copied, so the
// PCD can be dropped afterwards.
func (me *FinalDarlinPCD) SuccinctVerify(vk *VerifierKey) (*DualItem, error) {
	if me == nil {
		return nil, errs.Wrap(errs.KindFailedSuccinctVerification, errNilPCD)
	}
	if err := vk.check(); err != nil {
		return nil, errs.Wrap(errs.KindFailedSuccinctVerification, err)
	}
	if err := me.Deferred.Validate(vk.CommitterKeyG1, vk.CommitterKeyG2); err != nil {
		return nil, errs.Wrap(errs.KindFailedSuccinctVerification, errs.Wrap(errs.KindOther, err))
	}
	x, err := me.PublicInput()
	if err != nil {
		return nil, errs.Wrap(errs.KindFailedSuccinctVerification, err)
	}
	item, err := marlin.SuccinctVerify(CurveG1(), vk.CommitterKeyG1, vk.Index, x, me.Proof)
	if err != nil {
		return nil, errs.Wrap(errs.KindFailedSuccinctVerification, err)
	}
	return &DualItem{
		G1: []ItemG1{*item, cloneItem(&me.Deferred.PrePreviousAcc)},
		G2: []ItemG2{cloneItem(&me.Deferred.PreviousAcc)},
	}, nil
}

// Verify fully verifies one PCD: succinct verification followed by the hard
// part on each curve that has accumulators. A rejected proof is (false, nil);
// an error means the proof could not be evaluated.
func Verify(pcd PCD, vk *VerifierKey, opts ...VerifyOption) (bool, error) {
	if pcd == nil {
		return false, errNilPCD
	}
	v, err := newVerifier(opts...)
	if err != nil {
		return false, err
	}
	items, err := pcd.SuccinctVerify(vk)
	v.metrics.observeProof(pcd.kind(), err)
	if err != nil {
		return decide(err)
	}
	return v.hardPart(vk, items)
}

// decide maps a verification error to the (valid, error) convention.
func decide(err error) (bool, error) {
	if errs.Rejected(err) {
		return false, nil
	}
	return false, err
}

var (
	errMismatchedKeys = errors.New("verifier keys do not share the committer keys")
	errNilPCD         = errs.New(errs.KindOther, "nil proof")
)

// VerifyOption configures Verify and BatchVerifyProofs.
type VerifyOption func(*verifyConfig) error

type verifyConfig struct {
	cfg     *Config
	metrics *Metrics
}

// WithConfig sets the configuration; it is validated first.
func WithConfig(cfg *Config) VerifyOption {
	return func(c *verifyConfig) error {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		c.cfg = cfg
		return nil
	}
}

// WithMetrics records verification outcomes in m.
func WithMetrics(m *Metrics) VerifyOption {
	return func(c *verifyConfig) error {
		c.metrics = m
		return nil
	}
}

func newVerifier(opts ...VerifyOption) (*BatchVerifier, error) {
	c := verifyConfig{cfg: NewDefaultConfig()}
	for _, opt := range opts {
		if err := opt(&c); err != nil {
			return nil, err
		}
	}
	if c.metrics == nil {
		c.metrics = newMetrics()
	}
	return newBatchVerifier(c.cfg, c.metrics), nil
}
