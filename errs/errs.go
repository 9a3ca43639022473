// Package errs holds the error kinds shared by the transcript, the IOP verifier,
// the accumulation scheme and the PCD layer.
package errs

import (
	"errors"
	"fmt"
)

type Kind uint8

const (
	KindBadFiatShamirInitialization Kind = iota + 1
	KindAbsorption
	KindSqueeze
	KindOther
	KindFailedSuccinctVerification
)

func (k Kind) String() string {
	switch k {
	case KindBadFiatShamirInitialization:
		return "bad fiat-shamir initialization"
	case KindAbsorption:
		return "absorption error"
	case KindSqueeze:
		return "squeeze error"
	case KindOther:
		return "other"
	case KindFailedSuccinctVerification:
		return "failed succinct verification"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Error tags an underlying error with its kind. errors.Is matches an *Error
// against any other *Error of the same kind, so the Err* sentinels below can
// be used as targets.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

var (
	ErrBadFiatShamirInitialization = &Error{Kind: KindBadFiatShamirInitialization}
	ErrAbsorption                  = &Error{Kind: KindAbsorption}
	ErrSqueeze                     = &Error{Kind: KindSqueeze}
	ErrOther                       = &Error{Kind: KindOther}
	ErrFailedSuccinctVerification  = &Error{Kind: KindFailedSuccinctVerification}
)

// ErrCheckFailed marks a proof that was evaluated and rejected, as opposed to
// one that could not be evaluated at all.
var ErrCheckFailed = errors.New("verification check failed")

func New(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Wrap tags err with kind. A nil err stays nil.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Rejected reports whether err carries ErrCheckFailed.
func Rejected(err error) bool {
	return errors.Is(err, ErrCheckFailed)
}
