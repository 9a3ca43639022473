package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindMatching(t *testing.T) {
	err := New(KindOther, "alpha is a root of %s", "v_H")
	require.ErrorIs(t, err, ErrOther)
	require.NotErrorIs(t, err, ErrSqueeze)
	require.Contains(t, err.Error(), "alpha is a root of v_H")

	wrapped := Wrap(KindFailedSuccinctVerification, fmt.Errorf("marlin: %w", err))
	require.ErrorIs(t, wrapped, ErrFailedSuccinctVerification)
	require.ErrorIs(t, wrapped, ErrOther)

	var e *Error
	require.True(t, errors.As(wrapped, &e))
	require.Equal(t, KindFailedSuccinctVerification, e.Kind)
}

func TestRejected(t *testing.T) {
	require.Nil(t, Wrap(KindOther, nil))
	require.False(t, Rejected(New(KindOther, "boom")))
	err := Wrap(KindFailedSuccinctVerification, fmt.Errorf("outer sumcheck: %w", ErrCheckFailed))
	require.True(t, Rejected(err))
}
