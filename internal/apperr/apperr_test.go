package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	base := errors.New("connection refused")
	err := fmt.Errorf("loading units: %w", New(Unavailable, "store.FindUnitsByProperty", base))

	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, Unavailable, kind)
	assert.True(t, IsUnavailable(err))
	assert.ErrorIs(t, err, base)
	assert.Contains(t, err.Error(), "REPOSITORY_UNAVAILABLE")
}

func TestKindOf_Deadline(t *testing.T) {
	err := fmt.Errorf("querying: %w", context.DeadlineExceeded)
	assert.True(t, IsTimeout(err))
	assert.False(t, IsUnavailable(err))
}

func TestKindOf_Unclassified(t *testing.T) {
	_, ok := KindOf(errors.New("boom"))
	assert.False(t, ok)
	assert.False(t, Is(nil, Computation))
}
