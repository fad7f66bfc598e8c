package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	err := Conflict(CodeGroupFull, "group is full")
	require.Equal(t, KindConflict, KindOf(err))
	require.Equal(t, CodeGroupFull, CodeOf(err))
	require.True(t, Is(err, KindConflict))
	require.False(t, Is(err, KindNotFound))
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("add member: %w", Unauthorized(CodeOwnerImmune, "owner cannot be removed"))
	require.Equal(t, KindUnauthorized, KindOf(err))
	require.Equal(t, CodeOwnerImmune, CodeOf(err))
}

func TestKindOfForeign(t *testing.T) {
	require.Equal(t, KindUnknown, KindOf(errors.New("boom")))
	require.Empty(t, CodeOf(errors.New("boom")))
}
