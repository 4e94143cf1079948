package shared

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOwnerFromContext(t *testing.T) {
	ctx := ContextWithOwner(context.Background(), 42)

	id, ok := OwnerFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, int64(42), id)
}

func TestOwnerFromContextAbsent(t *testing.T) {
	id, ok := OwnerFromContext(context.Background())
	require.False(t, ok)
	require.Zero(t, id)
}
