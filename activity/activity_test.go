package activity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/ironlock/storage"
	"github.com/jmcleod/ironlock/storage/memory"
)

func TestRecorder(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	r := NewRecorder(store).WithClock(func() time.Time { return fixed })

	_, ok, err := r.LastActive(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	at, err := r.Touch(ctx)
	require.NoError(t, err)
	assert.Equal(t, fixed, at)

	ms, ok, err := storage.GetInt(ctx, store, storage.KeyLastActive)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, fixed.UnixMilli(), ms)

	got, ok, err := r.LastActive(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, fixed.Equal(got))
}
