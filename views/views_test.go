package views

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isOpen(t *testing.T, tr *Tracker) bool {
	t.Helper()
	open, err := tr.IsBlockingViewOpen(context.Background())
	require.NoError(t, err)
	return open
}

func TestTracker(t *testing.T) {
	tr := NewTracker()
	assert.False(t, isOpen(t, tr))

	releaseA := tr.Open("confirm-export")
	releaseB := tr.Open("confirm-export")
	releaseC := tr.Open("password-generator")
	assert.True(t, isOpen(t, tr))
	assert.Equal(t, []string{"confirm-export", "password-generator"}, tr.Names())

	releaseA()
	releaseA()
	assert.True(t, isOpen(t, tr))
	assert.Equal(t, []string{"confirm-export", "password-generator"}, tr.Names())

	releaseB()
	releaseC()
	assert.False(t, isOpen(t, tr))
	assert.Empty(t, tr.Names())

	tr.Close("never-opened")
	assert.False(t, isOpen(t, tr))
}
