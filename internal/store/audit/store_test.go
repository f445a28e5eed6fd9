package audit

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAppendAndRecent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		err := store.Append(ctx, Entry{
			TraceID:        fmt.Sprintf("trace-%d", i),
			At:             base.Add(time.Duration(i) * time.Minute),
			TradeAction:    "hold",
			TradeBlocked:   "daily_cap",
			PlanReasons:    []string{"no unseen items"},
			ChannelResults: map[string]string{"webhook": "ok"},
		})
		require.NoError(t, err)
	}

	entries, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first.
	assert.Equal(t, "trace-2", entries[0].TraceID)
	assert.Equal(t, "trace-1", entries[1].TraceID)
	assert.Equal(t, "daily_cap", entries[0].TradeBlocked)
	assert.Equal(t, []string{"no unseen items"}, entries[0].PlanReasons)
	assert.Equal(t, map[string]string{"webhook": "ok"}, entries[0].ChannelResults)
	assert.True(t, entries[0].At.Equal(base.Add(2*time.Minute)))
}

func TestRecentClampsLimit(t *testing.T) {
	store := newTestStore(t)
	entries, err := store.Recent(context.Background(), -5)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
