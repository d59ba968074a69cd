package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTLCacheExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewTTLCache[int]()
	c.now = func() time.Time { return now }

	c.Set("a", 1, time.Minute)
	c.Set("forever", 2, 0)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("forever")
	assert.True(t, ok)
	assert.Equal(t, 1, c.Len())
}

func TestTTLCacheGetKeepsConcurrentSet(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewTTLCache[string]()
	c.now = func() time.Time { return now }
	c.Set("k", "old", time.Second)
	now = now.Add(2 * time.Second)

	// The first expiry check runs after the read lock is released; a writer
	// refreshes the key right there.
	refreshed := false
	c.now = func() time.Time {
		if !refreshed {
			refreshed = true
			c.Set("k", "new", time.Minute)
		}
		return now
	}

	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "new", v)
	assert.Equal(t, 1, c.Len())
}

func TestMemoryBytesCopiesValue(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryBytes()

	val := []byte(`{"signal_status":"ok"}`)
	require.NoError(t, m.SetBytes(ctx, ReportKey("2330.TW", 60), val, time.Minute))
	val[0] = 'X'

	got, ok, err := m.GetBytes(ctx, "trendpull:report:2330.TW:60")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `{"signal_status":"ok"}`, string(got))

	_, ok, err = m.GetBytes(ctx, "missing")
	assert.NoError(t, err)
	assert.False(t, ok)
}
