package ratelimit

import (
	"testing"
	"time"

	gerr "github.com/jekabolt/grbpwr-reports/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, window time.Duration, max int) (*Limiter, *time.Time) {
	t.Helper()
	l := NewLimiter(window, max)
	t.Cleanup(l.Stop)
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestLimiterAllow(t *testing.T) {
	l, now := newTestLimiter(t, time.Second, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("10.0.0.1"), "request %d", i+1)
	}
	assert.False(t, l.Allow("10.0.0.1"))
	assert.True(t, l.Allow("10.0.0.2"))

	*now = now.Add(1100 * time.Millisecond)
	assert.True(t, l.Allow("10.0.0.1"))
}

func TestLimiterRemaining(t *testing.T) {
	l, now := newTestLimiter(t, time.Second, 5)

	assert.Equal(t, 5, l.Remaining("k"))
	l.Allow("k")
	l.Allow("k")
	assert.Equal(t, 3, l.Remaining("k"))

	*now = now.Add(2 * time.Second)
	assert.Equal(t, 5, l.Remaining("k"))
	l.expire()
	assert.Empty(t, l.counters)
}

func TestMultiKeyLimiter(t *testing.T) {
	m := NewMultiKeyLimiter(Config{Window: time.Hour, Aggregate: 2})
	t.Cleanup(m.Stop)

	require.NoError(t, m.Check(OpAggregate, "10.0.0.1"))
	require.NoError(t, m.Check(OpAggregate, "10.0.0.1"))
	assert.ErrorIs(t, m.Check(OpAggregate, "10.0.0.1"), gerr.TooManyRequests)
	assert.Equal(t, 0, m.Remaining(OpAggregate, "10.0.0.1"))

	for i := 0; i < 10; i++ {
		require.NoError(t, m.Check(OpWrite, "10.0.0.1"))
	}
	assert.Equal(t, -1, m.Remaining(OpWrite, "10.0.0.1"))
}
