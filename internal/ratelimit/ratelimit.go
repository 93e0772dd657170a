package ratelimit

import (
	"sync"
	"time"

	gerr "github.com/jekabolt/grbpwr-reports/internal/errors"
)

// Operations limited separately per client.
const (
	OpAggregate = "aggregate"
	OpWrite     = "write"
)

// Config sets the per-client request budget of every operation within Window.
// A zero budget disables limiting of that operation.
type Config struct {
	Window    time.Duration `mapstructure:"window"`
	Aggregate int           `mapstructure:"aggregate"`
	Write     int           `mapstructure:"write"`
}

// Limiter implements a simple in-memory fixed window rate limiter
type Limiter struct {
	mu       sync.RWMutex
	counters map[string]*counter
	window   time.Duration
	max      int
	now      func() time.Time
	stop     chan struct{}
}

type counter struct {
	count     int
	expiresAt time.Time
}

// NewLimiter creates a new rate limiter with the specified window and max requests
func NewLimiter(window time.Duration, max int) *Limiter {
	l := &Limiter{
		counters: make(map[string]*counter),
		window:   window,
		max:      max,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go l.cleanup()
	return l
}

// Allow checks if a request for the given key is allowed
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c, exists := l.counters[key]

	if !exists || now.After(c.expiresAt) {
		l.counters[key] = &counter{
			count:     1,
			expiresAt: now.Add(l.window),
		}
		return true
	}

	if c.count >= l.max {
		return false
	}

	c.count++
	return true
}

// Remaining returns the number of remaining requests for the given key
func (l *Limiter) Remaining(key string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	c, exists := l.counters[key]
	if !exists || l.now().After(c.expiresAt) {
		return l.max
	}

	remaining := l.max - c.count
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Stop ends the cleanup loop.
func (l *Limiter) Stop() {
	close(l.stop)
}

// cleanup periodically removes expired counters
func (l *Limiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.expire()
		}
	}
}

func (l *Limiter) expire() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for key, c := range l.counters {
		if now.After(c.expiresAt) {
			delete(l.counters, key)
		}
	}
}

// MultiKeyLimiter manages one limiter per operation.
type MultiKeyLimiter struct {
	limiters map[string]*Limiter
}

// NewMultiKeyLimiter builds the limiters enabled by c.
func NewMultiKeyLimiter(c Config) *MultiKeyLimiter {
	window := c.Window
	if window <= 0 {
		window = time.Minute
	}
	m := &MultiKeyLimiter{limiters: map[string]*Limiter{}}
	for op, max := range map[string]int{OpAggregate: c.Aggregate, OpWrite: c.Write} {
		if max > 0 {
			m.limiters[op] = NewLimiter(window, max)
		}
	}
	return m
}

// Check verifies that key may run op once more.
func (m *MultiKeyLimiter) Check(op, key string) error {
	l, ok := m.limiters[op]
	if !ok {
		return nil
	}
	if !l.Allow(key) {
		return gerr.TooManyRequests
	}
	return nil
}

// Remaining returns the budget key has left for op, -1 when op is unlimited.
func (m *MultiKeyLimiter) Remaining(op, key string) int {
	l, ok := m.limiters[op]
	if !ok {
		return -1
	}
	return l.Remaining(key)
}

// Stop ends the cleanup loops of all limiters.
func (m *MultiKeyLimiter) Stop() {
	for _, l := range m.limiters {
		l.Stop()
	}
}
