package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is advanced by hand so refills are deterministic.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 12, 20, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestBucket_TakeAndRefill(t *testing.T) {
	clock := newFakeClock()
	b := newBucket(3, 1.0, clock.Now())

	for i := 0; i < 3; i++ {
		ok, remaining, _ := b.take(clock.Now())
		require.True(t, ok, "take %d", i+1)
		assert.Equal(t, 2-i, remaining)
	}
	ok, _, full := b.take(clock.Now())
	assert.False(t, ok)
	assert.Equal(t, clock.Now().Add(3*time.Second), full)

	clock.Advance(time.Second)
	ok, _, _ = b.take(clock.Now())
	assert.True(t, ok, "one token refilled")
	ok, _, _ = b.take(clock.Now())
	assert.False(t, ok)
}

func TestLimiter_DefaultLimit(t *testing.T) {
	clock := newFakeClock()
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
		Clock:         clock.Now,
	})
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/api/stories", "GET")
		require.True(t, allowed, "request %d", i+1)
		assert.Equal(t, 10, info.Limit)
		assert.Equal(t, 9-i, info.Remaining)
	}

	allowed, info := limiter.Allow("127.0.0.1", "/api/stories", "GET")
	assert.False(t, allowed)
	assert.Zero(t, info.Remaining)
	assert.Equal(t, 6*time.Second, info.RetryAfter)

	clock.Advance(6 * time.Second)
	allowed, _ = limiter.Allow("127.0.0.1", "/api/stories", "GET")
	assert.True(t, allowed)
}

func TestLimiter_WriteRulesSharePrefixBucket(t *testing.T) {
	clock := newFakeClock()
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1000,
		DefaultWindow: time.Minute,
		Rules:         WriteRules(2, time.Minute, 2),
		Clock:         clock.Now,
	})
	defer limiter.Stop()

	ok, info := limiter.Allow("10.0.0.1", "/api/stories/a", "DELETE")
	require.True(t, ok)
	assert.Equal(t, 2, info.Limit)
	ok, _ = limiter.Allow("10.0.0.1", "/api/stories/b", "DELETE")
	require.True(t, ok)
	ok, _ = limiter.Allow("10.0.0.1", "/api/stories/c", "DELETE")
	assert.False(t, ok, "different ids count against the same rule")

	ok, _ = limiter.Allow("10.0.0.2", "/api/stories/c", "DELETE")
	assert.True(t, ok, "other clients are unaffected")

	ok, info = limiter.Allow("10.0.0.1", "/api/stories/a", "GET")
	assert.True(t, ok)
	assert.Equal(t, 1000, info.Limit)
}

func TestLimiter_Exemptions(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
		Whitelist:     map[string]bool{"127.0.0.1": true},
		Blacklist:     map[string]bool{"192.168.1.1": true},
	})
	defer limiter.Stop()

	for i := 0; i < 5; i++ {
		ok, _ := limiter.Allow("127.0.0.1", "/api/stories", "POST")
		assert.True(t, ok)
		ok, _ = limiter.Allow("10.0.0.9", "/health", "GET")
		assert.True(t, ok)
		ok, _ = limiter.Allow("10.0.0.9", "/api/stories", "OPTIONS")
		assert.True(t, ok)
	}

	ok, _ := limiter.Allow("192.168.1.1", "/api/", "GET")
	assert.False(t, ok)
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := NewLimiter(&Config{Enabled: false})
	defer limiter.Stop()

	for i := 0; i < 100; i++ {
		ok, info := limiter.Allow("127.0.0.1", "/api/stories", "POST")
		require.True(t, ok)
		assert.Zero(t, info.Limit)
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  100,
		DefaultWindow: time.Hour,
		Clock:         newFakeClock().Now,
	})
	defer limiter.Stop()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := limiter.Allow("127.0.0.1", "/api/", "GET"); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, allowed)
}

func TestLimiter_Sweep(t *testing.T) {
	clock := newFakeClock()
	limiter := NewLimiter(&Config{
		Enabled:       true,
		DefaultLimit:  10,
		DefaultWindow: time.Minute,
		IdleTTL:       time.Hour,
		Clock:         clock.Now,
	})
	defer limiter.Stop()

	for i := 0; i < 4; i++ {
		limiter.Allow(fmt.Sprintf("127.0.0.%d", i+1), "/api/stories", "GET")
	}
	clock.Advance(30 * time.Minute)
	limiter.Allow("127.0.0.1", "/api/stories", "GET")

	clock.Advance(45 * time.Minute)
	assert.Equal(t, 3, limiter.Sweep())
	assert.Equal(t, 0, limiter.Sweep())
}

func TestLimiter_StopIsIdempotent(t *testing.T) {
	limiter := NewLimiter(&Config{
		Enabled:         true,
		DefaultLimit:    10,
		DefaultWindow:   time.Minute,
		CleanupInterval: time.Millisecond,
	})
	limiter.Stop()
	limiter.Stop()
}

func TestNewLimiter_NilConfig(t *testing.T) {
	limiter := NewLimiter(nil)
	defer limiter.Stop()

	ok, info := limiter.Allow("127.0.0.1", "/api/", "GET")
	assert.True(t, ok)
	assert.Equal(t, defaultLimit, info.Limit)
}

func TestMatchRule(t *testing.T) {
	rules := WriteRules(5, time.Minute, 2)

	tests := []struct {
		name   string
		path   string
		method string
		want   string
	}{
		{"create story", "/api/stories", "POST", "POST /api/stories"},
		{"delete story prefix", "/api/stories/abc", "DELETE", "DELETE /api/stories/"},
		{"update progress", "/api/progress", "PUT", "PUT /api/progress"},
		{"read falls through", "/api/stories", "GET", ""},
		{"post on id is not create", "/api/stories/abc", "POST", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchRule(tt.path, tt.method, rules)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.key())
		})
	}

	assert.True(t, MatchRule("/health", "GET", rules).Unlimited())
	assert.True(t, MatchRule("/api/stories", "OPTIONS", rules).Unlimited())
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_WRITE_LIMIT", "7")
	t.Setenv("RATE_LIMIT_WHITELIST", " 127.0.0.1 , ::1,")

	cfg := LoadConfig()
	assert.True(t, cfg.Enabled)
	assert.Equal(t, defaultLimit, cfg.DefaultLimit)
	assert.Len(t, cfg.Whitelist, 2)
	require.Len(t, cfg.Rules, 3)
	assert.Equal(t, 7, cfg.Rules[0].Limit)

	t.Setenv("RATE_LIMIT_ENABLED", "false")
	assert.False(t, LoadConfig().Enabled)
}
