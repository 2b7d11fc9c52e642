package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCheckAllowsUpToLimit(t *testing.T) {
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	l := New().WithNow(func() time.Time { return base })

	for i := 0; i < 5; i++ {
		res := l.Check("user:1", 5, time.Minute)
		assert.True(t, res.Allowed, "request %d should be allowed", i+1)
		assert.Equal(t, 4-i, res.Remaining)
	}

	res := l.Check("user:1", 5, time.Minute)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
}

func TestCheckDeniedResetAt(t *testing.T) {
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	now := base
	l := New().WithNow(func() time.Time { return now })

	l.Check("user:1", 2, time.Minute)
	now = base.Add(10 * time.Second)
	l.Check("user:1", 2, time.Minute)

	now = base.Add(20 * time.Second)
	res := l.Check("user:1", 2, time.Minute)
	assert.False(t, res.Allowed)
	// 最早一次请求在 base，窗口一分钟，所以 base+1m 时释放
	assert.Equal(t, base.Add(time.Minute), res.ResetAt)
}

func TestCheckReallowsAfterWindow(t *testing.T) {
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	now := base
	l := New().WithNow(func() time.Time { return now })

	for i := 0; i < 3; i++ {
		l.Check("user:1", 3, time.Minute)
	}
	assert.False(t, l.Check("user:1", 3, time.Minute).Allowed)

	// 窗口滑过最早的请求后再次放行
	now = base.Add(time.Minute + time.Second)
	res := l.Check("user:1", 3, time.Minute)
	assert.True(t, res.Allowed)
}

func TestCheckDeniedDoesNotConsume(t *testing.T) {
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	now := base
	l := New().WithNow(func() time.Time { return now })

	l.Check("user:1", 1, time.Minute)

	// 被拒绝的请求不计入窗口，窗口一滑过就恢复
	for i := 0; i < 10; i++ {
		now = now.Add(time.Second)
		assert.False(t, l.Check("user:1", 1, time.Minute).Allowed)
	}
	now = base.Add(time.Minute + time.Second)
	assert.True(t, l.Check("user:1", 1, time.Minute).Allowed)
}

func TestCheckIsolatesIdentities(t *testing.T) {
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	l := New().WithNow(func() time.Time { return base })

	assert.True(t, l.Check("user:1", 1, time.Minute).Allowed)
	assert.False(t, l.Check("user:1", 1, time.Minute).Allowed)
	assert.True(t, l.Check("user:2", 1, time.Minute).Allowed)
}
