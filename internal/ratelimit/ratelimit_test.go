package ratelimit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowRequest_MinuteLimit(t *testing.T) {
	rl := NewRateLimiter(3, 0, 0, true)

	assert.True(t, rl.AllowRequest())
	assert.True(t, rl.AllowRequest())
	assert.True(t, rl.AllowRequest())
	assert.False(t, rl.AllowRequest(), "fourth request in the same minute must be rejected")
}

func TestAllowRequest_Disabled(t *testing.T) {
	rl := NewRateLimiter(1, 1, 1, false)

	for i := 0; i < 10; i++ {
		assert.True(t, rl.AllowRequest())
	}
}

func TestAllowRequest_DayLimitIndependent(t *testing.T) {
	rl := NewRateLimiter(0, 0, 2, true)

	assert.True(t, rl.AllowRequest())
	assert.True(t, rl.AllowRequest())
	assert.False(t, rl.AllowRequest())
}

func TestGetStats(t *testing.T) {
	rl := NewRateLimiter(10, 100, 1000, true)

	rl.AllowRequest()
	rl.AllowRequest()

	stats := rl.GetStats()
	assert.True(t, stats.Enabled)
	assert.Equal(t, 2, stats.RequestsLastMinute)
	assert.Equal(t, 2, stats.RequestsLastHour)
	assert.Equal(t, 2, stats.RequestsLastDay)
	assert.Equal(t, 8, stats.RemainingThisMinute)
	assert.Equal(t, 98, stats.RemainingThisHour)
	assert.Equal(t, 998, stats.RemainingThisDay)
}

func TestReset(t *testing.T) {
	rl := NewRateLimiter(1, 0, 0, true)

	assert.True(t, rl.AllowRequest())
	assert.False(t, rl.AllowRequest())

	rl.Reset()
	assert.True(t, rl.AllowRequest())
}
