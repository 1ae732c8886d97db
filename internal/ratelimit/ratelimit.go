package ratelimit

import (
	"sync"
	"time"
)

// RateLimiter enforces sliding-window limits on inference-heavy endpoints.
// One timestamp log serves all three windows; entries older than a day
// are discarded on every call.
type RateLimiter struct {
	perMinute int
	perHour   int
	perDay    int
	enabled   bool

	window []time.Time
	mu     sync.Mutex
}

// NewRateLimiter creates a new rate limiter with the given limits. A limit
// of zero disables that window.
func NewRateLimiter(perMinute, perHour, perDay int, enabled bool) *RateLimiter {
	return &RateLimiter{
		perMinute: perMinute,
		perHour:   perHour,
		perDay:    perDay,
		enabled:   enabled,
	}
}

// AllowRequest checks if a request is allowed and records it if so.
func (rl *RateLimiter) AllowRequest() bool {
	if !rl.enabled {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.trim(now)

	minute, hour, day := rl.counts(now)
	if rl.perMinute > 0 && minute >= rl.perMinute {
		return false
	}
	if rl.perHour > 0 && hour >= rl.perHour {
		return false
	}
	if rl.perDay > 0 && day >= rl.perDay {
		return false
	}

	rl.window = append(rl.window, now)
	return true
}

// trim drops entries older than the widest window
func (rl *RateLimiter) trim(now time.Time) {
	cutoff := now.Add(-24 * time.Hour)
	kept := rl.window[:0]
	for _, t := range rl.window {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	rl.window = kept
}

// counts tallies requests in each sliding window
func (rl *RateLimiter) counts(now time.Time) (minute, hour, day int) {
	minuteAgo := now.Add(-1 * time.Minute)
	hourAgo := now.Add(-1 * time.Hour)
	for _, t := range rl.window {
		day++
		if t.After(hourAgo) {
			hour++
		}
		if t.After(minuteAgo) {
			minute++
		}
	}
	return
}

// Stats contains rate limiter statistics
type Stats struct {
	Enabled             bool `json:"enabled"`
	RequestsLastMinute  int  `json:"requests_last_minute"`
	RequestsLastHour    int  `json:"requests_last_hour"`
	RequestsLastDay     int  `json:"requests_last_day"`
	LimitPerMinute      int  `json:"limit_per_minute"`
	LimitPerHour        int  `json:"limit_per_hour"`
	LimitPerDay         int  `json:"limit_per_day"`
	RemainingThisMinute int  `json:"remaining_this_minute"`
	RemainingThisHour   int  `json:"remaining_this_hour"`
	RemainingThisDay    int  `json:"remaining_this_day"`
}

// GetStats returns current rate limiter statistics
func (rl *RateLimiter) GetStats() Stats {
	if !rl.enabled {
		return Stats{Enabled: false}
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	rl.trim(now)
	minute, hour, day := rl.counts(now)

	return Stats{
		Enabled:             true,
		RequestsLastMinute:  minute,
		RequestsLastHour:    hour,
		RequestsLastDay:     day,
		LimitPerMinute:      rl.perMinute,
		LimitPerHour:        rl.perHour,
		LimitPerDay:         rl.perDay,
		RemainingThisMinute: remaining(rl.perMinute, minute),
		RemainingThisHour:   remaining(rl.perHour, hour),
		RemainingThisDay:    remaining(rl.perDay, day),
	}
}

// Reset clears all tracked requests (useful for testing)
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.window = nil
}

func remaining(limit, used int) int {
	if limit <= 0 {
		return 0
	}
	if used >= limit {
		return 0
	}
	return limit - used
}
