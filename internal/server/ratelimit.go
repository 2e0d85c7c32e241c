package server

import (
	"fmt"
	"sync"
	"time"
)

// RateLimiter enforces per-client frame rates and daily quotas using fixed
// windows. A zero limit disables that check.
type RateLimiter struct {
	mu sync.Mutex

	framesPerMinute int
	framesPerHour   int
	maxFramesPerDay int
	maxDataPerDay   int64 // in bytes

	clients map[string]*ClientUsage
	now     func() time.Time
}

// ClientUsage tracks the current windows of one client.
type ClientUsage struct {
	FramesThisMinute int
	FramesThisHour   int
	FramesToday      int
	DataToday        int64

	minuteStart time.Time
	hourStart   time.Time
	dayStart    time.Time
}

// NewRateLimiter creates a rate limiter with the given limits.
func NewRateLimiter(framesPerMinute, framesPerHour, maxFramesPerDay int, maxDataPerDay int64) *RateLimiter {
	return &RateLimiter{
		framesPerMinute: framesPerMinute,
		framesPerHour:   framesPerHour,
		maxFramesPerDay: maxFramesPerDay,
		maxDataPerDay:   maxDataPerDay,
		clients:         make(map[string]*ClientUsage),
		now:             time.Now,
	}
}

// Allow records one frame of size bytes for client, or returns a
// *RateLimitError or *QuotaExceededError without recording it.
func (rl *RateLimiter) Allow(client string, size int64) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	usage, ok := rl.clients[client]
	if !ok {
		usage = &ClientUsage{minuteStart: now, hourStart: now, dayStart: now}
		rl.clients[client] = usage
	}
	rl.roll(usage, now)

	if rl.framesPerMinute > 0 && usage.FramesThisMinute >= rl.framesPerMinute {
		return &RateLimitError{Type: "minute", Limit: rl.framesPerMinute, RetryAfter: usage.minuteStart.Add(time.Minute).Sub(now)}
	}
	if rl.framesPerHour > 0 && usage.FramesThisHour >= rl.framesPerHour {
		return &RateLimitError{Type: "hour", Limit: rl.framesPerHour, RetryAfter: usage.hourStart.Add(time.Hour).Sub(now)}
	}

	resets := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
	if rl.maxFramesPerDay > 0 && usage.FramesToday >= rl.maxFramesPerDay {
		return &QuotaExceededError{Type: "frames", Limit: int64(rl.maxFramesPerDay), Used: int64(usage.FramesToday), Resets: resets}
	}
	if rl.maxDataPerDay > 0 && usage.DataToday+size > rl.maxDataPerDay {
		return &QuotaExceededError{Type: "data", Limit: rl.maxDataPerDay, Used: usage.DataToday, Resets: resets}
	}

	usage.FramesThisMinute++
	usage.FramesThisHour++
	usage.FramesToday++
	usage.DataToday += size
	return nil
}

// ChargeData adds size bytes to the daily data usage of client. It is
// used once the size of a frame is known after the rate check, and
// returns a *QuotaExceededError without charging when the quota is full.
func (rl *RateLimiter) ChargeData(client string, size int64) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	usage, ok := rl.clients[client]
	if !ok {
		usage = &ClientUsage{minuteStart: now, hourStart: now, dayStart: now}
		rl.clients[client] = usage
	}
	rl.roll(usage, now)

	if rl.maxDataPerDay > 0 && usage.DataToday+size > rl.maxDataPerDay {
		resets := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location())
		return &QuotaExceededError{Type: "data", Limit: rl.maxDataPerDay, Used: usage.DataToday, Resets: resets}
	}
	usage.DataToday += size
	return nil
}

// roll starts new windows once the current ones have elapsed.
func (rl *RateLimiter) roll(usage *ClientUsage, now time.Time) {
	if now.Sub(usage.minuteStart) >= time.Minute {
		usage.FramesThisMinute = 0
		usage.minuteStart = now
	}
	if now.Sub(usage.hourStart) >= time.Hour {
		usage.FramesThisHour = 0
		usage.hourStart = now
	}
	y1, m1, d1 := now.Date()
	y2, m2, d2 := usage.dayStart.Date()
	if y1 != y2 || m1 != m2 || d1 != d2 {
		usage.FramesToday = 0
		usage.DataToday = 0
		usage.dayStart = now
	}
}

// Usage returns a copy of the usage recorded for client.
func (rl *RateLimiter) Usage(client string) ClientUsage {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if usage, ok := rl.clients[client]; ok {
		return *usage
	}
	return ClientUsage{}
}

// RateLimitError represents a rate limit violation.
type RateLimitError struct {
	Type       string        // "minute" or "hour"
	Limit      int           // the limit that was exceeded
	RetryAfter time.Duration // how long to wait before retrying
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s (limit: %d, retry after: %v)", e.Type, e.Limit, e.RetryAfter)
}

// QuotaExceededError represents a daily quota violation.
type QuotaExceededError struct {
	Type   string    // "frames" or "data"
	Limit  int64     // the limit that was exceeded
	Used   int64     // current usage
	Resets time.Time // when the quota resets
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded for %s (used: %d, limit: %d, resets: %s)",
		e.Type, e.Used, e.Limit, e.Resets.Format(time.RFC3339))
}
