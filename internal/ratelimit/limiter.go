// Package ratelimit throttles expensive operations per client: a cooldown
// between calls and a cap on calls per hour.
package ratelimit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Clock interface for testing time-dependent behavior.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Config holds rate limit configuration.
type Config struct {
	Cooldown   time.Duration // Minimum time between calls per key (default: 10s)
	MaxPerHour int           // Max calls per key per hour, 0 disables (default: 60)

	// Clock for testing (nil uses real time)
	Clock Clock
}

// DefaultConfig returns production-ready defaults.
func DefaultConfig() *Config {
	return &Config{
		Cooldown:   10 * time.Second,
		MaxPerHour: 60,
	}
}

// LimitResult contains the result of a rate limit check.
type LimitResult struct {
	Allowed    bool
	RetryAfter time.Duration
	Reason     string // For logging
}

const (
	ReasonCooldown    = "cooldown"
	ReasonHourlyLimit = "hourly_limit"
)

type entry struct {
	count   int
	firstAt time.Time // First call in the hourly window
	lastAt  time.Time // Most recent call (for cooldown)
}

// Limiter tracks calls per key. Keys are hashed before they are stored.
type Limiter struct {
	config  *Config
	clock   Clock
	mu      sync.RWMutex
	entries map[string]*entry

	cleanupCtx    context.Context
	cleanupCancel context.CancelFunc
	cleanupOnce   sync.Once
	cleanupWg     sync.WaitGroup
}

// New creates a new rate limiter with the given config.
func New(cfg *Config) *Limiter {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = realClock{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Limiter{
		config:        cfg,
		clock:         clock,
		entries:       make(map[string]*entry),
		cleanupCtx:    ctx,
		cleanupCancel: cancel,
	}
}

// Close stops the cleanup goroutine and releases resources.
func (l *Limiter) Close() {
	l.cleanupCancel()
	l.cleanupWg.Wait()
}

// Check reports whether a call for key is allowed without recording it.
func (l *Limiter) Check(key string) LimitResult {
	l.startCleanup()
	now := l.clock.Now()
	hashed := hashKey(key)

	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.check(l.entries[hashed], now)
}

// Record counts a call for key.
func (l *Limiter) Record(key string) {
	now := l.clock.Now()
	hashed := hashKey(key)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.record(hashed, now)
}

// Allow checks and, when allowed, records a call for key in one step.
func (l *Limiter) Allow(key string) LimitResult {
	l.startCleanup()
	now := l.clock.Now()
	hashed := hashKey(key)

	l.mu.Lock()
	defer l.mu.Unlock()
	result := l.check(l.entries[hashed], now)
	if result.Allowed {
		l.record(hashed, now)
	}
	return result
}

// Reset forgets every call recorded for key.
func (l *Limiter) Reset(key string) {
	hashed := hashKey(key)
	l.mu.Lock()
	delete(l.entries, hashed)
	l.mu.Unlock()
}

func (l *Limiter) check(e *entry, now time.Time) LimitResult {
	if e == nil {
		return LimitResult{Allowed: true}
	}
	if elapsed := now.Sub(e.lastAt); elapsed < l.config.Cooldown {
		return LimitResult{
			Allowed:    false,
			RetryAfter: l.config.Cooldown - elapsed,
			Reason:     ReasonCooldown,
		}
	}
	if l.config.MaxPerHour > 0 && now.Sub(e.firstAt) < time.Hour && e.count >= l.config.MaxPerHour {
		return LimitResult{
			Allowed:    false,
			RetryAfter: time.Hour - now.Sub(e.firstAt),
			Reason:     ReasonHourlyLimit,
		}
	}
	return LimitResult{Allowed: true}
}

func (l *Limiter) record(hashed string, now time.Time) {
	e := l.entries[hashed]
	if e == nil || now.Sub(e.firstAt) >= time.Hour {
		l.entries[hashed] = &entry{count: 1, firstAt: now, lastAt: now}
		return
	}
	e.count++
	e.lastAt = now
}

func hashKey(value string) string {
	hash := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(value))))
	return hex.EncodeToString(hash[:8])
}

func (l *Limiter) startCleanup() {
	l.cleanupOnce.Do(func() {
		l.cleanupWg.Add(1)
		go func() {
			defer l.cleanupWg.Done()
			ticker := time.NewTicker(5 * time.Minute)
			defer ticker.Stop()
			for {
				select {
				case <-l.cleanupCtx.Done():
					return
				case <-ticker.C:
					l.cleanup()
				}
			}
		}()
	})
}

// cleanup drops keys idle for longer than both the window and the cooldown.
func (l *Limiter) cleanup() {
	now := l.clock.Now()
	maxAge := max(time.Hour, l.config.Cooldown)

	l.mu.Lock()
	defer l.mu.Unlock()
	for k, e := range l.entries {
		if now.Sub(e.lastAt) > maxAge {
			delete(l.entries, k)
		}
	}
}

// Len reports how many keys are tracked.
func (l *Limiter) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// GetClientIP extracts the client IP from a request.
// When trustProxy is true, uses the rightmost public IP from X-Forwarded-For.
// When trustProxy is false, ignores forwarding headers entirely.
func GetClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			parts := strings.Split(xff, ",")
			for i := len(parts) - 1; i >= 0; i-- {
				ip := strings.TrimSpace(parts[i])
				if ip != "" && !isPrivateIP(ip) {
					return ip
				}
			}
			// All IPs are private, use the last one
			return strings.TrimSpace(parts[len(parts)-1])
		}

		// X-Real-IP (set by nginx)
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			return strings.TrimSpace(xri)
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr without a port (Unix socket or malformed)
		if parsed := net.ParseIP(r.RemoteAddr); parsed != nil {
			return r.RemoteAddr
		}
		if idx := strings.LastIndex(r.RemoteAddr, ":"); idx != -1 {
			candidate := r.RemoteAddr[:idx]
			if net.ParseIP(candidate) != nil {
				return candidate
			}
		}
		return r.RemoteAddr
	}
	return ip
}

var privateNetworks []*net.IPNet

func init() {
	privateRanges := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"127.0.0.0/8",
		"::1/128",
		"fc00::/7",
		"fe80::/10",
	}
	for _, cidr := range privateRanges {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic("invalid private CIDR: " + cidr)
		}
		privateNetworks = append(privateNetworks, network)
	}
}

// isPrivateIP also matches IPv4-mapped IPv6 forms such as ::ffff:192.168.1.1.
func isPrivateIP(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	if ipv4 := ip.To4(); ipv4 != nil {
		ip = ipv4
	}
	for _, network := range privateNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// LogRateLimitExceeded logs a throttled call.
func LogRateLimitExceeded(action, ip string, result LimitResult) {
	log.Warn().
		Str("event", "rate_limit_exceeded").
		Str("action", action).
		Str("ip", ip).
		Str("reason", result.Reason).
		Dur("retry_after", result.RetryAfter).
		Msg("Rate limit exceeded")
}
