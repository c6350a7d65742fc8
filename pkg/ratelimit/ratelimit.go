// Package ratelimit implements a fixed sliding-window rate limiter keyed by
// (client_ip, endpoint_bucket), per spec §4.7.
package ratelimit

import (
	"context"
	"math"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"sync"
	"time"
)

// Bucket is the endpoint class a request is charged against.
type Bucket string

const (
	BucketHealth        Bucket = "health"
	BucketAuthenticated Bucket = "authenticated"
	BucketWrite         Bucket = "write"
	BucketRead          Bucket = "read"
)

// ResolveBucket chooses the bucket for a request per the precedence order:
// explicit override > health > authenticated > write > read.
func ResolveBucket(r *http.Request, overrides map[string]int, isHealth, isAuthenticated bool) (Bucket, int, bool) {
	if limit, ok := overrides[r.URL.Path]; ok {
		return Bucket(r.URL.Path), limit, true
	}
	if isHealth {
		return BucketHealth, 0, false
	}
	if isAuthenticated {
		return BucketAuthenticated, 0, false
	}
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return BucketWrite, 0, false
	default:
		return BucketRead, 0, false
	}
}

// ClientIP resolves the caller's address: X-Forwarded-For (first parsable),
// then X-Real-Ip, then the socket address.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for _, part := range splitComma(xff) {
			if addr, err := netip.ParseAddr(trimSpace(part)); err == nil {
				return addr.String()
			}
		}
	}
	if xri := r.Header.Get("X-Real-Ip"); xri != "" {
		if addr, err := netip.ParseAddr(trimSpace(xri)); err == nil {
			return addr.String()
		}
	}
	host, _, err := splitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func splitComma(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

func trimSpace(s string) string {
	for len(s) > 0 && s[0] == ' ' {
		s = s[1:]
	}
	for len(s) > 0 && s[len(s)-1] == ' ' {
		s = s[:len(s)-1]
	}
	return s
}

func splitHostPort(addr string) (string, string, error) {
	host, port, err := net.SplitHostPort(addr)
	if err == nil {
		return host, port, nil
	}
	// RemoteAddr without a port (e.g. in tests) is used as-is.
	return addr, "", nil
}

// Result is the outcome of a single admission check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAfter time.Duration
	RetryAfter time.Duration
}

// Limiter admits or rejects requests against a fixed sliding window per
// (client, bucket) key. State is a shared map guarded by one mutex; the
// per-key counter itself is updated under the same lock since window resets
// must be linearizable with the increment.
type Limiter struct {
	mu      sync.Mutex
	window  time.Duration
	limits  map[Bucket]int
	buckets map[string]*counter
	now     func() time.Time
}

type counter struct {
	count       int
	windowStart time.Time
}

// Limits maps each bucket to its admit count within one window.
type Limits map[Bucket]int

// New creates a Limiter with a W-second window and per-bucket limits.
func New(window time.Duration, limits Limits) *Limiter {
	return &Limiter{
		window:  window,
		limits:  limits,
		buckets: make(map[string]*counter),
		now:     time.Now,
	}
}

// Allow admits or rejects a single request for (clientIP, bucket), with
// limit overriding the bucket's configured limit when override is true.
func (l *Limiter) Allow(ctx context.Context, clientIP string, bucket Bucket, limit int, override bool) Result {
	if !override {
		if configured, ok := l.limits[bucket]; ok {
			limit = configured
		}
	}
	if limit <= 0 {
		return Result{Allowed: true, Limit: limit, Remaining: 0}
	}

	key := string(bucket) + ":" + clientIP
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.buckets[key]
	if !ok || now.Sub(c.windowStart) >= l.window {
		c = &counter{count: 0, windowStart: now}
		l.buckets[key] = c
	}

	resetAfter := l.window - now.Sub(c.windowStart)
	if resetAfter < 0 {
		resetAfter = 0
	}

	if c.count >= limit {
		retryAfter := time.Duration(math.Ceil(resetAfter.Seconds())) * time.Second
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		return Result{Allowed: false, Limit: limit, Remaining: 0, ResetAfter: resetAfter, RetryAfter: retryAfter}
	}

	c.count++
	return Result{Allowed: true, Limit: limit, Remaining: limit - c.count, ResetAfter: resetAfter}
}

// WriteHeaders sets the X-RateLimit-* (and, when rejected, Retry-After)
// headers on the response per spec §4.7.
func WriteHeaders(w http.ResponseWriter, res Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.Itoa(int(math.Ceil(res.ResetAfter.Seconds()))))
	if !res.Allowed {
		w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())))
	}
}
