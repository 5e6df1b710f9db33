// Package ratelimit implements per-client token-bucket throttling for
// the validate HTTP and WebSocket endpoints.
package ratelimit

import (
	"sync"
	"time"
)

// Kind identifies which endpoint a request is throttled against.
type Kind string

const (
	KindValidate       Kind = "validate"
	KindValidateStream Kind = "validate_stream"
)

// Config defines a token-bucket rate limit.
type Config struct {
	// Rate is the number of tokens added per second.
	Rate float64
	// Burst is the maximum number of tokens (bucket capacity).
	Burst int
}

// A one-shot validate call is cheap but still worth throttling per
// client to keep the dictionary-shard cache warm-up fair. The stream
// kind gets a more generous bucket since one WebSocket connection is
// expected to carry many messages over its lifetime.
var kindLimits = map[Kind]Config{
	KindValidate:       {Rate: 2, Burst: 5},
	KindValidateStream: {Rate: 5, Burst: 10},
}

// unknownKindLimit applies to any Kind this package was not told
// about, which should only happen if a caller passes a typo.
var unknownKindLimit = Config{Rate: 1, Burst: 2}

// globalLimit applies to all requests from a client regardless of kind.
var globalLimit = Config{Rate: 10, Burst: 20}

// tokenBucket implements the classic token-bucket algorithm.
type tokenBucket struct {
	tokens    float64
	max       float64
	rate      float64
	lastCheck time.Time
}

func newTokenBucket(rate float64, burst int) *tokenBucket {
	return &tokenBucket{
		tokens:    float64(burst),
		max:       float64(burst),
		rate:      rate,
		lastCheck: time.Now(),
	}
}

func (tb *tokenBucket) allow() bool {
	now := time.Now()
	elapsed := now.Sub(tb.lastCheck).Seconds()
	tb.lastCheck = now

	tb.tokens += elapsed * tb.rate
	if tb.tokens > tb.max {
		tb.tokens = tb.max
	}
	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

// ClientLimiter tracks rate limits for one API client: one WebSocket
// connection for its lifetime, or one Registry entry for a client
// making separate HTTP calls.
type ClientLimiter struct {
	mu      sync.Mutex
	global  *tokenBucket
	buckets map[Kind]*tokenBucket
	// violations counts denials, less one for each allowed request, for
	// escalating response.
	violations int
}

// NewClientLimiter creates a rate limiter for one client.
func NewClientLimiter() *ClientLimiter {
	return &ClientLimiter{
		global:  newTokenBucket(globalLimit.Rate, globalLimit.Burst),
		buckets: make(map[Kind]*tokenBucket),
	}
}

// Allow reports whether a request of the given kind is allowed right
// now, and whether the caller has violated limits so persistently that
// the connection should be dropped. For a stateless HTTP caller,
// shouldDisconnect has no connection to sever; callers there should
// treat it as "this client is still over budget" and keep returning
// 429 rather than acting on it directly.
func (rl *ClientLimiter) Allow(kind Kind) (allowed bool, shouldDisconnect bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if !rl.global.allow() {
		rl.violations++
		return false, rl.violations >= 50
	}

	config, ok := kindLimits[kind]
	if !ok {
		config = unknownKindLimit
	}

	bucket, exists := rl.buckets[kind]
	if !exists {
		bucket = newTokenBucket(config.Rate, config.Burst)
		rl.buckets[kind] = bucket
	}

	if !bucket.allow() {
		rl.violations++
		return false, rl.violations >= 50
	}

	if rl.violations > 0 {
		rl.violations--
	}
	return true, false
}

// registryCleanupInterval is how often a started Registry sweeps for
// clients that have gone quiet.
const registryCleanupInterval = 1 * time.Minute

// registryMaxIdle is how long a client's entry survives with no
// requests before it is evicted.
const registryMaxIdle = 10 * time.Minute

// registryEntry pairs a client's limiter with the last time it was
// looked up, so an idle sweep knows what to evict.
type registryEntry struct {
	limiter    *ClientLimiter
	lastLookup time.Time
}

// Registry holds one ClientLimiter per client key. A WebSocket
// connection already gives the server one long-lived object to hang
// a ClientLimiter on; a sequence of separate HTTP requests from the
// same client does not, so the HTTP handler looks its limiter up here
// instead, keyed by the client's host (the HTTP handler strips the
// ephemeral source port before the lookup). Every distinct key adds an
// entry, so a Registry must evict idle ones or it grows without bound.
type Registry struct {
	mu      sync.Mutex
	clients map[string]*registryEntry
	// done stops the cleanup goroutine started by StartCleanup.
	done chan struct{}
}

// NewRegistry creates an empty client registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]*registryEntry),
		done:    make(chan struct{}),
	}
}

// Get returns the ClientLimiter for key, creating one the first time
// key is seen.
func (r *Registry) Get(key string) *ClientLimiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.clients[key]
	if !ok {
		entry = &registryEntry{limiter: NewClientLimiter()}
		r.clients[key] = entry
	}
	entry.lastLookup = time.Now()
	return entry.limiter
}

// StartCleanup starts a background goroutine that periodically evicts
// clients idle longer than registryMaxIdle.
func (r *Registry) StartCleanup() {
	go func() {
		ticker := time.NewTicker(registryCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-r.done:
				return
			case <-ticker.C:
				r.evictIdle(registryMaxIdle)
			}
		}
	}()
}

// StopCleanup stops the background cleanup goroutine.
func (r *Registry) StopCleanup() {
	close(r.done)
}

func (r *Registry) evictIdle(maxIdle time.Duration) {
	now := time.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, entry := range r.clients {
		if now.Sub(entry.lastLookup) > maxIdle {
			delete(r.clients, key)
		}
	}
}
