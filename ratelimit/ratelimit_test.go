package ratelimit

import (
	"testing"
	"time"
)

func TestTokenBucketBasicAllow(t *testing.T) {
	tb := newTokenBucket(10, 3)
	for i := 0; i < 3; i++ {
		if !tb.allow() {
			t.Fatalf("expected token %d to be allowed", i)
		}
	}
	if tb.allow() {
		t.Fatal("expected bucket to be exhausted after burst")
	}
}

func TestTokenBucketRefill(t *testing.T) {
	tb := newTokenBucket(20, 1)
	if !tb.allow() {
		t.Fatal("expected first token to be allowed")
	}
	if tb.allow() {
		t.Fatal("expected bucket to be empty immediately after")
	}
	time.Sleep(150 * time.Millisecond)
	if !tb.allow() {
		t.Fatal("expected bucket to have refilled after waiting")
	}
}

func TestClientLimiterAllowNormal(t *testing.T) {
	rl := NewClientLimiter()
	allowed, disconnect := rl.Allow(KindValidate)
	if !allowed || disconnect {
		t.Fatalf("Allow(validate) = %v, %v, want true, false", allowed, disconnect)
	}
}

func TestClientLimiterPerKindLimit(t *testing.T) {
	rl := NewClientLimiter()
	for i := 0; i < kindLimits[KindValidate].Burst; i++ {
		if allowed, _ := rl.Allow(KindValidate); !allowed {
			t.Fatalf("expected validate call %d within burst to be allowed", i)
		}
	}
	if allowed, _ := rl.Allow(KindValidate); allowed {
		t.Fatal("expected validate call beyond burst to be denied")
	}
	// A different kind still has its own independent bucket.
	if allowed, _ := rl.Allow(KindValidateStream); !allowed {
		t.Fatal("expected validate_stream to be unaffected by validate's exhausted bucket")
	}
}

func TestClientLimiterGlobalLimit(t *testing.T) {
	rl := NewClientLimiter()
	kinds := []Kind{KindValidate, KindValidateStream}
	allowedCount := 0
	for i := 0; i < int(globalLimit.Burst)+5; i++ {
		kind := kinds[i%len(kinds)]
		if allowed, _ := rl.Allow(kind); allowed {
			allowedCount++
		}
	}
	if allowedCount > int(globalLimit.Burst) {
		t.Errorf("allowed %d requests, want at most global burst %d", allowedCount, globalLimit.Burst)
	}
}

func TestClientLimiterDisconnectOnExcessiveViolations(t *testing.T) {
	rl := NewClientLimiter()
	// Drain the bucket for "validate" first.
	for i := 0; i < kindLimits[KindValidate].Burst; i++ {
		rl.Allow(KindValidate)
	}

	var disconnect bool
	for i := 0; i < 60; i++ {
		_, disconnect = rl.Allow(KindValidate)
		if disconnect {
			break
		}
	}
	if !disconnect {
		t.Fatal("expected sustained violations to eventually request disconnect")
	}
}

func TestClientLimiterUnknownKindUsesFallback(t *testing.T) {
	rl := NewClientLimiter()
	allowed, disconnect := rl.Allow(Kind("bogus_kind"))
	if !allowed || disconnect {
		t.Fatalf("Allow(bogus_kind) = %v, %v, want true, false for first call", allowed, disconnect)
	}
}

func TestRegistryReturnsSameLimiterForSameKey(t *testing.T) {
	reg := NewRegistry()
	a := reg.Get("127.0.0.1:1111")
	b := reg.Get("127.0.0.1:1111")
	if a != b {
		t.Fatal("expected Get to return the same ClientLimiter for the same key")
	}
}

func TestRegistryIsolatesDistinctKeys(t *testing.T) {
	reg := NewRegistry()
	a := reg.Get("client-a")
	b := reg.Get("client-b")

	for i := 0; i < kindLimits[KindValidate].Burst; i++ {
		a.Allow(KindValidate)
	}
	if allowed, _ := a.Allow(KindValidate); allowed {
		t.Fatal("expected client-a's bucket to be exhausted")
	}
	if allowed, _ := b.Allow(KindValidate); !allowed {
		t.Fatal("expected client-b to have its own independent bucket")
	}
}

func TestRegistryEvictIdleRemovesOnlyStaleEntries(t *testing.T) {
	reg := NewRegistry()
	reg.Get("stale-client")
	reg.clients["stale-client"].lastLookup = time.Now().Add(-1 * time.Hour)
	reg.Get("fresh-client")

	reg.evictIdle(10 * time.Minute)

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, ok := reg.clients["stale-client"]; ok {
		t.Error("expected stale-client to be evicted")
	}
	if _, ok := reg.clients["fresh-client"]; !ok {
		t.Error("expected fresh-client to survive the sweep")
	}
}
