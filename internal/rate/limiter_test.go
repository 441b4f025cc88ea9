package rate

import (
	"net/http"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestLimiter_AllowAndThrottle(t *testing.T) {
	defer goleak.VerifyNone(t)

	lm := NewLimiterMap(2, 1, 200*time.Millisecond) // 2 req/min, burst 1 (strict)
	defer lm.Stop()
	key := "ip:1.2.3.4"
	if !lm.Allow(key) {
		t.Fatalf("first should allow")
	}
	if lm.Allow(key) {
		t.Fatalf("second should be throttled")
	}
	if !lm.Allow("ip:4.3.2.1") {
		t.Fatalf("other client should allow")
	}
}

func TestLimiter_ReaperEvictsIdle(t *testing.T) {
	defer goleak.VerifyNone(t)

	lm := NewLimiterMap(100, 1, 50*time.Millisecond)
	defer lm.Stop()
	key := "ip:5.6.7.8"
	if !lm.Allow(key) {
		t.Fatalf("allow")
	}
	time.Sleep(150 * time.Millisecond)
	if n := lm.Len(); n != 0 {
		t.Fatalf("expected eviction, len=%d", n)
	}
	if !lm.Allow(key) {
		t.Fatalf("allow after eviction")
	}
}

func TestLimiter_StopTwice(t *testing.T) {
	defer goleak.VerifyNone(t)

	lm := NewLimiterMap(1, 1, time.Hour)
	lm.Stop()
	lm.Stop()
}

func TestIPFromRequest_HeaderAndRemoteAddr(t *testing.T) {
	r, _ := http.NewRequest(http.MethodGet, "http://x/", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.1, 10.0.0.1")
	if ip := IPFromRequest(r); ip != "203.0.113.1" {
		t.Fatalf("xff ip=%s", ip)
	}

	r2, _ := http.NewRequest(http.MethodGet, "http://x/", nil)
	r2.RemoteAddr = "192.0.2.5:1234"
	if ip := IPFromRequest(r2); ip != "192.0.2.5" {
		t.Fatalf("remote ip=%s", ip)
	}
	if k := ClientKey(r2, ""); k != "ip:192.0.2.5" {
		t.Fatalf("key=%s", k)
	}
	if k := ClientKey(r2, "abcd1234"); k != "key:abcd1234" {
		t.Fatalf("key=%s", k)
	}
}
