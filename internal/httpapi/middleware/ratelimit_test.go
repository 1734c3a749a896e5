package middleware

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimit_AllowsThenBlocks(t *testing.T) {
	h := RateLimit(60, 2)(okHandler)
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "1.2.3.4:1234"

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != 200 {
			t.Fatalf("want 200 got %d", rr.Code)
		}
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != 429 {
		t.Fatalf("want 429 got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") != "1" {
		t.Fatalf("want Retry-After 1, got %q", rr.Header().Get("Retry-After"))
	}

	// a different client has its own bucket
	other := httptest.NewRequest("GET", "/", nil)
	other.RemoteAddr = "5.6.7.8:1234"
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, other)
	if rr.Code != 200 {
		t.Fatalf("other client: want 200 got %d", rr.Code)
	}
}

func TestLimiter_RefillAndSweep(t *testing.T) {
	now := time.Unix(1000, 0)
	l := newLimiter(1, 1, time.Minute)
	l.now = func() time.Time { return now }

	if ok, _ := l.allow("a"); !ok {
		t.Fatalf("first request should pass")
	}
	ok, wait := l.allow("a")
	if ok || wait != time.Second {
		t.Fatalf("want blocked with 1s wait, got ok=%v wait=%s", ok, wait)
	}

	now = now.Add(time.Second)
	if ok, _ := l.allow("a"); !ok {
		t.Fatalf("should pass after refill")
	}

	now = now.Add(2 * time.Minute)
	l.allow("b")
	if _, ok := l.m["a"]; ok {
		t.Fatalf("idle bucket should have been swept")
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "9.9.9.9:555"
	if got := clientIP(r); got != "9.9.9.9" {
		t.Fatalf("got %q", got)
	}
	r.Header.Set("X-Forwarded-For", " 1.1.1.1 , 2.2.2.2")
	if got := clientIP(r); got != "1.1.1.1" {
		t.Fatalf("got %q", got)
	}
}
