package ratelimit

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"diary-ai-gateway/middleware/ratelimit/domain"
	"diary-ai-gateway/middleware/ratelimit/infra"
)

func fixedClock(sec int64) domain.Clock {
	return func() time.Time { return time.Unix(sec, 0) }
}

func okHandler(calls *atomic.Int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "ok")
	})
}

func doRequest(h http.Handler, remote string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodGet, "http://example/api/ai/transform", nil)
	r.RemoteAddr = remote
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestMiddleware_FifteenInOneSecond(t *testing.T) {
	var calls atomic.Int64
	h := Middleware(Options{
		Store: infra.NewMemoryWindowStore(),
		Limit: 10,
		Clock: fixedClock(1_700_000_000),
	})(okHandler(&calls))

	ok, rejected := 0, 0
	for i := 0; i < 15; i++ {
		w := doRequest(h, "10.0.0.1:1234")
		switch w.Code {
		case http.StatusOK:
			ok++
		case http.StatusTooManyRequests:
			rejected++
			if got := w.Body.String(); got != `{"error":"rate_limited"}` {
				t.Fatalf("unexpected rejection body %q", got)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Fatalf("expected JSON content type, got %q", ct)
			}
			if ra := w.Header().Get("Retry-After"); ra != "1" {
				t.Fatalf("expected Retry-After=1, got %q", ra)
			}
		default:
			t.Fatalf("unexpected status %d", w.Code)
		}
	}

	if ok != 10 || rejected != 5 {
		t.Fatalf("expected 10 admitted / 5 rejected, got %d / %d", ok, rejected)
	}
	if calls.Load() != 10 {
		t.Fatalf("expected next handler called 10 times, got %d", calls.Load())
	}
}

func TestMiddleware_NewSecondResetsWindow(t *testing.T) {
	var calls atomic.Int64
	sec := int64(100)
	clock := func() time.Time { return time.Unix(sec, 0) }

	h := Middleware(Options{
		Store: infra.NewMemoryWindowStore(),
		Limit: 2,
		Clock: clock,
	})(okHandler(&calls))

	for i := 0; i < 3; i++ {
		doRequest(h, "10.0.0.1:1")
	}
	if w := doRequest(h, "10.0.0.1:1"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 within same second, got %d", w.Code)
	}

	sec++
	if w := doRequest(h, "10.0.0.1:1"); w.Code != http.StatusOK {
		t.Fatalf("expected 200 after second rollover, got %d", w.Code)
	}
}

func TestMiddleware_AdmissionAddsNoHeaders(t *testing.T) {
	var calls atomic.Int64
	h := Middleware(Options{
		Store: infra.NewMemoryWindowStore(),
		Clock: fixedClock(1),
	})(okHandler(&calls))

	w := doRequest(h, "10.0.0.1:1")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	for name := range w.Header() {
		if name != "Content-Type" {
			t.Fatalf("unexpected header on admission: %s", name)
		}
	}
}

func TestMiddleware_KeyByHeader(t *testing.T) {
	var calls atomic.Int64
	h := Middleware(Options{
		Store:     infra.NewMemoryWindowStore(),
		Limit:     1,
		KeyHeader: "X-Api-Key",
		Clock:     fixedClock(5),
	})(okHandler(&calls))

	// duas chaves diferentes => cada uma tem sua própria janela
	for _, k := range []string{"k1", "k2"} {
		r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
		r.Header.Set("X-Api-Key", k)
		r.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200 for key %s, got %d", k, w.Code)
		}
	}
}

func TestMiddleware_ConcurrentSameKey(t *testing.T) {
	var calls atomic.Int64
	h := Middleware(Options{
		Store: infra.NewMemoryWindowStore(),
		Limit: 10,
		Clock: fixedClock(42),
	})(okHandler(&calls))

	var rejected atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if w := doRequest(h, "10.0.0.7:1"); w.Code == http.StatusTooManyRequests {
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	if calls.Load() != 10 || rejected.Load() != 190 {
		t.Fatalf("expected 10 admitted / 190 rejected, got %d / %d", calls.Load(), rejected.Load())
	}
}

type failingStore struct{}

func (failingStore) Hit(context.Context, domain.Key, int64) (int64, error) {
	return 0, errors.New("redis down")
}

func TestMiddleware_StoreFailureFailsOpen(t *testing.T) {
	var calls atomic.Int64
	h := Middleware(Options{Store: failingStore{}, Limit: 1})(okHandler(&calls))

	for i := 0; i < 3; i++ {
		if w := doRequest(h, "10.0.0.1:1"); w.Code != http.StatusOK {
			t.Fatalf("expected 200 when store fails, got %d", w.Code)
		}
	}
}

func TestMiddleware_RecordsStats(t *testing.T) {
	var calls atomic.Int64
	stats := infra.NewMemoryStatsStore()
	h := Middleware(Options{
		Store: infra.NewMemoryWindowStore(),
		Limit: 1,
		Clock: fixedClock(9),
		Stats: stats,
	})(okHandler(&calls))

	doRequest(h, "10.0.0.1:1")
	doRequest(h, "10.0.0.1:1")

	snap := stats.Snapshot()
	if snap.Total.Allowed != 1 || snap.Total.Denied != 1 {
		t.Fatalf("unexpected totals: %+v", snap.Total)
	}
	if snap.PeakCount != 2 {
		t.Fatalf("expected peak count 2, got %d", snap.PeakCount)
	}
}

func TestMiddleware_RetryAfterUsesSeconds(t *testing.T) {
	var calls atomic.Int64
	h := Middleware(Options{
		Store:      infra.NewMemoryWindowStore(),
		Limit:      1,
		Clock:      fixedClock(3),
		RetryAfter: 2500 * time.Millisecond,
	})(okHandler(&calls))

	doRequest(h, "10.0.0.1:1234")
	w := doRequest(h, "10.0.0.1:1234")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "2" {
		// int(2.5s.Seconds()) == 2
		t.Fatalf("expected Retry-After=2, got %q", got)
	}
}
