package tts

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/apresai/podcasto-pipeline/internal/apperr"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(serverURL string) *Client {
	return &Client{
		gemini:  &geminiClient{apiKey: "test-key", httpClient: http.DefaultClient, endpointURL: serverURL},
		limiter: NewRateLimiter(100, time.Minute),
		log:     testLogger(),
	}
}

// A 429 must become Deferrable on the first response, without the client
// re-issuing the call against the already rate-limited endpoint.
func TestSynthesizeChunkWithRetryDefersImmediatelyOn429(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"retryDelay":"12s"}}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	_, err := c.SynthesizeSingle(context.Background(), "hello", "Kore")

	if calls != 1 {
		t.Fatalf("expected exactly 1 call on 429, got %d", calls)
	}
	if !apperr.IsDeferrable(err) {
		t.Fatalf("expected a deferrable error, got %v", err)
	}
	appErr, ok := err.(*apperr.Error)
	if !ok {
		t.Fatalf("expected *apperr.Error, got %T", err)
	}
	if got := appErr.Details["retry_after_seconds"]; got != 12.0 {
		t.Errorf("expected retry_after_seconds=12, got %v", got)
	}
}

// A 5xx retries on the backoff ladder before eventually deferring.
func TestSynthesizeChunkWithRetryRetriesThenDefersOn5xx(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	c.sleepOverride = func(ctx context.Context, d time.Duration) {} // skip real sleeps in the test

	_, err := c.SynthesizeSingle(context.Background(), "hello", "Kore")

	if calls != maxRetries+1 {
		t.Fatalf("expected %d calls (initial + retries), got %d", maxRetries+1, calls)
	}
	if !apperr.IsDeferrable(err) {
		t.Fatalf("expected a deferrable error, got %v", err)
	}
}

