package audio

import (
	"context"
	"errors"
	"testing"

	"github.com/apresai/podcasto-pipeline/internal/apperr"
)

func toneChunk(seconds float64) ([]byte, int) {
	wav := makeToneWAV(24000, seconds, 20000)
	return wav, Duration(wav)
}

func TestManagerProcessAllSucceed(t *testing.T) {
	m := NewManager(0, 2, nil)
	chunks := []string{"one", "two", "three"}

	synth := func(_ context.Context, _ string, idx int) ([]byte, int, error) {
		audio, dur := toneChunk(2.0)
		return audio, dur, nil
	}

	results, failed, err := m.Process(context.Background(), chunks, synth)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(failed) != 0 {
		t.Fatalf("expected no failures, got %v", failed)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Index != i+1 {
			t.Errorf("results not sorted by index: %+v", results)
		}
	}
}

func TestManagerProcessSingleFailureDoesNotTripBreaker(t *testing.T) {
	m := NewManager(0, 2, nil)
	chunks := []string{"one", "two"}

	synth := func(_ context.Context, _ string, idx int) ([]byte, int, error) {
		if idx == 1 {
			return nil, 0, apperr.Deferrable("simulated deferral", errors.New("rate limited"))
		}
		audio, dur := toneChunk(2.0)
		return audio, dur, nil
	}

	results, failed, err := m.Process(context.Background(), chunks, synth)
	if err != nil {
		t.Fatalf("unexpected breaker trip on single deferral: %v", err)
	}
	if len(results) != 1 || len(failed) != 1 {
		t.Fatalf("expected 1 result and 1 failure, got results=%d failed=%d", len(results), len(failed))
	}
}

func TestManagerProcessConsecutiveDeferralsTripBreaker(t *testing.T) {
	m := NewManager(0, 2, nil)
	chunks := []string{"one", "two", "three"}

	synth := func(_ context.Context, _ string, idx int) ([]byte, int, error) {
		return nil, 0, apperr.Deferrable("simulated deferral", errors.New("rate limited"))
	}

	_, _, err := m.Process(context.Background(), chunks, synth)
	if err == nil {
		t.Fatalf("expected circuit breaker to trip and return an error")
	}
	if !apperr.IsDeferrable(err) {
		t.Errorf("expected a deferrable error, got %v", err)
	}
}

func TestManagerProcessRejectsInvalidAudio(t *testing.T) {
	m := NewManager(0, 1, nil)
	chunks := []string{"one"}

	synth := func(_ context.Context, _ string, idx int) ([]byte, int, error) {
		return []byte("too small"), 2, nil
	}

	results, failed, err := m.Process(context.Background(), chunks, synth)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 || len(failed) != 1 {
		t.Fatalf("expected the undersized chunk to fail validation, got results=%d failed=%v", len(results), failed)
	}
}

func TestManagerProcessRetriesOnceAfterSilentChunk(t *testing.T) {
	m := NewManager(0, 1, nil)
	chunks := []string{"one"}

	var calls int
	synth := func(_ context.Context, _ string, idx int) ([]byte, int, error) {
		calls++
		if calls == 1 {
			// A silent rendering: valid WAV framing but long enough to
			// trip the extended-silence detector (S5's injected failure).
			return makeToneWAV(24000, 6.5, 0), 6, nil
		}
		audio, dur := toneChunk(2.0)
		return audio, dur, nil
	}

	results, failed, err := m.Process(context.Background(), chunks, synth)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(failed) != 0 || len(results) != 1 {
		t.Fatalf("expected the retry to recover the chunk, got results=%d failed=%v", len(results), failed)
	}
	if calls != 2 {
		t.Fatalf("expected exactly one retry (2 calls), got %d", calls)
	}
}

func TestManagerProcessFailsAfterRetryBudgetExhausted(t *testing.T) {
	m := NewManager(0, 1, nil)
	chunks := []string{"one"}

	var calls int
	synth := func(_ context.Context, _ string, idx int) ([]byte, int, error) {
		calls++
		return makeToneWAV(24000, 6.5, 0), 6, nil
	}

	results, failed, err := m.Process(context.Background(), chunks, synth)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 || len(failed) != 1 {
		t.Fatalf("expected the chunk to fail after exhausting the retry budget, got results=%d failed=%v", len(results), failed)
	}
	if calls != maxChunkRetries+1 {
		t.Fatalf("expected exactly %d attempts, got %d", maxChunkRetries+1, calls)
	}
}

func TestConcatenateResultsOrdersByIndex(t *testing.T) {
	a, _ := toneChunk(1.0)
	b, _ := toneChunk(1.0)
	results := []Result{{Index: 2, Audio: b}, {Index: 1, Audio: a}}

	combined, _, err := ConcatenateResults(results)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(combined) == 0 {
		t.Fatalf("expected non-empty combined audio")
	}
}
