package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/apresai/podcasto-pipeline/internal/apperr"
)

// DefaultMaxWorkers caps concurrent chunk synthesis calls. It is
// intentionally small — rate limiting happens at the TTS client, and a
// wide fan-out just means more goroutines queued behind the same token
// bucket.
const DefaultMaxWorkers = 2

// maxChunkRetries bounds how many additional times a chunk is
// re-synthesized after validation rejects it (distinct from the TTS
// client's own HTTP-level retry ladder). S5 requires exactly one retry
// to recover from a single silent-chunk response, and a chunk that's
// still silent on the retry must fail the episode rather than loop
// forever.
const maxChunkRetries = 1

// Synthesizer renders one script chunk to a WAV-wrapped audio result.
// chunkIndex is 1-based, matching the original Python chunk numbering
// used in log messages and error reporting.
type Synthesizer func(ctx context.Context, chunk string, chunkIndex int) ([]byte, int, error)

// Result is one successfully synthesized and validated chunk.
type Result struct {
	Index    int
	Audio    []byte
	Duration int
}

// Manager drives parallel chunk synthesis with validation and a
// circuit breaker over consecutive deferrable failures.
type Manager struct {
	maxCharsPerChunk int
	maxWorkers       int
	log              *slog.Logger
}

// NewManager builds a Manager. Zero values fall back to
// DefaultMaxCharsPerChunk / DefaultMaxWorkers.
func NewManager(maxCharsPerChunk, maxWorkers int, log *slog.Logger) *Manager {
	if maxCharsPerChunk <= 0 {
		maxCharsPerChunk = DefaultMaxCharsPerChunk
	}
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	return &Manager{maxCharsPerChunk: maxCharsPerChunk, maxWorkers: maxWorkers, log: log}
}

// Split breaks a script into chunks per the manager's configured chunk
// size.
func (m *Manager) Split(script string) []string {
	return SplitScript(script, m.maxCharsPerChunk)
}

// ValidateChunk applies the size/duration/header/silence checks from
// validate_audio_chunk, returning a reason string when invalid.
func ValidateChunk(data []byte, duration int, checkSilence bool) (bool, string) {
	if len(data) < 1000 {
		return false, fmt.Sprintf("chunk too small: %d bytes", len(data))
	}
	if duration < 1 {
		return false, fmt.Sprintf("duration too short: %ds", duration)
	}
	if duration > 300 {
		return false, fmt.Sprintf("duration too long: %ds", duration)
	}
	if len(data) >= wavHeaderSize && !IsValidWAVHeader(data) {
		return false, "invalid WAV format"
	}

	if checkSilence && duration > 3 {
		res := DetectExtendedSilence(data, 5.0, -45.0, 100, 5, true)
		if res.HasExtendedSilence {
			return false, fmt.Sprintf("%.1fs of extended silence detected (likely TTS failure)", res.MaxSilenceSeconds)
		}
	}

	return true, ""
}

// SynthesizeChunkWithRetry renders chunk via synth and validates the
// result, re-synthesizing up to maxRetries additional times whenever
// validation rejects the audio — most notably the extended-silence case
// (§4.3), where the TTS call itself succeeds but the model emitted
// silence instead of speech. This is the exported chunk-with-retry
// operation §4.1 names (`SynthesizeChunkWithRetry`); validation happens
// *inside* the retry loop so a transient silent render gets another
// attempt instead of failing the chunk outright, as S5 requires.
//
// A synth-level error is returned immediately without a validation
// retry — the TTS client already classifies and retries HTTP failures
// (rate limits, 5xx) on its own ladder before returning; looping here
// too would just duplicate that budget.
func SynthesizeChunkWithRetry(ctx context.Context, chunk string, chunkIndex int, synth Synthesizer, maxRetries int, log *slog.Logger) (Result, error) {
	var lastReason string
	for attempt := 0; attempt <= maxRetries; attempt++ {
		audioData, duration, err := synth(ctx, chunk, chunkIndex)
		if err != nil {
			return Result{}, err
		}

		if ok, reason := ValidateChunk(audioData, duration, true); ok {
			return Result{Index: chunkIndex, Audio: audioData, Duration: duration}, nil
		} else {
			lastReason = reason
			if log != nil {
				log.WarnContext(ctx, "chunk rejected by validation, retrying", "chunk", chunkIndex, "attempt", attempt, "reason", reason)
			}
		}
	}
	return Result{}, apperr.FatalExternal(
		fmt.Sprintf("audio: chunk %d failed validation after %d attempts: %s", chunkIndex, maxRetries+1, lastReason), nil)
}

// Process drives synth over chunks with up to m.maxWorkers concurrent
// calls via SynthesizeChunkWithRetry — each chunk is validated and, on
// rejection, re-synthesized up to maxChunkRetries times before counting
// as failed — and trips a circuit breaker after two consecutive
// Deferrable outcomes (mirroring process_chunks_parallel's
// MAX_CONSECUTIVE_RATE_LIMITS). A breaker trip cancels the remaining
// work and returns the triggering *apperr.Error so the caller can defer
// the whole episode rather than fail it outright.
//
// Results are returned sorted by chunk index; failedIndexes lists
// chunks that failed validation or synthesis without tripping the
// breaker.
func (m *Manager) Process(ctx context.Context, chunks []string, synth Synthesizer) (results []Result, failedIndexes []int, err error) {
	limit := m.maxWorkers
	if limit > len(chunks) {
		limit = len(chunks)
	}
	if limit < 1 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	breaker := newDeferralBreaker(2)

	var mu sync.Mutex
	var okResults []Result
	var failed []int

	for i, chunk := range chunks {
		idx := i + 1
		c := chunk
		g.Go(func() error {
			res, serr := SynthesizeChunkWithRetry(gctx, c, idx, synth, maxChunkRetries, m.log)
			if serr != nil {
				if apperr.IsDeferrable(serr) {
					if breaker.RecordDeferral() {
						if m.log != nil {
							m.log.ErrorContext(gctx, "chunk manager circuit breaker tripped", "chunk", idx)
						}
						return apperr.Deferrable("audio: consecutive chunk deferrals tripped circuit breaker", serr)
					}
					mu.Lock()
					failed = append(failed, idx)
					mu.Unlock()
					return nil
				}
				breaker.RecordOther()
				mu.Lock()
				failed = append(failed, idx)
				mu.Unlock()
				if m.log != nil {
					m.log.ErrorContext(gctx, "chunk synthesis failed", "chunk", idx, "error", serr)
				}
				return nil
			}

			breaker.RecordOther()
			mu.Lock()
			okResults = append(okResults, res)
			mu.Unlock()
			return nil
		})
	}

	if waitErr := g.Wait(); waitErr != nil {
		return nil, nil, waitErr
	}

	sort.Slice(okResults, func(i, j int) bool { return okResults[i].Index < okResults[j].Index })
	sort.Ints(failed)

	return okResults, failed, nil
}

// ConcatenateResults orders validated results by chunk index and joins
// them into one WAV file.
func ConcatenateResults(results []Result) ([]byte, int, error) {
	sort.Slice(results, func(i, j int) bool { return results[i].Index < results[j].Index })
	chunks := make([][]byte, len(results))
	for i, r := range results {
		chunks[i] = r.Audio
	}
	return Concatenate(chunks)
}
