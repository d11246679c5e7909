// Package tts drives Gemini's multi-speaker text-to-speech API: request
// shaping, rate limiting, retry/backoff, and response-error classification
// into the apperr taxonomy.
package tts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/apresai/podcasto-pipeline/internal/apperr"
)

// callTimeout bounds a single generateContent call — long enough for the
// model to render a multi-minute chunk, short enough that a hung request
// doesn't stall an entire Lambda invocation.
const callTimeout = 480 * time.Second

// backoffSchedule is the fixed retry-delay ladder for transient upstream
// failures, capped at 20s rather than growing unbounded.
var backoffSchedule = []time.Duration{5 * time.Second, 10 * time.Second, 20 * time.Second}

const maxRetries = 3

// Chunk is one synthesized audio result: raw PCM plus the sample rate the
// model reported.
type Chunk struct {
	PCM        []byte
	SampleRate int
}

// Client is the TTS Client component (§4.1): a rate-limited, retrying
// wrapper over the raw Gemini transport.
type Client struct {
	gemini  *geminiClient
	limiter *RateLimiter
	log     *slog.Logger

	// sleepOverride replaces the real backoff wait in tests; nil uses the
	// real clock.
	sleepOverride func(ctx context.Context, d time.Duration)
}

// NewClient builds a Client. requestsPerMinute and refillPeriod configure
// the shared token bucket; pass 0 for refillPeriod to default to one
// minute.
func NewClient(apiKey string, requestsPerMinute int, refillPeriod time.Duration, log *slog.Logger) *Client {
	return &Client{
		gemini:  newGeminiClient(apiKey),
		limiter: NewRateLimiter(requestsPerMinute, refillPeriod),
		log:     log,
	}
}

// SynthesizeMulti renders one chunk of a two-speaker script. role1/role2
// must match the speaker labels used in prompt's dialogue markup.
func (c *Client) SynthesizeMulti(ctx context.Context, prompt, role1, voice1, role2, voice2 string) (Chunk, error) {
	return c.synthesizeChunkWithRetry(ctx, prompt, []speakerConfig{
		{Role: role1, Voice: voice1},
		{Role: role2, Voice: voice2},
	})
}

// SynthesizeSingle renders one chunk of a single-speaker script.
func (c *Client) SynthesizeSingle(ctx context.Context, prompt, voice string) (Chunk, error) {
	return c.synthesizeChunkWithRetry(ctx, prompt, []speakerConfig{{Voice: voice}})
}

// synthesizeChunkWithRetry is the shared retry/backoff/classification path
// for both synthesis modes (§4.1 "Chunk synthesis with retry").
//
// Classification:
//   - HTTP 429 (rate limited despite our own pacing) converts to Deferrable
//     immediately, carrying any parsed retry-after delay — it is never
//     retried in place. Re-issuing a call against an endpoint that just
//     told us its quota is exhausted would burn the token bucket on a call
//     certain to fail again, the cascading-rate-rejection pattern §4.1/§9
//     warn against; the whole episode is requeued instead.
//   - HTTP 5xx ("transient"): retried up to maxRetries times on the fixed
//     backoff ladder; exhausting retries yields a Deferrable error so the
//     caller can requeue the whole episode rather than fail it outright.
//   - Any other non-2xx response is treated as a permanent rejection of
//     this request (bad prompt, invalid voice, auth failure) and returned
//     as FatalExternal without retrying.
func (c *Client) synthesizeChunkWithRetry(ctx context.Context, prompt string, speakers []speakerConfig) (Chunk, error) {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Acquire(ctx); err != nil {
			return Chunk{}, apperr.TransientLocal("tts: rate limiter wait cancelled", err)
		}

		callCtx, cancel := context.WithTimeout(ctx, callTimeout)
		pcm, sampleRate, err := c.gemini.synthesizePCM(callCtx, prompt, speakers)
		cancel()

		if err == nil {
			return Chunk{PCM: pcm, SampleRate: sampleRate}, nil
		}

		var httpErr *httpError
		if !errors.As(err, &httpErr) {
			// Transport-level failure (DNS, connection reset, etc.) — retried
			// up to maxRetries times on the same ladder, since it's as likely
			// to be a local blip as an upstream one.
			lastErr = err
			if attempt < maxRetries {
				c.sleep(ctx, backoffSchedule[attempt])
				continue
			}
			return Chunk{}, apperr.Deferrable("tts: transport failure exhausted retries", err)
		}

		lastErr = httpErr
		if httpErr.StatusCode == 429 {
			c.log.WarnContext(ctx, "tts call rate limited, deferring episode", "retry_after", httpErr.RetryAfter)
			return Chunk{}, apperr.Deferrable(
				fmt.Sprintf("tts: rate limited, retry after %s", httpErr.RetryAfter),
				httpErr,
			).WithDetails(map[string]any{"retry_after_seconds": httpErr.RetryAfter.Seconds()})
		}

		if httpErr.StatusCode >= 500 {
			if attempt < maxRetries {
				delay := backoffSchedule[attempt]
				if delay > 20*time.Second {
					delay = 20 * time.Second
				}
				c.log.WarnContext(ctx, "tts call failed, retrying", "status", httpErr.StatusCode, "attempt", attempt, "delay", delay)
				c.sleep(ctx, delay)
				continue
			}
			return Chunk{}, apperr.Deferrable(
				fmt.Sprintf("tts: upstream error %d exhausted %d retries", httpErr.StatusCode, maxRetries),
				httpErr,
			)
		}

		return Chunk{}, apperr.FatalExternal(fmt.Sprintf("tts: request rejected with status %d", httpErr.StatusCode), httpErr)
	}

	return Chunk{}, apperr.Deferrable("tts: retries exhausted", lastErr)
}

func (c *Client) sleep(ctx context.Context, d time.Duration) {
	if c.sleepOverride != nil {
		c.sleepOverride(ctx, d)
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
