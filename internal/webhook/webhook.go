// Package webhook sends the synthesizer's best-effort completion
// callback to the hosting API, grounded on
// AudioGenerationHandler._send_completion_callback.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const callbackTimeout = 30 * time.Second

// Notifier posts episode-completion callbacks. A zero-value Notifier
// (empty baseURL or secret) is valid and simply skips every call — the
// callback is an optimization, never a requirement for episode
// completion.
type Notifier struct {
	httpClient *http.Client
	baseURL    string
	secret     string
	log        *slog.Logger
}

// New builds a Notifier. baseURL/secret come from config.APIBaseURL and
// config.LambdaCallbackSecret; either may be empty.
func New(baseURL, secret string, log *slog.Logger) *Notifier {
	return &Notifier{
		httpClient: &http.Client{Timeout: callbackTimeout},
		baseURL:    baseURL,
		secret:     secret,
		log:        log,
	}
}

type completionPayload struct {
	Status    string  `json:"status"`
	AudioURL  string  `json:"audio_url"`
	Duration  float64 `json:"duration"`
	Timestamp string  `json:"timestamp"`
}

// NotifyCompleted posts to {baseURL}/api/episodes/{episodeID}/completed.
// Any failure — missing configuration, network error, non-200 response —
// is logged and swallowed: the episode is already marked completed in
// the database by the time this runs, and this call only triggers
// optional immediate post-processing on the API side.
func (n *Notifier) NotifyCompleted(ctx context.Context, episodeID, audioURL string, durationSeconds int) {
	if n.baseURL == "" || n.secret == "" {
		if n.log != nil {
			n.log.WarnContext(ctx, "webhook: missing callback configuration, skipping", "episode_id", episodeID)
		}
		return
	}

	payload, err := json.Marshal(completionPayload{
		Status:    "completed",
		AudioURL:  audioURL,
		Duration:  float64(durationSeconds),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		if n.log != nil {
			n.log.WarnContext(ctx, "webhook: marshal completion payload", "episode_id", episodeID, "error", err)
		}
		return
	}

	url := fmt.Sprintf("%s/api/episodes/%s/completed", n.baseURL, episodeID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		if n.log != nil {
			n.log.WarnContext(ctx, "webhook: build completion request", "episode_id", episodeID, "error", err)
		}
		return
	}
	req.Header.Set("Authorization", "Bearer "+n.secret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		if n.log != nil {
			n.log.WarnContext(ctx, "webhook: completion callback failed", "episode_id", episodeID, "error", err)
		}
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if n.log != nil {
			n.log.WarnContext(ctx, "webhook: completion callback rejected", "episode_id", episodeID, "status", resp.StatusCode)
		}
		return
	}

	if n.log != nil {
		n.log.InfoContext(ctx, "webhook: completion callback sent", "episode_id", episodeID)
	}
}
