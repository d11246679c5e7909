// Package collector is the top-level orchestrator for the collection
// stage: it loads an episode and its podcast configuration, fetches and
// filters a channel's recent history, uploads the result as the
// episode's content artifact, and enqueues the preprocessor's message.
// Grounded on ChannelProcessor.process (channel_processor.py) and
// lambda_handler.py's per-config loop, reshaped into the pipeline's
// SQS-worker convention the other two stages already use.
package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/apresai/podcasto-pipeline/internal/apperr"
	coll "github.com/apresai/podcasto-pipeline/internal/collector"
	"github.com/apresai/podcasto-pipeline/internal/episode"
	"github.com/apresai/podcasto-pipeline/internal/queue"
	"github.com/apresai/podcasto-pipeline/internal/store/blob"
)

// defaultWindowHours is used when neither the message nor the podcast
// configuration names an explicit collection window.
const defaultWindowHours = 24

// Store is the subset of the relational store this worker needs.
type Store interface {
	GetEpisode(ctx context.Context, id string) (*episode.Episode, error)
	GetPodcastConfigByID(ctx context.Context, configID string) (*episode.PodcastConfiguration, error)
	UpdateEpisodeContentURL(ctx context.Context, episodeID, contentURL string, status episode.Status) error
}

// doneStages are stages an episode reaching this worker a second time (a
// redelivered or replayed message) may already be past — collection is
// idempotent against them, matching the original's "already processed,
// skip" guard.
var doneStages = map[episode.Stage]bool{
	episode.StageTelegramCompleted: true,
	episode.StageScriptQueued:      true,
	episode.StageScriptProcessing:  true,
	episode.StageScriptCompleted:   true,
	episode.StageScriptFailed:      true,
	episode.StageAudioQueued:       true,
	episode.StageAudioProcessing:   true,
	episode.StageAudioCompleted:    true,
	episode.StagePublished:         true,
}

// content is the JSON shape uploaded as content.json, read back by the
// preprocessor.
type content struct {
	Channel    string          `json:"channel"`
	Messages   []coll.Message  `json:"messages"`
	MediaStats coll.MediaStats `json:"media_stats"`
	Source     string          `json:"source"`
}

// Worker drives one collection run per invocation.
type Worker struct {
	store   Store
	blobs   *blob.Store
	source  coll.Source
	tracker *episode.Tracker
	sender  *queue.Sender[episode.PreprocessMessage]
	log     *slog.Logger
}

// New builds a Worker.
func New(store Store, blobs *blob.Store, source coll.Source, tracker *episode.Tracker, sender *queue.Sender[episode.PreprocessMessage], log *slog.Logger) *Worker {
	return &Worker{store: store, blobs: blobs, source: source, tracker: tracker, sender: sender, log: log}
}

// HandleMessage processes one CollectMessage end to end. Collection
// failures are never deferred — unlike the synthesizer's rate-limited
// TTS calls, a broken channel resolution or a blown invocation budget
// here will not resolve itself on redelivery, so any error marks the
// episode permanently failed.
func (w *Worker) HandleMessage(ctx context.Context, msg episode.CollectMessage) error {
	ep, err := w.store.GetEpisode(ctx, msg.EpisodeID)
	if err != nil {
		return apperr.Validation("collector: load episode", err)
	}

	if doneStages[ep.CurrentStage] {
		w.log.InfoContext(ctx, "collector: episode already past collection, skipping", "episode_id", ep.ID, "stage", ep.CurrentStage)
		return nil
	}

	cfg, err := w.store.GetPodcastConfigByID(ctx, ep.PodcastConfigID)
	if err != nil {
		return w.fail(ctx, ep.ID, apperr.Validation("collector: load podcast config", err))
	}

	channel := msg.TelegramChannel
	if channel == "" {
		channel = cfg.TelegramChannel
	}
	if channel == "" {
		return w.fail(ctx, ep.ID, apperr.Validation("collector: no telegram channel configured", nil))
	}

	since, until := resolveWindow(msg, cfg)

	if err := w.tracker.LogStageStart(ctx, ep.ID, episode.StageTelegramProcessing, map[string]any{"channel": channel}); err != nil {
		return fmt.Errorf("collector: log stage start: %w", err)
	}

	messages, stats, err := coll.Process(ctx, w.source, w.blobs, coll.Options{
		PodcastID:       ep.PodcastID,
		EpisodeID:       ep.ID,
		Channel:         channel,
		Since:           since,
		Until:           until,
		MediaTypes:      cfg.MediaTypes,
		FilteredDomains: cfg.FilteredDomains,
	}, w.log)
	if err != nil {
		return w.fail(ctx, ep.ID, apperr.FatalExternal("collector: fetch/filter channel history", err))
	}

	payload, err := json.Marshal(content{Channel: channel, Messages: messages, MediaStats: stats, Source: "telegram"})
	if err != nil {
		return w.fail(ctx, ep.ID, apperr.FatalExternal("collector: marshal content", err))
	}

	key := blob.ContentKey(ep.PodcastID, ep.ID)
	if err := w.blobs.Put(ctx, key, payload, "application/json"); err != nil {
		return w.fail(ctx, ep.ID, apperr.FatalExternal("collector: upload content", err))
	}

	if err := w.store.UpdateEpisodeContentURL(ctx, ep.ID, key, episode.StatusContentCollected); err != nil {
		return w.fail(ctx, ep.ID, apperr.TransientLocal("collector: update episode content url", err))
	}

	if err := w.tracker.LogStageComplete(ctx, ep.ID, episode.StageTelegramProcessing, map[string]any{
		"message_count": len(messages),
	}); err != nil {
		return fmt.Errorf("collector: log stage complete: %w", err)
	}

	if err := w.sender.Send(ctx, episode.PreprocessMessage{
		PodcastConfigID: ep.PodcastConfigID,
		PodcastID:       ep.PodcastID,
		EpisodeID:       ep.ID,
		S3Path:          key,
	}); err != nil {
		return w.fail(ctx, ep.ID, apperr.TransientLocal("collector: enqueue preprocess message", err))
	}

	return nil
}

func (w *Worker) fail(ctx context.Context, episodeID string, cause *apperr.Error) error {
	details := map[string]any{"kind": string(cause.Kind)}
	if logErr := w.tracker.LogStageFailure(ctx, episodeID, episode.StageTelegramProcessing, episode.StageTelegramFailed, cause.Error(), details); logErr != nil {
		w.log.ErrorContext(ctx, "collector: failed to record stage failure", "episode_id", episodeID, "error", logErr)
	}
	return cause
}

// resolveWindow mirrors ConfigManager's dual entry mode: an explicit
// date range on the message wins; otherwise the window is the podcast
// configuration's configured lookback in hours (or startDate/endDate),
// falling back to a flat 24h window if neither is set.
func resolveWindow(msg episode.CollectMessage, cfg *episode.PodcastConfiguration) (since, until *time.Time) {
	if msg.DateRangeStart != nil || msg.DateRangeEnd != nil {
		return msg.DateRangeStart, msg.DateRangeEnd
	}
	if cfg.StartDate != nil || cfg.EndDate != nil {
		return cfg.StartDate, cfg.EndDate
	}
	hours := cfg.TelegramHours
	if hours <= 0 {
		hours = defaultWindowHours
	}
	s := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	return &s, nil
}
