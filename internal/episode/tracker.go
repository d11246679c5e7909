package episode

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Store is the subset of the relational store the Tracker needs. Kept
// narrow so the tracker can be tested against a fake without pulling in
// pgx.
type Store interface {
	UpdateEpisodeStage(ctx context.Context, episodeID string, stage Stage, startedAt *time.Time) error
	AppendStageHistory(ctx context.Context, episodeID string, event StageEvent) error
	InsertProcessingLog(ctx context.Context, log ProcessingLog) (string, error)
	LatestStartedLog(ctx context.Context, episodeID string, stage Stage) (*ProcessingLog, error)
	CompleteProcessingLog(ctx context.Context, logID string, status LogStatus, completedAt time.Time, durationMS *int64, errorMessage string, errorDetails map[string]any) error
	UpdateEpisodeStatus(ctx context.Context, episodeID string, status Status) error
}

// Tracker durably records stage transitions for every worker. One Tracker
// is shared by a single process; its in-memory start-time cache only needs
// to survive for the lifetime of one invocation, matching the original
// system's per-Lambda-invocation EpisodeTracker instance.
type Tracker struct {
	store Store
	log   *slog.Logger

	mu         sync.Mutex
	startTimes map[string]time.Time // keyed by episodeID + ":" + stage
}

// NewTracker builds a Tracker backed by store.
func NewTracker(store Store, log *slog.Logger) *Tracker {
	return &Tracker{
		store:      store,
		log:        log,
		startTimes: make(map[string]time.Time),
	}
}

func cacheKey(episodeID string, stage Stage) string {
	return episodeID + ":" + string(stage)
}

// LogStageStart inserts a started processing-log row, updates the
// episode's current_stage/last_stage_update, and — on the very first
// stage an episode ever enters — stamps processing_started_at. The start
// time is cached in memory so LogStageComplete/LogStageFailure can compute
// duration_ms without a round trip.
func (t *Tracker) LogStageStart(ctx context.Context, episodeID string, stage Stage, metadata map[string]any) error {
	now := time.Now().UTC()

	t.mu.Lock()
	t.startTimes[cacheKey(episodeID, stage)] = now
	t.mu.Unlock()

	if _, err := t.store.InsertProcessingLog(ctx, ProcessingLog{
		ID:        ulid.Make().String(),
		EpisodeID: episodeID,
		Stage:     stage,
		Status:    LogStarted,
		StartedAt: now,
		Metadata:  metadata,
	}); err != nil {
		return err
	}

	if err := t.store.UpdateEpisodeStage(ctx, episodeID, stage, &now); err != nil {
		return err
	}

	t.log.InfoContext(ctx, "stage started", "episode_id", episodeID, "stage", stage)
	return nil
}

// LogStageComplete finds the latest started row for (episode, stage),
// marks it completed with a computed duration, and appends a stage_history
// entry. If no cached start time exists (e.g. a process restart lost it),
// it still completes the row without a duration rather than failing.
func (t *Tracker) LogStageComplete(ctx context.Context, episodeID string, stage Stage, metadata map[string]any) error {
	now := time.Now().UTC()
	durationMS := t.takeDuration(episodeID, stage, now)

	if err := t.completeLatest(ctx, episodeID, stage, LogCompleted, now, durationMS, "", nil); err != nil {
		return err
	}

	if err := t.store.AppendStageHistory(ctx, episodeID, StageEvent{
		Stage: stage, Status: LogCompleted, Timestamp: now, DurationMS: durationMS,
	}); err != nil {
		return err
	}

	t.log.InfoContext(ctx, "stage completed", "episode_id", episodeID, "stage", stage, "duration_ms", durationMS)
	return nil
}

// LogStageFailure mirrors LogStageComplete but with status=failed, an
// error message/details, and additionally marks the episode itself
// failed. failureStage is the failure-variant tag recorded on the episode
// (e.g. audio_processing → audio_failed); callers compute it.
func (t *Tracker) LogStageFailure(ctx context.Context, episodeID string, stage, failureStage Stage, errMessage string, errDetails map[string]any) error {
	now := time.Now().UTC()
	durationMS := t.takeDuration(episodeID, stage, now)

	if err := t.completeLatest(ctx, episodeID, stage, LogFailed, now, durationMS, errMessage, errDetails); err != nil {
		return err
	}

	if err := t.store.AppendStageHistory(ctx, episodeID, StageEvent{
		Stage: failureStage, Status: LogFailed, Timestamp: now, DurationMS: durationMS,
	}); err != nil {
		return err
	}

	if err := t.store.UpdateEpisodeStage(ctx, episodeID, failureStage, nil); err != nil {
		return err
	}
	if err := t.store.UpdateEpisodeStatus(ctx, episodeID, StatusFailed); err != nil {
		return err
	}

	t.log.WarnContext(ctx, "stage failed", "episode_id", episodeID, "stage", stage, "error", errMessage)
	return nil
}

// LogStageDeferral is the deferral-specific sibling of LogStageFailure: it
// writes a failed processing-log row tagged deferred=true but leaves the
// episode's status to the caller (the worker sets it back to
// script_ready, not failed).
func (t *Tracker) LogStageDeferral(ctx context.Context, episodeID string, stage Stage, reason string) error {
	now := time.Now().UTC()
	durationMS := t.takeDuration(episodeID, stage, now)

	details := map[string]any{"deferred": true}
	if err := t.completeLatest(ctx, episodeID, stage, LogFailed, now, durationMS, reason, details); err != nil {
		return err
	}

	t.log.WarnContext(ctx, "stage deferred", "episode_id", episodeID, "stage", stage, "reason", reason)
	return nil
}

func (t *Tracker) takeDuration(episodeID string, stage Stage, now time.Time) *int64 {
	t.mu.Lock()
	start, ok := t.startTimes[cacheKey(episodeID, stage)]
	if ok {
		delete(t.startTimes, cacheKey(episodeID, stage))
	}
	t.mu.Unlock()
	if !ok {
		return nil
	}
	ms := now.Sub(start).Milliseconds()
	return &ms
}

func (t *Tracker) completeLatest(ctx context.Context, episodeID string, stage Stage, status LogStatus, now time.Time, durationMS *int64, errMessage string, errDetails map[string]any) error {
	latest, err := t.store.LatestStartedLog(ctx, episodeID, stage)
	if err != nil {
		return err
	}
	if latest == nil {
		// No started row found (e.g. a replayed message skipped
		// LogStageStart) — insert a fresh terminal row instead of
		// failing, matching the original tracker's fallback.
		_, err := t.store.InsertProcessingLog(ctx, ProcessingLog{
			ID:           ulid.Make().String(),
			EpisodeID:    episodeID,
			Stage:        stage,
			Status:       status,
			StartedAt:    now,
			CompletedAt:  &now,
			DurationMS:   durationMS,
			ErrorMessage: errMessage,
			ErrorDetails: errDetails,
		})
		return err
	}
	return t.store.CompleteProcessingLog(ctx, latest.ID, status, now, durationMS, errMessage, errDetails)
}
