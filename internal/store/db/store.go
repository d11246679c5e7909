// Package db is the relational-store adapter. Episode status, script and
// audio updates and failure marking go through named stored procedures,
// matching the original system's Supabase RPC contract (§6) — this
// adapter calls the Postgres functions of the same name over pgx instead
// of PostgREST. The content URL, stage, stage history and processing-log
// writes are plain SQL statements.
package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/apresai/podcasto-pipeline/internal/episode"
)

// Store is the PostgreSQL-backed relational store for episodes, podcasts,
// podcast configurations, and their processing logs. All operations are
// safe for concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore opens a connection pool against dsn.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("db store: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db store: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() { s.pool.Close() }

// GetEpisode loads an episode row by id.
func (s *Store) GetEpisode(ctx context.Context, id string) (*episode.Episode, error) {
	const q = `
		SELECT id, podcast_id, podcast_config_id, status, current_stage,
		       last_stage_update, processing_started_at, created_at, updated_at,
		       content_url, script_url, audio_url, duration, metadata, analysis
		FROM episodes WHERE id = $1`

	row := s.pool.QueryRow(ctx, q, id)
	return scanEpisode(row)
}

// scanEpisode centralizes the episodes-row → Episode mapping used by both
// GetEpisode and ListEpisodesByStatus.
func scanEpisode(row pgx.Row) (*episode.Episode, error) {
	var (
		e                   episode.Episode
		processingStartedAt *time.Time
		metadataJSON        []byte
		analysisJSON        []byte
	)
	err := row.Scan(
		&e.ID, &e.PodcastID, &e.PodcastConfigID, &e.Status, &e.CurrentStage,
		&e.LastStageUpdate, &processingStartedAt, &e.CreatedAt, &e.UpdatedAt,
		&e.ContentURL, &e.ScriptURL, &e.AudioURL, &e.DurationSeconds,
		&metadataJSON, &analysisJSON,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("db store: episode not found")
		}
		return nil, fmt.Errorf("db store: scan episode: %w", err)
	}
	e.ProcessingStartedAt = processingStartedAt
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &e.Metadata); err != nil {
			return nil, fmt.Errorf("db store: unmarshal metadata: %w", err)
		}
	}
	if len(analysisJSON) > 0 {
		if err := json.Unmarshal(analysisJSON, &e.Analysis); err != nil {
			return nil, fmt.Errorf("db store: unmarshal analysis: %w", err)
		}
	}
	return &e, nil
}

// GetPodcastConfigByID calls get_podcast_config_by_id, mirroring
// supabase_client.py's RPC of the same name.
func (s *Store) GetPodcastConfigByID(ctx context.Context, configID string) (*episode.PodcastConfiguration, error) {
	const q = `SELECT * FROM get_podcast_config_by_id($1)`
	return scanPodcastConfig(s.pool.QueryRow(ctx, q, configID))
}

// GetPodcastConfigByPodcastID calls get_podcast_config_by_podcast_id.
func (s *Store) GetPodcastConfigByPodcastID(ctx context.Context, podcastID string) (*episode.PodcastConfiguration, error) {
	const q = `SELECT * FROM get_podcast_config_by_podcast_id($1)`
	return scanPodcastConfig(s.pool.QueryRow(ctx, q, podcastID))
}

func scanPodcastConfig(row pgx.Row) (*episode.PodcastConfiguration, error) {
	var (
		cfg                    episode.PodcastConfiguration
		startDate, endDate     *time.Time
		filteredDomainsJSON    []byte
		mediaTypesJSON         []byte
	)
	err := row.Scan(
		&cfg.ID, &cfg.PodcastID, &cfg.Speaker1Gender, &cfg.Speaker2Gender,
		&cfg.TargetLanguage, &cfg.TargetDuration, &cfg.TelegramChannel,
		&cfg.TelegramHours, &startDate, &endDate, &filteredDomainsJSON,
		&mediaTypesJSON, &cfg.AdditionalInstructions, &cfg.PodcastFormat,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("db store: podcast config not found")
		}
		return nil, fmt.Errorf("db store: scan podcast config: %w", err)
	}
	cfg.StartDate, cfg.EndDate = startDate, endDate
	if len(filteredDomainsJSON) > 0 {
		_ = json.Unmarshal(filteredDomainsJSON, &cfg.FilteredDomains)
	}
	if len(mediaTypesJSON) > 0 {
		_ = json.Unmarshal(mediaTypesJSON, &cfg.MediaTypes)
	}
	return &cfg, nil
}

// UpdateEpisodeStatus calls update_episode_status(episode_id, new_status).
func (s *Store) UpdateEpisodeStatus(ctx context.Context, episodeID string, status episode.Status) error {
	const q = `SELECT update_episode_status($1, $2)`
	_, err := s.pool.Exec(ctx, q, episodeID, status)
	if err != nil {
		return fmt.Errorf("db store: update_episode_status: %w", err)
	}
	return nil
}

// UpdateEpisodeStatusWithNote is used on deferral, where the original
// system packs a human-readable reason into the status-update call
// ("Deferred: ..."). It calls the three-argument form
// update_episode_status(episode_id, new_status, note) in one statement.
func (s *Store) UpdateEpisodeStatusWithNote(ctx context.Context, episodeID string, status episode.Status, note string) error {
	const q = `SELECT update_episode_status($1, $2, $3)`
	_, err := s.pool.Exec(ctx, q, episodeID, status, note)
	if err != nil {
		return fmt.Errorf("db store: update_episode_status (with note): %w", err)
	}
	return nil
}

// UpdateEpisodeAudioURL calls update_episode_audio_url(episode_id,
// audio_url, new_status, duration).
func (s *Store) UpdateEpisodeAudioURL(ctx context.Context, episodeID, audioURL string, status episode.Status, durationSeconds int) error {
	const q = `SELECT update_episode_audio_url($1, $2, $3, $4)`
	_, err := s.pool.Exec(ctx, q, episodeID, audioURL, status, durationSeconds)
	if err != nil {
		return fmt.Errorf("db store: update_episode_audio_url: %w", err)
	}
	return nil
}

// UpdateEpisodeScriptData calls update_episode_script_data(episode_id,
// script_url, new_status, analysis_data).
func (s *Store) UpdateEpisodeScriptData(ctx context.Context, episodeID, scriptURL string, status episode.Status, metadata episode.Metadata, analysis episode.Analysis) error {
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("db store: marshal metadata: %w", err)
	}
	analysisJSON, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("db store: marshal analysis: %w", err)
	}

	const q = `SELECT update_episode_script_data($1, $2, $3, $4, $5)`
	_, err = s.pool.Exec(ctx, q, episodeID, scriptURL, status, metadataJSON, analysisJSON)
	if err != nil {
		return fmt.Errorf("db store: update_episode_script_data: %w", err)
	}
	return nil
}

// MarkEpisodeFailed calls mark_episode_failed(episode_id, error_message).
func (s *Store) MarkEpisodeFailed(ctx context.Context, episodeID, errorMessage string) error {
	const q = `SELECT mark_episode_failed($1, $2)`
	_, err := s.pool.Exec(ctx, q, episodeID, errorMessage)
	if err != nil {
		return fmt.Errorf("db store: mark_episode_failed: %w", err)
	}
	return nil
}

// UpdateEpisodeContentURL records the collector's uploaded content
// artifact and advances status. There is no dedicated stored procedure
// for this step in the original RPC contract (the source system only
// ever carries content_url onward in the next queue message); this
// writes the column directly, the same way UpdateEpisodeStage does for
// fields the stored procedures don't cover.
func (s *Store) UpdateEpisodeContentURL(ctx context.Context, episodeID, contentURL string, status episode.Status) error {
	const q = `
		UPDATE episodes
		SET content_url = $2, status = $3, updated_at = now()
		WHERE id = $1`
	_, err := s.pool.Exec(ctx, q, episodeID, contentURL, status)
	if err != nil {
		return fmt.Errorf("db store: update episode content url: %w", err)
	}
	return nil
}

// UpdateEpisodeStage sets current_stage and last_stage_update directly —
// used by the Tracker for the fine-grained ProcessingStage column, which
// sits alongside (but is not covered by) the coarse status stored
// procedures above.
func (s *Store) UpdateEpisodeStage(ctx context.Context, episodeID string, stage episode.Stage, startedAt *time.Time) error {
	const q = `
		UPDATE episodes
		SET current_stage = $2,
		    last_stage_update = now(),
		    processing_started_at = COALESCE(processing_started_at, $3)
		WHERE id = $1`
	_, err := s.pool.Exec(ctx, q, episodeID, stage, startedAt)
	if err != nil {
		return fmt.Errorf("db store: update episode stage: %w", err)
	}
	return nil
}

// AppendStageHistory appends one event to episodes.stage_history (a jsonb
// array column), matching log_stage_complete/log_stage_failure's append
// semantics in the original tracker.
func (s *Store) AppendStageHistory(ctx context.Context, episodeID string, event episode.StageEvent) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("db store: marshal stage event: %w", err)
	}
	const q = `
		UPDATE episodes
		SET stage_history = COALESCE(stage_history, '[]'::jsonb) || $2::jsonb
		WHERE id = $1`
	_, err = s.pool.Exec(ctx, q, episodeID, eventJSON)
	if err != nil {
		return fmt.Errorf("db store: append stage history: %w", err)
	}
	return nil
}

// InsertProcessingLog inserts a new episode_processing_logs row and
// returns its generated id.
func (s *Store) InsertProcessingLog(ctx context.Context, log episode.ProcessingLog) (string, error) {
	detailsJSON, _ := json.Marshal(log.ErrorDetails)
	metadataJSON, _ := json.Marshal(log.Metadata)

	const q = `
		INSERT INTO episode_processing_logs
			(id, episode_id, stage, status, started_at, completed_at,
			 duration_ms, error_message, error_details, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	var id string
	err := s.pool.QueryRow(ctx, q,
		log.ID, log.EpisodeID, log.Stage, log.Status, log.StartedAt, log.CompletedAt,
		log.DurationMS, log.ErrorMessage, detailsJSON, metadataJSON,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("db store: insert processing log: %w", err)
	}
	return id, nil
}

// LatestStartedLog finds the most recent status=started row for
// (episode_id, stage), mirroring episode_tracker.py's lookup-then-update
// pattern for completing a stage.
func (s *Store) LatestStartedLog(ctx context.Context, episodeID string, stage episode.Stage) (*episode.ProcessingLog, error) {
	const q = `
		SELECT id, episode_id, stage, status, started_at, completed_at, duration_ms,
		       error_message, error_details, metadata
		FROM episode_processing_logs
		WHERE episode_id = $1 AND stage = $2 AND status = 'started'
		ORDER BY started_at DESC
		LIMIT 1`
	row := s.pool.QueryRow(ctx, q, episodeID, stage)

	var (
		log               episode.ProcessingLog
		completedAt       *time.Time
		durationMS        *int64
		errorDetailsJSON  []byte
		metadataJSON      []byte
	)
	err := row.Scan(&log.ID, &log.EpisodeID, &log.Stage, &log.Status, &log.StartedAt,
		&completedAt, &durationMS, &log.ErrorMessage, &errorDetailsJSON, &metadataJSON)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("db store: scan latest started log: %w", err)
	}
	log.CompletedAt, log.DurationMS = completedAt, durationMS
	if len(errorDetailsJSON) > 0 {
		_ = json.Unmarshal(errorDetailsJSON, &log.ErrorDetails)
	}
	if len(metadataJSON) > 0 {
		_ = json.Unmarshal(metadataJSON, &log.Metadata)
	}
	return &log, nil
}

// CompleteProcessingLog transitions a started row to completed/failed,
// setting completed_at, duration_ms, and any error fields.
func (s *Store) CompleteProcessingLog(ctx context.Context, logID string, status episode.LogStatus, completedAt time.Time, durationMS *int64, errorMessage string, errorDetails map[string]any) error {
	detailsJSON, _ := json.Marshal(errorDetails)
	const q = `
		UPDATE episode_processing_logs
		SET status = $2, completed_at = $3, duration_ms = $4,
		    error_message = $5, error_details = $6
		WHERE id = $1`
	_, err := s.pool.Exec(ctx, q, logID, status, completedAt, durationMS, errorMessage, detailsJSON)
	if err != nil {
		return fmt.Errorf("db store: complete processing log: %w", err)
	}
	return nil
}

// ListEpisodesByStatus returns the most recently updated episodes in any
// of the given statuses, newest first. Used by the operator tooling
// (cmd/podcast-admin, the MCP inspection server) to find stuck or failed
// episodes — no worker calls this.
func (s *Store) ListEpisodesByStatus(ctx context.Context, statuses []episode.Status, limit int) ([]*episode.Episode, error) {
	const q = `
		SELECT id, podcast_id, podcast_config_id, status, current_stage,
		       last_stage_update, processing_started_at, created_at, updated_at,
		       content_url, script_url, audio_url, duration, metadata, analysis
		FROM episodes
		WHERE status = ANY($1)
		ORDER BY updated_at DESC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, q, statuses, limit)
	if err != nil {
		return nil, fmt.Errorf("db store: list episodes by status: %w", err)
	}
	defer rows.Close()

	var out []*episode.Episode
	for rows.Next() {
		ep, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db store: list episodes by status: %w", err)
	}
	return out, nil
}
