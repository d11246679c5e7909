// Package admin holds the operator-facing logic shared by the
// podcast-admin CLI and the episode-inspection MCP server: looking up
// an episode's current state and, when it is stuck, replaying it onto
// whichever queue its current stage belongs to. Neither tool mutates an
// episode directly — replay always goes through the same durable queues
// the three workers consume, so a replayed episode runs through the
// worker's own idempotency and stage checks exactly like any other
// redelivery.
package admin

import (
	"context"
	"fmt"

	"github.com/apresai/podcasto-pipeline/internal/episode"
	"github.com/apresai/podcasto-pipeline/internal/queue"
)

// Store is the subset of internal/store/db.Store the operator tools need.
type Store interface {
	GetEpisode(ctx context.Context, id string) (*episode.Episode, error)
	ListEpisodesByStatus(ctx context.Context, statuses []episode.Status, limit int) ([]*episode.Episode, error)
}

// Senders bundles the three outbound queues a replay might target.
type Senders struct {
	Collect    *queue.Sender[episode.CollectMessage]
	Preprocess *queue.Sender[episode.PreprocessMessage]
	Synthesize *queue.Sender[episode.ScriptMessage]
}

// StuckStatuses are the statuses ListStuck surfaces: episodes that are
// not progressing on their own and need an operator's attention.
var StuckStatuses = []episode.Status{episode.StatusFailed, episode.StatusPending}

// ListStuck returns the most recently updated failed or pending episodes.
func ListStuck(ctx context.Context, store Store, limit int) ([]*episode.Episode, error) {
	return store.ListEpisodesByStatus(ctx, StuckStatuses, limit)
}

// Describe renders a short operator-facing summary of one episode: its
// status, stage, and the artifact URLs it has produced so far.
func Describe(ep *episode.Episode) string {
	s := fmt.Sprintf("episode %s\n  podcast:  %s\n  status:   %s\n  stage:    %s\n  updated:  %s\n",
		ep.ID, ep.PodcastID, ep.Status, ep.CurrentStage, ep.LastStageUpdate.Format("2006-01-02 15:04:05 MST"))
	if ep.ContentURL != "" {
		s += fmt.Sprintf("  content:  %s\n", ep.ContentURL)
	}
	if ep.ScriptURL != "" {
		s += fmt.Sprintf("  script:   %s\n", ep.ScriptURL)
	}
	if ep.AudioURL != "" {
		s += fmt.Sprintf("  audio:    %s (%ds)\n", ep.AudioURL, ep.DurationSeconds)
	}
	if ep.Metadata.Error != "" {
		s += fmt.Sprintf("  error:    %s\n", ep.Metadata.Error)
	}
	return s
}

// Replay re-enqueues an episode onto the queue matching its current
// stage, so whichever worker owns that stage picks it up again exactly
// as if the original message had been redelivered. It returns the name
// of the queue the episode was sent to.
func Replay(ctx context.Context, store Store, senders Senders, episodeID string) (queueName string, err error) {
	ep, err := store.GetEpisode(ctx, episodeID)
	if err != nil {
		return "", fmt.Errorf("admin: load episode: %w", err)
	}

	switch {
	case ep.CurrentStage == episode.StageTelegramCompleted,
		ep.CurrentStage == episode.StageScriptFailed,
		ep.Status == episode.StatusContentCollected:
		if ep.ContentURL == "" {
			return "", fmt.Errorf("admin: episode %s has no content_url to replay into preprocessing", episodeID)
		}
		if senders.Preprocess == nil {
			return "", fmt.Errorf("admin: no preprocess queue configured")
		}
		err = senders.Preprocess.Send(ctx, episode.PreprocessMessage{
			PodcastConfigID: ep.PodcastConfigID,
			PodcastID:       ep.PodcastID,
			EpisodeID:       ep.ID,
			S3Path:          ep.ContentURL,
		})
		return "preprocess", err

	case ep.Status == episode.StatusScriptReady, ep.CurrentStage == episode.StageAudioFailed:
		if ep.ScriptURL == "" {
			return "", fmt.Errorf("admin: episode %s has no script_url to replay into synthesis", episodeID)
		}
		if senders.Synthesize == nil {
			return "", fmt.Errorf("admin: no synthesize queue configured")
		}
		err = senders.Synthesize.Send(ctx, episode.ScriptMessage{
			PodcastConfigID: ep.PodcastConfigID,
			PodcastID:       ep.PodcastID,
			EpisodeID:       ep.ID,
			ScriptURL:       ep.ScriptURL,
			DynamicConfig: episode.DynamicConfig{
				LanguageCode:    ep.Metadata.LanguageCode,
				PodcastFormat:   ep.Metadata.PodcastFormat,
				Speaker1Role:    ep.Metadata.Speaker1Role,
				Speaker1Gender:  ep.Metadata.Speaker1Gender,
				Speaker1Voice:   ep.Metadata.Speaker1Voice,
				Speaker2Role:    ep.Metadata.Speaker2Role,
				Speaker2Gender:  ep.Metadata.Speaker2Gender,
				Speaker2Voice:   ep.Metadata.Speaker2Voice,
				ContentAnalysis: ep.Analysis,
			},
		})
		return "synthesize", err

	default:
		if senders.Collect == nil {
			return "", fmt.Errorf("admin: no collect queue configured")
		}
		err = senders.Collect.Send(ctx, episode.CollectMessage{
			PodcastConfigID: ep.PodcastConfigID,
			PodcastID:       ep.PodcastID,
			EpisodeID:       ep.ID,
		})
		return "collect", err
	}
}
