// Package preprocessor is the top-level orchestrator for the script
// stage: it loads collected content, runs the two analysis LLM calls,
// derives per-episode voice and role assignments, drafts and validates
// the dialogue script, uploads the three transcript artifacts, and
// enqueues the synthesizer's message. Grounded on
// ScriptPreprocessorHandler._process (script_preprocessor_handler.py).
package preprocessor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/apresai/podcasto-pipeline/internal/apperr"
	"github.com/apresai/podcasto-pipeline/internal/content"
	"github.com/apresai/podcasto-pipeline/internal/episode"
	"github.com/apresai/podcasto-pipeline/internal/queue"
	"github.com/apresai/podcasto-pipeline/internal/script"
	"github.com/apresai/podcasto-pipeline/internal/store/blob"
	"github.com/apresai/podcasto-pipeline/internal/voice"
)

// languageFullNames maps the ISO codes this pipeline actually carries to
// the full names the script generator's prompts use, matching
// language_mapper.language_code_to_full. Any other code falls back to
// English, the same default the original mapper uses.
var languageFullNames = map[string]string{
	"he": "Hebrew",
	"en": "English",
}

func languageFullName(code string) string {
	if name, ok := languageFullNames[code]; ok {
		return name
	}
	return "English"
}

// Store is the subset of the relational store this worker needs.
type Store interface {
	GetEpisode(ctx context.Context, id string) (*episode.Episode, error)
	GetPodcastConfigByID(ctx context.Context, configID string) (*episode.PodcastConfiguration, error)
	GetPodcastConfigByPodcastID(ctx context.Context, podcastID string) (*episode.PodcastConfiguration, error)
	UpdateEpisodeScriptData(ctx context.Context, episodeID, scriptURL string, status episode.Status, metadata episode.Metadata, analysis episode.Analysis) error
}

// content.json's on-disk shape, matching what the collector worker wrote.
type collectedContent struct {
	Channel    string           `json:"channel"`
	Messages   []content.Message `json:"messages"`
	MediaStats map[string]int   `json:"media_stats"`
}

// Worker drives one script-generation run per invocation.
type Worker struct {
	store     Store
	blobs     *blob.Store
	generator script.Generator
	tracker   *episode.Tracker
	sender    *queue.Sender[episode.ScriptMessage]
	log       *slog.Logger
}

// New builds a Worker.
func New(store Store, blobs *blob.Store, generator script.Generator, tracker *episode.Tracker, sender *queue.Sender[episode.ScriptMessage], log *slog.Logger) *Worker {
	return &Worker{store: store, blobs: blobs, generator: generator, tracker: tracker, sender: sender, log: log}
}

// HandleMessage processes one PreprocessMessage end to end. Failures
// here are never deferred, matching the original handler's plain
// log-and-mark-failed exception path — there is no rate-limited
// external call in this stage worth retrying in place.
func (w *Worker) HandleMessage(ctx context.Context, msg episode.PreprocessMessage) error {
	ep, err := w.store.GetEpisode(ctx, msg.EpisodeID)
	if err != nil {
		return apperr.Validation("preprocessor: load episode", err)
	}

	if ep.PastScriptGeneration() {
		w.log.InfoContext(ctx, "preprocessor: episode already past script generation, skipping", "episode_id", ep.ID, "stage", ep.CurrentStage)
		return nil
	}

	if err := w.tracker.LogStageStart(ctx, ep.ID, episode.StageScriptProcessing, map[string]any{"podcast_id": ep.PodcastID}); err != nil {
		return fmt.Errorf("preprocessor: log stage start: %w", err)
	}

	raw, err := w.blobs.Get(ctx, msg.S3Path)
	if err != nil {
		return w.fail(ctx, ep.ID, apperr.Validation("preprocessor: load collected content", err))
	}
	var collected collectedContent
	if err := json.Unmarshal(raw, &collected); err != nil {
		return w.fail(ctx, ep.ID, apperr.Validation("preprocessor: parse collected content", err))
	}
	if len(collected.Messages) == 0 {
		return w.fail(ctx, ep.ID, apperr.Validation("preprocessor: collected content has no messages", nil))
	}

	cfg, err := w.loadConfig(ctx, msg.PodcastConfigID, ep.PodcastID)
	if err != nil {
		return w.fail(ctx, ep.ID, apperr.Validation("preprocessor: load podcast config", err))
	}

	extractedText := joinMessages(collected.Messages)

	analysis, err := w.generator.AnalyzeContent(ctx, extractedText)
	if err != nil {
		return w.fail(ctx, ep.ID, apperr.FatalExternal("preprocessor: analyze content", err))
	}
	topics, err := w.generator.AnalyzeTopics(ctx, extractedText, analysis)
	if err != nil {
		return w.fail(ctx, ep.ID, apperr.FatalExternal("preprocessor: analyze topics", err))
	}

	podcastFormat := cfg.PodcastFormat
	if podcastFormat == "" {
		podcastFormat = episode.FormatMultiSpeaker
	}
	languageCode := cfg.TargetLanguage
	if languageCode == "" {
		languageCode = "en"
	}
	languageFull := languageFullName(languageCode)

	metrics := content.Analyze(collected.Messages, w.log)
	prioritized := collected.Messages
	if metrics.Strategy == content.StrategyCompression {
		prioritized = content.SelectPriorityMessages(collected.Messages, 0, w.log)
	}

	dyn, speaker1Role, speaker2Role, err := w.assignRoles(ep.ID, cfg, analysis, podcastFormat, languageCode)
	if err != nil {
		return w.fail(ctx, ep.ID, apperr.FatalExternal("preprocessor: assign voices", err))
	}
	dyn.ContentAnalysis = analysis
	dyn.TopicAnalysis = topics

	draft, err := w.generator.DraftScript(ctx, script.GenerateOptions{
		PodcastName:           ep.PodcastID,
		Language:              languageFull,
		LanguageCode:          languageCode,
		TargetDurationMinutes: cfg.TargetDuration,
		PodcastFormat:         podcastFormat,
		Speaker1Role:          speaker1Role,
		Speaker2Role:          speaker2Role,
		ContentAnalysis:       analysis,
		TopicAnalysis:         topics,
		Metrics:               metrics,
		PrioritizedContent:    prioritized,
	})
	if err != nil {
		return w.fail(ctx, ep.ID, apperr.FatalExternal("preprocessor: draft script", err))
	}

	if content.ContainsPlaceholder(draft) {
		return w.fail(ctx, ep.ID, apperr.FatalExternal("preprocessor: draft script contains an unresolved placeholder", nil))
	}

	report := content.ValidateScript(collected.Messages, draft, metrics)
	w.log.InfoContext(ctx, "preprocessor: script validated", "episode_id", ep.ID, "quality_score", report.QualityScore, "passed", report.Passed)
	if len(report.Recommendations) > 0 {
		w.log.WarnContext(ctx, "preprocessor: script recommendations", "episode_id", ep.ID, "recommendations", report.Recommendations)
	}

	now := time.Now().UTC()
	cleanKey := blob.TranscriptKey(ep.PodcastID, ep.ID, blob.TranscriptCleanContent, now, "json")
	analysisKey := blob.TranscriptKey(ep.PodcastID, ep.ID, blob.TranscriptAnalysis, now, "json")
	scriptKey := blob.TranscriptKey(ep.PodcastID, ep.ID, blob.TranscriptScript, now, "txt")

	if cleanJSON, err := json.MarshalIndent(collected.Messages, "", "  "); err == nil {
		if err := w.blobs.Put(ctx, cleanKey, cleanJSON, "application/json"); err != nil {
			w.log.WarnContext(ctx, "preprocessor: clean content upload failed", "episode_id", ep.ID, "error", err)
		}
	}
	if analysisJSON, err := json.MarshalIndent(analysis, "", "  "); err == nil {
		if err := w.blobs.Put(ctx, analysisKey, analysisJSON, "application/json"); err != nil {
			w.log.WarnContext(ctx, "preprocessor: analysis upload failed", "episode_id", ep.ID, "error", err)
		}
	}
	if err := w.blobs.Put(ctx, scriptKey, []byte(draft), "text/plain; charset=utf-8"); err != nil {
		return w.fail(ctx, ep.ID, apperr.FatalExternal("preprocessor: upload script", err))
	}

	episodeMetadata := episode.Metadata{
		Speaker1Voice:  dyn.Speaker1Voice,
		Speaker2Voice:  dyn.Speaker2Voice,
		Speaker1Role:   dyn.Speaker1Role,
		Speaker2Role:   dyn.Speaker2Role,
		Speaker1Gender: dyn.Speaker1Gender,
		Speaker2Gender: dyn.Speaker2Gender,
		LanguageCode:   languageCode,
		PodcastFormat:  podcastFormat,
	}

	if err := w.store.UpdateEpisodeScriptData(ctx, ep.ID, scriptKey, episode.StatusScriptReady, episodeMetadata, analysis); err != nil {
		return w.fail(ctx, ep.ID, apperr.TransientLocal("preprocessor: update episode script data", err))
	}

	if err := w.sender.Send(ctx, episode.ScriptMessage{
		EpisodeID:       ep.ID,
		PodcastID:       ep.PodcastID,
		PodcastConfigID: ep.PodcastConfigID,
		ScriptURL:       scriptKey,
		DynamicConfig:   dyn,
	}); err != nil {
		return w.fail(ctx, ep.ID, apperr.TransientLocal("preprocessor: enqueue script message", err))
	}

	if err := w.tracker.LogStageComplete(ctx, ep.ID, episode.StageScriptProcessing, map[string]any{
		"script_chars":     len([]rune(draft)),
		"script_url":       scriptKey,
		"validation_score": report.QualityScore,
	}); err != nil {
		return fmt.Errorf("preprocessor: log stage complete: %w", err)
	}

	return nil
}

func (w *Worker) fail(ctx context.Context, episodeID string, cause *apperr.Error) error {
	details := map[string]any{"kind": string(cause.Kind)}
	if logErr := w.tracker.LogStageFailure(ctx, episodeID, episode.StageScriptProcessing, episode.StageScriptFailed, cause.Error(), details); logErr != nil {
		w.log.ErrorContext(ctx, "preprocessor: failed to record stage failure", "episode_id", episodeID, "error", logErr)
	}
	return cause
}

func (w *Worker) loadConfig(ctx context.Context, configID, podcastID string) (*episode.PodcastConfiguration, error) {
	if configID != "" {
		if cfg, err := w.store.GetPodcastConfigByID(ctx, configID); err == nil {
			return cfg, nil
		}
	}
	return w.store.GetPodcastConfigByPodcastID(ctx, podcastID)
}

// assignRoles mirrors _apply_dynamic_role: single-speaker episodes only
// resolve speaker 1's voice (the language default via
// voice.SelectSingle), while multi-speaker episodes
// derive speaker 2's role/gender from the content analysis and select
// both voices together so they stay consistent across the whole
// episode.
func (w *Worker) assignRoles(episodeID string, cfg *episode.PodcastConfiguration, analysis episode.Analysis, format episode.PodcastFormat, languageCode string) (episode.DynamicConfig, string, string, error) {
	speaker1Role := "Speaker 1"
	speaker1Gender := cfg.Speaker1Gender
	if speaker1Gender == "" {
		speaker1Gender = "male"
	}

	if format == episode.FormatSingleSpeaker {
		v, err := voiceSelectSingle(languageCode, speaker1Gender)
		if err != nil {
			return episode.DynamicConfig{}, "", "", err
		}
		dyn := episode.DynamicConfig{
			LanguageCode:   languageCode,
			Language:       languageFullName(languageCode),
			PodcastFormat:  format,
			Speaker1Role:   speaker1Role,
			Speaker1Gender: speaker1Gender,
			Speaker1Voice:  v,
		}
		return dyn, speaker1Role, "", nil
	}

	speaker2Role := analysis.SpecificRole
	if speaker2Role == "" {
		speaker2Role = "Expert"
	}
	speaker2Gender := script.DefaultGenderForRole(analysis.ContentType)

	sel, err := voice.Select(episodeID, languageCode, speaker1Role, speaker1Gender, speaker2Role, speaker2Gender, true)
	if err != nil {
		return episode.DynamicConfig{}, "", "", err
	}

	dyn := episode.DynamicConfig{
		LanguageCode:   languageCode,
		Language:       languageFullName(languageCode),
		PodcastFormat:  format,
		Speaker1Role:   speaker1Role,
		Speaker1Gender: speaker1Gender,
		Speaker1Voice:  sel.Speaker1Voice,
		Speaker2Role:   speaker2Role,
		Speaker2Gender: speaker2Gender,
		Speaker2Voice:  sel.Speaker2Voice,
	}
	return dyn, speaker1Role, speaker2Role, nil
}

func voiceSelectSingle(languageCode, gender string) (string, error) {
	return voice.SelectSingle(languageCode, gender), nil
}

func joinMessages(messages []content.Message) string {
	sorted := make([]content.Message, len(messages))
	copy(sorted, messages)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

	var out []byte
	for _, m := range sorted {
		out = append(out, m.Text...)
		out = append(out, '\n')
	}
	return string(out)
}
