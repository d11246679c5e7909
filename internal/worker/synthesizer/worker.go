// Package synthesizer is the top-level orchestrator for the audio
// stage: it loads a preprocessed script and its dynamic configuration,
// applies Hebrew niqqud when relevant, synthesizes and concatenates WAV
// chunks, uploads transcripts and the final audio, and marks the
// episode completed — or, on a rate-limit/timeout-budget signal, defers
// it back to script_ready for redelivery. Grounded on
// AudioGenerationHandler.process_audio_generation_request
// (audio_generation_handler.py).
package synthesizer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/apresai/podcasto-pipeline/internal/apperr"
	"github.com/apresai/podcasto-pipeline/internal/audio"
	"github.com/apresai/podcasto-pipeline/internal/episode"
	"github.com/apresai/podcasto-pipeline/internal/store/blob"
	"github.com/apresai/podcasto-pipeline/internal/tts"
	"github.com/apresai/podcasto-pipeline/internal/voice"
	"github.com/apresai/podcasto-pipeline/internal/webhook"
)

const (
	// minTimeRequired is the entry guard: below this much remaining
	// invocation time, an attempt isn't even started.
	minTimeRequired = 600 * time.Second
	// minTimeForAudio is the pre-synthesis guard, checked again after
	// niqqud processing and before the expensive chunk fan-out.
	minTimeForAudio = 540 * time.Second
)

var hebrewLanguageTags = map[string]bool{
	"he": true, "hebrew": true, "heb": true, "עברית": true,
}

// Store is the subset of the relational store this worker needs.
type Store interface {
	GetEpisode(ctx context.Context, id string) (*episode.Episode, error)
	GetPodcastConfigByID(ctx context.Context, configID string) (*episode.PodcastConfiguration, error)
	GetPodcastConfigByPodcastID(ctx context.Context, podcastID string) (*episode.PodcastConfiguration, error)
	UpdateEpisodeStatus(ctx context.Context, episodeID string, status episode.Status) error
	UpdateEpisodeStatusWithNote(ctx context.Context, episodeID string, status episode.Status, note string) error
	UpdateEpisodeAudioURL(ctx context.Context, episodeID, audioURL string, status episode.Status, durationSeconds int) error
	UpdateEpisodeScriptData(ctx context.Context, episodeID, scriptURL string, status episode.Status, metadata episode.Metadata, analysis episode.Analysis) error
}

// Worker drives one audio-synthesis run per invocation.
type Worker struct {
	store       Store
	blobs       *blob.Store
	tts         *tts.Client
	diacritizer *tts.Diacritizer
	manager     *audio.Manager
	tracker     *episode.Tracker
	notifier    *webhook.Notifier
	log         *slog.Logger
}

// New builds a Worker.
func New(store Store, blobs *blob.Store, ttsClient *tts.Client, diacritizer *tts.Diacritizer, manager *audio.Manager, tracker *episode.Tracker, notifier *webhook.Notifier, log *slog.Logger) *Worker {
	return &Worker{
		store: store, blobs: blobs, tts: ttsClient, diacritizer: diacritizer,
		manager: manager, tracker: tracker, notifier: notifier, log: log,
	}
}

// HandleMessage processes one ScriptMessage end to end. ctx must carry a
// deadline (the Lambda invocation's remaining time) for the
// timeout-budget guards to mean anything; a context with no deadline is
// treated as having unlimited time remaining.
func (w *Worker) HandleMessage(ctx context.Context, msg episode.ScriptMessage) error {
	if remaining, ok := timeRemaining(ctx); ok && remaining < minTimeRequired {
		return apperr.Deferrable(fmt.Sprintf(
			"synthesizer: insufficient time remaining to start (%s < %s required)", remaining, minTimeRequired), nil)
	}

	ep, err := w.store.GetEpisode(ctx, msg.EpisodeID)
	if err != nil {
		return apperr.Validation("synthesizer: load episode", err)
	}
	if !ep.ShouldProcessForAudio() {
		w.log.InfoContext(ctx, "synthesizer: episode not eligible for audio generation, skipping", "episode_id", ep.ID, "status", ep.Status)
		return nil
	}

	if err := w.tracker.LogStageStart(ctx, ep.ID, episode.StageAudioProcessing, map[string]any{
		"podcast_id": ep.PodcastID, "podcast_config_id": ep.PodcastConfigID,
	}); err != nil {
		return fmt.Errorf("synthesizer: log stage start: %w", err)
	}
	if err := w.store.UpdateEpisodeStatus(ctx, ep.ID, episode.StatusProcessing); err != nil {
		return w.fail(ctx, ep.ID, apperr.TransientLocal("synthesizer: update episode status to processing", err))
	}

	if msg.ScriptURL == "" {
		return w.fail(ctx, ep.ID, apperr.Validation("synthesizer: script_url is required", nil))
	}
	dyn := msg.DynamicConfig

	if err := w.ensureVoices(ctx, ep, &dyn); err != nil {
		return w.fail(ctx, ep.ID, err.(*apperr.Error))
	}

	scriptBytes, err := w.blobs.Get(ctx, msg.ScriptURL)
	if err != nil {
		return w.fail(ctx, ep.ID, apperr.Validation("synthesizer: load script from blob", err))
	}
	script := string(scriptBytes)

	processedScript, niqqudScript := w.processHebrewScript(ctx, script, dyn.Language)

	if remaining, ok := timeRemaining(ctx); ok && remaining < minTimeForAudio {
		if deferErr := w.tracker.LogStageDeferral(ctx, ep.ID, episode.StageAudioProcessing, "insufficient time for audio generation"); deferErr != nil {
			w.log.ErrorContext(ctx, "synthesizer: failed to record deferral", "episode_id", ep.ID, "error", deferErr)
		}
		note := fmt.Sprintf("Deferred: insufficient time for audio generation (%s < %s required)", remaining, minTimeForAudio)
		if stErr := w.store.UpdateEpisodeStatusWithNote(ctx, ep.ID, episode.StatusScriptReady, note); stErr != nil {
			w.log.ErrorContext(ctx, "synthesizer: failed to return episode to script_ready", "episode_id", ep.ID, "error", stErr)
		}
		return apperr.Deferrable(note, nil)
	}

	chunks := w.manager.Split(processedScript)
	isMultiSpeaker := dyn.PodcastFormat != episode.FormatSingleSpeaker
	style := voice.AssembleStyle(dyn.LanguageCode, dyn.ContentAnalysis.ContentType)

	synth := func(ctx context.Context, chunk string, chunkIndex int) ([]byte, int, error) {
		prompt := buildPrompt(style, chunk)
		var c tts.Chunk
		var err error
		if isMultiSpeaker {
			c, err = w.tts.SynthesizeMulti(ctx, prompt, dyn.Speaker1Role, dyn.Speaker1Voice, dyn.Speaker2Role, dyn.Speaker2Voice)
		} else {
			c, err = w.tts.SynthesizeSingle(ctx, prompt, dyn.Speaker1Voice)
		}
		if err != nil {
			return nil, 0, err
		}
		wav := audio.WrapPCM(c.PCM, c.SampleRate)
		return wav, audio.Duration(wav), nil
	}

	results, failedIndexes, err := w.manager.Process(ctx, chunks, synth)
	if err != nil {
		if apperr.IsDeferrable(err) {
			return w.defer_(ctx, ep.ID, err.(*apperr.Error))
		}
		return w.fail(ctx, ep.ID, apperr.FatalExternal("synthesizer: chunk synthesis pipeline failed", err))
	}
	if len(failedIndexes) > 0 {
		return w.fail(ctx, ep.ID, apperr.FatalExternal(
			fmt.Sprintf("synthesizer: %d of %d chunks failed validation/synthesis, refusing to publish partial audio", len(failedIndexes), len(chunks)), nil))
	}

	finalAudio, duration, err := audio.ConcatenateResults(results)
	if err != nil {
		return w.fail(ctx, ep.ID, apperr.FatalExternal("synthesizer: concatenate audio chunks", err))
	}

	w.uploadTranscripts(ctx, ep.PodcastID, ep.ID, script, niqqudScript, dyn.Language)

	audioKey := blob.AudioKey(ep.PodcastID, ep.ID)
	if err := w.blobs.Put(ctx, audioKey, finalAudio, "audio/wav"); err != nil {
		return w.fail(ctx, ep.ID, apperr.FatalExternal("synthesizer: upload final audio", err))
	}

	if err := w.store.UpdateEpisodeAudioURL(ctx, ep.ID, audioKey, episode.StatusCompleted, duration); err != nil {
		return w.fail(ctx, ep.ID, apperr.TransientLocal("synthesizer: update episode with audio", err))
	}

	w.notifier.NotifyCompleted(ctx, ep.ID, audioKey, duration)

	if err := w.tracker.LogStageComplete(ctx, ep.ID, episode.StageAudioProcessing, map[string]any{
		"audio_url": audioKey, "duration": duration, "audio_size_bytes": len(finalAudio), "has_niqqud": niqqudScript != "",
	}); err != nil {
		return fmt.Errorf("synthesizer: log stage complete: %w", err)
	}

	return nil
}

// ensureVoices guarantees dyn carries the voice(s) the TTS client requires
// before any chunk is synthesized. A message replayed from before voices
// existed on the wire (or one that simply lost them in transit) must never
// cause the client to pick fresh voices mid-episode — that would break
// acoustic consistency across chunks (§3.2, §4.1). It first trusts
// whatever the episode record already has on file, then falls back to
// re-running the same deterministic selection the preprocessor used, and
// persists the result back onto the episode so every subsequent replay
// sees it without reconstructing again.
func (w *Worker) ensureVoices(ctx context.Context, ep *episode.Episode, dyn *episode.DynamicConfig) error {
	isMulti := dyn.PodcastFormat != episode.FormatSingleSpeaker
	if dyn.Speaker1Voice != "" && (!isMulti || dyn.Speaker2Voice != "") {
		return nil
	}

	w.log.WarnContext(ctx, "synthesizer: voices missing from synthesize message, reconstructing",
		"episode_id", ep.ID, "multi_speaker", isMulti)

	if ep.Metadata.Speaker1Voice != "" && (!isMulti || ep.Metadata.Speaker2Voice != "") {
		dyn.Speaker1Voice = ep.Metadata.Speaker1Voice
		dyn.Speaker2Voice = ep.Metadata.Speaker2Voice
		return nil
	}

	if isMulti {
		sel, err := voice.Select(ep.ID, dyn.LanguageCode, dyn.Speaker1Role, dyn.Speaker1Gender, dyn.Speaker2Role, dyn.Speaker2Gender, true)
		if err != nil {
			return apperr.FatalExternal("synthesizer: reconstruct voices deterministically", err)
		}
		dyn.Speaker1Voice, dyn.Speaker2Voice = sel.Speaker1Voice, sel.Speaker2Voice
	} else {
		dyn.Speaker1Voice = voice.SelectSingle(dyn.LanguageCode, dyn.Speaker1Gender)
		dyn.Speaker2Voice = ""
	}

	meta := ep.Metadata
	meta.Speaker1Voice, meta.Speaker2Voice = dyn.Speaker1Voice, dyn.Speaker2Voice
	meta.Speaker1Role, meta.Speaker2Role = dyn.Speaker1Role, dyn.Speaker2Role
	meta.Speaker1Gender, meta.Speaker2Gender = dyn.Speaker1Gender, dyn.Speaker2Gender
	meta.LanguageCode, meta.PodcastFormat = dyn.LanguageCode, dyn.PodcastFormat
	// ep.Status in memory still reflects the pre-"processing" snapshot
	// fetched at the top of HandleMessage; the episode's real status was
	// already advanced to StatusProcessing above, so that (not ep.Status)
	// is what must be re-asserted here to avoid reverting it.
	if err := w.store.UpdateEpisodeScriptData(ctx, ep.ID, ep.ScriptURL, episode.StatusProcessing, meta, ep.Analysis); err != nil {
		return apperr.TransientLocal("synthesizer: persist reconstructed voices", err)
	}
	ep.Metadata = meta
	return nil
}

func (w *Worker) fail(ctx context.Context, episodeID string, cause *apperr.Error) error {
	details := map[string]any{"kind": string(cause.Kind)}
	if logErr := w.tracker.LogStageFailure(ctx, episodeID, episode.StageAudioProcessing, episode.StageAudioFailed, cause.Error(), details); logErr != nil {
		w.log.ErrorContext(ctx, "synthesizer: failed to record stage failure", "episode_id", episodeID, "error", logErr)
	}
	return cause
}

func (w *Worker) defer_(ctx context.Context, episodeID string, cause *apperr.Error) error {
	if err := w.tracker.LogStageDeferral(ctx, episodeID, episode.StageAudioProcessing, cause.Error()); err != nil {
		w.log.ErrorContext(ctx, "synthesizer: failed to record deferral", "episode_id", episodeID, "error", err)
	}
	note := "Deferred: " + cause.Error()
	if err := w.store.UpdateEpisodeStatusWithNote(ctx, episodeID, episode.StatusScriptReady, note); err != nil {
		w.log.ErrorContext(ctx, "synthesizer: failed to return episode to script_ready", "episode_id", episodeID, "error", err)
	}
	return cause
}

// processHebrewScript adds niqqud when the episode's language names
// Hebrew, matching _process_hebrew_script's gating and its
// fall-back-silently-on-error behavior: the diacritizer is an
// enhancement, never a hard dependency of audio generation.
func (w *Worker) processHebrewScript(ctx context.Context, script, language string) (processed, niqqudScript string) {
	if !hebrewLanguageTags[strings.ToLower(language)] {
		return script, ""
	}
	if !containsHebrew(script) {
		return script, ""
	}

	diacritized, err := w.diacritizer.Diacritize(ctx, script)
	if err != nil {
		w.log.WarnContext(ctx, "synthesizer: niqqud processing failed, falling back to original script", "error", err)
		return script, ""
	}
	return diacritized, diacritized
}

func (w *Worker) uploadTranscripts(ctx context.Context, podcastID, episodeID, original, niqqudScript, language string) {
	now := time.Now().UTC()
	originalKey := blob.TranscriptKey(podcastID, episodeID, "transcript", now, "txt")
	if err := w.blobs.Put(ctx, originalKey, []byte(original), "text/plain; charset=utf-8"); err != nil {
		w.log.WarnContext(ctx, "synthesizer: original transcript upload failed", "episode_id", episodeID, "error", err)
	}

	if niqqudScript != "" && hebrewLanguageTags[strings.ToLower(language)] {
		niqqudKey := blob.TranscriptKey(podcastID, episodeID, "transcript_niqqud", now, "txt")
		if err := w.blobs.Put(ctx, niqqudKey, []byte(niqqudScript), "text/plain; charset=utf-8"); err != nil {
			w.log.WarnContext(ctx, "synthesizer: niqqud transcript upload failed", "episode_id", episodeID, "error", err)
		}
	}
}

func buildPrompt(style voice.Style, chunk string) string {
	var b strings.Builder
	b.WriteString(style.Instruction)
	b.WriteString(" ")
	b.WriteString(style.StyleInstruction)
	b.WriteString("\n\n")
	b.WriteString(chunk)
	return b.String()
}

func containsHebrew(text string) bool {
	for _, r := range text {
		if r >= 0x0590 && r <= 0x05FF {
			return true
		}
	}
	return false
}

func timeRemaining(ctx context.Context) (time.Duration, bool) {
	deadline, ok := ctx.Deadline()
	if !ok {
		return 0, false
	}
	return time.Until(deadline), true
}
