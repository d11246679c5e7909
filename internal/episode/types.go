// Package episode holds the core entities the pipeline advances through
// its stages — Episode, PodcastConfiguration, ProcessingLog, ScriptMessage
// — and the Tracker that durably records stage transitions.
package episode

import "time"

// Status is the coarse-grained lifecycle state of an episode.
type Status string

const (
	StatusPending          Status = "pending"
	StatusContentCollected Status = "content_collected"
	StatusScriptReady      Status = "script_ready"
	StatusProcessing       Status = "processing"
	StatusCompleted        Status = "completed"
	StatusFailed           Status = "failed"
)

// Stage is the fine-grained ProcessingStage tag. The legacy image/post
// values are carried so historical rows and hand-authored fixtures that
// reference them still parse; no worker in this pipeline enters them.
type Stage string

const (
	StageCreated            Stage = "created"
	StageTelegramQueued      Stage = "telegram_queued"
	StageTelegramProcessing  Stage = "telegram_processing"
	StageTelegramCompleted   Stage = "telegram_completed"
	StageTelegramFailed      Stage = "telegram_failed"
	StageScriptQueued        Stage = "script_queued"
	StageScriptProcessing    Stage = "script_processing"
	StageScriptCompleted     Stage = "script_completed"
	StageScriptFailed        Stage = "script_failed"
	StageAudioQueued         Stage = "audio_queued"
	StageAudioProcessing     Stage = "audio_processing"
	StageAudioCompleted      Stage = "audio_completed"
	StageAudioFailed         Stage = "audio_failed"
	StagePublished           Stage = "published"
	StageFailed              Stage = "failed"

	// Legacy stages from the original system's image/post-processing
	// pipeline. Out of scope for this implementation (see Non-goals) but
	// kept as valid enum members so replayed historical state round-trips.
	StageImageProcessing Stage = "image_processing"
	StageImageFailed     Stage = "image_failed"
	StagePostProcessing  Stage = "post_processing"
)

// PodcastFormat distinguishes a one-voice episode from a two-voice one.
type PodcastFormat string

const (
	FormatSingleSpeaker PodcastFormat = "single-speaker"
	FormatMultiSpeaker  PodcastFormat = "multi-speaker"
)

// Analysis is the content-classification result attached to an episode by
// the preprocessor.
type Analysis struct {
	ContentType          string   `json:"content_type"`
	SpecificRole         string   `json:"specific_role,omitempty"`
	RoleDescription      string   `json:"role_description,omitempty"`
	Confidence           float64  `json:"confidence"`
	Reasoning            string   `json:"reasoning,omitempty"`
	Topics               []string `json:"topics,omitempty"`
	ConversationStructure string  `json:"conversation_structure,omitempty"`
	TransitionStyle      string   `json:"transition_style,omitempty"`
}

// Metadata is the structured blob carrying pre-selected voices, language,
// format, and — once a worker fails — the error detail.
type Metadata struct {
	Speaker1Voice  string `json:"speaker1_voice,omitempty"`
	Speaker2Voice  string `json:"speaker2_voice,omitempty"`
	Speaker1Role   string `json:"speaker1_role,omitempty"`
	Speaker2Role   string `json:"speaker2_role,omitempty"`
	Speaker1Gender string `json:"speaker1_gender,omitempty"`
	Speaker2Gender string `json:"speaker2_gender,omitempty"`
	LanguageCode   string `json:"language_code,omitempty"`
	PodcastFormat  PodcastFormat `json:"podcast_format,omitempty"`
	Error          string `json:"error,omitempty"`
	HasNiqqud      bool   `json:"has_niqqud,omitempty"`
}

// StageEvent is one entry of an episode's append-only stage_history.
type StageEvent struct {
	Stage      Stage         `json:"stage"`
	Status     LogStatus     `json:"status"`
	Timestamp  time.Time     `json:"timestamp"`
	DurationMS *int64        `json:"duration_ms,omitempty"`
}

// Episode is the unit of work the three workers cooperatively advance.
type Episode struct {
	ID              string
	PodcastID       string
	PodcastConfigID string

	Status       Status
	CurrentStage Stage

	LastStageUpdate     time.Time
	ProcessingStartedAt *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time

	ContentURL string
	ScriptURL  string
	AudioURL   string

	DurationSeconds int

	Metadata Metadata
	Analysis Analysis

	StageHistory []StageEvent
}

// IsMultiSpeaker reports whether the episode's assigned format calls for
// two distinct voices. A message carrying no podcast_format at all (a
// legacy replay) defaults to multi-speaker per the design notes.
func (e *Episode) IsMultiSpeaker() bool {
	return e.Metadata.PodcastFormat != FormatSingleSpeaker
}

// PodcastConfiguration holds the per-podcast parameters the preprocessor
// and collector read to drive one episode's production.
type PodcastConfiguration struct {
	ID        string
	PodcastID string

	Speaker1Gender string
	Speaker2Gender string // empty for single-speaker

	TargetLanguage  string // ISO code, e.g. "he", "en"
	TargetDuration  int    // minutes

	TelegramChannel string
	TelegramHours   int
	StartDate       *time.Time
	EndDate         *time.Time

	FilteredDomains        []string
	MediaTypes             []string
	AdditionalInstructions string

	PodcastFormat PodcastFormat
}

// LogStatus is the status of one processing-log row.
type LogStatus string

const (
	LogStarted   LogStatus = "started"
	LogCompleted LogStatus = "completed"
	LogFailed    LogStatus = "failed"
)

// ProcessingLog is one row per stage-attempt.
type ProcessingLog struct {
	ID           string
	EpisodeID    string
	Stage        Stage
	Status       LogStatus
	StartedAt    time.Time
	CompletedAt  *time.Time
	DurationMS   *int64
	ErrorMessage string
	ErrorDetails map[string]any
	Metadata     map[string]any
}

// DynamicConfig is the synthesize-queue-message payload carrying every
// preprocessor-derived parameter the synthesizer needs without touching the
// database again.
type DynamicConfig struct {
	LanguageCode     string        `json:"language_code"`
	Language         string        `json:"language"`
	PodcastFormat    PodcastFormat `json:"podcast_format"`
	Speaker1Role     string        `json:"speaker1_role"`
	Speaker1Gender   string        `json:"speaker1_gender"`
	Speaker1Voice    string        `json:"speaker1_voice"`
	Speaker2Role     string        `json:"speaker2_role,omitempty"`
	Speaker2Gender   string        `json:"speaker2_gender,omitempty"`
	Speaker2Voice    string        `json:"speaker2_voice,omitempty"`
	ContentAnalysis  Analysis      `json:"content_analysis"`
	TopicAnalysis    TopicAnalysis `json:"topic_analysis"`
}

// TopicAnalysis is the second LLM call's output (§4.4).
type TopicAnalysis struct {
	Topics               []string `json:"topics"`
	ConversationStructure string  `json:"conversation_structure"`
	TransitionStyle      string   `json:"transition_style"`
}

// ScriptMessage is the queue payload handed from preprocessor to
// synthesizer.
type ScriptMessage struct {
	EpisodeID       string        `json:"episode_id"`
	PodcastID       string        `json:"podcast_id"`
	PodcastConfigID string        `json:"podcast_config_id"`
	ScriptURL       string        `json:"script_url"`
	DynamicConfig   DynamicConfig `json:"dynamic_config"`
}

// CollectMessage is the queue payload that starts the pipeline.
type CollectMessage struct {
	PodcastConfigID string     `json:"podcast_config_id"`
	PodcastID       string     `json:"podcast_id"`
	EpisodeID       string     `json:"episode_id"`
	TelegramChannel string     `json:"telegram_channel,omitempty"`
	DateRangeStart  *time.Time `json:"date_range_start,omitempty"`
	DateRangeEnd    *time.Time `json:"date_range_end,omitempty"`
}

// PreprocessMessage is the queue payload handed from collector to
// preprocessor.
type PreprocessMessage struct {
	PodcastConfigID string `json:"podcast_config_id"`
	PodcastID       string `json:"podcast_id"`
	EpisodeID       string `json:"episode_id"`
	S3Path          string `json:"s3_path"`
}

// preprocessorDoneStages lists the stages at which a replayed preprocess
// message is acknowledged without regenerating the script: script
// generation in flight or completed, and every audio/published stage.
var preprocessorDoneStages = map[Stage]bool{
	StageScriptCompleted: true,
	StageScriptProcessing: true, // a concurrent/in-flight attempt also counts
	StageAudioQueued:      true,
	StageAudioProcessing:  true,
	StageAudioCompleted:   true,
	StageAudioFailed:      true,
	StagePublished:        true,
}

// PastScriptGeneration reports whether the episode has already advanced
// beyond the preprocessor's stage, per the idempotency rule in §5/S6: a
// replayed preprocess message for an episode already at script_completed
// or later must be acknowledged without regenerating the script.
func (e *Episode) PastScriptGeneration() bool {
	return preprocessorDoneStages[e.CurrentStage]
}

// ShouldProcessForAudio mirrors should_process_for_audio in the original
// synthesizer handler: only script_ready episodes without an audio_url are
// eligible.
func (e *Episode) ShouldProcessForAudio() bool {
	return e.Status == StatusScriptReady && e.AudioURL == ""
}
