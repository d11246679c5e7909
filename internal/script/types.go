// Package script turns prioritized clean content into a natural,
// role-labeled two-speaker (or one-speaker) dialogue script, by way of
// two upstream LLM calls (content analysis, topic analysis) and a
// drafting call. Three backends are supported — Claude, Gemini, and
// Nova/Bedrock — behind the same Generator interface, adapted from the
// teacher's multi-backend script package.
package script

import (
	"context"

	"github.com/apresai/podcasto-pipeline/internal/content"
	"github.com/apresai/podcasto-pipeline/internal/episode"
)

// GenerateOptions carries everything DraftScript needs to assemble its
// prompt (§4.4 "Script drafting").
type GenerateOptions struct {
	PodcastName           string
	Language              string // full name, e.g. "English", "Hebrew"
	LanguageCode          string
	TargetDurationMinutes int
	PodcastFormat         episode.PodcastFormat

	Speaker1Role  string
	Speaker2Role  string // empty for single-speaker

	ContentAnalysis episode.Analysis
	TopicAnalysis   episode.TopicAnalysis
	Metrics         content.Metrics

	// PrioritizedContent is the message list the drafting prompt is
	// grounded on — already reduced by content.SelectPriorityMessages
	// when Metrics.Strategy is compression.
	PrioritizedContent []content.Message

	Model string
}

// Generator is the Script Generator & Content Analyzer component
// (§4.4). Each method corresponds to one of the spec's three LLM
// calls.
type Generator interface {
	// AnalyzeContent runs the content-classification call: content type,
	// specific role/title for speaker 2, and reasoning.
	AnalyzeContent(ctx context.Context, extractedText string) (episode.Analysis, error)

	// AnalyzeTopics runs the separate structural call: topic list,
	// conversation structure, and transition style.
	AnalyzeTopics(ctx context.Context, extractedText string, analysis episode.Analysis) (episode.TopicAnalysis, error)

	// DraftScript renders the final dialogue script as plain text.
	DraftScript(ctx context.Context, opts GenerateOptions) (string, error)
}

// maxExtractedTextChars bounds how much raw content the analysis calls
// see, per §4.4 ("extracted text, truncated to ~2000 chars").
const maxExtractedTextChars = 2000

func truncateForAnalysis(text string) string {
	r := []rune(text)
	if len(r) <= maxExtractedTextChars {
		return text
	}
	return string(r[:maxExtractedTextChars])
}
