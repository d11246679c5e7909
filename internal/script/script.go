// script.go holds the pieces shared by all three Generator backends:
// the retry/backoff constants, model-name tables, the JSON-extraction
// helpers the two analysis calls share, and the plain-text validation
// DraftScript's output goes through before a worker ever sees it.
package script

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/apresai/podcasto-pipeline/internal/episode"
)

const (
	temperature    = 0.7
	maxRetries     = 3
	initialBackoff = 1 * time.Second
	backoffMult    = 2
)

// NewGenerator returns the Generator backend for the given model name.
// apiKey is an optional per-request override; empty falls back to the
// backend's usual environment variable or AWS credential chain.
func NewGenerator(model, apiKey string) (Generator, error) {
	switch model {
	case "haiku", "sonnet":
		return NewClaudeGenerator(model, apiKey), nil
	case "gemini-flash", "gemini-pro":
		return NewGeminiGenerator(model, apiKey), nil
	case "nova-lite":
		return NewNovaGenerator(model)
	default:
		return nil, fmt.Errorf("unknown model %q: must be haiku, sonnet, gemini-flash, gemini-pro, or nova-lite", model)
	}
}

// ModelDisplayName returns a human-readable model identifier for logs.
func ModelDisplayName(model string) string {
	names := map[string]string{
		"haiku":        "claude-haiku-4-5-20251001",
		"sonnet":       "claude-sonnet-4-5-20250929",
		"gemini-flash": "gemini-2.5-flash",
		"gemini-pro":   "gemini-2.5-pro",
		"nova-lite":    "us.amazon.nova-2-lite-v1:0",
	}
	if name, ok := names[model]; ok {
		return name
	}
	return model
}

var mdFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*\n?(.*?)\n?```")

// extractJSONObject pulls a JSON object out of a raw model response,
// stripping a markdown code fence if present and falling back to the
// first-'{'-to-last-'}' slice otherwise.
func extractJSONObject(text string) string {
	if matches := mdFenceRe.FindStringSubmatch(text); len(matches) > 1 {
		text = matches[1]
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

// parseContentAnalysis decodes the content-analysis call's JSON response.
func parseContentAnalysis(text string) (episode.Analysis, error) {
	raw := extractJSONObject(text)
	if raw == "" {
		return episode.Analysis{}, fmt.Errorf("no JSON content found in response")
	}
	var a episode.Analysis
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return episode.Analysis{}, fmt.Errorf("invalid content analysis JSON: %w", err)
	}
	if strings.TrimSpace(a.ContentType) == "" {
		return episode.Analysis{}, fmt.Errorf("content analysis missing content_type")
	}
	return a, nil
}

// parseTopicAnalysis decodes the topic-analysis call's JSON response.
func parseTopicAnalysis(text string) (episode.TopicAnalysis, error) {
	raw := extractJSONObject(text)
	if raw == "" {
		return episode.TopicAnalysis{}, fmt.Errorf("no JSON content found in response")
	}
	var t episode.TopicAnalysis
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return episode.TopicAnalysis{}, fmt.Errorf("invalid topic analysis JSON: %w", err)
	}
	if len(t.Topics) == 0 {
		return episode.TopicAnalysis{}, fmt.Errorf("topic analysis returned no topics")
	}
	return t, nil
}

// validateDraft checks that DraftScript's raw text is non-empty and
// actually uses the role labels the prompt asked for, rather than
// silently handing a worker an empty or mislabeled script.
func validateDraft(text string, opts GenerateOptions) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("draft script is empty")
	}
	if !strings.Contains(text, opts.Speaker1Role+":") {
		return fmt.Errorf("draft script never uses the %q role label", opts.Speaker1Role)
	}
	if opts.Speaker2Role != "" && !strings.Contains(text, opts.Speaker2Role+":") {
		return fmt.Errorf("draft script never uses the %q role label", opts.Speaker2Role)
	}
	return nil
}
