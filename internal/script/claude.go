package script

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/apresai/podcasto-pipeline/internal/episode"
)

var claudeModels = map[string]string{
	"haiku":  "claude-haiku-4-5-20251001",
	"sonnet": "claude-sonnet-4-5-20250929",
}

// ClaudeGenerator is the primary Generator backend.
type ClaudeGenerator struct {
	model  string
	apiKey string // optional per-request override; empty = use env ANTHROPIC_API_KEY
}

func NewClaudeGenerator(model, apiKey string) *ClaudeGenerator {
	return &ClaudeGenerator{model: model, apiKey: apiKey}
}

func (g *ClaudeGenerator) client() anthropic.Client {
	if g.apiKey != "" {
		return anthropic.NewClient(option.WithAPIKey(g.apiKey))
	}
	return anthropic.NewClient()
}

func (g *ClaudeGenerator) modelID() anthropic.Model {
	id := claudeModels[g.model]
	if id == "" {
		id = claudeModels["haiku"]
	}
	return anthropic.Model(id)
}

func (g *ClaudeGenerator) AnalyzeContent(ctx context.Context, extractedText string) (episode.Analysis, error) {
	text, err := g.complete(ctx, "", buildContentAnalysisPrompt(extractedText), 1024)
	if err != nil {
		return episode.Analysis{}, err
	}
	return parseContentAnalysis(text)
}

func (g *ClaudeGenerator) AnalyzeTopics(ctx context.Context, extractedText string, analysis episode.Analysis) (episode.TopicAnalysis, error) {
	text, err := g.complete(ctx, "", buildTopicAnalysisPrompt(extractedText, analysis), 1024)
	if err != nil {
		return episode.TopicAnalysis{}, err
	}
	return parseTopicAnalysis(text)
}

func (g *ClaudeGenerator) DraftScript(ctx context.Context, opts GenerateOptions) (string, error) {
	text, err := g.complete(ctx, buildDraftSystemPrompt(opts), buildDraftUserPrompt(opts), maxTokensForDuration(opts.TargetDurationMinutes))
	if err != nil {
		return "", err
	}
	if err := validateDraft(text, opts); err != nil {
		return "", fmt.Errorf("draft script failed validation: %w", err)
	}
	return text, nil
}

// complete runs one Messages.New call with the package's retry/backoff
// ladder, retrying on transport errors and on an empty response.
func (g *ClaudeGenerator) complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int64) (string, error) {
	client := g.client()
	modelID := g.modelID()

	var system []anthropic.TextBlockParam
	if systemPrompt != "" {
		system = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	var lastErr error
	backoff := initialBackoff

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
			Model:       modelID,
			MaxTokens:   maxTokens,
			Temperature: anthropic.Float(temperature),
			System:      system,
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
			},
		})
		if err != nil {
			lastErr = fmt.Errorf("Claude API error (attempt %d/%d): %w", attempt, maxRetries, err)
			if !g.wait(ctx, attempt, &backoff) {
				return "", ctx.Err()
			}
			continue
		}

		text := extractText(message)
		if text == "" {
			lastErr = fmt.Errorf("empty response from Claude (attempt %d/%d)", attempt, maxRetries)
			if !g.wait(ctx, attempt, &backoff) {
				return "", ctx.Err()
			}
			continue
		}

		return text, nil
	}

	return "", lastErr
}

func (g *ClaudeGenerator) wait(ctx context.Context, attempt int, backoff *time.Duration) bool {
	if attempt >= maxRetries {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(*backoff):
	}
	*backoff *= time.Duration(backoffMult)
	return true
}

func extractText(msg *anthropic.Message) string {
	var parts []string
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			parts = append(parts, tb.Text)
		}
	}
	return strings.Join(parts, "")
}
