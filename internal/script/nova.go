package script

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/apresai/podcasto-pipeline/internal/episode"
)

var novaModels = map[string]string{
	"nova-lite": "us.amazon.nova-2-lite-v1:0",
}

// NovaGenerator is the third Generator backend, selected when the
// SCRIPT_MODEL environment variable names nova-lite.
type NovaGenerator struct {
	model  string
	client *bedrockruntime.Client
}

func NewNovaGenerator(model string) (*NovaGenerator, error) {
	cfg, err := config.LoadDefaultConfig(context.Background())
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &NovaGenerator{
		model:  model,
		client: bedrockruntime.NewFromConfig(cfg),
	}, nil
}

func (g *NovaGenerator) modelID() string {
	id := novaModels[g.model]
	if id == "" {
		id = novaModels["nova-lite"]
	}
	return id
}

func (g *NovaGenerator) AnalyzeContent(ctx context.Context, extractedText string) (episode.Analysis, error) {
	text, err := g.converse(ctx, "", buildContentAnalysisPrompt(extractedText), 1024)
	if err != nil {
		return episode.Analysis{}, err
	}
	return parseContentAnalysis(text)
}

func (g *NovaGenerator) AnalyzeTopics(ctx context.Context, extractedText string, analysis episode.Analysis) (episode.TopicAnalysis, error) {
	text, err := g.converse(ctx, "", buildTopicAnalysisPrompt(extractedText, analysis), 1024)
	if err != nil {
		return episode.TopicAnalysis{}, err
	}
	return parseTopicAnalysis(text)
}

func (g *NovaGenerator) DraftScript(ctx context.Context, opts GenerateOptions) (string, error) {
	maxTokens := int32(maxTokensForDuration(opts.TargetDurationMinutes))
	text, err := g.converse(ctx, buildDraftSystemPrompt(opts), buildDraftUserPrompt(opts), maxTokens)
	if err != nil {
		return "", err
	}
	if err := validateDraft(text, opts); err != nil {
		return "", fmt.Errorf("draft script failed validation: %w", err)
	}
	return text, nil
}

func (g *NovaGenerator) converse(ctx context.Context, systemPrompt, userPrompt string, maxTokens int32) (string, error) {
	var system []types.SystemContentBlock
	if systemPrompt != "" {
		system = []types.SystemContentBlock{&types.SystemContentBlockMemberText{Value: systemPrompt}}
	}

	var lastErr error
	backoff := initialBackoff

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		resp, err := g.client.Converse(ctx, &bedrockruntime.ConverseInput{
			ModelId: aws.String(g.modelID()),
			System:  system,
			Messages: []types.Message{
				{
					Role:    types.ConversationRoleUser,
					Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: userPrompt}},
				},
			},
			InferenceConfig: &types.InferenceConfiguration{
				MaxTokens:   aws.Int32(maxTokens),
				Temperature: aws.Float32(temperature),
			},
		})
		if err != nil {
			lastErr = fmt.Errorf("Bedrock Converse error (attempt %d/%d): %w", attempt, maxRetries, err)
			if !g.wait(ctx, attempt, &backoff) {
				return "", ctx.Err()
			}
			continue
		}

		text := extractNovaText(resp)
		if text == "" {
			lastErr = fmt.Errorf("empty response from Bedrock (attempt %d/%d)", attempt, maxRetries)
			if !g.wait(ctx, attempt, &backoff) {
				return "", ctx.Err()
			}
			continue
		}

		return text, nil
	}

	return "", lastErr
}

func (g *NovaGenerator) wait(ctx context.Context, attempt int, backoff *time.Duration) bool {
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

func extractNovaText(resp *bedrockruntime.ConverseOutput) string {
	if resp.Output == nil {
		return ""
	}
	msg, ok := resp.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return ""
	}
	for _, block := range msg.Value.Content {
		if tb, ok := block.(*types.ContentBlockMemberText); ok {
			return tb.Value
		}
	}
	return ""
}
