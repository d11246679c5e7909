package script

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/apresai/podcasto-pipeline/internal/episode"
)

var geminiModels = map[string]string{
	"gemini-flash": "gemini-2.5-flash",
	"gemini-pro":   "gemini-2.5-pro",
}

const geminiGenerateEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"

// GeminiGenerator is the Generator backend for gemini-flash/gemini-pro.
// cmd/preprocessor uses gemini-flash when no Anthropic key is configured
// and SCRIPT_MODEL is unset.
type GeminiGenerator struct {
	model      string
	apiKey     string
	httpClient *http.Client
}

func NewGeminiGenerator(model, apiKey string) *GeminiGenerator {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	return &GeminiGenerator{
		model:      model,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

type geminiTextRequest struct {
	SystemInstruction *geminiTextContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiTextContent `json:"contents"`
	GenerationConfig  *geminiTextGenCfg   `json:"generationConfig,omitempty"`
}

type geminiTextContent struct {
	Parts []geminiTextPart `json:"parts"`
}

type geminiTextPart struct {
	Text string `json:"text"`
}

type geminiTextGenCfg struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiTextResponse struct {
	Candidates []geminiTextCandidate `json:"candidates"`
}

type geminiTextCandidate struct {
	Content geminiTextRespContent `json:"content"`
}

type geminiTextRespContent struct {
	Parts []geminiTextRespPart `json:"parts"`
}

type geminiTextRespPart struct {
	Text string `json:"text"`
}

func (g *GeminiGenerator) modelID() string {
	id := geminiModels[g.model]
	if id == "" {
		id = geminiModels["gemini-flash"]
	}
	return id
}

func (g *GeminiGenerator) AnalyzeContent(ctx context.Context, extractedText string) (episode.Analysis, error) {
	text, err := g.complete(ctx, "", buildContentAnalysisPrompt(extractedText), 1024)
	if err != nil {
		return episode.Analysis{}, err
	}
	return parseContentAnalysis(text)
}

func (g *GeminiGenerator) AnalyzeTopics(ctx context.Context, extractedText string, analysis episode.Analysis) (episode.TopicAnalysis, error) {
	text, err := g.complete(ctx, "", buildTopicAnalysisPrompt(extractedText, analysis), 1024)
	if err != nil {
		return episode.TopicAnalysis{}, err
	}
	return parseTopicAnalysis(text)
}

func (g *GeminiGenerator) DraftScript(ctx context.Context, opts GenerateOptions) (string, error) {
	maxTokens := int(maxTokensForDuration(opts.TargetDurationMinutes))
	text, err := g.complete(ctx, buildDraftSystemPrompt(opts), buildDraftUserPrompt(opts), maxTokens)
	if err != nil {
		return "", err
	}
	if err := validateDraft(text, opts); err != nil {
		return "", fmt.Errorf("draft script failed validation: %w", err)
	}
	return text, nil
}

func (g *GeminiGenerator) complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	reqBody := geminiTextRequest{
		Contents: []geminiTextContent{
			{Parts: []geminiTextPart{{Text: userPrompt}}},
		},
		GenerationConfig: &geminiTextGenCfg{
			Temperature:     temperature,
			MaxOutputTokens: maxTokens,
		},
	}
	if systemPrompt != "" {
		reqBody.SystemInstruction = &geminiTextContent{Parts: []geminiTextPart{{Text: systemPrompt}}}
	}

	var lastErr error
	backoff := initialBackoff

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		text, err := g.doRequest(ctx, g.modelID(), reqBody)
		if err != nil {
			lastErr = fmt.Errorf("Gemini API error (attempt %d/%d): %w", attempt, maxRetries, err)
			if !g.wait(ctx, attempt, &backoff) {
				return "", ctx.Err()
			}
			continue
		}
		if text == "" {
			lastErr = fmt.Errorf("empty response from Gemini (attempt %d/%d)", attempt, maxRetries)
			if !g.wait(ctx, attempt, &backoff) {
				return "", ctx.Err()
			}
			continue
		}

		return text, nil
	}

	return "", lastErr
}

func (g *GeminiGenerator) wait(ctx context.Context, attempt int, backoff *time.Duration) bool {
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

func (g *GeminiGenerator) doRequest(ctx context.Context, modelID string, reqBody geminiTextRequest) (string, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf(geminiGenerateEndpoint+"?key=%s", modelID, g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= http.StatusInternalServerError {
		errBody, _ := io.ReadAll(res.Body)
		return "", fmt.Errorf("retryable error (status %d): %s", res.StatusCode, string(errBody))
	}
	if res.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(res.Body)
		return "", fmt.Errorf("Gemini API error (status %d): %s", res.StatusCode, string(errBody))
	}

	respBody, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var resp geminiTextResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("response contained no text")
	}

	return resp.Candidates[0].Content.Parts[0].Text, nil
}
