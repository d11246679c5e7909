package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"time"
)

const (
	defaultModel   = "gemini-2.5-flash-preview-tts"
	geminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"

	// synthesisTemperature is tuned high enough to avoid silent output —
	// the original system's comments are explicit that low temperatures
	// on this model can produce silence instead of speech.
	synthesisTemperature = 0.8
	synthesisTopP        = 0.95
)

// Wire types for the Gemini generateContent multi-speaker TTS request,
// structurally identical to the teacher's tts/gemini.go types.

type geminiRequest struct {
	Contents         []geminiContent   `json:"contents"`
	GenerationConfig geminiGenConfig   `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	ResponseModalities []string          `json:"responseModalities"`
	Temperature        float64           `json:"temperature"`
	TopP               float64           `json:"topP"`
	SpeechConfig       geminiSpeechConfig `json:"speechConfig"`
}

type geminiSpeechConfig struct {
	VoiceConfig            *geminiVoiceConfig            `json:"voiceConfig,omitempty"`
	MultiSpeakerVoiceConfig *geminiMultiSpeakerConfig    `json:"multiSpeakerVoiceConfig,omitempty"`
}

type geminiVoiceConfig struct {
	PrebuiltVoiceConfig geminiPrebuiltVoice `json:"prebuiltVoiceConfig"`
}

type geminiMultiSpeakerConfig struct {
	SpeakerVoiceConfigs []geminiSpeakerVoiceConfig `json:"speakerVoiceConfigs"`
}

type geminiSpeakerVoiceConfig struct {
	Speaker     string            `json:"speaker"`
	VoiceConfig geminiVoiceConfig `json:"voiceConfig"`
}

type geminiPrebuiltVoice struct {
	VoiceName string `json:"voiceName"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiCandidate struct {
	Content geminiRespContent `json:"content"`
}

type geminiRespContent struct {
	Parts []geminiRespPart `json:"parts"`
}

type geminiRespPart struct {
	InlineData geminiInlineData `json:"inlineData"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // base64 PCM
}

// geminiClient is the raw HTTP transport to Gemini's generateContent
// endpoint. Client (in client.go) wraps this with rate limiting, timeout,
// and retry.
type geminiClient struct {
	apiKey      string
	model       string
	endpointURL string // overrides the real Gemini endpoint in tests; empty uses it
	httpClient  *http.Client
}

func newGeminiClient(apiKey string) *geminiClient {
	return &geminiClient{
		apiKey:     apiKey,
		model:      defaultModel,
		httpClient: &http.Client{},
	}
}

func (c *geminiClient) endpoint() string {
	if c.endpointURL != "" {
		return c.endpointURL
	}
	return fmt.Sprintf(geminiEndpoint, c.model)
}

// httpError carries the classification signal (status code + body) up to
// the retry wrapper, which maps it onto the apperr taxonomy.
type httpError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpError) Error() string {
	return fmt.Sprintf("gemini tts: http %d: %s", e.StatusCode, e.Body)
}

var retryDelayPattern = regexp.MustCompile(`retryDelay['"]?:?\s*['"]?(\d+)s`)

// parseRetryDelay extracts a suggested retry-after duration from a 429
// response body, defaulting to 60s when none is found — grounded on
// rate_limiter.py's parse_retry_delay.
func parseRetryDelay(body string) time.Duration {
	m := retryDelayPattern.FindStringSubmatch(body)
	if len(m) != 2 {
		return 60 * time.Second
	}
	secs, err := strconv.Atoi(m[1])
	if err != nil {
		return 60 * time.Second
	}
	return time.Duration(secs) * time.Second
}

// speakerConfig is one speaker's role+voice pairing for a multi-speaker
// request.
type speakerConfig struct {
	Role  string
	Voice string
}

// synthesizePCM performs one generateContent call and returns raw PCM
// bytes plus the sample rate parsed from the response MIME type. speakers
// has length 1 for single-speaker requests, 2 for multi-speaker.
func (c *geminiClient) synthesizePCM(ctx context.Context, prompt string, speakers []speakerConfig) ([]byte, int, error) {
	speechConfig := geminiSpeechConfig{}
	if len(speakers) == 1 {
		speechConfig.VoiceConfig = &geminiVoiceConfig{
			PrebuiltVoiceConfig: geminiPrebuiltVoice{VoiceName: speakers[0].Voice},
		}
	} else {
		configs := make([]geminiSpeakerVoiceConfig, len(speakers))
		for i, s := range speakers {
			configs[i] = geminiSpeakerVoiceConfig{
				Speaker: s.Role,
				VoiceConfig: geminiVoiceConfig{
					PrebuiltVoiceConfig: geminiPrebuiltVoice{VoiceName: s.Voice},
				},
			}
		}
		speechConfig.MultiSpeakerVoiceConfig = &geminiMultiSpeakerConfig{SpeakerVoiceConfigs: configs}
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: geminiGenConfig{
			ResponseModalities: []string{"AUDIO"},
			Temperature:        synthesisTemperature,
			TopP:               synthesisTopP,
			SpeechConfig:       speechConfig,
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("gemini tts: marshal request: %w", err)
	}

	url := c.endpoint() + "?key=" + c.apiKey
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("gemini tts: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, fmt.Errorf("gemini tts: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("gemini tts: read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, 0, &httpError{StatusCode: resp.StatusCode, Body: string(body), RetryAfter: parseRetryDelay(string(body))}
	}
	if resp.StatusCode >= 500 {
		return nil, 0, &httpError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, 0, &httpError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var gr geminiResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return nil, 0, fmt.Errorf("gemini tts: unmarshal response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return nil, 0, fmt.Errorf("gemini tts: empty response")
	}

	part := gr.Candidates[0].Content.Parts[0]
	pcm, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
	if err != nil {
		return nil, 0, fmt.Errorf("gemini tts: decode audio: %w", err)
	}

	sampleRate := parseSampleRate(part.InlineData.MimeType)
	return pcm, sampleRate, nil
}

var sampleRatePattern = regexp.MustCompile(`rate=(\d+)`)

// parseSampleRate extracts the sample rate from a MIME type like
// "audio/L16;codec=pcm;rate=24000", defaulting to 24000 (the spec's fixed
// output rate) when absent.
func parseSampleRate(mimeType string) int {
	m := sampleRatePattern.FindStringSubmatch(mimeType)
	if len(m) != 2 {
		return 24000
	}
	rate, err := strconv.Atoi(m[1])
	if err != nil {
		return 24000
	}
	return rate
}
