// Package config loads the environment variables every worker needs,
// failing fast at startup when a required one is missing — the same
// discipline cmd/mcp-proxy used in the teacher for its Lambda entry point.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the environment-derived settings shared by all three
// workers. Not every field is used by every worker; each cmd/* entry point
// validates only the subset it needs.
type Config struct {
	S3Bucket string

	TelegramAPIID      int
	TelegramAPIHash    string
	TelegramSession    string

	DatabaseURL string

	GeminiAPIKey     string
	AnthropicAPIKey  string
	ScriptModel      string

	CollectQueueURL     string
	PreprocessQueueURL  string
	AudioQueueURL       string

	TTSRequestsPerMinute int

	APIBaseURL          string
	LambdaCallbackSecret string
}

// Load reads the process environment into a Config. It checks only that
// the numeric variables parse; RequireFor checks presence per role.
func Load() (*Config, error) {
	c := &Config{
		S3Bucket:             os.Getenv("S3_BUCKET_NAME"),
		TelegramAPIHash:      os.Getenv("TELEGRAM_API_HASH"),
		TelegramSession:      os.Getenv("TELEGRAM_SESSION"),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		GeminiAPIKey:         os.Getenv("GEMINI_API_KEY"),
		AnthropicAPIKey:      os.Getenv("ANTHROPIC_API_KEY"),
		ScriptModel:          os.Getenv("SCRIPT_MODEL"),
		CollectQueueURL:      os.Getenv("TELEGRAM_QUEUE_URL"),
		PreprocessQueueURL:   os.Getenv("SCRIPT_GENERATION_QUEUE_URL"),
		AudioQueueURL:        os.Getenv("AUDIO_GENERATION_QUEUE_URL"),
		APIBaseURL:           os.Getenv("API_BASE_URL"),
		LambdaCallbackSecret: os.Getenv("LAMBDA_CALLBACK_SECRET"),
		TTSRequestsPerMinute: 9,
	}

	if v := os.Getenv("TELEGRAM_API_ID"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_API_ID must be an integer: %w", err)
		}
		c.TelegramAPIID = id
	}

	if v := os.Getenv("TTS_REQUESTS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("TTS_REQUESTS_PER_MINUTE must be an integer: %w", err)
		}
		c.TTSRequestsPerMinute = n
	}

	return c, nil
}

// RequireFor validates that every variable a given worker role needs is
// present, returning a descriptive error naming every missing one.
func (c *Config) RequireFor(role string) error {
	var missing []string
	need := func(cond bool, name string) {
		if !cond {
			missing = append(missing, name)
		}
	}

	switch role {
	case "collector":
		need(c.S3Bucket != "", "S3_BUCKET_NAME")
		need(c.TelegramAPIID != 0, "TELEGRAM_API_ID")
		need(c.TelegramAPIHash != "", "TELEGRAM_API_HASH")
		need(c.TelegramSession != "", "TELEGRAM_SESSION")
		need(c.DatabaseURL != "", "DATABASE_URL")
		need(c.PreprocessQueueURL != "", "SCRIPT_GENERATION_QUEUE_URL")
	case "preprocessor":
		need(c.S3Bucket != "", "S3_BUCKET_NAME")
		need(c.DatabaseURL != "", "DATABASE_URL")
		need(c.ScriptModel != "" || c.GeminiAPIKey != "" || c.AnthropicAPIKey != "", "GEMINI_API_KEY, ANTHROPIC_API_KEY, or SCRIPT_MODEL")
		need(c.AudioQueueURL != "", "AUDIO_GENERATION_QUEUE_URL")
	case "synthesizer":
		need(c.S3Bucket != "", "S3_BUCKET_NAME")
		need(c.DatabaseURL != "", "DATABASE_URL")
		need(c.GeminiAPIKey != "", "GEMINI_API_KEY")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables for %s: %v", role, missing)
	}
	return nil
}
