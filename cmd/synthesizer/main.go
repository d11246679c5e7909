// Command synthesizer is the Lambda entry point for the audio stage:
// it polls the synthesize queue, renders and concatenates each
// episode's script into a final WAV, and marks the episode completed —
// or defers it back to script_ready on a rate-limit/timeout signal.
// Thin wiring only — all the logic lives in internal/worker/synthesizer.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/apresai/podcasto-pipeline/internal/audio"
	"github.com/apresai/podcasto-pipeline/internal/config"
	"github.com/apresai/podcasto-pipeline/internal/episode"
	"github.com/apresai/podcasto-pipeline/internal/observability"
	"github.com/apresai/podcasto-pipeline/internal/queue"
	"github.com/apresai/podcasto-pipeline/internal/store/blob"
	"github.com/apresai/podcasto-pipeline/internal/store/db"
	"github.com/apresai/podcasto-pipeline/internal/tts"
	"github.com/apresai/podcasto-pipeline/internal/webhook"
	synthesizerworker "github.com/apresai/podcasto-pipeline/internal/worker/synthesizer"
)

const (
	maxCharsPerChunk = 1200
	maxWorkers       = 2
	ttsRefillPeriod  = 60 * time.Second
)

var (
	log    *slog.Logger
	worker *synthesizerworker.Worker
)

func init() {
	log = observability.InitLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.RequireFor("synthesizer"); err != nil {
		log.Error("missing configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	store, err := db.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	blobs := blob.NewStore(s3.NewFromConfig(awsCfg), cfg.S3Bucket, "")
	tracker := episode.NewTracker(store, log)
	ttsClient := tts.NewClient(cfg.GeminiAPIKey, cfg.TTSRequestsPerMinute, ttsRefillPeriod, log)
	diacritizer := tts.NewDiacritizer()
	manager := audio.NewManager(maxCharsPerChunk, maxWorkers, log)
	notifier := webhook.New(cfg.APIBaseURL, cfg.LambdaCallbackSecret, log)

	worker = synthesizerworker.New(store, blobs, ttsClient, diacritizer, manager, tracker, notifier, log)
}

func main() {
	lambda.Start(handleEvent)
}

func handleEvent(ctx context.Context, evt events.SQSEvent) (events.SQSEventResponse, error) {
	records, malformed := queue.Decode[episode.ScriptMessage](evt)
	failed := append([]string(nil), malformed...)

	for _, rec := range records {
		if err := worker.HandleMessage(ctx, rec.Message); err != nil {
			log.ErrorContext(ctx, "synthesizer: message failed", "episode_id", rec.Message.EpisodeID, "error", err)
			failed = append(failed, rec.MessageID)
		}
	}

	return queue.BatchResponse(failed), nil
}
