// Command preprocessor is the Lambda entry point for the script stage:
// it polls the preprocess queue, analyzes and drafts a script for each
// collected episode, and enqueues the synthesizer's message. Thin
// wiring only — all the logic lives in internal/worker/preprocessor.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/apresai/podcasto-pipeline/internal/config"
	"github.com/apresai/podcasto-pipeline/internal/episode"
	"github.com/apresai/podcasto-pipeline/internal/observability"
	"github.com/apresai/podcasto-pipeline/internal/queue"
	"github.com/apresai/podcasto-pipeline/internal/script"
	"github.com/apresai/podcasto-pipeline/internal/store/blob"
	"github.com/apresai/podcasto-pipeline/internal/store/db"
	preprocessorworker "github.com/apresai/podcasto-pipeline/internal/worker/preprocessor"
)

var (
	log    *slog.Logger
	worker *preprocessorworker.Worker
)

func init() {
	log = observability.InitLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.RequireFor("preprocessor"); err != nil {
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
	sender := queue.NewSender[episode.ScriptMessage](sqs.NewFromConfig(awsCfg), cfg.AudioQueueURL)

	model := "gemini-flash"
	apiKey := cfg.GeminiAPIKey
	if cfg.AnthropicAPIKey != "" {
		model, apiKey = "sonnet", cfg.AnthropicAPIKey
	}
	if cfg.ScriptModel != "" {
		// Operator override — podcast configurations pinned to Bedrock/Nova
		// set SCRIPT_MODEL=nova-lite instead of relying on the Gemini/Claude
		// default. NovaGenerator takes its credentials from the Lambda's
		// AWS role, not an API key.
		model, apiKey = cfg.ScriptModel, ""
	}
	generator, err := script.NewGenerator(model, apiKey)
	if err != nil {
		log.Error("failed to build script generator", "error", err)
		os.Exit(1)
	}

	worker = preprocessorworker.New(store, blobs, generator, tracker, sender, log)
}

func main() {
	lambda.Start(handleEvent)
}

func handleEvent(ctx context.Context, evt events.SQSEvent) (events.SQSEventResponse, error) {
	records, malformed := queue.Decode[episode.PreprocessMessage](evt)
	failed := append([]string(nil), malformed...)

	for _, rec := range records {
		if err := worker.HandleMessage(ctx, rec.Message); err != nil {
			log.ErrorContext(ctx, "preprocessor: message failed", "episode_id", rec.Message.EpisodeID, "error", err)
			failed = append(failed, rec.MessageID)
		}
	}

	return queue.BatchResponse(failed), nil
}
