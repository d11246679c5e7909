// Command collector is the Lambda entry point for the collection stage:
// it polls the collect queue, fetches and filters a channel's recent
// history, and enqueues the preprocessor's message. Thin wiring only —
// all the logic lives in internal/worker/collector.
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

	"github.com/apresai/podcasto-pipeline/internal/collector/telegram"
	"github.com/apresai/podcasto-pipeline/internal/config"
	"github.com/apresai/podcasto-pipeline/internal/episode"
	"github.com/apresai/podcasto-pipeline/internal/observability"
	"github.com/apresai/podcasto-pipeline/internal/queue"
	"github.com/apresai/podcasto-pipeline/internal/store/blob"
	"github.com/apresai/podcasto-pipeline/internal/store/db"
	collectorworker "github.com/apresai/podcasto-pipeline/internal/worker/collector"
)

var (
	log    *slog.Logger
	worker *collectorworker.Worker
)

func init() {
	log = observability.InitLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.RequireFor("collector"); err != nil {
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
	source := telegram.NewClient(cfg.TelegramAPIID, cfg.TelegramAPIHash, cfg.TelegramSession)
	sender := queue.NewSender[episode.PreprocessMessage](sqs.NewFromConfig(awsCfg), cfg.PreprocessQueueURL)

	worker = collectorworker.New(store, blobs, source, tracker, sender, log)
}

func main() {
	lambda.Start(handleEvent)
}

func handleEvent(ctx context.Context, evt events.SQSEvent) (events.SQSEventResponse, error) {
	records, malformed := queue.Decode[episode.CollectMessage](evt)
	failed := append([]string(nil), malformed...)

	for _, rec := range records {
		if err := worker.HandleMessage(ctx, rec.Message); err != nil {
			log.ErrorContext(ctx, "collector: message failed", "episode_id", rec.Message.EpisodeID, "error", err)
			failed = append(failed, rec.MessageID)
		}
	}

	return queue.BatchResponse(failed), nil
}
