// Package cli is the operator-facing command tree for podcast-admin:
// inspecting an episode's stage history and artifacts, listing stuck
// episodes, and replaying one back onto its stage's queue. It never
// touches an episode's state directly — every mutation goes through the
// same queues the pipeline's three workers already consume.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/spf13/cobra"

	"github.com/apresai/podcasto-pipeline/internal/admin"
	"github.com/apresai/podcasto-pipeline/internal/config"
	"github.com/apresai/podcasto-pipeline/internal/episode"
	"github.com/apresai/podcasto-pipeline/internal/store/db"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "podcast-admin",
	Short: "Inspect and replay episodes in the podcast processing pipeline",
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("podcast-admin %s\n", Version)
	},
}

// Execute runs the CLI, returning any error for main to translate into
// an exit code.
func Execute() error {
	rootCmd.AddCommand(versionCmd, showCmd, listCmd, replayCmd, watchCmd, mcpServeCmd)
	return rootCmd.Execute()
}

// adminCtx bundles the store and queue senders every subcommand needs,
// built once per invocation from the process environment.
type adminCtx struct {
	store   *db.Store
	senders admin.Senders
}

func newAdminCtx(ctx context.Context) (*adminCtx, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	store, err := db.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	var senders admin.Senders
	if cfg.CollectQueueURL != "" || cfg.PreprocessQueueURL != "" || cfg.AudioQueueURL != "" {
		awsCfg, err := loadAWSConfig(ctx)
		if err != nil {
			return nil, err
		}
		sqsClient := sqs.NewFromConfig(awsCfg)
		if cfg.CollectQueueURL != "" {
			senders.Collect = newSender[episode.CollectMessage](sqsClient, cfg.CollectQueueURL)
		}
		if cfg.PreprocessQueueURL != "" {
			senders.Preprocess = newSender[episode.PreprocessMessage](sqsClient, cfg.PreprocessQueueURL)
		}
		if cfg.AudioQueueURL != "" {
			senders.Synthesize = newSender[episode.ScriptMessage](sqsClient, cfg.AudioQueueURL)
		}
	}

	return &adminCtx{store: store, senders: senders}, nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
