package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/apresai/podcasto-pipeline/internal/episode"
	"github.com/apresai/podcasto-pipeline/internal/progress"
)

var watchFlagInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch <episode-id>",
	Short: "Poll an episode until it completes or fails, rendering a progress bar",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		admCtx, err := newAdminCtx(ctx)
		if err != nil {
			fatal(err)
		}

		renderer := progress.NewBarRenderer(os.Stdout)
		start := time.Now()

		for {
			ep, err := admCtx.store.GetEpisode(ctx, args[0])
			if err != nil {
				fatal(err)
			}

			stage, pct := watchProgress(ep.Status)
			renderer.Handle(progress.Event{
				Stage:   stage,
				Message: fmt.Sprintf("%s (%s)", ep.Status, ep.CurrentStage),
				Percent: pct,
				Elapsed: time.Since(start),
			})

			if ep.Status == episode.StatusCompleted {
				renderer.Handle(progress.Event{Stage: progress.StageComplete, Message: "episode completed", OutputFile: ep.AudioURL, Duration: fmt.Sprintf("%ds", ep.DurationSeconds)})
				renderer.Finish()
				return
			}
			if ep.Status == episode.StatusFailed {
				renderer.Finish()
				fatal(fmt.Errorf("episode failed: %s", ep.Metadata.Error))
			}

			time.Sleep(watchFlagInterval)
		}
	},
}

// watchProgress maps an episode's coarse status onto the generic
// progress.Stage/percent pair the bar renderer understands.
func watchProgress(status episode.Status) (progress.Stage, float64) {
	switch status {
	case episode.StatusPending:
		return progress.StageIngest, 0.05
	case episode.StatusContentCollected:
		return progress.StageScript, 0.35
	case episode.StatusScriptReady:
		return progress.StageTTS, 0.55
	case episode.StatusProcessing:
		return progress.StageAssembly, 0.85
	case episode.StatusCompleted:
		return progress.StageComplete, 1.0
	default:
		return progress.StageIngest, 0
	}
}

func init() {
	watchCmd.Flags().DurationVar(&watchFlagInterval, "interval", 5*time.Second, "polling interval")
}
