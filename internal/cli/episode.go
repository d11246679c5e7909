package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apresai/podcasto-pipeline/internal/admin"
)

var showCmd = &cobra.Command{
	Use:   "show <episode-id>",
	Short: "Show an episode's status, stage, and artifact URLs",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		admCtx, err := newAdminCtx(ctx)
		if err != nil {
			fatal(err)
		}

		ep, err := admCtx.store.GetEpisode(ctx, args[0])
		if err != nil {
			fatal(err)
		}

		fmt.Print(admin.Describe(ep))
		if len(ep.StageHistory) > 0 {
			fmt.Println("  history:")
			for _, evt := range ep.StageHistory {
				line := fmt.Sprintf("    %s  %-10s %s", evt.Timestamp.Format("2006-01-02 15:04:05"), evt.Status, evt.Stage)
				if evt.DurationMS != nil {
					line += fmt.Sprintf(" (%dms)", *evt.DurationMS)
				}
				fmt.Println(line)
			}
		}
	},
}

var listFlagLimit int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List episodes that are failed or stuck pending",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		admCtx, err := newAdminCtx(ctx)
		if err != nil {
			fatal(err)
		}

		episodes, err := admin.ListStuck(ctx, admCtx.store, listFlagLimit)
		if err != nil {
			fatal(err)
		}
		if len(episodes) == 0 {
			fmt.Println("no stuck episodes")
			return
		}
		if flagInteractive {
			runPicker(episodes)
			return
		}
		for _, ep := range episodes {
			fmt.Printf("%s  %-18s %-22s %s\n", ep.ID, ep.Status, ep.CurrentStage, ep.LastStageUpdate.Format("2006-01-02 15:04:05"))
		}
	},
}

var flagInteractive bool

var replayCmd = &cobra.Command{
	Use:   "replay <episode-id>",
	Short: "Re-enqueue an episode onto the queue matching its current stage",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		admCtx, err := newAdminCtx(ctx)
		if err != nil {
			fatal(err)
		}

		queueName, err := admin.Replay(ctx, admCtx.store, admCtx.senders, args[0])
		if err != nil {
			fatal(err)
		}
		fmt.Printf("replayed episode %s onto the %s queue\n", args[0], queueName)
	},
}

func init() {
	listCmd.Flags().IntVar(&listFlagLimit, "limit", 25, "maximum number of episodes to list")
	listCmd.Flags().BoolVar(&flagInteractive, "interactive", false, "pick an episode from a TUI list and show its details")
}
