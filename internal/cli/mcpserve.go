package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/apresai/podcasto-pipeline/internal/mcpserver"
	"github.com/apresai/podcasto-pipeline/internal/observability"
)

var mcpServeFlagPort int

var mcpServeCmd = &cobra.Command{
	Use:   "mcp-serve",
	Short: "Serve episode-inspection tools (get_episode, list_stuck_episodes, replay_episode) over MCP",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		admCtx, err := newAdminCtx(ctx)
		if err != nil {
			fatal(err)
		}

		log := observability.InitLogger()
		srv := mcpserver.New(mcpserver.Config{Port: mcpServeFlagPort}, admCtx.store, admCtx.senders, log)
		if err := srv.Start(); err != nil {
			fatal(err)
		}
	},
}

func init() {
	mcpServeCmd.Flags().IntVar(&mcpServeFlagPort, "port", 8000, "HTTP port to listen on")
}
