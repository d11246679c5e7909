package mcpserver

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/apresai/podcasto-pipeline/internal/admin"
)

// ToolDefs returns the MCP tool definitions this server exposes.
func ToolDefs() []mcp.Tool {
	return []mcp.Tool{
		{
			Name:        "get_episode",
			Description: "Returns an episode's status, current processing stage, artifact URLs, and stage history.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"episode_id": map[string]any{
						"type":        "string",
						"description": "The episode's UUID.",
					},
				},
				Required: []string{"episode_id"},
			},
		},
		{
			Name:        "list_stuck_episodes",
			Description: "Lists episodes that are failed or stuck pending, most recently updated first. Use this to find episodes that need a replay.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"limit": map[string]any{
						"type":        "integer",
						"description": "Maximum number of episodes to return (default 25).",
					},
				},
			},
		},
		{
			Name:        "replay_episode",
			Description: "Re-enqueues an episode onto the queue matching its current stage, so the owning worker picks it up again.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"episode_id": map[string]any{
						"type":        "string",
						"description": "The episode's UUID.",
					},
				},
				Required: []string{"episode_id"},
			},
		},
	}
}

// Handlers implements the MCP tool calls against the relational store
// and the pipeline's outbound queues.
type Handlers struct {
	store   admin.Store
	senders admin.Senders
	log     *slog.Logger
}

// NewHandlers creates tool handlers.
func NewHandlers(store admin.Store, senders admin.Senders, logger *slog.Logger) *Handlers {
	return &Handlers{store: store, senders: senders, log: logger}
}

func (h *Handlers) HandleGetEpisode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := mcp.ParseString(req, "episode_id", "")
	if id == "" {
		return mcp.NewToolResultError("episode_id is required"), nil
	}

	ep, err := h.store.GetEpisode(ctx, id)
	if err != nil {
		h.log.WarnContext(ctx, "get_episode failed", "episode_id", id, "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(ep)
}

func (h *Handlers) HandleListStuckEpisodes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := parseIntParam(req, "limit", 25)
	if limit <= 0 {
		limit = 25
	}

	episodes, err := admin.ListStuck(ctx, h.store, limit)
	if err != nil {
		h.log.WarnContext(ctx, "list_stuck_episodes failed", "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{"episodes": episodes})
}

func (h *Handlers) HandleReplayEpisode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := mcp.ParseString(req, "episode_id", "")
	if id == "" {
		return mcp.NewToolResultError("episode_id is required"), nil
	}

	queueName, err := admin.Replay(ctx, h.store, h.senders, id)
	if err != nil {
		h.log.WarnContext(ctx, "replay_episode failed", "episode_id", id, "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}
	h.log.InfoContext(ctx, "replayed episode", "episode_id", id, "queue", queueName)
	return jsonResult(map[string]any{"episode_id": id, "replayed_to": queueName})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(body)), nil
}

func parseIntParam(req mcp.CallToolRequest, key string, defaultVal int) int {
	args := req.GetArguments()
	if args == nil {
		return defaultVal
	}
	raw, ok := args[key]
	if !ok {
		return defaultVal
	}
	switch v := raw.(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return defaultVal
	}
}
