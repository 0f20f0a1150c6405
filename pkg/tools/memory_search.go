package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/AkashaBot/openclaw-memory-offline-sqlite/pkg/memory"
)

type MemorySearchTool struct {
	store     *memory.DB
	opts      memory.HybridOptions
	entityID  string
	processID string
	sessionID string
}

func NewMemorySearchTool(store *memory.DB, opts memory.HybridOptions) *MemorySearchTool {
	return &MemorySearchTool{store: store, opts: opts}
}

func (t *MemorySearchTool) Name() string {
	return "memory_search"
}

func (t *MemorySearchTool) Description() string {
	return "Search long-term memory by meaning and keywords. Use this to recall past events, decisions, or information from any date. Works offline; falls back to keyword-only ranking when the embedding model is unavailable."
}

func (t *MemorySearchTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"query": map[string]interface{}{
				"type":        "string",
				"description": "What to look for",
			},
			"limit": map[string]interface{}{
				"type":        "number",
				"description": "Maximum number of results to return (default 10)",
			},
			"scope_session": map[string]interface{}{
				"type":        "boolean",
				"description": "Only return memories from the current session",
			},
		},
		"required": []string{"query"},
	}
}

func (t *MemorySearchTool) SetAttribution(entityID, processID, sessionID string) {
	t.entityID = entityID
	t.processID = processID
	t.sessionID = sessionID
}

func (t *MemorySearchTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	query, _ := args["query"].(string)
	if query == "" {
		return "Error: 'query' parameter is required.", nil
	}

	opts := t.opts
	if l, ok := args["limit"].(float64); ok && l > 0 {
		opts.TopK = int(l)
	}

	var filter memory.AttributionFilter
	if scoped, _ := args["scope_session"].(bool); scoped {
		filter.SessionID = t.sessionID
	}

	results, err := t.store.HybridSearchFiltered(ctx, query, opts, filter)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "No matching memories found.", nil
	}

	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n---\n")
		}
		label := r.Item.Title
		if label == "" {
			label = r.Item.ID
		}
		fmt.Fprintf(&b, "[%s] (score %.3f)\n%s", label, r.FusedScore, r.Item.Text)
	}
	return b.String(), nil
}
