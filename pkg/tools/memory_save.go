package tools

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/AkashaBot/openclaw-memory-offline-sqlite/pkg/memory"
)

type MemorySaveTool struct {
	store     *memory.DB
	entityID  string
	processID string
	sessionID string
}

func NewMemorySaveTool(store *memory.DB) *MemorySaveTool {
	return &MemorySaveTool{store: store}
}

func (t *MemorySaveTool) Name() string {
	return "memory_save"
}

func (t *MemorySaveTool) Description() string {
	return "Save a piece of information to long-term memory so it can be recalled in later conversations. Use for durable facts, preferences, and decisions, not transient chat."
}

func (t *MemorySaveTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"text": map[string]interface{}{
				"type":        "string",
				"description": "The information to remember",
			},
			"title": map[string]interface{}{
				"type":        "string",
				"description": "Optional short title",
			},
			"tags": map[string]interface{}{
				"type":        "string",
				"description": "Optional comma-separated tags",
			},
		},
		"required": []string{"text"},
	}
}

func (t *MemorySaveTool) SetAttribution(entityID, processID, sessionID string) {
	t.entityID = entityID
	t.processID = processID
	t.sessionID = sessionID
}

func (t *MemorySaveTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	text, _ := args["text"].(string)
	if text == "" {
		return "Error: 'text' parameter is required.", nil
	}
	title, _ := args["title"].(string)
	tags, _ := args["tags"].(string)

	item := &memory.Item{
		ID:        uuid.NewString(),
		Text:      text,
		Title:     title,
		Tags:      tags,
		Source:    "tool",
		EntityID:  t.entityID,
		ProcessID: t.processID,
		SessionID: t.sessionID,
	}
	if err := t.store.InsertItem(item); err != nil {
		return "", err
	}
	return fmt.Sprintf("Saved memory %s.", item.ID), nil
}
