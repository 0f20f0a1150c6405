package tools

import (
	"context"
	"fmt"

	"github.com/AkashaBot/openclaw-memory-offline-sqlite/pkg/memory"
)

type MemoryForgetTool struct {
	store *memory.DB
}

func NewMemoryForgetTool(store *memory.DB) *MemoryForgetTool {
	return &MemoryForgetTool{store: store}
}

func (t *MemoryForgetTool) Name() string {
	return "memory_forget"
}

func (t *MemoryForgetTool) Description() string {
	return "Delete a memory by id. Also removes its cached embeddings and any facts extracted from it. Use when information is wrong or the user asks you to forget it."
}

func (t *MemoryForgetTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"id": map[string]interface{}{
				"type":        "string",
				"description": "Id of the memory to delete",
			},
		},
		"required": []string{"id"},
	}
}

func (t *MemoryForgetTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	id, _ := args["id"].(string)
	if id == "" {
		return "Error: 'id' parameter is required.", nil
	}

	if !t.store.DeleteItem(id) {
		return fmt.Sprintf("No memory with id %s.", id), nil
	}
	return fmt.Sprintf("Forgot memory %s.", id), nil
}
