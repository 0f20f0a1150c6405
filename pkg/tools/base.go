// Package tools exposes the memory store to an agent loop as
// schema-described tools.
package tools

import "context"

type Tool interface {
	Name() string
	Description() string
	Parameters() map[string]interface{}
	Execute(ctx context.Context, args map[string]interface{}) (string, error)
}

// AttributedTool is an optional interface for tools that scope their
// reads and writes to the current conversation's attribution.
type AttributedTool interface {
	Tool
	SetAttribution(entityID, processID, sessionID string)
}

func ToolToSchema(tool Tool) map[string]interface{} {
	return map[string]interface{}{
		"type": "function",
		"function": map[string]interface{}{
			"name":        tool.Name(),
			"description": tool.Description(),
			"parameters":  tool.Parameters(),
		},
	}
}
