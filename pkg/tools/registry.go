package tools

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"
)

type ToolRegistry struct {
	tools map[string]Tool
	mu    sync.RWMutex
}

func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{
		tools: make(map[string]Tool),
	}
}

func (r *ToolRegistry) Register(tool Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[tool.Name()] = tool
}

func (r *ToolRegistry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

func (r *ToolRegistry) Execute(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	return r.ExecuteWithAttribution(ctx, name, args, "", "", "")
}

func (r *ToolRegistry) ExecuteWithAttribution(ctx context.Context, name string, args map[string]interface{}, entityID, processID, sessionID string) (string, error) {
	tool, ok := r.Get(name)
	if !ok {
		return "", fmt.Errorf("tool '%s' not found", name)
	}

	if at, ok := tool.(AttributedTool); ok {
		at.SetAttribution(entityID, processID, sessionID)
	}

	start := time.Now()
	result, err := tool.Execute(ctx, args)
	if err != nil {
		log.Printf("[tools] %s failed after %dms: %v", name, time.Since(start).Milliseconds(), err)
	} else {
		log.Printf("[tools] %s completed in %dms, %d bytes", name, time.Since(start).Milliseconds(), len(result))
	}
	return result, err
}

// sortedToolNames returns tool names in sorted order for deterministic
// iteration, so repeated definition dumps are byte-stable.
func (r *ToolRegistry) sortedToolNames() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *ToolRegistry) GetDefinitions() []map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sorted := r.sortedToolNames()
	definitions := make([]map[string]any, 0, len(sorted))
	for _, name := range sorted {
		definitions = append(definitions, ToolToSchema(r.tools[name]))
	}
	return definitions
}

// List returns a list of all registered tool names.
func (r *ToolRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.sortedToolNames()
}

// Count returns the number of registered tools.
func (r *ToolRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}
