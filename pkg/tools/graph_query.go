package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/AkashaBot/openclaw-memory-offline-sqlite/pkg/memory"
)

type GraphQueryTool struct {
	store *memory.DB
}

func NewGraphQueryTool(store *memory.DB) *GraphQueryTool {
	return &GraphQueryTool{store: store}
}

func (t *GraphQueryTool) Name() string {
	return "graph_query"
}

func (t *GraphQueryTool) Description() string {
	return "Query the knowledge graph of stored facts. Operations: 'neighbors' lists entities connected to an entity, 'edges' lists an entity's facts, 'paths' finds connections between two entities, 'stats' summarizes the graph."
}

func (t *GraphQueryTool) Parameters() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"operation": map[string]interface{}{
				"type":        "string",
				"enum":        []string{"neighbors", "edges", "paths", "stats"},
				"description": "Which graph query to run",
			},
			"entity": map[string]interface{}{
				"type":        "string",
				"description": "Entity name for neighbors/edges, start entity for paths",
			},
			"target": map[string]interface{}{
				"type":        "string",
				"description": "Target entity for paths",
			},
			"max_depth": map[string]interface{}{
				"type":        "number",
				"description": "Maximum path length in edges (default 3)",
			},
		},
		"required": []string{"operation"},
	}
}

func (t *GraphQueryTool) Execute(ctx context.Context, args map[string]interface{}) (string, error) {
	operation, _ := args["operation"].(string)
	entity, _ := args["entity"].(string)

	switch operation {
	case "neighbors":
		if entity == "" {
			return "Error: 'entity' parameter is required for neighbors.", nil
		}
		neighbors, err := t.store.Neighbors(entity)
		if err != nil {
			return "", err
		}
		if len(neighbors) == 0 {
			return fmt.Sprintf("No entities connected to %s.", entity), nil
		}
		return strings.Join(neighbors, "\n"), nil

	case "edges":
		if entity == "" {
			return "Error: 'entity' parameter is required for edges.", nil
		}
		edges, err := t.store.EntityEdges(entity)
		if err != nil {
			return "", err
		}
		if len(edges) == 0 {
			return fmt.Sprintf("No facts about %s.", entity), nil
		}
		var b strings.Builder
		for _, f := range edges {
			fmt.Fprintf(&b, "%s %s %s (%.2f)\n", f.Subject, f.Predicate, f.Object, f.Confidence)
		}
		return strings.TrimRight(b.String(), "\n"), nil

	case "paths":
		target, _ := args["target"].(string)
		if entity == "" || target == "" {
			return "Error: 'entity' and 'target' parameters are required for paths.", nil
		}
		maxDepth := 3
		if d, ok := args["max_depth"].(float64); ok && d > 0 {
			maxDepth = int(d)
		}
		paths, err := t.store.FindPaths(entity, target, maxDepth, 5)
		if err != nil {
			return "", err
		}
		if len(paths) == 0 {
			return fmt.Sprintf("No path between %s and %s within %d hops.", entity, target, maxDepth), nil
		}
		var b strings.Builder
		for i, p := range paths {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString(formatPath(p))
		}
		return b.String(), nil

	case "stats":
		stats, err := t.store.Stats()
		if err != nil {
			return "", err
		}
		var b strings.Builder
		fmt.Fprintf(&b, "%d facts, %d entities, %d predicates, avg %.1f connections per entity\n",
			stats.TotalFacts, stats.TotalEntities, stats.TotalPredicates, stats.AvgConnections)
		b.WriteString("Top entities:\n")
		for _, e := range stats.TopEntities {
			fmt.Fprintf(&b, "  %s (%d)\n", e.Name, e.Count)
		}
		b.WriteString("Top predicates:\n")
		for _, p := range stats.TopPredicates {
			fmt.Fprintf(&b, "  %s (%d)\n", p.Name, p.Count)
		}
		return strings.TrimRight(b.String(), "\n"), nil

	default:
		return fmt.Sprintf("Error: unknown operation '%s'.", operation), nil
	}
}

// formatPath renders a path as "A -[knows]-> B -[works_at]-> C". The
// arrow always points travel direction, not fact direction.
func formatPath(p memory.GraphPath) string {
	var b strings.Builder
	b.WriteString(p.Nodes[0])
	for i, edge := range p.Edges {
		fmt.Fprintf(&b, " -[%s]-> %s", edge.Predicate, p.Nodes[i+1])
	}
	return b.String()
}
