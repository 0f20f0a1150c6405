package memory

import (
	"fmt"
	"math"
	"sort"
)

// The knowledge graph is derived, not stored: every query loads the
// facts table and treats each distinct subject/object name as a node
// and each fact as an undirected edge labeled by its predicate. At the
// scale of a personal memory store this is cheap and always consistent
// with the facts.

// GraphPath is one path between two entities. Edges[i] connects
// Nodes[i] to Nodes[i+1].
type GraphPath struct {
	Nodes []string
	Edges []Fact
}

// GraphStats summarizes the derived graph.
type GraphStats struct {
	TotalFacts      int
	TotalEntities   int
	TotalPredicates int
	AvgConnections  float64 // mean degree, one decimal
	TopEntities     []NameCount
	TopPredicates   []NameCount
}

// NameCount pairs a graph label with its occurrence count.
type NameCount struct {
	Name  string
	Count int
}

// GraphExport is a snapshot of the graph for external visualization.
type GraphExport struct {
	Nodes []string
	Edges []Fact
}

// GraphExportFilter narrows an export. Entity, when set, takes
// precedence over MinConfidence: only edges touching that entity are
// exported, at any confidence. Limit caps the number of edges.
type GraphExportFilter struct {
	Entity        string
	MinConfidence float64
	Limit         int
}

func (m *DB) allFacts() ([]Fact, error) {
	rows, err := m.db.Query("SELECT " + factColumns + " FROM facts ORDER BY created_at, id")
	if err != nil {
		return nil, fmt.Errorf("load facts: %w", err)
	}
	defer rows.Close()

	var facts []Fact
	for rows.Next() {
		f, err := scanFact(rows)
		if err != nil {
			continue
		}
		facts = append(facts, *f)
	}
	return facts, rows.Err()
}

// Neighbors returns the distinct entities directly connected to the
// given entity, sorted, excluding the entity itself. Self-loop facts
// contribute no neighbor.
func (m *DB) Neighbors(entity string) ([]string, error) {
	facts, err := m.allFacts()
	if err != nil {
		return nil, err
	}

	set := make(map[string]bool)
	for _, f := range facts {
		if f.Subject == entity && f.Object != "" && f.Object != entity {
			set[f.Object] = true
		}
		if f.Object == entity && f.Subject != entity {
			set[f.Subject] = true
		}
	}

	neighbors := make([]string, 0, len(set))
	for n := range set {
		neighbors = append(neighbors, n)
	}
	sort.Strings(neighbors)
	return neighbors, nil
}

// EntityEdges returns every fact that touches the entity as subject or
// object, highest confidence first.
func (m *DB) EntityEdges(entity string) ([]Fact, error) {
	rows, err := m.db.Query(`
		SELECT `+factColumns+` FROM facts
		WHERE subject = ? OR object = ?
		ORDER BY confidence DESC, created_at, id`,
		entity, entity)
	if err != nil {
		return nil, fmt.Errorf("entity edges: %w", err)
	}
	defer rows.Close()

	var edges []Fact
	for rows.Next() {
		f, err := scanFact(rows)
		if err != nil {
			continue
		}
		edges = append(edges, *f)
	}
	return edges, rows.Err()
}

// directedEdge identifies one traversal direction of one fact.
type directedEdge struct {
	factID  string
	forward bool // true when traversed subject -> object
}

// FindPaths returns up to maxPaths paths from one entity to another
// through the undirected fact graph, shortest first (BFS order). Each
// directed traversal of a fact is used at most once across the whole
// search, so paths sharing an edge direction beyond the first found are
// not reported; this trades completeness for bounded work on dense
// graphs. From == to yields no paths.
func (m *DB) FindPaths(from, to string, maxDepth, maxPaths int) ([]GraphPath, error) {
	if maxDepth <= 0 {
		maxDepth = 3
	}
	if maxPaths <= 0 {
		maxPaths = 5
	}
	if from == to {
		return nil, nil
	}

	facts, err := m.allFacts()
	if err != nil {
		return nil, err
	}

	// Adjacency: entity -> outgoing directed traversals.
	type hop struct {
		edge directedEdge
		fact Fact
		next string
	}
	adj := make(map[string][]hop)
	for _, f := range facts {
		if f.Object == "" {
			continue
		}
		adj[f.Subject] = append(adj[f.Subject], hop{
			edge: directedEdge{factID: f.ID, forward: true},
			fact: f, next: f.Object,
		})
		adj[f.Object] = append(adj[f.Object], hop{
			edge: directedEdge{factID: f.ID, forward: false},
			fact: f, next: f.Subject,
		})
	}

	visited := make(map[directedEdge]bool)
	queue := []GraphPath{{Nodes: []string{from}}}
	var paths []GraphPath

	for len(queue) > 0 && len(paths) < maxPaths {
		path := queue[0]
		queue = queue[1:]

		current := path.Nodes[len(path.Nodes)-1]
		if len(path.Edges) >= maxDepth {
			continue
		}

		for _, h := range adj[current] {
			if visited[h.edge] {
				continue
			}
			visited[h.edge] = true

			next := GraphPath{
				Nodes: append(append([]string{}, path.Nodes...), h.next),
				Edges: append(append([]Fact{}, path.Edges...), h.fact),
			}
			if h.next == to {
				paths = append(paths, next)
				if len(paths) >= maxPaths {
					break
				}
				continue
			}
			queue = append(queue, next)
		}
	}
	return paths, nil
}

// Stats computes summary statistics over the derived graph. Entity
// degree counts every fact the entity appears in; a fact with an empty
// object contributes only its subject.
func (m *DB) Stats() (*GraphStats, error) {
	facts, err := m.allFacts()
	if err != nil {
		return nil, err
	}

	entityDegree := make(map[string]int)
	predicateCount := make(map[string]int)
	for _, f := range facts {
		entityDegree[f.Subject]++
		if f.Object != "" && f.Object != f.Subject {
			entityDegree[f.Object]++
		}
		predicateCount[f.Predicate]++
	}

	stats := &GraphStats{
		TotalFacts:      len(facts),
		TotalEntities:   len(entityDegree),
		TotalPredicates: len(predicateCount),
		TopEntities:     topCounts(entityDegree, 10),
		TopPredicates:   topCounts(predicateCount, 10),
	}
	if stats.TotalEntities > 0 {
		avg := 2 * float64(stats.TotalFacts) / float64(stats.TotalEntities)
		stats.AvgConnections = math.Round(avg*10) / 10
	}
	return stats, nil
}

func topCounts(counts map[string]int, limit int) []NameCount {
	ranked := make([]NameCount, 0, len(counts))
	for name, count := range counts {
		ranked = append(ranked, NameCount{Name: name, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// ExportGraph returns the node and edge sets matching the filter, edges
// in insertion order. See GraphExportFilter for precedence rules.
func (m *DB) ExportGraph(filter GraphExportFilter) (*GraphExport, error) {
	facts, err := m.allFacts()
	if err != nil {
		return nil, err
	}

	var edges []Fact
	for _, f := range facts {
		if filter.Entity != "" {
			if f.Subject != filter.Entity && f.Object != filter.Entity {
				continue
			}
		} else if f.Confidence < filter.MinConfidence {
			continue
		}
		edges = append(edges, f)
		if filter.Limit > 0 && len(edges) >= filter.Limit {
			break
		}
	}

	nodeSet := make(map[string]bool)
	for _, f := range edges {
		nodeSet[f.Subject] = true
		if f.Object != "" {
			nodeSet[f.Object] = true
		}
	}
	nodes := make([]string, 0, len(nodeSet))
	for n := range nodeSet {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)

	return &GraphExport{Nodes: nodes, Edges: edges}, nil
}
