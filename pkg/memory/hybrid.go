package memory

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/AkashaBot/openclaw-memory-offline-sqlite/pkg/vector"
)

// HybridResult is one ranked retrieval hit. SemanticScore is nil when no
// vector was available for the item (provider down, cache cold and
// unfillable); the item still participates with its lexical score.
type HybridResult struct {
	Item          Item
	LexicalScore  float64
	SemanticScore *float64
	FusedScore    float64
}

// HybridOptions tunes one retrieval call. Zero values fall back to the
// engine defaults.
type HybridOptions struct {
	TopK           int     // results returned, default 10
	CandidatePool  int     // lexical + recency candidates considered, default 50
	SemanticWeight float64 // blend factor w in [0,1]; clamped
}

func (o *HybridOptions) normalize() {
	if o.TopK <= 0 {
		o.TopK = 10
	}
	if o.CandidatePool <= 0 {
		o.CandidatePool = 50
	}
	if o.SemanticWeight < 0 {
		o.SemanticWeight = 0
	}
	if o.SemanticWeight > 1 {
		o.SemanticWeight = 1
	}
}

// HybridSearch ranks items for the query by blending lexical (BM25) and
// semantic (cosine) relevance.
//
// Candidates are the top lexical hits unioned with the most recently
// created items, so recent memories that share no tokens with the query
// are still considered for semantic re-ranking. If the query itself
// cannot be embedded, results degrade to pure lexical order with nil
// semantic scores; that path never fails. Per-candidate vectors are
// fetched one at a time, in candidate order, so outbound provider calls
// are bounded and ordering stays deterministic for identical inputs.
func (m *DB) HybridSearch(ctx context.Context, query string, opts HybridOptions) ([]HybridResult, error) {
	opts.normalize()

	// Step 1: candidate generation, lexical ∪ recency, deduped by id
	// with the lexical entry winning.
	hits, err := m.SearchLexical(query, opts.CandidatePool)
	if err != nil {
		return nil, fmt.Errorf("hybrid search: %w", err)
	}

	seen := make(map[string]bool, len(hits))
	candidates := make([]HybridResult, 0, len(hits))
	for _, h := range hits {
		seen[h.Item.ID] = true
		candidates = append(candidates, HybridResult{Item: h.Item, LexicalScore: h.Score})
	}

	recent, err := m.RecentItems(opts.CandidatePool)
	if err != nil {
		return nil, fmt.Errorf("hybrid search: %w", err)
	}
	for _, it := range recent {
		if seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		candidates = append(candidates, HybridResult{Item: it, LexicalScore: 0})
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	// Step 3: query vector. Failure here is the documented degradation
	// path: lexical order, nil semantic scores, fused == lexical.
	var queryVec []float32
	if m.embedder != nil {
		queryVec, err = m.embedder.Embed(ctx, query)
		if err != nil {
			log.Printf("[memory] query embed failed, lexical-only results: %v", err)
			queryVec = nil
		}
	}
	if queryVec == nil {
		return lexicalOnly(candidates, opts.TopK), nil
	}

	model := m.embedder.Model()

	// Step 4: per-candidate cosine similarity, cache-through.
	similarities := make([]*float64, len(candidates))
	for i := range candidates {
		it := &candidates[i].Item
		vec := m.GetOrFetchEmbedding(ctx, it.ID, model, it.Text, m.embedder)
		if vec == nil {
			continue
		}
		cos, err := vector.CosineSimilarity(queryVec, vec)
		if err != nil {
			// Stored vector from an incompatible shape; treat as no signal.
			log.Printf("[memory] skip stale vector for %s: %v", it.ID, err)
			continue
		}
		similarities[i] = &cos
	}

	// Step 5: normalize lexical scores to [0,1] over the candidate set,
	// cosine via (cos+1)/2.
	minLex, maxLex := candidates[0].LexicalScore, candidates[0].LexicalScore
	for _, c := range candidates[1:] {
		if c.LexicalScore < minLex {
			minLex = c.LexicalScore
		}
		if c.LexicalScore > maxLex {
			maxLex = c.LexicalScore
		}
	}
	lexDenom := maxLex - minLex
	if lexDenom == 0 {
		lexDenom = 1
	}

	// Step 6: fuse.
	w := opts.SemanticWeight
	for i := range candidates {
		lexNorm := (candidates[i].LexicalScore - minLex) / lexDenom
		semNorm := 0.0
		if similarities[i] != nil {
			cos := *similarities[i]
			semNorm = (cos + 1) / 2
			candidates[i].SemanticScore = &cos
		}
		candidates[i].FusedScore = (1-w)*lexNorm + w*semNorm
	}

	// Step 7: stable sort so ties keep candidate order, then truncate.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].FusedScore > candidates[j].FusedScore
	})
	if len(candidates) > opts.TopK {
		candidates = candidates[:opts.TopK]
	}
	return candidates, nil
}

// HybridSearchFiltered runs HybridSearch and then narrows results by
// attribution. The filter applies after fusion and truncation, so fewer
// than TopK results may come back even when more matching items exist
// beyond the candidate pool.
func (m *DB) HybridSearchFiltered(ctx context.Context, query string, opts HybridOptions, filter AttributionFilter) ([]HybridResult, error) {
	results, err := m.HybridSearch(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	return filter.Apply(results), nil
}

func lexicalOnly(candidates []HybridResult, topK int) []HybridResult {
	for i := range candidates {
		candidates[i].SemanticScore = nil
		candidates[i].FusedScore = candidates[i].LexicalScore
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].FusedScore > candidates[j].FusedScore
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates
}
