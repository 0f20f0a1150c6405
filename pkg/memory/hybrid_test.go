package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// fakeEmbedder returns canned vectors by exact text, and can be flipped
// into a failing state to exercise degradation paths.
type fakeEmbedder struct {
	vectors map[string][]float32
	fail    bool
	calls   int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.fail {
		return nil, errors.New("provider unreachable")
	}
	vec, ok := f.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no canned vector for %q", text)
	}
	return vec, nil
}

func (f *fakeEmbedder) Model() string { return "fake-model" }

func TestEmbeddingCacheRoundTrip(t *testing.T) {
	db := openTestDB(t)

	vec := []float32{0.5, -0.25, 1}
	if err := db.PutEmbedding("it-1", "m", vec); err != nil {
		t.Fatal(err)
	}

	rec := db.GetEmbedding("it-1", "m")
	if rec == nil {
		t.Fatal("expected cached record")
	}
	if rec.Dims != 3 || len(rec.Vector) != 3 {
		t.Fatalf("bad dims: %+v", rec)
	}
	// Half-precision storage loses at most ~0.1% on these values.
	for i := range vec {
		diff := rec.Vector[i] - vec[i]
		if diff < -0.001 || diff > 0.001 {
			t.Fatalf("component %d drifted: %f vs %f", i, rec.Vector[i], vec[i])
		}
	}
}

func TestEmbeddingCacheModelScoped(t *testing.T) {
	db := openTestDB(t)

	db.PutEmbedding("it-1", "model-a", []float32{1, 0})
	db.PutEmbedding("it-1", "model-b", []float32{0, 1})

	if rec := db.GetEmbedding("it-1", "model-a"); rec == nil || rec.Vector[0] != 1 {
		t.Fatalf("model-a vector wrong: %+v", rec)
	}
	if rec := db.GetEmbedding("it-1", "model-b"); rec == nil || rec.Vector[1] != 1 {
		t.Fatalf("model-b vector wrong: %+v", rec)
	}
	if db.GetEmbedding("it-1", "model-c") != nil {
		t.Fatal("expected miss for unknown model")
	}
}

func TestGetOrFetchEmbeddingCachesOnce(t *testing.T) {
	db := openTestDB(t)
	fake := &fakeEmbedder{vectors: map[string][]float32{"hello": {1, 0}}}

	vec := db.GetOrFetchEmbedding(context.Background(), "it-1", fake.Model(), "hello", fake)
	if vec == nil {
		t.Fatal("expected fetched vector")
	}
	if fake.calls != 1 {
		t.Fatalf("expected 1 provider call, got %d", fake.calls)
	}

	// Second lookup must come from cache.
	vec = db.GetOrFetchEmbedding(context.Background(), "it-1", fake.Model(), "hello", fake)
	if vec == nil {
		t.Fatal("expected cached vector")
	}
	if fake.calls != 1 {
		t.Fatalf("cache miss on second lookup: %d calls", fake.calls)
	}
}

func TestGetOrFetchEmbeddingProviderFailure(t *testing.T) {
	db := openTestDB(t)
	fake := &fakeEmbedder{fail: true}

	vec := db.GetOrFetchEmbedding(context.Background(), "it-1", fake.Model(), "hello", fake)
	if vec != nil {
		t.Fatal("expected nil on provider failure")
	}
	if db.CountEmbeddings() != 0 {
		t.Fatal("failed fetch must not populate the cache")
	}
}

func TestCleanOrphanEmbeddings(t *testing.T) {
	db := openTestDB(t)

	db.InsertItem(&Item{ID: "live", Text: "still here"})
	db.PutEmbedding("live", "m", []float32{1})
	db.PutEmbedding("ghost", "m", []float32{1})

	removed, err := db.CleanOrphanEmbeddings()
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 orphan removed, got %d", removed)
	}
	if db.GetEmbedding("live", "m") == nil {
		t.Fatal("live embedding must survive cleanup")
	}
}

func TestHybridSearchSemanticRanking(t *testing.T) {
	db := openTestDB(t)

	db.InsertItem(&Item{ID: "cats", Text: "feline behavior notes", CreatedAt: 1000})
	db.InsertItem(&Item{ID: "dogs", Text: "canine behavior notes", CreatedAt: 2000})

	fake := &fakeEmbedder{vectors: map[string][]float32{
		"kittens":               {1, 0},
		"feline behavior notes": {0.9, 0.1},
		"canine behavior notes": {0, 1},
	}}
	db.SetEmbedder(fake)

	// Pure semantic weight: the lexical tie (both match "behavior") must
	// be broken by similarity to the query vector.
	results, err := db.HybridSearch(context.Background(), "kittens", HybridOptions{
		TopK: 2, SemanticWeight: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Item.ID != "cats" {
		t.Fatalf("expected semantic match first, got %s", results[0].Item.ID)
	}
	if results[0].SemanticScore == nil || *results[0].SemanticScore <= *results[1].SemanticScore {
		t.Fatal("semantic scores not ordered")
	}
}

func TestHybridSearchDegradesOnEmbedFailure(t *testing.T) {
	db := openTestDB(t)

	db.InsertItem(&Item{ID: "a", Text: "espresso at the cafe"})

	fake := &fakeEmbedder{fail: true}
	db.SetEmbedder(fake)

	results, err := db.HybridSearch(context.Background(), "espresso", HybridOptions{TopK: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 lexical result, got %d", len(results))
	}
	if results[0].SemanticScore != nil {
		t.Fatal("semantic score must be nil when the provider is down")
	}
	if results[0].FusedScore != results[0].LexicalScore {
		t.Fatal("fused score must fall back to raw lexical score")
	}
}

func TestHybridSearchNoEmbedder(t *testing.T) {
	db := openTestDB(t)

	db.InsertItem(&Item{ID: "a", Text: "plain lexical only"})

	results, err := db.HybridSearch(context.Background(), "lexical", HybridOptions{TopK: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].SemanticScore != nil {
		t.Fatalf("expected lexical-only result, got %+v", results)
	}
}

func TestHybridSearchRecencyCandidates(t *testing.T) {
	db := openTestDB(t)

	// Shares no tokens with the query; only recency can surface it.
	db.InsertItem(&Item{ID: "recent", Text: "bought beans yesterday", CreatedAt: 2000})
	db.InsertItem(&Item{ID: "match", Text: "espresso brewing guide", CreatedAt: 1000})

	fake := &fakeEmbedder{vectors: map[string][]float32{
		"espresso":               {1, 0},
		"bought beans yesterday": {0.95, 0.05},
		"espresso brewing guide": {0.5, 0.5},
	}}
	db.SetEmbedder(fake)

	results, err := db.HybridSearch(context.Background(), "espresso", HybridOptions{
		TopK: 5, SemanticWeight: 1,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected recency-injected candidate, got %d results", len(results))
	}
	if results[0].Item.ID != "recent" {
		t.Fatalf("expected recency candidate to win on similarity, got %s", results[0].Item.ID)
	}
	if results[0].LexicalScore != 0 {
		t.Fatal("recency-injected candidate must carry zero lexical score")
	}
}

func TestHybridSearchEmptyStore(t *testing.T) {
	db := openTestDB(t)

	results, err := db.HybridSearch(context.Background(), "anything", HybridOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty result, got %d", len(results))
	}
}

func TestHybridSearchTruncatesToTopK(t *testing.T) {
	db := openTestDB(t)

	for i := 0; i < 5; i++ {
		db.InsertItem(&Item{
			ID:   fmt.Sprintf("it-%d", i),
			Text: fmt.Sprintf("espresso note number %d", i),
		})
	}

	results, err := db.HybridSearch(context.Background(), "espresso", HybridOptions{TopK: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
}

func TestHybridSearchFiltered(t *testing.T) {
	db := openTestDB(t)

	db.InsertItem(&Item{ID: "mine", Text: "espresso preference", SessionID: "s1"})
	db.InsertItem(&Item{ID: "theirs", Text: "espresso dislike", SessionID: "s2"})

	results, err := db.HybridSearchFiltered(context.Background(), "espresso",
		HybridOptions{TopK: 5}, AttributionFilter{SessionID: "s1"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Item.ID != "mine" {
		t.Fatalf("expected only s1 item, got %+v", results)
	}

	// A filter matching nothing yields an empty result, not an error.
	results, err = db.HybridSearchFiltered(context.Background(), "espresso",
		HybridOptions{TopK: 5}, AttributionFilter{EntityID: "nobody"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty filtered result, got %+v", results)
	}
}

func TestAttributionFilterMatches(t *testing.T) {
	it := &Item{EntityID: "e", ProcessID: "p", SessionID: "s"}

	if !(AttributionFilter{}).Matches(it) {
		t.Fatal("zero filter must match everything")
	}
	if !(AttributionFilter{EntityID: "e", SessionID: "s"}).Matches(it) {
		t.Fatal("matching fields must pass")
	}
	if (AttributionFilter{EntityID: "e", ProcessID: "other"}).Matches(it) {
		t.Fatal("any mismatching set field must fail")
	}
}
