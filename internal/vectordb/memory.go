// Package vectordb keeps saved recommendations searchable by meaning,
// backed by chromem-go.
package vectordb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/maintly/maintly/internal/agent"
	"github.com/maintly/maintly/internal/embeddings"
	"github.com/maintly/maintly/internal/machines"
)

const collectionName = "recommendations"

const exportFileName = "recommendations.gob.gz"

// RecommendationMemory is an in-memory similarity index over saved
// recommendations, optionally persisted to disk between runs.
type RecommendationMemory struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedFunc  chromem.EmbeddingFunc
}

// NewRecommendationMemory creates an empty recommendation index.
func NewRecommendationMemory(embedder embeddings.Embedder) (*RecommendationMemory, error) {
	db := chromem.NewDB()
	ef := embeddings.ToChromemFunc(embedder)

	col, err := db.GetOrCreateCollection(collectionName, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &RecommendationMemory{db: db, collection: col, embedFunc: ef}, nil
}

// IndexRecommendation adds a saved recommendation to the index. The indexed
// text combines the action and its reason so that searches match either.
func (m *RecommendationMemory) IndexRecommendation(ctx context.Context, rec *machines.Recommendation, productID string) error {
	if rec == nil {
		return nil
	}

	doc := chromem.Document{
		ID:      rec.ID,
		Content: rec.ActionText + "\n" + rec.Reason,
		Metadata: map[string]string{
			"product_id":   productID,
			"action_text":  rec.ActionText,
			"reason":       rec.Reason,
			"failure_type": rec.FailureType,
			"created_at":   rec.CreatedAt.Format(time.RFC3339),
		},
	}
	return m.collection.AddDocuments(ctx, []chromem.Document{doc}, 1)
}

// SearchSimilar returns the closest saved recommendations to the query.
func (m *RecommendationMemory) SearchSimilar(ctx context.Context, query string, limit int) ([]agent.SimilarHit, error) {
	if limit <= 0 {
		limit = 5
	}

	// chromem-go requires nResults <= collection size.
	count := m.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if limit > count {
		limit = count
	}

	results, err := m.collection.Query(ctx, query, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	hits := make([]agent.SimilarHit, len(results))
	for i, r := range results {
		hits[i] = agent.SimilarHit{
			ID:          r.ID,
			ProductID:   r.Metadata["product_id"],
			ActionText:  r.Metadata["action_text"],
			Reason:      r.Metadata["reason"],
			FailureType: r.Metadata["failure_type"],
			Similarity:  r.Similarity,
		}
	}
	return hits, nil
}

// Count returns the number of indexed recommendations.
func (m *RecommendationMemory) Count() int {
	return m.collection.Count()
}

// Persist writes the index to dir.
func (m *RecommendationMemory) Persist(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	return m.db.ExportToFile(filepath.Join(dir, exportFileName), true, "")
}

// Load restores the index from dir. A missing export file leaves the index
// empty rather than failing.
func (m *RecommendationMemory) Load(dir string) error {
	path := filepath.Join(dir, exportFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := m.db.ImportFromFile(path, ""); err != nil {
		return fmt.Errorf("import from file: %w", err)
	}

	// Re-acquire the collection reference after import.
	col := m.db.GetCollection(collectionName, m.embedFunc)
	if col == nil {
		return fmt.Errorf("collection %q not found after import", collectionName)
	}
	m.collection = col
	return nil
}
