package resolve

import (
	"context"
	"fmt"

	"github.com/agenthands/mosaic/internal/core/model"
	"github.com/agenthands/mosaic/internal/driver"
)

// Similar is one ranked vector-search hit.
type Similar struct {
	Node       *model.Node `json:"node"`
	Similarity float64     `json:"similarity"`
}

// Searcher runs vector-index queries against the graph store.
type Searcher struct {
	Driver driver.GraphDriver
	// Limit caps how many neighbours one query returns.
	Limit int
}

func NewSearcher(d driver.GraphDriver) *Searcher {
	return &Searcher{Driver: d, Limit: 5}
}

// FindSimilar returns same-type nodes whose embedding similarity meets the
// threshold, best first. Only nodes that carry an embedding are eligible;
// the index holds nothing else.
func (s *Searcher) FindSimilar(ctx context.Context, entityType string, vector []float32, threshold float64) ([]Similar, error) {
	if len(vector) == 0 {
		return nil, nil
	}
	limit := s.Limit
	if limit <= 0 {
		limit = 5
	}

	result, err := s.Driver.ExecuteQuery(ctx, driver.VectorSearchQuery, map[string]interface{}{
		"index_name":   driver.VectorIndexName(entityType),
		"limit":        limit,
		"query_vector": driver.VectorParam(vector),
	})
	if err != nil {
		return nil, fmt.Errorf("vector search failed for %s: %w", entityType, err)
	}

	var hits []Similar
	for _, rec := range result.Records {
		node, ok := driver.NodeFromRecord(rec, "n")
		if !ok {
			continue
		}
		simVal, _ := rec.Get("similarity")
		sim, ok := simVal.(float64)
		if !ok {
			continue
		}
		if sim < threshold {
			continue
		}
		hits = append(hits, Similar{Node: node, Similarity: sim})
	}
	return hits, nil
}
