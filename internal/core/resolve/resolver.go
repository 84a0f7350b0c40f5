// Package resolve decides, for each candidate node, whether it already
// exists in the graph. The decision is an ordered cascade of strategies
// with early exit; a failing step logs and falls through to the next.
package resolve

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/agenthands/mosaic/internal/core/confidence"
	"github.com/agenthands/mosaic/internal/core/match"
	"github.com/agenthands/mosaic/internal/core/model"
	"github.com/agenthands/mosaic/internal/driver"
	"github.com/agenthands/mosaic/internal/embedding"
)

// Resolution is the outcome for one candidate. A nil Node means the
// candidate is new. Embedding carries the vector computed during the vector
// step so node creation does not have to embed twice.
type Resolution struct {
	Node      *model.Node
	Method    string
	Embedding []float32
}

type Resolver struct {
	Driver   driver.GraphDriver
	Registry *match.Registry
	Searcher *Searcher
	Gateway  *embedding.Gateway
	// Manager grades fuzzy pairs when human review is enabled; nil means
	// plain boolean matching.
	Manager *confidence.Manager

	// UniqueKeys are property keys treated as unique identifiers.
	UniqueKeys []string
	// FuzzyScanLimit bounds the same-type scan in the fuzzy step.
	FuzzyScanLimit int

	EnableVectorSearch  bool
	SimilarityThreshold float64
}

// Resolve runs the cascade: constraint -> vector -> fuzzy -> property.
// Errors inside a step degrade to "no match for this step".
func (r *Resolver) Resolve(ctx context.Context, cand model.CandidateNode) Resolution {
	matcher := r.Registry.ForType(cand.Type)
	res := Resolution{}

	type step struct {
		name string
		run  func(ctx context.Context) (*model.Node, error)
	}
	steps := []step{
		{"constraint", func(ctx context.Context) (*model.Node, error) { return r.constraintMatch(ctx, cand) }},
		{"vector", func(ctx context.Context) (*model.Node, error) { return r.vectorMatch(ctx, cand, matcher, &res) }},
		{"fuzzy", func(ctx context.Context) (*model.Node, error) { return r.fuzzyMatch(ctx, cand, matcher) }},
		{"property", func(ctx context.Context) (*model.Node, error) { return r.propertyMatch(ctx, cand) }},
	}

	for _, s := range steps {
		node, err := s.run(ctx)
		if err != nil {
			log.Printf("resolve: %s step failed for %s %q: %v", s.name, cand.Type, cand.Name(), err)
			continue
		}
		if node != nil {
			res.Node = node
			res.Method = s.name
			return res
		}
	}
	return res
}

// constraintMatch looks up by pre-assigned id first, then by any property
// flagged unique.
func (r *Resolver) constraintMatch(ctx context.Context, cand model.CandidateNode) (*model.Node, error) {
	label := driver.SanitizeLabel(cand.Type)

	if id := cand.ID(); id != "" {
		result, err := r.Driver.ExecuteQuery(ctx, fmt.Sprintf(driver.NodeByIDTmpl, label), map[string]interface{}{"id": id})
		if err != nil {
			return nil, err
		}
		if len(result.Records) > 0 {
			if node, ok := driver.NodeFromRecord(result.Records[0], "n"); ok {
				return node, nil
			}
		}
	}

	var keys []string
	params := map[string]interface{}{}
	for _, key := range r.UniqueKeys {
		if v := match.Str(cand.Properties, key); v != "" {
			params[fmt.Sprintf("p%d", len(keys))] = v
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return nil, nil
	}

	query, _ := driver.NodesByPropsQuery(cand.Type, keys)
	result, err := r.Driver.ExecuteQuery(ctx, query, params)
	if err != nil {
		return nil, err
	}
	if len(result.Records) > 0 {
		if node, ok := driver.NodeFromRecord(result.Records[0], "n"); ok {
			return node, nil
		}
	}
	return nil, nil
}

func (r *Resolver) vectorMatch(ctx context.Context, cand model.CandidateNode, matcher match.Matcher, res *Resolution) (*model.Node, error) {
	if !r.EnableVectorSearch || r.Searcher == nil {
		return nil, nil
	}

	vector := r.Gateway.EmbedProperties(ctx, matcher.EmbeddingProperties(), cand.Properties)
	if vector == nil {
		// No embedding, no vector path; not an error.
		return nil, nil
	}
	res.Embedding = vector

	threshold := matcher.SimilarityThreshold()
	if threshold == 0 {
		threshold = r.SimilarityThreshold
	}

	hits, err := r.Searcher.FindSimilar(ctx, cand.Type, vector, threshold)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}
	return hits[0].Node, nil
}

// fuzzyMatch scans a bounded window of same-type nodes. With a review
// manager attached, decisions are graded: the first auto-merge wins and
// ambiguous pairs are queued for a human without blocking.
func (r *Resolver) fuzzyMatch(ctx context.Context, cand model.CandidateNode, matcher match.Matcher) (*model.Node, error) {
	limit := r.FuzzyScanLimit
	if limit <= 0 {
		limit = 500
	}
	label := driver.SanitizeLabel(cand.Type)

	result, err := r.Driver.ExecuteQuery(ctx, fmt.Sprintf(driver.NodesByTypeTmpl, label), map[string]interface{}{"limit": limit})
	if err != nil {
		return nil, err
	}

	for _, rec := range result.Records {
		node, ok := driver.NodeFromRecord(rec, "n")
		if !ok {
			continue
		}
		if r.Manager != nil {
			decision := r.Manager.Evaluate(ctx, cand.Type, matcher, cand.Properties, node)
			if decision.Action == model.ActionAutoMerge {
				return node, nil
			}
			// auto_reject and human_review both skip this node for the
			// rest of the run; the review, if any, is already queued.
			continue
		}
		if matcher.MatchProperties(cand.Properties, node.Properties) {
			return node, nil
		}
	}
	return nil, nil
}

// propertyMatch is the last resort: exact equality across every non-empty
// scalar candidate property.
func (r *Resolver) propertyMatch(ctx context.Context, cand model.CandidateNode) (*model.Node, error) {
	var keys []string
	values := map[string]interface{}{}
	for key, v := range cand.Properties {
		switch val := v.(type) {
		case string:
			if strings.TrimSpace(val) == "" {
				continue
			}
			values[key] = val
		case bool, int, int64, float64:
			values[key] = val
		default:
			continue
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return nil, nil
	}
	sort.Strings(keys)

	query, paramNames := driver.NodesByPropsQuery(cand.Type, keys)
	params := make(map[string]interface{}, len(keys))
	for i, key := range keys {
		params[paramNames[i]] = values[key]
	}

	result, err := r.Driver.ExecuteQuery(ctx, query, params)
	if err != nil {
		return nil, err
	}
	if len(result.Records) > 0 {
		if node, ok := driver.NodeFromRecord(result.Records[0], "n"); ok {
			return node, nil
		}
	}
	return nil, nil
}
