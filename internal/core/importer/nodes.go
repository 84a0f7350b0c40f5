// Package importer materializes resolved candidates as graph writes and
// keeps the per-run counters.
package importer

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/agenthands/mosaic/internal/core/match"
	"github.com/agenthands/mosaic/internal/core/model"
	"github.com/agenthands/mosaic/internal/core/normalize"
	"github.com/agenthands/mosaic/internal/driver"
	"github.com/agenthands/mosaic/internal/embedding"
)

type NodeImporter struct {
	Driver   driver.GraphDriver
	Gateway  *embedding.Gateway
	Registry *match.Registry
	Stats    *model.ImportStats

	DryRun             bool
	EnableVectorSearch bool
	UUIDGenerator      func() string
}

func NewNodeImporter(d driver.GraphDriver, gateway *embedding.Gateway, registry *match.Registry, stats *model.ImportStats) *NodeImporter {
	return &NodeImporter{
		Driver:        d,
		Gateway:       gateway,
		Registry:      registry,
		Stats:         stats,
		UUIDGenerator: func() string { return uuid.New().String() },
	}
}

// CreateNode writes a new node for the candidate. A vector computed during
// resolution can be passed in to avoid a second embedding call; when absent
// and vector search is on, the importer embeds the candidate itself.
func (i *NodeImporter) CreateNode(ctx context.Context, cand model.CandidateNode, vector []float32) (*model.Node, error) {
	props := normalize.Properties(cand.Properties)
	if _, ok := props["id"].(string); !ok || props["id"] == "" {
		props["id"] = i.UUIDGenerator()
	}

	if i.EnableVectorSearch && vector == nil {
		matcher := i.Registry.ForType(cand.Type)
		vector = i.Gateway.EmbedProperties(ctx, matcher.EmbeddingProperties(), cand.Properties)
	}

	node := &model.Node{
		ID:         props["id"].(string),
		Labels:     []string{driver.SanitizeLabel(cand.Type)},
		Properties: props,
		Embedding:  vector,
	}

	if i.DryRun {
		model.Inc(&i.Stats.Nodes.Created)
		return node, nil
	}

	writeProps := make(map[string]interface{}, len(props)+1)
	for k, v := range props {
		writeProps[k] = v
	}
	if vector != nil {
		writeProps["embedding"] = driver.VectorParam(vector)
	}

	query := fmt.Sprintf(driver.CreateNodeTmpl, node.Labels[0])
	if _, err := i.Driver.ExecuteQuery(ctx, query, map[string]interface{}{"props": writeProps}); err != nil {
		return nil, fmt.Errorf("failed to create %s node: %w", cand.Type, err)
	}

	model.Inc(&i.Stats.Nodes.Created)
	return node, nil
}

// UpdateNode applies a partial property merge onto an existing node. The id
// property never changes.
func (i *NodeImporter) UpdateNode(ctx context.Context, existing *model.Node, props map[string]interface{}) (*model.Node, error) {
	normalized := normalize.Properties(props)
	delete(normalized, "id")

	if !i.DryRun {
		label := "Entity"
		if len(existing.Labels) > 0 {
			label = driver.SanitizeLabel(existing.Labels[0])
		}
		query := fmt.Sprintf(driver.UpdateNodeTmpl, label)
		if _, err := i.Driver.ExecuteQuery(ctx, query, map[string]interface{}{
			"id":    existing.ID,
			"props": normalized,
		}); err != nil {
			return nil, fmt.Errorf("failed to update node %s: %w", existing.ID, err)
		}
	}

	for k, v := range normalized {
		existing.Properties[k] = v
	}
	model.Inc(&i.Stats.Nodes.Updated)
	return existing, nil
}

// NeedsUpdate reports whether any candidate property differs from what is
// stored. Naive field-by-field inequality on the normalized values.
func NeedsUpdate(existing *model.Node, props map[string]interface{}) bool {
	normalized := normalize.Properties(props)
	for key, v := range normalized {
		if key == "id" || key == "embedding" {
			continue
		}
		stored, ok := existing.Properties[key]
		if !ok {
			if v != nil {
				return true
			}
			continue
		}
		if fmt.Sprintf("%v", stored) != fmt.Sprintf("%v", v) {
			return true
		}
	}
	return false
}
