package importer

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/agenthands/mosaic/internal/core/model"
	"github.com/agenthands/mosaic/internal/core/normalize"
	"github.com/agenthands/mosaic/internal/driver"
)

type RelationshipImporter struct {
	Driver driver.GraphDriver
	Stats  *model.ImportStats
	DryRun bool
}

func NewRelationshipImporter(d driver.GraphDriver, stats *model.ImportStats) *RelationshipImporter {
	return &RelationshipImporter{Driver: d, Stats: stats}
}

// Import resolves both endpoints of each candidate relationship and creates
// the edge when no same-type edge already exists between them. Unresolvable
// endpoints skip the relationship; only write failures count as errors.
func (i *RelationshipImporter) Import(ctx context.Context, cands []model.CandidateRelationship) {
	for _, cand := range cands {
		select {
		case <-ctx.Done():
			return
		default:
		}
		model.Inc(&i.Stats.Relationships.Total)
		i.importOne(ctx, cand)
	}
}

func (i *RelationshipImporter) importOne(ctx context.Context, cand model.CandidateRelationship) {
	relType := ""
	if strings.TrimSpace(cand.Type) != "" {
		relType = strings.ToUpper(driver.SanitizeLabel(cand.Type))
	}
	sourceName := endpointName(cand.Source)
	targetName := endpointName(cand.Target)

	if relType == "" || sourceName == "" || targetName == "" {
		log.Printf("importer: skipping malformed relationship %q (%q)-(%q)", cand.Type, sourceName, targetName)
		model.Inc(&i.Stats.Relationships.Skipped)
		return
	}

	sourceID := i.resolveEndpoint(ctx, sourceName, cand.SourceType)
	targetID := i.resolveEndpoint(ctx, targetName, cand.TargetType)
	if sourceID == "" || targetID == "" {
		log.Printf("importer: skipping relationship %s: unresolved endpoint (%q -> %q)", relType, sourceName, targetName)
		model.Inc(&i.Stats.Relationships.Skipped)
		return
	}

	exists, err := i.edgeExists(ctx, sourceID, targetID, relType)
	if err != nil {
		log.Printf("importer: edge lookup failed for %s: %v", relType, err)
		model.Inc(&i.Stats.Relationships.Errors)
		return
	}
	if exists {
		model.Inc(&i.Stats.Relationships.Skipped)
		return
	}

	if i.DryRun {
		model.Inc(&i.Stats.Relationships.Created)
		return
	}

	query := fmt.Sprintf(driver.CreateEdgeTmpl, relType)
	_, err = i.Driver.ExecuteQuery(ctx, query, map[string]interface{}{
		"source_id": sourceID,
		"target_id": targetID,
		"props":     normalize.Properties(cand.Properties),
	})
	if err != nil {
		log.Printf("importer: failed to create %s edge: %v", relType, err)
		model.Inc(&i.Stats.Relationships.Errors)
		return
	}
	model.Inc(&i.Stats.Relationships.Created)
}

// resolveEndpoint finds a node id for an endpoint name: exact name scoped
// to the optional type, then substring within the type, then a full scan.
// Returns "" when nothing matches.
func (i *RelationshipImporter) resolveEndpoint(ctx context.Context, name, typeHint string) string {
	if typeHint != "" {
		label := driver.SanitizeLabel(typeHint)

		if id := i.lookupID(ctx, fmt.Sprintf(driver.NodeByExactNameTmpl, label), map[string]interface{}{"name": name}); id != "" {
			return id
		}
		if id := i.lookupID(ctx, fmt.Sprintf(driver.NodeBySubstringTmpl, label), map[string]interface{}{"needle": name}); id != "" {
			return id
		}
	} else if id := i.lookupID(ctx, driver.NodeByExactNameAnyLabel, map[string]interface{}{"name": name}); id != "" {
		return id
	}

	// Full scan is the slowest fallback and runs only when the scoped
	// lookups found nothing.
	return i.lookupID(ctx, driver.NodeByScanQuery, map[string]interface{}{"needle": name})
}

func (i *RelationshipImporter) lookupID(ctx context.Context, query string, params map[string]interface{}) string {
	result, err := i.Driver.ExecuteQuery(ctx, query, params)
	if err != nil {
		log.Printf("importer: endpoint lookup failed: %v", err)
		return ""
	}
	if len(result.Records) == 0 {
		return ""
	}
	node, ok := driver.NodeFromRecord(result.Records[0], "n")
	if !ok {
		return ""
	}
	return node.ID
}

func (i *RelationshipImporter) edgeExists(ctx context.Context, sourceID, targetID, relType string) (bool, error) {
	query := fmt.Sprintf(driver.EdgeExistsTmpl, relType)
	result, err := i.Driver.ExecuteQuery(ctx, query, map[string]interface{}{
		"source_id": sourceID,
		"target_id": targetID,
	})
	if err != nil {
		return false, err
	}
	return len(result.Records) > 0, nil
}

// endpointName collapses an endpoint reference to one name: strings pass
// through, arrays yield their first non-blank entry.
func endpointName(v interface{}) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case []interface{}:
		for _, item := range val {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	case []string:
		for _, s := range val {
			if strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}
