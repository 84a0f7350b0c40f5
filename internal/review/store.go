// Package review persists human-review records in the graph store and
// applies reviewer verdicts idempotently.
package review

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/agenthands/mosaic/internal/core/model"
	"github.com/agenthands/mosaic/internal/driver"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// ErrNotFound is returned when no review record carries the requested id.
var ErrNotFound = fmt.Errorf("review not found")

// Store keeps review records as :Review nodes. They live beside the entity
// graph, so no second database is needed for the review workflow.
type Store struct {
	Driver driver.GraphDriver
}

func NewStore(d driver.GraphDriver) *Store {
	return &Store{Driver: d}
}

// Create persists a pending review record.
func (s *Store) Create(ctx context.Context, rec *model.ReviewRecord) error {
	props, err := recordProps(rec)
	if err != nil {
		return err
	}
	_, err = s.Driver.ExecuteQuery(ctx, driver.SaveReviewQuery, map[string]interface{}{
		"id":    rec.ID,
		"props": props,
	})
	if err != nil {
		return fmt.Errorf("failed to save review %s: %w", rec.ID, err)
	}
	return nil
}

// Get loads one review record by id.
func (s *Store) Get(ctx context.Context, id string) (*model.ReviewRecord, error) {
	result, err := s.Driver.ExecuteQuery(ctx, driver.GetReviewQuery, map[string]interface{}{"id": id})
	if err != nil {
		return nil, err
	}
	if len(result.Records) == 0 {
		return nil, ErrNotFound
	}
	return recordFromNode(result.Records[0])
}

// List returns review records, optionally filtered by status. The newest
// records come first.
func (s *Store) List(ctx context.Context, status model.ReviewStatus, limit int) ([]*model.ReviewRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	result, err := s.Driver.ExecuteQuery(ctx, driver.ListReviewsQuery, map[string]interface{}{
		"status": string(status),
		"limit":  limit,
	})
	if err != nil {
		return nil, err
	}
	records := make([]*model.ReviewRecord, 0, len(result.Records))
	for _, rec := range result.Records {
		r, err := recordFromNode(rec)
		if err != nil {
			log.Printf("review: skipping malformed record: %v", err)
			continue
		}
		records = append(records, r)
	}
	return records, nil
}

// Approve marks a pending review approved, optionally pointing at an
// existing node. Re-applying a resolved review is a no-op that returns the
// prior outcome.
func (s *Store) Approve(ctx context.Context, id, nodeID, reviewer string) (*model.ReviewRecord, error) {
	return s.resolve(ctx, id, model.ReviewApproved, nodeID, reviewer)
}

// Reject marks a pending review rejected.
func (s *Store) Reject(ctx context.Context, id, reviewer string) (*model.ReviewRecord, error) {
	return s.resolve(ctx, id, model.ReviewRejected, "", reviewer)
}

// Merge approves a pending review against an explicit target node.
func (s *Store) Merge(ctx context.Context, id, targetNodeID, reviewer string) (*model.ReviewRecord, error) {
	if targetNodeID == "" {
		return nil, fmt.Errorf("merge requires a target node id")
	}
	return s.resolve(ctx, id, model.ReviewApproved, targetNodeID, reviewer)
}

func (s *Store) resolve(ctx context.Context, id string, status model.ReviewStatus, nodeID, reviewer string) (*model.ReviewRecord, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status != model.ReviewPending {
		// Idempotent: the first resolution wins.
		return rec, nil
	}

	now := time.Now().UTC()
	rec.Status = status
	rec.Reviewer = reviewer
	rec.ResolvedAt = &now
	if nodeID == "" {
		nodeID = rec.ExistingID
	}
	if status == model.ReviewApproved {
		rec.ResolvedNodeID = nodeID
	}

	props, err := recordProps(rec)
	if err != nil {
		return nil, err
	}
	if _, err := s.Driver.ExecuteQuery(ctx, driver.SaveReviewQuery, map[string]interface{}{
		"id":    rec.ID,
		"props": props,
	}); err != nil {
		return nil, fmt.Errorf("failed to resolve review %s: %w", id, err)
	}
	return rec, nil
}

func recordProps(rec *model.ReviewRecord) (map[string]interface{}, error) {
	candJSON, err := json.Marshal(rec.CandidateProps)
	if err != nil {
		return nil, fmt.Errorf("failed to encode candidate properties: %w", err)
	}
	existJSON, err := json.Marshal(rec.ExistingProps)
	if err != nil {
		return nil, fmt.Errorf("failed to encode existing properties: %w", err)
	}

	props := map[string]interface{}{
		"id":                   rec.ID,
		"entity_type":          rec.EntityType,
		"candidate_properties": string(candJSON),
		"existing_properties":  string(existJSON),
		"existing_id":          rec.ExistingID,
		"score":                rec.Score,
		"status":               string(rec.Status),
		"reviewer":             rec.Reviewer,
		"resolved_node_id":     rec.ResolvedNodeID,
		"created_at":           rec.CreatedAt.Format(time.RFC3339),
	}
	if rec.ResolvedAt != nil {
		props["resolved_at"] = rec.ResolvedAt.Format(time.RFC3339)
	}
	return props, nil
}

func recordFromNode(rec *neo4j.Record) (*model.ReviewRecord, error) {
	val, ok := rec.Get("r")
	if !ok || val == nil {
		return nil, fmt.Errorf("record has no review column")
	}
	dbNode, ok := val.(neo4j.Node)
	if !ok {
		return nil, fmt.Errorf("review column is not a node")
	}
	props := dbNode.Props

	out := &model.ReviewRecord{
		ID:             str(props, "id"),
		EntityType:     str(props, "entity_type"),
		ExistingID:     str(props, "existing_id"),
		Status:         model.ReviewStatus(str(props, "status")),
		Reviewer:       str(props, "reviewer"),
		ResolvedNodeID: str(props, "resolved_node_id"),
	}
	if f, ok := props["score"].(float64); ok {
		out.Score = f
	}
	if ts, err := time.Parse(time.RFC3339, str(props, "created_at")); err == nil {
		out.CreatedAt = ts
	}
	if raw := str(props, "resolved_at"); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			out.ResolvedAt = &ts
		}
	}
	if raw := str(props, "candidate_properties"); raw != "" {
		_ = json.Unmarshal([]byte(raw), &out.CandidateProps)
	}
	if raw := str(props, "existing_properties"); raw != "" {
		_ = json.Unmarshal([]byte(raw), &out.ExistingProps)
	}
	return out, nil
}

func str(props map[string]interface{}, key string) string {
	if s, ok := props[key].(string); ok {
		return s
	}
	return ""
}
