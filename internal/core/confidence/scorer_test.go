package confidence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/mosaic/internal/core/match"
	"github.com/agenthands/mosaic/internal/core/model"
)

func TestExactEmailAutoMergesDespiteNameDrift(t *testing.T) {
	s := NewScorer(DefaultWeights())
	m := match.NewPersonMatcher()

	a := map[string]interface{}{"name": "Jon Smith", "email": "jon@x.com"}
	b := map[string]interface{}{"name": "Jonathan Smith", "email": "jon@x.com"}

	result := s.Score(m, a, b)
	decision := s.Decide(result.Confidence)

	assert.Equal(t, model.ActionAutoMerge, decision.Action)
	assert.GreaterOrEqual(t, result.Confidence, 0.9)
}

func TestGenericAssetAutoRejects(t *testing.T) {
	s := NewScorer(DefaultWeights())
	m := match.NewAssetMatcher()

	a := map[string]interface{}{"name": "truck", "brand": "Ford"}
	b := map[string]interface{}{"name": "truck", "brand": "Chevy"}

	result := s.Score(m, a, b)
	decision := s.Decide(result.Confidence)

	assert.LessOrEqual(t, result.Confidence, 0.3)
	assert.Equal(t, model.ActionAutoReject, decision.Action)
}

func TestNoMethodsFiredScoresZero(t *testing.T) {
	s := NewScorer(DefaultWeights())
	m := match.NewDefaultMatcher()

	result := s.Score(m, map[string]interface{}{"name": "Alpha"}, map[string]interface{}{"name": "Omega"})
	assert.Equal(t, 0.0, result.Confidence)
	assert.Empty(t, result.Fired)
}

func TestConfidenceClamped(t *testing.T) {
	s := NewScorer(DefaultWeights())
	m := match.NewAddressMatcher()

	// Rich, identical addresses: weighted average 1.0 plus the richness
	// bonus must clamp to 1.0.
	props := map[string]interface{}{
		"street":     "123 N Main St",
		"city":       "Springfield",
		"state":      "IL",
		"postalCode": "62704",
	}
	result := s.Score(m, props, props)
	assert.LessOrEqual(t, result.Confidence, 1.0)
	assert.GreaterOrEqual(t, result.Confidence, 0.0)
	assert.Equal(t, 1.0, result.Confidence)
}

func TestDecisionPartitionBoundaries(t *testing.T) {
	s := NewScorer(DefaultWeights())

	cases := []struct {
		score  float64
		action model.Action
	}{
		{1.0, model.ActionAutoMerge},
		{0.9, model.ActionAutoMerge},
		{0.89, model.ActionHumanReview},
		{0.31, model.ActionHumanReview},
		{0.3, model.ActionAutoReject},
		{0.0, model.ActionAutoReject},
	}
	for _, tc := range cases {
		decision := s.Decide(tc.score)
		assert.Equalf(t, tc.action, decision.Action, "score %.2f", tc.score)
	}
}

func TestSparsityPenalty(t *testing.T) {
	s := NewScorer(DefaultWeights())
	m := match.NewDefaultMatcher()

	a := map[string]interface{}{"name": "Acme Widgets"}
	b := map[string]interface{}{"name": "Acme Widgets"}

	// Single populated field on both sides: exact name still fires but the
	// sparsity penalty pulls the score out of the auto-merge band.
	result := s.Score(m, a, b)
	assert.InDelta(t, 0.8, result.Confidence, 1e-9)
	assert.Equal(t, model.ActionHumanReview, s.Decide(result.Confidence).Action)
}

type mockQueue struct {
	mu      sync.Mutex
	records []*model.ReviewRecord
}

func (q *mockQueue) Create(ctx context.Context, rec *model.ReviewRecord) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.records = append(q.records, rec)
	return nil
}

func (q *mockQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.records)
}

func TestManagerQueuesAmbiguousPairs(t *testing.T) {
	queue := &mockQueue{}
	mgr := NewManager(NewScorer(DefaultWeights()), queue)
	mgr.UUIDGenerator = func() string { return "review-1" }

	m := match.NewDefaultMatcher()
	candidate := map[string]interface{}{"name": "Acme Widgets"}
	existing := &model.Node{
		ID:         "node-1",
		Properties: map[string]interface{}{"name": "Acme Widgets"},
	}

	decision := mgr.Evaluate(context.Background(), "Organization", m, candidate, existing)

	require.Equal(t, model.ActionHumanReview, decision.Action)
	assert.Equal(t, "review-1", decision.ReviewID)

	// The write is detached; wait briefly for it to land.
	assert.Eventually(t, func() bool { return queue.count() == 1 }, time.Second, 10*time.Millisecond)
}

func TestManagerDoesNotQueueMerges(t *testing.T) {
	queue := &mockQueue{}
	mgr := NewManager(NewScorer(DefaultWeights()), queue)

	m := match.NewPersonMatcher()
	candidate := map[string]interface{}{"name": "Jon Smith", "email": "jon@x.com", "phone": "217-555-0000"}
	existing := &model.Node{
		ID:         "node-1",
		Properties: map[string]interface{}{"name": "Jon Smith", "email": "jon@x.com", "phone": "217-555-0000"},
	}

	decision := mgr.Evaluate(context.Background(), "Person", m, candidate, existing)
	assert.Equal(t, model.ActionAutoMerge, decision.Action)
	assert.Empty(t, decision.ReviewID)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, queue.count())
}
