package confidence

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/agenthands/mosaic/internal/core/match"
	"github.com/agenthands/mosaic/internal/core/model"
)

// ReviewQueue persists review records for ambiguous matches. Satisfied by
// review.Store.
type ReviewQueue interface {
	Create(ctx context.Context, rec *model.ReviewRecord) error
}

// Manager grades candidate pairs and queues human reviews for the
// ambiguous band. Queuing is fire-and-forget: a slow or failing review
// store never blocks resolution of the rest of the batch.
type Manager struct {
	Scorer        *Scorer
	Queue         ReviewQueue
	UUIDGenerator func() string
	// QueueTimeout bounds the detached review write.
	QueueTimeout time.Duration
}

func NewManager(scorer *Scorer, queue ReviewQueue) *Manager {
	return &Manager{
		Scorer:        scorer,
		Queue:         queue,
		UUIDGenerator: func() string { return uuid.New().String() },
		QueueTimeout:  10 * time.Second,
	}
}

// Evaluate scores a candidate against one existing node and classifies the
// result. For human_review outcomes a ReviewRecord is written in the
// background and its id returned in the decision.
func (m *Manager) Evaluate(ctx context.Context, entityType string, matcher match.Matcher, candidate map[string]interface{}, existing *model.Node) model.MatchDecision {
	result := m.Scorer.Score(matcher, candidate, existing.Properties)
	decision := m.Scorer.Decide(result.Confidence)

	if decision.Action != model.ActionHumanReview {
		return decision
	}

	record := &model.ReviewRecord{
		ID:             m.UUIDGenerator(),
		EntityType:     entityType,
		CandidateProps: candidate,
		ExistingProps:  existing.Properties,
		ExistingID:     existing.ID,
		Score:          result.Confidence,
		Status:         model.ReviewPending,
		CreatedAt:      time.Now().UTC(),
	}
	decision.ReviewID = record.ID

	if m.Queue == nil {
		return decision
	}

	go func() {
		qctx, cancel := context.WithTimeout(context.Background(), m.QueueTimeout)
		defer cancel()
		if err := m.Queue.Create(qctx, record); err != nil {
			log.Printf("confidence: failed to queue review %s for %s: %v", record.ID, entityType, err)
		}
	}()

	return decision
}
