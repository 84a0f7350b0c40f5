package model

import "time"

// Action is the outcome class of a confidence decision.
type Action string

const (
	ActionAutoMerge   Action = "auto_merge"
	ActionAutoReject  Action = "auto_reject"
	ActionHumanReview Action = "human_review"
)

// MatchDecision is the transient verdict for one candidate/existing pair.
// ReviewID is set only when Action is ActionHumanReview.
type MatchDecision struct {
	Score    float64 `json:"score"`
	Action   Action  `json:"action"`
	Reason   string  `json:"reason"`
	ReviewID string  `json:"review_id,omitempty"`
}

// ReviewStatus is the lifecycle state of a persisted review record.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// ReviewRecord is persisted when a match falls in the ambiguous confidence
// band. It is mutated only by an external reviewer action and never deleted
// automatically.
type ReviewRecord struct {
	ID             string                 `json:"id"`
	EntityType     string                 `json:"entity_type"`
	CandidateProps map[string]interface{} `json:"candidate_properties"`
	ExistingProps  map[string]interface{} `json:"existing_properties"`
	ExistingID     string                 `json:"existing_id"`
	Score          float64                `json:"score"`
	Status         ReviewStatus           `json:"status"`
	Reviewer       string                 `json:"reviewer,omitempty"`
	ResolvedNodeID string                 `json:"resolved_node_id,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	ResolvedAt     *time.Time             `json:"resolved_at,omitempty"`
}
