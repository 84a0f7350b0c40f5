package model

import (
	"fmt"
	"sync/atomic"
	"time"
)

// NodeStats counts per-run node import outcomes. Counters are incremented
// atomically because node candidates are imported by a worker pool.
type NodeStats struct {
	Total      int64 `json:"total"`
	Created    int64 `json:"created"`
	Updated    int64 `json:"updated"`
	Skipped    int64 `json:"skipped"`
	Errors     int64 `json:"errors"`
	Duplicates int64 `json:"duplicates"`
}

// RelStats counts per-run relationship import outcomes.
type RelStats struct {
	Total   int64 `json:"total"`
	Created int64 `json:"created"`
	Skipped int64 `json:"skipped"`
	Errors  int64 `json:"errors"`
}

// ImportStats is created fresh per orchestrator invocation and returned to
// the caller; it is the user-visible failure channel for the batch.
type ImportStats struct {
	Nodes         NodeStats     `json:"nodes"`
	Relationships RelStats      `json:"relationships"`
	StartedAt     time.Time     `json:"started_at"`
	FinishedAt    time.Time     `json:"finished_at"`
	Duration      time.Duration `json:"duration"`
}

// Inc atomically increments a counter field.
func Inc(field *int64) { atomic.AddInt64(field, 1) }

// Summary renders a human-readable recap of the run.
func (s *ImportStats) Summary() string {
	return fmt.Sprintf(
		"import finished in %s: nodes total=%d created=%d updated=%d skipped=%d duplicates=%d errors=%d; relationships total=%d created=%d skipped=%d errors=%d",
		s.Duration.Round(time.Millisecond),
		s.Nodes.Total, s.Nodes.Created, s.Nodes.Updated, s.Nodes.Skipped, s.Nodes.Duplicates, s.Nodes.Errors,
		s.Relationships.Total, s.Relationships.Created, s.Relationships.Skipped, s.Relationships.Errors,
	)
}
