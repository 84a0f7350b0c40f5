package model

// CandidateRelationship is a proposed directed edge between two nodes that
// are referenced by name rather than id; endpoint resolution happens at
// import time. SourceType/TargetType are optional hints that scope the
// endpoint lookup to a label.
type CandidateRelationship struct {
	Source     interface{}            `json:"source"`
	Target     interface{}            `json:"target"`
	Type       string                 `json:"type"`
	SourceType string                 `json:"source_type,omitempty"`
	TargetType string                 `json:"target_type,omitempty"`
	Properties map[string]interface{} `json:"properties,omitempty"`
}
