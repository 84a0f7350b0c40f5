package model

// Batch is one import request: candidate nodes plus the relationships
// between them. Relationships reference nodes by name, so nodes are always
// imported first.
type Batch struct {
	Nodes         []CandidateNode         `json:"nodes"`
	Relationships []CandidateRelationship `json:"relationships"`
}
