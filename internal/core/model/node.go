package model

// CandidateNode is an unvalidated entity proposed for import by the
// extraction stage. Properties is a free-form bag; a pre-existing "id"
// property, when present, pins the candidate to a stored node.
type CandidateNode struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
}

// Name returns the candidate's name property, or "" when absent.
func (c CandidateNode) Name() string {
	if s, ok := c.Properties["name"].(string); ok {
		return s
	}
	return ""
}

// ID returns the candidate's pre-assigned id property, or "" when absent.
func (c CandidateNode) ID() string {
	if s, ok := c.Properties["id"].(string); ok {
		return s
	}
	return ""
}

// Node is a persisted graph entity. ID mirrors the node's "id" property,
// which is assigned at creation and unique within a label.
type Node struct {
	ID         string                 `json:"id"`
	Labels     []string               `json:"labels"`
	Properties map[string]interface{} `json:"properties"`
	Embedding  []float32              `json:"embedding,omitempty"`
}

// Prop returns a stored property as a string, or "" when absent or not a string.
func (n *Node) Prop(key string) string {
	if n == nil || n.Properties == nil {
		return ""
	}
	if s, ok := n.Properties[key].(string); ok {
		return s
	}
	return ""
}
