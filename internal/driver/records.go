package driver

import (
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/mosaic/internal/core/model"
)

// NodeFromRecord extracts a graph node bound to the given column of a
// result record. The stored embedding property, when present, is lifted out
// of the property map into Node.Embedding so matchers never iterate over it.
func NodeFromRecord(rec *neo4j.Record, key string) (*model.Node, bool) {
	val, ok := rec.Get(key)
	if !ok || val == nil {
		return nil, false
	}
	dbNode, ok := val.(neo4j.Node)
	if !ok {
		return nil, false
	}
	return NodeFromDB(dbNode), true
}

// NodeFromDB converts a bolt node into the model shape.
func NodeFromDB(dbNode neo4j.Node) *model.Node {
	props := make(map[string]interface{}, len(dbNode.Props))
	for k, v := range dbNode.Props {
		props[k] = v
	}

	node := &model.Node{
		Labels:     dbNode.Labels,
		Properties: props,
	}
	if id, ok := props["id"].(string); ok {
		node.ID = id
	}
	if raw, ok := props["embedding"]; ok {
		node.Embedding = ToVector(raw)
		delete(props, "embedding")
	}
	return node
}

// ToVector converts a bolt list value into a float32 vector. Returns nil
// for anything that is not a numeric list.
func ToVector(raw interface{}) []float32 {
	items, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	vec := make([]float32, 0, len(items))
	for _, item := range items {
		switch n := item.(type) {
		case float64:
			vec = append(vec, float32(n))
		case float32:
			vec = append(vec, n)
		case int64:
			vec = append(vec, float32(n))
		default:
			return nil
		}
	}
	return vec
}

// VectorParam widens a float32 vector for use as a query parameter.
func VectorParam(vec []float32) []interface{} {
	out := make([]interface{}, len(vec))
	for i, f := range vec {
		out[i] = float64(f)
	}
	return out
}
