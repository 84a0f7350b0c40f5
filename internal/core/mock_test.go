package core

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

var propClauseRe = regexp.MustCompile("n\\.`([^`]+)` = \\$(p\\d+)")

// MockDriver is an in-memory graph that answers the engine's query shapes.
// Guarded by a mutex because the node stage runs a worker pool.
type MockDriver struct {
	mu         sync.Mutex
	nodes      map[string]neo4j.Node
	edges      map[string]bool
	queries    []string
	FailCreate error
}

func NewMockDriver() *MockDriver {
	return &MockDriver{nodes: map[string]neo4j.Node{}, edges: map[string]bool{}}
}

func (m *MockDriver) Seed(label string, props map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes[props["id"].(string)] = neo4j.Node{Labels: []string{label}, Props: props}
}

func (m *MockDriver) NodeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.nodes)
}

func (m *MockDriver) NodeProp(id, key string) interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nodes[id].Props[key]
}

func (m *MockDriver) SawQuery(substr string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range m.queries {
		if strings.Contains(q, substr) {
			return true
		}
	}
	return false
}

func labelOf(query string) string {
	start := strings.Index(query, "(n:`")
	if start < 0 {
		return ""
	}
	rest := query[start+4:]
	return rest[:strings.Index(rest, "`")]
}

func edgeTypeOf(query string) string {
	start := strings.Index(query, "[r:`")
	rest := query[start+4:]
	return rest[:strings.Index(rest, "`")]
}

func (m *MockDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)

	hit := func(n neo4j.Node) neo4j.EagerResult {
		return neo4j.EagerResult{Records: []*neo4j.Record{{
			Keys:   []string{"n"},
			Values: []interface{}{n},
		}}}
	}
	hasLabel := func(n neo4j.Node, label string) bool {
		if label == "" {
			return true
		}
		for _, l := range n.Labels {
			if l == label {
				return true
			}
		}
		return false
	}

	switch {
	case strings.HasPrefix(query, "CREATE (n:"):
		if m.FailCreate != nil {
			return neo4j.EagerResult{}, m.FailCreate
		}
		props := params["props"].(map[string]interface{})
		stored := make(map[string]interface{}, len(props))
		for k, v := range props {
			stored[k] = v
		}
		m.nodes[stored["id"].(string)] = neo4j.Node{Labels: []string{labelOf(query)}, Props: stored}

	case strings.Contains(query, "SET n +="):
		id := params["id"].(string)
		if n, ok := m.nodes[id]; ok {
			for k, v := range params["props"].(map[string]interface{}) {
				n.Props[k] = v
			}
		}

	case strings.Contains(query, "{id: $id}) RETURN n LIMIT 1"):
		if n, ok := m.nodes[params["id"].(string)]; ok && hasLabel(n, labelOf(query)) {
			return hit(n), nil
		}

	case strings.Contains(query, "RETURN n LIMIT $limit"):
		var records []*neo4j.Record
		for _, n := range m.nodes {
			if hasLabel(n, labelOf(query)) {
				records = append(records, &neo4j.Record{Keys: []string{"n"}, Values: []interface{}{n}})
			}
		}
		return neo4j.EagerResult{Records: records}, nil

	case strings.Contains(query, "WHERE n.name = $name"):
		for _, n := range m.nodes {
			if hasLabel(n, labelOf(query)) && n.Props["name"] == params["name"] {
				return hit(n), nil
			}
		}

	case strings.Contains(query, "CONTAINS"):
		needle := strings.ToLower(params["needle"].(string))
		for _, n := range m.nodes {
			if !hasLabel(n, labelOf(query)) {
				continue
			}
			for _, v := range n.Props {
				if s, ok := v.(string); ok && strings.Contains(strings.ToLower(s), needle) {
					return hit(n), nil
				}
			}
		}

	case strings.Contains(query, "vector_search"):
		return neo4j.EagerResult{}, nil

	case propClauseRe.MatchString(query):
		clauses := propClauseRe.FindAllStringSubmatch(query, -1)
		label := labelOf(query)
	nodes:
		for _, n := range m.nodes {
			if !hasLabel(n, label) {
				continue
			}
			for _, c := range clauses {
				if fmt.Sprintf("%v", n.Props[c[1]]) != fmt.Sprintf("%v", params[c[2]]) {
					continue nodes
				}
			}
			return hit(n), nil
		}

	case strings.Contains(query, ")-[r:`") && strings.Contains(query, "RETURN r LIMIT 1"):
		key := fmt.Sprintf("%v|%s|%v", params["source_id"], edgeTypeOf(query), params["target_id"])
		if m.edges[key] {
			return neo4j.EagerResult{Records: []*neo4j.Record{{
				Keys:   []string{"r"},
				Values: []interface{}{neo4j.Relationship{}},
			}}}, nil
		}

	case strings.Contains(query, "CREATE (a)-[r:`"):
		key := fmt.Sprintf("%v|%s|%v", params["source_id"], edgeTypeOf(query), params["target_id"])
		m.edges[key] = true
	}

	return neo4j.EagerResult{}, nil
}

func (m *MockDriver) BuildIndices(ctx context.Context) error { return nil }
func (m *MockDriver) Close(ctx context.Context) error        { return nil }
