package importer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/mosaic/internal/core/match"
	"github.com/agenthands/mosaic/internal/core/model"
	"github.com/agenthands/mosaic/internal/embedding"
)

type mockDriver struct {
	responses map[string]neo4j.EagerResult
	errs      map[string]error
	queries   []string
	params    []map[string]interface{}
}

func (m *mockDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	m.queries = append(m.queries, query)
	m.params = append(m.params, params)
	for key, err := range m.errs {
		if strings.Contains(query, key) {
			return neo4j.EagerResult{}, err
		}
	}
	for key, result := range m.responses {
		if strings.Contains(query, key) {
			return result, nil
		}
	}
	return neo4j.EagerResult{}, nil
}

func (m *mockDriver) BuildIndices(ctx context.Context) error { return nil }
func (m *mockDriver) Close(ctx context.Context) error        { return nil }

type fixedEmbedder struct{ vec []float32 }

func (f *fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return f.vec, nil
}

func newNodeImporter(d *mockDriver, stats *model.ImportStats) *NodeImporter {
	imp := NewNodeImporter(d, nil, match.NewRegistry(), stats)
	imp.UUIDGenerator = func() string { return "fixed-uuid" }
	return imp
}

func TestCreateNodeAssignsIDAndCounts(t *testing.T) {
	d := &mockDriver{}
	stats := &model.ImportStats{}
	imp := newNodeImporter(d, stats)

	node, err := imp.CreateNode(context.Background(), model.CandidateNode{
		Type:       "Person",
		Properties: map[string]interface{}{"name": "Jon Smith"},
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "fixed-uuid", node.ID)
	assert.Equal(t, []string{"Person"}, node.Labels)
	assert.Equal(t, int64(1), stats.Nodes.Created)

	require.Len(t, d.queries, 1)
	assert.Contains(t, d.queries[0], "CREATE (n:`Person`)")
	props := d.params[0]["props"].(map[string]interface{})
	assert.Equal(t, "fixed-uuid", props["id"])
	assert.Equal(t, "Jon Smith", props["name"])
}

func TestCreateNodeKeepsProvidedID(t *testing.T) {
	d := &mockDriver{}
	imp := newNodeImporter(d, &model.ImportStats{})

	node, err := imp.CreateNode(context.Background(), model.CandidateNode{
		Type:       "Person",
		Properties: map[string]interface{}{"id": "external-7", "name": "Jon"},
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, "external-7", node.ID)
}

func TestCreateNodeDryRunWritesNothing(t *testing.T) {
	d := &mockDriver{}
	stats := &model.ImportStats{}
	imp := newNodeImporter(d, stats)
	imp.DryRun = true

	_, err := imp.CreateNode(context.Background(), model.CandidateNode{
		Type:       "Person",
		Properties: map[string]interface{}{"name": "Jon"},
	}, nil)

	require.NoError(t, err)
	assert.Empty(t, d.queries)
	assert.Equal(t, int64(1), stats.Nodes.Created)
}

func TestCreateNodeAttachesEmbedding(t *testing.T) {
	d := &mockDriver{}
	stats := &model.ImportStats{}
	imp := NewNodeImporter(d, embedding.NewGateway(&fixedEmbedder{vec: []float32{0.5, 0.5}}, time.Second), match.NewRegistry(), stats)
	imp.EnableVectorSearch = true

	node, err := imp.CreateNode(context.Background(), model.CandidateNode{
		Type:       "Person",
		Properties: map[string]interface{}{"name": "Jon"},
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5}, node.Embedding)

	props := d.params[0]["props"].(map[string]interface{})
	assert.Equal(t, []interface{}{0.5, 0.5}, props["embedding"])
}

func TestCreateNodeReusesResolutionVector(t *testing.T) {
	d := &mockDriver{}
	imp := newNodeImporter(d, &model.ImportStats{})
	imp.EnableVectorSearch = true

	node, err := imp.CreateNode(context.Background(), model.CandidateNode{
		Type:       "Person",
		Properties: map[string]interface{}{"name": "Jon"},
	}, []float32{1, 2})

	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, node.Embedding)
}

func TestUpdateNodeSkipsID(t *testing.T) {
	d := &mockDriver{}
	stats := &model.ImportStats{}
	imp := newNodeImporter(d, stats)

	existing := &model.Node{
		ID:         "p-1",
		Labels:     []string{"Person"},
		Properties: map[string]interface{}{"id": "p-1", "name": "Jon"},
	}

	_, err := imp.UpdateNode(context.Background(), existing, map[string]interface{}{
		"id":    "should-be-ignored",
		"name":  "Jon Smith",
		"email": "jon@x.com",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Nodes.Updated)
	assert.Equal(t, "Jon Smith", existing.Properties["name"])
	assert.Equal(t, "p-1", existing.Properties["id"])

	props := d.params[0]["props"].(map[string]interface{})
	_, hasID := props["id"]
	assert.False(t, hasID)
}

func TestNeedsUpdate(t *testing.T) {
	existing := &model.Node{
		ID:         "p-1",
		Properties: map[string]interface{}{"name": "Jon", "email": "jon@x.com"},
	}

	assert.False(t, NeedsUpdate(existing, map[string]interface{}{"name": "Jon"}))
	assert.True(t, NeedsUpdate(existing, map[string]interface{}{"name": "Jonathan"}))
	assert.True(t, NeedsUpdate(existing, map[string]interface{}{"phone": "217-555-1234"}))
	assert.False(t, NeedsUpdate(existing, map[string]interface{}{"id": "other"}), "id differences never trigger an update")
}
