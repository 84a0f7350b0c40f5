//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/mosaic/internal/config"
	"github.com/agenthands/mosaic/internal/core"
	"github.com/agenthands/mosaic/internal/core/model"
	"github.com/agenthands/mosaic/internal/driver"
	"github.com/agenthands/mosaic/internal/review"
)

// setup connects to a running Memgraph and builds an engine without an
// embedding provider, so only the non-vector resolution paths run.
func setup(t *testing.T) (*core.Engine, *review.Store) {
	t.Helper()
	_ = godotenv.Load("../../.env")

	cfg := config.Default()
	if uri := os.Getenv("MEMGRAPH_URI"); uri != "" {
		cfg.Graph.URI = uri
	}
	if pass := os.Getenv("MEMGRAPH_PASSWORD"); pass != "" {
		cfg.Graph.Password = pass
	}
	cfg.Import.EnableVectorSearch = false

	d, err := driver.NewMemgraphDriver(cfg.Graph.URI, cfg.Graph.User, cfg.Graph.Password)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close(context.Background()) })

	require.NoError(t, d.BuildIndices(context.Background()))

	reviews := review.NewStore(d)
	return core.NewEngine(d, nil, reviews, cfg), reviews
}

func TestImportAndReimport(t *testing.T) {
	engine, _ := setup(t)
	ctx := context.Background()

	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	batch := model.Batch{
		Nodes: []model.CandidateNode{
			{Type: "Person", Properties: map[string]interface{}{
				"name":  "Alice Martin " + suffix,
				"email": fmt.Sprintf("alice-%s@example.com", suffix),
			}},
			{Type: "Vehicle", Properties: map[string]interface{}{
				"name":  "Toyota Tacoma " + suffix,
				"brand": "Toyota",
				"model": "Tacoma " + suffix,
			}},
		},
		Relationships: []model.CandidateRelationship{
			{Source: "Alice Martin " + suffix, Target: "Toyota Tacoma " + suffix, Type: "OWNS"},
		},
	}

	first, err := engine.Import(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, int64(2), first.Nodes.Created)
	assert.Equal(t, int64(1), first.Relationships.Created)

	second, err := engine.Import(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, int64(0), second.Nodes.Created)
	assert.Equal(t, int64(2), second.Nodes.Duplicates)
	assert.Equal(t, int64(0), second.Relationships.Created)
	assert.Equal(t, int64(1), second.Relationships.Skipped)
}

func TestReviewLifecycle(t *testing.T) {
	_, reviews := setup(t)
	ctx := context.Background()

	suffix := fmt.Sprintf("%d", time.Now().UnixNano())
	rec := &model.ReviewRecord{
		ID:             "it-review-" + suffix,
		EntityType:     "Person",
		CandidateProps: map[string]interface{}{"name": "Jon Smith " + suffix},
		ExistingProps:  map[string]interface{}{"name": "John Smith " + suffix},
		ExistingID:     "it-node-" + suffix,
		Score:          0.72,
		Status:         model.ReviewPending,
		CreatedAt:      time.Now().UTC(),
	}
	require.NoError(t, reviews.Create(ctx, rec))

	loaded, err := reviews.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReviewPending, loaded.Status)

	approved, err := reviews.Approve(ctx, rec.ID, "", "integration")
	require.NoError(t, err)
	assert.Equal(t, model.ReviewApproved, approved.Status)
	assert.Equal(t, rec.ExistingID, approved.ResolvedNodeID)

	// A second verdict keeps the first outcome.
	again, err := reviews.Reject(ctx, rec.ID, "someone-else")
	require.NoError(t, err)
	assert.Equal(t, model.ReviewApproved, again.Status)
}
