package driver

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// EmbeddingDimensions is the expected width of stored embedding vectors.
const EmbeddingDimensions = 1536

// EntityLabels are the labels that get id and vector indices at startup.
// Unknown candidate types still work; they just miss the index fast path.
var EntityLabels = []string{"Entity", "Person", "Address", "Asset"}

type MemgraphDriver struct {
	Driver  neo4j.DriverWithContext
	Timeout time.Duration
}

func NewMemgraphDriver(uri, username, password string) (*MemgraphDriver, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, err
	}

	if err := driver.VerifyConnectivity(context.Background()); err != nil {
		return nil, err
	}

	log.Println("Connected to Memgraph")
	return &MemgraphDriver{Driver: driver, Timeout: 30 * time.Second}, nil
}

func (d *MemgraphDriver) Close(ctx context.Context) error {
	return d.Driver.Close(ctx)
}

func (d *MemgraphDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}
	result, err := neo4j.ExecuteQuery(ctx, d.Driver, query, params, neo4j.EagerResultTransformer)
	if err != nil {
		return neo4j.EagerResult{}, fmt.Errorf("failed to execute query: %w", err)
	}
	return *result, nil
}

func (d *MemgraphDriver) BuildIndices(ctx context.Context) error {
	var queries []string
	for _, label := range EntityLabels {
		queries = append(queries,
			fmt.Sprintf("CREATE INDEX ON :`%s`(id);", label),
			fmt.Sprintf("CREATE INDEX ON :`%s`(name);", label),
			fmt.Sprintf(`CALL vector_search.create_index(%q, %q, "embedding", %d, "COSINE");`,
				VectorIndexName(label), label, EmbeddingDimensions),
		)
	}
	queries = append(queries, "CREATE INDEX ON :Review(id);", "CREATE INDEX ON :Review(status);")

	for _, q := range queries {
		if _, err := d.ExecuteQuery(ctx, q, nil); err != nil {
			// Index may already exist, or the MAGE vector module may not be
			// loaded; either way the import path still works without it.
			log.Printf("Warning: failed to create index '%s': %v", q, err)
		}
	}

	return nil
}
