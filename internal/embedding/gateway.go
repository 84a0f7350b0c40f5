package embedding

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
)

// Gateway wraps a provider with the failure policy the import pipeline
// relies on: a nil vector means "skip vector search for this candidate",
// never a fatal condition.
type Gateway struct {
	Embedder Embedder
	Timeout  time.Duration
}

func NewGateway(embedder Embedder, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Gateway{Embedder: embedder, Timeout: timeout}
}

// Embed returns the vector for text, or nil when the provider is absent,
// fails, or returns an empty vector.
func (g *Gateway) Embed(ctx context.Context, text string) []float32 {
	if g == nil || g.Embedder == nil || strings.TrimSpace(text) == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()

	vec, err := g.Embedder.Embed(ctx, text)
	if err != nil {
		log.Printf("embedding: request failed: %v", err)
		return nil
	}
	if len(vec) == 0 {
		return nil
	}
	return vec
}

// EmbedProperties builds embedding text from the given property keys, in
// order, and embeds it. Keys with blank or non-scalar values are skipped.
func (g *Gateway) EmbedProperties(ctx context.Context, keys []string, props map[string]interface{}) []float32 {
	return g.Embed(ctx, PropertyText(keys, props))
}

// PropertyText concatenates the values of the listed keys into the text
// that represents the entity for similarity purposes.
func PropertyText(keys []string, props map[string]interface{}) string {
	var parts []string
	for _, key := range keys {
		v, ok := props[key]
		if !ok || v == nil {
			continue
		}
		var s string
		switch val := v.(type) {
		case string:
			s = val
		case []interface{}:
			if len(val) > 0 {
				s = fmt.Sprintf("%v", val[0])
			}
		default:
			s = fmt.Sprintf("%v", val)
		}
		if strings.TrimSpace(s) != "" {
			parts = append(parts, strings.TrimSpace(s))
		}
	}
	return strings.Join(parts, " ")
}
