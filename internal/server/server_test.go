package server

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agenthands/mosaic/internal/core"
)

func configuredDefaults() core.Options {
	return core.Options{
		EnableVectorSearch:  true,
		EnableHumanReview:   true,
		SimilarityThreshold: 0.85,
		BatchSize:           50,
		Concurrency:         4,
	}
}

func TestMergeOptionsKeepsUnsetFields(t *testing.T) {
	dry := true
	got := mergeOptions(configuredDefaults(), &ImportOptions{DryRun: &dry})

	assert.True(t, got.DryRun)
	assert.True(t, got.EnableVectorSearch, "fields absent from the request keep their configured values")
	assert.True(t, got.EnableHumanReview)
	assert.Equal(t, 0.85, got.SimilarityThreshold)
	assert.Equal(t, 50, got.BatchSize)
	assert.Equal(t, 4, got.Concurrency)
}

func TestMergeOptionsExplicitFalseWins(t *testing.T) {
	off := false
	got := mergeOptions(configuredDefaults(), &ImportOptions{
		EnableVectorSearch: &off,
		EnableHumanReview:  &off,
	})

	assert.False(t, got.EnableVectorSearch)
	assert.False(t, got.EnableHumanReview)
	assert.False(t, got.DryRun)
}

func TestMergeOptionsNilRequest(t *testing.T) {
	assert.Equal(t, configuredDefaults(), mergeOptions(configuredDefaults(), nil))
}

func TestMergeOptionsNumericOverrides(t *testing.T) {
	threshold := 0.9
	batch := 10
	got := mergeOptions(configuredDefaults(), &ImportOptions{
		SimilarityThreshold: &threshold,
		BatchSize:           &batch,
	})

	assert.Equal(t, 0.9, got.SimilarityThreshold)
	assert.Equal(t, 10, got.BatchSize)
	assert.Equal(t, 4, got.Concurrency)
}
