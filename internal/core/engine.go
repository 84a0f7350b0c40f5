// Package core wires the resolution and import stages into one batch
// import engine.
package core

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/agenthands/mosaic/internal/config"
	"github.com/agenthands/mosaic/internal/core/confidence"
	"github.com/agenthands/mosaic/internal/core/importer"
	"github.com/agenthands/mosaic/internal/core/match"
	"github.com/agenthands/mosaic/internal/core/model"
	"github.com/agenthands/mosaic/internal/core/resolve"
	"github.com/agenthands/mosaic/internal/driver"
	"github.com/agenthands/mosaic/internal/embedding"
	"github.com/agenthands/mosaic/internal/review"
)

// Options are per-run import settings. Zero numeric values fall back to the
// engine's configuration.
type Options struct {
	DryRun              bool    `json:"dry_run"`
	EnableVectorSearch  bool    `json:"enable_vector_search"`
	EnableHumanReview   bool    `json:"enable_human_review"`
	SimilarityThreshold float64 `json:"similarity_threshold"`
	BatchSize           int     `json:"batch_size"`
	Concurrency         int     `json:"concurrency"`
}

type Engine struct {
	Driver        driver.GraphDriver
	Gateway       *embedding.Gateway
	Registry      *match.Registry
	Reviews       *review.Store
	Config        *config.Config
	UUIDGenerator func() string
}

func NewEngine(d driver.GraphDriver, gateway *embedding.Gateway, reviews *review.Store, cfg *config.Config) *Engine {
	return &Engine{
		Driver:        d,
		Gateway:       gateway,
		Registry:      match.NewRegistry(),
		Reviews:       reviews,
		Config:        cfg,
		UUIDGenerator: func() string { return uuid.New().String() },
	}
}

func (e *Engine) BuildIndices(ctx context.Context) error {
	return e.Driver.BuildIndices(ctx)
}

// Options returns the configured defaults for one import run.
func (e *Engine) Options() Options {
	imp := e.Config.Import
	return Options{
		DryRun:              imp.DryRun,
		EnableVectorSearch:  imp.EnableVectorSearch,
		EnableHumanReview:   imp.EnableHumanReview,
		SimilarityThreshold: imp.SimilarityThreshold,
		BatchSize:           imp.BatchSize,
		Concurrency:         imp.Concurrency,
	}
}

// Import runs a batch with the configured defaults.
func (e *Engine) Import(ctx context.Context, batch model.Batch) (*model.ImportStats, error) {
	return e.ImportWithOptions(ctx, batch, e.Options())
}

// ImportWithOptions imports every candidate node, then every candidate
// relationship. Nodes are resolved and written by a bounded worker pool in
// chunks of BatchSize; relationships run sequentially afterwards so both
// endpoints are present. Per-candidate failures land in the returned stats
// rather than aborting the batch; the only error returned is cancellation.
func (e *Engine) ImportWithOptions(ctx context.Context, batch model.Batch, opts Options) (*model.ImportStats, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 50
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.SimilarityThreshold <= 0 {
		opts.SimilarityThreshold = e.Config.Import.SimilarityThreshold
	}

	stats := &model.ImportStats{StartedAt: time.Now().UTC()}
	resolver := e.newResolver(opts)
	nodes := e.newNodeImporter(stats, opts)

	log.Printf("core: importing %d nodes and %d relationships (dry_run=%v)",
		len(batch.Nodes), len(batch.Relationships), opts.DryRun)

	for start := 0; start < len(batch.Nodes); start += opts.BatchSize {
		end := min(start+opts.BatchSize, len(batch.Nodes))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.Concurrency)
		for _, cand := range batch.Nodes[start:end] {
			cand := cand
			g.Go(func() error {
				e.importNode(gctx, resolver, nodes, cand, stats)
				return gctx.Err()
			})
		}
		if err := g.Wait(); err != nil {
			return e.finish(stats), err
		}
	}

	rels := importer.NewRelationshipImporter(e.Driver, stats)
	rels.DryRun = opts.DryRun
	rels.Import(ctx, batch.Relationships)

	return e.finish(stats), ctx.Err()
}

func (e *Engine) newResolver(opts Options) *resolve.Resolver {
	scorer := confidence.NewScorer(confidence.Weights{
		AutoMergeThreshold:  e.Config.Confidence.AutoMergeThreshold,
		AutoRejectThreshold: e.Config.Confidence.AutoRejectThreshold,
		RichnessBonus:       e.Config.Confidence.RichnessBonus,
		SparsityPenalty:     e.Config.Confidence.SparsityPenalty,
		GenericityPenalty:   e.Config.Confidence.GenericityPenalty,
	})

	var manager *confidence.Manager
	if e.Reviews != nil {
		manager = confidence.NewManager(scorer, e.Reviews)
		if !opts.EnableHumanReview {
			// Grade pairs but never queue; ambiguous matches just skip.
			manager.Queue = nil
		}
	}

	return &resolve.Resolver{
		Driver:              e.Driver,
		Registry:            e.Registry,
		Searcher:            resolve.NewSearcher(e.Driver),
		Gateway:             e.Gateway,
		Manager:             manager,
		UniqueKeys:          e.Config.Resolver.UniqueKeys,
		FuzzyScanLimit:      e.Config.Resolver.FuzzyScanLimit,
		EnableVectorSearch:  opts.EnableVectorSearch,
		SimilarityThreshold: opts.SimilarityThreshold,
	}
}

func (e *Engine) newNodeImporter(stats *model.ImportStats, opts Options) *importer.NodeImporter {
	nodes := importer.NewNodeImporter(e.Driver, e.Gateway, e.Registry, stats)
	nodes.DryRun = opts.DryRun
	nodes.EnableVectorSearch = opts.EnableVectorSearch
	if e.UUIDGenerator != nil {
		nodes.UUIDGenerator = e.UUIDGenerator
	}
	return nodes
}

// importNode runs one candidate through resolution and the matching write.
// Re-importing an unchanged candidate resolves to its stored node and counts
// as a skip, which is what makes a whole batch safe to re-run.
func (e *Engine) importNode(ctx context.Context, resolver *resolve.Resolver, imp *importer.NodeImporter, cand model.CandidateNode, stats *model.ImportStats) {
	model.Inc(&stats.Nodes.Total)

	if strings.TrimSpace(cand.Type) == "" || (cand.Name() == "" && cand.ID() == "") {
		log.Printf("core: skipping malformed candidate (type=%q name=%q)", cand.Type, cand.Name())
		model.Inc(&stats.Nodes.Skipped)
		return
	}

	res := resolver.Resolve(ctx, cand)
	if res.Node != nil {
		model.Inc(&stats.Nodes.Duplicates)
		if !importer.NeedsUpdate(res.Node, cand.Properties) {
			model.Inc(&stats.Nodes.Skipped)
			return
		}
		if _, err := imp.UpdateNode(ctx, res.Node, cand.Properties); err != nil {
			log.Printf("core: failed to update %s %q: %v", cand.Type, cand.Name(), err)
			model.Inc(&stats.Nodes.Errors)
		}
		return
	}

	if _, err := imp.CreateNode(ctx, cand, res.Embedding); err != nil {
		log.Printf("core: failed to create %s %q: %v", cand.Type, cand.Name(), err)
		model.Inc(&stats.Nodes.Errors)
	}
}

func (e *Engine) finish(stats *model.ImportStats) *model.ImportStats {
	stats.FinishedAt = time.Now().UTC()
	stats.Duration = stats.FinishedAt.Sub(stats.StartedAt)
	log.Printf("core: %s", stats.Summary())
	return stats
}
