package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agenthands/mosaic/internal/config"
	"github.com/agenthands/mosaic/internal/core"
	"github.com/agenthands/mosaic/internal/core/importer"
	"github.com/agenthands/mosaic/internal/core/model"
	"github.com/agenthands/mosaic/internal/driver"
	"github.com/agenthands/mosaic/internal/embedding"
	"github.com/agenthands/mosaic/internal/review"
)

type Server struct {
	Engine  *core.Engine
	Reviews *review.Store
}

func NewServer() *Server {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Printf("Warning: could not load %s: %v. Using defaults", cfgPath, err)
		cfg = config.Default()
	}

	if uri := os.Getenv("MEMGRAPH_URI"); uri != "" {
		cfg.Graph.URI = uri
	}
	if user := os.Getenv("MEMGRAPH_USER"); user != "" {
		cfg.Graph.User = user
	}
	if pass := os.Getenv("MEMGRAPH_PASSWORD"); pass != "" {
		cfg.Graph.Password = pass
	}
	if provider := os.Getenv("EMBEDDING_PROVIDER"); provider != "" {
		cfg.Embedding.Provider = provider
	}
	if m := os.Getenv("EMBEDDING_MODEL"); m != "" {
		cfg.Embedding.Model = m
	}
	if key := os.Getenv("EMBEDDING_API_KEY"); key != "" {
		cfg.Embedding.APIKey = key
	}
	if base := os.Getenv("EMBEDDING_BASE_URL"); base != "" {
		cfg.Embedding.BaseURL = base
	}

	d, err := driver.NewMemgraphDriver(cfg.Graph.URI, cfg.Graph.User, cfg.Graph.Password)
	if err != nil {
		log.Fatalf("Failed to connect to Memgraph: %v", err)
	}

	embedder, err := embedding.New(context.Background(), cfg.Embedding)
	if err != nil {
		log.Printf("Warning: embedding provider unavailable, vector search disabled: %v", err)
		embedder = nil
	}
	gateway := embedding.NewGateway(embedder, time.Duration(cfg.Embedding.TimeoutSeconds)*time.Second)

	reviews := review.NewStore(d)
	engine := core.NewEngine(d, gateway, reviews, cfg)

	return &Server{Engine: engine, Reviews: reviews}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.GET("/healthz", s.Health)
	r.POST("/import", s.Import)
	r.GET("/reviews", s.ListReviews)
	r.GET("/reviews/:id", s.GetReview)
	r.POST("/reviews/:id/approve", s.ApproveReview)
	r.POST("/reviews/:id/reject", s.RejectReview)
	r.POST("/reviews/:id/merge", s.MergeReview)

	return r
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type ImportRequest struct {
	Nodes         []model.CandidateNode         `json:"nodes"`
	Relationships []model.CandidateRelationship `json:"relationships"`
	// Options overrides individual settings for this run; fields left out
	// of the request keep their configured values.
	Options *ImportOptions `json:"options"`
}

// ImportOptions mirrors core.Options with pointer fields so an absent field
// is distinguishable from an explicit false or zero.
type ImportOptions struct {
	DryRun              *bool    `json:"dry_run"`
	EnableVectorSearch  *bool    `json:"enable_vector_search"`
	EnableHumanReview   *bool    `json:"enable_human_review"`
	SimilarityThreshold *float64 `json:"similarity_threshold"`
	BatchSize           *int     `json:"batch_size"`
	Concurrency         *int     `json:"concurrency"`
}

func mergeOptions(opts core.Options, req *ImportOptions) core.Options {
	if req == nil {
		return opts
	}
	if req.DryRun != nil {
		opts.DryRun = *req.DryRun
	}
	if req.EnableVectorSearch != nil {
		opts.EnableVectorSearch = *req.EnableVectorSearch
	}
	if req.EnableHumanReview != nil {
		opts.EnableHumanReview = *req.EnableHumanReview
	}
	if req.SimilarityThreshold != nil {
		opts.SimilarityThreshold = *req.SimilarityThreshold
	}
	if req.BatchSize != nil {
		opts.BatchSize = *req.BatchSize
	}
	if req.Concurrency != nil {
		opts.Concurrency = *req.Concurrency
	}
	return opts
}

func (s *Server) Import(c *gin.Context) {
	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	if len(req.Nodes) == 0 && len(req.Relationships) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Empty batch"})
		return
	}

	opts := mergeOptions(s.Engine.Options(), req.Options)
	batch := model.Batch{Nodes: req.Nodes, Relationships: req.Relationships}
	stats, err := s.Engine.ImportWithOptions(c.Request.Context(), batch, opts)
	if err != nil {
		log.Printf("Import aborted: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Import aborted", "stats": stats})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "stats": stats})
}

func (s *Server) ListReviews(c *gin.Context) {
	status := model.ReviewStatus(c.Query("status"))
	records, err := s.Reviews.List(c.Request.Context(), status, 0)
	if err != nil {
		log.Printf("Failed to list reviews: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list reviews"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": records})
}

func (s *Server) GetReview(c *gin.Context) {
	rec, err := s.Reviews.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.reviewError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

type ReviewActionRequest struct {
	Reviewer     string `json:"reviewer"`
	TargetNodeID string `json:"target_node_id"`
}

func (s *Server) ApproveReview(c *gin.Context) {
	var req ReviewActionRequest
	_ = c.ShouldBindJSON(&req)

	rec, err := s.Reviews.Approve(c.Request.Context(), c.Param("id"), req.TargetNodeID, req.Reviewer)
	if err != nil {
		s.reviewError(c, err)
		return
	}
	s.applyCandidate(c.Request.Context(), rec)
	c.JSON(http.StatusOK, rec)
}

func (s *Server) RejectReview(c *gin.Context) {
	var req ReviewActionRequest
	_ = c.ShouldBindJSON(&req)

	rec, err := s.Reviews.Reject(c.Request.Context(), c.Param("id"), req.Reviewer)
	if err != nil {
		s.reviewError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) MergeReview(c *gin.Context) {
	var req ReviewActionRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.TargetNodeID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target_node_id is required"})
		return
	}

	rec, err := s.Reviews.Merge(c.Request.Context(), c.Param("id"), req.TargetNodeID, req.Reviewer)
	if err != nil {
		s.reviewError(c, err)
		return
	}
	s.applyCandidate(c.Request.Context(), rec)
	c.JSON(http.StatusOK, rec)
}

// applyCandidate merges the reviewed candidate's properties onto the chosen
// node after an approve or merge verdict.
func (s *Server) applyCandidate(ctx context.Context, rec *model.ReviewRecord) {
	if rec.Status != model.ReviewApproved || rec.ResolvedNodeID == "" || len(rec.CandidateProps) == 0 {
		return
	}
	node := &model.Node{
		ID:         rec.ResolvedNodeID,
		Labels:     []string{driver.SanitizeLabel(rec.EntityType)},
		Properties: map[string]interface{}{},
	}
	imp := importer.NewNodeImporter(s.Engine.Driver, s.Engine.Gateway, s.Engine.Registry, &model.ImportStats{})
	if _, err := imp.UpdateNode(ctx, node, rec.CandidateProps); err != nil {
		log.Printf("Failed to apply candidate properties for review %s: %v", rec.ID, err)
	}
}

func (s *Server) reviewError(c *gin.Context, err error) {
	if errors.Is(err, review.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
		return
	}
	log.Printf("Review operation failed: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Review operation failed"})
}
