package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/drug-repurposing-server/internal/domain"
	"github.com/drug-repurposing-server/internal/history"
	"github.com/drug-repurposing-server/internal/middleware"
	"github.com/drug-repurposing-server/pkg/external"
)

// defaultHistoryPageSize bounds the history listing endpoint.
const defaultHistoryPageSize = 50

// Analyzer runs one disease analysis end to end.
type Analyzer interface {
	Analyze(ctx context.Context, req domain.AnalyzeRequest) (*domain.AnalysisResult, error)
}

// Server represents the HTTP API surface.
type Server struct {
	analyzer Analyzer
	data     external.DataProvider
	store    history.Store
	config   *domain.Config
	logger   *logrus.Logger
	router   *gin.Engine
	server   *http.Server
}

// NewServer creates a new HTTP server instance. The history store may be
// nil, in which case the history endpoint reports 404.
func NewServer(analyzer Analyzer, data external.DataProvider, store history.Store, cfg *domain.Config, logger *logrus.Logger) *Server {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestLogger())
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestID())

	s := &Server{
		analyzer: analyzer,
		data:     data,
		store:    store,
		config:   cfg,
		logger:   logger,
		router:   router,
	}

	s.setupRoutes()
	return s
}

// Start runs the server until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.config.Server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	s.logger.WithField("addr", addr).Info("HTTP server listening")

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/analyze", s.handleAnalyze)
		v1.GET("/diseases/search", s.handleDiseaseSearch)
		v1.GET("/analyses", s.handleListAnalyses)
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
	})
}

// analyzeRequest is the JSON body for POST /api/v1/analyze.
type analyzeRequest struct {
	DiseaseName string  `json:"disease_name" binding:"required"`
	MinScore    float64 `json:"min_score"`
	TopK        int     `json:"top_k"`
}

// handleAnalyze runs a full repurposing analysis for one disease
func (s *Server) handleAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "disease_name is required", err.Error())
		return
	}
	if req.MinScore < 0 || req.MinScore > 1 {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "min_score must be between 0 and 1", "")
		return
	}

	result, err := s.analyzer.Analyze(c.Request.Context(), domain.AnalyzeRequest{
		DiseaseName: req.DiseaseName,
		MinScore:    req.MinScore,
		TopK:        req.TopK,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDiseaseNotFound) {
			s.respondError(c, http.StatusNotFound, domain.ErrNotFound,
				fmt.Sprintf("disease %q not found in any data source", req.DiseaseName), "")
			return
		}

		s.logger.WithFields(logrus.Fields{
			"disease":    req.DiseaseName,
			"request_id": c.GetString("request_id"),
			"error":      err.Error(),
		}).Error("Analysis failed")
		s.respondError(c, http.StatusInternalServerError, domain.ErrInternalServer, "analysis failed", "")
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleDiseaseSearch resolves a disease name to its evidence summary
func (s *Server) handleDiseaseSearch(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		s.respondError(c, http.StatusBadRequest, domain.ErrInvalidInput, "query parameter q is required", "")
		return
	}

	disease, err := s.data.FetchDisease(c.Request.Context(), query)
	if err != nil {
		if errors.Is(err, domain.ErrDiseaseNotFound) {
			s.respondError(c, http.StatusNotFound, domain.ErrNotFound,
				fmt.Sprintf("disease %q not found in any data source", query), "")
			return
		}

		s.logger.WithFields(logrus.Fields{
			"query":      query,
			"request_id": c.GetString("request_id"),
			"error":      err.Error(),
		}).Error("Disease search failed")
		s.respondError(c, http.StatusInternalServerError, domain.ErrInternalServer, "disease search failed", "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"name":          disease.Name,
		"id":            disease.ID,
		"description":   disease.Description,
		"genes":         disease.Genes,
		"pathways":      disease.Pathways,
		"is_rare":       disease.IsRare,
		"active_trials": disease.ActiveTrialsCount,
		"source":        disease.Source,
	})
}

// handleListAnalyses returns recorded analyses, newest first
func (s *Server) handleListAnalyses(c *gin.Context) {
	if s.store == nil {
		s.respondError(c, http.StatusNotFound, domain.ErrNotFound, "analysis history is disabled", "")
		return
	}

	limit := parseIntParam(c, "limit", defaultHistoryPageSize)
	offset := parseIntParam(c, "offset", 0)
	if limit <= 0 || limit > 500 {
		limit = defaultHistoryPageSize
	}
	if offset < 0 {
		offset = 0
	}

	records, err := s.store.List(c.Request.Context(), limit, offset)
	if err != nil {
		s.logger.WithField("error", err.Error()).Error("Failed to list analyses")
		s.respondError(c, http.StatusInternalServerError, domain.ErrDatabaseError, "failed to list analyses", "")
		return
	}

	count, err := s.store.Count(c.Request.Context())
	if err != nil {
		s.logger.WithField("error", err.Error()).Error("Failed to count analyses")
		s.respondError(c, http.StatusInternalServerError, domain.ErrDatabaseError, "failed to count analyses", "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"analyses": records,
		"total":    count,
		"limit":    limit,
		"offset":   offset,
	})
}

func (s *Server) respondError(c *gin.Context, status int, code, message, details string) {
	c.JSON(status, gin.H{
		"error": domain.NewAPIError(code, message, details, c.GetString("request_id")),
	})
}

func parseIntParam(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Request-ID")
		c.Header("Access-Control-Expose-Headers", "Content-Length, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
