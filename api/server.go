package api

import (
	"context"
	"net/http"

	"examguard/detection"
	"examguard/store"
	"examguard/types"

	"github.com/gin-gonic/gin"
)

// ReportStore is the report history used by the API. store.Store implements it.
type ReportStore interface {
	SaveReport(ctx context.Context, report *types.AnalysisReport) (string, error)
	GetReport(ctx context.Context, id string) (*types.AnalysisReport, error)
	ListReports(ctx context.Context, quizID string, limit int) ([]store.Record, error)
}

// Server holds the dependencies shared by all handlers.
type Server struct {
	builder *detection.Builder
	reports ReportStore
}

// NewServer wires a Builder and an optional report store (nil disables history).
func NewServer(builder *detection.Builder, reports ReportStore) *Server {
	return &Server{builder: builder, reports: reports}
}

// NewRouter constructs a Gin engine with registered routes.
func NewRouter(s *Server) *gin.Engine {
	r := gin.New()
	// Minimal middleware: recovery; logger optional to reduce verbosity
	r.Use(gin.Recovery())

	s.RegisterHealthRoutes(r)
	s.RegisterAnalysisRoutes(r)
	s.RegisterReportRoutes(r)
	return r
}

// RegisterHealthRoutes registers the liveness endpoint.
func (s *Server) RegisterHealthRoutes(r *gin.Engine) {
	r.GET("/api/health", s.handleHealth)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":               "healthy",
		"model":                s.builder.ModelName(),
		"report_store":         s.reports != nil,
		"minimum_similarity":   s.builder.Config().MinSimilarity,
		"suspicious_threshold": s.builder.Config().SuspiciousThreshold,
	})
}
