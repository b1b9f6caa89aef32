package api

import (
	"errors"
	"net/http"
	"strconv"

	"examguard/store"

	"github.com/gin-gonic/gin"
)

// RegisterReportRoutes registers the report history endpoints.
func (s *Server) RegisterReportRoutes(r *gin.Engine) {
	g := r.Group("/api/reports")
	g.GET("", s.handleListReports)
	g.GET("/:id", s.handleGetReport)
}

func (s *Server) handleListReports(c *gin.Context) {
	if s.reports == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "report store not configured"})
		return
	}

	limit := 50
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}

	records, err := s.reports.ListReports(c.Request.Context(), c.Query("quiz_id"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list reports: " + err.Error()})
		return
	}
	if records == nil {
		records = []store.Record{}
	}
	c.JSON(http.StatusOK, gin.H{"reports": records, "count": len(records)})
}

func (s *Server) handleGetReport(c *gin.Context) {
	if s.reports == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "report store not configured"})
		return
	}

	report, err := s.reports.GetReport(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load report: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}
