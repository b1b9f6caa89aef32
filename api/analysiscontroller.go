package api

import (
	"errors"
	"log"
	"net/http"

	"examguard/detection"
	"examguard/embedding"
	"examguard/types"

	"github.com/gin-gonic/gin"
)

// RegisterAnalysisRoutes registers the similarity analysis endpoints.
func (s *Server) RegisterAnalysisRoutes(r *gin.Engine) {
	g := r.Group("/api/analysis")
	g.POST("/report", s.handleReport)
	g.POST("/compare", s.handleCompare)
	g.POST("/segments", s.handleSegments)
	g.POST("/statistics", s.handleStatistics)
}

// ReportRequest asks for a full report over one question's answers.
type ReportRequest struct {
	QuizID              string                `json:"quiz_id"`
	QuestionID          string                `json:"question_id" binding:"required"`
	Answers             []types.StudentAnswer `json:"answers"`
	MinimumSimilarity   float64               `json:"minimum_similarity"`
	SuspiciousThreshold float64               `json:"suspicious_threshold"`
	Persist             *bool                 `json:"persist,omitempty"`
}

// CompareRequest scores a single pair of answers.
type CompareRequest struct {
	QuestionID string              `json:"question_id"`
	Answer1    types.StudentAnswer `json:"answer1"`
	Answer2    types.StudentAnswer `json:"answer2"`
}

// SegmentsRequest lists matching sentences between two texts.
type SegmentsRequest struct {
	Text1             string  `json:"text1"`
	Text2             string  `json:"text2"`
	MinimumSimilarity float64 `json:"minimum_similarity"`
}

// StatisticsRequest asks for the lexical statistics of one text.
type StatisticsRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleReport(c *gin.Context) {
	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	builder, err := s.builder.WithThresholds(req.MinimumSimilarity, req.SuspiciousThreshold)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := builder.Build(c.Request.Context(), req.QuizID, req.QuestionID, req.Answers)
	if err != nil {
		respondAnalysisError(c, err)
		return
	}

	if s.reports != nil && (req.Persist == nil || *req.Persist) {
		if _, err := s.reports.SaveReport(c.Request.Context(), report); err != nil {
			log.Printf("Warning: failed to store report for quiz %s question %s: %v", req.QuizID, req.QuestionID, err)
		}
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleCompare(c *gin.Context) {
	var req CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Answer1.StudentID != "" && req.Answer1.StudentID == req.Answer2.StudentID {
		c.JSON(http.StatusBadRequest, gin.H{"error": detection.ErrDuplicateStudent.Error()})
		return
	}

	result, err := s.builder.Scorer().Score(c.Request.Context(), req.QuestionID, req.Answer1, req.Answer2)
	if err != nil {
		respondAnalysisError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleSegments(c *gin.Context) {
	var req SegmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	minSim := req.MinimumSimilarity
	if minSim == 0 {
		minSim = s.builder.Config().MinSimilarity
	}
	if minSim < 0 || minSim > 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "minimum_similarity must be within [0, 1]"})
		return
	}

	matches, err := s.builder.Matcher().Match(c.Request.Context(), req.Text1, req.Text2, minSim)
	if err != nil {
		respondAnalysisError(c, err)
		return
	}
	if matches == nil {
		matches = []types.SegmentMatch{}
	}
	c.JSON(http.StatusOK, gin.H{"matches": matches, "count": len(matches)})
}

func (s *Server) handleStatistics(c *gin.Context) {
	var req StatisticsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, detection.ExtractStatistics(req.Text))
}

func respondAnalysisError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, detection.ErrNoAnswers):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, detection.ErrDuplicateStudent), errors.Is(err, embedding.ErrInvalidPooling):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, embedding.ErrProvider):
		log.Printf("❌ Embedding provider failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		log.Printf("❌ Analysis failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
