package types

import (
	"errors"
	"strings"
	"time"

	"examguard/types"
)

// Status values of an AnalysisCompletedEvent.
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// AnalysisRequest asks a worker to analyse questions of one submission document.
type AnalysisRequest struct {
	RequestID string `json:"request_id"`
	QuizID    string `json:"quiz_id"`
	// Input is a file path or s3://bucket/key location.
	Input string `json:"input"`
	// Questions to analyse; empty means every question in the document.
	Questions           []string  `json:"questions,omitempty"`
	MinimumSimilarity   float64   `json:"minimum_similarity,omitempty"`
	SuspiciousThreshold float64   `json:"suspicious_threshold,omitempty"`
	RequestedAt         time.Time `json:"requested_at"`
}

// Validate checks the fields a worker cannot default.
func (r *AnalysisRequest) Validate() error {
	if strings.TrimSpace(r.RequestID) == "" {
		return errors.New("request_id is required")
	}
	if strings.TrimSpace(r.Input) == "" {
		return errors.New("input is required")
	}
	return nil
}

// AnalysisCompletedEvent is published once per analysed question.
type AnalysisCompletedEvent struct {
	RequestID   string         `json:"request_id"`
	QuizID      string         `json:"quiz_id"`
	QuestionID  string         `json:"question_id"`
	Status      string         `json:"status"`
	ReportID    string         `json:"report_id,omitempty"`
	Summary     *types.Summary `json:"summary,omitempty"`
	Error       string         `json:"error,omitempty"`
	Code        string         `json:"code,omitempty"`
	CompletedAt time.Time      `json:"completed_at"`
}
