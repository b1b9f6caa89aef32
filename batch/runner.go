package batch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"examguard/detection"
	"examguard/embedding"
	"examguard/source"
	"examguard/types"
)

// Error codes carried by ErrorResult documents.
const (
	CodeInputNotFound  = "input_not_found"
	CodeInputParse     = "input_parse"
	CodeNoAnswers      = "no_answers"
	CodeProvider       = "provider"
	CodeInvalidPooling = "invalid_pooling"
	CodeInternal       = "internal"
)

// AllQuestions stands in for the question id when a run over every question
// has nothing to enumerate: the document failed to load, is empty, or maps
// students straight to answer text.
const AllQuestions = "all"

// ErrorResult is written in place of a report when a question fails.
type ErrorResult struct {
	QuizID     string `json:"quiz_id"`
	QuestionID string `json:"question_id"`
	Error      string `json:"error"`
	Code       string `json:"code"`
}

// Outcome is the result of one question: exactly one of Report or Failure is set.
type Outcome struct {
	QuestionID string
	Report     *types.AnalysisReport
	Failure    *ErrorResult
}

// Document returns the value serialized for this outcome.
func (o Outcome) Document() any {
	if o.Failure != nil {
		return o.Failure
	}
	return o.Report
}

// Sink receives every outcome of a run.
type Sink interface {
	Write(ctx context.Context, quizID string, outcome Outcome) error
	Name() string
}

// ErrorCode maps an analysis error to its ErrorResult code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, source.ErrInputNotFound):
		return CodeInputNotFound
	case errors.Is(err, source.ErrInputParse):
		return CodeInputParse
	case errors.Is(err, detection.ErrNoAnswers):
		return CodeNoAnswers
	case errors.Is(err, embedding.ErrInvalidPooling):
		return CodeInvalidPooling
	case errors.Is(err, embedding.ErrProvider):
		return CodeProvider
	default:
		return CodeInternal
	}
}

// Runner analyses a list of questions from one submission document.
type Runner struct {
	builder *detection.Builder
	sinks   []Sink
}

func NewRunner(builder *detection.Builder, sinks ...Sink) *Runner {
	return &Runner{builder: builder, sinks: sinks}
}

// Run loads src once and builds one report per question. Question failures
// become ErrorResult outcomes and later questions still run. The returned
// error joins sink failures, or is the context error on cancellation.
func (r *Runner) Run(ctx context.Context, quizID string, src source.Source, questionIDs []string) ([]Outcome, error) {
	doc, loadErr := src.Load(ctx)
	if loadErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		log.Printf("Warning: failed to load %s: %v", src.Name(), loadErr)
	}

	if len(questionIDs) == 0 && doc != nil {
		questionIDs = doc.Questions()
	}
	if len(questionIDs) == 0 {
		questionIDs = []string{AllQuestions}
	}

	var outcomes []Outcome
	var sinkErrs []error
	for _, q := range questionIDs {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		var outcome Outcome
		if loadErr != nil {
			outcome = failure(quizID, q, loadErr)
		} else {
			outcome = r.analyse(ctx, quizID, q, doc)
			if outcome.Failure != nil && ctx.Err() != nil {
				return outcomes, ctx.Err()
			}
		}
		outcomes = append(outcomes, outcome)

		for _, sink := range r.sinks {
			if err := sink.Write(ctx, quizID, outcome); err != nil {
				log.Printf("Warning: failed to write question %s to %s: %v", q, sink.Name(), err)
				sinkErrs = append(sinkErrs, fmt.Errorf("question %s to %s: %w", q, sink.Name(), err))
			}
		}
		logOutcome(outcome)
	}
	return outcomes, errors.Join(sinkErrs...)
}

func (r *Runner) analyse(ctx context.Context, quizID, questionID string, doc *source.Document) Outcome {
	answers := doc.Answers(questionID)
	report, err := r.builder.Build(ctx, quizID, questionID, answers)
	if err != nil {
		return failure(quizID, questionID, err)
	}
	return Outcome{QuestionID: questionID, Report: report}
}

func failure(quizID, questionID string, err error) Outcome {
	return Outcome{
		QuestionID: questionID,
		Failure: &ErrorResult{
			QuizID:     quizID,
			QuestionID: questionID,
			Error:      err.Error(),
			Code:       ErrorCode(err),
		},
	}
}

func logOutcome(o Outcome) {
	if o.Failure != nil {
		log.Printf("  question %s: ❌ %s (%s)", o.QuestionID, o.Failure.Error, o.Failure.Code)
		return
	}
	s := o.Report.Summary
	log.Printf("  question %s: ✅ %d comparisons, %d high / %d medium / %d low, highest %.4f",
		o.QuestionID, s.TotalComparisons, s.HighRiskCount, s.MediumRiskCount, s.LowRiskCount, s.HighestSimilarity)
}

// ParseQuestions splits a comma separated question list. "all" or an empty
// list returns nil, which Run expands to every question in the document, or
// to AllQuestions when there is none to enumerate.
func ParseQuestions(list string) []string {
	list = strings.TrimSpace(list)
	if list == "" || strings.EqualFold(list, AllQuestions) {
		return nil
	}
	var out []string
	for _, part := range strings.Split(list, ",") {
		if q := strings.TrimSpace(part); q != "" {
			out = append(out, q)
		}
	}
	return out
}
