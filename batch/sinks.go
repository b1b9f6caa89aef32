package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"examguard/common"
	"examguard/config"
	"examguard/types"
)

// ResultFileName is the per-question output name, e.g. results_q1.json.
func ResultFileName(questionID string) string {
	return fmt.Sprintf(config.ResultFilePattern, questionID)
}

// EncodeDocument renders an outcome as indented JSON with non-ASCII text kept as is.
func EncodeDocument(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileSink writes results_q<id>.json files into Dir.
type FileSink struct {
	Dir string
}

func (f FileSink) Name() string {
	if f.Dir == "" {
		return "."
	}
	return f.Dir
}

func (f FileSink) Write(ctx context.Context, quizID string, outcome Outcome) error {
	body, err := EncodeDocument(outcome.Document())
	if err != nil {
		return fmt.Errorf("failed to encode question %s: %w", outcome.QuestionID, err)
	}
	if f.Dir != "" {
		if err := os.MkdirAll(f.Dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", f.Dir, err)
		}
	}
	path := filepath.Join(f.Dir, ResultFileName(outcome.QuestionID))
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ObjectPutter is the slice of common.S3 an upload sink needs.
type ObjectPutter interface {
	PutJSON(ctx context.Context, bucket, key string, body []byte) error
}

// S3Sink uploads each outcome to <prefix>/<quiz>/results_q<id>.json.
type S3Sink struct {
	Client ObjectPutter
	Bucket string
	Prefix string
}

func (s S3Sink) Name() string { return "s3://" + s.Bucket + "/" + s.Prefix }

func (s S3Sink) Key(quizID, questionID string) string {
	return common.JoinKey(common.JoinKey(s.Prefix, quizID), ResultFileName(questionID))
}

func (s S3Sink) Write(ctx context.Context, quizID string, outcome Outcome) error {
	body, err := EncodeDocument(outcome.Document())
	if err != nil {
		return fmt.Errorf("failed to encode question %s: %w", outcome.QuestionID, err)
	}
	return s.Client.PutJSON(ctx, s.Bucket, s.Key(quizID, outcome.QuestionID), body)
}

// ReportSaver is implemented by store.Store.
type ReportSaver interface {
	SaveReport(ctx context.Context, report *types.AnalysisReport) (string, error)
}

// StoreSink persists successful reports; failures are not stored.
type StoreSink struct {
	Store ReportSaver
}

func (StoreSink) Name() string { return "report store" }

func (s StoreSink) Write(ctx context.Context, quizID string, outcome Outcome) error {
	if outcome.Report == nil {
		return nil
	}
	_, err := s.Store.SaveReport(ctx, outcome.Report)
	return err
}
