package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode"

	"examguard/detection"
	"examguard/embedding"
	"examguard/source"
	"examguard/types"
)

// letterProvider embeds text as lowercase letter counts.
type letterProvider struct{}

func (letterProvider) ModelName() string { return "letters" }
func (letterProvider) Close() error      { return nil }

func (letterProvider) Embed(ctx context.Context, text string, pooling embedding.Pooling) (embedding.Vector, error) {
	if !pooling.Valid() {
		return embedding.Vector{}, &embedding.InvalidPoolingError{Pooling: string(pooling)}
	}
	values := make([]float32, 26)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			values[r-'a']++
		} else if unicode.IsLetter(r) {
			values[int(r)%26]++
		}
	}
	return embedding.Vector{Values: values, Pooling: pooling}, nil
}

const submissions = `{
  "s1": [{"qnumber": 1, "description": "Plants convert light into chemical energy."}, {"qnumber": 2, "description": "Water boils at one hundred degrees."}],
  "s2": [{"qnumber": 1, "description": "Plants convert light into chemical energy!"}, {"qnumber": 2, "description": "Ice melts at zero degrees."}],
  "s3": [{"qnumber": 1, "description": "The empire fell after many wars."}]
}`

func newTestRunner(t *testing.T, sinks ...Sink) *Runner {
	t.Helper()
	clock := func() time.Time { return time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC) }
	b, err := detection.NewBuilder(letterProvider{}, detection.Config{Clock: clock, Workers: 2})
	if err != nil {
		t.Fatalf("NewBuilder error: %v", err)
	}
	return NewRunner(b, sinks...)
}

func writeSubmissions(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "result.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write submissions: %v", err)
	}
	return path
}

func TestRunWritesOneFilePerQuestion(t *testing.T) {
	out := t.TempDir()
	r := newTestRunner(t, FileSink{Dir: out})
	src := source.FileSource{Path: writeSubmissions(t, submissions)}

	outcomes, err := r.Run(context.Background(), "quiz", src, []string{"1", "2", "9"})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("len(outcomes) = %d; want 3", len(outcomes))
	}
	if outcomes[0].Report == nil || outcomes[0].Report.Summary.TotalComparisons != 3 {
		t.Fatalf("question 1 should compare three students, got %+v", outcomes[0])
	}
	if outcomes[1].Report == nil || outcomes[1].Report.Summary.TotalComparisons != 1 {
		t.Fatalf("question 2 should compare two students, got %+v", outcomes[1])
	}
	if outcomes[2].Failure == nil || outcomes[2].Failure.Code != CodeNoAnswers {
		t.Fatalf("question 9 should fail with no_answers, got %+v", outcomes[2])
	}

	body, err := os.ReadFile(filepath.Join(out, "results_q1.json"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var report types.AnalysisReport
	if err := json.Unmarshal(body, &report); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if report.QuizID != "quiz" || report.QuestionID != "1" || len(report.AnalysisResults) != 3 {
		t.Fatalf("unexpected report %+v", report)
	}

	body, err = os.ReadFile(filepath.Join(out, "results_q9.json"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var failed ErrorResult
	if err := json.Unmarshal(body, &failed); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if failed.Code != CodeNoAnswers || failed.Error == "" {
		t.Fatalf("unexpected error document %+v", failed)
	}
}

func TestRunAllQuestions(t *testing.T) {
	r := newTestRunner(t)
	src := source.FileSource{Path: writeSubmissions(t, submissions)}
	outcomes, err := r.Run(context.Background(), "quiz", src, nil)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	var ids []string
	for _, o := range outcomes {
		ids = append(ids, o.QuestionID)
	}
	if !reflect.DeepEqual(ids, []string{"1", "2"}) {
		t.Fatalf("questions = %v", ids)
	}
}

func TestRunAllQuestionsWithoutQuestionNumbers(t *testing.T) {
	cases := []struct {
		name        string
		src         source.Source
		wantCode    string
		comparisons int
	}{
		{"missing file", source.FileSource{Path: filepath.Join(t.TempDir(), "nope.json")}, CodeInputNotFound, 0},
		{"invalid json", source.FileSource{Path: writeSubmissions(t, "{not json")}, CodeInputParse, 0},
		{"empty document", source.FileSource{Path: writeSubmissions(t, "{}")}, CodeNoAnswers, 0},
		{"answer text per student", source.FileSource{Path: writeSubmissions(t, `{"s1": "Plants convert light.", "s2": "Plants convert light!", "s3": "Rome fell."}`)}, "", 3},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			out := t.TempDir()
			outcomes, err := newTestRunner(t, FileSink{Dir: out}).Run(context.Background(), "quiz", c.src, ParseQuestions("all"))
			if err != nil {
				t.Fatalf("Run error: %v", err)
			}
			if len(outcomes) != 1 || outcomes[0].QuestionID != AllQuestions {
				t.Fatalf("outcomes = %+v; want one outcome for %q", outcomes, AllQuestions)
			}
			o := outcomes[0]
			if c.wantCode != "" {
				if o.Failure == nil || o.Failure.Code != c.wantCode {
					t.Fatalf("outcome %+v; want code %s", o, c.wantCode)
				}
			} else if o.Report == nil || o.Report.Summary.TotalComparisons != c.comparisons {
				t.Fatalf("outcome %+v; want a report with %d comparisons", o, c.comparisons)
			}
			if _, err := os.Stat(filepath.Join(out, ResultFileName(AllQuestions))); err != nil {
				t.Fatalf("expected a result document: %v", err)
			}
		})
	}
}

func TestRunInputErrors(t *testing.T) {
	cases := []struct {
		name string
		src  source.Source
		code string
	}{
		{"missing file", source.FileSource{Path: filepath.Join(t.TempDir(), "nope.json")}, CodeInputNotFound},
		{"invalid json", source.FileSource{Path: writeSubmissions(t, "{not json")}, CodeInputParse},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			outcomes, err := newTestRunner(t).Run(context.Background(), "quiz", c.src, []string{"1", "2"})
			if err != nil {
				t.Fatalf("Run error: %v", err)
			}
			if len(outcomes) != 2 {
				t.Fatalf("len(outcomes) = %d; want 2", len(outcomes))
			}
			for _, o := range outcomes {
				if o.Failure == nil || o.Failure.Code != c.code {
					t.Fatalf("outcome %+v; want code %s", o, c.code)
				}
			}
		})
	}
}

func TestRunCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := source.FileSource{Path: writeSubmissions(t, submissions)}
	if _, err := newTestRunner(t).Run(ctx, "quiz", src, []string{"1"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

type fakePutter struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func (f *fakePutter) PutJSON(ctx context.Context, bucket, key string, body []byte) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.objects == nil {
		f.objects = make(map[string][]byte)
	}
	f.objects[bucket+"/"+key] = body
	return nil
}

type fakeSaver struct {
	saved []string
}

func (f *fakeSaver) SaveReport(ctx context.Context, report *types.AnalysisReport) (string, error) {
	id := fmt.Sprintf("r%d", len(f.saved)+1)
	report.ID = id
	f.saved = append(f.saved, report.QuestionID)
	return id, nil
}

func TestRunSinks(t *testing.T) {
	putter := &fakePutter{}
	saver := &fakeSaver{}
	r := newTestRunner(t,
		StoreSink{Store: saver},
		S3Sink{Client: putter, Bucket: "exams", Prefix: "/reports/"},
	)
	src := source.FileSource{Path: writeSubmissions(t, submissions)}

	if _, err := r.Run(context.Background(), "quiz-7", src, []string{"1", "9"}); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if !reflect.DeepEqual(saver.saved, []string{"1"}) {
		t.Fatalf("saved = %v; want only question 1", saver.saved)
	}
	body, ok := putter.objects["exams/reports/quiz-7/results_q1.json"]
	if !ok {
		t.Fatalf("missing upload, have %v", putter.objects)
	}
	var report types.AnalysisReport
	if err := json.Unmarshal(body, &report); err != nil {
		t.Fatalf("decode upload: %v", err)
	}
	if report.ID != "r1" {
		t.Fatalf("uploaded report id = %q; want r1", report.ID)
	}
	if _, ok := putter.objects["exams/reports/quiz-7/results_q9.json"]; !ok {
		t.Fatalf("error documents should be uploaded too")
	}
}

func TestRunReportsSinkFailures(t *testing.T) {
	r := newTestRunner(t, S3Sink{Client: &fakePutter{err: errors.New("bucket gone")}, Bucket: "b"})
	src := source.FileSource{Path: writeSubmissions(t, submissions)}
	outcomes, err := r.Run(context.Background(), "quiz", src, []string{"1", "2"})
	if err == nil {
		t.Fatalf("expected sink error")
	}
	if len(outcomes) != 2 {
		t.Fatalf("every question should still run, got %d outcomes", len(outcomes))
	}
}

func TestErrorCode(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("x: %w", source.ErrInputNotFound), CodeInputNotFound},
		{fmt.Errorf("x: %w", source.ErrInputParse), CodeInputParse},
		{fmt.Errorf("question 1: %w", detection.ErrNoAnswers), CodeNoAnswers},
		{embedding.WrapProviderError("m", errors.New("boom")), CodeProvider},
		{&embedding.InvalidPoolingError{Pooling: "sum"}, CodeInvalidPooling},
		{errors.New("other"), CodeInternal},
	}
	for _, c := range cases {
		if got := ErrorCode(c.err); got != c.want {
			t.Fatalf("ErrorCode(%v) = %s; want %s", c.err, got, c.want)
		}
	}
}

func TestParseQuestions(t *testing.T) {
	cases := map[string][]string{
		"1,2,3":    {"1", "2", "3"},
		" 4 , ,5 ": {"4", "5"},
		"all":      nil,
		"":         nil,
		"q1":       {"q1"},
	}
	for in, want := range cases {
		if got := ParseQuestions(in); !reflect.DeepEqual(got, want) {
			t.Fatalf("ParseQuestions(%q) = %v; want %v", in, got, want)
		}
	}
}

func TestEncodeDocumentKeepsText(t *testing.T) {
	body, err := EncodeDocument(map[string]string{"text": "سلام <b>"})
	if err != nil {
		t.Fatalf("EncodeDocument error: %v", err)
	}
	if !strings.Contains(string(body), "سلام <b>") {
		t.Fatalf("text was escaped: %s", body)
	}
}
