package detection

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"examguard/config"
	"examguard/embedding"
	"examguard/types"
)

func newTestBuilder(t *testing.T, provider embedding.Provider) *Builder {
	t.Helper()
	b, err := NewBuilder(provider, Config{Clock: fixedClock, Workers: 4})
	if err != nil {
		t.Fatalf("NewBuilder error: %v", err)
	}
	return b
}

func TestBuildNearDuplicatePair(t *testing.T) {
	b := newTestBuilder(t, &stubProvider{})
	answers := []types.StudentAnswer{
		{StudentID: "s1", Text: answerPhotosynthesis},
		{StudentID: "s2", Text: answerPhotosynthesisCopy},
		{StudentID: "s3", Text: answerRevolution},
	}

	report, err := b.Build(context.Background(), "quiz-1", "2", answers)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}

	if len(report.AnalysisResults) != 3 {
		t.Fatalf("len(results) = %d; want 3", len(report.AnalysisResults))
	}
	top := report.AnalysisResults[0]
	if top.StudentPair != (types.StudentPair{Student1ID: "s1", Student2ID: "s2"}) {
		t.Fatalf("top pair = %+v; want s1/s2", top.StudentPair)
	}
	if top.OverallRiskLevel != types.RiskHigh && top.OverallRiskLevel != types.RiskMedium {
		t.Fatalf("top pair risk = %s; want HIGH or MEDIUM", top.OverallRiskLevel)
	}
	for _, r := range report.AnalysisResults[1:] {
		if r.StudentPair.Student2ID != "s3" {
			t.Fatalf("pairs with s3 should rank lowest, got %+v", r.StudentPair)
		}
		if r.OverallRiskLevel != types.RiskLow {
			t.Fatalf("pair %+v risk = %s; want LOW", r.StudentPair, r.OverallRiskLevel)
		}
	}
	if report.Summary.HighestSimilarity != top.SimilarityScores.Final {
		t.Fatalf("highest similarity = %f; want %f", report.Summary.HighestSimilarity, top.SimilarityScores.Final)
	}
	if report.Summary.TotalComparisons != 3 || report.Summary.LowRiskCount != 2 {
		t.Fatalf("unexpected summary %+v", report.Summary)
	}
	if report.Summary.HighRiskCount+report.Summary.MediumRiskCount != 1 {
		t.Fatalf("unexpected summary %+v", report.Summary)
	}
}

func TestBuildMetadata(t *testing.T) {
	b := newTestBuilder(t, &stubProvider{})
	report, err := b.Build(context.Background(), "quiz", "7", []types.StudentAnswer{
		{StudentID: "a", Text: "One answer."},
		{StudentID: "b", Text: "Another answer."},
	})
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if report.QuizID != "quiz" || report.QuestionID != "7" {
		t.Fatalf("ids = %s/%s", report.QuizID, report.QuestionID)
	}
	if !report.Timestamp.Equal(fixedClock()) {
		t.Fatalf("timestamp = %v; want %v", report.Timestamp, fixedClock())
	}
	meta := report.AnalysisMetadata
	if meta.AlgorithmVersion != config.AlgorithmVersion || meta.ModelUsed != "stub-bow" {
		t.Fatalf("unexpected metadata %+v", meta)
	}
	if meta.ThresholdSettings.MinimumSimilarity != 0.7 || meta.ThresholdSettings.SuspiciousThreshold != 0.85 {
		t.Fatalf("unexpected thresholds %+v", meta.ThresholdSettings)
	}
	if meta.Weighting != (types.Weighting{SemanticWeight: 0.6, SegmentWeight: 0.3, StatsWeight: 0.1}) {
		t.Fatalf("unexpected weighting %+v", meta.Weighting)
	}
	if len(report.StudentStatistics) != 2 || report.StudentStatistics[0].StudentID != "a" {
		t.Fatalf("unexpected student statistics %+v", report.StudentStatistics)
	}
}

func TestBuildPairCountAndOrdering(t *testing.T) {
	texts := []string{
		answerPhotosynthesis,
		answerPhotosynthesisCopy,
		answerRevolution,
		"Mitochondria produce ATP through cellular respiration in eukaryotic cells.",
		"",
		answerPhotosynthesis,
	}
	for n := 1; n <= len(texts); n++ {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			answers := make([]types.StudentAnswer, n)
			for i := 0; i < n; i++ {
				answers[i] = types.StudentAnswer{StudentID: fmt.Sprintf("s%d", i+1), Text: texts[i]}
			}
			report, err := newTestBuilder(t, &stubProvider{}).Build(context.Background(), "q", "1", answers)
			if err != nil {
				t.Fatalf("Build error: %v", err)
			}
			want := n * (n - 1) / 2
			if len(report.AnalysisResults) != want {
				t.Fatalf("len(results) = %d; want %d", len(report.AnalysisResults), want)
			}
			s := report.Summary
			if s.TotalComparisons != want || s.HighRiskCount+s.MediumRiskCount+s.LowRiskCount != want {
				t.Fatalf("summary counts inconsistent: %+v", s)
			}
			for i := 1; i < len(report.AnalysisResults); i++ {
				if report.AnalysisResults[i].SimilarityScores.Final > report.AnalysisResults[i-1].SimilarityScores.Final {
					t.Fatalf("results not sorted at %d", i)
				}
			}
			for _, r := range report.AnalysisResults {
				if f := r.SimilarityScores.Final; f < 0 || f > 1 {
					t.Fatalf("final score out of range: %f", f)
				}
			}
			if n == 1 && s.HighestSimilarity != 0 {
				t.Fatalf("highest similarity for a single answer = %f; want 0", s.HighestSimilarity)
			}
		})
	}
}

func TestBuildStableOnTies(t *testing.T) {
	// Every pair of identical answers scores exactly 1.
	answers := []types.StudentAnswer{
		{StudentID: "a", Text: "Same words here."},
		{StudentID: "b", Text: "Same words here."},
		{StudentID: "c", Text: "Same words here."},
	}
	report, err := newTestBuilder(t, &stubProvider{}).Build(context.Background(), "q", "1", answers)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	want := []types.StudentPair{
		{Student1ID: "a", Student2ID: "b"},
		{Student1ID: "a", Student2ID: "c"},
		{Student1ID: "b", Student2ID: "c"},
	}
	for i, r := range report.AnalysisResults {
		if r.StudentPair != want[i] {
			t.Fatalf("result %d pair = %+v; want %+v", i, r.StudentPair, want[i])
		}
	}
}

func TestBuildDeterministic(t *testing.T) {
	answers := []types.StudentAnswer{
		{StudentID: "s1", Text: answerPhotosynthesis},
		{StudentID: "s2", Text: answerPhotosynthesisCopy},
		{StudentID: "s3", Text: answerRevolution},
		{StudentID: "s4", Text: "Plants make food from light. They release oxygen."},
	}
	b := newTestBuilder(t, &stubProvider{})
	first, err := b.Build(context.Background(), "q", "1", answers)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	second, err := b.Build(context.Background(), "q", "1", answers)
	if err != nil {
		t.Fatalf("Build error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("reports differ between runs")
	}
}

func TestBuildMemoizesEmbeddings(t *testing.T) {
	provider := &stubProvider{}
	answers := []types.StudentAnswer{
		{StudentID: "a", Text: answerPhotosynthesis},
		{StudentID: "b", Text: answerPhotosynthesis},
		{StudentID: "c", Text: answerPhotosynthesis},
	}
	if _, err := newTestBuilder(t, provider).Build(context.Background(), "q", "1", answers); err != nil {
		t.Fatalf("Build error: %v", err)
	}
	// cls + mean of the answer, plus mean of its two long sentences.
	if got := provider.calls.Load(); got != 4 {
		t.Fatalf("provider calls = %d; want 4", got)
	}
}

func TestStandaloneMatchAndScoreMemoize(t *testing.T) {
	provider := &stubProvider{}
	if _, err := NewMatcher(provider, 0).Match(context.Background(), answerPhotosynthesis, answerPhotosynthesisCopy, 0.7); err != nil {
		t.Fatalf("Match error: %v", err)
	}
	// Three distinct long sentences across both answers.
	if got := provider.calls.Load(); got != 3 {
		t.Fatalf("Match provider calls = %d; want 3", got)
	}

	cases := []struct {
		name string
		b    string
		want int64
	}{
		// cls + mean of the answer, plus mean of its two long sentences.
		{"identical", answerPhotosynthesis, 4},
		// cls + mean of both answers, plus three distinct long sentences.
		{"near copy", answerPhotosynthesisCopy, 7},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			provider := &stubProvider{}
			s := newTestScorer(t, provider)
			a := types.StudentAnswer{StudentID: "a", Text: answerPhotosynthesis}
			b := types.StudentAnswer{StudentID: "b", Text: c.b}
			if _, err := s.Score(context.Background(), "1", a, b); err != nil {
				t.Fatalf("Score error: %v", err)
			}
			if got := provider.calls.Load(); got != c.want {
				t.Fatalf("Score provider calls = %d; want %d", got, c.want)
			}
		})
	}
}

func TestBuildErrors(t *testing.T) {
	b := newTestBuilder(t, &stubProvider{})

	if _, err := b.Build(context.Background(), "q", "1", nil); !errors.Is(err, ErrNoAnswers) {
		t.Fatalf("expected ErrNoAnswers, got %v", err)
	}

	dup := []types.StudentAnswer{{StudentID: "x", Text: "a"}, {StudentID: "x", Text: "b"}}
	if _, err := b.Build(context.Background(), "q", "1", dup); !errors.Is(err, ErrDuplicateStudent) {
		t.Fatalf("expected ErrDuplicateStudent, got %v", err)
	}

	failing := newTestBuilder(t, &stubProvider{err: errors.New("gpu on fire")})
	answers := []types.StudentAnswer{{StudentID: "a", Text: "first"}, {StudentID: "b", Text: "second"}}
	if _, err := failing.Build(context.Background(), "q", "1", answers); !errors.Is(err, embedding.ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}
}

func TestBuildCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	answers := []types.StudentAnswer{{StudentID: "a", Text: "first"}, {StudentID: "b", Text: "second"}}
	if _, err := newTestBuilder(t, &stubProvider{}).Build(ctx, "q", "1", answers); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWithThresholds(t *testing.T) {
	b := newTestBuilder(t, &stubProvider{})
	custom, err := b.WithThresholds(0.5, 0)
	if err != nil {
		t.Fatalf("WithThresholds error: %v", err)
	}
	if custom.Config().MinSimilarity != 0.5 || custom.Config().SuspiciousThreshold != 0.85 {
		t.Fatalf("unexpected config %+v", custom.Config())
	}
	if _, err := b.WithThresholds(0.9, 0.8); err == nil {
		t.Fatalf("expected error when suspicious < minimum")
	}
}
