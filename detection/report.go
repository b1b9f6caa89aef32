package detection

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"examguard/config"
	"examguard/embedding"
	"examguard/types"

	"golang.org/x/sync/errgroup"
)

// Builder assembles an AnalysisReport from one question's answers.
type Builder struct {
	provider embedding.Provider
	cfg      Config
}

// NewBuilder validates cfg (after defaults) and returns a Builder.
// The provider is shared across builds and is not closed by the Builder.
func NewBuilder(provider embedding.Provider, cfg Config) (*Builder, error) {
	applyConfigDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detection config: %w", err)
	}
	return &Builder{provider: provider, cfg: cfg}, nil
}

// Config returns the effective configuration.
func (b *Builder) Config() Config { return b.cfg }

// WithThresholds returns a Builder sharing the provider with overridden
// thresholds. Zero values keep the current setting.
func (b *Builder) WithThresholds(minSimilarity, suspicious float64) (*Builder, error) {
	cfg := b.cfg
	if minSimilarity != 0 {
		cfg.MinSimilarity = minSimilarity
	}
	if suspicious != 0 {
		cfg.SuspiciousThreshold = suspicious
	}
	return NewBuilder(b.provider, cfg)
}

// Scorer returns a Scorer with the Builder's configuration.
func (b *Builder) Scorer() *Scorer {
	return newScorer(b.provider, b.cfg)
}

// Matcher returns a segment Matcher over the Builder's provider.
func (b *Builder) Matcher() *Matcher {
	return NewMatcher(b.provider, b.cfg.ShortSegmentRunes)
}

// ModelName reports the model recorded in report metadata.
func (b *Builder) ModelName() string {
	if name := b.provider.ModelName(); name != "" {
		return name
	}
	return config.DefaultModelName
}

// Build compares every unordered pair of answers, in input order, and
// returns the report sorted by final score (descending, stable).
func (b *Builder) Build(ctx context.Context, quizID, questionID string, answers []types.StudentAnswer) (*types.AnalysisReport, error) {
	if len(answers) == 0 {
		return nil, fmt.Errorf("question %s: %w", questionID, ErrNoAnswers)
	}
	seen := make(map[string]struct{}, len(answers))
	for _, a := range answers {
		if _, ok := seen[a.StudentID]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateStudent, a.StudentID)
		}
		seen[a.StudentID] = struct{}{}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	memo := embedding.NewMemo(b.provider)
	scorer := newScorer(memo, b.cfg)

	prepared := make([]preparedAnswer, len(answers))
	for i, a := range answers {
		prepared[i] = prepare(a)
	}

	if err := b.warm(ctx, memo, scorer.matcher, prepared); err != nil {
		return nil, err
	}

	type pair struct{ i, j int }
	pairs := make([]pair, 0, len(answers)*(len(answers)-1)/2)
	for i := 0; i < len(prepared); i++ {
		for j := i + 1; j < len(prepared); j++ {
			pairs = append(pairs, pair{i, j})
		}
	}

	results := make([]types.PairwiseResult, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Workers)
	for k, p := range pairs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := scorer.score(gctx, questionID, prepared[p.i], prepared[p.j])
			if err != nil {
				return fmt.Errorf("failed to score %s/%s: %w", prepared[p.i].answer.StudentID, prepared[p.j].answer.StudentID, err)
			}
			results[k] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].SimilarityScores.Final > results[j].SimilarityScores.Final
	})

	summary := types.Summary{TotalComparisons: len(results)}
	for _, r := range results {
		switch r.OverallRiskLevel {
		case types.RiskHigh:
			summary.HighRiskCount++
		case types.RiskMedium:
			summary.MediumRiskCount++
		default:
			summary.LowRiskCount++
		}
	}
	if len(results) > 0 {
		summary.HighestSimilarity = round(results[0].SimilarityScores.Final, 4)
	}

	studentStats := make([]types.StudentStatistics, len(prepared))
	for i, p := range prepared {
		studentStats[i] = types.StudentStatistics{StudentID: p.answer.StudentID, Statistics: p.stats}
	}

	log.Printf("Question %s: %d comparisons (%d high, %d medium, %d low), %d unique embeddings",
		questionID, summary.TotalComparisons, summary.HighRiskCount, summary.MediumRiskCount, summary.LowRiskCount, memo.Len())

	return &types.AnalysisReport{
		QuizID:          quizID,
		QuestionID:      questionID,
		Timestamp:       b.cfg.Clock().UTC(),
		Summary:         summary,
		AnalysisResults: results,
		AnalysisMetadata: types.AnalysisMetadata{
			AlgorithmVersion: config.AlgorithmVersion,
			ModelUsed:        b.ModelName(),
			ThresholdSettings: types.ThresholdSettings{
				MinimumSimilarity:   b.cfg.MinSimilarity,
				SuspiciousThreshold: b.cfg.SuspiciousThreshold,
			},
			Weighting: types.Weighting{
				SemanticWeight: b.cfg.SemanticWeight,
				SegmentWeight:  b.cfg.SegmentWeight,
				StatsWeight:    b.cfg.StatsWeight,
			},
		},
		StudentStatistics: studentStats,
	}, nil
}

type embedRequest struct {
	text    string
	pooling embedding.Pooling
}

// warm fills the memo with every embedding the pairwise pass will need,
// one provider call per unique (text, pooling).
func (b *Builder) warm(ctx context.Context, memo *embedding.Memo, matcher *Matcher, prepared []preparedAnswer) error {
	if len(prepared) < 2 {
		return nil
	}

	seen := make(map[embedRequest]struct{})
	requests := make([]embedRequest, 0)
	add := func(text string, pooling embedding.Pooling) {
		if strings.TrimSpace(text) == "" {
			return
		}
		r := embedRequest{text: text, pooling: pooling}
		if _, ok := seen[r]; ok {
			return
		}
		seen[r] = struct{}{}
		requests = append(requests, r)
	}

	withLong := 0
	long := make([][]string, len(prepared))
	for i, p := range prepared {
		for _, s := range p.segments {
			if !matcher.IsShort(s.Text) {
				long[i] = append(long[i], s.Text)
			}
		}
		if len(long[i]) > 0 {
			withLong++
		}
	}

	for i, p := range prepared {
		add(p.answer.Text, embedding.PoolingCLS)
		add(p.answer.Text, embedding.PoolingMean)
		// Long sentences are embedded only when another answer has one too.
		if len(long[i]) > 0 && withLong > 1 {
			for _, s := range long[i] {
				add(s, embedding.PoolingMean)
			}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Workers)
	for _, r := range requests {
		g.Go(func() error {
			_, err := embedText(gctx, memo, r.text, r.pooling)
			return err
		})
	}
	return g.Wait()
}
