package detection

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"examguard/embedding"
	"examguard/types"
)

// Scorer computes the pairwise similarity result for two answers.
type Scorer struct {
	provider embedding.Provider
	matcher  *Matcher
	cfg      Config
}

// NewScorer validates cfg (after defaults) and returns a Scorer.
func NewScorer(provider embedding.Provider, cfg Config) (*Scorer, error) {
	applyConfigDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detection config: %w", err)
	}
	return newScorer(provider, cfg), nil
}

func newScorer(provider embedding.Provider, cfg Config) *Scorer {
	return &Scorer{
		provider: provider,
		matcher:  NewMatcher(provider, cfg.ShortSegmentRunes),
		cfg:      cfg,
	}
}

// Config returns the effective configuration.
func (s *Scorer) Config() Config { return s.cfg }

type preparedAnswer struct {
	answer   types.StudentAnswer
	stats    types.AnswerStatistics
	segments []types.SentenceSegment
}

func prepare(a types.StudentAnswer) preparedAnswer {
	return preparedAnswer{
		answer:   a,
		stats:    ExtractStatistics(a.Text),
		segments: Segment(a.Text),
	}
}

// Score compares two answers to questionID. Each distinct (text, pooling)
// is embedded at most once per call. A blank answer embeds to the zero
// vector without a provider call, so its semantic similarity to anything is 0.
func (s *Scorer) Score(ctx context.Context, questionID string, a, b types.StudentAnswer) (types.PairwiseResult, error) {
	scorer := s
	if _, ok := s.provider.(*embedding.Memo); !ok {
		scorer = newScorer(embedding.NewMemo(s.provider), s.cfg)
	}
	return scorer.score(ctx, questionID, prepare(a), prepare(b))
}

func (s *Scorer) score(ctx context.Context, questionID string, a, b preparedAnswer) (types.PairwiseResult, error) {
	simCLS, err := s.answerSimilarity(ctx, a.answer.Text, b.answer.Text, embedding.PoolingCLS)
	if err != nil {
		return types.PairwiseResult{}, err
	}
	simMean, err := s.answerSimilarity(ctx, a.answer.Text, b.answer.Text, embedding.PoolingMean)
	if err != nil {
		return types.PairwiseResult{}, err
	}
	semantic := (simCLS + simMean) / 2

	matches, err := s.matcher.MatchSegments(ctx, a.segments, b.segments, s.cfg.MinSimilarity)
	if err != nil {
		return types.PairwiseResult{}, err
	}
	segment := 0.0
	if len(matches) > 0 {
		total := 0.0
		for _, m := range matches {
			total += m.Similarity
		}
		segment = total / float64(len(matches))
	}

	wordRatio := lengthRatio(float64(a.stats.WordCount), float64(b.stats.WordCount))
	sentenceRatio := lengthRatio(a.stats.AvgSentenceLength, b.stats.AvgSentenceLength)
	stats := (wordRatio + sentenceRatio) / 2

	final := s.cfg.SemanticWeight*semantic + s.cfg.SegmentWeight*segment + s.cfg.StatsWeight*stats

	located := make([]types.MatchingSegment, len(matches))
	for i, m := range matches {
		located[i] = types.MatchingSegment{
			QuestionID:           questionID,
			Segment1:             locate(a.answer.Text, m.Segment1),
			Segment2:             locate(b.answer.Text, m.Segment2),
			Similarity:           round(m.Similarity, 4),
			SimilarityPercentage: round(m.Similarity*100, 2),
		}
	}

	return types.PairwiseResult{
		StudentPair: types.StudentPair{
			Student1ID: a.answer.StudentID,
			Student2ID: b.answer.StudentID,
		},
		SimilarityScores: types.SimilarityScores{
			CLS:      round(simCLS, 4),
			Mean:     round(simMean, 4),
			Semantic: round(semantic, 4),
			Segment:  round(segment, 4),
			Stats:    round(stats, 4),
			Final:    round(final, 4),
		},
		TextStatisticsSimilarity: types.TextStatisticsSimilarity{
			WordCountRatio:      round(wordRatio, 2),
			SentenceLengthRatio: round(sentenceRatio, 2),
		},
		MatchingSegments:     located,
		MatchingSegmentCount: len(located),
		OverallRiskLevel:     s.cfg.Classify(final),
		Confidence:           s.cfg.Confidence(final),
	}, nil
}

func (s *Scorer) answerSimilarity(ctx context.Context, a, b string, pooling embedding.Pooling) (float64, error) {
	va, err := embedText(ctx, s.provider, a, pooling)
	if err != nil {
		return 0, err
	}
	vb, err := embedText(ctx, s.provider, b, pooling)
	if err != nil {
		return 0, err
	}
	return embedding.Cosine(va, vb), nil
}

// Classify maps a final score to a risk tier.
func (c Config) Classify(final float64) types.RiskLevel {
	switch {
	case final >= c.SuspiciousThreshold:
		return types.RiskHigh
	case final >= c.MinSimilarity:
		return types.RiskMedium
	}
	return types.RiskLow
}

// Confidence is the distance of the score from the minimum threshold,
// normalised by the threshold band and clamped to [0.5, 1].
func (c Config) Confidence(final float64) float64 {
	band := math.Max(0.01, c.SuspiciousThreshold-c.MinSimilarity)
	v := math.Abs(final-c.MinSimilarity) / band
	return round(math.Max(0.5, math.Min(1.0, v)), 2)
}

// lengthRatio is min(x, y) / max(1, max(x, y)).
func lengthRatio(x, y float64) float64 {
	return math.Min(x, y) / math.Max(1, math.Max(x, y))
}

// locate finds the first occurrence of seg in answer and returns its
// character span, or -1/-1 when absent.
func locate(answer string, seg types.SentenceSegment) types.LocatedSegment {
	out := types.LocatedSegment{Text: seg.Text, Index: seg.Index, StartIndex: -1, EndIndex: -1}
	idx := strings.Index(answer, seg.Text)
	if idx < 0 {
		return out
	}
	out.StartIndex = utf8.RuneCountInString(answer[:idx])
	out.EndIndex = out.StartIndex + utf8.RuneCountInString(seg.Text)
	return out
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
