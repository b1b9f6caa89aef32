package detection

import (
	"context"
	"strings"
	"unicode/utf8"

	"examguard/config"
	"examguard/embedding"
	"examguard/types"
)

// Matcher finds similar sentence pairs between two answers.
type Matcher struct {
	provider   embedding.Provider
	shortRunes int
}

// NewMatcher creates a Matcher. shortRunes <= 0 uses config.ShortSegmentRunes.
func NewMatcher(provider embedding.Provider, shortRunes int) *Matcher {
	if shortRunes <= 0 {
		shortRunes = config.ShortSegmentRunes
	}
	return &Matcher{provider: provider, shortRunes: shortRunes}
}

// Match segments both texts and returns every sentence pair whose
// similarity is at least minSimilarity, ordered by (i, j).
func (m *Matcher) Match(ctx context.Context, textA, textB string, minSimilarity float64) ([]types.SegmentMatch, error) {
	return m.MatchSegments(ctx, Segment(textA), Segment(textB), minSimilarity)
}

// MatchSegments is Match over already segmented answers. Each distinct
// sentence is embedded at most once per call.
func (m *Matcher) MatchSegments(ctx context.Context, segsA, segsB []types.SentenceSegment, minSimilarity float64) ([]types.SegmentMatch, error) {
	if _, ok := m.provider.(*embedding.Memo); !ok {
		m = &Matcher{provider: embedding.NewMemo(m.provider), shortRunes: m.shortRunes}
	}
	matches := make([]types.SegmentMatch, 0)
	for _, a := range segsA {
		for _, b := range segsB {
			sim, err := m.Similarity(ctx, a.Text, b.Text)
			if err != nil {
				return nil, err
			}
			if sim >= minSimilarity {
				matches = append(matches, types.SegmentMatch{
					Segment1:   a,
					Segment2:   b,
					Similarity: sim,
				})
			}
		}
	}
	return matches, nil
}

// Similarity compares two sentences: lexically when either is short,
// otherwise by cosine of mean-pooled embeddings.
func (m *Matcher) Similarity(ctx context.Context, a, b string) (float64, error) {
	if m.IsShort(a) || m.IsShort(b) {
		return SequenceRatio(a, b), nil
	}
	va, err := embedText(ctx, m.provider, a, embedding.PoolingMean)
	if err != nil {
		return 0, err
	}
	vb, err := embedText(ctx, m.provider, b, embedding.PoolingMean)
	if err != nil {
		return 0, err
	}
	return embedding.Cosine(va, vb), nil
}

// IsShort reports whether a sentence is below the embedding length gate.
func (m *Matcher) IsShort(sentence string) bool {
	return utf8.RuneCountInString(sentence) < m.shortRunes
}

// embedText embeds text, treating blank text as the zero vector so empty
// answers never reach the provider.
func embedText(ctx context.Context, provider embedding.Provider, text string, pooling embedding.Pooling) (embedding.Vector, error) {
	if strings.TrimSpace(text) == "" {
		return embedding.Vector{Pooling: pooling}, nil
	}
	vec, err := provider.Embed(ctx, text, pooling)
	if err != nil {
		return embedding.Vector{}, embedding.WrapProviderError(provider.ModelName(), err)
	}
	return vec, nil
}
