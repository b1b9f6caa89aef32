package detection

import (
	"context"
	"hash/fnv"
	"strings"
	"sync/atomic"
	"time"

	"examguard/embedding"
)

const stubDims = 256

// stubProvider embeds text as a hashed bag of lowercase words, so identical
// texts get identical vectors and unrelated texts are near-orthogonal.
type stubProvider struct {
	calls atomic.Int64
	err   error
}

func (s *stubProvider) Embed(ctx context.Context, text string, pooling embedding.Pooling) (embedding.Vector, error) {
	s.calls.Add(1)
	if s.err != nil {
		return embedding.Vector{}, s.err
	}
	if !pooling.Valid() {
		return embedding.Vector{}, &embedding.InvalidPoolingError{Pooling: string(pooling)}
	}
	vec := make([]float32, stubDims)
	for _, w := range Words(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		vec[h.Sum32()%stubDims]++
	}
	return embedding.Vector{Values: vec, Pooling: pooling}, nil
}

func (s *stubProvider) ModelName() string { return "stub-bow" }
func (s *stubProvider) Close() error      { return nil }

func fixedClock() time.Time {
	return time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
}

const (
	answerPhotosynthesis = "Photosynthesis converts light energy into chemical energy inside the chloroplasts of plant cells. " +
		"Oxygen is released as a by-product of splitting water molecules."
	answerPhotosynthesisCopy = "Photosynthesis converts light energy into chemical energy within the chloroplasts of plant cells. " +
		"Oxygen is released as a by-product of splitting water molecules."
	answerRevolution = "The French Revolution began in 1789 and reshaped European politics for decades afterwards."
)
