package config

import "time"

// Thresholds
const (
	// MinimumSimilarity is the lower bound for a segment match and the MEDIUM tier
	MinimumSimilarity = 0.7

	// SuspiciousThreshold is the lower bound for the HIGH tier
	SuspiciousThreshold = 0.85
)

// Weighting of the aggregate score
const (
	SemanticWeight = 0.6
	SegmentWeight  = 0.3
	StatsWeight    = 0.1
)

// Segment matching
const (
	// ShortSegmentRunes is the length (in characters) under which a sentence
	// pair is compared lexically instead of by embeddings
	ShortSegmentRunes = 50

	// TopWordsLimit caps the most-frequent-words list of a statistics record
	TopWordsLimit = 5
)

// Report metadata
const (
	AlgorithmVersion = "Enhanced-Embedding-v2"

	// DefaultModelName is the model recorded when the provider does not name one
	DefaultModelName = "HooshvareLab/bert-base-parsbert-uncased"
)

// Embedding backends
const (
	// MaxSequenceTokens is the truncation length for local transformer inference
	MaxSequenceTokens = 512

	// EmbeddingRequestTimeout bounds a single hosted embedding call
	EmbeddingRequestTimeout = 60 * time.Second

	// EmbeddingCacheTTL is the default lifetime of cached vectors in Redis
	EmbeddingCacheTTL = 7 * 24 * time.Hour
)

// Batch output
const (
	// ResultFilePattern names the per-question output document
	ResultFilePattern = "results_q%s.json"

	// DefaultQuestions are analysed when no question list is given
	DefaultQuestions = "1,2,3"

	// DefaultQuizID labels reports when the caller names no quiz
	DefaultQuizID = "test_quiz_2025"

	// DefaultInputFile is the submission document read by the batch CLI
	DefaultInputFile = "result.json"
)
