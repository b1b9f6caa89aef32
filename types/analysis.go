package types

import "time"

// RiskLevel is the collusion risk tier assigned to a student pair.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// StudentAnswer is one student's free-text answer to a single question.
type StudentAnswer struct {
	StudentID string `json:"student_id"`
	Text      string `json:"text"`
}

// SentenceSegment is one sentence of an answer. Index is 0-based and
// contiguous within the parent answer.
type SentenceSegment struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// SegmentMatch records a sentence pair whose similarity reached the
// minimum threshold.
type SegmentMatch struct {
	Segment1   SentenceSegment `json:"segment1"`
	Segment2   SentenceSegment `json:"segment2"`
	Similarity float64         `json:"similarity"`
}

// WordCount is a (word, occurrences) entry of the top-words list.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// AnswerStatistics holds shallow lexical statistics of one answer.
type AnswerStatistics struct {
	WordCount         int         `json:"word_count"`
	SentenceCount     int         `json:"sentence_count"`
	AvgSentenceLength float64     `json:"avg_sentence_length"`
	TopWords          []WordCount `json:"most_common_words"`
}

// StudentPair identifies the two students of a pairwise comparison.
type StudentPair struct {
	Student1ID string `json:"student1_id"`
	Student2ID string `json:"student2_id"`
}

// SimilarityScores carries the sub-scores of a pairwise comparison.
// CLS, Mean and Final are rounded to 4 decimals, as are the component scores.
type SimilarityScores struct {
	CLS      float64 `json:"cls_similarity"`
	Mean     float64 `json:"mean_similarity"`
	Semantic float64 `json:"semantic_similarity"`
	Segment  float64 `json:"segment_similarity"`
	Stats    float64 `json:"stats_similarity"`
	Final    float64 `json:"final_score"`
}

// TextStatisticsSimilarity holds the statistics ratios rounded to 2 decimals.
type TextStatisticsSimilarity struct {
	WordCountRatio      float64 `json:"word_count_ratio"`
	SentenceLengthRatio float64 `json:"sentence_length_ratio"`
}

// LocatedSegment is a matched sentence together with its character span in
// the parent answer. StartIndex and EndIndex are -1 when the text could not
// be located.
type LocatedSegment struct {
	Text       string `json:"text"`
	Index      int    `json:"index"`
	StartIndex int    `json:"start_index"`
	EndIndex   int    `json:"end_index"`
}

// MatchingSegment is the report form of a SegmentMatch.
type MatchingSegment struct {
	QuestionID           string         `json:"question_id"`
	Segment1             LocatedSegment `json:"segment1"`
	Segment2             LocatedSegment `json:"segment2"`
	Similarity           float64        `json:"similarity"`
	SimilarityPercentage float64        `json:"similarity_percentage"`
}

// PairwiseResult is the full comparison outcome for one unordered pair.
type PairwiseResult struct {
	StudentPair              StudentPair              `json:"student_pair"`
	SimilarityScores         SimilarityScores         `json:"similarity_scores"`
	TextStatisticsSimilarity TextStatisticsSimilarity `json:"text_statistics_similarity"`
	MatchingSegments         []MatchingSegment        `json:"matching_segments"`
	MatchingSegmentCount     int                      `json:"matching_segment_count"`
	OverallRiskLevel         RiskLevel                `json:"overall_risk_level"`
	Confidence               float64                  `json:"confidence"`
}

// Summary tallies the results of one report.
type Summary struct {
	TotalComparisons  int     `json:"total_comparisons"`
	HighRiskCount     int     `json:"high_risk_count"`
	MediumRiskCount   int     `json:"medium_risk_count"`
	LowRiskCount      int     `json:"low_risk_count"`
	HighestSimilarity float64 `json:"highest_similarity"`
}

type ThresholdSettings struct {
	MinimumSimilarity   float64 `json:"minimum_similarity"`
	SuspiciousThreshold float64 `json:"suspicious_threshold"`
}

type Weighting struct {
	SemanticWeight float64 `json:"semantic_weight"`
	SegmentWeight  float64 `json:"segment_weight"`
	StatsWeight    float64 `json:"stats_weight"`
}

// AnalysisMetadata describes the algorithm configuration that produced a report.
type AnalysisMetadata struct {
	AlgorithmVersion  string            `json:"algorithm_version"`
	ModelUsed         string            `json:"model_used"`
	ThresholdSettings ThresholdSettings `json:"threshold_settings"`
	Weighting         Weighting         `json:"weighting"`
}

// StudentStatistics pairs a student with the statistics of their answer.
type StudentStatistics struct {
	StudentID  string           `json:"student_id"`
	Statistics AnswerStatistics `json:"statistics"`
}

// AnalysisReport is the output document for one (quiz, question).
type AnalysisReport struct {
	ID                string              `json:"id,omitempty"`
	QuizID            string              `json:"quiz_id"`
	QuestionID        string              `json:"question_id"`
	Timestamp         time.Time           `json:"timestamp"`
	Summary           Summary             `json:"summary"`
	AnalysisResults   []PairwiseResult    `json:"analysis_results"`
	AnalysisMetadata  AnalysisMetadata    `json:"analysis_metadata"`
	StudentStatistics []StudentStatistics `json:"student_statistics,omitempty"`
}
