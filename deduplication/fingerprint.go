package deduplication

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strconv"
	"strings"

	sharedtypes "examguard/shared/types"
)

// Fingerprint hashes the fields that decide an analysis request's outcome.
// Requests differing only in question order, whitespace or the case of an
// s3:// scheme share a fingerprint.
func Fingerprint(req *sharedtypes.AnalysisRequest) string {
	parts := []string{
		strings.TrimSpace(req.RequestID),
		strings.TrimSpace(req.QuizID),
		normalizeInput(req.Input),
		strings.Join(normalizeQuestions(req.Questions), ","),
		strconv.FormatFloat(req.MinimumSimilarity, 'f', -1, 64),
		strconv.FormatFloat(req.SuspiciousThreshold, 'f', -1, 64),
	}
	h := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(h[:])
}

func normalizeInput(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) >= 5 && strings.EqualFold(raw[:5], "s3://") {
		return "s3://" + raw[5:]
	}
	return raw
}

// normalizeQuestions trims, drops blanks and duplicates, and sorts.
func normalizeQuestions(questions []string) []string {
	out := make([]string, 0, len(questions))
	for _, q := range questions {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
