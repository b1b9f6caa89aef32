package detection

import (
	"regexp"
	"strings"

	"examguard/types"
)

// A run of terminal punctuation followed by spaces or newlines ends a sentence.
var sentenceEndRe = regexp.MustCompile(`([!.?⸮؟]+)[ \n]+`)

// Segment splits text into trimmed, non-empty sentences indexed from 0.
// Blank lines also separate sentences; single newlines inside a sentence
// become spaces.
func Segment(text string) []types.SentenceSegment {
	marked := sentenceEndRe.ReplaceAllString(text, "$1\n\n")

	segments := make([]types.SentenceSegment, 0)
	for _, piece := range strings.Split(marked, "\n\n") {
		sentence := strings.TrimSpace(strings.ReplaceAll(piece, "\n", " "))
		if sentence == "" {
			continue
		}
		segments = append(segments, types.SentenceSegment{
			Index: len(segments),
			Text:  sentence,
		})
	}
	return segments
}
