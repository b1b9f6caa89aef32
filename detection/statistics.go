package detection

import (
	"regexp"
	"sort"

	"examguard/config"
	"examguard/types"
)

// Words are maximal runs of letters, digits and underscores.
var wordRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Words returns the word tokens of text in order. Case is preserved.
func Words(text string) []string {
	return wordRe.FindAllString(text, -1)
}

// ExtractStatistics computes word count, sentence count, average sentence
// length and the most frequent words of text.
func ExtractStatistics(text string) types.AnswerStatistics {
	words := Words(text)
	sentences := len(Segment(text))

	denom := sentences
	if denom < 1 {
		denom = 1
	}

	return types.AnswerStatistics{
		WordCount:         len(words),
		SentenceCount:     sentences,
		AvgSentenceLength: float64(len(words)) / float64(denom),
		TopWords:          topWords(words, config.TopWordsLimit),
	}
}

// topWords returns the limit most frequent words; ties keep first-occurrence order.
func topWords(words []string, limit int) []types.WordCount {
	counts := make(map[string]int, len(words))
	order := make([]string, 0)
	for _, w := range words {
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	out := make([]types.WordCount, len(order))
	for i, w := range order {
		out[i] = types.WordCount{Word: w, Count: counts[w]}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
