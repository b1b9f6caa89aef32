package detection

import (
	"math"
	"reflect"
	"testing"

	"examguard/types"
)

func TestExtractStatistics(t *testing.T) {
	stats := ExtractStatistics("the cat and the dog. The cat ran!")

	if stats.WordCount != 8 {
		t.Fatalf("WordCount = %d; want 8", stats.WordCount)
	}
	if stats.SentenceCount != 2 {
		t.Fatalf("SentenceCount = %d; want 2", stats.SentenceCount)
	}
	if stats.AvgSentenceLength != 4 {
		t.Fatalf("AvgSentenceLength = %f; want 4", stats.AvgSentenceLength)
	}

	want := []types.WordCount{
		{Word: "the", Count: 2},
		{Word: "cat", Count: 2},
		{Word: "and", Count: 1},
		{Word: "dog", Count: 1},
		{Word: "The", Count: 1},
	}
	if !reflect.DeepEqual(stats.TopWords, want) {
		t.Fatalf("TopWords = %v; want %v", stats.TopWords, want)
	}
}

func TestExtractStatisticsEmpty(t *testing.T) {
	stats := ExtractStatistics("   ")
	if stats.WordCount != 0 || stats.SentenceCount != 0 || stats.AvgSentenceLength != 0 {
		t.Fatalf("expected zero statistics, got %+v", stats)
	}
	if len(stats.TopWords) != 0 {
		t.Fatalf("expected no top words, got %v", stats.TopWords)
	}
}

func TestExtractStatisticsUnicodeWords(t *testing.T) {
	stats := ExtractStatistics("نور خورشید به گیاه می رسد. snake_case 42")
	if stats.WordCount != 8 {
		t.Fatalf("WordCount = %d; want 8", stats.WordCount)
	}
	if stats.SentenceCount != 2 {
		t.Fatalf("SentenceCount = %d; want 2", stats.SentenceCount)
	}
	if math.Abs(stats.AvgSentenceLength-4) > 1e-9 {
		t.Fatalf("AvgSentenceLength = %f; want 4", stats.AvgSentenceLength)
	}
}

func TestTopWordsLimit(t *testing.T) {
	got := topWords(Words("a b c d e f g a"), 5)
	if len(got) != 5 {
		t.Fatalf("len(topWords) = %d; want 5", len(got))
	}
	if got[0].Word != "a" || got[0].Count != 2 {
		t.Fatalf("most common = %+v; want a x2", got[0])
	}
	if got[4].Word != "e" {
		t.Fatalf("ties should keep first occurrence order, got %v", got)
	}
}

func TestSequenceRatio(t *testing.T) {
	cases := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "abcd", "abcd", 1},
		{"disjoint", "abc", "xyz", 0},
		{"half", "abcd", "abxy", 0.5},
		{"both empty", "", "", 1},
		{"one empty", "abc", "", 0},
		{"multibyte counted as characters", "سلام", "سلام", 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := SequenceRatio(c.a, c.b)
			if math.Abs(got-c.want) > 1e-9 {
				t.Fatalf("SequenceRatio(%q, %q) = %f; want %f", c.a, c.b, got, c.want)
			}
		})
	}
}
