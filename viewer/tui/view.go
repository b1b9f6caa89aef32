package tui

import (
	"fmt"
	"strings"

	"examguard/types"
)

const segmentPreviewRunes = 120

// View implements tea.Model interface
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(TextTitle))
	b.WriteString("\n\n")

	switch m.State {
	case StateLoading:
		b.WriteString(StatusStyle.Render(TextLoading))
		b.WriteString("\n")
		return b.String()
	case StateError:
		errMsg := "Unknown error"
		if m.Err != nil {
			errMsg = m.Err.Error()
		}
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("❌ Error: %v", errMsg)))
		b.WriteString("\n\n")
		b.WriteString(InfoStyle.Render("Press 'r' to retry | Press 'q' to quit"))
		return b.String()
	}

	if len(m.Entries) == 0 {
		b.WriteString(InfoStyle.Render(TextEmpty))
		b.WriteString("\n\n")
		b.WriteString(InfoStyle.Render(TextFooterBrowse))
		return b.String()
	}

	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	entry := m.Current()
	switch {
	case entry.Failure != nil:
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("❌ %s: %s", entry.Failure.Code, entry.Failure.Error)))
		b.WriteString("\n")
	case m.State == StateDetail && m.SelectedPair() != nil:
		b.WriteString(BoxStyle.Render(formatPairDetail(*m.SelectedPair())))
		b.WriteString("\n")
	default:
		b.WriteString(formatSummary(entry.Report))
		b.WriteString("\n\n")
		b.WriteString(m.renderPairs(entry.Pairs()))
	}
	b.WriteString(InfoStyle.Render("   " + entry.Source))
	b.WriteString("\n\n")

	if m.State == StateDetail {
		b.WriteString(InfoStyle.Render(TextFooterDetail))
	} else {
		b.WriteString(InfoStyle.Render(TextFooterBrowse))
	}
	return b.String()
}

func (m Model) renderTabs() string {
	tabs := make([]string, len(m.Entries))
	for i, e := range m.Entries {
		label := "Q" + e.QuestionID()
		if e.Failure != nil {
			label += " ✗"
		}
		if i == m.Question {
			tabs[i] = HighlightStyle.Render(label)
		} else {
			tabs[i] = TabStyle.Render(label)
		}
	}
	return strings.Join(tabs, " ")
}

func formatSummary(r *types.AnalysisReport) string {
	s := r.Summary
	line := fmt.Sprintf("📊 Quiz %s | Comparisons: %d | High: %d | Medium: %d | Low: %d | Highest: %.4f",
		r.QuizID, s.TotalComparisons, s.HighRiskCount, s.MediumRiskCount, s.LowRiskCount, s.HighestSimilarity)
	return InfoStyle.Render(line)
}

func (m Model) renderPairs(pairs []types.PairwiseResult) string {
	if len(pairs) == 0 {
		return InfoStyle.Render(TextNoPairs) + "\n"
	}
	var b strings.Builder
	for i, p := range pairs {
		cursor := "  "
		if i == m.Pair {
			cursor = "> "
		}
		line := fmt.Sprintf("%s%-6s %s ↔ %s  final %.4f  segments %d  confidence %.2f",
			cursor,
			p.OverallRiskLevel,
			p.StudentPair.Student1ID,
			p.StudentPair.Student2ID,
			p.SimilarityScores.Final,
			p.MatchingSegmentCount,
			p.Confidence,
		)
		b.WriteString(RiskStyle(p.OverallRiskLevel).Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

// formatPairDetail lays out the scores and matched sentences of one pair
func formatPairDetail(p types.PairwiseResult) string {
	var b strings.Builder
	sc := p.SimilarityScores

	b.WriteString(HighlightStyle.Render(fmt.Sprintf("%s ↔ %s", p.StudentPair.Student1ID, p.StudentPair.Student2ID)))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("Risk: %s   Confidence: %.2f\n", RiskStyle(p.OverallRiskLevel).Render(string(p.OverallRiskLevel)), p.Confidence))
	b.WriteString(fmt.Sprintf("Final: %.4f   Semantic: %.4f   Segment: %.4f   Stats: %.4f\n",
		sc.Final, sc.Semantic, sc.Segment, sc.Stats))
	b.WriteString(fmt.Sprintf("CLS: %.4f   Mean: %.4f\n", sc.CLS, sc.Mean))
	b.WriteString(fmt.Sprintf("Word count ratio: %.2f   Sentence length ratio: %.2f\n\n",
		p.TextStatisticsSimilarity.WordCountRatio, p.TextStatisticsSimilarity.SentenceLengthRatio))

	if len(p.MatchingSegments) == 0 {
		b.WriteString(InfoStyle.Render("No matching segments"))
		return b.String()
	}
	b.WriteString(fmt.Sprintf("Matching segments: %d\n", p.MatchingSegmentCount))
	for _, seg := range p.MatchingSegments {
		b.WriteString(fmt.Sprintf("\n%s\n", StatusStyle.Render(fmt.Sprintf("%.2f%%", seg.SimilarityPercentage))))
		b.WriteString(fmt.Sprintf("  1 [%s] %s\n", span(seg.Segment1), preview(seg.Segment1.Text)))
		b.WriteString(fmt.Sprintf("  2 [%s] %s\n", span(seg.Segment2), preview(seg.Segment2.Text)))
	}
	return b.String()
}

func span(s types.LocatedSegment) string {
	if s.StartIndex < 0 {
		return "not located"
	}
	return fmt.Sprintf("%d-%d", s.StartIndex, s.EndIndex)
}

func preview(text string) string {
	r := []rune(text)
	if len(r) <= segmentPreviewRunes {
		return text
	}
	return string(r[:segmentPreviewRunes]) + "..."
}
