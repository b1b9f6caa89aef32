package tui

import (
	"examguard/batch"
	"examguard/types"

	tea "github.com/charmbracelet/bubbletea"
)

// State represents the viewer state machine
type State string

const (
	StateLoading  State = "loading"
	StateBrowsing State = "browsing"
	StateDetail   State = "detail"
	StateError    State = "error"
)

// Entry is one loaded document: a report or the error written in its place.
type Entry struct {
	Source  string
	Report  *types.AnalysisReport
	Failure *batch.ErrorResult
}

// QuestionID returns the question the document belongs to.
func (e Entry) QuestionID() string {
	if e.Failure != nil {
		return e.Failure.QuestionID
	}
	if e.Report != nil {
		return e.Report.QuestionID
	}
	return ""
}

// Pairs returns the pairwise results, highest score first as stored.
func (e Entry) Pairs() []types.PairwiseResult {
	if e.Report == nil {
		return nil
	}
	return e.Report.AnalysisResults
}

// Model is the report browser state
type Model struct {
	Loader Loader

	State   State
	Entries []Entry
	// Question indexes Entries, Pair indexes the current entry's pairs.
	Question int
	Pair     int
	Err      error
}

func NewModel(loader Loader) Model {
	return Model{
		Loader: loader,
		State:  StateLoading,
	}
}

// Init implements tea.Model interface
func (m Model) Init() tea.Cmd {
	return loadEntries(m.Loader)
}

// Current returns the selected entry, or nil when nothing is loaded.
func (m Model) Current() *Entry {
	if m.Question < 0 || m.Question >= len(m.Entries) {
		return nil
	}
	return &m.Entries[m.Question]
}

// SelectedPair returns the highlighted pair, or nil.
func (m Model) SelectedPair() *types.PairwiseResult {
	e := m.Current()
	if e == nil {
		return nil
	}
	pairs := e.Pairs()
	if m.Pair < 0 || m.Pair >= len(pairs) {
		return nil
	}
	return &pairs[m.Pair]
}

func (m Model) pairCount() int {
	if e := m.Current(); e != nil {
		return len(e.Pairs())
	}
	return 0
}
