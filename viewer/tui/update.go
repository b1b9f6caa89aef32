package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model interface
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case EntriesLoadedMsg:
		return m.handleEntriesLoaded(msg)
	}
	return m, nil
}

// handleKeyPress processes keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "r", "R":
		if m.State != StateLoading {
			m.State = StateLoading
			return m, loadEntries(m.Loader)
		}
		return m, nil
	}

	switch m.State {
	case StateBrowsing:
		return m.handleBrowseKey(msg)
	case StateDetail:
		return m.handleDetailKey(msg)
	}
	return m, nil
}

func (m Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m = m.movePair(-1)
	case "down", "j":
		m = m.movePair(1)
	case "right", "l", "tab":
		m = m.moveQuestion(1)
	case "left", "h", "shift+tab":
		m = m.moveQuestion(-1)
	case "enter":
		if m.SelectedPair() != nil {
			m.State = StateDetail
		}
	}
	return m, nil
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace", "enter":
		m.State = StateBrowsing
	case "up", "k":
		m = m.movePair(-1)
	case "down", "j":
		m = m.movePair(1)
	}
	return m, nil
}

// handleEntriesLoaded processes loader completion
func (m Model) handleEntriesLoaded(msg EntriesLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.State = StateError
		m.Err = fmt.Errorf("failed to load reports: %w", msg.Err)
		return m, nil
	}
	m.Entries = msg.Entries
	m.Err = nil
	m.State = StateBrowsing
	if m.Question >= len(m.Entries) {
		m.Question = 0
	}
	if m.Pair >= m.pairCount() {
		m.Pair = 0
	}
	return m, nil
}

func (m Model) movePair(delta int) Model {
	n := m.pairCount()
	if n == 0 {
		return m
	}
	m.Pair = min(max(m.Pair+delta, 0), n-1)
	return m
}

// moveQuestion wraps around the loaded documents.
func (m Model) moveQuestion(delta int) Model {
	n := len(m.Entries)
	if n == 0 {
		return m
	}
	m.Question = ((m.Question+delta)%n + n) % n
	m.Pair = 0
	return m
}
