package tui

import tea "github.com/charmbracelet/bubbletea"

// loadEntries runs the loader off the UI loop
func loadEntries(loader Loader) tea.Cmd {
	return func() tea.Msg {
		entries, err := loader.Load()
		return EntriesLoadedMsg{Entries: entries, Err: err}
	}
}
