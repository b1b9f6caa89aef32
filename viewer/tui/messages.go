package tui

// EntriesLoadedMsg is sent when the loader finishes.
type EntriesLoadedMsg struct {
	Entries []Entry
	Err     error
}
