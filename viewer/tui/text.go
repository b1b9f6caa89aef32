package tui

// UI Text Constants
const (
	TextTitle   = "🔍 Exam Similarity Viewer"
	TextLoading = "⏳ Loading reports..."
	TextEmpty   = "No reports found"
	TextNoPairs = "No student pairs above the minimum similarity"

	TextFooterBrowse = "↑/↓ select pair | ←/→ switch question | enter details | r reload | q quit"
	TextFooterDetail = "↑/↓ previous/next pair | esc back | q quit"
)
