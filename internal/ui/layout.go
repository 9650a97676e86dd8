package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inbox/internal/theme"
)

const (
	// DefaultListPercent is the list pane's share of the width.
	DefaultListPercent = 40
	minListPercent     = 30
	maxListPercent     = 50
)

// Layout manages the two-pane terminal layout dimensions.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int

	// ListPercent is the share of Width given to the message list.
	ListPercent int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height, listPercent int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
		ListPercent:     ClampListPercent(listPercent),
	}
}

// ClampListPercent keeps the list share within 30..50. Zero selects the
// default.
func ClampListPercent(p int) int {
	switch {
	case p == 0:
		return DefaultListPercent
	case p < minListPercent:
		return minListPercent
	case p > maxListPercent:
		return maxListPercent
	}
	return p
}

// ContentHeight returns the height available for the panes,
// accounting for the header and status bar.
func (l Layout) ContentHeight() int {
	h := l.Height - l.HeaderHeight - l.StatusBarHeight
	if h < 0 {
		return 0
	}
	return h
}

// PaneWidths splits the width between list and detail. The detail pane
// receives the remainder so the two always add up to Width.
func (l Layout) PaneWidths() (list, detail int) {
	list = l.Width * l.ListPercent / 100
	detail = l.Width - list
	return list, detail
}

// PaneInner returns the usable size inside a bordered pane of the given
// outer width.
func (l Layout) PaneInner(outerWidth int) (width, height int) {
	frameW, frameH := theme.PaneStyle.GetFrameSize()
	width = max(outerWidth-frameW, 0)
	height = max(l.ContentHeight()-frameH, 0)
	return width, height
}

// RenderPanes frames both panes and joins them side by side. The focused
// pane gets the highlighted border.
func (l Layout) RenderPanes(list, detail string, listFocused bool) string {
	listW, detailW := l.PaneWidths()

	listStyle, detailStyle := theme.FocusedPaneStyle, theme.PaneStyle
	if !listFocused {
		listStyle, detailStyle = theme.PaneStyle, theme.FocusedPaneStyle
	}

	innerListW, innerH := l.PaneInner(listW)
	innerDetailW, _ := l.PaneInner(detailW)

	left := listStyle.Width(innerListW).Height(innerH).Render(list)
	right := detailStyle.Width(innerDetailW).Height(innerH).Render(detail)

	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

// RenderHeader renders the top header bar with a title and sync status.
func (l Layout) RenderHeader(title string, syncStatus string) string {
	titleRendered := theme.HeaderStyle.Render(title)

	statusRendered := theme.HeaderStyle.
		Align(lipgloss.Right).
		Render(syncStatus)

	gap := l.Width -
		lipgloss.Width(titleRendered) -
		lipgloss.Width(statusRendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.HeaderStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.HeaderStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		titleRendered,
		filler,
		statusRendered,
	)
}

// RenderStatusBar renders the bottom status bar with keyboard hints.
func (l Layout) RenderStatusBar(hints string) string {
	rendered := theme.StatusBarStyle.Render(hints)

	gap := l.Width - lipgloss.Width(rendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.StatusBarStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.StatusBarStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, content area, and status bar.
func (l Layout) RenderWithFrame(
	header string,
	content string,
	statusBar string,
) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		statusBar,
	)
}
