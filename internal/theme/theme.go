package theme

import "github.com/charmbracelet/lipgloss"

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for the application title bar.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// ErrorStyle renders failures in the status bar.
var ErrorStyle = lipgloss.NewStyle().
	Foreground(ColorRed).
	Bold(true)

// PaneStyle frames a pane that does not have focus.
var PaneStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// FocusedPaneStyle frames the pane receiving keys.
var FocusedPaneStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBlue)

// ListHeaderStyle is the "Inbox" row above the message list.
var ListHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	PaddingLeft(1)

// BulkHintStyle shows the actions available for checked messages.
var BulkHintStyle = lipgloss.NewStyle().
	Foreground(ColorYellow).
	PaddingLeft(1)

// ListItemStyle is the base style for rows in the message list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// CursorItemStyle highlights the row under the cursor.
var CursorItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// SelectedItemStyle marks the row whose message is open in the detail pane.
var SelectedItemStyle = lipgloss.NewStyle().
	Background(ColorSubtle)

// UnreadStyle renders the sender of an unread message.
var UnreadStyle = lipgloss.NewStyle().Bold(true)

// ReadStyle renders the sender of a read message.
var ReadStyle = lipgloss.NewStyle().Foreground(ColorGray)

// CheckedStyle colors a checked checkbox.
var CheckedStyle = lipgloss.NewStyle().Foreground(ColorGreen)

// MutedStyle is used for dates, separators and secondary text.
var MutedStyle = lipgloss.NewStyle().Foreground(ColorGray)

// SubjectStyle is used for the subject line in the detail pane.
var SubjectStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// BorderStyle provides a standard rounded border for panels.
var BorderStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// TagStyle returns a color-coded style for a message tag.
func TagStyle(tag string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch tag {
	case "work":
		return base.Foreground(ColorBlue)
	case "personal":
		return base.Foreground(ColorGreen)
	case "social":
		return base.Foreground(ColorMagenta)
	case "promotions":
		return base.Foreground(ColorOrange)
	case "urgent", "important":
		return base.Foreground(ColorRed)
	default:
		return base.Foreground(ColorGray)
	}
}
