package messagelist

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/nhle/inbox/internal/inbox"
	"github.com/nhle/inbox/internal/model"
	"github.com/nhle/inbox/internal/theme"
)

// Item wraps a model.Message so it can be used in a bubbles/list.
type Item struct {
	Message model.Message
}

// FilterValue returns the string used for fuzzy filtering.
func (i Item) FilterValue() string {
	return i.Message.From + " " + i.Message.Subject
}

// ItemDelegate renders a message as two lines: checkbox, sender and
// date, then the subject. Checked and selected state come from the store.
type ItemDelegate struct {
	store *inbox.Store
	now   func() time.Time
}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 2 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single message row.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(Item)
	if !ok {
		return
	}
	msg := it.Message

	width := m.Width() - 3
	if width < 10 {
		width = 10
	}

	box := checkbox(d.store.IsChecked(msg.ID))

	senderStyle := theme.ReadStyle
	if !msg.Read {
		senderStyle = theme.UnreadStyle
	}

	date := FormatDate(msg, d.now())
	dateW := lipgloss.Width(date)

	senderW := width - lipgloss.Width(box) - 1 - dateW - 1
	sender := ansi.Truncate(msg.From, max(senderW, 1), "…")
	gap := width - lipgloss.Width(box) - 1 - lipgloss.Width(sender) - dateW
	if gap < 1 {
		gap = 1
	}

	first := fmt.Sprintf("%s %s%s%s",
		box,
		senderStyle.Render(sender),
		strings.Repeat(" ", gap),
		theme.MutedStyle.Render(date),
	)

	subject := ansi.Truncate(msg.Subject, max(width-4, 1), "…")
	if msg.Read {
		subject = theme.MutedStyle.Render(subject)
	}
	second := "    " + subject

	row := first + "\n" + second

	if sel, ok := d.store.Selected(); ok && sel.ID == msg.ID {
		row = theme.SelectedItemStyle.Render(row)
	}
	if index == m.Index() {
		row = theme.CursorItemStyle.Render(row)
	} else {
		row = theme.ListItemStyle.Render(row)
	}

	fmt.Fprint(w, row)
}

func checkbox(checked bool) string {
	if checked {
		return theme.CheckedStyle.Render("[x]")
	}
	return "[ ]"
}

// FormatDate renders the short list date for msg relative to now:
// "Yesterday" when the rounded-up day difference is one, the short
// weekday within a week, otherwise "Jan 2" with the year appended when it
// differs from the current one. Unparseable times are shown verbatim.
func FormatDate(msg model.Message, now time.Time) string {
	t, ok := msg.ParsedTime()
	if !ok {
		return msg.Time
	}
	t = t.In(now.Location())

	diff := math.Abs(float64(now.Sub(t)))
	days := int(math.Ceil(diff / float64(24*time.Hour)))

	switch {
	case days == 1:
		return "Yesterday"
	case days < 7:
		return t.Format("Mon")
	case t.Year() != now.Year():
		return t.Format("Jan 2, 2006")
	default:
		return t.Format("Jan 2")
	}
}
