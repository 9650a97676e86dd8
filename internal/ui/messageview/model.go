// Package messageview is the right pane: the selected message in full.
package messageview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inbox/internal/inbox"
	"github.com/nhle/inbox/internal/model"
	"github.com/nhle/inbox/internal/theme"
)

const (
	emptyTitle = "No email selected"
	emptyHint  = "Select an email from the list to view its contents"
)

// FullDateLayout is the detail pane's timestamp format.
const FullDateLayout = "Monday, January 2, 2006 at 03:04 PM"

// Model renders the store's selected message in a scrollable viewport.
type Model struct {
	store    *inbox.Store
	viewport viewport.Model
	shown    *model.Message
	width    int
	height   int
}

// New creates a detail view bound to store.
func New(store *inbox.Store, width, height int) Model {
	vp := viewport.New(width, height)
	vp.Style = lipgloss.NewStyle()

	m := Model{
		store:    store,
		viewport: vp,
		width:    width,
		height:   height,
	}
	m.Sync()
	return m
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update scrolls the viewport. Only keys routed here while the pane has
// focus reach it.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	m.Sync()

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// Sync re-renders the content when the selection changed. A different
// message scrolls back to the top; a refreshed copy of the same message
// keeps the scroll position.
func (m *Model) Sync() {
	sel, ok := m.store.Selected()
	if !ok {
		m.shown = nil
		m.viewport.SetContent("")
		return
	}
	if m.shown != nil && *m.shown == sel {
		return
	}

	sameID := m.shown != nil && m.shown.ID == sel.ID
	m.shown = &sel
	m.viewport.SetContent(m.renderContent(sel))
	if !sameID {
		m.viewport.GotoTop()
	}
}

// View renders the detail view.
func (m Model) View() string {
	if m.shown == nil {
		title := lipgloss.NewStyle().Bold(true).Render(emptyTitle)
		hint := theme.MutedStyle.Render(emptyHint)
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render(lipgloss.JoinVertical(lipgloss.Center, title, "", hint))
	}

	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent(msg model.Message) string {
	sep := theme.MutedStyle.Render(strings.Repeat("─", max(m.width-2, 1)))
	label := theme.MutedStyle.Bold(true)

	var sections []string

	subject := msg.Subject
	if subject == "" {
		subject = "(no subject)"
	}
	sections = append(sections, theme.SubjectStyle.Width(m.width).Render(subject))
	sections = append(sections, sep)

	from := msg.From
	if msg.Address != "" {
		from += " " + theme.MutedStyle.Render(fmt.Sprintf("<%s>", msg.Address))
	}
	sections = append(sections, label.Render("From:")+" "+from)
	sections = append(sections, label.Render("Date:")+" "+FormatFullDate(msg))
	if msg.Tag != "" {
		sections = append(sections, label.Render("Tag: ")+theme.TagStyle(msg.Tag).Render(msg.Tag))
	}

	sections = append(sections, sep, "")

	body := lipgloss.NewStyle().Width(m.width).Render(msg.Message)
	sections = append(sections, body)

	return strings.Join(sections, "\n")
}

// FormatFullDate renders msg's time in the detail layout, in local time.
// Unparseable times are shown verbatim.
func FormatFullDate(msg model.Message) string {
	t, ok := msg.ParsedTime()
	if !ok {
		return msg.Time
	}
	return t.Local().Format(FullDateLayout)
}

// SetSize updates the viewport dimensions and re-wraps the content.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	if m.shown != nil {
		m.viewport.SetContent(m.renderContent(*m.shown))
	}
}
