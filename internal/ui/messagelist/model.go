// Package messagelist is the left pane: the inbox with checkboxes and
// bulk read/unread actions.
package messagelist

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/inbox/internal/inbox"
	"github.com/nhle/inbox/internal/keys"
	"github.com/nhle/inbox/internal/theme"
)

// OpenedMsg is sent after the message under the cursor was selected.
type OpenedMsg struct {
	ID string
}

// BulkHint is shown while any message is checked.
const BulkHint = "R mark as read · U mark as unread · esc clear"

// Model is the message list view. It reads from and dispatches to the
// inbox store; it owns nothing but the cursor.
type Model struct {
	list    list.Model
	store   *inbox.Store
	keys    *keys.KeyMap
	version uint64
	width   int
	height  int
}

// New creates a message list bound to store.
func New(store *inbox.Store, k *keys.KeyMap, width, height int) Model {
	return newWithClock(store, k, width, height, time.Now)
}

func newWithClock(store *inbox.Store, k *keys.KeyMap, width, height int, now func() time.Time) Model {
	delegate := ItemDelegate{store: store, now: now}
	l := list.New([]list.Item{}, delegate, width, listHeight(height, false))
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	l.KeyMap.ShowFullHelp.SetEnabled(false)
	l.KeyMap.CloseFullHelp.SetEnabled(false)

	m := Model{
		list:    l,
		store:   store,
		keys:    k,
		version: ^uint64(0),
		width:   width,
		height:  height,
	}
	m.Sync()
	return m
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles key input while the list has focus.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		cmd = m.handleKeys(msg)
	default:
		m.list, cmd = m.list.Update(msg)
	}

	m.Sync()
	return m, cmd
}

func (m *Model) handleKeys(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Open):
		id, ok := m.CursorID()
		if !ok || !m.store.Select(id) {
			return nil
		}
		return func() tea.Msg { return OpenedMsg{ID: id} }

	case key.Matches(msg, m.keys.Check):
		if id, ok := m.CursorID(); ok {
			m.store.ToggleChecked(id)
		}
		return nil

	case key.Matches(msg, m.keys.CheckAll):
		m.store.ToggleAllChecked()
		return nil

	case key.Matches(msg, m.keys.MarkRead):
		m.store.MarkCheckedAsRead()
		return nil

	case key.Matches(msg, m.keys.MarkUnread):
		m.store.MarkCheckedAsUnread()
		return nil

	case key.Matches(msg, m.keys.Clear):
		m.store.ClearChecked()
		return nil
	}

	// Navigation (up/down/pgup/pgdn) goes to the list.
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return cmd
}

// Sync rebuilds the rows when the store changed since the last call. The
// cursor stays on the same message id when it is still present.
func (m *Model) Sync() {
	v := m.store.Version()
	if v == m.version {
		return
	}
	m.version = v

	cursorID, hadCursor := m.CursorID()

	msgs := m.store.Messages()
	items := make([]list.Item, len(msgs))
	cursor := 0
	for i, msg := range msgs {
		items[i] = Item{Message: msg}
		if hadCursor && msg.ID == cursorID {
			cursor = i
		}
	}
	m.list.SetItems(items)
	m.list.SetHeight(listHeight(m.height, m.store.HasChecked()))
	if len(items) > 0 {
		m.list.Select(cursor)
	}
}

// CursorID returns the id of the message under the cursor.
func (m Model) CursorID() (string, bool) {
	it, ok := m.list.SelectedItem().(Item)
	if !ok {
		return "", false
	}
	return it.Message.ID, true
}

// View renders the header and the rows.
func (m Model) View() string {
	header := m.renderHeader()

	if len(m.list.Items()) == 0 {
		empty := lipgloss.NewStyle().
			Width(m.width).
			Height(max(m.height-lipgloss.Height(header), 0)).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No messages.\n\nPress r to refresh or a to add a source.")
		return lipgloss.JoinVertical(lipgloss.Left, header, empty)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, m.list.View())
}

func (m Model) renderHeader() string {
	title := theme.ListHeaderStyle.Render("Inbox")
	box := checkbox(m.store.AllChecked())

	gap := m.width - lipgloss.Width(title) - lipgloss.Width(box) - 1
	if gap < 1 {
		gap = 1
	}
	line := title + lipgloss.NewStyle().Width(gap).Render("") + box

	if !m.store.HasChecked() {
		return line
	}
	hint := theme.BulkHintStyle.Render(BulkHint)
	return lipgloss.JoinVertical(lipgloss.Left, line, hint)
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, listHeight(height, m.store.HasChecked()))
}

func listHeight(height int, hint bool) int {
	h := height - 1
	if hint {
		h--
	}
	return max(h, 0)
}
