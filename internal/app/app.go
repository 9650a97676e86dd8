// Package app is the root Bubble Tea model. It owns the inbox store and
// wires it to the loader and the views.
package app

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/inbox/internal/inbox"
	"github.com/nhle/inbox/internal/keys"
	"github.com/nhle/inbox/internal/store"
	appsync "github.com/nhle/inbox/internal/sync"
	"github.com/nhle/inbox/internal/theme"
	"github.com/nhle/inbox/internal/ui"
	helpview "github.com/nhle/inbox/internal/ui/help"
	"github.com/nhle/inbox/internal/ui/messagelist"
	"github.com/nhle/inbox/internal/ui/messageview"
	"github.com/nhle/inbox/internal/ui/setup"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewInbox ViewState = iota
	ViewHelp
	ViewSetup
)

// Focus is the pane receiving keys in the inbox view.
type Focus int

const (
	FocusList Focus = iota
	FocusDetail
)

// Options configures New.
type Options struct {
	Store  store.Store
	Loader *appsync.Loader
	Logger *zap.Logger

	// ListWidthPercent is the list pane's share of the width.
	ListWidthPercent int
}

// Model is the root Bubble Tea model that manages view routing,
// layout, and access to the inbox.
type Model struct {
	currentView  ViewState
	previousView ViewState
	focus        Focus
	layout       ui.Layout
	listPercent  int

	inbox   *inbox.Store
	sources store.Store
	loader  *appsync.Loader
	log     *zap.Logger
	keys    *keys.KeyMap

	list      messagelist.Model
	detail    messageview.Model
	helpView  helpview.Model
	setupView setup.Model

	ready            bool
	ticking          bool
	registered       int
	statusMessage    string
	authErrorMessage string
}

// New creates a new root application model.
func New(opts Options) Model {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	k := keys.DefaultKeyMap()

	inboxStore := inbox.New()
	stateLog := log.Named("inbox")
	inboxStore.Subscribe(func(st inbox.State) {
		stateLog.Debug("state changed",
			zap.Uint64("version", st.Version),
			zap.Int("messages", len(st.Messages)),
			zap.Int("unread", st.UnreadCount()),
			zap.Int("checked", len(st.Checked)),
		)
	})

	return Model{
		currentView: ViewInbox,
		focus:       FocusList,
		listPercent: ui.ClampListPercent(opts.ListWidthPercent),
		inbox:       inboxStore,
		sources:     opts.Store,
		loader:      opts.Loader,
		log:         log.Named("app"),
		keys:        k,
		list:        messagelist.New(inboxStore, k, 40, 22),
		detail:      messageview.New(inboxStore, 60, 22),
		helpView:    helpview.New(k, 80, 24),
		setupView:   setup.New(opts.Store, log, false, 80, 22),
	}
}

// Inbox returns the store backing the views.
func (m Model) Inbox() *inbox.Store { return m.inbox }

// Init registers the configured sources; the first load starts once they
// are in place.
func (m Model) Init() tea.Cmd {
	return m.registerSources()
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		m.ready = true
		return m, nil

	case sourcesRegisteredMsg:
		m.registered = msg.count
		if msg.err != nil {
			m.statusMessage = fmt.Sprintf("Loading sources failed: %v", msg.err)
		}
		if msg.count == 0 && len(msg.skipped) == 0 && msg.err == nil {
			return m.openSetup(true)
		}
		if len(msg.skipped) > 0 {
			m.statusMessage = fmt.Sprintf("Skipped %d source(s): %s", len(msg.skipped), msg.skipped[0])
		}
		cmds := []tea.Cmd{m.loader.Load()}
		if !m.ticking {
			if tick := m.loader.Tick(); tick != nil {
				m.ticking = true
				cmds = append(cmds, tick)
			}
		}
		return m, tea.Batch(cmds...)

	case appsync.LoadedMsg:
		if !m.loader.IsLatest(msg.Seq) {
			m.log.Info("ignoring stale load", zap.Uint64("seq", msg.Seq))
			return m, nil
		}
		m.inbox.Load(msg.Messages)
		m.statusMessage = ""
		m.authErrorMessage = ""
		m.syncViews()
		return m, nil

	case appsync.LoadFailedMsg:
		if !m.loader.IsLatest(msg.Seq) {
			return m, nil
		}
		// The inbox keeps its last good state.
		m.authErrorMessage = ""
		if msg.AuthError != nil {
			m.authErrorMessage = msg.AuthError.Message
		}
		m.statusMessage = fmt.Sprintf("Refresh failed: %v", msg.Err)
		return m, nil

	case appsync.TickMsg:
		return m, tea.Batch(m.loader.Load(), m.loader.Tick())

	case messagelist.OpenedMsg:
		m.detail.Sync()
		return m, nil

	case setup.DoneMsg:
		m.currentView = ViewInbox
		if msg.Source == nil {
			return m, nil
		}
		m.statusMessage = fmt.Sprintf("Added %q", msg.Source.Name)
		return m, m.registerSources()

	case tea.KeyMsg:
		if cmd, handled := m.handleGlobalKeys(msg); handled {
			return m, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKeys processes keys that work regardless of the focused
// pane. The setup form receives everything except ctrl+c.
func (m *Model) handleGlobalKeys(msg tea.KeyMsg) (tea.Cmd, bool) {
	if msg.Type == tea.KeyCtrlC {
		return tea.Quit, true
	}
	if m.currentView == ViewSetup {
		return nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit, true

	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return nil, true
	}

	if m.currentView == ViewHelp {
		if msg.Type == tea.KeyEsc {
			m.currentView = m.previousView
		}
		return nil, true
	}

	switch {
	case key.Matches(msg, m.keys.Focus):
		if m.focus == FocusList {
			m.focus = FocusDetail
		} else {
			m.focus = FocusList
		}
		return nil, true

	case key.Matches(msg, m.keys.Refresh):
		m.statusMessage = ""
		return m.loader.Load(), true

	case key.Matches(msg, m.keys.AddSource):
		var cmd tea.Cmd
		*m, cmd = m.openSetupModel(false)
		return cmd, true
	}

	return nil, false
}

func (m Model) openSetup(firstRun bool) (tea.Model, tea.Cmd) {
	m, cmd := m.openSetupModel(firstRun)
	return m, cmd
}

func (m Model) openSetupModel(firstRun bool) (Model, tea.Cmd) {
	m.previousView = m.currentView
	m.currentView = ViewSetup
	w, h := m.layout.Width, m.layout.ContentHeight()
	if !m.ready {
		w, h = 80, 22
	}
	m.setupView = setup.New(m.sources, m.log, firstRun, w, h)
	return m, m.setupView.Init()
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.currentView {
	case ViewInbox:
		if m.focus == FocusDetail {
			m.detail, cmd = m.detail.Update(msg)
		} else {
			m.list, cmd = m.list.Update(msg)
		}
		m.syncViews()
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewSetup:
		m.setupView, cmd = m.setupView.Update(msg)
	}
	return m, cmd
}

func (m *Model) syncViews() {
	m.list.Sync()
	m.detail.Sync()
}

func (m *Model) resize(width, height int) {
	m.layout = ui.NewLayout(width, height, m.listPercent)

	listW, detailW := m.layout.PaneWidths()
	innerListW, innerH := m.layout.PaneInner(listW)
	innerDetailW, _ := m.layout.PaneInner(detailW)

	m.list.SetSize(innerListW, innerH)
	m.detail.SetSize(innerDetailW, innerH)
	m.helpView.SetSize(width, m.layout.ContentHeight())
	m.setupView.SetSize(width, m.layout.ContentHeight())
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	headerTitle := "Inbox"
	if n := m.inbox.UnreadCount(); n > 0 {
		headerTitle = fmt.Sprintf("Inbox (%d unread)", n)
	}

	header := m.layout.RenderHeader(headerTitle, m.syncStatus())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.statusLine())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewHelp:
		return m.helpView.View()
	case ViewSetup:
		return m.setupView.View()
	default:
		return m.layout.RenderPanes(m.list.View(), m.detail.View(), m.focus == FocusList)
	}
}

// syncStatus returns a short string describing the loader state.
func (m Model) syncStatus() string {
	if m.registered == 0 {
		return "no sources"
	}

	st := m.loader.Status()
	switch st.State {
	case appsync.StateRunning:
		return "syncing..."
	case appsync.StateError:
		return "sync failed"
	}
	if st.LastSync.IsZero() {
		return fmt.Sprintf("%d source(s)", m.registered)
	}
	return fmt.Sprintf("synced %s · %d messages", st.LastSync.Format("15:04"), st.MessageCount)
}

// statusLine is the failure summary when there is one, else key hints.
func (m Model) statusLine() string {
	switch {
	case m.authErrorMessage != "":
		return theme.ErrorStyle.Render(m.authErrorMessage)
	case m.statusMessage != "":
		return m.statusMessage
	}

	switch m.currentView {
	case ViewHelp:
		return "? or esc close help"
	case ViewSetup:
		return "enter next · esc cancel · ctrl+c quit"
	}
	if m.focus == FocusDetail {
		return "j/k scroll · tab list · r refresh · ? help · q quit"
	}
	return "j/k move · enter open · x check · A all · R/U read/unread · tab pane · r refresh · ? help · q quit"
}
