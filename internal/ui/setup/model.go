// Package setup is the form for registering a message source. It is shown
// on first run and whenever the user adds or updates a source.
package setup

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nhle/inbox/internal/credential"
	"github.com/nhle/inbox/internal/model"
	"github.com/nhle/inbox/internal/source/factory"
	"github.com/nhle/inbox/internal/theme"
)

// Mode is the current step of the setup flow.
type Mode int

const (
	ModeSelectType Mode = iota
	ModeFormHTTP
	ModeFormIMAP
	ModeValidating
	ModeResult
)

const validateTimeout = 30 * time.Second

// DoneMsg closes the setup view. Source is nil when the user cancelled.
type DoneMsg struct {
	Source *model.SourceConfig
}

// savedMsg reports the outcome of validate-and-save.
type savedMsg struct {
	source model.SourceConfig
	status string
	err    error
}

// SourceSaver persists a source registration. store.Store satisfies it.
type SourceSaver interface {
	UpsertSource(ctx context.Context, src model.SourceConfig) (model.SourceConfig, error)
}

// values is heap-allocated so the form bindings survive Model copies.
type values struct {
	sourceType string
	name       string
	url        string
	token      string
	host       string
	port       string
	username   string
	password   string
	mailbox    string
	tls        bool
}

// Model is the Bubble Tea model for the setup flow.
type Model struct {
	mode  Mode
	store SourceSaver
	log   *zap.Logger

	form *huh.Form
	v    *values

	spinner spinner.Model
	result  savedMsg

	firstRun      bool
	width, height int
}

// New creates a setup view. firstRun changes the intro text.
func New(s SourceSaver, log *zap.Logger, firstRun bool, width, height int) Model {
	if log == nil {
		log = zap.NewNop()
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		store:    s,
		log:      log.Named("setup"),
		v:        &values{tls: true},
		spinner:  sp,
		firstRun: firstRun,
		width:    width,
		height:   height,
	}
	m.mode = ModeSelectType
	m.form = m.buildTypeSelectForm()
	return m
}

// Init starts the first form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Mode returns the current step.
func (m Model) Mode() Mode { return m.mode }

// Update handles messages and dispatches based on current mode.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case savedMsg:
		m.result = msg
		m.mode = ModeResult
		if msg.err != nil {
			m.log.Warn("source validation failed",
				zap.String("name", msg.source.Name), zap.Error(msg.err))
		} else {
			m.log.Info("source saved",
				zap.String("id", msg.source.ID), zap.String("type", msg.source.Type))
		}
		return m, nil

	case spinner.TickMsg:
		if m.mode == ModeValidating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeValidating:
			return m, nil
		case ModeResult:
			return m.handleResultKeys(msg)
		}
		if msg.Type == tea.KeyEsc {
			return m, done(nil)
		}
	}

	return m.updateForm(msg)
}

func (m Model) handleResultKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		if m.result.err != nil {
			return m, done(nil)
		}
		src := m.result.source
		return m, done(&src)
	case "r":
		if m.result.err != nil {
			return m.startValidation(m.result.source)
		}
	case "e":
		if m.result.err != nil {
			return m.openSourceForm()
		}
	}
	return m, nil
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateAborted:
		return m, done(nil)
	case huh.StateCompleted:
		if m.mode == ModeSelectType {
			return m.openSourceForm()
		}
		src, err := m.sourceFromValues()
		if err != nil {
			m.result = savedMsg{err: err}
			m.mode = ModeResult
			return m, nil
		}
		return m.startValidation(src)
	}

	return m, cmd
}

func (m Model) openSourceForm() (Model, tea.Cmd) {
	switch model.SourceType(m.v.sourceType) {
	case model.SourceTypeIMAP:
		m.mode = ModeFormIMAP
		m.form = m.buildIMAPForm()
	default:
		m.mode = ModeFormHTTP
		m.form = m.buildHTTPForm()
	}
	return m, m.form.Init()
}

func (m Model) startValidation(src model.SourceConfig) (Model, tea.Cmd) {
	m.mode = ModeValidating
	return m, tea.Batch(m.spinner.Tick, m.validateAndSave(src, m.secret()))
}

func done(src *model.SourceConfig) tea.Cmd {
	return func() tea.Msg { return DoneMsg{Source: src} }
}

// --- Forms ---

func (m Model) buildTypeSelectForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select Source Type").
				Description("Where should the inbox be read from?").
				Options(
					huh.NewOption("JSON endpoint - a URL returning a list of messages", string(model.SourceTypeHTTP)),
					huh.NewOption("IMAP mailbox - read-only", string(model.SourceTypeIMAP)),
				).
				Value(&m.v.sourceType),
		),
	).WithWidth(m.formWidth())
}

func (m Model) buildHTTPForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Description("A label for this source").
				Placeholder("Inbox API").
				Value(&m.v.name).
				Validate(validateRequired("Name")),
			huh.NewInput().
				Title("URL").
				Description("Endpoint returning a JSON array of messages").
				Placeholder("https://example.com/api/emails").
				Value(&m.v.url).
				Validate(validateURL),
			huh.NewInput().
				Title("Bearer Token").
				Description("Optional; stored in the system keyring").
				EchoMode(huh.EchoModePassword).
				Value(&m.v.token),
		),
	).WithWidth(m.formWidth())
}

func (m Model) buildIMAPForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Description("A label for this mailbox").
				Placeholder("Work Email").
				Value(&m.v.name).
				Validate(validateRequired("Name")),
			huh.NewInput().
				Title("IMAP Host").
				Placeholder("imap.example.com").
				Value(&m.v.host).
				Validate(validateRequired("IMAP Host")),
			huh.NewInput().
				Title("IMAP Port").
				Placeholder("993").
				Value(&m.v.port).
				Validate(validatePort),
			huh.NewInput().
				Title("Username").
				Placeholder("user@example.com").
				Value(&m.v.username).
				Validate(validateRequired("Username")),
			huh.NewInput().
				Title("Password").
				Description("Password or app password; stored in the system keyring").
				EchoMode(huh.EchoModePassword).
				Value(&m.v.password).
				Validate(validateRequired("Password")),
			huh.NewInput().
				Title("Mailbox").
				Placeholder("INBOX").
				Value(&m.v.mailbox),
			huh.NewConfirm().
				Title("Use TLS").
				Affirmative("Yes").
				Negative("No").
				Value(&m.v.tls),
		),
	).WithWidth(m.formWidth())
}

// sourceFromValues builds the registration from the submitted form.
func (m Model) sourceFromValues() (model.SourceConfig, error) {
	v := m.v
	src := model.SourceConfig{
		ID:      uuid.New().String(),
		Type:    v.sourceType,
		Name:    strings.TrimSpace(v.name),
		Enabled: true,
	}

	switch model.SourceType(v.sourceType) {
	case model.SourceTypeHTTP:
		src.BaseURL = strings.TrimSpace(v.url)
	case model.SourceTypeIMAP:
		src.BaseURL = net.JoinHostPort(strings.TrimSpace(v.host), strings.TrimSpace(v.port))
		src.Config = map[string]string{
			factory.KeyUsername: strings.TrimSpace(v.username),
			factory.KeyTLS:      strconv.FormatBool(v.tls),
		}
		if mb := strings.TrimSpace(v.mailbox); mb != "" {
			src.Config[factory.KeyMailbox] = mb
		}
	default:
		return src, fmt.Errorf("unknown source type %q", v.sourceType)
	}

	return src, nil
}

func (m Model) secret() string {
	if model.SourceType(m.v.sourceType) == model.SourceTypeIMAP {
		return m.v.password
	}
	return m.v.token
}

// validateAndSave stores the secret, checks the connection and persists
// the source when it works.
func (m Model) validateAndSave(src model.SourceConfig, secret string) tea.Cmd {
	s := m.store
	log := m.log
	return func() tea.Msg {
		if secret != "" {
			if err := credential.Set(credential.SourceKey(src.ID), secret); err != nil {
				return savedMsg{source: src, err: fmt.Errorf("saving credential: %w", err)}
			}
		}

		adapter, err := factory.New(src, log)
		if err != nil {
			return savedMsg{source: src, err: err}
		}

		ctx, cancel := context.WithTimeout(context.Background(), validateTimeout)
		defer cancel()

		status, err := adapter.ValidateConnection(ctx)
		if err != nil {
			return savedMsg{source: src, err: err}
		}

		saved, err := s.UpsertSource(ctx, src)
		if err != nil {
			return savedMsg{
				source: src,
				status: status,
				err:    fmt.Errorf("connection OK but save failed: %w", err),
			}
		}
		return savedMsg{source: saved, status: status}
	}
}

// --- View ---

// View renders the setup UI based on the current mode.
func (m Model) View() string {
	style := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height)

	switch m.mode {
	case ModeValidating:
		return style.Render(fmt.Sprintf("%s Testing connection...", m.spinner.View()))
	case ModeResult:
		return style.Render(m.viewResult())
	}

	var b strings.Builder
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	if m.firstRun {
		b.WriteString(title.Render("Welcome! Add a source to fill your inbox."))
	} else {
		b.WriteString(title.Render("Add Source"))
	}
	b.WriteString("\n\n")
	if m.form != nil {
		b.WriteString(m.form.View())
	}
	return style.Render(b.String())
}

func (m Model) viewResult() string {
	hint := lipgloss.NewStyle().Foreground(theme.ColorGray)
	if m.result.err != nil {
		return theme.ErrorStyle.Render("Connection failed") + "\n\n" +
			m.result.err.Error() + "\n\n" +
			hint.Render("r retry | e edit | enter/esc cancel")
	}

	ok := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorGreen)
	return ok.Render("Source saved") + "\n\n" +
		m.result.status + "\n\n" +
		hint.Render("enter continue")
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	if m.form != nil {
		m.form = m.form.WithWidth(m.formWidth())
	}
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

// --- Validators ---

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("URL is required")
	}
	parsed, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("URL must include scheme and host (e.g., https://example.com)")
	}
	return nil
}

func validatePort(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("port is required")
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n > 65535 {
		return fmt.Errorf("port must be a number between 1 and 65535")
	}
	return nil
}
