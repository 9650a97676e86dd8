// Package sync fetches the inbox off the UI loop and hands results back
// to bubbletea as messages.
package sync

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/inbox/internal/model"
	"github.com/nhle/inbox/internal/source"
	"github.com/nhle/inbox/internal/store"
)

// State is the loader's coarse status.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateError
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "syncing"
	case StateError:
		return "error"
	default:
		return "idle"
	}
}

// Status is what the header shows about the most recent load.
type Status struct {
	State        State
	LastSync     time.Time
	MessageCount int
	Err          error
}

// LoadedMsg carries a successful, normalized fetch.
type LoadedMsg struct {
	Seq      uint64
	Messages []model.Message
}

// LoadFailedMsg reports a fetch that produced nothing to load.
type LoadFailedMsg struct {
	Seq       uint64
	Err       error
	AuthError *AuthErrorMsg
}

// AuthErrorMsg describes a source whose credentials were rejected.
type AuthErrorMsg struct {
	SourceType model.SourceType
	Message    string
}

// TickMsg asks the app to start a periodic refresh.
type TickMsg struct {
	Time time.Time
}

// RunRecorder persists load history. store.Store satisfies it.
type RunRecorder interface {
	RecordSyncRun(ctx context.Context, run store.SyncRun) error
}

// Options tune a Loader. Zero values take defaults.
type Options struct {
	// Timeout bounds one load across all sources. Default 30s.
	Timeout time.Duration

	// Interval between periodic refreshes. Zero disables them.
	Interval time.Duration
}

const (
	defaultTimeout = 30 * time.Second
	recordTimeout  = 5 * time.Second
)

type sourceEntry struct {
	src source.Source
	cfg model.SourceConfig
}

// Loader fetches every registered source concurrently. Each Load is
// stamped with a sequence number; only the most recently issued one is
// considered current, so overlapping loads resolve last-write-wins.
type Loader struct {
	recorder RunRecorder
	log      *zap.Logger
	timeout  time.Duration
	interval time.Duration
	now      func() time.Time

	mu      gosync.Mutex
	sources []sourceEntry
	seq     uint64
	status  Status
}

// New creates a Loader. recorder may be nil.
func New(recorder RunRecorder, log *zap.Logger, opts Options) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Loader{
		recorder: recorder,
		log:      log.Named("sync"),
		timeout:  opts.Timeout,
		interval: opts.Interval,
		now:      time.Now,
	}
}

// RegisterSource adds a source. Results are concatenated in registration
// order.
func (l *Loader) RegisterSource(src source.Source, cfg model.SourceConfig) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sources = append(l.sources, sourceEntry{src: src, cfg: cfg})
}

// Reset forgets every registered source.
func (l *Loader) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sources = nil
}

// Sources returns the configurations of the registered sources.
func (l *Loader) Sources() []model.SourceConfig {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]model.SourceConfig, len(l.sources))
	for i, e := range l.sources {
		out[i] = e.cfg
	}
	return out
}

// Status returns the current load status.
func (l *Loader) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.status
}

// IsLatest reports whether seq belongs to the most recently issued load.
func (l *Loader) IsLatest(seq uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return seq == l.seq
}

// Load issues a new request and returns the command that performs it.
// The command resolves to a LoadedMsg or a LoadFailedMsg.
func (l *Loader) Load() tea.Cmd {
	l.mu.Lock()
	l.seq++
	seq := l.seq
	sources := make([]sourceEntry, len(l.sources))
	copy(sources, l.sources)
	l.status.State = StateRunning
	l.status.Err = nil
	l.mu.Unlock()

	return func() tea.Msg {
		return l.run(seq, sources)
	}
}

// Tick schedules the next periodic refresh, or returns nil when periodic
// refresh is disabled.
func (l *Loader) Tick() tea.Cmd {
	if l.interval <= 0 {
		return nil
	}
	return tea.Tick(l.interval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// Fetch performs one synchronous load of all registered sources without
// touching the sequence or the status.
func (l *Loader) Fetch(ctx context.Context) ([]model.Message, error) {
	l.mu.Lock()
	sources := make([]sourceEntry, len(l.sources))
	copy(sources, l.sources)
	l.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	return l.fetchAll(ctx, sources)
}

func (l *Loader) run(seq uint64, sources []sourceEntry) tea.Msg {
	started := l.now()

	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	msgs, err := l.fetchAll(ctx, sources)
	cancel()

	finished := l.now()
	l.record(store.SyncRun{
		Seq:          seq,
		SourceCount:  len(sources),
		MessageCount: len(msgs),
		Error:        errString(err),
		StartedAt:    started,
		FinishedAt:   finished,
	})

	l.mu.Lock()
	latest := seq == l.seq
	if latest {
		if err != nil {
			l.status.State = StateError
			l.status.Err = err
		} else {
			l.status = Status{
				State:        StateIdle,
				LastSync:     finished,
				MessageCount: len(msgs),
			}
		}
	}
	l.mu.Unlock()

	if err != nil {
		l.log.Warn("load failed",
			zap.Uint64("seq", seq),
			zap.Int("sources", len(sources)),
			zap.Error(err),
		)
		return LoadFailedMsg{Seq: seq, Err: err, AuthError: authErrorMsg(err)}
	}

	l.log.Info("load finished",
		zap.Uint64("seq", seq),
		zap.Int("sources", len(sources)),
		zap.Int("messages", len(msgs)),
		zap.Duration("took", finished.Sub(started)),
		zap.Bool("latest", latest),
	)
	return LoadedMsg{Seq: seq, Messages: msgs}
}

func (l *Loader) record(run store.SyncRun) {
	if l.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := l.recorder.RecordSyncRun(ctx, run); err != nil {
		l.log.Error("recording sync run", zap.Error(err))
	}
}

// fetchAll fetches every source concurrently. Any source failure fails the
// whole load so a partial inbox is never produced. Records without an id
// are dropped and logged.
func (l *Loader) fetchAll(ctx context.Context, sources []sourceEntry) ([]model.Message, error) {
	results := make([][]model.RawMessage, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	for i, entry := range sources {
		i, entry := i, entry
		g.Go(func() error {
			records, err := entry.src.FetchMessages(ctx)
			if err != nil {
				return fmt.Errorf("%s: %w", entry.src.Name(), err)
			}
			results[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []model.RawMessage
	for _, r := range results {
		all = append(all, r...)
	}

	msgs, skipped := source.Normalize(all)
	if skipped > 0 {
		l.log.Warn("dropped records without id",
			zap.Int("dropped", skipped),
			zap.Int("records", len(all)),
		)
	}
	return msgs, nil
}

func authErrorMsg(err error) *AuthErrorMsg {
	var authErr *source.AuthError
	if !errors.As(err, &authErr) {
		return nil
	}
	return &AuthErrorMsg{
		SourceType: authErr.SourceType,
		Message: fmt.Sprintf(
			"%s: authentication failed. Press 'a' to update the source.",
			authErr.SourceType,
		),
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
