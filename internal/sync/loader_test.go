package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nhle/inbox/internal/model"
	"github.com/nhle/inbox/internal/source"
	"github.com/nhle/inbox/internal/testutil"
)

type fakeSource struct {
	name    string
	records []model.RawMessage
	err     error
	block   bool
}

func (f *fakeSource) Type() model.SourceType { return model.SourceTypeHTTP }
func (f *fakeSource) Name() string           { return f.name }

func (f *fakeSource) ValidateConnection(context.Context) (string, error) {
	return "ok", nil
}

func (f *fakeSource) FetchMessages(ctx context.Context) ([]model.RawMessage, error) {
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.records, f.err
}

func raw(id string, read string) model.RawMessage {
	return model.RawMessage{
		ID:      id,
		Subject: "Subject " + id,
		Read:    model.ReadFlagFromString(read),
	}
}

func register(l *Loader, srcs ...*fakeSource) {
	for _, s := range srcs {
		l.RegisterSource(s, model.SourceConfig{ID: s.name, Name: s.name, Type: "http"})
	}
}

func run(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	require.NotNil(t, cmd)
	return cmd()
}

func TestLoad_ConcatenatesInRegistrationOrder(t *testing.T) {
	l := New(nil, nil, Options{})
	register(l,
		&fakeSource{name: "a", records: []model.RawMessage{raw("1", "true"), raw("2", "false")}},
		&fakeSource{name: "b", records: []model.RawMessage{raw("3", ""), raw("1", "false")}},
	)

	msg := run(t, l.Load())
	loaded, ok := msg.(LoadedMsg)
	require.True(t, ok, "got %T", msg)

	assert.Equal(t, uint64(1), loaded.Seq)
	require.Len(t, loaded.Messages, 3)
	assert.Equal(t, "1", loaded.Messages[0].ID)
	assert.True(t, loaded.Messages[0].Read, "first record for a duplicate id wins")
	assert.Equal(t, "2", loaded.Messages[1].ID)
	assert.False(t, loaded.Messages[1].Read)
	assert.Equal(t, "3", loaded.Messages[2].ID)

	st := l.Status()
	assert.Equal(t, StateIdle, st.State)
	assert.Equal(t, 3, st.MessageCount)
	assert.False(t, st.LastSync.IsZero())
}

func TestLoad_AnyFailureFailsWholeLoad(t *testing.T) {
	l := New(nil, nil, Options{})
	register(l,
		&fakeSource{name: "good", records: []model.RawMessage{raw("1", "")}},
		&fakeSource{name: "bad", err: errors.New("connection refused")},
	)

	msg := run(t, l.Load())
	failed, ok := msg.(LoadFailedMsg)
	require.True(t, ok, "got %T", msg)

	assert.ErrorContains(t, failed.Err, "bad: connection refused")
	assert.Nil(t, failed.AuthError)
	assert.Equal(t, StateError, l.Status().State)
}

func TestLoad_AuthError(t *testing.T) {
	l := New(nil, nil, Options{})
	register(l, &fakeSource{
		name: "api",
		err:  &source.AuthError{SourceType: model.SourceTypeHTTP, Message: "401"},
	})

	failed := run(t, l.Load()).(LoadFailedMsg)
	require.NotNil(t, failed.AuthError)
	assert.Equal(t, model.SourceTypeHTTP, failed.AuthError.SourceType)
	assert.Contains(t, failed.AuthError.Message, "authentication failed")
}

func TestLoad_RecordWithoutIDIsDropped(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	l := New(nil, zap.New(core), Options{})
	register(l, &fakeSource{name: "api", records: []model.RawMessage{
		raw("1", ""), raw(" ", "true"), raw("2", "true"),
	}})

	loaded, ok := run(t, l.Load()).(LoadedMsg)
	require.True(t, ok)
	require.Len(t, loaded.Messages, 2)
	assert.Equal(t, "1", loaded.Messages[0].ID)
	assert.Equal(t, "2", loaded.Messages[1].ID)
	assert.Equal(t, StateIdle, l.Status().State)

	entries := logs.FilterMessage("dropped records without id").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].ContextMap()["dropped"])
}

func TestLoad_Timeout(t *testing.T) {
	l := New(nil, nil, Options{Timeout: 20 * time.Millisecond})
	register(l, &fakeSource{name: "slow", block: true})

	failed, ok := run(t, l.Load()).(LoadFailedMsg)
	require.True(t, ok)
	assert.ErrorIs(t, failed.Err, context.DeadlineExceeded)
}

func TestLoad_SequencingLastWriteWins(t *testing.T) {
	l := New(nil, nil, Options{})
	register(l, &fakeSource{name: "a", records: []model.RawMessage{raw("1", "")}})

	first := l.Load()
	second := l.Load()

	// The first request resolves after the second was issued.
	old := first().(LoadedMsg)
	assert.False(t, l.IsLatest(old.Seq))

	latest := second().(LoadedMsg)
	assert.True(t, l.IsLatest(latest.Seq))
	assert.Greater(t, latest.Seq, old.Seq)
}

func TestLoad_StaleFailureDoesNotClobberStatus(t *testing.T) {
	src := &fakeSource{name: "a", err: errors.New("boom")}
	l := New(nil, nil, Options{})
	register(l, src)

	stale := l.Load()
	src2 := &fakeSource{name: "a", records: []model.RawMessage{raw("1", "")}}
	l.Reset()
	register(l, src2)
	fresh := l.Load()

	_ = fresh().(LoadedMsg)
	_ = stale().(LoadFailedMsg)

	assert.Equal(t, StateIdle, l.Status().State)
}

func TestLoad_RecordsSyncRuns(t *testing.T) {
	st := testutil.NewTestStore(t)
	l := New(st, nil, Options{})
	register(l, &fakeSource{name: "a", records: []model.RawMessage{raw("1", ""), raw("2", "")}})

	_ = run(t, l.Load())

	last, err := st.LastSyncRun(context.Background())
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, uint64(1), last.Seq)
	assert.Equal(t, 1, last.SourceCount)
	assert.Equal(t, 2, last.MessageCount)
	assert.False(t, last.Failed())
}

func TestSourcesAndReset(t *testing.T) {
	l := New(nil, nil, Options{})
	register(l, &fakeSource{name: "a"}, &fakeSource{name: "b"})

	srcs := l.Sources()
	require.Len(t, srcs, 2)
	assert.Equal(t, "a", srcs[0].Name)

	l.Reset()
	assert.Empty(t, l.Sources())
}

func TestFetch(t *testing.T) {
	l := New(nil, nil, Options{})
	register(l, &fakeSource{name: "a", records: []model.RawMessage{raw("9", "true")}})

	msgs, err := l.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].Read)
	assert.Equal(t, StateIdle, l.Status().State)
	assert.True(t, l.IsLatest(0))
}

func TestTick(t *testing.T) {
	assert.Nil(t, New(nil, nil, Options{}).Tick())
	assert.NotNil(t, New(nil, nil, Options{Interval: time.Minute}).Tick())
}
