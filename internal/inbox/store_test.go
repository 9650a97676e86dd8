package inbox

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/inbox/internal/model"
)

func msg(id string, read bool) model.Message {
	return model.Message{
		ID:      id,
		From:    "Sender " + id,
		Address: id + "@example.com",
		Time:    "2024-03-01T10:00:00Z",
		Subject: "Subject " + id,
		Tag:     "work",
		Read:    read,
	}
}

func loaded(t *testing.T, msgs ...model.Message) *Store {
	t.Helper()
	s := New()
	s.Load(msgs)
	return s
}

func readFlags(s *Store) map[string]bool {
	out := make(map[string]bool)
	for _, m := range s.Messages() {
		out[m.ID] = m.Read
	}
	return out
}

func TestLoad_ReplacesMessagesAndClearsChecked(t *testing.T) {
	s := loaded(t, msg("a", false), msg("b", true))
	s.ToggleChecked("a")
	require.True(t, s.HasChecked())

	next := []model.Message{msg("c", false), msg("d", false), msg("e", true)}
	s.Load(next)

	if diff := cmp.Diff(next, s.Messages()); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, s.HasChecked())
	assert.Empty(t, s.CheckedIDs())
}

func TestLoad_CopiesInput(t *testing.T) {
	in := []model.Message{msg("a", false)}
	s := loaded(t, in...)
	in[0].Read = true

	m, ok := s.Message("a")
	require.True(t, ok)
	assert.False(t, m.Read)
}

func TestLoad_ReresolvesSelection(t *testing.T) {
	s := loaded(t, msg("a", false), msg("b", false))
	require.True(t, s.Select("a"))

	fresh := msg("a", false)
	fresh.Subject = "Updated"
	s.Load([]model.Message{fresh, msg("c", true)})

	sel, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, "Updated", sel.Subject)
	assert.False(t, sel.Read, "reload takes the server's read flag")

	s.Load([]model.Message{msg("c", true)})
	_, ok = s.Selected()
	assert.False(t, ok, "selection is cleared when the message disappears")
}

func TestSelect_MarksUnreadAsRead(t *testing.T) {
	s := loaded(t, msg("1", false), msg("2", false))

	require.True(t, s.Select("1"))

	msgs := s.Messages()
	assert.True(t, msgs[0].Read)
	assert.False(t, msgs[1].Read)

	sel, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, "1", sel.ID)
	assert.True(t, sel.Read)
}

func TestSelect_ReadMessageIsNotMutated(t *testing.T) {
	s := loaded(t, msg("a", true), msg("b", false))
	before := s.Messages()

	require.True(t, s.Select("a"))

	if diff := cmp.Diff(before, s.Messages()); diff != "" {
		t.Errorf("messages changed (-want +got):\n%s", diff)
	}
	sel, _ := s.Selected()
	assert.Equal(t, "a", sel.ID)
}

func TestSelect_IsSingleTransition(t *testing.T) {
	s := loaded(t, msg("a", false))
	var seen []State
	s.Subscribe(func(st State) { seen = append(seen, st) })

	s.Select("a")

	require.Len(t, seen, 1)
	assert.True(t, seen[0].Messages[0].Read)
	require.NotNil(t, seen[0].Selected)
	assert.True(t, seen[0].Selected.Read)
}

func TestSelect_ReselectAfterMarkUnreadFlipsAgain(t *testing.T) {
	s := loaded(t, msg("a", false))
	s.Select("a")
	s.MarkUnread([]string{"a"})

	sel, _ := s.Selected()
	require.False(t, sel.Read)

	s.Select("a")
	sel, _ = s.Selected()
	assert.True(t, sel.Read)
	assert.True(t, readFlags(s)["a"])
}

func TestSelect_UnknownID(t *testing.T) {
	s := loaded(t, msg("a", false))
	v := s.Version()

	assert.False(t, s.Select("zzz"))
	assert.Equal(t, v, s.Version())
	_, ok := s.Selected()
	assert.False(t, ok)
}

func TestSelectMessage_FallsBackToStaleReference(t *testing.T) {
	s := loaded(t, msg("a", false))
	stale := msg("gone", false)

	s.SelectMessage(stale)

	sel, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, stale, sel)
	assert.Equal(t, map[string]bool{"a": false}, readFlags(s))
}

func TestSelectMessage_UsesLiveCollection(t *testing.T) {
	s := loaded(t, msg("a", false))
	ref := msg("a", false)
	ref.Subject = "outdated"

	s.SelectMessage(ref)

	sel, _ := s.Selected()
	assert.Equal(t, "Subject a", sel.Subject)
	assert.True(t, sel.Read)
}

func TestClearSelection(t *testing.T) {
	s := loaded(t, msg("a", false), msg("b", false))
	s.Select("a")
	s.ToggleChecked("b")
	before := s.Messages()

	s.ClearSelection()

	_, ok := s.Selected()
	assert.False(t, ok)
	assert.Equal(t, before, s.Messages())
	assert.Equal(t, []string{"b"}, s.CheckedIDs())
}

func TestToggleChecked_Involution(t *testing.T) {
	s := loaded(t, msg("a", false), msg("b", false))

	s.ToggleChecked("a")
	assert.True(t, s.IsChecked("a"))
	s.ToggleChecked("a")
	assert.False(t, s.IsChecked("a"))

	s.ToggleChecked("b")
	s.ToggleChecked("a")
	s.ToggleChecked("a")
	assert.Equal(t, []string{"b"}, s.CheckedIDs())
}

func TestToggleChecked_DoesNotTouchMessagesOrSelection(t *testing.T) {
	s := loaded(t, msg("a", false), msg("b", false))
	s.Select("b")
	before := s.Messages()

	s.ToggleChecked("a")

	assert.Equal(t, before, s.Messages())
	sel, _ := s.Selected()
	assert.Equal(t, "b", sel.ID)
}

func TestToggleChecked_IgnoresUnknownID(t *testing.T) {
	s := loaded(t, msg("a", false))
	s.ToggleChecked("nope")
	assert.False(t, s.HasChecked())
}

func TestToggleAllChecked(t *testing.T) {
	s := loaded(t, msg("a", false), msg("b", false), msg("c", false))

	s.ToggleAllChecked()
	assert.Equal(t, []string{"a", "b", "c"}, s.CheckedIDs())
	assert.True(t, s.AllChecked())

	s.ToggleAllChecked()
	assert.Empty(t, s.CheckedIDs())
	assert.False(t, s.AllChecked())
}

func TestToggleAllChecked_PartialSelectsAll(t *testing.T) {
	s := loaded(t, msg("a", false), msg("b", false), msg("c", false))
	s.ToggleChecked("b")

	s.ToggleAllChecked()

	assert.Equal(t, []string{"a", "b", "c"}, s.CheckedIDs())
}

func TestToggleAllChecked_EmptyStore(t *testing.T) {
	s := New()
	s.ToggleAllChecked()
	assert.False(t, s.AllChecked())
	assert.False(t, s.HasChecked())
	assert.Zero(t, s.Version())
}

func TestMarkRead_OnlyTouchesGivenIDs(t *testing.T) {
	s := loaded(t, msg("a", false), msg("b", false), msg("c", false))

	s.MarkRead([]string{"a", "c", "missing"})

	assert.Equal(t, map[string]bool{"a": true, "b": false, "c": true}, readFlags(s))
}

func TestMarkUnread_RefreshesSelection(t *testing.T) {
	s := loaded(t, msg("a", false), msg("b", true))
	s.Select("a")

	s.MarkUnread([]string{"a", "b"})

	sel, ok := s.Selected()
	require.True(t, ok)
	assert.False(t, sel.Read)
	assert.Equal(t, map[string]bool{"a": false, "b": false}, readFlags(s))
}

func TestMarkRead_KeepsStaleSelection(t *testing.T) {
	s := loaded(t, msg("a", false))
	stale := msg("ghost", false)
	s.SelectMessage(stale)

	s.MarkRead([]string{"ghost"})

	sel, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, stale, sel)
}

func TestMarkRead_PreservesOrder(t *testing.T) {
	s := loaded(t, msg("c", false), msg("a", false), msg("b", false))
	s.MarkRead([]string{"b", "c"})

	var ids []string
	for _, m := range s.Messages() {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"c", "a", "b"}, ids)
}

func TestMarkCheckedAsRead(t *testing.T) {
	s := loaded(t, msg("a", false), msg("b", true), msg("c", false))
	s.ToggleChecked("a")
	s.ToggleChecked("b")

	s.MarkCheckedAsRead()

	assert.Equal(t, map[string]bool{"a": true, "b": true, "c": false}, readFlags(s))
	assert.False(t, s.HasChecked())
}

func TestMarkCheckedAsUnread(t *testing.T) {
	s := loaded(t, msg("a", true), msg("b", true))
	s.Select("a")
	s.ToggleAllChecked()

	s.MarkCheckedAsUnread()

	assert.Equal(t, map[string]bool{"a": false, "b": false}, readFlags(s))
	sel, _ := s.Selected()
	assert.False(t, sel.Read)
	assert.False(t, s.HasChecked())
}

func TestMarkChecked_NoIntermediateState(t *testing.T) {
	s := loaded(t, msg("a", false), msg("b", false))
	s.ToggleChecked("a")

	var seen []State
	s.Subscribe(func(st State) { seen = append(seen, st) })
	s.MarkCheckedAsRead()

	require.Len(t, seen, 1)
	assert.True(t, seen[0].Messages[0].Read)
	assert.False(t, seen[0].HasChecked())
}

func TestClearChecked_Idempotent(t *testing.T) {
	s := loaded(t, msg("a", false))
	before := s.Snapshot()

	s.ClearChecked()

	assert.Equal(t, before, s.Snapshot())
}

func TestSnapshot_IsDetached(t *testing.T) {
	s := loaded(t, msg("a", false))
	s.Select("a")
	snap := s.Snapshot()

	snap.Messages[0].Subject = "mutated"
	snap.Selected.Subject = "mutated"

	m, _ := s.Message("a")
	sel, _ := s.Selected()
	assert.Equal(t, "Subject a", m.Subject)
	assert.Equal(t, "Subject a", sel.Subject)
}

func TestUnreadCount(t *testing.T) {
	s := loaded(t, msg("a", false), msg("b", true), msg("c", false))
	assert.Equal(t, 2, s.UnreadCount())
	assert.Equal(t, 2, s.Snapshot().UnreadCount())

	s.Select("a")
	assert.Equal(t, 1, s.UnreadCount())
}

func TestAllChecked_DuplicateIDs(t *testing.T) {
	s := loaded(t, msg("a", false), msg("a", true), msg("b", false))
	s.ToggleAllChecked()

	assert.True(t, s.AllChecked())
	assert.True(t, s.Snapshot().AllChecked())

	s.ToggleChecked("b")
	assert.False(t, s.AllChecked())
	assert.False(t, s.Snapshot().AllChecked())
}

func TestStateHelpers(t *testing.T) {
	s := loaded(t, msg("a", false), msg("b", false))
	s.Select("b")
	s.ToggleChecked("a")

	st := s.Snapshot()
	assert.True(t, st.HasChecked())
	assert.False(t, st.AllChecked())
	assert.True(t, st.IsChecked("a"))
	assert.False(t, st.IsChecked("b"))
	assert.True(t, st.IsSelected("b"))
	assert.False(t, st.IsSelected("a"))
}
