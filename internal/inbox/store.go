// Package inbox holds the in-memory inbox state: the loaded messages, the
// message open in the detail pane, and the set of messages checked for bulk
// actions. Store keeps the three consistent across every transition.
package inbox

import (
	"slices"
	"sync"

	"github.com/nhle/inbox/internal/model"
)

// Listener is called with the new state after each transition.
type Listener func(State)

// Store is the single source of truth for the inbox. The zero value is not
// usable; construct one with New.
type Store struct {
	mu        sync.Mutex
	messages  []model.Message
	index     map[string]int
	selected  *model.Message
	checked   map[string]struct{}
	version   uint64
	listeners []Listener
}

// New returns an empty store.
func New() *Store {
	return &Store{
		index:   make(map[string]int),
		checked: make(map[string]struct{}),
	}
}

// Subscribe registers fn to be called after every state transition. The
// listener runs outside the store lock and may read from the store.
func (s *Store) Subscribe(fn Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// update applies fn under the lock. fn reports whether it changed
// anything; a changing transition bumps the version and notifies
// listeners exactly once.
func (s *Store) update(fn func() bool) {
	s.mu.Lock()
	if !fn() {
		s.mu.Unlock()
		return
	}
	s.version++
	snap := s.snapshotLocked()
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}

// Load replaces the message collection wholesale and clears the checked
// set. A selected message is re-resolved by id against the new
// collection: it takes the freshly loaded value when still present and is
// cleared otherwise.
func (s *Store) Load(records []model.Message) {
	s.update(func() bool {
		s.messages = slices.Clone(records)
		s.index = make(map[string]int, len(s.messages))
		for i, m := range s.messages {
			if _, dup := s.index[m.ID]; !dup {
				s.index[m.ID] = i
			}
		}
		s.checked = make(map[string]struct{})

		if s.selected != nil {
			if i, ok := s.index[s.selected.ID]; ok {
				fresh := s.messages[i]
				s.selected = &fresh
			} else {
				s.selected = nil
			}
		}
		return true
	})
}

// Select opens the message with the given id. Viewing marks as read: an
// unread message is flipped to read in the collection and in the
// selection in the same transition. It returns false, leaving state
// untouched, when id is not in the collection.
func (s *Store) Select(id string) bool {
	found := false
	s.update(func() bool {
		found = s.selectLocked(id)
		return found
	})
	return found
}

// SelectMessage is Select with a fallback: when msg.ID is not in the
// collection, msg itself becomes the selection and the collection is
// left alone.
func (s *Store) SelectMessage(msg model.Message) {
	s.update(func() bool {
		if s.selectLocked(msg.ID) {
			return true
		}
		stale := msg
		s.selected = &stale
		return true
	})
}

func (s *Store) selectLocked(id string) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.messages[i].Read = true
	sel := s.messages[i]
	s.selected = &sel
	return true
}

// ClearSelection closes the detail pane.
func (s *Store) ClearSelection() {
	s.update(func() bool {
		if s.selected == nil {
			return false
		}
		s.selected = nil
		return true
	})
}

// ToggleChecked flips membership of id in the checked set. Ids that are
// not in the collection are never added.
func (s *Store) ToggleChecked(id string) {
	s.update(func() bool {
		if _, ok := s.checked[id]; ok {
			delete(s.checked, id)
			return true
		}
		if _, ok := s.index[id]; !ok {
			return false
		}
		s.checked[id] = struct{}{}
		return true
	})
}

// ToggleAllChecked clears the checked set when every message is checked,
// and checks every message otherwise. A partial selection therefore
// becomes a full one.
func (s *Store) ToggleAllChecked() {
	s.update(func() bool {
		if s.allCheckedLocked() {
			s.checked = make(map[string]struct{})
			return true
		}
		if len(s.messages) == 0 {
			return false
		}
		s.checked = make(map[string]struct{}, len(s.messages))
		for _, m := range s.messages {
			s.checked[m.ID] = struct{}{}
		}
		return true
	})
}

// MarkRead marks every message whose id is in ids as read.
func (s *Store) MarkRead(ids []string) {
	s.update(func() bool {
		return s.setReadLocked(ids, true)
	})
}

// MarkUnread marks every message whose id is in ids as unread.
func (s *Store) MarkUnread(ids []string) {
	s.update(func() bool {
		return s.setReadLocked(ids, false)
	})
}

// MarkCheckedAsRead marks the checked messages as read and clears the
// checked set as one transition.
func (s *Store) MarkCheckedAsRead() {
	s.update(func() bool {
		return s.markCheckedLocked(true)
	})
}

// MarkCheckedAsUnread marks the checked messages as unread and clears the
// checked set as one transition.
func (s *Store) MarkCheckedAsUnread() {
	s.update(func() bool {
		return s.markCheckedLocked(false)
	})
}

func (s *Store) markCheckedLocked(read bool) bool {
	if len(s.checked) == 0 {
		return false
	}
	ids := make([]string, 0, len(s.checked))
	for id := range s.checked {
		ids = append(ids, id)
	}
	s.setReadLocked(ids, read)
	s.checked = make(map[string]struct{})
	return true
}

// setReadLocked updates the read flag for ids and, when the selection is
// among them, refreshes it from the collection. If the selected id cannot
// be found the selection is kept as is.
func (s *Store) setReadLocked(ids []string, read bool) bool {
	if len(ids) == 0 {
		return false
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	changed := false
	for i := range s.messages {
		if _, ok := want[s.messages[i].ID]; !ok {
			continue
		}
		if s.messages[i].Read != read {
			s.messages[i].Read = read
			changed = true
		}
	}

	if s.selected != nil {
		if _, ok := want[s.selected.ID]; ok {
			if i, found := s.index[s.selected.ID]; found {
				if s.selected.Read != s.messages[i].Read {
					changed = true
				}
				fresh := s.messages[i]
				s.selected = &fresh
			}
		}
	}
	return changed
}

// ClearChecked empties the checked set.
func (s *Store) ClearChecked() {
	s.update(func() bool {
		if len(s.checked) == 0 {
			return false
		}
		s.checked = make(map[string]struct{})
		return true
	})
}

// Messages returns a copy of the collection in load order.
func (s *Store) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.messages)
}

// Message looks up a message by id.
func (s *Store) Message(id string) (model.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return model.Message{}, false
	}
	return s.messages[i], true
}

// Selected returns the message open in the detail pane, if any.
func (s *Store) Selected() (model.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selected == nil {
		return model.Message{}, false
	}
	return *s.selected, true
}

// IsChecked reports whether id is in the checked set.
func (s *Store) IsChecked(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.checked[id]
	return ok
}

// HasChecked reports whether any message is checked.
func (s *Store) HasChecked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.checked) > 0
}

// AllChecked reports whether the collection is non-empty and every
// message in it is checked.
func (s *Store) AllChecked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allCheckedLocked()
}

func (s *Store) allCheckedLocked() bool {
	if len(s.messages) == 0 {
		return false
	}
	for _, m := range s.messages {
		if _, ok := s.checked[m.ID]; !ok {
			return false
		}
	}
	return true
}

// CheckedIDs returns the checked ids in collection order.
func (s *Store) CheckedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checkedIDsLocked()
}

func (s *Store) checkedIDsLocked() []string {
	ids := make([]string, 0, len(s.checked))
	for _, m := range s.messages {
		if _, ok := s.checked[m.ID]; ok {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// UnreadCount returns the number of unread messages.
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.messages {
		if !m.Read {
			n++
		}
	}
	return n
}

// Version increases by one for every transition that changed state.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Snapshot returns an immutable copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() State {
	st := State{
		Messages: slices.Clone(s.messages),
		Checked:  s.checkedIDsLocked(),
		Version:  s.version,
	}
	if s.selected != nil {
		sel := *s.selected
		st.Selected = &sel
	}
	return st
}
