package inbox

import (
	"slices"

	"github.com/nhle/inbox/internal/model"
)

// State is an immutable view of the store at one version.
type State struct {
	Messages []model.Message

	// Selected is nil when no message is open.
	Selected *model.Message

	// Checked holds the checked ids in collection order.
	Checked []string

	Version uint64
}

// HasChecked reports whether any message is checked.
func (st State) HasChecked() bool { return len(st.Checked) > 0 }

// AllChecked reports whether there are messages and all are checked.
func (st State) AllChecked() bool {
	if len(st.Messages) == 0 {
		return false
	}
	for _, m := range st.Messages {
		if !slices.Contains(st.Checked, m.ID) {
			return false
		}
	}
	return true
}

// IsChecked reports whether id is checked.
func (st State) IsChecked(id string) bool {
	return slices.Contains(st.Checked, id)
}

// IsSelected reports whether id is the open message.
func (st State) IsSelected(id string) bool {
	return st.Selected != nil && st.Selected.ID == id
}

// UnreadCount returns the number of unread messages.
func (st State) UnreadCount() int {
	n := 0
	for _, m := range st.Messages {
		if !m.Read {
			n++
		}
	}
	return n
}
