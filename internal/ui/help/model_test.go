package help

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/inbox/internal/keys"
)

func TestView_ListsBindings(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 120, 30)

	out := m.View()
	assert.Contains(t, out, "Keyboard Shortcuts")
	assert.Contains(t, out, "mark as read")
	assert.Contains(t, out, "mark as unread")
	assert.Contains(t, out, "check all")
}
