package source

import (
	"strings"

	"github.com/nhle/inbox/internal/model"
)

// Normalize converts raw records into messages. The read flag is taken
// from its boolean or "true"/"false" form; a missing flag means unread.
// Records without an id are skipped and counted in skipped. Only the
// first record for any given id is kept so that ids stay unique.
func Normalize(raw []model.RawMessage) (msgs []model.Message, skipped int) {
	out := make([]model.Message, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))

	for _, r := range raw {
		id := strings.TrimSpace(r.ID)
		if id == "" {
			skipped++
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		out = append(out, model.Message{
			ID:      id,
			From:    r.From,
			Address: r.Address,
			Time:    r.Time,
			Message: r.Message,
			Subject: r.Subject,
			Tag:     r.Tag,
			Read:    r.Read.Set && r.Read.Value,
		})
	}

	return out, skipped
}
