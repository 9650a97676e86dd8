package testutil

import (
	"fmt"
	"time"

	"github.com/nhle/inbox/internal/model"
)

// Message builds a message with predictable fields for id.
func Message(id string, read bool) model.Message {
	return model.Message{
		ID:      id,
		From:    "Sender " + id,
		Address: id + "@example.com",
		Time:    time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC).Format(time.RFC3339),
		Message: "Body of " + id,
		Subject: "Subject " + id,
		Tag:     "work",
		Read:    read,
	}
}

// Messages builds n unread messages with ids "1".."n".
func Messages(n int) []model.Message {
	out := make([]model.Message, n)
	for i := range out {
		out[i] = Message(fmt.Sprint(i+1), false)
	}
	return out
}
