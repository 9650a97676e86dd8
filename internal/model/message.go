package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Message is one inbox entry as held by the inbox store.
type Message struct {
	// ID is the stable identity key; unique within a loaded collection.
	ID string `json:"id"`

	// From is the sender display name.
	From string `json:"from"`

	// Address is the reply-to address.
	Address string `json:"address"`

	// Time is the ISO-8601 timestamp as delivered by the source.
	Time string `json:"time"`

	// Message is the body text.
	Message string `json:"message"`

	Subject string `json:"subject"`

	// Tag is the category label (e.g. "work", "social").
	Tag string `json:"tag"`

	Read bool `json:"read"`
}

// timeLayouts lists the layouts accepted by ParsedTime, most specific first.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParsedTime parses Time. The boolean is false when Time is empty or
// matches none of the accepted layouts.
func (m Message) ParsedTime() (time.Time, bool) {
	s := strings.TrimSpace(m.Time)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ReadFlag is the loosely typed read marker found on the wire. Sources
// deliver it as a JSON boolean or as the strings "true"/"false".
type ReadFlag struct {
	Value bool
	Set   bool
}

// UnmarshalJSON accepts any JSON value. Strings are read only when they
// are exactly "true"; other values are read when truthy (non-zero
// numbers, objects and arrays). null leaves the flag unset.
func (r *ReadFlag) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("decoding read flag: %w", err)
	}

	switch v := v.(type) {
	case nil:
		*r = ReadFlag{}
	case bool:
		*r = ReadFlag{Value: v, Set: true}
	case string:
		*r = ReadFlagFromString(v)
	case float64:
		*r = ReadFlag{Value: v != 0, Set: true}
	default:
		*r = ReadFlag{Value: true, Set: true}
	}
	return nil
}

// MarshalJSON always writes a JSON boolean.
func (r ReadFlag) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Value)
}

// ReadFlagFromString maps a textual flag to a ReadFlag. Only the exact
// string "true" is read.
func ReadFlagFromString(s string) ReadFlag {
	return ReadFlag{Value: s == "true", Set: true}
}

// RawMessage is a message record as returned by a source, before
// normalization into a Message.
type RawMessage struct {
	ID      string   `json:"id"`
	From    string   `json:"from"`
	Address string   `json:"address"`
	Time    string   `json:"time"`
	Message string   `json:"message"`
	Subject string   `json:"subject"`
	Tag     string   `json:"tag"`
	Read    ReadFlag `json:"read"`
}
