package source

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/inbox/internal/model"
)

func TestNormalize_ReadFlagForms(t *testing.T) {
	tests := []struct {
		name string
		read string
		want bool
	}{
		{"string true", `"true"`, true},
		{"string false", `"false"`, false},
		{"bool true", `true`, true},
		{"bool false", `false`, false},
		{"absent", ``, false},
		{"null", `null`, false},
		{"upper case string", `"TRUE"`, false},
		{"title case string", `"True"`, false},
		{"padded string", `" true "`, false},
		{"other string", `"yes"`, false},
		{"empty string", `""`, false},
		{"non-zero number", `1`, true},
		{"zero", `0`, false},
		{"object", `{}`, true},
		{"array", `[]`, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			payload := `[{"id":"1","from":"Ann"}]`
			if tc.read != "" {
				payload = `[{"id":"1","from":"Ann","read":` + tc.read + `}]`
			}

			var raw []model.RawMessage
			require.NoError(t, json.Unmarshal([]byte(payload), &raw))

			msgs, skipped := Normalize(raw)
			assert.Zero(t, skipped)
			require.Len(t, msgs, 1)
			assert.Equal(t, tc.want, msgs[0].Read)
		})
	}
}

func TestNormalize_MalformedReadFlag(t *testing.T) {
	var flag model.ReadFlag
	assert.Error(t, flag.UnmarshalJSON([]byte(`tru`)))
}

func TestNormalize_KeepsFirstDuplicateAndOrder(t *testing.T) {
	raw := []model.RawMessage{
		{ID: "b", Subject: "first b"},
		{ID: "a", Subject: "a"},
		{ID: " b ", Subject: "second b"},
	}

	msgs, skipped := Normalize(raw)
	assert.Zero(t, skipped)
	require.Len(t, msgs, 2)
	assert.Equal(t, "b", msgs[0].ID)
	assert.Equal(t, "first b", msgs[0].Subject)
	assert.Equal(t, "a", msgs[1].ID)
}

func TestNormalize_SkipsMissingID(t *testing.T) {
	msgs, skipped := Normalize([]model.RawMessage{{ID: "ok"}, {ID: "  "}, {ID: ""}, {ID: "next"}})
	assert.Equal(t, 2, skipped)
	require.Len(t, msgs, 2)
	assert.Equal(t, "ok", msgs[0].ID)
	assert.Equal(t, "next", msgs[1].ID)
}

func TestNormalize_CopiesFields(t *testing.T) {
	raw := []model.RawMessage{{
		ID:      "x",
		From:    "Ann",
		Address: "ann@example.com",
		Time:    "2024-01-02T03:04:05Z",
		Message: "hello",
		Subject: "hi",
		Tag:     "work",
		Read:    model.ReadFlag{Value: true, Set: true},
	}}

	msgs, skipped := Normalize(raw)
	assert.Zero(t, skipped)
	assert.Equal(t, model.Message{
		ID:      "x",
		From:    "Ann",
		Address: "ann@example.com",
		Time:    "2024-01-02T03:04:05Z",
		Message: "hello",
		Subject: "hi",
		Tag:     "work",
		Read:    true,
	}, msgs[0])
}

func TestIsAuthError(t *testing.T) {
	err := &AuthError{SourceType: model.SourceTypeHTTP, Message: "expired"}
	assert.True(t, IsAuthError(err))
	assert.True(t, IsAuthError(fmt.Errorf("fetching: %w", err)))
	assert.False(t, IsAuthError(fmt.Errorf("plain")))
	assert.Equal(t, "auth error (http): expired", err.Error())
}
