package email

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/inbox/internal/source"
)

type fakeFetcher struct {
	messages []ParsedMessage
	err      error
}

func (f fakeFetcher) FetchMessages(context.Context) ([]ParsedMessage, error) {
	return f.messages, f.err
}

func newFakeAdapter(f fakeFetcher) *Adapter {
	a := NewAdapter("Work", "src/1", Settings{Host: "imap.example.com", Port: "993"})
	a.fetcher = f
	return a
}

func TestFetchMessages_MapsEnvelopes(t *testing.T) {
	date := time.Date(2024, 3, 1, 9, 30, 0, 0, time.FixedZone("CET", 3600))
	a := newFakeAdapter(fakeFetcher{messages: []ParsedMessage{
		{
			Envelope: Envelope{
				UID: 10, Subject: "older", From: "Ann",
				Address: "ann@example.com", Date: date,
				Flags: []string{`\Seen`},
			},
			TextBody: "plain body",
		},
		{
			Envelope: Envelope{
				UID: 11, Subject: "newer", From: "Bob",
				Address: "bob@example.com", ReplyTo: "reply@example.com",
			},
			HTMLBody: "<p>Hello &amp; welcome</p><br>bye",
		},
	}})

	records, err := a.FetchMessages(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	newest := records[0]
	assert.Equal(t, "src_1:INBOX:11", newest.ID)
	assert.Equal(t, "reply@example.com", newest.Address)
	assert.Equal(t, "Hello & welcome\n\nbye", newest.Message)
	assert.Equal(t, "", newest.Time)
	assert.True(t, newest.Read.Set)
	assert.False(t, newest.Read.Value)
	assert.Equal(t, "Work", newest.Tag)

	oldest := records[1]
	assert.Equal(t, "src_1:INBOX:10", oldest.ID)
	assert.Equal(t, "ann@example.com", oldest.Address)
	assert.Equal(t, "2024-03-01T08:30:00Z", oldest.Time)
	assert.Equal(t, "plain body", oldest.Message)
	assert.True(t, oldest.Read.Value)

	msgs, skipped := source.Normalize(records)
	assert.Zero(t, skipped)
	assert.False(t, msgs[0].Read)
	assert.True(t, msgs[1].Read)
}

func TestFetchMessages_WrapsError(t *testing.T) {
	a := newFakeAdapter(fakeFetcher{err: errors.New("connection reset")})

	_, err := a.FetchMessages(context.Background())
	assert.ErrorContains(t, err, "fetching Work: connection reset")
}

func TestParseMIMEBody_Multipart(t *testing.T) {
	raw := strings.Join([]string{
		"From: Ann <ann@example.com>",
		"Subject: test",
		"MIME-Version: 1.0",
		`Content-Type: multipart/alternative; boundary="b1"`,
		"",
		"--b1",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"hello text",
		"--b1",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<b>hello html</b>",
		"--b1--",
		"",
	}, "\r\n")

	text, html := parseMIMEBody([]byte(raw))
	assert.Equal(t, "hello text", strings.TrimSpace(text))
	assert.Equal(t, "<b>hello html</b>", strings.TrimSpace(html))
}

func TestParseMIMEBody_SinglePart(t *testing.T) {
	raw := "Subject: hi\r\nContent-Type: text/plain\r\n\r\njust text\r\n"
	text, html := parseMIMEBody([]byte(raw))
	assert.Equal(t, "just text", strings.TrimSpace(text))
	assert.Empty(t, html)
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"<p>a</p><p>b</p>", "a\nb"},
		{"x &lt;y&gt; &quot;z&quot;", `x <y> "z"`},
		{"<div>one</div>\n\n\n\n<div>two</div>", "one\n\ntwo"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, stripHTML(tc.in), "stripHTML(%q)", tc.in)
	}
}

func TestNewIMAPClient_Defaults(t *testing.T) {
	c := NewIMAPClient(Settings{})
	assert.Equal(t, "INBOX", c.settings.Mailbox)
	assert.Equal(t, 7, c.settings.LookbackDays)
	assert.Equal(t, 100, c.settings.Limit)
}
