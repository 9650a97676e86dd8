// Package email reads the inbox from an IMAP mailbox.
package email

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"

	"github.com/nhle/inbox/internal/model"
	"github.com/nhle/inbox/internal/source"
)

// messageFetcher is the part of IMAPClient the adapter needs.
type messageFetcher interface {
	FetchMessages(ctx context.Context) ([]ParsedMessage, error)
}

// Adapter implements source.Source for an IMAP mailbox.
type Adapter struct {
	client   *IMAPClient
	fetcher  messageFetcher
	name     string
	sourceID string
	mailbox  string
}

// NewAdapter creates a new IMAP source adapter.
func NewAdapter(name, sourceID string, settings Settings) *Adapter {
	c := NewIMAPClient(settings)
	return &Adapter{
		client:   c,
		fetcher:  c,
		name:     name,
		sourceID: sourceID,
		mailbox:  c.settings.Mailbox,
	}
}

// Type returns the source type identifier for IMAP.
func (a *Adapter) Type() model.SourceType { return model.SourceTypeIMAP }

// Name returns the source label.
func (a *Adapter) Name() string { return a.name }

// ValidateConnection verifies IMAP credentials by connecting,
// authenticating, and examining the mailbox.
func (a *Adapter) ValidateConnection(ctx context.Context) (string, error) {
	client, err := a.client.Connect(ctx)
	if err != nil {
		return "", fmt.Errorf("validating email connection: %w", err)
	}
	defer func() { _ = client.Logout().Wait() }()

	data, err := client.Select(a.mailbox, &imap.SelectOptions{ReadOnly: true}).Wait()
	if err != nil {
		return "", fmt.Errorf("selecting %s: %w", a.mailbox, err)
	}

	return fmt.Sprintf("%s: %d messages", a.mailbox, data.NumMessages), nil
}

// FetchMessages retrieves recent messages and maps them to raw records,
// newest first.
func (a *Adapter) FetchMessages(ctx context.Context) ([]model.RawMessage, error) {
	parsed, err := a.fetcher.FetchMessages(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", a.name, err)
	}

	records := make([]model.RawMessage, 0, len(parsed))
	for i := len(parsed) - 1; i >= 0; i-- {
		records = append(records, a.toRawMessage(parsed[i]))
	}
	return records, nil
}

// toRawMessage converts a parsed IMAP message into a raw record. The
// read flag is emitted in its textual form so it goes through the same
// normalization as every other source.
func (a *Adapter) toRawMessage(p ParsedMessage) model.RawMessage {
	env := p.Envelope

	seen := false
	for _, flag := range env.Flags {
		if flag == string(imap.FlagSeen) {
			seen = true
			break
		}
	}

	body := p.TextBody
	if strings.TrimSpace(body) == "" && p.HTMLBody != "" {
		body = stripHTML(p.HTMLBody)
	}

	address := env.Address
	if env.ReplyTo != "" {
		address = env.ReplyTo
	}

	ts := ""
	if !env.Date.IsZero() {
		ts = env.Date.UTC().Format(time.RFC3339)
	}

	return model.RawMessage{
		ID:      a.messageID(env),
		From:    env.From,
		Address: address,
		Time:    ts,
		Message: body,
		Subject: env.Subject,
		Tag:     a.name,
		Read:    model.ReadFlagFromString(strconv.FormatBool(seen)),
	}
}

// messageID derives a stable id from the source, mailbox and UID.
func (a *Adapter) messageID(env Envelope) string {
	return fmt.Sprintf(
		"%s:%s:%d",
		sanitizeID(a.sourceID), sanitizeID(a.mailbox), env.UID,
	)
}

// idUnsafeChars matches characters that are not safe in a message id.
var idUnsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

func sanitizeID(s string) string {
	return idUnsafeChars.ReplaceAllString(s, "_")
}

// htmlTagPattern matches HTML tags for stripping.
var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// stripHTML removes HTML tags from a string and decodes common
// entities, providing a basic plain-text rendering.
func stripHTML(html string) string {
	if html == "" {
		return ""
	}

	result := html
	for _, tag := range []string{
		"<br>", "<br/>", "<br />", "</p>", "</div>", "</li>",
	} {
		result = strings.ReplaceAll(result, tag, "\n")
	}

	result = htmlTagPattern.ReplaceAllString(result, "")

	replacer := strings.NewReplacer(
		"&amp;", "&",
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
	)
	result = replacer.Replace(result)

	for strings.Contains(result, "\n\n\n") {
		result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	}

	return strings.TrimSpace(result)
}

var _ source.Source = (*Adapter)(nil)
