package email

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/mail"

	"github.com/nhle/inbox/internal/model"
	"github.com/nhle/inbox/internal/source"
)

// IMAPClient wraps go-imap v2 for reading a mailbox. It never changes
// flags or moves mail; bodies are fetched with PEEK.
type IMAPClient struct {
	settings Settings
}

// NewIMAPClient creates a new IMAP client configuration.
func NewIMAPClient(settings Settings) *IMAPClient {
	if settings.Mailbox == "" {
		settings.Mailbox = "INBOX"
	}
	if settings.LookbackDays <= 0 {
		settings.LookbackDays = 7
	}
	if settings.Limit <= 0 {
		settings.Limit = 100
	}
	return &IMAPClient{settings: settings}
}

// Connect establishes a connection to the IMAP server, authenticates,
// and returns the connected client. The caller is responsible for
// calling Logout on the returned client.
func (c *IMAPClient) Connect(
	_ context.Context,
) (*imapclient.Client, error) {
	addr := c.settings.Host + ":" + c.settings.Port

	var client *imapclient.Client
	var err error

	if c.settings.TLS {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(c.settings.Username, c.settings.Password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, &source.AuthError{
			SourceType: model.SourceTypeIMAP,
			Message: fmt.Sprintf(
				"authentication failed for %s: %v",
				c.settings.Username, err,
			),
		}
	}

	return client, nil
}

// FetchMessages connects, selects the mailbox, searches for messages
// from the lookback window, and returns the newest ones (up to Limit)
// with their bodies, oldest first.
func (c *IMAPClient) FetchMessages(
	ctx context.Context,
) ([]ParsedMessage, error) {
	client, err := c.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select(c.settings.Mailbox, &imap.SelectOptions{
		ReadOnly: true,
	}).Wait(); err != nil {
		return nil, fmt.Errorf("selecting %s: %w", c.settings.Mailbox, err)
	}

	since := time.Now().AddDate(0, 0, -c.settings.LookbackDays)
	searchData, err := client.UIDSearch(&imap.SearchCriteria{
		Since: since,
	}, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("searching messages: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}

	// Take the most recent.
	if len(uids) > c.settings.Limit {
		uids = uids[len(uids)-c.settings.Limit:]
	}

	bodySection := &imap.FetchItemBodySection{
		Peek: true,
	}
	fetchCmd := client.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		Envelope:     true,
		Flags:        true,
		UID:          true,
		InternalDate: true,
		BodySection:  []*imap.FetchItemBodySection{bodySection},
	})
	defer fetchCmd.Close()

	var messages []ParsedMessage
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			continue
		}

		parsed := ParsedMessage{Envelope: envelopeFromBuffer(buf)}
		if raw := buf.FindBodySection(bodySection); raw != nil {
			parsed.TextBody, parsed.HTMLBody = parseMIMEBody(raw)
		}
		messages = append(messages, parsed)
	}

	if err := fetchCmd.Close(); err != nil {
		return messages, fmt.Errorf("fetching messages: %w", err)
	}

	return messages, nil
}

// envelopeFromBuffer extracts an Envelope from a FetchMessageBuffer.
func envelopeFromBuffer(buf *imapclient.FetchMessageBuffer) Envelope {
	env := Envelope{
		UID:  uint32(buf.UID),
		Date: buf.InternalDate,
	}

	if buf.Envelope != nil {
		env.MessageID = buf.Envelope.MessageID
		env.Subject = buf.Envelope.Subject
		if !buf.Envelope.Date.IsZero() {
			env.Date = buf.Envelope.Date
		}

		if len(buf.Envelope.From) > 0 {
			from := buf.Envelope.From[0]
			env.Address = from.Addr()
			if from.Name != "" {
				env.From = from.Name
			} else {
				env.From = from.Addr()
			}
		}
		if len(buf.Envelope.ReplyTo) > 0 {
			env.ReplyTo = buf.Envelope.ReplyTo[0].Addr()
		}
	}

	for _, flag := range buf.Flags {
		env.Flags = append(env.Flags, string(flag))
	}

	return env
}

// parseMIMEBody parses a raw RFC 5322 message using go-message and
// returns its text/plain and text/html parts. Attachments are skipped.
func parseMIMEBody(raw []byte) (textBody string, htmlBody string) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		// If parsing fails, treat the whole thing as plain text.
		return string(raw), ""
	}
	defer mr.Close()

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := h.ContentType()
		body, readErr := io.ReadAll(part.Body)
		if readErr != nil {
			continue
		}

		switch {
		case strings.HasPrefix(contentType, "text/plain") && textBody == "":
			textBody = string(body)
		case strings.HasPrefix(contentType, "text/html") && htmlBody == "":
			htmlBody = string(body)
		}
	}

	return textBody, htmlBody
}
