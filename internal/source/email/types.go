package email

import "time"

// Envelope holds the parsed envelope data from an IMAP message.
type Envelope struct {
	MessageID string
	Subject   string
	From      string
	Address   string
	ReplyTo   string
	Date      time.Time
	Flags     []string // \Seen, \Flagged, \Answered, \Deleted
	UID       uint32
}

// ParsedMessage holds the envelope and decoded body of an email message.
type ParsedMessage struct {
	Envelope Envelope
	TextBody string
	HTMLBody string
}

// Settings holds the IMAP connection settings for one mailbox.
type Settings struct {
	Host     string
	Port     string
	Username string
	Password string
	TLS      bool

	// Mailbox defaults to INBOX.
	Mailbox string

	// LookbackDays limits the search to recent mail. 0 means 7.
	LookbackDays int

	// Limit caps the number of newest messages fetched. 0 means 100.
	Limit int
}
