// Package httpjson reads the inbox from an HTTP endpoint that returns a
// JSON array of message records.
package httpjson

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nhle/inbox/internal/model"
	"github.com/nhle/inbox/internal/source"
)

// Adapter implements source.Source for a JSON endpoint.
type Adapter struct {
	client *Client
	name   string
	url    string
}

// NewAdapter creates a new JSON endpoint adapter.
func NewAdapter(name, url, token string, log *zap.Logger) *Adapter {
	return &Adapter{
		client: NewClient(url, token, log),
		name:   name,
		url:    url,
	}
}

// Type returns the source type identifier.
func (a *Adapter) Type() model.SourceType { return model.SourceTypeHTTP }

// Name returns the source label.
func (a *Adapter) Name() string { return a.name }

// ValidateConnection fetches the endpoint once and reports how many
// records it returned.
func (a *Adapter) ValidateConnection(ctx context.Context) (string, error) {
	records, err := a.FetchMessages(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d messages at %s", len(records), a.url), nil
}

// FetchMessages retrieves the message array from the endpoint.
func (a *Adapter) FetchMessages(ctx context.Context) ([]model.RawMessage, error) {
	var records []model.RawMessage
	if err := a.client.GetJSON(ctx, &records); err != nil {
		return nil, fmt.Errorf("fetching %s: %w", a.name, err)
	}
	return records, nil
}

var _ source.Source = (*Adapter)(nil)
