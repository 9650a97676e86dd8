package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/inbox/internal/model"
)

// AuthError indicates that authentication has failed or expired for a source.
// It is returned by source clients when a 401 response or a rejected
// login is received.
type AuthError struct {
	SourceType model.SourceType
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.SourceType, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// Source defines the contract every message source implements. Sources
// only read; nothing is ever written back.
type Source interface {
	// Type returns the source type identifier.
	Type() model.SourceType

	// Name returns the user-defined label of the source instance.
	Name() string

	// ValidateConnection verifies credentials and connectivity.
	// Returns a human-readable status message on success.
	ValidateConnection(ctx context.Context) (string, error)

	// FetchMessages retrieves the full current message list.
	FetchMessages(ctx context.Context) ([]model.RawMessage, error)
}
