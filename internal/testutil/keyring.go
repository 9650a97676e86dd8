package testutil

import (
	"testing"

	"github.com/99designs/keyring"

	"github.com/nhle/inbox/internal/credential"
)

// UseMemoryKeyring points the credential package at an in-memory keyring
// for the duration of the test and returns it.
func UseMemoryKeyring(t *testing.T) keyring.Keyring {
	t.Helper()

	ring := keyring.NewArrayKeyring(nil)
	orig := credential.Opener
	credential.Opener = func() (keyring.Keyring, error) { return ring, nil }
	t.Cleanup(func() { credential.Opener = orig })

	return ring
}
