// Package factory builds source adapters from stored configuration.
package factory

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/99designs/keyring"
	"go.uber.org/zap"

	"github.com/nhle/inbox/internal/credential"
	"github.com/nhle/inbox/internal/model"
	"github.com/nhle/inbox/internal/source"
	"github.com/nhle/inbox/internal/source/email"
	"github.com/nhle/inbox/internal/source/httpjson"
)

// Setting keys understood in SourceConfig.Config.
const (
	KeyUsername     = "username"
	KeyMailbox      = "mailbox"
	KeyLookbackDays = "lookback_days"
	KeyLimit        = "limit"
	KeyTLS          = "tls"

	// KeySecretEnv names an environment variable holding the token or
	// password. It takes precedence over the keyring.
	KeySecretEnv = "secret_env"
)

// New builds the adapter for cfg. The secret (bearer token or IMAP
// password) comes from the environment variable named by secret_env or
// from the keyring entry for the source id.
func New(cfg model.SourceConfig, log *zap.Logger) (source.Source, error) {
	if log == nil {
		log = zap.NewNop()
	}

	switch model.SourceType(cfg.Type) {
	case model.SourceTypeHTTP:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("source %q: missing base_url", cfg.Name)
		}
		token, err := Secret(cfg)
		if err != nil {
			// The token is optional for JSON endpoints.
			log.Debug("no token for source",
				zap.String("source", cfg.ID), zap.Error(err))
			token = ""
		}
		return httpjson.NewAdapter(cfg.Name, cfg.BaseURL, token, log), nil

	case model.SourceTypeIMAP:
		settings, err := IMAPSettings(cfg)
		if err != nil {
			return nil, err
		}
		password, err := Secret(cfg)
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", cfg.Name, err)
		}
		settings.Password = password
		return email.NewAdapter(cfg.Name, cfg.ID, settings), nil

	default:
		return nil, fmt.Errorf("source %q: unknown type %q", cfg.Name, cfg.Type)
	}
}

// ErrNoSecret is returned when neither the environment nor the keyring
// hold a secret for a source.
var ErrNoSecret = errors.New("no credential stored")

// Secret resolves the credential for cfg.
func Secret(cfg model.SourceConfig) (string, error) {
	if env := cfg.Setting(KeySecretEnv, ""); env != "" {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			return v, nil
		}
	}

	v, err := credential.Get(credential.SourceKey(cfg.ID))
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNoSecret
	}
	if err != nil {
		return "", err
	}
	return v, nil
}

// IMAPSettings converts cfg to connection settings without the password.
// BaseURL is "host:port"; a missing port means 993.
func IMAPSettings(cfg model.SourceConfig) (email.Settings, error) {
	host, port, err := net.SplitHostPort(cfg.BaseURL)
	if err != nil {
		host, port = cfg.BaseURL, "993"
	}
	if host == "" {
		return email.Settings{}, fmt.Errorf("source %q: missing imap host", cfg.Name)
	}

	settings := email.Settings{
		Host:     host,
		Port:     port,
		Username: cfg.Setting(KeyUsername, ""),
		TLS:      cfg.Setting(KeyTLS, "true") != "false",
		Mailbox:  cfg.Setting(KeyMailbox, "INBOX"),
	}

	if v := cfg.Setting(KeyLookbackDays, ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return email.Settings{}, fmt.Errorf("source %q: invalid lookback_days %q", cfg.Name, v)
		}
		settings.LookbackDays = n
	}
	if v := cfg.Setting(KeyLimit, ""); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return email.Settings{}, fmt.Errorf("source %q: invalid limit %q", cfg.Name, v)
		}
		settings.Limit = n
	}

	return settings, nil
}
