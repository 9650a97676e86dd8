// Package cmd holds the cobra commands of the inbox binary.
package cmd

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/inbox/internal/app"
	"github.com/nhle/inbox/internal/logging"
	"github.com/nhle/inbox/internal/model"
	"github.com/nhle/inbox/internal/store"
	appsync "github.com/nhle/inbox/internal/sync"
)

var (
	cfgFile   string
	sourceURL string
	dbPath    string
	logFile   string
	logLevel  string

	cfg    *model.AppConfig
	logger *zap.Logger
	db     *store.SQLiteStore
)

var rootCmd = &cobra.Command{
	Use:   "inbox",
	Short: "Terminal inbox viewer",
	Long: `inbox shows the messages of one or more sources (JSON endpoints or
IMAP mailboxes) in a two-pane terminal view.

Examples:
  inbox --url https://example.com/emails.json
  inbox --config ~/.config/inbox/config.yaml
  inbox sources
  inbox dump > messages.json`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = model.LoadConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		applyFlags(cmd, cfg)

		logger, err = logging.New(cfg.Log)
		if err != nil {
			return fmt.Errorf("set up logging: %w", err)
		}

		db, err = store.NewSQLiteStore(dbPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}

		if err := seedSources(cmd.Context(), db, cfg.Sources, sourceURL); err != nil {
			return fmt.Errorf("register sources: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logger != nil {
			_ = logger.Sync()
		}
		if db != nil {
			return db.Close()
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		loader := newLoader()
		m := app.New(app.Options{
			Store:            db,
			Loader:           loader,
			Logger:           logger,
			ListWidthPercent: cfg.Display.ListWidthPercent,
		})

		logger.Info("starting", zap.String("db", dbPath))
		p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("run program: %w", err)
		}
		return nil
	},
}

// ExecuteContext runs the root command with the given context.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", model.DefaultConfigPath(), "config file")
	flags.StringVar(&sourceURL, "url", "", "JSON endpoint to load messages from")
	flags.StringVar(&dbPath, "db", filepath.Join(model.ConfigDir(), "inbox.db"), "database file")
	flags.StringVar(&logFile, "log-file", "", "log file (overrides config)")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(sourcesCmd)
	rootCmd.AddCommand(dumpCmd)
}

// applyFlags overrides config values with flags the user set explicitly.
func applyFlags(cmd *cobra.Command, c *model.AppConfig) {
	if cmd.Flags().Changed("log-file") {
		c.Log.File = logFile
	}
	if cmd.Flags().Changed("log-level") {
		c.Log.Level = logLevel
	}
}

func newLoader() *appsync.Loader {
	return appsync.New(db, logger, appsync.Options{
		Timeout:  time.Duration(cfg.Fetch.TimeoutSec) * time.Second,
		Interval: time.Duration(cfg.Display.RefreshIntervalSec) * time.Second,
	})
}

// urlSourceID is the fixed id of the source given with --url, so repeated
// runs update one registration instead of adding new ones.
const urlSourceID = "url"

// seedSources writes the sources from the config file and the --url flag
// into the store. Sources added through the UI are left alone.
func seedSources(ctx context.Context, s store.Store, sources []model.SourceConfig, rawURL string) error {
	for _, src := range sources {
		if src.Name == "" {
			src.Name = src.BaseURL
		}
		if _, err := s.UpsertSource(ctx, src); err != nil {
			return err
		}
	}

	if rawURL == "" {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid --url %q", rawURL)
	}
	_, err = s.UpsertSource(ctx, model.SourceConfig{
		ID:      urlSourceID,
		Type:    string(model.SourceTypeHTTP),
		Name:    u.Host,
		BaseURL: rawURL,
		Enabled: true,
	})
	return err
}
