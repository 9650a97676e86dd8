package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/inbox/internal/source/factory"
)

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Fetch all sources once and print the messages as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		sources, err := db.GetSources(cmd.Context())
		if err != nil {
			return fmt.Errorf("list sources: %w", err)
		}

		loader := newLoader()
		for _, src := range sources {
			if !src.Enabled {
				continue
			}
			adapter, err := factory.New(src, logger)
			if err != nil {
				logger.Warn("skipping source", zap.String("name", src.Name), zap.Error(err))
				fmt.Fprintf(os.Stderr, "skipping %s: %v\n", src.Name, err)
				continue
			}
			loader.RegisterSource(adapter, src)
		}
		if len(loader.Sources()) == 0 {
			return fmt.Errorf("no usable sources")
		}

		msgs, err := loader.Fetch(cmd.Context())
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(msgs)
	},
}
