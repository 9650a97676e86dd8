package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nhle/inbox/internal/model"
	"github.com/nhle/inbox/internal/store"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List registered sources and the last sync",
	RunE: func(cmd *cobra.Command, args []string) error {
		sources, err := db.GetSources(cmd.Context())
		if err != nil {
			return fmt.Errorf("list sources: %w", err)
		}
		last, err := db.LastSyncRun(cmd.Context())
		if err != nil {
			return fmt.Errorf("last sync: %w", err)
		}

		if len(sources) == 0 {
			fmt.Println("No sources found. Run 'inbox --url <endpoint>' or press 'a' in the inbox to add one.")
			return nil
		}
		writeSources(os.Stdout, sources, last)
		return nil
	},
}

func writeSources(out io.Writer, sources []model.SourceConfig, last *store.SyncRun) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tNAME\tURL\tENABLED")
	fmt.Fprintln(w, "──\t────\t────\t───\t───────")
	for _, src := range sources {
		enabled := "yes"
		if !src.Enabled {
			enabled = "no"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", src.ID, src.Type, src.Name, src.BaseURL, enabled)
	}
	w.Flush()

	fmt.Fprintf(out, "\n%d source(s)\n", len(sources))
	switch {
	case last == nil:
		fmt.Fprintln(out, "Never synced.")
	case last.Failed():
		fmt.Fprintf(out, "Last sync %s failed: %s\n", last.FinishedAt.Local().Format("2006-01-02 15:04"), last.Error)
	default:
		fmt.Fprintf(out, "Last sync %s: %d message(s) from %d source(s)\n",
			last.FinishedAt.Local().Format("2006-01-02 15:04"), last.MessageCount, last.SourceCount)
	}
}
