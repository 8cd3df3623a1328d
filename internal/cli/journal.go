package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"robocmd/internal/app"
	"robocmd/internal/config"
	"robocmd/internal/storage"
	"robocmd/pkg/logx"
)

func newJournalCmd() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show recent command lifecycle events",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewConfigManager(flagConfig).Load()
			if err != nil {
				return err
			}
			sc, enabled, err := app.MapStorageConfig(cfg)
			if err != nil {
				return err
			}
			if !enabled {
				return errors.New("storage is disabled in config")
			}
			st, err := storage.Open(sc, logx.Nop())
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer st.Close()

			entries, err := st.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("read journal: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				for _, e := range entries {
					if err := enc.Encode(e); err != nil {
						return err
					}
				}
				return nil
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No entries.")
				return nil
			}
			fmt.Fprintf(out, "%-23s  %-10s  %-16s  %-10s  %-16s  %s\n", "TIME", "TYPE", "COMMAND", "REASON", "BY", "REQUIRES")
			for _, e := range entries {
				fmt.Fprintf(out, "%-23s  %-10s  %-16s  %-10s  %-16s  %s\n",
					e.At.Local().Format(time.DateTime+".000"), e.Type, e.Command, dash(e.Reason), dash(e.By), dash(strings.Join(e.Requirements, ",")))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Number of entries to show (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print entries as JSON lines")
	return cmd
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
