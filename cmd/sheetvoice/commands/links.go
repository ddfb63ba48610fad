package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sheetvoice/sheetvoice/pkg/sheetvoice/config"
	"github.com/sheetvoice/sheetvoice/pkg/sheetvoice/store"
)

// newLinksCmd creates the `sheetvoice links` command that lists stored
// script links without starting the server.
func newLinksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "links",
		Short: "List stored script links",
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Root().PersistentFlags().GetString("config")
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			records, err := store.Open(store.Options{
				Backend: cfg.Storage.Backend,
				Path:    cfg.Storage.RecordsPath(),
			}, nil)
			if err != nil {
				return fmt.Errorf("opening record store: %w", err)
			}
			defer records.Close()

			recs, err := records.All()
			if err != nil {
				return fmt.Errorf("listing records: %w", err)
			}
			if len(recs) == 0 {
				fmt.Println("No scripts uploaded yet.")
				return nil
			}
			for _, rec := range recs {
				fmt.Printf("%-20s %-24s %-30s %s\n", rec.ClientName, rec.ScriptID, rec.FileName, rec.RedirectURL)
			}
			return nil
		},
	}
}
