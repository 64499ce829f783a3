package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"talos/bootstrap"
	"talos/storage"
)

func newHostsCommand(app *bootstrap.App) *cobra.Command {
	return &cobra.Command{
		Use:   "hosts",
		Short: "List the latest known status of every host",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.Open(app.Config.Storage.SQLitePath, app.Sugar)
			if err != nil {
				return err
			}
			defer store.Close()

			hosts, err := store.Hosts()
			if err != nil {
				return err
			}
			if len(hosts) == 0 {
				infoColor.Println("No reports stored yet. Run `talos run` first.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "HOST\tSCHEMA\tHEALTH\tCRITICAL\tWARNING\tGENERATED")
			for _, h := range hosts {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n",
					h.Host,
					h.SchemaName,
					healthLabel(h.Health),
					h.CriticalCount,
					h.WarningCount,
					h.GeneratedAt.Format(time.RFC3339),
				)
			}
			return w.Flush()
		},
	}
}
