package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"talos/bootstrap"
	"talos/bundle"
	"talos/core"
	"talos/storage"
)

// hostResult is one host's outcome in the fleet table.
type hostResult struct {
	host   string
	report *core.Report
	err    error
}

func newRunCommand(app *bootstrap.App) *cobra.Command {
	var (
		schemaName string
		bundleDir  string
		noPersist  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Normalize every host bundle against a schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if bundleDir == "" {
				bundleDir = app.Config.BundleDir
			}

			schemas, err := app.Loader.LoadDir(app.Config.SchemaDir)
			if err != nil {
				return err
			}
			selected := findSchema(schemas, schemaName)
			if selected == nil {
				return fmt.Errorf("schema %q not found in %s", schemaName, app.Config.SchemaDir)
			}

			bundles, err := bundle.LoadFleet(bundleDir, app.Sugar)
			if err != nil {
				return err
			}
			if len(bundles) == 0 {
				return fmt.Errorf("no host bundles found under %s", bundleDir)
			}

			var store *storage.ReportStore
			if !noPersist {
				store, err = storage.Open(app.Config.Storage.SQLitePath, app.Sugar)
				if err != nil {
					return err
				}
				defer store.Close()
			}

			s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
			s.Suffix = fmt.Sprintf(" normalizing %d hosts against %q...", len(bundles), selected.Name)
			s.Start()

			results := runFleet(cmd.Context(), app, selected, bundles, store)

			s.Stop()
			printFleetTable(selected.Name, results)

			for _, r := range results {
				if r.err != nil {
					return fmt.Errorf("fleet run finished with errors")
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&schemaName, "schema", "", "Schema name to execute (required)")
	cmd.Flags().StringVar(&bundleDir, "bundles", "", "Bundle root directory (default from config)")
	cmd.Flags().BoolVar(&noPersist, "no-persist", false, "Skip writing reports to storage")
	_ = cmd.MarkFlagRequired("schema")

	return cmd
}

func findSchema(schemas []*core.Schema, name string) *core.Schema {
	for _, s := range schemas {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// runFleet normalizes all bundles on the worker pool, one task per host.
// Normalization is a pure function per host, so the only shared state is
// the results slice behind its mutex.
func runFleet(ctx context.Context, app *bootstrap.App, schema *core.Schema, bundles []bundle.HostBundle, store *storage.ReportStore) []hostResult {
	pool := core.NewWorkerPool(ctx, app.Config.Workers, len(bundles), app.Sugar)
	pool.Start()

	var mu sync.Mutex
	results := make([]hostResult, 0, len(bundles))

	for _, hb := range bundles {
		hb := hb
		_ = pool.Submit(func() {
			report := app.Engine.Normalize(ctx, schema, hb.Raw)

			var saveErr error
			if store != nil {
				saveErr = store.Save(hb.Host, report)
				if saveErr != nil {
					app.Sugar.Errorw("failed to persist report", "host", hb.Host, "error", saveErr)
				}
			}

			mu.Lock()
			results = append(results, hostResult{host: hb.Host, report: report, err: saveErr})
			mu.Unlock()
		})
	}
	pool.Drain()

	sort.Slice(results, func(i, j int) bool { return results[i].host < results[j].host })
	return results
}

func printFleetTable(schemaName string, results []hostResult) {
	headerColor.Printf("Fleet results for schema %s\n\n", schemaName)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "HOST\tHEALTH\tCRITICAL\tWARNING\tCOVERAGE")
	for _, r := range results {
		if r.err != nil {
			fmt.Fprintf(w, "%s\t%s\t-\t-\t-\n", r.host, errorColor.Sprint("SAVE FAILED"))
			continue
		}
		cov := r.report.Metadata.FieldCoverage
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d/%d\n",
			r.host,
			healthLabel(r.report.Health),
			r.report.Summary.CriticalCount,
			r.report.Summary.WarningCount,
			cov.Resolved, cov.Total,
		)
	}
	w.Flush()
}

func healthLabel(h core.Health) string {
	switch h {
	case core.HealthCritical:
		return errorColor.Sprint(h)
	case core.HealthWarning:
		return warningColor.Sprint(h)
	default:
		return successColor.Sprint(h)
	}
}
