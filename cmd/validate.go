package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"talos/bootstrap"
)

func newValidateCommand(app *bootstrap.App) *cobra.Command {
	var schemaDir string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate every schema file in the schema directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if schemaDir == "" {
				schemaDir = app.Config.SchemaDir
			}

			entries, err := os.ReadDir(schemaDir)
			if err != nil {
				return fmt.Errorf("failed to read schema directory: %w", err)
			}

			var paths []string
			for _, entry := range entries {
				name := entry.Name()
				if entry.IsDir() || strings.Contains(name, ".example.") {
					continue
				}
				if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
					paths = append(paths, filepath.Join(schemaDir, name))
				}
			}
			sort.Strings(paths)

			if len(paths) == 0 {
				return fmt.Errorf("no schema files found under %s", schemaDir)
			}

			failures := 0
			for _, path := range paths {
				s, err := app.Loader.Load(path)
				if err != nil {
					errorColor.Printf("FAIL  %s\n", filepath.Base(path))
					fmt.Printf("      %v\n", err)
					failures++
					continue
				}
				successColor.Printf("OK    %s", filepath.Base(path))
				infoColor.Printf("  (%d fields, %d alerts", len(s.Fields), len(s.Alerts))
				if len(s.BrokenPaths) > 0 {
					warningColor.Printf(", %d broken paths", len(s.BrokenPaths))
				}
				infoColor.Println(")")
			}

			if failures > 0 {
				return fmt.Errorf("%d of %d schema files failed validation", failures, len(paths))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&schemaDir, "schemas", "", "Schema directory (default from config)")
	return cmd
}
