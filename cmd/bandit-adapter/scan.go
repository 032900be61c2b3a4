package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/aquasecurity/bandit-adapter/pkg/bandit"
	"github.com/aquasecurity/bandit-adapter/pkg/etc"
	"github.com/aquasecurity/bandit-adapter/pkg/ext"
	"github.com/aquasecurity/bandit-adapter/pkg/filter"
)

func newScanCmd() *cobra.Command {
	var (
		label      string
		resultsDir string
		runFilter  bool
	)
	cmd := &cobra.Command{
		Use:   "scan <path>...",
		Short: "Run the Bandit report plan against one or more source trees",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if label != "" && len(args) > 1 {
				return fmt.Errorf("--label can only be used with a single path")
			}

			config, err := etc.GetConfig()
			if err != nil {
				return fmt.Errorf("getting config: %w", err)
			}
			if resultsDir != "" {
				config.Bandit.ResultsDir = resultsDir
			}
			if err = etc.Check(config); err != nil {
				return fmt.Errorf("checking config: %w", err)
			}

			out := cmd.OutOrStdout()
			console := bandit.NewConsole(out)
			wrapper := bandit.NewWrapper(config.Bandit, ext.DefaultAmbassador)

			var failed int
			for _, path := range args {
				target := bandit.Target{Source: path, Label: label}
				if target.Label == "" {
					target.Label = filepath.Base(filepath.Clean(path))
				}

				result, err := wrapper.Scan(cmd.Context(), target, console)
				if err != nil {
					fmt.Fprintf(out, "  %s Error: %v\n", color.RedString("✗"), err)
					failed++
					continue
				}

				if !runFilter {
					continue
				}
				report, ok := result.JSONReport()
				if !ok {
					fmt.Fprintf(out, "  %s Error: no JSON report to filter for %s\n", color.RedString("✗"), target.Label)
					failed++
					continue
				}
				if _, err = filter.Run(report, filepath.Join(result.OutputDir, filter.DefaultOutputName), out); err != nil {
					slog.Error("Filtering failed", slog.String("report", report), slog.String("err", err.Error()))
					fmt.Fprintf(out, "  %s Error: %v\n", color.RedString("✗"), err)
					failed++
				}
			}

			console.AllFinished(config.Bandit.ResultsDir)

			if failed > 0 {
				return fmt.Errorf("%d of %d targets could not be analyzed", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&label, "label", "l", "", "Name of the results subdirectory (defaults to the base name of the path)")
	cmd.Flags().StringVar(&resultsDir, "results-dir", "", "Directory receiving the reports (overrides SCANNER_BANDIT_RESULTS_DIR)")
	cmd.Flags().BoolVar(&runFilter, "filter", false, "Extract security vulnerabilities from the JSON report")
	return cmd
}
