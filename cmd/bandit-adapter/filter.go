package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aquasecurity/bandit-adapter/pkg/filter"
)

func newFilterCmd() *cobra.Command {
	var (
		input  string
		output string
	)
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Extract security vulnerabilities from a Bandit JSON report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = filter.DefaultOutput(input)
			}

			_, err := filter.Run(input, output, cmd.OutOrStdout())
			if errors.Is(err, filter.ErrReportNotFound) {
				fmt.Fprintf(cmd.OutOrStdout(), "Error: Input file not found: %s\n", input)
				return errReported
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "Bandit JSON report")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Filtered report (defaults to "+filter.DefaultOutputName+" next to the input)")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
