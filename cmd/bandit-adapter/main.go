package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aquasecurity/bandit-adapter/pkg/etc"
)

var (
	// Default wise GoReleaser sets three ldflags:
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// errReported is returned by commands that already printed their diagnostic.
var errReported = errors.New("reported")

func main() {
	info := etc.BuildInfo{
		Version: version,
		Commit:  commit,
		Date:    date,
	}

	if err := newRootCmd(info).Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd(info etc.BuildInfo) *cobra.Command {
	var logFormat string

	root := &cobra.Command{
		Use:           "bandit-adapter",
		Short:         "Run Bandit against Python sources and extract security vulnerabilities",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Console output owns stdout for the CLI commands.
			var out io.Writer = os.Stderr
			if cmd.Name() == "serve" {
				out = os.Stdout
			}
			return setupLogging(out, logFormat)
		},
	}
	root.PersistentFlags().StringVar(&logFormat, "log-format", "json", "Log format: json|text")

	root.AddCommand(newScanCmd())
	root.AddCommand(newFilterCmd())
	root.AddCommand(newServeCmd(info))
	root.AddCommand(newVersionCmd(info))
	return root
}

func setupLogging(out io.Writer, format string) error {
	opts := &slog.HandlerOptions{Level: etc.GetLogLevel()}

	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	case "text":
		handler = slog.NewTextHandler(out, opts)
	default:
		return fmt.Errorf("invalid log format %q", format)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}

func newVersionCmd(info etc.BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "bandit-adapter version %s, commit %s, built at %s\n", info.Version, info.Commit, info.Date)
		},
	}
}
