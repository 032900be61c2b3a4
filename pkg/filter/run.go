package filter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/samber/lo"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/bandit-adapter/pkg/bandit"
	"github.com/aquasecurity/bandit-adapter/pkg/metrics"
)

// DefaultOutputName is the file name used when no destination is given.
const DefaultOutputName = "security_vulnerabilities.json"

var ErrReportNotFound = errors.New("input file not found")

// DefaultOutput returns the destination used for a report when none is given.
func DefaultOutput(source string) string {
	return filepath.Join(filepath.Dir(source), DefaultOutputName)
}

// Run filters the Bandit report at source, writes the filtered document to
// destination and prints a summary to out. Nothing is written when the report
// is missing or cannot be decoded.
func Run(source, destination string, out io.Writer) (Summary, error) {
	if _, err := os.Stat(source); errors.Is(err, fs.ErrNotExist) {
		return Summary{}, fmt.Errorf("%w: %s", ErrReportNotFound, source)
	}

	report, err := readReport(source)
	if err != nil {
		return Summary{}, err
	}

	doc := Filter(source, report)

	if err = Write(doc, destination); err != nil {
		return Summary{}, err
	}

	for severity, count := range doc.SeverityBreakdown {
		metrics.SelectedIssues.WithLabelValues(severity).Add(float64(count))
	}

	slog.Debug("Filtered bandit report",
		slog.String("source", source),
		slog.String("destination", destination),
		slog.Int("selected", doc.TotalVulnerabilities),
		slog.Int("total", len(report.Results)),
	)

	summary := doc.Summary(len(report.Results))
	PrintSummary(out, summary, destination)
	return summary, nil
}

func readReport(source string) (bandit.Report, error) {
	f, err := os.Open(source)
	if err != nil {
		return bandit.Report{}, xerrors.Errorf("opening bandit report: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	return bandit.ReportFrom(f)
}

// Write serializes the document as indented JSON in a single write.
func Write(doc Document, destination string) error {
	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return xerrors.Errorf("encoding filtered report: %w", err)
	}

	if err := os.WriteFile(destination, buf.Bytes(), 0644); err != nil {
		return xerrors.Errorf("writing filtered report: %w", err)
	}
	return nil
}

// PrintSummary prints the selected and total counts and the severity
// breakdown ordered by label.
func PrintSummary(out io.Writer, summary Summary, destination string) {
	fmt.Fprintf(out, "Filtered %d security vulnerabilities from %d total issues\n", summary.Selected, summary.Total)
	fmt.Fprintf(out, "Output saved to: %s\n", destination)
	fmt.Fprintf(out, "\nSeverity breakdown:\n")

	labels := lo.Keys(summary.SeverityBreakdown)
	sort.Strings(labels)
	for _, label := range labels {
		fmt.Fprintf(out, "  %s: %d\n", label, summary.SeverityBreakdown[label])
	}
}
