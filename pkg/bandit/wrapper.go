package bandit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/xerrors"

	"github.com/aquasecurity/bandit-adapter/pkg/etc"
	"github.com/aquasecurity/bandit-adapter/pkg/ext"
	"github.com/aquasecurity/bandit-adapter/pkg/metrics"
)

const timestampLayout = "20060102_150405"

type Format string

const (
	FormatJSON Format = "json"
	FormatHTML Format = "html"
	FormatText Format = "txt"
)

// Target is a source tree to scan. Label names the directory that receives
// the reports.
type Target struct {
	Source string `json:"source"`
	Label  string `json:"label"`
}

// Invocation is the outcome of a single bandit run.
type Invocation struct {
	Name     string        `json:"name"`
	Format   Format        `json:"format"`
	Output   string        `json:"output"`
	ExitCode int           `json:"exit_code"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

func (i Invocation) Failed() bool {
	return i.Error != ""
}

type ScanResult struct {
	Target
	OutputDir   string       `json:"output_dir"`
	Timestamp   string       `json:"timestamp"`
	Invocations []Invocation `json:"invocations"`
}

// JSONReport returns the path of the JSON report if that invocation succeeded.
func (r ScanResult) JSONReport() (string, bool) {
	for _, inv := range r.Invocations {
		if inv.Format == FormatJSON && !inv.Failed() {
			return inv.Output, true
		}
	}
	return "", false
}

// Failures returns the number of invocations that could not be completed.
func (r ScanResult) Failures() (n int) {
	for _, inv := range r.Invocations {
		if inv.Failed() {
			n++
		}
	}
	return
}

type scanSpec struct {
	name   string
	prefix string
	format Format
	flags  []string
}

var scanPlan = []scanSpec{
	{name: "Full JSON Report", prefix: "full_scan", format: FormatJSON},
	{name: "Full HTML Report", prefix: "full_scan", format: FormatHTML},
	{name: "Full Text Report", prefix: "full_scan", format: FormatText},
	{name: "High Severity Only", prefix: "high_severity", format: FormatText, flags: []string{"-ll"}},
}

func (s scanSpec) args(source, output string) []string {
	args := []string{"-r", source}
	args = append(args, s.flags...)
	return append(args, "-f", string(s.format), "-o", output)
}

// Progress receives notifications while a target is being scanned.
type Progress interface {
	TargetStarted(target Target)
	InvocationStarted(name string)
	InvocationFinished(inv Invocation)
	TargetFinished(target Target)
}

type Wrapper interface {
	Scan(ctx context.Context, target Target, progress Progress) (ScanResult, error)
	GetVersion(ctx context.Context) (string, error)
}

type wrapper struct {
	config     etc.Bandit
	ambassador ext.Ambassador
}

func NewWrapper(config etc.Bandit, ambassador ext.Ambassador) Wrapper {
	return &wrapper{
		config:     config,
		ambassador: ambassador,
	}
}

// Scan runs every invocation of the scan plan against the target, one after
// another. A failing invocation is recorded in the result and does not stop
// the remaining ones. The returned error is reserved for problems that
// prevent scanning altogether.
func (w *wrapper) Scan(ctx context.Context, target Target, progress Progress) (ScanResult, error) {
	if progress == nil {
		progress = nopProgress{}
	}
	progress.TargetStarted(target)

	outputDir := filepath.Join(w.config.ResultsDir, target.Label)
	if err := w.ambassador.MkdirAll(outputDir, 0755); err != nil {
		return ScanResult{}, xerrors.Errorf("creating output dir: %w", err)
	}

	result := ScanResult{
		Target:      target,
		OutputDir:   outputDir,
		Timestamp:   w.ambassador.Now().Format(timestampLayout),
		Invocations: make([]Invocation, 0, len(scanPlan)),
	}

	executable, lookErr := w.ambassador.LookPath(w.config.Executable)
	if lookErr != nil {
		slog.Error("Cannot locate bandit executable",
			slog.String("executable", w.config.Executable),
			slog.String("err", lookErr.Error()),
		)
	}

	for _, spec := range scanPlan {
		progress.InvocationStarted(spec.name)

		output := filepath.Join(outputDir, fmt.Sprintf("%s_%s.%s", spec.prefix, result.Timestamp, spec.format))
		inv := Invocation{
			Name:   spec.name,
			Format: spec.format,
			Output: output,
		}
		if lookErr != nil {
			inv.Error = xerrors.Errorf("locating bandit executable: %w", lookErr).Error()
		} else {
			w.invoke(ctx, executable, spec.args(target.Source, output), &inv)
		}

		outcome := "completed"
		if inv.Failed() {
			outcome = "failed"
		}
		metrics.Invocations.WithLabelValues(string(inv.Format), outcome).Inc()

		result.Invocations = append(result.Invocations, inv)
		progress.InvocationFinished(inv)
	}

	progress.TargetFinished(target)
	return result, nil
}

func (w *wrapper) invoke(ctx context.Context, executable string, args []string, inv *Invocation) {
	ctx, cancel := context.WithTimeout(ctx, w.config.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, executable, args...)
	cmd.Env = w.ambassador.Environ()

	slog.Debug("Running bandit",
		slog.String("name", inv.Name),
		slog.String("args", strings.Join(args, " ")),
	)

	start := time.Now()
	out, err := w.ambassador.RunCmd(cmd)
	inv.Duration = time.Since(start)

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case ctx.Err() != nil:
		inv.Error = fmt.Sprintf("running bandit: %v", ctx.Err())
	case errors.As(err, &exitErr):
		// Bandit exits with 1 whenever it reports issues.
		inv.ExitCode = exitErr.ExitCode()
	default:
		inv.Error = fmt.Sprintf("running bandit: %v", err)
	}

	slog.Debug("Bandit finished",
		slog.String("name", inv.Name),
		slog.Int("exit_code", inv.ExitCode),
		slog.Duration("duration", inv.Duration),
		slog.String("output", string(out)),
	)
}

func (w *wrapper) GetVersion(ctx context.Context) (string, error) {
	executable, err := w.ambassador.LookPath(w.config.Executable)
	if err != nil {
		return "", xerrors.Errorf("locating bandit executable: %w", err)
	}

	cmd := exec.CommandContext(ctx, executable, "--version")
	cmd.Env = w.ambassador.Environ()

	out, err := w.ambassador.RunCmd(cmd)
	if err != nil {
		return "", xerrors.Errorf("running bandit: %v: %v", err, string(out))
	}

	return parseVersion(string(out))
}

// parseVersion extracts the version from the first line of `bandit --version`,
// e.g. "bandit 1.7.5".
func parseVersion(out string) (string, error) {
	firstLine, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	fields := strings.Fields(firstLine)
	if len(fields) < 2 || fields[0] != "bandit" {
		return "", xerrors.Errorf("unexpected bandit version output: %q", firstLine)
	}
	return fields[1], nil
}

type nopProgress struct{}

func (nopProgress) TargetStarted(Target)          {}
func (nopProgress) InvocationStarted(string)      {}
func (nopProgress) InvocationFinished(Invocation) {}
func (nopProgress) TargetFinished(Target)         {}
