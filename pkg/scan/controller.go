package scan

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/opencontainers/go-digest"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/bandit-adapter/pkg/bandit"
	"github.com/aquasecurity/bandit-adapter/pkg/etc"
	"github.com/aquasecurity/bandit-adapter/pkg/filter"
	"github.com/aquasecurity/bandit-adapter/pkg/job"
	"github.com/aquasecurity/bandit-adapter/pkg/metrics"
	"github.com/aquasecurity/bandit-adapter/pkg/persistence"
)

type Controller interface {
	Scan(ctx context.Context, scanJobID string, request job.ScanRequest) error
}

type controller struct {
	config  etc.Bandit
	store   persistence.Store
	wrapper bandit.Wrapper
}

func NewController(config etc.Bandit, store persistence.Store, wrapper bandit.Wrapper) Controller {
	return &controller{
		config:  config,
		store:   store,
		wrapper: wrapper,
	}
}

func (c *controller) Scan(ctx context.Context, scanJobID string, request job.ScanRequest) error {
	if err := c.scan(ctx, scanJobID, request); err != nil {
		slog.Error("Scan failed",
			slog.String("scan_job_id", scanJobID),
			slog.String("err", err.Error()),
		)
		metrics.ScanJobs.WithLabelValues(job.Failed.String()).Inc()
		if err = c.store.UpdateStatus(ctx, scanJobID, job.Failed, err.Error()); err != nil {
			return xerrors.Errorf("updating scan job as failed: %v", err)
		}
		return nil
	}
	metrics.ScanJobs.WithLabelValues(job.Finished.String()).Inc()
	return nil
}

func (c *controller) scan(ctx context.Context, scanJobID string, req job.ScanRequest) error {
	if err := c.store.UpdateStatus(ctx, scanJobID, job.Pending); err != nil {
		return xerrors.Errorf("updating scan job status: %v", err)
	}

	target := bandit.Target{
		Source: filepath.Join(c.config.SourcesDir, req.Source),
		Label:  req.Label,
	}

	scanResult, err := c.wrapper.Scan(ctx, target, nil)
	if err != nil {
		return xerrors.Errorf("running bandit wrapper: %v", err)
	}

	reportPath, ok := scanResult.JSONReport()
	if !ok {
		return xerrors.Errorf("bandit JSON report not produced for %s", target.Source)
	}

	reportDigest, err := digestFile(reportPath)
	if err != nil {
		return err
	}

	filteredPath := filepath.Join(scanResult.OutputDir, filter.DefaultOutputName)
	summary, err := filter.Run(reportPath, filteredPath, io.Discard)
	if err != nil {
		return xerrors.Errorf("filtering bandit report: %v", err)
	}

	slog.Info("Scan completed",
		slog.String("scan_job_id", scanJobID),
		slog.String("source", target.Source),
		slog.Int("selected", summary.Selected),
		slog.Int("total", summary.Total),
		slog.Int("failed_invocations", scanResult.Failures()),
	)

	result := job.ScanResult{
		Scan:         scanResult,
		FilteredPath: filteredPath,
		ReportDigest: reportDigest.String(),
		Summary:      summary,
	}
	if err = c.store.UpdateResult(ctx, scanJobID, result); err != nil {
		return xerrors.Errorf("saving scan result: %v", err)
	}

	if err = c.store.UpdateStatus(ctx, scanJobID, job.Finished); err != nil {
		return xerrors.Errorf("updating scan job status: %v", err)
	}

	return nil
}

func digestFile(path string) (digest.Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", xerrors.Errorf("opening bandit report: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	d, err := digest.FromReader(f)
	if err != nil {
		return "", xerrors.Errorf("digesting bandit report: %w", err)
	}
	return d, nil
}
