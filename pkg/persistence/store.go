package persistence

import (
	"context"

	"github.com/aquasecurity/bandit-adapter/pkg/job"
)

type Store interface {
	Create(ctx context.Context, scanJob job.ScanJob) error
	Get(ctx context.Context, scanJobID string) (*job.ScanJob, error)
	UpdateStatus(ctx context.Context, scanJobID string, newStatus job.ScanJobStatus, error ...string) error
	UpdateResult(ctx context.Context, scanJobID string, result job.ScanResult) error
}
