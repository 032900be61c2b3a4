package queue

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/bandit-adapter/pkg/etc"
	"github.com/aquasecurity/bandit-adapter/pkg/job"
	"github.com/aquasecurity/bandit-adapter/pkg/persistence"
)

const scanSourceJobName = "scan_source"

type Enqueuer interface {
	Enqueue(ctx context.Context, request job.ScanRequest) (job.ScanJob, error)
}

type enqueuer struct {
	namespace string
	rdb       *redis.Client
	store     persistence.Store
}

type Job struct {
	Name string
	ID   string
	Args Args
}

type Args struct {
	ScanRequest *job.ScanRequest `json:",omitempty"`
}

func NewEnqueuer(config etc.JobQueue, rdb *redis.Client, store persistence.Store) Enqueuer {
	return &enqueuer{
		namespace: config.Namespace,
		rdb:       rdb,
		store:     store,
	}
}

func (e *enqueuer) Enqueue(ctx context.Context, request job.ScanRequest) (job.ScanJob, error) {
	slog.Debug("Enqueueing scan job")
	j := Job{
		Name: scanSourceJobName,
		ID:   makeIdentifier(),
		Args: Args{
			ScanRequest: &request,
		},
	}

	scanJob := job.ScanJob{
		ID:     j.ID,
		Status: job.Queued,
	}

	if err := e.store.Create(ctx, scanJob); err != nil {
		return job.ScanJob{}, xerrors.Errorf("creating scan job: %w", err)
	}

	b, err := json.Marshal(j)
	if err != nil {
		return job.ScanJob{}, xerrors.Errorf("marshalling scan request: %w", err)
	}

	if err = e.rdb.Publish(ctx, redisJobChannel(e.namespace), b).Err(); err != nil {
		return job.ScanJob{}, xerrors.Errorf("enqueuing scan source job: %w", err)
	}

	slog.Debug("Successfully enqueued scan job", slog.String("scan_job_id", j.ID))

	return scanJob, nil
}

func makeIdentifier() string {
	b := make([]byte, 12)
	_, err := io.ReadFull(rand.Reader, b)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%x", b)
}

func redisJobChannel(namespace string) string {
	return namespace + ":jobs:" + scanSourceJobName
}
