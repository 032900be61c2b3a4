package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/aquasecurity/bandit-adapter/pkg/job"
)

type Enqueuer struct {
	mock.Mock
}

func NewEnqueuer() *Enqueuer {
	return &Enqueuer{}
}

func (em *Enqueuer) Enqueue(ctx context.Context, request job.ScanRequest) (job.ScanJob, error) {
	args := em.Called(ctx, request)
	return args.Get(0).(job.ScanJob), args.Error(1)
}
