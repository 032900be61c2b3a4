package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/aquasecurity/bandit-adapter/pkg/bandit"
)

type Wrapper struct {
	mock.Mock
}

func NewWrapper() *Wrapper {
	return &Wrapper{}
}

func (w *Wrapper) Scan(ctx context.Context, target bandit.Target, progress bandit.Progress) (bandit.ScanResult, error) {
	args := w.Called(ctx, target, progress)
	return args.Get(0).(bandit.ScanResult), args.Error(1)
}

func (w *Wrapper) GetVersion(ctx context.Context) (string, error) {
	args := w.Called(ctx)
	return args.String(0), args.Error(1)
}
