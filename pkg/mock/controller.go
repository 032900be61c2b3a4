package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/aquasecurity/bandit-adapter/pkg/job"
)

type Controller struct {
	mock.Mock
}

func NewController() *Controller {
	return &Controller{}
}

func (c *Controller) Scan(ctx context.Context, scanJobID string, request job.ScanRequest) error {
	args := c.Called(ctx, scanJobID, request)
	return args.Error(0)
}
