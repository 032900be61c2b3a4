package mock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/aquasecurity/bandit-adapter/pkg/job"
)

type Store struct {
	mock.Mock
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) Create(ctx context.Context, scanJob job.ScanJob) error {
	args := s.Called(ctx, scanJob)
	return args.Error(0)
}

func (s *Store) Get(ctx context.Context, scanJobID string) (*job.ScanJob, error) {
	args := s.Called(ctx, scanJobID)
	return args.Get(0).(*job.ScanJob), args.Error(1)
}

func (s *Store) UpdateStatus(ctx context.Context, scanJobID string, newStatus job.ScanJobStatus, error ...string) error {
	args := s.Called(ctx, scanJobID, newStatus, error)
	return args.Error(0)
}

func (s *Store) UpdateResult(ctx context.Context, scanJobID string, result job.ScanResult) error {
	args := s.Called(ctx, scanJobID, result)
	return args.Error(0)
}
