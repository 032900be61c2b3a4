package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testifymock "github.com/stretchr/testify/mock"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/bandit-adapter/pkg/etc"
	"github.com/aquasecurity/bandit-adapter/pkg/job"
	"github.com/aquasecurity/bandit-adapter/pkg/mock"
)

const testNamespace = "bandit.adapter:job-queue"

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestEnqueuer_Enqueue(t *testing.T) {
	ctx := context.TODO()
	request := job.ScanRequest{Source: "httpie", Label: "httpie"}

	t.Run("Should create queued job and publish it", func(t *testing.T) {
		_, rdb := newTestClient(t)

		sub := rdb.Subscribe(ctx, redisJobChannel(testNamespace))
		t.Cleanup(func() { _ = sub.Close() })
		_, err := sub.Receive(ctx)
		require.NoError(t, err)

		store := mock.NewStore()
		store.On("Create", ctx, testifymock.AnythingOfType("job.ScanJob")).Return(nil)

		scanJob, err := NewEnqueuer(etc.JobQueue{Namespace: testNamespace}, rdb, store).Enqueue(ctx, request)
		require.NoError(t, err)
		assert.Len(t, scanJob.ID, 24)
		assert.Equal(t, job.Queued, scanJob.Status)
		store.AssertCalled(t, "Create", ctx, scanJob)

		var msg *redis.Message
		select {
		case msg = <-sub.Channel():
		case <-time.After(5 * time.Second):
			t.Fatal("scan job was not published")
		}

		var published Job
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &published))
		assert.Equal(t, Job{
			Name: scanSourceJobName,
			ID:   scanJob.ID,
			Args: Args{ScanRequest: &request},
		}, published)
	})

	t.Run("Should return error when scan job cannot be created", func(t *testing.T) {
		_, rdb := newTestClient(t)

		store := mock.NewStore()
		store.On("Create", ctx, testifymock.AnythingOfType("job.ScanJob")).Return(xerrors.New("connection refused"))

		_, err := NewEnqueuer(etc.JobQueue{Namespace: testNamespace}, rdb, store).Enqueue(ctx, request)
		assert.EqualError(t, err, "creating scan job: connection refused")
	})
}
