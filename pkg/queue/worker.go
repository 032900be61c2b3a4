package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/bandit-adapter/pkg/etc"
	"github.com/aquasecurity/bandit-adapter/pkg/scan"
)

const lockTTL = 5 * time.Minute

type Worker interface {
	Start(ctx context.Context)
	Stop()
}

type worker struct {
	namespace   string
	channelSize int

	rdb    *redis.Client
	pubsub *redis.PubSub
	wg     sync.WaitGroup

	controller scan.Controller
}

func NewWorker(config etc.JobQueue, rdb *redis.Client, controller scan.Controller) Worker {
	return &worker{
		namespace:   config.Namespace,
		channelSize: config.ChannelSize,
		rdb:         rdb,
		controller:  controller,
	}
}

// Start subscribes to the job channel and processes scan jobs one at a time
// in a background goroutine. Jobs published while a scan runs wait in a
// buffer of channelSize messages; go-redis drops a message once the buffer is
// full for longer than its send timeout.
func (w *worker) Start(ctx context.Context) {
	w.pubsub = w.rdb.Subscribe(ctx, redisJobChannel(w.namespace))
	ch := w.pubsub.Channel(redis.WithChannelSize(w.channelSize))

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.subscribe(ctx, ch)
	}()
}

func (w *worker) Stop() {
	slog.Debug("Job queue shutdown started")
	if w.pubsub != nil {
		_ = w.pubsub.Close()
	}
	w.wg.Wait()
	slog.Debug("Job queue shutdown completed")
}

func (w *worker) subscribe(ctx context.Context, ch <-chan *redis.Message) {
	for msg := range ch {
		chLog := slog.With(
			slog.String("channel", msg.Channel),
			slog.String("payload", msg.Payload),
		)
		chLog.Debug("Message subscribed")

		if err := w.scanSource(ctx, msg); err != nil {
			chLog.Error("Failed to scan source", slog.String("err", err.Error()))
			continue
		}
	}
}

func (w *worker) scanSource(ctx context.Context, msg *redis.Message) error {
	var j Job
	if err := json.Unmarshal([]byte(msg.Payload), &j); err != nil {
		return xerrors.Errorf("unmarshalling scan request: %w", err)
	}
	if j.Args.ScanRequest == nil {
		return xerrors.Errorf("scan job %s has no scan request", j.ID)
	}

	// Another replica subscribed to the same channel may have taken the job.
	nx, err := w.rdb.SetNX(ctx, redisLockKey(w.namespace, j.ID), "", lockTTL).Result()
	if err != nil {
		return xerrors.Errorf("redis lock: %w", err)
	} else if !nx {
		slog.Debug("Skip the locked job", slog.String("scan_job_id", j.ID))
		return nil
	}

	slog.Debug("Executing enqueued scan job", slog.String("scan_job_id", j.ID))
	return w.controller.Scan(ctx, j.ID, *j.Args.ScanRequest)
}

func redisLockKey(namespace, jobID string) string {
	return redisJobChannel(namespace) + ":lock:" + jobID
}
