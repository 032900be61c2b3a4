package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aquasecurity/bandit-adapter/pkg/bandit"
	"github.com/aquasecurity/bandit-adapter/pkg/etc"
	"github.com/aquasecurity/bandit-adapter/pkg/ext"
	"github.com/aquasecurity/bandit-adapter/pkg/http/api"
	v1 "github.com/aquasecurity/bandit-adapter/pkg/http/api/v1"
	"github.com/aquasecurity/bandit-adapter/pkg/metrics"
	"github.com/aquasecurity/bandit-adapter/pkg/persistence/redis"
	"github.com/aquasecurity/bandit-adapter/pkg/queue"
	"github.com/aquasecurity/bandit-adapter/pkg/redisx"
	"github.com/aquasecurity/bandit-adapter/pkg/scan"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(info etc.BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the scan service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), info)
		},
	}
}

func serve(ctx context.Context, info etc.BuildInfo) error {
	slog.Info("Starting bandit-adapter",
		slog.String("version", info.Version),
		slog.String("commit", info.Commit),
		slog.String("built_at", info.Date),
	)

	config, err := etc.GetConfig()
	if err != nil {
		return fmt.Errorf("getting config: %w", err)
	}
	if err = etc.Check(config); err != nil {
		return fmt.Errorf("checking config: %w", err)
	}

	rdb, err := redisx.NewClient(config.RedisPool)
	if err != nil {
		return fmt.Errorf("constructing connection pool: %w", err)
	}
	defer func() {
		_ = rdb.Close()
	}()

	wrapper := bandit.NewWrapper(config.Bandit, ext.DefaultAmbassador)
	store := redis.NewStore(config.RedisStore, rdb)
	enqueuer := queue.NewEnqueuer(config.JobQueue, rdb, store)
	controller := scan.NewController(config.Bandit, store, wrapper)
	worker := queue.NewWorker(config.JobQueue, rdb, controller)

	apiHandler := v1.NewAPIHandler(enqueuer, store, wrapper)
	apiServer := api.NewServer(config.API, apiHandler)

	var metricsServer *metrics.Server
	if config.Metrics.IsEnabled() {
		metricsServer = metrics.NewServer(config.Metrics)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker.Start(ctx)
	apiServer.ListenAndServe()
	if metricsServer != nil {
		metricsServer.ListenAndServe()
	}

	<-ctx.Done()
	slog.Debug("Trapped os signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	apiServer.Shutdown(shutdownCtx)
	if metricsServer != nil {
		metricsServer.Shutdown(shutdownCtx)
	}
	worker.Stop()

	return nil
}
