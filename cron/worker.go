package cron

import (
	"context"
	"fmt"

	"circl/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Refresher reloads one user's network.
type Refresher interface {
	Refresh(ctx context.Context, ownerID int64) error
}

// NewRefreshServer builds the asynq server that processes queued network refreshes.
func NewRefreshServer(redisOpts asynq.RedisClientOpt, logger *zap.Logger) *asynq.Server {
	return asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				"default": 1,
			},
			Logger: logger.Named("refresh.worker").Sugar(),
		},
	)
}

// NewRefreshMux routes refresh tasks to r.
func NewRefreshMux(r Refresher, logger *zap.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeNetworkRefresh, handleNetworkRefresh(r, logger))
	return mux
}

// RunRefreshWorker processes tasks until ctx is done, then shuts the server down.
func RunRefreshWorker(ctx context.Context, srv *asynq.Server, mux *asynq.ServeMux) error {
	if err := srv.Start(mux); err != nil {
		return fmt.Errorf("failed to start refresh worker: %w", err)
	}
	<-ctx.Done()
	srv.Shutdown()
	return nil
}

func handleNetworkRefresh(r Refresher, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		p, err := tasks.ParseNetworkRefreshPayload(task)
		if err != nil {
			logger.Warn("dropping refresh task", zap.Error(err))
			// A malformed payload will never succeed.
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		if err := r.Refresh(ctx, p.OwnerID); err != nil {
			logger.Warn("queued refresh failed", zap.Int64("owner", p.OwnerID), zap.Error(err))
			return err
		}
		return nil
	}
}
