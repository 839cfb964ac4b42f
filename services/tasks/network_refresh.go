package tasks

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const (
	TypeNetworkRefresh = "network:refresh"
	// refreshUniqueFor collapses repeated sign-ins of one user into a single queued refresh.
	refreshUniqueFor = 30 * time.Second
)

// NetworkRefreshPayload names the user whose network should be reloaded.
type NetworkRefreshPayload struct {
	OwnerID int64 `json:"ownerId"`
}

func NewNetworkRefreshTask(ownerID int64, maxRetry int) (*asynq.Task, []asynq.Option, error) {
	if ownerID <= 0 {
		return nil, nil, fmt.Errorf("invalid owner id %d", ownerID)
	}
	b, err := json.Marshal(NetworkRefreshPayload{OwnerID: ownerID})
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeNetworkRefresh, b)
	opts := []asynq.Option{
		asynq.MaxRetry(maxRetry),
		asynq.Unique(refreshUniqueFor),
		asynq.Timeout(time.Minute),
	}
	return task, opts, nil
}

func ParseNetworkRefreshPayload(task *asynq.Task) (NetworkRefreshPayload, error) {
	var p NetworkRefreshPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return p, fmt.Errorf("invalid %s payload: %w", TypeNetworkRefresh, err)
	}
	if p.OwnerID <= 0 {
		return p, fmt.Errorf("invalid %s payload: missing owner id", TypeNetworkRefresh)
	}
	return p, nil
}

// TaskEnqueuer is satisfied by *asynq.Client.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// RefreshEnqueuer queues network refreshes instead of running them in-process.
type RefreshEnqueuer struct {
	client   TaskEnqueuer
	maxRetry int
	logger   *zap.Logger
}

func NewRefreshEnqueuer(client TaskEnqueuer, maxRetry int, logger *zap.Logger) *RefreshEnqueuer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefreshEnqueuer{client: client, maxRetry: maxRetry, logger: logger.Named("tasks.refresh")}
}

// Enqueue schedules a refresh for ownerID. It never blocks on the refresh itself and
// matches the session gate's signed-in hook.
func (e *RefreshEnqueuer) Enqueue(ownerID int64) {
	task, opts, err := NewNetworkRefreshTask(ownerID, e.maxRetry)
	if err != nil {
		e.logger.Warn("refresh task not built", zap.Error(err))
		return
	}
	info, err := e.client.Enqueue(task, opts...)
	switch {
	case errors.Is(err, asynq.ErrDuplicateTask):
		e.logger.Debug("refresh already queued", zap.Int64("owner", ownerID))
	case err != nil:
		e.logger.Error("failed to enqueue refresh", zap.Int64("owner", ownerID), zap.Error(err))
	default:
		e.logger.Debug("refresh queued", zap.Int64("owner", ownerID), zap.String("task_id", info.ID))
	}
}
