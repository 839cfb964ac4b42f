package tasks

import (
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeClient) Enqueue(task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "t1"}, nil
}

func TestNetworkRefreshTask_Payload(t *testing.T) {
	task, opts, err := NewNetworkRefreshTask(42, 3)
	require.NoError(t, err)
	assert.Equal(t, TypeNetworkRefresh, task.Type())
	assert.Len(t, opts, 3)

	p, err := ParseNetworkRefreshPayload(task)
	require.NoError(t, err)
	assert.Equal(t, int64(42), p.OwnerID)
}

func TestNetworkRefreshTask_Invalid(t *testing.T) {
	_, _, err := NewNetworkRefreshTask(0, 3)
	assert.Error(t, err)

	_, err = ParseNetworkRefreshPayload(asynq.NewTask(TypeNetworkRefresh, []byte(`{}`)))
	assert.Error(t, err)

	_, err = ParseNetworkRefreshPayload(asynq.NewTask(TypeNetworkRefresh, []byte(`nope`)))
	assert.Error(t, err)
}

func TestRefreshEnqueuer(t *testing.T) {
	client := &fakeClient{}
	e := NewRefreshEnqueuer(client, 2, nil)

	e.Enqueue(7)
	e.Enqueue(-1)
	require.Len(t, client.tasks, 1)
	p, err := ParseNetworkRefreshPayload(client.tasks[0])
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.OwnerID)

	client.err = asynq.ErrDuplicateTask
	assert.NotPanics(t, func() { e.Enqueue(7) })
	client.err = errors.New("redis down")
	assert.NotPanics(t, func() { e.Enqueue(7) })
}
