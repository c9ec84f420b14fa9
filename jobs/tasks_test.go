package jobs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/etalasekita/etalase/internal/jobs"
)

type fakeRemover struct {
	paths []string
	err   error
}

func (f *fakeRemover) Remove(ctx context.Context, paths ...string) error {
	f.paths = append(f.paths, paths...)
	return f.err
}

type fakeCounter struct {
	ids  []int64
	rows int64
	err  error
}

func (f *fakeCounter) RecountProducts(ctx context.Context, ids []int64) (int64, error) {
	f.ids = ids
	return f.rows, f.err
}

func TestPurgeJobRemovesPayloadPaths(t *testing.T) {
	remover := &fakeRemover{}
	job := NewPurgeJob(remover, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewStoragePurgeTask([]string{"products/1-a.png"})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, []string{"products/1-a.png"}, remover.paths)
}

func TestPurgeJobPropagatesFailureForRetry(t *testing.T) {
	job := NewPurgeJob(&fakeRemover{err: errors.New("timeout")}, nil, nil)
	task, err := NewStoragePurgeTask([]string{"smes/1-logo.png"})
	require.NoError(t, err)

	err = job.Handle(context.Background(), task)
	require.Error(t, err)
	assert.False(t, errors.Is(err, asynq.SkipRetry))
}

func TestPurgeJobSkipsRetryOnBadPayload(t *testing.T) {
	job := NewPurgeJob(&fakeRemover{}, nil, nil)
	err := job.Handle(context.Background(), asynq.NewTask(TaskStoragePurge, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestRecountJob(t *testing.T) {
	counter := &fakeCounter{rows: 2}
	job := NewRecountJob(counter, nil, jobmetrics.NewMetrics(prometheus.NewRegistry()))

	task, err := NewSMERecountTask([]int64{4, 9})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, []int64{4, 9}, counter.ids)

	// The nightly cron task carries no ids and recounts everything.
	counter.ids = []int64{1}
	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(TaskSMERecount, nil)))
	assert.Nil(t, counter.ids)
}

func TestNilClientIsDisabled(t *testing.T) {
	var client *Client
	assert.ErrorIs(t, client.EnqueuePurge(context.Background(), "a"), ErrQueueDisabled)
	assert.ErrorIs(t, client.EnqueueRecount(context.Background(), 1), ErrQueueDisabled)
	assert.NoError(t, client.Close())
}

type fakeInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (f fakeInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return f.info, f.err
}

func TestHealthEndpoint(t *testing.T) {
	h := NewHandler(fakeInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 3, Retry: 1}}, nil)
	rec := httptest.NewRecorder()
	h.health(rec, httptest.NewRequest(http.MethodGet, "/admin/jobs/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"queue":"default","pending":3,"active":0,"scheduled":0,"retry":1,"archived":0,"paused":false}`, rec.Body.String())

	h = NewHandler(nil, nil)
	rec = httptest.NewRecorder()
	h.health(rec, httptest.NewRequest(http.MethodGet, "/admin/jobs/health", nil))
	assert.JSONEq(t, `{"queue":"default","pending":0,"active":0,"scheduled":0,"retry":0,"archived":0,"paused":false}`, rec.Body.String())

	h = NewHandler(fakeInspector{err: errors.New("redis down")}, nil)
	rec = httptest.NewRecorder()
	h.health(rec, httptest.NewRequest(http.MethodGet, "/admin/jobs/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNewWorkerRejectsBadHandlerSets(t *testing.T) {
	noop := func(context.Context, *asynq.Task) error { return nil }
	opts := asynq.RedisClientOpt{Addr: "127.0.0.1:0"}

	_, err := NewWorker(WorkerConfig{RedisOpts: opts, Handlers: []TaskHandler{
		{Type: TaskSMERecount, Handler: noop},
		{Type: TaskSMERecount, Handler: noop},
	}})
	assert.ErrorContains(t, err, "duplicate handler")

	task, err := NewStoragePurgeTask([]string{"a"})
	require.NoError(t, err)
	_, err = NewWorker(WorkerConfig{
		RedisOpts: opts,
		Handlers:  []TaskHandler{{Type: TaskSMERecount, Handler: noop}},
		Cron:      []CronRegistration{{Spec: "0 3 * * *", Task: task}},
	})
	assert.ErrorContains(t, err, "has no handler")
}

func TestEnqueueRecountDropsDuplicates(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(asynq.RedisClientOpt{Addr: mr.Addr()})
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.EnqueueRecount(context.Background(), 1, 2))
	require.NoError(t, client.EnqueueRecount(context.Background(), 1, 2))
	require.NoError(t, client.EnqueuePurge(context.Background(), "products/a.png"))

	pending, err := mr.List("asynq:{default}:pending")
	require.NoError(t, err)
	assert.Len(t, pending, 1)
	scheduled, err := mr.ZMembers("asynq:{default}:scheduled")
	require.NoError(t, err)
	assert.Len(t, scheduled, 1)
}
