package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/etalasekita/etalase/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStoragePurge removes stored objects no row references any more.
	TaskStoragePurge = "storage:purge"
	// TaskSMERecount refreshes the denormalised product_count of SMEs.
	TaskSMERecount = "smes:recount"
)

// StoragePurgePayload lists object paths inside the asset bucket.
type StoragePurgePayload struct {
	Paths []string `json:"paths"`
}

// SMERecountPayload scopes a recount. An empty list recounts every SME.
type SMERecountPayload struct {
	SMEIDs []int64 `json:"sme_ids,omitempty"`
}

// NewStoragePurgeTask constructs an Asynq task.
func NewStoragePurgeTask(paths []string) (*asynq.Task, error) {
	data, err := json.Marshal(StoragePurgePayload{Paths: paths})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStoragePurge, data, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}

// NewSMERecountTask constructs an Asynq task.
func NewSMERecountTask(ids []int64) (*asynq.Task, error) {
	data, err := json.Marshal(SMERecountPayload{SMEIDs: ids})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSMERecount, data, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}

// ObjectRemover deletes objects from storage.
type ObjectRemover interface {
	Remove(ctx context.Context, paths ...string) error
}

// PurgeJob processes TaskStoragePurge tasks.
type PurgeJob struct {
	remover ObjectRemover
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewPurgeJob constructs a PurgeJob.
func NewPurgeJob(remover ObjectRemover, logger *slog.Logger, metrics *jobmetrics.Metrics) *PurgeJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &PurgeJob{remover: remover, logger: logger, metrics: metrics}
}

// Handle removes the payload's objects. Failures are retried by the queue.
func (j *PurgeJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload StoragePurgePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode purge payload: %v: %w", err, asynq.SkipRetry)
	}
	if len(payload.Paths) == 0 {
		return nil
	}
	tracker := j.metrics.Track(TaskStoragePurge)
	if err := j.remover.Remove(ctx, payload.Paths...); err != nil {
		j.logger.Warn("storage purge failed", slog.Any("paths", payload.Paths), slog.Any("error", err))
		return tracker.End(err)
	}
	j.metrics.AddPurged(len(payload.Paths))
	j.logger.Info("storage objects purged", slog.Int("count", len(payload.Paths)))
	return tracker.End(nil)
}

// ProductCounter refreshes SME product counts, returning the rows touched.
type ProductCounter interface {
	RecountProducts(ctx context.Context, ids []int64) (int64, error)
}

// RecountJob processes TaskSMERecount tasks.
type RecountJob struct {
	counter ProductCounter
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewRecountJob constructs a RecountJob.
func NewRecountJob(counter ProductCounter, logger *slog.Logger, metrics *jobmetrics.Metrics) *RecountJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecountJob{counter: counter, logger: logger, metrics: metrics}
}

// Handle recounts the SMEs named in the payload.
func (j *RecountJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload SMERecountPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("decode recount payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	tracker := j.metrics.Track(TaskSMERecount)
	rows, err := j.counter.RecountProducts(ctx, payload.SMEIDs)
	if err != nil {
		j.logger.Warn("sme recount failed", slog.Any("sme_ids", payload.SMEIDs), slog.Any("error", err))
		return tracker.End(err)
	}
	j.metrics.AddRecounted(rows)
	j.logger.Info("sme product counts refreshed", slog.Int64("rows", rows))
	return tracker.End(nil)
}
