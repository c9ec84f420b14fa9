package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/hibiken/asynq"
)

// ErrQueueDisabled is returned by a nil Client.
var ErrQueueDisabled = errors.New("jobs: queue not configured")

// purgeDelay gives a just-failed upload a moment to settle before deletion.
const purgeDelay = 30 * time.Second

// recountWindow collapses identical recount requests fired in quick succession.
const recountWindow = time.Minute

// Client submits jobs to the queue. A nil *Client rejects every enqueue with
// ErrQueueDisabled so callers can log and carry on.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) (*Client, error) {
	if redisOpts.Addr == "" {
		return nil, errors.New("jobs: redis address required")
	}
	return &Client{client: asynq.NewClient(redisOpts)}, nil
}

// EnqueuePurge schedules removal of storage objects.
func (c *Client) EnqueuePurge(ctx context.Context, paths ...string) error {
	if c == nil || c.client == nil {
		return ErrQueueDisabled
	}
	if len(paths) == 0 {
		return nil
	}
	task, err := NewStoragePurgeTask(paths)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.ProcessIn(purgeDelay))
	return err
}

// EnqueueRecount schedules a product_count refresh for the given SMEs. A
// request identical to one still pending is dropped silently.
func (c *Client) EnqueueRecount(ctx context.Context, smeIDs ...int64) error {
	if c == nil || c.client == nil {
		return ErrQueueDisabled
	}
	if len(smeIDs) == 0 {
		return nil
	}
	task, err := NewSMERecountTask(smeIDs)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Unique(recountWindow))
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

// Close releases client resources.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
