package jobs

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
)

// integrityUniqueness keeps a company from queueing overlapping scans.
const integrityUniqueness = 10 * time.Minute

// Client submits ledger tasks.
type Client struct {
	client *asynq.Client
}

// NewClient constructs a Client.
func NewClient(redisOpts asynq.RedisConnOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// EnqueueGLIntegrity queues an integrity scan; companyID zero scans every company.
// A scan already waiting for the same scope returns asynq.ErrDuplicateTask.
func (c *Client) EnqueueGLIntegrity(ctx context.Context, companyID int64) (*asynq.TaskInfo, error) {
	task, err := NewGLIntegrityTask(companyID)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueLedger),
		asynq.MaxRetry(3),
		asynq.Unique(integrityUniqueness))
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
