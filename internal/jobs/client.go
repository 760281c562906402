package jobs

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Client submits order tasks to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an asynq-backed client.
func NewClient(redisOpts asynq.RedisConnOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// EnqueueReconcile queues a reconciliation of orderID and returns the task id.
func (c *Client) EnqueueReconcile(ctx context.Context, orderID uuid.UUID) (string, error) {
	task, err := NewReconcileTask(orderID)
	if err != nil {
		return "", err
	}
	info, err := c.client.EnqueueContext(ctx, task)
	if err != nil {
		return "", fmt.Errorf("enqueue %s: %w", TaskOrderReconcile, err)
	}
	return info.ID, nil
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
