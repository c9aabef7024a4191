// Package queue enqueues detached work onto the Redis-backed task queue so
// the intake request never waits on delivery.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/spec-kit/complaint-service/internal/notification"
)

const (
	// TaskDispatchNotification is scheduled once per persisted complaint.
	TaskDispatchNotification = "notification:dispatch"

	// dispatchMaxRetry bounds redelivery attempts; exhausted tasks land in
	// the asynq archive, which serves as the dead-letter record.
	dispatchMaxRetry = 3
)

// Dispatcher enqueues notifications for asynchronous delivery. It implements
// notification.Dispatcher.
type Dispatcher struct {
	client *asynq.Client
}

// NewDispatcher wraps an asynq client.
func NewDispatcher(client *asynq.Client) *Dispatcher {
	return &Dispatcher{client: client}
}

// Dispatch serializes the notification and enqueues the delivery task.
func (d *Dispatcher) Dispatch(ctx context.Context, n notification.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	task := asynq.NewTask(TaskDispatchNotification, payload)
	if _, err := d.client.EnqueueContext(ctx, task, asynq.MaxRetry(dispatchMaxRetry)); err != nil {
		return fmt.Errorf("enqueue notification task: %w", err)
	}
	return nil
}
