// Package worker runs the asynq consumer that delivers department emails.
package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/spec-kit/complaint-service/internal/notification"
	"github.com/spec-kit/complaint-service/internal/queue"
)

// Sender abstracts the mail transport so the worker can be tested without SMTP.
type Sender interface {
	Send(to, subject, htmlBody string) error
}

// DispatchWorker consumes queued notifications and sends them by email.
// Delivery failures never reach back into the intake pipeline; they are
// logged here and retried by the queue until archived.
type DispatchWorker struct {
	sender Sender
	logger *zap.Logger
}

// NewDispatchWorker constructs the worker.
func NewDispatchWorker(sender Sender, logger *zap.Logger) *DispatchWorker {
	return &DispatchWorker{sender: sender, logger: logger}
}

// Handler registers task handlers on an asynq mux.
func (w *DispatchWorker) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskDispatchNotification, w.handleDispatch)
	return mux
}

func (w *DispatchWorker) handleDispatch(_ context.Context, task *asynq.Task) error {
	var n notification.Notification
	if err := json.Unmarshal(task.Payload(), &n); err != nil {
		// Retrying cannot fix a malformed payload; archive it immediately.
		return fmt.Errorf("decode notification payload: %v: %w", err, asynq.SkipRetry)
	}

	if err := w.sender.Send(n.To, n.Subject, n.Body); err != nil {
		w.logger.Error("notification send failed",
			zap.String("complaint_id", n.ComplaintID),
			zap.String("to", n.To),
			zap.Error(err))
		return err
	}

	w.logger.Info("notification sent",
		zap.String("complaint_id", n.ComplaintID),
		zap.String("to", n.To))
	return nil
}
