package jobs

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the queue every order task runs on.
	QueueDefault = "default"
	// TaskOrderReconcile reconciles the stored totals of one order.
	TaskOrderReconcile = "order:reconcile"
	// TaskOrderReconcileSweep reconciles every non-cancelled order.
	TaskOrderReconcileSweep = "order:reconcile_sweep"
)

// ReconcilePayload identifies the order to reconcile.
type ReconcilePayload struct {
	OrderID uuid.UUID `json:"order_id"`
}

// NewReconcileTask builds a task for one order. Duplicate tasks for the same
// order are collapsed for a minute.
func NewReconcileTask(orderID uuid.UUID) (*asynq.Task, error) {
	body, err := json.Marshal(ReconcilePayload{OrderID: orderID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderReconcile, body,
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(5),
		asynq.Unique(time.Minute),
	), nil
}

// NewSweepTask builds the periodic sweep task. It carries no payload.
func NewSweepTask() (*asynq.Task, error) {
	return asynq.NewTask(TaskOrderReconcileSweep, nil, asynq.Queue(QueueDefault)), nil
}
