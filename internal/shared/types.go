package shared

// Task types
const (
	TypeSweepOverdue = "borrowing:sweep_overdue"
)

// Queues and their asynq weights.
const (
	QueueBorrowing = "borrowing"
	QueueDefault   = "default"
)

// QueueWeights is the worker's queue priority table.
var QueueWeights = map[string]int{
	QueueBorrowing: 10,
	QueueDefault:   5,
}

// SweepOverduePayload is the body of a TypeSweepOverdue task.
type SweepOverduePayload struct {
	// CorrelationID ties worker logs to the request or schedule that enqueued the sweep.
	CorrelationID string `json:"correlation_id,omitempty"`
	RequestedBy   string `json:"requested_by,omitempty"`
}
