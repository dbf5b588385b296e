package domain

import "time"

// Standard topic names for batch lifecycle events.
const (
	TopicBatchProcessed = "batch.processed"
	TopicTableActivated = "table.activated"
)

// BatchProcessedEvent is published after every successful batch run.
// The worker consumes it to persist an audit row and fold the summary
// into the per-company stats.
type BatchProcessedEvent struct {
	BatchID    string    `json:"batchId"`
	Company    string    `json:"company"`
	TableName  string    `json:"tableName"`
	Summary    Summary   `json:"summary"`
	DurationMs int64     `json:"durationMs"`
	Timestamp  time.Time `json:"timestamp"`
}

// TableActivatedEvent is published when a new decision table is swapped
// into the engine.
type TableActivatedEvent struct {
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	RuleCount int       `json:"ruleCount"`
	Timestamp time.Time `json:"timestamp"`
}
