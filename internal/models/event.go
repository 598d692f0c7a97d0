package models

import "time"

// Monitor event type constants
const (
	EventTaskCompleted  = "TASK_COMPLETED"
	EventTaskFailed     = "TASK_FAILED"
	EventAlertTriggered = "ALERT_TRIGGERED"
)

// MonitorEvent represents a Kafka event emitted by the monitoring pipeline
type MonitorEvent struct {
	EventType string        `json:"event_type"`
	TaskID    int           `json:"task_id,omitempty"`
	TaskType  string        `json:"task_type"`
	Status    TaskStatus    `json:"status,omitempty"`
	Error     string        `json:"error,omitempty"`
	Alert     string        `json:"alert,omitempty"`
	Snapshot  *FundSnapshot `json:"snapshot,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}
