package models

import "time"

// ExecutionStatus represents the lifecycle state of an execution record.
type ExecutionStatus string

const (
	ExecutionStatusPending ExecutionStatus = "pending"
	ExecutionStatusRunning ExecutionStatus = "running"
	ExecutionStatusSuccess ExecutionStatus = "success"
	ExecutionStatusFailed  ExecutionStatus = "failed"
)

// LogLevel is the severity of a single execution log line.
type LogLevel string

const (
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// ExecutionLog is one log line emitted during an execution.
type ExecutionLog struct {
	Timestamp time.Time `json:"timestamp"`
	Level     LogLevel  `json:"level"   validate:"required,oneof=info warn error"`
	Message   string    `json:"message" validate:"required"`
}

// Execution is a run record of an agent. Executions are audit data; they are
// never interpreted or replayed.
type Execution struct {
	ID        string          `json:"id"`
	AgentID   string          `json:"agentId" validate:"required"`
	Status    ExecutionStatus `json:"status"  validate:"required,oneof=pending running success failed"`
	StartTime time.Time       `json:"startTime"`
	EndTime   *time.Time      `json:"endTime,omitempty"`
	Result    string          `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	Logs      []ExecutionLog  `json:"logs,omitempty"`
}

// Finished reports whether the execution reached a terminal status.
func (e *Execution) Finished() bool {
	return e.Status == ExecutionStatusSuccess || e.Status == ExecutionStatusFailed
}
