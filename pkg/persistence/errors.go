// Package persistence provides standardized error types for persistence
// operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrFlowchartNotFound indicates a flowchart was not found by the given identifier.
	ErrFlowchartNotFound = errors.New("flowchart not found")

	// ErrAgentNotFound indicates an agent was not found by the given identifier.
	ErrAgentNotFound = errors.New("agent not found")

	// ErrExecutionNotFound indicates an execution was not found by the given identifier.
	ErrExecutionNotFound = errors.New("execution not found")

	// ErrFlowchartAlreadyExists indicates the agent already owns a flowchart.
	ErrFlowchartAlreadyExists = errors.New("flowchart already exists for agent")
)

// FlowchartError wraps flowchart-related errors with additional context.
type FlowchartError struct {
	Op          string // Operation being performed (e.g., "GetByAgentID", "Save", "Delete")
	FlowchartID string // Flowchart ID if applicable
	AgentID     string // Owning agent ID if applicable
	Err         error  // Underlying error
}

func (e *FlowchartError) Error() string {
	target := e.FlowchartID
	if e.AgentID != "" {
		target = fmt.Sprintf("agent %s", e.AgentID)
	}

	return fmt.Sprintf("%s operation failed for flowchart %s: %v", e.Op, target, e.Err)
}

func (e *FlowchartError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for flowchart errors.
func (e *FlowchartError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewFlowchartError creates a new flowchart error with context.
func NewFlowchartError(op, flowchartID string, err error) *FlowchartError {
	return &FlowchartError{
		Op:          op,
		FlowchartID: flowchartID,
		Err:         err,
	}
}

// NewFlowchartAgentError creates a new flowchart error for agent-scoped operations.
func NewFlowchartAgentError(op, agentID string, err error) *FlowchartError {
	return &FlowchartError{
		Op:      op,
		AgentID: agentID,
		Err:     err,
	}
}

// AgentError wraps agent-related errors with additional context.
type AgentError struct {
	Op      string
	AgentID string
	Err     error
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("%s operation failed for agent %s: %v", e.Op, e.AgentID, e.Err)
}

func (e *AgentError) Unwrap() error {
	return e.Err
}

func (e *AgentError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewAgentError creates a new agent error with context.
func NewAgentError(op, agentID string, err error) *AgentError {
	return &AgentError{Op: op, AgentID: agentID, Err: err}
}

// IsFlowchartNotFound checks if an error indicates a flowchart was not found.
func IsFlowchartNotFound(err error) bool {
	return errors.Is(err, ErrFlowchartNotFound)
}

// IsAgentNotFound checks if an error indicates an agent was not found.
func IsAgentNotFound(err error) bool {
	return errors.Is(err, ErrAgentNotFound)
}

// IsExecutionNotFound checks if an error indicates an execution was not found.
func IsExecutionNotFound(err error) bool {
	return errors.Is(err, ErrExecutionNotFound)
}

// IsFlowchartAlreadyExists checks if an error indicates an agent already owns a flowchart.
func IsFlowchartAlreadyExists(err error) bool {
	return errors.Is(err, ErrFlowchartAlreadyExists)
}
