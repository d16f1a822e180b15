package models

import "time"

// AgentStatus represents the operational state of an agent.
type AgentStatus string

const (
	AgentStatusRunning AgentStatus = "Running"
	AgentStatusIdle    AgentStatus = "Idle"
	AgentStatusError   AgentStatus = "Error"
)

// Agent is a named, configurable workflow unit. Each agent owns at most one
// flowchart document.
type Agent struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"        validate:"required,min=3"`
	Description    string         `json:"description" validate:"required"`
	Status         AgentStatus    `json:"status"      validate:"required,oneof=Running Idle Error"`
	Category       string         `json:"category"`
	Enabled        bool           `json:"enabled"`
	Configuration  map[string]any `json:"configuration,omitempty"` // Opaque agent settings
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	LastActive     time.Time      `json:"lastActive"`
	LastExecution  *time.Time     `json:"lastExecution,omitempty"`
	ExecutionCount int64          `json:"executionCount"`
	CreatedByID    string         `json:"createdById,omitempty"`
}
