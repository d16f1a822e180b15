// Package web provides HTTP handlers and REST API endpoints for the agent
// dashboard.
package web

import "github.com/agentdash/agentdash/pkg/models"

// CreateFlowchartRequest represents the request body for creating a
// flowchart. Omitted layout and metadata receive defaults.
type CreateFlowchartRequest struct {
	Version     string                        `json:"version,omitempty"`
	Nodes       []*models.FlowchartNode       `json:"nodes"`
	Connections []*models.FlowchartConnection `json:"connections"`
	Layout      *models.FlowchartLayout       `json:"layout,omitempty"`
	Metadata    *models.FlowchartMetadata     `json:"metadata,omitempty"`
}

// UpdateFlowchartRequest represents the request body for updating an
// existing flowchart. All fields are optional to support partial updates;
// absent fields keep their current values.
type UpdateFlowchartRequest struct {
	Version     *string                       `json:"version,omitempty"`
	Nodes       []*models.FlowchartNode       `json:"nodes,omitempty"`
	Connections []*models.FlowchartConnection `json:"connections,omitempty"`
	Layout      *models.FlowchartLayout       `json:"layout,omitempty"`
	Metadata    *models.FlowchartMetadata     `json:"metadata,omitempty"`
}

// ValidateFlowchartRequest represents a draft submitted for structural
// validation without persisting it.
type ValidateFlowchartRequest struct {
	Nodes       []*models.FlowchartNode       `json:"nodes,omitempty"`
	Connections []*models.FlowchartConnection `json:"connections,omitempty"`
}

// DuplicateFlowchartRequest represents the request body for duplicating a
// flowchart onto another agent.
type DuplicateFlowchartRequest struct {
	TargetAgentID string `json:"targetAgentId" validate:"required"`
}

// CreateAgentRequest represents the request body for registering an agent.
type CreateAgentRequest struct {
	Name          string             `json:"name"          validate:"required,min=3"`
	Description   string             `json:"description"   validate:"required"`
	Status        models.AgentStatus `json:"status,omitempty" validate:"omitempty,oneof=Running Idle Error"`
	Category      string             `json:"category,omitempty"`
	Enabled       bool               `json:"enabled"`
	Configuration map[string]any     `json:"configuration,omitempty"`
}

// UpdateAgentRequest represents the request body for updating an agent. All
// fields are optional to support partial updates.
type UpdateAgentRequest struct {
	Name          *string             `json:"name,omitempty"        validate:"omitempty,min=3"`
	Description   *string             `json:"description,omitempty"`
	Status        *models.AgentStatus `json:"status,omitempty"      validate:"omitempty,oneof=Running Idle Error"`
	Category      *string             `json:"category,omitempty"`
	Enabled       *bool               `json:"enabled,omitempty"`
	Configuration map[string]any      `json:"configuration,omitempty"`
}

// FinishExecutionRequest represents the terminal report of an agent run.
type FinishExecutionRequest struct {
	Status models.ExecutionStatus `json:"status" validate:"required,oneof=success failed"`
	Result string                 `json:"result,omitempty"`
	Error  string                 `json:"error,omitempty"`
}

// AppendExecutionLogsRequest represents log lines reported by a running
// agent.
type AppendExecutionLogsRequest struct {
	Logs []models.ExecutionLog `json:"logs" validate:"required,min=1,dive"`
}
