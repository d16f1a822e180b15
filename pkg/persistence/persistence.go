// Package persistence provides the data storage abstraction layer for
// agents, executions and flowcharts.
package persistence

import (
	"context"
	"time"

	"github.com/agentdash/agentdash/pkg/models"
)

// Persistence is the root handle giving access to the entity repositories.
// Implementations are constructed explicitly and injected; there is no
// process-wide singleton.
type Persistence interface {
	AgentRepository() AgentRepository
	ExecutionRepository() ExecutionRepository
	FlowchartRepository() FlowchartRepository

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// FlowchartRepository stores flowchart documents. Lookups return (nil, nil)
// when the document does not exist; absence is a normal outcome here and the
// service layer decides whether it is an error.
type FlowchartRepository interface {
	GetByID(ctx context.Context, id string) (*models.Flowchart, error)
	GetByAgentID(ctx context.Context, agentID string) (*models.Flowchart, error)
	Save(ctx context.Context, f *models.Flowchart) error
	Delete(ctx context.Context, id string) error
}

// ListAgentsOptions filters and paginates agent listings.
type ListAgentsOptions struct {
	Limit    int
	Offset   int
	Status   *models.AgentStatus
	Category string

	SortBy    string // created_at, updated_at, name
	SortOrder string // asc, desc
}

// AgentListResult is a page of agents plus pagination metadata.
type AgentListResult struct {
	Agents      []*models.Agent `json:"agents"`
	TotalCount  int64           `json:"total_count"`
	HasNextPage bool            `json:"has_next_page"`
}

// AgentRepository stores agent entities.
type AgentRepository interface {
	List(ctx context.Context, opts ListAgentsOptions) (*AgentListResult, error)
	GetByID(ctx context.Context, id string) (*models.Agent, error)
	Save(ctx context.Context, agent *models.Agent) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context, status *models.AgentStatus) (int64, error)
}

// ListExecutionsOptions filters and paginates execution listings.
type ListExecutionsOptions struct {
	Limit   int
	Offset  int
	AgentID string
	Status  *models.ExecutionStatus

	SortBy    string // start_time
	SortOrder string // asc, desc
}

// ExecutionListResult is a page of executions plus pagination metadata.
type ExecutionListResult struct {
	Executions  []*models.Execution `json:"executions"`
	TotalCount  int64               `json:"total_count"`
	HasNextPage bool                `json:"has_next_page"`
}

// ExecutionRepository stores execution records.
type ExecutionRepository interface {
	List(ctx context.Context, opts ListExecutionsOptions) (*ExecutionListResult, error)
	GetByID(ctx context.Context, id string) (*models.Execution, error)
	Save(ctx context.Context, execution *models.Execution) error
	Delete(ctx context.Context, id string) error

	Count(ctx context.Context, status *models.ExecutionStatus, since *time.Time) (int64, error)

	// ListStaleRunning returns executions still in running state whose start
	// time is before the cutoff. Used by the reaper.
	ListStaleRunning(ctx context.Context, cutoff time.Time) ([]*models.Execution, error)
}
