package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/agentdash/agentdash/pkg/eventbus"
	"github.com/agentdash/agentdash/pkg/events"
	"github.com/agentdash/agentdash/pkg/models"
	"github.com/agentdash/agentdash/pkg/persistence"
)

// Execution manages agent run records. Executions are audit data reported by
// the agents themselves; the dashboard never schedules or replays them.
type Execution struct {
	persistence persistence.Persistence
	events      eventbus.EventPublisher
	agents      *Agent
	logger      *slog.Logger
}

// NewExecution creates a new execution service.
func NewExecution(
	persistence persistence.Persistence,
	events eventbus.EventPublisher,
	agents *Agent,
	logger *slog.Logger,
) *Execution {
	return &Execution{
		persistence: persistence,
		events:      events,
		agents:      agents,
		logger:      logger,
	}
}

// ListExecutionsRequest contains options for listing executions.
type ListExecutionsRequest struct {
	Limit  int
	Offset int

	AgentID string
	Status  *models.ExecutionStatus

	SortOrder string
}

// ListExecutionsResponse contains the result of listing executions.
type ListExecutionsResponse struct {
	Executions  []*models.Execution `json:"executions"`
	TotalCount  int64               `json:"totalCount"`
	HasNextPage bool                `json:"hasNextPage"`
}

// ListExecutions retrieves executions, newest first by default.
func (s *Execution) ListExecutions(ctx context.Context, req ListExecutionsRequest) (*ListExecutionsResponse, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	if req.Limit > 100 {
		req.Limit = 100
	}

	if req.Offset < 0 {
		req.Offset = 0
	}

	if req.SortOrder == "" {
		req.SortOrder = "desc"
	}

	if req.SortOrder != "asc" && req.SortOrder != "desc" {
		return nil, NewValidationError(
			"ListExecutions",
			"INVALID_SORT_ORDER",
			fmt.Sprintf("invalid sort order '%s', allowed: asc, desc", req.SortOrder),
			ErrInvalidSortOrder,
		)
	}

	if req.Status != nil {
		switch *req.Status {
		case models.ExecutionStatusPending, models.ExecutionStatusRunning,
			models.ExecutionStatusSuccess, models.ExecutionStatusFailed:
		default:
			return nil, NewValidationError(
				"ListExecutions",
				"INVALID_STATUS",
				fmt.Sprintf("invalid status '%s'", *req.Status),
				ErrInvalidStatus,
			)
		}
	}

	result, err := s.persistence.ExecutionRepository().List(ctx, persistence.ListExecutionsOptions{
		Limit:     req.Limit,
		Offset:    req.Offset,
		AgentID:   req.AgentID,
		Status:    req.Status,
		SortBy:    "start_time",
		SortOrder: req.SortOrder,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}

	return &ListExecutionsResponse{
		Executions:  result.Executions,
		TotalCount:  result.TotalCount,
		HasNextPage: result.HasNextPage,
	}, nil
}

// FetchByID retrieves an execution by its ID.
func (s *Execution) FetchByID(ctx context.Context, id string) (*models.Execution, error) {
	execution, err := s.persistence.ExecutionRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch execution: %w", err)
	}

	if execution == nil {
		return nil, ErrExecutionNotFound
	}

	return execution, nil
}

// Start records the beginning of an agent run. The agent must exist.
func (s *Execution) Start(ctx context.Context, agentID string) (*models.Execution, error) {
	agent, err := s.persistence.AgentRepository().GetByID(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch agent: %w", err)
	}

	if agent == nil {
		return nil, ErrAgentNotFound
	}

	execution := &models.Execution{
		ID:        uuid.Must(uuid.NewV7()).String(),
		AgentID:   agentID,
		Status:    models.ExecutionStatusRunning,
		StartTime: time.Now().UTC(),
		Logs:      []models.ExecutionLog{},
	}

	err = s.persistence.ExecutionRepository().Save(ctx, execution)
	if err != nil {
		return nil, fmt.Errorf("failed to create execution: %w", err)
	}

	s.publish(ctx, agentID, events.ExecutionStarted{
		BaseEvent:   events.NewBaseEvent(events.ExecutionStartedEvent, agentID),
		ExecutionID: execution.ID,
	})

	return execution, nil
}

// Finish marks an execution with its terminal status and updates the owning
// agent's execution bookkeeping.
func (s *Execution) Finish(
	ctx context.Context,
	executionID string,
	status models.ExecutionStatus,
	result, errMessage string,
) (*models.Execution, error) {
	if status != models.ExecutionStatusSuccess && status != models.ExecutionStatusFailed {
		return nil, NewValidationError(
			"Finish",
			"INVALID_STATUS",
			fmt.Sprintf("'%s' is not a terminal status", status),
			ErrInvalidStatus,
		)
	}

	execution, err := s.FetchByID(ctx, executionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	execution.Status = status
	execution.EndTime = &now
	execution.Result = result
	execution.Error = errMessage

	err = s.persistence.ExecutionRepository().Save(ctx, execution)
	if err != nil {
		return nil, fmt.Errorf("failed to update execution: %w", err)
	}

	if err := s.agents.RecordExecution(ctx, execution.AgentID, now); err != nil {
		s.logger.ErrorContext(ctx, "Failed to record execution on agent",
			"agent_id", execution.AgentID, "error", err)
	}

	s.publish(ctx, execution.AgentID, events.ExecutionFinished{
		BaseEvent:   events.NewBaseEvent(events.ExecutionFinishedEvent, execution.AgentID),
		ExecutionID: execution.ID,
		Status:      string(status),
		DurationMs:  now.Sub(execution.StartTime).Milliseconds(),
	})

	return execution, nil
}

// AppendLogs adds log lines to a running execution.
func (s *Execution) AppendLogs(ctx context.Context, executionID string, logs []models.ExecutionLog) (*models.Execution, error) {
	if len(logs) == 0 {
		return nil, NewValidationError("AppendLogs", "EMPTY_LOGS", "no log entries provided", ErrInvalidRequest)
	}

	execution, err := s.FetchByID(ctx, executionID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	for _, entry := range logs {
		if entry.Timestamp.IsZero() {
			entry.Timestamp = now
		}

		execution.Logs = append(execution.Logs, entry)
	}

	err = s.persistence.ExecutionRepository().Save(ctx, execution)
	if err != nil {
		return nil, fmt.Errorf("failed to update execution: %w", err)
	}

	return execution, nil
}

// FailStale marks executions still running past the cutoff as failed. The
// reaper calls this on a schedule to close records abandoned by crashed
// agents. It returns the number of executions closed.
func (s *Execution) FailStale(ctx context.Context, cutoff time.Time) (int, error) {
	stale, err := s.persistence.ExecutionRepository().ListStaleRunning(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale executions: %w", err)
	}

	closed := 0

	for _, execution := range stale {
		now := time.Now().UTC()
		execution.Status = models.ExecutionStatusFailed
		execution.EndTime = &now
		execution.Error = "execution timed out"

		if err := s.persistence.ExecutionRepository().Save(ctx, execution); err != nil {
			s.logger.ErrorContext(ctx, "Failed to close stale execution",
				"execution_id", execution.ID, "error", err)

			continue
		}

		closed++
	}

	return closed, nil
}

func (s *Execution) publish(ctx context.Context, key string, event eventbus.Event) {
	if s.events == nil {
		return
	}

	err := s.events.Publish(ctx, key, event)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish event",
			"event_type", event.GetType(), "error", err)
	}
}
