package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agentdash/agentdash/pkg/eventbus"
	"github.com/agentdash/agentdash/pkg/events"
	"github.com/agentdash/agentdash/pkg/models"
	"github.com/agentdash/agentdash/pkg/persistence"
)

// Agent provides agent lifecycle operations.
type Agent struct {
	persistence persistence.Persistence
	events      eventbus.EventPublisher
	logger      *slog.Logger
}

// NewAgent creates a new agent service.
func NewAgent(persistence persistence.Persistence, events eventbus.EventPublisher, logger *slog.Logger) *Agent {
	return &Agent{
		persistence: persistence,
		events:      events,
		logger:      logger,
	}
}

// ListAgentsRequest contains options for listing agents.
type ListAgentsRequest struct {
	// Pagination
	Limit  int
	Offset int

	// Filtering
	Status   *models.AgentStatus
	Category string

	// Sorting
	SortBy    string
	SortOrder string
}

// ListAgentsResponse contains the result of listing agents.
type ListAgentsResponse struct {
	Agents      []*models.Agent `json:"agents"`
	TotalCount  int64           `json:"totalCount"`
	HasNextPage bool            `json:"hasNextPage"`
}

// ListAgents retrieves agents with filtering, sorting and pagination.
func (s *Agent) ListAgents(ctx context.Context, req ListAgentsRequest) (*ListAgentsResponse, error) {
	if err := s.validateListAgentsRequest(&req); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	result, err := s.persistence.AgentRepository().List(ctx, persistence.ListAgentsOptions{
		Limit:     req.Limit,
		Offset:    req.Offset,
		Status:    req.Status,
		Category:  req.Category,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}

	return &ListAgentsResponse{
		Agents:      result.Agents,
		TotalCount:  result.TotalCount,
		HasNextPage: result.HasNextPage,
	}, nil
}

func (s *Agent) validateListAgentsRequest(req *ListAgentsRequest) error {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	if req.Limit > 100 {
		req.Limit = 100
	}

	if req.Offset < 0 {
		req.Offset = 0
	}

	if req.SortBy == "" {
		req.SortBy = "created_at"
	}

	if req.SortOrder == "" {
		req.SortOrder = "desc"
	}

	allowedSorts := []string{"created_at", "updated_at", "name"}
	if !slices.Contains(allowedSorts, req.SortBy) {
		return NewValidationError(
			"validateListAgentsRequest",
			"INVALID_SORT_FIELD",
			fmt.Sprintf("invalid sort field '%s', allowed: %s", req.SortBy, strings.Join(allowedSorts, ", ")),
			ErrInvalidSortField,
		)
	}

	if req.SortOrder != "asc" && req.SortOrder != "desc" {
		return NewValidationError(
			"validateListAgentsRequest",
			"INVALID_SORT_ORDER",
			fmt.Sprintf("invalid sort order '%s', allowed: asc, desc", req.SortOrder),
			ErrInvalidSortOrder,
		)
	}

	if req.Status != nil {
		allowedStatuses := []models.AgentStatus{
			models.AgentStatusRunning,
			models.AgentStatusIdle,
			models.AgentStatusError,
		}

		if !slices.Contains(allowedStatuses, *req.Status) {
			return NewValidationError(
				"validateListAgentsRequest",
				"INVALID_STATUS",
				fmt.Sprintf("invalid status '%s'", *req.Status),
				ErrInvalidStatus,
			)
		}
	}

	return nil
}

// FetchByID retrieves an agent by its ID.
func (s *Agent) FetchByID(ctx context.Context, id string) (*models.Agent, error) {
	agent, err := s.persistence.AgentRepository().GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch agent: %w", err)
	}

	if agent == nil {
		return nil, ErrAgentNotFound
	}

	return agent, nil
}

// Create adds a new agent.
func (s *Agent) Create(ctx context.Context, agent *models.Agent) (*models.Agent, error) {
	now := time.Now().UTC()
	agent.ID = uuid.Must(uuid.NewV7()).String()
	agent.CreatedAt = now
	agent.UpdatedAt = now

	if agent.LastActive.IsZero() {
		agent.LastActive = now
	}

	if agent.Status == "" {
		agent.Status = models.AgentStatusIdle
	}

	err := s.persistence.AgentRepository().Save(ctx, agent)
	if err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	s.publish(ctx, agent.ID, events.AgentCreated{
		BaseEvent: events.NewBaseEvent(events.AgentCreatedEvent, agent.ID),
		Name:      agent.Name,
		Category:  agent.Category,
	})

	return agent, nil
}

// Update modifies an existing agent by its ID.
func (s *Agent) Update(ctx context.Context, agentID string, agent *models.Agent) (*models.Agent, error) {
	existing, err := s.persistence.AgentRepository().GetByID(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch agent: %w", err)
	}

	if existing == nil {
		return nil, ErrAgentNotFound
	}

	agent.ID = agentID
	agent.CreatedAt = existing.CreatedAt
	agent.ExecutionCount = existing.ExecutionCount
	agent.LastExecution = existing.LastExecution
	agent.UpdatedAt = time.Now().UTC()

	err = s.persistence.AgentRepository().Save(ctx, agent)
	if err != nil {
		return nil, fmt.Errorf("failed to update agent: %w", err)
	}

	s.publish(ctx, agent.ID, events.AgentUpdated{
		BaseEvent: events.NewBaseEvent(events.AgentUpdatedEvent, agent.ID),
		Name:      agent.Name,
	})

	return agent, nil
}

// Delete removes an agent by its ID and announces the removal so dependent
// documents can cascade.
func (s *Agent) Delete(ctx context.Context, agentID, userID string) error {
	existing, err := s.persistence.AgentRepository().GetByID(ctx, agentID)
	if err != nil {
		return fmt.Errorf("failed to fetch agent: %w", err)
	}

	if existing == nil {
		return ErrAgentNotFound
	}

	err = s.persistence.AgentRepository().Delete(ctx, agentID)
	if err != nil {
		return fmt.Errorf("failed to delete agent: %w", err)
	}

	s.publish(ctx, agentID, events.AgentDeleted{
		BaseEvent:   events.NewBaseEvent(events.AgentDeletedEvent, agentID),
		DeletedByID: userID,
	})

	return nil
}

// RecordExecution stamps execution bookkeeping onto the agent after a run
// finishes.
func (s *Agent) RecordExecution(ctx context.Context, agentID string, finishedAt time.Time) error {
	agent, err := s.persistence.AgentRepository().GetByID(ctx, agentID)
	if err != nil {
		return fmt.Errorf("failed to fetch agent: %w", err)
	}

	if agent == nil {
		return ErrAgentNotFound
	}

	agent.ExecutionCount++
	agent.LastExecution = &finishedAt
	agent.LastActive = finishedAt

	err = s.persistence.AgentRepository().Save(ctx, agent)
	if err != nil {
		return fmt.Errorf("failed to update agent: %w", err)
	}

	return nil
}

func (s *Agent) publish(ctx context.Context, key string, event eventbus.Event) {
	if s.events == nil {
		return
	}

	err := s.events.Publish(ctx, key, event)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish event",
			"event_type", event.GetType(), "error", err)
	}
}
