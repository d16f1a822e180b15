package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/agentdash/agentdash/pkg/eventbus"
	"github.com/agentdash/agentdash/pkg/events"
	"github.com/agentdash/agentdash/pkg/flowchart"
	"github.com/agentdash/agentdash/pkg/models"
	"github.com/agentdash/agentdash/pkg/otelhelper"
	"github.com/agentdash/agentdash/pkg/persistence"
)

// Flowchart is the store and facade for flowchart documents. All mutations
// go through it: it enforces agent existence, the one-flowchart-per-agent
// rule, structural validation gating and chronology bookkeeping.
type Flowchart struct {
	persistence persistence.Persistence
	events      eventbus.EventPublisher
	logger      *slog.Logger
	tracer      trace.Tracer
}

// NewFlowchart creates a new flowchart service. The event publisher may be
// nil; lifecycle events are then skipped.
func NewFlowchart(
	persistence persistence.Persistence,
	events eventbus.EventPublisher,
	logger *slog.Logger,
	tracer trace.Tracer,
) *Flowchart {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("services")
	}

	return &Flowchart{
		persistence: persistence,
		events:      events,
		logger:      logger,
		tracer:      tracer,
	}
}

// HealthCheck checks the health of the persistence layer.
func (s *Flowchart) HealthCheck(ctx context.Context) (string, bool) {
	if s.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := s.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// FetchByAgentID retrieves the flowchart owned by the agent.
func (s *Flowchart) FetchByAgentID(ctx context.Context, agentID string) (*models.Flowchart, error) {
	f, err := s.persistence.FlowchartRepository().GetByAgentID(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch flowchart: %w", err)
	}

	if f == nil {
		return nil, ErrFlowchartNotFound
	}

	return f, nil
}

// CreateFlowchartRequest carries the caller-provided parts of a new
// flowchart. Omitted parts receive defaults.
type CreateFlowchartRequest struct {
	Version     string
	Nodes       []*models.FlowchartNode
	Connections []*models.FlowchartConnection
	Layout      *models.FlowchartLayout
	Metadata    *models.FlowchartMetadata
}

// Create builds and persists a flowchart for the agent. The agent must
// exist, must not already own a flowchart, and the structure must pass
// validation.
func (s *Flowchart) Create(
	ctx context.Context,
	agentID string,
	req CreateFlowchartRequest,
	userID string,
) (*models.Flowchart, error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "flowchart.create",
		attribute.String(otelhelper.AgentIDKey, agentID),
		attribute.String(otelhelper.UserIDKey, userID),
	)
	defer span.End()

	agent, err := s.persistence.AgentRepository().GetByID(ctx, agentID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to fetch agent: %w", err)
	}

	if agent == nil {
		return nil, ErrAgentNotFound
	}

	existing, err := s.persistence.FlowchartRepository().GetByAgentID(ctx, agentID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to fetch flowchart: %w", err)
	}

	if existing != nil {
		return nil, ErrFlowchartExists
	}

	result := flowchart.Validate(req.Nodes, req.Connections)
	if !result.Valid {
		return nil, &InvalidFlowchartError{Errors: result.Errors}
	}

	f := flowchart.NewFlowchart(agentID, agent.Name+" Flowchart", &flowchart.FlowchartOptions{
		Version:     req.Version,
		Nodes:       req.Nodes,
		Connections: req.Connections,
		Layout:      req.Layout,
		Metadata:    req.Metadata,
	})

	assignOrders(f)

	now := time.Now().UTC()
	f.ID = uuid.Must(uuid.NewV7()).String()
	f.Chronology = models.FlowchartChronology{
		CreatedAt:    now,
		LastModified: now,
		Version:      f.Version,
		ChangeLog: []models.ChangeLogEntry{{
			Timestamp: now,
			UserID:    userID,
			Action:    "created",
			Details:   "Flowchart created",
		}},
	}

	err = s.persistence.FlowchartRepository().Save(ctx, f)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to create flowchart: %w", err)
	}

	s.publish(ctx, agentID, events.FlowchartCreated{
		BaseEvent:   events.NewBaseEvent(events.FlowchartCreatedEvent, agentID),
		FlowchartID: f.ID,
		Title:       f.Metadata.Title,
	})

	return f, nil
}

// assignOrders gives chronology orders to nodes and connections that arrive
// without one.
func assignOrders(f *models.Flowchart) {
	for _, node := range f.Nodes {
		if node.Chronology.Order == 0 {
			node.Chronology.Order = flowchart.NextOrder(f.Nodes, func(n *models.FlowchartNode) int {
				return n.Chronology.Order
			})
		}
	}

	for _, conn := range f.Connections {
		if conn.Chronology.Order == 0 {
			conn.Chronology.Order = flowchart.NextOrder(f.Connections, func(c *models.FlowchartConnection) int {
				return c.Chronology.Order
			})
		}
	}
}

// UpdateFlowchartRequest is a partial update: nil fields keep their current
// values.
type UpdateFlowchartRequest struct {
	Version     *string
	Nodes       []*models.FlowchartNode
	Connections []*models.FlowchartConnection
	Layout      *models.FlowchartLayout
	Metadata    *models.FlowchartMetadata
}

// changedFields lists the names of the provided fields, in a fixed order.
func (r *UpdateFlowchartRequest) changedFields() []string {
	var fields []string

	if r.Version != nil {
		fields = append(fields, "version")
	}

	if r.Nodes != nil {
		fields = append(fields, "nodes")
	}

	if r.Connections != nil {
		fields = append(fields, "connections")
	}

	if r.Layout != nil {
		fields = append(fields, "layout")
	}

	if r.Metadata != nil {
		fields = append(fields, "metadata")
	}

	return fields
}

// Update applies a partial update to the agent's flowchart. Structural
// validation runs only when nodes or connections change; a layout-only or
// metadata-only update never fails validation. Every successful update
// appends a change log entry.
func (s *Flowchart) Update(
	ctx context.Context,
	agentID string,
	req UpdateFlowchartRequest,
	userID string,
) (*models.Flowchart, error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "flowchart.update",
		attribute.String(otelhelper.AgentIDKey, agentID),
		attribute.String(otelhelper.UserIDKey, userID),
	)
	defer span.End()

	f, err := s.persistence.FlowchartRepository().GetByAgentID(ctx, agentID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to fetch flowchart: %w", err)
	}

	if f == nil {
		return nil, ErrFlowchartNotFound
	}

	fields := req.changedFields()
	if len(fields) == 0 {
		return nil, NewValidationError("Update", "EMPTY_UPDATE", "no fields to update", ErrInvalidRequest)
	}

	action := classifyUpdate(f, &req)

	if req.Version != nil {
		f.Version = *req.Version
	}

	if req.Nodes != nil {
		f.Nodes = req.Nodes
	}

	if req.Connections != nil {
		f.Connections = req.Connections
	}

	if req.Layout != nil {
		f.Layout = *req.Layout
	}

	if req.Metadata != nil {
		f.Metadata = *req.Metadata
	}

	if req.Nodes != nil || req.Connections != nil {
		result := flowchart.Validate(f.Nodes, f.Connections)
		if !result.Valid {
			return nil, &InvalidFlowchartError{Errors: result.Errors}
		}

		assignOrders(f)
	}

	flowchart.AppendChange(f, flowchart.Change{
		Action:  action,
		Details: strings.Join(fields, ", ") + " modified",
		UserID:  userID,
	})

	span.SetAttributes(attribute.String(otelhelper.ActionKey, action))

	err = s.persistence.FlowchartRepository().Save(ctx, f)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to update flowchart: %w", err)
	}

	s.publish(ctx, agentID, events.FlowchartUpdated{
		BaseEvent:   events.NewBaseEvent(events.FlowchartUpdatedEvent, agentID),
		FlowchartID: f.ID,
		Action:      action,
	})

	return f, nil
}

// classifyUpdate derives a change log action from the shape of the update.
// Node count changes win over connection count changes; a layout-only update
// gets its own label; everything else is a generic update.
func classifyUpdate(current *models.Flowchart, req *UpdateFlowchartRequest) string {
	if req.Nodes != nil {
		switch {
		case len(req.Nodes) > len(current.Nodes):
			return "nodes_added"
		case len(req.Nodes) < len(current.Nodes):
			return "nodes_removed"
		}
	}

	if req.Connections != nil {
		switch {
		case len(req.Connections) > len(current.Connections):
			return "connections_added"
		case len(req.Connections) < len(current.Connections):
			return "connections_removed"
		}
	}

	if req.Layout != nil && req.Nodes == nil && req.Connections == nil &&
		req.Metadata == nil && req.Version == nil {
		return "layout_updated"
	}

	return "updated"
}

// Delete removes the agent's flowchart.
func (s *Flowchart) Delete(ctx context.Context, agentID, userID string) error {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "flowchart.delete",
		attribute.String(otelhelper.AgentIDKey, agentID),
		attribute.String(otelhelper.UserIDKey, userID),
	)
	defer span.End()

	f, err := s.persistence.FlowchartRepository().GetByAgentID(ctx, agentID)
	if err != nil {
		otelhelper.SetError(span, err)

		return fmt.Errorf("failed to fetch flowchart: %w", err)
	}

	if f == nil {
		return ErrFlowchartNotFound
	}

	err = s.persistence.FlowchartRepository().Delete(ctx, f.ID)
	if err != nil {
		otelhelper.SetError(span, err)

		return fmt.Errorf("failed to delete flowchart: %w", err)
	}

	s.publish(ctx, agentID, events.FlowchartDeleted{
		BaseEvent:   events.NewBaseEvent(events.FlowchartDeletedEvent, agentID),
		FlowchartID: f.ID,
	})

	return nil
}

// Duplicate copies the source agent's flowchart onto the target agent. The
// source flowchart and the target agent must exist, and the target must not
// already own a flowchart. The copy starts a fresh chronology referencing
// the source.
func (s *Flowchart) Duplicate(
	ctx context.Context,
	sourceAgentID, targetAgentID, userID string,
) (*models.Flowchart, error) {
	ctx, span := otelhelper.StartSpan(ctx, s.tracer, "flowchart.duplicate",
		attribute.String(otelhelper.AgentIDKey, sourceAgentID),
		attribute.String(otelhelper.UserIDKey, userID),
	)
	defer span.End()

	if strings.TrimSpace(targetAgentID) == "" {
		return nil, ErrTargetAgentIDRequired
	}

	source, err := s.persistence.FlowchartRepository().GetByAgentID(ctx, sourceAgentID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to fetch source flowchart: %w", err)
	}

	if source == nil {
		return nil, ErrFlowchartNotFound
	}

	targetAgent, err := s.persistence.AgentRepository().GetByID(ctx, targetAgentID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to fetch target agent: %w", err)
	}

	if targetAgent == nil {
		return nil, ErrAgentNotFound
	}

	existing, err := s.persistence.FlowchartRepository().GetByAgentID(ctx, targetAgentID)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to fetch target flowchart: %w", err)
	}

	if existing != nil {
		return nil, ErrFlowchartExists
	}

	duplicated := flowchart.Duplicate(source, targetAgentID, userID)
	duplicated.ID = uuid.Must(uuid.NewV7()).String()

	err = s.persistence.FlowchartRepository().Save(ctx, duplicated)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to save duplicated flowchart: %w", err)
	}

	s.publish(ctx, targetAgentID, events.FlowchartDuplicated{
		BaseEvent:         events.NewBaseEvent(events.FlowchartDuplicatedEvent, targetAgentID),
		FlowchartID:       duplicated.ID,
		SourceFlowchartID: source.ID,
		SourceAgentID:     sourceAgentID,
	})

	return duplicated, nil
}

// ExportData describes an export envelope.
type ExportData struct {
	Version    string    `json:"version"`
	ExportedAt time.Time `json:"exportedAt"`
	Format     string    `json:"format"`
}

// ExportResult is a flowchart wrapped for download.
type ExportResult struct {
	Flowchart  *models.Flowchart `json:"flowchart"`
	ExportData ExportData        `json:"exportData"`
}

// Export wraps the agent's flowchart in an export envelope. Only the json
// format is implemented; png and svg are acknowledged but unsupported.
func (s *Flowchart) Export(ctx context.Context, agentID, format string) (*ExportResult, error) {
	if format == "" {
		format = "json"
	}

	switch format {
	case "json":
	case "png", "svg":
		return nil, ErrImageExportNotImplemented
	default:
		return nil, ErrInvalidExportFormat
	}

	f, err := s.FetchByAgentID(ctx, agentID)
	if err != nil {
		return nil, err
	}

	return &ExportResult{
		Flowchart: f,
		ExportData: ExportData{
			Version:    "1.0",
			ExportedAt: time.Now().UTC(),
			Format:     "json",
		},
	}, nil
}

// Validate runs structural validation over a draft without persisting
// anything. An invalid draft is a normal answer, not an error; the only
// error case is an empty request.
func (s *Flowchart) Validate(
	nodes []*models.FlowchartNode,
	connections []*models.FlowchartConnection,
) (flowchart.ValidationResult, error) {
	if nodes == nil && connections == nil {
		return flowchart.ValidationResult{}, ErrValidationInputEmpty
	}

	return flowchart.Validate(nodes, connections), nil
}

// CascadeAgentDeleted removes the flowchart owned by a deleted agent. It is
// wired as an event bus subscriber for agent deletion events; a missing
// flowchart is not an error.
func (s *Flowchart) CascadeAgentDeleted(ctx context.Context, agentID string) error {
	f, err := s.persistence.FlowchartRepository().GetByAgentID(ctx, agentID)
	if err != nil {
		return fmt.Errorf("failed to fetch flowchart: %w", err)
	}

	if f == nil {
		return nil
	}

	err = s.persistence.FlowchartRepository().Delete(ctx, f.ID)
	if err != nil {
		return fmt.Errorf("failed to delete flowchart: %w", err)
	}

	s.logger.InfoContext(ctx, "Deleted flowchart after agent removal",
		"agent_id", agentID, "flowchart_id", f.ID)

	return nil
}

// publish sends a lifecycle event, logging failures instead of surfacing
// them. A lost event never fails the mutation that produced it.
func (s *Flowchart) publish(ctx context.Context, key string, event eventbus.Event) {
	if s.events == nil {
		return
	}

	err := s.events.Publish(ctx, key, event)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish event",
			"event_type", event.GetType(), "error", err)
	}
}
