// Package events defines event types for agent and flowchart lifecycle
// notifications.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic is the single stream all dashboard lifecycle events are published to.
const Topic = "agentdash.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Agent lifecycle events.
	AgentCreatedEvent EventType = "agent.created"
	AgentUpdatedEvent EventType = "agent.updated"
	AgentDeletedEvent EventType = "agent.deleted"

	// Flowchart lifecycle events.
	FlowchartCreatedEvent    EventType = "flowchart.created"
	FlowchartUpdatedEvent    EventType = "flowchart.updated"
	FlowchartDeletedEvent    EventType = "flowchart.deleted"
	FlowchartDuplicatedEvent EventType = "flowchart.duplicated"

	// Execution lifecycle events.
	ExecutionStartedEvent  EventType = "execution.started"
	ExecutionFinishedEvent EventType = "execution.finished"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	AgentID   string         `json:"agentId"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

type AgentCreated struct {
	BaseEvent

	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
}

func (a AgentCreated) GetType() EventType {
	return AgentCreatedEvent
}

type AgentUpdated struct {
	BaseEvent

	Name string `json:"name"`
}

func (a AgentUpdated) GetType() EventType {
	return AgentUpdatedEvent
}

// AgentDeleted announces an agent removal. Subscribers owning dependent
// documents, the flowchart store among them, cascade their own deletes off
// this event.
type AgentDeleted struct {
	BaseEvent

	DeletedByID string `json:"deletedById,omitempty"`
}

func (a AgentDeleted) GetType() EventType {
	return AgentDeletedEvent
}

type FlowchartCreated struct {
	BaseEvent

	FlowchartID string `json:"flowchartId"`
	Title       string `json:"title"`
}

func (f FlowchartCreated) GetType() EventType {
	return FlowchartCreatedEvent
}

type FlowchartUpdated struct {
	BaseEvent

	FlowchartID string `json:"flowchartId"`
	Action      string `json:"action"`
}

func (f FlowchartUpdated) GetType() EventType {
	return FlowchartUpdatedEvent
}

type FlowchartDeleted struct {
	BaseEvent

	FlowchartID string `json:"flowchartId"`
}

func (f FlowchartDeleted) GetType() EventType {
	return FlowchartDeletedEvent
}

type FlowchartDuplicated struct {
	BaseEvent

	FlowchartID       string `json:"flowchartId"`
	SourceFlowchartID string `json:"sourceFlowchartId"`
	SourceAgentID     string `json:"sourceAgentId"`
}

func (f FlowchartDuplicated) GetType() EventType {
	return FlowchartDuplicatedEvent
}

type ExecutionStarted struct {
	BaseEvent

	ExecutionID string `json:"executionId"`
}

func (e ExecutionStarted) GetType() EventType {
	return ExecutionStartedEvent
}

type ExecutionFinished struct {
	BaseEvent

	ExecutionID string `json:"executionId"`
	Status      string `json:"status"`
	DurationMs  int64  `json:"durationMs"`
}

func (e ExecutionFinished) GetType() EventType {
	return ExecutionFinishedEvent
}

func NewBaseEvent(eventType EventType, agentID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		AgentID:   agentID,
		Metadata:  make(map[string]any),
	}
}
