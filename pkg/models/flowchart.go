// Package models defines the core domain models for the agent dashboard.
package models

import "time"

// NodeType represents the kind of a flowchart node. The set is closed.
type NodeType string

const (
	NodeTypeStart    NodeType = "start"
	NodeTypeEnd      NodeType = "end"
	NodeTypeProcess  NodeType = "process"
	NodeTypeDecision NodeType = "decision"
)

// PathType represents the rendering style of a connection path.
type PathType string

const (
	PathTypeStraight PathType = "straight"
	PathTypeCurved   PathType = "curved"
	PathTypeStepped  PathType = "stepped"
)

// Position is a node's canvas coordinate. Z is a stacking index; the lowest
// layer when absent.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z,omitempty"`
}

// Size is a node's canvas footprint.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Point is a single waypoint of a connection path.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ConnectionPath is a rendering hint for drawing a connection.
type ConnectionPath struct {
	Type   PathType `json:"type"`
	Points []Point  `json:"points,omitempty"`
}

// Chronology tracks creation sequence and timestamps of a node or connection.
// Order is assigned max+1 on insertion and is not enforced unique.
type Chronology struct {
	Order     int       `json:"order"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FlowchartNode is a single node of an agent flowchart diagram.
type FlowchartNode struct {
	ID          string         `json:"id"          validate:"required"`
	Type        NodeType       `json:"type"        validate:"required,oneof=start end process decision"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Position    *Position      `json:"position"`
	Size        *Size          `json:"size,omitempty"`
	Config      map[string]any `json:"config,omitempty"` // Opaque to validation
	Chronology  Chronology     `json:"chronology"`
}

// FlowchartConnection is a directed edge between two nodes of the same
// flowchart. Condition is a free-text guard expression, never evaluated.
type FlowchartConnection struct {
	ID         string          `json:"id"   validate:"required"`
	From       string          `json:"from" validate:"required"`
	To         string          `json:"to"   validate:"required"`
	Label      string          `json:"label,omitempty"`
	Condition  string          `json:"condition,omitempty"`
	Path       *ConnectionPath `json:"path,omitempty"`
	Chronology Chronology      `json:"chronology"`
}

// CanvasSize is the drawing area of a flowchart layout.
type CanvasSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Pan is the viewport offset of a flowchart layout.
type Pan struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// FlowchartLayout is pure view state and is not structurally validated.
type FlowchartLayout struct {
	CanvasSize CanvasSize `json:"canvasSize"`
	Zoom       float64    `json:"zoom"`
	Pan        Pan        `json:"pan"`
	GridSize   float64    `json:"gridSize"`
	SnapToGrid bool       `json:"snapToGrid"`
}

// FlowchartMetadata carries display information about a flowchart.
type FlowchartMetadata struct {
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	LayoutVersion string   `json:"layoutVersion"`
	Tags          []string `json:"tags,omitempty"`
}

// ChangeLogEntry is a single audit record of a flowchart mutation.
type ChangeLogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"userId,omitempty"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
}

// FlowchartChronology is the audit metadata of a flowchart document. The
// change log keeps the 50 most recent entries, oldest evicted first.
type FlowchartChronology struct {
	CreatedAt    time.Time        `json:"createdAt"`
	LastModified time.Time        `json:"lastModified"`
	Version      string           `json:"version"`
	ChangeLog    []ChangeLogEntry `json:"changeLog"`
}

// Flowchart is the versioned workflow diagram document owned by exactly one
// agent. The persisted shape is also the wire format.
type Flowchart struct {
	ID          string                 `json:"id"`
	AgentID     string                 `json:"agentId"`
	Version     string                 `json:"version"`
	Nodes       []*FlowchartNode       `json:"nodes"`
	Connections []*FlowchartConnection `json:"connections"`
	Layout      FlowchartLayout        `json:"layout"`
	Metadata    FlowchartMetadata      `json:"metadata"`
	Chronology  FlowchartChronology    `json:"chronology"`
}

// NodeIDs returns the set of node ids present in the flowchart.
func (f *Flowchart) NodeIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(f.Nodes))
	for _, node := range f.Nodes {
		ids[node.ID] = struct{}{}
	}

	return ids
}
