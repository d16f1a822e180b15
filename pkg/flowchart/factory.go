package flowchart

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/agentdash/agentdash/pkg/models"
)

// Canvas and node defaults applied when callers omit them.
const (
	DefaultNodeWidth  = 160
	DefaultNodeHeight = 80

	DefaultCanvasWidth  = 1200
	DefaultCanvasHeight = 800
	DefaultGridSize     = 20

	DefaultVersion       = "1.0.0"
	DefaultLayoutVersion = "v2.0"
)

const idSuffixLength = 9

// NodeOptions carries the optional fields of NewNode.
type NodeOptions struct {
	Description string
	Size        *models.Size
	Config      map[string]any
}

// ConnectionOptions carries the optional fields of NewConnection.
type ConnectionOptions struct {
	Label     string
	Condition string
	Path      *models.ConnectionPath
}

// FlowchartOptions carries the optional fields of NewFlowchart.
type FlowchartOptions struct {
	Version     string
	Nodes       []*models.FlowchartNode
	Connections []*models.FlowchartConnection
	Layout      *models.FlowchartLayout
	Metadata    *models.FlowchartMetadata
}

// NewNode builds a well-initialized node. Chronology order stays 0; the
// store assigns the real order on insertion. Structural invariants are the
// validator's concern, not the factory's.
func NewNode(nodeType models.NodeType, title string, position models.Position, opts *NodeOptions) *models.FlowchartNode {
	if opts == nil {
		opts = &NodeOptions{}
	}

	if position.Z == 0 {
		position.Z = 1
	}

	size := opts.Size
	if size == nil {
		size = &models.Size{Width: DefaultNodeWidth, Height: DefaultNodeHeight}
	}

	now := time.Now().UTC()

	return &models.FlowchartNode{
		ID:          generateID(string(nodeType)),
		Type:        nodeType,
		Title:       title,
		Description: opts.Description,
		Position:    &position,
		Size:        size,
		Config:      opts.Config,
		Chronology: models.Chronology{
			Order:     0,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// NewConnection builds a directed edge between two node ids.
func NewConnection(from, to string, opts *ConnectionOptions) *models.FlowchartConnection {
	if opts == nil {
		opts = &ConnectionOptions{}
	}

	path := opts.Path
	if path == nil {
		path = &models.ConnectionPath{Type: models.PathTypeStraight}
	}

	now := time.Now().UTC()

	return &models.FlowchartConnection{
		ID:        generateID("conn"),
		From:      from,
		To:        to,
		Label:     opts.Label,
		Condition: opts.Condition,
		Path:      path,
		Chronology: models.Chronology{
			Order:     0,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// NewFlowchart builds a flowchart document without id and chronology; the
// store assigns both on persist.
func NewFlowchart(agentID, title string, opts *FlowchartOptions) *models.Flowchart {
	if opts == nil {
		opts = &FlowchartOptions{}
	}

	version := opts.Version
	if version == "" {
		version = DefaultVersion
	}

	nodes := opts.Nodes
	if nodes == nil {
		nodes = []*models.FlowchartNode{}
	}

	connections := opts.Connections
	if connections == nil {
		connections = []*models.FlowchartConnection{}
	}

	layout := models.FlowchartLayout{
		CanvasSize: models.CanvasSize{Width: DefaultCanvasWidth, Height: DefaultCanvasHeight},
		Zoom:       1,
		Pan:        models.Pan{X: 0, Y: 0},
		GridSize:   DefaultGridSize,
		SnapToGrid: true,
	}
	if opts.Layout != nil {
		layout = *opts.Layout
	}

	metadata := models.FlowchartMetadata{
		Title:         title,
		Description:   "Flowchart for " + title,
		LayoutVersion: DefaultLayoutVersion,
		Tags:          []string{},
	}
	if opts.Metadata != nil {
		metadata = *opts.Metadata
	}

	return &models.Flowchart{
		AgentID:     agentID,
		Version:     version,
		Nodes:       nodes,
		Connections: connections,
		Layout:      layout,
		Metadata:    metadata,
	}
}

// Duplicate produces a copy of a flowchart bound to a different agent, with
// a fresh chronology holding a single 'duplicated' entry referencing the
// source. The copy has no id; the store assigns one on persist.
func Duplicate(source *models.Flowchart, targetAgentID, userID string) *models.Flowchart {
	now := time.Now().UTC()

	duplicated := *source
	duplicated.ID = ""
	duplicated.AgentID = targetAgentID
	duplicated.Metadata.Title = source.Metadata.Title + " (Copy)"
	duplicated.Chronology = models.FlowchartChronology{
		CreatedAt:    now,
		LastModified: now,
		Version:      DefaultVersion,
		ChangeLog: []models.ChangeLogEntry{{
			Timestamp: now,
			UserID:    userID,
			Action:    "duplicated",
			Details:   "Duplicated from flowchart " + source.ID,
		}},
	}

	return &duplicated
}

// generateID produces a collision-resistant identifier combining a type
// tag, the current millisecond timestamp and a random base-36 suffix.
func generateID(tag string) string {
	suffix := make([]byte, idSuffixLength)
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

	for i := range suffix {
		suffix[i] = alphabet[rand.IntN(len(alphabet))]
	}

	return fmt.Sprintf("%s-%s-%s", tag, strconv.FormatInt(time.Now().UnixMilli(), 10), suffix)
}
