package flowchart

import (
	"fmt"
	"time"

	"github.com/agentdash/agentdash/pkg/models"
)

// ChangeLogLimit caps the flowchart change log; the oldest entries are
// evicted first when an append overflows it.
const ChangeLogLimit = 50

// Change describes a mutation about to be recorded in a flowchart's
// chronology. The log is advisory audit data and is never consulted by the
// validator.
type Change struct {
	Action  string
	Details string
	UserID  string
}

// AppendChange stamps a change entry onto the flowchart's chronology,
// bumping lastModified and trimming the log to the most recent
// ChangeLogLimit entries.
func AppendChange(f *models.Flowchart, change Change) {
	now := time.Now().UTC()
	f.Chronology.LastModified = now

	entries := append(f.Chronology.ChangeLog, models.ChangeLogEntry{
		Timestamp: now,
		UserID:    change.UserID,
		Action:    change.Action,
		Details:   change.Details,
	})

	if len(entries) > ChangeLogLimit {
		entries = entries[len(entries)-ChangeLogLimit:]
	}

	f.Chronology.ChangeLog = entries
}

// NextOrder computes the chronology order for the next insertion:
// max(0, existing orders) + 1. Deterministic under concurrent-looking
// appends; the last writer wins on the computed max.
func NextOrder[T any](items []T, order func(T) int) int {
	maxOrder := 0

	for _, item := range items {
		if o := order(item); o > maxOrder {
			maxOrder = o
		}
	}

	return maxOrder + 1
}

// AddNode appends a node to the flowchart, assigning its chronology order
// and recording the change.
func AddNode(f *models.Flowchart, node *models.FlowchartNode) {
	node.Chronology.Order = NextOrder(f.Nodes, func(n *models.FlowchartNode) int {
		return n.Chronology.Order
	})

	f.Nodes = append(f.Nodes, node)

	AppendChange(f, Change{
		Action:  "node_added",
		Details: fmt.Sprintf("Added %s node: %s", node.Type, node.Title),
	})
}

// AddConnection appends a connection to the flowchart, assigning its
// chronology order and recording the change.
func AddConnection(f *models.Flowchart, conn *models.FlowchartConnection) {
	conn.Chronology.Order = NextOrder(f.Connections, func(c *models.FlowchartConnection) int {
		return c.Chronology.Order
	})

	f.Connections = append(f.Connections, conn)

	AppendChange(f, Change{
		Action:  "connection_added",
		Details: fmt.Sprintf("Added connection from %s to %s", conn.From, conn.To),
	})
}

// RemoveNode removes a node and every connection attached to it, recording
// the change. Removing an unknown id is a no-op apart from the log entry.
func RemoveNode(f *models.Flowchart, nodeID string) {
	nodes := make([]*models.FlowchartNode, 0, len(f.Nodes))
	for _, node := range f.Nodes {
		if node.ID != nodeID {
			nodes = append(nodes, node)
		}
	}

	connections := make([]*models.FlowchartConnection, 0, len(f.Connections))
	for _, conn := range f.Connections {
		if conn.From != nodeID && conn.To != nodeID {
			connections = append(connections, conn)
		}
	}

	f.Nodes = nodes
	f.Connections = connections

	AppendChange(f, Change{
		Action:  "node_removed",
		Details: "Removed node: " + nodeID,
	})
}
