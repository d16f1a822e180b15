package flowchart

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentdash/agentdash/pkg/models"
)

func testFlowchart() *models.Flowchart {
	return NewFlowchart("agent-1", "Test Agent", nil)
}

func TestAppendChange_StampsAndBumpsLastModified(t *testing.T) {
	t.Parallel()

	f := testFlowchart()

	AppendChange(f, Change{Action: "created", Details: "Flowchart created", UserID: "user-1"})

	require.Len(t, f.Chronology.ChangeLog, 1)

	entry := f.Chronology.ChangeLog[0]
	assert.Equal(t, "created", entry.Action)
	assert.Equal(t, "Flowchart created", entry.Details)
	assert.Equal(t, "user-1", entry.UserID)
	assert.False(t, entry.Timestamp.IsZero())
	assert.Equal(t, entry.Timestamp, f.Chronology.LastModified)
}

func TestAppendChange_EvictsOldestBeyondLimit(t *testing.T) {
	t.Parallel()

	f := testFlowchart()

	for i := range ChangeLogLimit + 10 {
		AppendChange(f, Change{Action: "updated", Details: fmt.Sprintf("change %d", i)})
	}

	require.Len(t, f.Chronology.ChangeLog, ChangeLogLimit)

	// The oldest ten entries are gone; the newest survives.
	assert.Equal(t, "change 10", f.Chronology.ChangeLog[0].Details)
	assert.Equal(t, fmt.Sprintf("change %d", ChangeLogLimit+9), f.Chronology.ChangeLog[ChangeLogLimit-1].Details)
}

func TestNextOrder(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, NextOrder(nil, func(int) int { return 0 }))
	assert.Equal(t, 8, NextOrder([]int{3, 7, 2}, func(o int) int { return o }))
}

func TestAddNode_AssignsMonotonicOrders(t *testing.T) {
	t.Parallel()

	f := testFlowchart()

	first := NewNode(models.NodeTypeStart, "Start", models.Position{X: 10, Y: 10}, nil)
	second := NewNode(models.NodeTypeProcess, "Work", models.Position{X: 20, Y: 20}, nil)

	AddNode(f, first)
	AddNode(f, second)

	assert.Equal(t, 1, first.Chronology.Order)
	assert.Equal(t, 2, second.Chronology.Order)

	require.Len(t, f.Chronology.ChangeLog, 2)
	assert.Equal(t, "node_added", f.Chronology.ChangeLog[0].Action)
	assert.Equal(t, "Added start node: Start", f.Chronology.ChangeLog[0].Details)
	assert.Equal(t, "Added process node: Work", f.Chronology.ChangeLog[1].Details)
}

func TestAddConnection_AssignsOrderAndLogs(t *testing.T) {
	t.Parallel()

	f := testFlowchart()

	c := NewConnection("start-1", "end-1", nil)
	AddConnection(f, c)

	assert.Equal(t, 1, c.Chronology.Order)

	require.Len(t, f.Chronology.ChangeLog, 1)
	assert.Equal(t, "connection_added", f.Chronology.ChangeLog[0].Action)
	assert.Equal(t, "Added connection from start-1 to end-1", f.Chronology.ChangeLog[0].Details)
}

func TestRemoveNode_DropsAttachedConnections(t *testing.T) {
	t.Parallel()

	f := testFlowchart()

	start := NewNode(models.NodeTypeStart, "Start", models.Position{X: 0, Y: 0}, nil)
	work := NewNode(models.NodeTypeProcess, "Work", models.Position{X: 50, Y: 50}, nil)
	end := NewNode(models.NodeTypeEnd, "End", models.Position{X: 100, Y: 100}, nil)

	AddNode(f, start)
	AddNode(f, work)
	AddNode(f, end)
	AddConnection(f, NewConnection(start.ID, work.ID, nil))
	AddConnection(f, NewConnection(work.ID, end.ID, nil))
	AddConnection(f, NewConnection(start.ID, end.ID, nil))

	RemoveNode(f, work.ID)

	assert.Len(t, f.Nodes, 2)
	require.Len(t, f.Connections, 1)
	assert.Equal(t, start.ID, f.Connections[0].From)
	assert.Equal(t, end.ID, f.Connections[0].To)

	last := f.Chronology.ChangeLog[len(f.Chronology.ChangeLog)-1]
	assert.Equal(t, "node_removed", last.Action)
	assert.Equal(t, "Removed node: "+work.ID, last.Details)
}

func TestNextOrder_SurvivesGaps(t *testing.T) {
	t.Parallel()

	f := testFlowchart()

	first := NewNode(models.NodeTypeStart, "Start", models.Position{X: 0, Y: 0}, nil)
	second := NewNode(models.NodeTypeProcess, "Work", models.Position{X: 10, Y: 10}, nil)

	AddNode(f, first)
	AddNode(f, second)
	RemoveNode(f, first.ID)

	third := NewNode(models.NodeTypeEnd, "End", models.Position{X: 20, Y: 20}, nil)
	AddNode(f, third)

	// Orders never reuse freed slots; max+1 over survivors.
	assert.Equal(t, 3, third.Chronology.Order)
}
