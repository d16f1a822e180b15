package services

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentdash/agentdash/pkg/models"
	"github.com/agentdash/agentdash/pkg/persistence/file"
)

func newExecutionService(t *testing.T) (*Execution, *Agent, *file.Persistence) {
	t.Helper()

	persistence := file.NewPersistence(t.TempDir())
	logger := slog.New(slog.DiscardHandler)
	agents := NewAgent(persistence, nil, logger)
	service := NewExecution(persistence, nil, agents, logger)

	return service, agents, persistence
}

func TestExecution_Start(t *testing.T) {
	service, _, persistence := newExecutionService(t)
	saveAgent(t, persistence, "agent-1", "Billing Agent")

	execution, err := service.Start(t.Context(), "agent-1")
	require.NoError(t, err)

	assert.NotEmpty(t, execution.ID)
	assert.Equal(t, "agent-1", execution.AgentID)
	assert.Equal(t, models.ExecutionStatusRunning, execution.Status)
	assert.False(t, execution.StartTime.IsZero())
	assert.Nil(t, execution.EndTime)

	_, err = service.Start(t.Context(), "missing")
	assert.ErrorIs(t, err, ErrAgentNotFound)
}

func TestExecution_Finish(t *testing.T) {
	service, agents, persistence := newExecutionService(t)
	saveAgent(t, persistence, "agent-1", "Billing Agent")

	execution, err := service.Start(t.Context(), "agent-1")
	require.NoError(t, err)

	finished, err := service.Finish(t.Context(), execution.ID, models.ExecutionStatusSuccess, "42 invoices", "")
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusSuccess, finished.Status)
	assert.Equal(t, "42 invoices", finished.Result)
	require.NotNil(t, finished.EndTime)
	assert.True(t, finished.Finished())

	// The owning agent's bookkeeping follows.
	agent, err := agents.FetchByID(t.Context(), "agent-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), agent.ExecutionCount)
	require.NotNil(t, agent.LastExecution)
}

func TestExecution_Finish_Failed(t *testing.T) {
	service, _, persistence := newExecutionService(t)
	saveAgent(t, persistence, "agent-1", "Billing Agent")

	execution, err := service.Start(t.Context(), "agent-1")
	require.NoError(t, err)

	finished, err := service.Finish(t.Context(), execution.ID, models.ExecutionStatusFailed, "", "upstream timeout")
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusFailed, finished.Status)
	assert.Equal(t, "upstream timeout", finished.Error)
}

func TestExecution_Finish_Errors(t *testing.T) {
	service, _, persistence := newExecutionService(t)
	saveAgent(t, persistence, "agent-1", "Billing Agent")

	execution, err := service.Start(t.Context(), "agent-1")
	require.NoError(t, err)

	// Only terminal statuses are accepted.
	_, err = service.Finish(t.Context(), execution.ID, models.ExecutionStatusRunning, "", "")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = service.Finish(t.Context(), "missing", models.ExecutionStatusSuccess, "", "")
	assert.ErrorIs(t, err, ErrExecutionNotFound)
}

func TestExecution_AppendLogs(t *testing.T) {
	service, _, persistence := newExecutionService(t)
	saveAgent(t, persistence, "agent-1", "Billing Agent")

	execution, err := service.Start(t.Context(), "agent-1")
	require.NoError(t, err)

	updated, err := service.AppendLogs(t.Context(), execution.ID, []models.ExecutionLog{
		{Level: models.LogLevelInfo, Message: "fetching invoices"},
		{Level: models.LogLevelWarn, Message: "slow response", Timestamp: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, err)

	require.Len(t, updated.Logs, 2)
	assert.False(t, updated.Logs[0].Timestamp.IsZero())
	assert.Equal(t, models.LogLevelWarn, updated.Logs[1].Level)

	_, err = service.AppendLogs(t.Context(), execution.ID, nil)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = service.AppendLogs(t.Context(), "missing", []models.ExecutionLog{{Level: models.LogLevelInfo, Message: "x"}})
	assert.ErrorIs(t, err, ErrExecutionNotFound)
}

func TestExecution_ListExecutions(t *testing.T) {
	service, _, persistence := newExecutionService(t)
	saveAgent(t, persistence, "agent-1", "Billing Agent")
	saveAgent(t, persistence, "agent-2", "Support Agent")

	first, err := service.Start(t.Context(), "agent-1")
	require.NoError(t, err)

	_, err = service.Start(t.Context(), "agent-2")
	require.NoError(t, err)

	_, err = service.Finish(t.Context(), first.ID, models.ExecutionStatusSuccess, "", "")
	require.NoError(t, err)

	all, err := service.ListExecutions(t.Context(), ListExecutionsRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.TotalCount)

	byAgent, err := service.ListExecutions(t.Context(), ListExecutionsRequest{AgentID: "agent-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), byAgent.TotalCount)

	success := models.ExecutionStatusSuccess

	byStatus, err := service.ListExecutions(t.Context(), ListExecutionsRequest{Status: &success})
	require.NoError(t, err)
	require.Len(t, byStatus.Executions, 1)
	assert.Equal(t, first.ID, byStatus.Executions[0].ID)

	_, err = service.ListExecutions(t.Context(), ListExecutionsRequest{SortOrder: "sideways"})
	assert.ErrorIs(t, err, ErrInvalidSortOrder)

	bogus := models.ExecutionStatus("paused")

	_, err = service.ListExecutions(t.Context(), ListExecutionsRequest{Status: &bogus})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestExecution_FailStale(t *testing.T) {
	service, _, persistence := newExecutionService(t)
	saveAgent(t, persistence, "agent-1", "Billing Agent")

	stale, err := service.Start(t.Context(), "agent-1")
	require.NoError(t, err)

	// Age the record past the cutoff.
	stale.StartTime = time.Now().UTC().Add(-2 * time.Hour)
	require.NoError(t, persistence.ExecutionRepository().Save(t.Context(), stale))

	fresh, err := service.Start(t.Context(), "agent-1")
	require.NoError(t, err)

	closed, err := service.FailStale(t.Context(), time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, closed)

	reaped, err := service.FetchByID(t.Context(), stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusFailed, reaped.Status)
	assert.Equal(t, "execution timed out", reaped.Error)
	require.NotNil(t, reaped.EndTime)

	untouched, err := service.FetchByID(t.Context(), fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusRunning, untouched.Status)
}
