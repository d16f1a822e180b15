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

func TestDashboard_GetStats_Empty(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	service := NewDashboard(persistence)

	stats, err := service.GetStats(t.Context())
	require.NoError(t, err)

	assert.Equal(t, int64(0), stats.TotalAgents)
	assert.Equal(t, int64(0), stats.ActiveAgents)
	assert.Equal(t, int64(0), stats.TotalExecutions)
	assert.Equal(t, int64(0), stats.RecentExecutions)
	assert.Equal(t, float64(0), stats.SuccessRate)
}

func TestDashboard_GetStats(t *testing.T) {
	persistence := file.NewPersistence(t.TempDir())
	logger := slog.New(slog.DiscardHandler)
	agents := NewAgent(persistence, nil, logger)
	executions := NewExecution(persistence, nil, agents, logger)
	service := NewDashboard(persistence)

	running, err := agents.Create(t.Context(), &models.Agent{
		Name:        "Billing Agent",
		Description: "Handles invoices",
		Status:      models.AgentStatusRunning,
	})
	require.NoError(t, err)

	_, err = agents.Create(t.Context(), &models.Agent{
		Name:        "Support Agent",
		Description: "Answers tickets",
	})
	require.NoError(t, err)

	// Two successes and one failure, all recent.
	for _, status := range []models.ExecutionStatus{
		models.ExecutionStatusSuccess,
		models.ExecutionStatusSuccess,
		models.ExecutionStatusFailed,
	} {
		execution, err := executions.Start(t.Context(), running.ID)
		require.NoError(t, err)

		_, err = executions.Finish(t.Context(), execution.ID, status, "", "")
		require.NoError(t, err)
	}

	// One old execution outside the 24 hour window.
	old := &models.Execution{
		ID:        "execution-old",
		AgentID:   running.ID,
		Status:    models.ExecutionStatusFailed,
		StartTime: time.Now().UTC().Add(-48 * time.Hour),
	}
	require.NoError(t, persistence.ExecutionRepository().Save(t.Context(), old))

	stats, err := service.GetStats(t.Context())
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.TotalAgents)
	assert.Equal(t, int64(1), stats.ActiveAgents)
	assert.Equal(t, int64(4), stats.TotalExecutions)
	assert.Equal(t, int64(3), stats.RecentExecutions)

	// 2 of 4 succeeded, rounded to two decimals.
	assert.InDelta(t, 50.0, stats.SuccessRate, 0.001)
}
