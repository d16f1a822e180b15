package reaper

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentdash/agentdash/pkg/models"
	"github.com/agentdash/agentdash/pkg/persistence/file"
	"github.com/agentdash/agentdash/pkg/services"
)

func setupReaper(t *testing.T, maxAge time.Duration) (*Reaper, *services.Execution, *file.Persistence) {
	t.Helper()

	persistence := file.NewPersistence(t.TempDir())
	logger := slog.New(slog.DiscardHandler)
	agents := services.NewAgent(persistence, nil, logger)
	executions := services.NewExecution(persistence, nil, agents, logger)

	return New(executions, logger, maxAge, ""), executions, persistence
}

func TestNew_DefaultSchedule(t *testing.T) {
	t.Parallel()

	r, _, _ := setupReaper(t, time.Hour)
	assert.Equal(t, defaultSchedule, r.schedule)
}

func TestSweep(t *testing.T) {
	t.Parallel()

	r, executions, persistence := setupReaper(t, time.Hour)

	require.NoError(t, persistence.AgentRepository().Save(t.Context(), &models.Agent{
		ID:          "agent-1",
		Name:        "Billing Agent",
		Description: "test agent",
		Status:      models.AgentStatusIdle,
	}))

	stale, err := executions.Start(t.Context(), "agent-1")
	require.NoError(t, err)

	stale.StartTime = time.Now().UTC().Add(-2 * time.Hour)
	require.NoError(t, persistence.ExecutionRepository().Save(t.Context(), stale))

	fresh, err := executions.Start(t.Context(), "agent-1")
	require.NoError(t, err)

	r.Sweep(t.Context())

	reaped, err := executions.FetchByID(t.Context(), stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusFailed, reaped.Status)
	assert.Equal(t, "execution timed out", reaped.Error)

	untouched, err := executions.FetchByID(t.Context(), fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusRunning, untouched.Status)
}

func TestStartAndStop(t *testing.T) {
	t.Parallel()

	r, _, _ := setupReaper(t, time.Hour)

	require.NoError(t, r.Start(t.Context()))
	r.Stop()
}

func TestStart_InvalidSchedule(t *testing.T) {
	t.Parallel()

	persistence := file.NewPersistence(t.TempDir())
	logger := slog.New(slog.DiscardHandler)
	agents := services.NewAgent(persistence, nil, logger)
	executions := services.NewExecution(persistence, nil, agents, logger)

	r := New(executions, logger, time.Hour, "not a schedule")
	assert.Error(t, r.Start(t.Context()))
}
