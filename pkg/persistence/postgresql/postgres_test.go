package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/agentdash/agentdash/pkg/models"
	"github.com/agentdash/agentdash/pkg/persistence"
	"github.com/agentdash/agentdash/pkg/persistence/postgresql"
)

var postgresContainer *postgres.PostgresContainer

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	for _, table := range []string{"flowcharts", "executions", "agents", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	err = db.Close()
	require.NoError(t, err)
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context, string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("agentdash_test"),
			postgres.WithUsername("agentdash"),
			postgres.WithPassword("agentdash"),
			postgres.BasicWaitStrategies(),
		)
		require.NoError(t, err)
	}

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDb(ctx, t, databaseURL)

		err = p.Close(ctx)
		require.NoError(t, err)

		cancel()
	})

	return p, ctx, databaseURL
}

func TestNewPersistence_Migrations(t *testing.T) {
	_, ctx, databaseURL := setupTestDB(t)

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() {
		err := db.Close()
		require.NoError(t, err)
	}()

	var exists bool

	for _, table := range []string{"agents", "executions", "flowcharts", "schema_migrations"} {
		err = db.QueryRowContext(ctx, `SELECT EXISTS (SELECT FROM
information_schema.tables WHERE table_name = $1)`, table).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, table+" table should exist")
	}

	var version int

	err = db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 3, version)
}

func TestNewPersistence_HealthCheck(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	assert.NoError(t, p.HealthCheck(ctx))
}

func TestAgentRepository_SaveAndList(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	repo := p.AgentRepository()

	agent := &models.Agent{
		ID:          uuid.New().String(),
		Name:        "Billing Agent",
		Description: "Handles invoices",
		Status:      models.AgentStatusRunning,
		Category:    "finance",
		Enabled:     true,
		Configuration: map[string]any{
			"endpoint": "https://billing.internal",
		},
	}
	require.NoError(t, repo.Save(ctx, agent))

	fetched, err := repo.GetByID(ctx, agent.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, "Billing Agent", fetched.Name)
	assert.Equal(t, "https://billing.internal", fetched.Configuration["endpoint"])
	assert.Nil(t, fetched.LastExecution)

	other := &models.Agent{
		ID:          uuid.New().String(),
		Name:        "Support Agent",
		Description: "Answers tickets",
		Status:      models.AgentStatusIdle,
	}
	require.NoError(t, repo.Save(ctx, other))

	result, err := repo.List(ctx, persistence.ListAgentsOptions{SortBy: "name", SortOrder: "asc"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.TotalCount)
	require.Len(t, result.Agents, 2)
	assert.Equal(t, "Billing Agent", result.Agents[0].Name)

	running := models.AgentStatusRunning

	filtered, err := repo.List(ctx, persistence.ListAgentsOptions{Status: &running})
	require.NoError(t, err)
	assert.Equal(t, int64(1), filtered.TotalCount)

	count, err := repo.Count(ctx, &running)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// Upsert path: saving the same id updates in place.
	agent.Name = "Billing Agent v2"
	require.NoError(t, repo.Save(ctx, agent))

	updated, err := repo.GetByID(ctx, agent.ID)
	require.NoError(t, err)
	assert.Equal(t, "Billing Agent v2", updated.Name)

	require.NoError(t, repo.Delete(ctx, agent.ID))

	gone, err := repo.GetByID(ctx, agent.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestExecutionRepository_RoundTrip(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	repo := p.ExecutionRepository()

	execution := &models.Execution{
		ID:        uuid.New().String(),
		AgentID:   "agent-1",
		Status:    models.ExecutionStatusRunning,
		StartTime: time.Now().UTC().Add(-2 * time.Hour),
		Logs: []models.ExecutionLog{
			{Timestamp: time.Now().UTC(), Level: models.LogLevelInfo, Message: "started"},
		},
	}
	require.NoError(t, repo.Save(ctx, execution))

	fetched, err := repo.GetByID(ctx, execution.ID)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	require.Len(t, fetched.Logs, 1)
	assert.Equal(t, "started", fetched.Logs[0].Message)

	stale, err := repo.ListStaleRunning(ctx, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, execution.ID, stale[0].ID)

	now := time.Now().UTC()
	execution.Status = models.ExecutionStatusSuccess
	execution.EndTime = &now
	execution.Result = "done"
	require.NoError(t, repo.Save(ctx, execution))

	finished, err := repo.GetByID(ctx, execution.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExecutionStatusSuccess, finished.Status)
	require.NotNil(t, finished.EndTime)

	success := models.ExecutionStatusSuccess

	count, err := repo.Count(ctx, &success, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	since := time.Now().UTC().Add(-24 * time.Hour)

	recent, err := repo.Count(ctx, nil, &since)
	require.NoError(t, err)
	assert.Equal(t, int64(1), recent)
}

func TestFlowchartRepository_RoundTrip(t *testing.T) {
	p, ctx, _ := setupTestDB(t)
	repo := p.FlowchartRepository()

	flowchart := &models.Flowchart{
		ID:      uuid.New().String(),
		AgentID: "agent-1",
		Version: "1.0.0",
		Nodes: []*models.FlowchartNode{
			{ID: "start-1", Type: models.NodeTypeStart, Title: "Start", Position: &models.Position{X: 0, Y: 0}},
			{ID: "end-1", Type: models.NodeTypeEnd, Title: "End", Position: &models.Position{X: 200, Y: 0}},
		},
		Connections: []*models.FlowchartConnection{
			{ID: "conn-1", From: "start-1", To: "end-1"},
		},
		Metadata: models.FlowchartMetadata{Title: "Billing Flow"},
		Chronology: models.FlowchartChronology{
			CreatedAt:    time.Now().UTC(),
			LastModified: time.Now().UTC(),
			Version:      "1.0.0",
			ChangeLog: []models.ChangeLogEntry{
				{Timestamp: time.Now().UTC(), Action: "created", Details: "Flowchart created"},
			},
		},
	}
	require.NoError(t, repo.Save(ctx, flowchart))

	byAgent, err := repo.GetByAgentID(ctx, "agent-1")
	require.NoError(t, err)
	require.NotNil(t, byAgent)
	assert.Equal(t, flowchart.ID, byAgent.ID)
	require.Len(t, byAgent.Nodes, 2)
	assert.Equal(t, "Billing Flow", byAgent.Metadata.Title)
	require.Len(t, byAgent.Chronology.ChangeLog, 1)

	missing, err := repo.GetByAgentID(ctx, "agent-2")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, repo.Delete(ctx, flowchart.ID))

	gone, err := repo.GetByID(ctx, flowchart.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}
