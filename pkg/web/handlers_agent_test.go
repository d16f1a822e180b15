package web_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentdash/agentdash/pkg/models"
	"github.com/agentdash/agentdash/pkg/web"
)

func TestCreateAgent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		requestBody    any
		expectedStatus int
		validateResult func(t *testing.T, body map[string]any)
	}{
		{
			name: "successful creation",
			requestBody: web.CreateAgentRequest{
				Name:        "Billing Agent",
				Description: "Handles invoices",
				Category:    "finance",
				Enabled:     true,
			},
			expectedStatus: http.StatusCreated,
			validateResult: func(t *testing.T, body map[string]any) {
				t.Helper()

				assert.NotEmpty(t, body["id"])
				assert.Equal(t, "Billing Agent", body["name"])
				assert.Equal(t, string(models.AgentStatusIdle), body["status"])
			},
		},
		{
			name: "name too short",
			requestBody: web.CreateAgentRequest{
				Name:        "ab",
				Description: "Handles invoices",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "missing description",
			requestBody: web.CreateAgentRequest{
				Name: "Billing Agent",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "invalid status",
			requestBody: map[string]any{
				"name":        "Billing Agent",
				"description": "Handles invoices",
				"status":      "Sleeping",
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app, _ := setupTestApp(t)

			resp, err := app.Test(jsonRequest(t, http.MethodPost, "/agents/", tt.requestBody))
			require.NoError(t, err)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.validateResult != nil {
				tt.validateResult(t, decodeBody(t, resp))
			}
		})
	}
}

func TestGetAgents(t *testing.T) {
	t.Parallel()

	app, persistence := setupTestApp(t)
	seedAgent(t, persistence, "agent-1", "Alpha Agent")
	seedAgent(t, persistence, "agent-2", "Beta Agent")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/agents/?sort_by=name&sort_order=asc", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, float64(2), body["totalCount"])
	assert.Equal(t, false, body["hasNextPage"])

	agents, ok := body["agents"].([]any)
	require.True(t, ok)
	require.Len(t, agents, 2)

	first, ok := agents[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Alpha Agent", first["name"])

	sorting, ok := body["sorting"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "name", sorting["sortBy"])

	// Invalid query parameters are client errors.
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/agents/?limit=abc", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/agents/?sort_by=secret", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetAgent(t *testing.T) {
	t.Parallel()

	app, persistence := setupTestApp(t)
	seedAgent(t, persistence, "agent-1", "Billing Agent")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/agents/agent-1", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "Billing Agent", body["name"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/agents/ghost", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUpdateAgent(t *testing.T) {
	t.Parallel()

	app, persistence := setupTestApp(t)
	seedAgent(t, persistence, "agent-1", "Billing Agent")

	name := "Billing Agent v2"
	status := models.AgentStatusRunning

	resp, err := app.Test(jsonRequest(t, http.MethodPatch, "/agents/agent-1", web.UpdateAgentRequest{
		Name:   &name,
		Status: &status,
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "Billing Agent v2", body["name"])
	assert.Equal(t, string(models.AgentStatusRunning), body["status"])

	// Untouched fields survive the partial update.
	assert.Equal(t, "test agent", body["description"])

	resp, err = app.Test(jsonRequest(t, http.MethodPatch, "/agents/ghost", web.UpdateAgentRequest{Name: &name}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteAgent(t *testing.T) {
	t.Parallel()

	app, persistence := setupTestApp(t)
	seedAgent(t, persistence, "agent-1", "Billing Agent")

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/agents/agent-1", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/agents/agent-1", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestExecutionEndpoints(t *testing.T) {
	t.Parallel()

	app, persistence := setupTestApp(t)
	seedAgent(t, persistence, "agent-1", "Billing Agent")

	// Start a run.
	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/agents/agent-1/executions", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	started := decodeBody(t, resp)
	executionID, ok := started["id"].(string)
	require.True(t, ok)
	assert.Equal(t, string(models.ExecutionStatusRunning), started["status"])

	// Starting a run for a missing agent fails.
	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/agents/ghost/executions", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// Report some logs.
	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/executions/"+executionID+"/logs", web.AppendExecutionLogsRequest{
		Logs: []models.ExecutionLog{
			{Level: models.LogLevelInfo, Message: "fetching invoices"},
		},
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// An empty log batch is rejected by request validation.
	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/executions/"+executionID+"/logs", map[string]any{"logs": []any{}}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Finish the run.
	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/executions/"+executionID+"/finish", web.FinishExecutionRequest{
		Status: models.ExecutionStatusSuccess,
		Result: "42 invoices",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	finished := decodeBody(t, resp)
	assert.Equal(t, string(models.ExecutionStatusSuccess), finished["status"])

	// A non-terminal status is rejected.
	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/executions/"+executionID+"/finish", map[string]any{
		"status": "running",
	}))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Fetch and list.
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/executions/"+executionID, nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/executions/?agent_id=agent-1", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	listed := decodeBody(t, resp)
	assert.Equal(t, float64(1), listed["totalCount"])

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/executions/ghost", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetDashboardStats(t *testing.T) {
	t.Parallel()

	app, persistence := setupTestApp(t)
	seedAgent(t, persistence, "agent-1", "Billing Agent")

	resp, err := app.Test(jsonRequest(t, http.MethodPost, "/agents/agent-1/executions", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	started := decodeBody(t, resp)
	executionID, ok := started["id"].(string)
	require.True(t, ok)

	resp, err = app.Test(jsonRequest(t, http.MethodPost, "/executions/"+executionID+"/finish", web.FinishExecutionRequest{
		Status: models.ExecutionStatusSuccess,
	}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/dashboard/stats", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	stats, ok := body["stats"].(map[string]any)
	require.True(t, ok)

	assert.Equal(t, float64(1), stats["totalAgents"])
	assert.Equal(t, float64(1), stats["totalExecutions"])
	assert.Equal(t, float64(1), stats["recentExecutions"])
	assert.Equal(t, float64(100), stats["successRate"])
}
