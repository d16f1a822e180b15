package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/agentdash/agentdash/pkg/models"
	"github.com/agentdash/agentdash/pkg/persistence"
)

// Dashboard aggregates counters for the overview screen.
type Dashboard struct {
	persistence persistence.Persistence
}

// NewDashboard creates a new dashboard service.
func NewDashboard(persistence persistence.Persistence) *Dashboard {
	return &Dashboard{persistence: persistence}
}

// Stats is the dashboard overview payload.
type Stats struct {
	TotalAgents      int64   `json:"totalAgents"`
	ActiveAgents     int64   `json:"activeAgents"`
	TotalExecutions  int64   `json:"totalExecutions"`
	RecentExecutions int64   `json:"recentExecutions"`
	SuccessRate      float64 `json:"successRate"`
}

// GetStats computes the dashboard counters. Recent executions are those
// started in the last 24 hours; the success rate is a percentage over all
// executions, rounded to two decimals, and 0 when there are none.
func (s *Dashboard) GetStats(ctx context.Context) (*Stats, error) {
	agents := s.persistence.AgentRepository()
	executions := s.persistence.ExecutionRepository()

	totalAgents, err := agents.Count(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count agents: %w", err)
	}

	running := models.AgentStatusRunning

	activeAgents, err := agents.Count(ctx, &running)
	if err != nil {
		return nil, fmt.Errorf("failed to count active agents: %w", err)
	}

	totalExecutions, err := executions.Count(ctx, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count executions: %w", err)
	}

	since := time.Now().UTC().Add(-24 * time.Hour)

	recentExecutions, err := executions.Count(ctx, nil, &since)
	if err != nil {
		return nil, fmt.Errorf("failed to count recent executions: %w", err)
	}

	var successRate float64

	if totalExecutions > 0 {
		success := models.ExecutionStatusSuccess

		successCount, err := executions.Count(ctx, &success, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to count successful executions: %w", err)
		}

		successRate = math.Round(float64(successCount)/float64(totalExecutions)*100*100) / 100
	}

	return &Stats{
		TotalAgents:      totalAgents,
		ActiveAgents:     activeAgents,
		TotalExecutions:  totalExecutions,
		RecentExecutions: recentExecutions,
		SuccessRate:      successRate,
	}, nil
}
