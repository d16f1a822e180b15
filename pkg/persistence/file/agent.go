package file

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/agentdash/agentdash/pkg/models"
	"github.com/agentdash/agentdash/pkg/persistence"
)

const agentsDir = "agents"

// AgentRepository handles agent file operations.
type AgentRepository struct {
	root string
}

// NewAgentRepository creates a new agent repository.
func NewAgentRepository(root string) *AgentRepository {
	return &AgentRepository{root: root}
}

// List returns paginated and filtered agents with in-memory operations.
func (ar *AgentRepository) List(_ context.Context, opts persistence.ListAgentsOptions) (*persistence.AgentListResult, error) {
	if opts.Limit <= 0 || opts.Limit > 100 {
		opts.Limit = 20
	}

	if opts.SortBy == "" {
		opts.SortBy = "created_at"
	}

	if opts.SortOrder == "" {
		opts.SortOrder = "desc"
	}

	// Allowlist sort fields
	allowedSorts := map[string]bool{
		"created_at": true,
		"updated_at": true,
		"name":       true,
	}
	if !allowedSorts[opts.SortBy] {
		return nil, fmt.Errorf("invalid sort field: %s", opts.SortBy)
	}

	all, err := listDocuments[models.Agent](ar.root, agentsDir)
	if err != nil {
		return nil, err
	}

	filtered := make([]*models.Agent, 0, len(all))

	for _, agent := range all {
		if opts.Status != nil && agent.Status != *opts.Status {
			continue
		}

		if opts.Category != "" && agent.Category != opts.Category {
			continue
		}

		filtered = append(filtered, agent)
	}

	sortAgents(filtered, opts.SortBy, opts.SortOrder)

	totalCount := int64(len(filtered))

	startIdx := opts.Offset
	if startIdx >= len(filtered) {
		return &persistence.AgentListResult{
			Agents:      make([]*models.Agent, 0),
			TotalCount:  totalCount,
			HasNextPage: false,
		}, nil
	}

	endIdx := opts.Offset + opts.Limit
	if endIdx > len(filtered) {
		endIdx = len(filtered)
	}

	return &persistence.AgentListResult{
		Agents:      filtered[startIdx:endIdx],
		TotalCount:  totalCount,
		HasNextPage: endIdx < len(filtered),
	}, nil
}

func sortAgents(agents []*models.Agent, sortBy, sortOrder string) {
	sort.Slice(agents, func(i, j int) bool {
		var less bool

		switch sortBy {
		case "updated_at":
			less = agents[i].UpdatedAt.Before(agents[j].UpdatedAt)
		case "name":
			less = agents[i].Name < agents[j].Name
		default:
			less = agents[i].CreatedAt.Before(agents[j].CreatedAt)
		}

		if sortOrder == "desc" {
			return !less
		}

		return less
	})
}

// GetByID retrieves an agent by its ID from the file system.
func (ar *AgentRepository) GetByID(_ context.Context, id string) (*models.Agent, error) {
	doc, _, err := readDocument[models.Agent](ar.root, agentsDir, id)

	return doc, err
}

// Save writes an agent to the file system.
func (ar *AgentRepository) Save(_ context.Context, agent *models.Agent) error {
	now := time.Now().UTC()
	if agent.CreatedAt.IsZero() {
		agent.CreatedAt = now
	}

	agent.UpdatedAt = now

	return writeDocument(ar.root, agentsDir, agent.ID, agent)
}

// Delete removes an agent by its ID.
func (ar *AgentRepository) Delete(_ context.Context, id string) error {
	return deleteDocument(ar.root, agentsDir, id)
}

// Count returns the number of agents, optionally restricted to a status.
func (ar *AgentRepository) Count(_ context.Context, status *models.AgentStatus) (int64, error) {
	all, err := listDocuments[models.Agent](ar.root, agentsDir)
	if err != nil {
		return 0, err
	}

	if status == nil {
		return int64(len(all)), nil
	}

	var count int64

	for _, agent := range all {
		if agent.Status == *status {
			count++
		}
	}

	return count, nil
}
