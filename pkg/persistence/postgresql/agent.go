package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/agentdash/agentdash/pkg/models"
	"github.com/agentdash/agentdash/pkg/persistence"
)

// AgentRepository handles agent-related database operations.
type AgentRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewAgentRepository creates a new agent repository.
func NewAgentRepository(db *sql.DB, logger *slog.Logger) *AgentRepository {
	return &AgentRepository{db: db, logger: logger}
}

const agentColumns = `
	id
  , name
  , description
  , status
  , category
  , enabled
  , configuration
  , created_at
  , updated_at
  , last_active
  , last_execution
  , execution_count
  , created_by_id
`

var agentSortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"name":       "name",
}

// List returns paginated and filtered agents.
func (r *AgentRepository) List(ctx context.Context, opts persistence.ListAgentsOptions) (*persistence.AgentListResult, error) {
	if opts.Limit <= 0 || opts.Limit > 100 {
		opts.Limit = 20
	}

	if opts.SortBy == "" {
		opts.SortBy = "created_at"
	}

	if opts.SortOrder == "" {
		opts.SortOrder = "desc"
	}

	sortColumn, ok := agentSortColumns[opts.SortBy]
	if !ok {
		return nil, fmt.Errorf("invalid sort field: %s", opts.SortBy)
	}

	direction := "DESC"
	if opts.SortOrder == "asc" {
		direction = "ASC"
	}

	where := "WHERE TRUE"
	args := []any{}

	if opts.Status != nil {
		args = append(args, string(*opts.Status))
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	if opts.Category != "" {
		args = append(args, opts.Category)
		where += fmt.Sprintf(" AND category = $%d", len(args))
	}

	var totalCount int64

	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM agents "+where, args...).Scan(&totalCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count agents: %w", err)
	}

	args = append(args, opts.Limit, opts.Offset)
	query := fmt.Sprintf(
		"SELECT %s FROM agents %s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		agentColumns, where, sortColumn, direction, len(args)-1, len(args),
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query agents: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	agents := make([]*models.Agent, 0)

	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}

		agents = append(agents, agent)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating agents: %w", err)
	}

	return &persistence.AgentListResult{
		Agents:      agents,
		TotalCount:  totalCount,
		HasNextPage: int64(opts.Offset+len(agents)) < totalCount,
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgent(row rowScanner) (*models.Agent, error) {
	var (
		agent             models.Agent
		configurationJSON []byte
		lastExecution     sql.NullTime
	)

	err := row.Scan(
		&agent.ID,
		&agent.Name,
		&agent.Description,
		&agent.Status,
		&agent.Category,
		&agent.Enabled,
		&configurationJSON,
		&agent.CreatedAt,
		&agent.UpdatedAt,
		&agent.LastActive,
		&lastExecution,
		&agent.ExecutionCount,
		&agent.CreatedByID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan agent: %w", err)
	}

	if len(configurationJSON) > 0 {
		if err := json.Unmarshal(configurationJSON, &agent.Configuration); err != nil {
			return nil, fmt.Errorf("failed to unmarshal agent configuration: %w", err)
		}
	}

	if lastExecution.Valid {
		agent.LastExecution = &lastExecution.Time
	}

	return &agent, nil
}

// GetByID returns an agent by its ID, or nil when absent.
func (r *AgentRepository) GetByID(ctx context.Context, id string) (*models.Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE id = $1`

	agent, err := scanAgent(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return agent, nil
}

// Save upserts an agent.
func (r *AgentRepository) Save(ctx context.Context, agent *models.Agent) error {
	now := time.Now().UTC()
	if agent.CreatedAt.IsZero() {
		agent.CreatedAt = now
	}

	agent.UpdatedAt = now

	configurationJSON, err := json.Marshal(agent.Configuration)
	if err != nil {
		return fmt.Errorf("failed to marshal agent configuration: %w", err)
	}

	query := `
		INSERT INTO agents (id, name, description, status, category, enabled,
			configuration, created_at, updated_at, last_active, last_execution,
			execution_count, created_by_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			category = EXCLUDED.category,
			enabled = EXCLUDED.enabled,
			configuration = EXCLUDED.configuration,
			updated_at = EXCLUDED.updated_at,
			last_active = EXCLUDED.last_active,
			last_execution = EXCLUDED.last_execution,
			execution_count = EXCLUDED.execution_count,
			created_by_id = EXCLUDED.created_by_id
	`

	var lastExecution sql.NullTime
	if agent.LastExecution != nil {
		lastExecution = sql.NullTime{Time: *agent.LastExecution, Valid: true}
	}

	_, err = r.db.ExecContext(ctx, query,
		agent.ID,
		agent.Name,
		agent.Description,
		agent.Status,
		agent.Category,
		agent.Enabled,
		configurationJSON,
		agent.CreatedAt,
		agent.UpdatedAt,
		agent.LastActive,
		lastExecution,
		agent.ExecutionCount,
		agent.CreatedByID,
	)
	if err != nil {
		return fmt.Errorf("failed to save agent %s: %w", agent.ID, err)
	}

	return nil
}

// Delete removes an agent by its ID.
func (r *AgentRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM agents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete agent %s: %w", id, err)
	}

	return nil
}

// Count returns the number of agents, optionally restricted to a status.
func (r *AgentRepository) Count(ctx context.Context, status *models.AgentStatus) (int64, error) {
	var count int64

	var err error
	if status == nil {
		err = r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM agents").Scan(&count)
	} else {
		err = r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM agents WHERE status = $1", string(*status)).Scan(&count)
	}

	if err != nil {
		return 0, fmt.Errorf("failed to count agents: %w", err)
	}

	return count, nil
}
