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

// ExecutionRepository handles execution-related database operations.
type ExecutionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(db *sql.DB, logger *slog.Logger) *ExecutionRepository {
	return &ExecutionRepository{db: db, logger: logger}
}

const executionColumns = `
	id
  , agent_id
  , status
  , start_time
  , end_time
  , result
  , error
  , logs
`

// List returns paginated and filtered executions, newest first by default.
func (r *ExecutionRepository) List(ctx context.Context, opts persistence.ListExecutionsOptions) (*persistence.ExecutionListResult, error) {
	if opts.Limit <= 0 || opts.Limit > 100 {
		opts.Limit = 20
	}

	if opts.SortBy != "" && opts.SortBy != "start_time" {
		return nil, fmt.Errorf("invalid sort field: %s", opts.SortBy)
	}

	direction := "DESC"
	if opts.SortOrder == "asc" {
		direction = "ASC"
	}

	where := "WHERE TRUE"
	args := []any{}

	if opts.AgentID != "" {
		args = append(args, opts.AgentID)
		where += fmt.Sprintf(" AND agent_id = $%d", len(args))
	}

	if opts.Status != nil {
		args = append(args, string(*opts.Status))
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var totalCount int64

	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM executions "+where, args...).Scan(&totalCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count executions: %w", err)
	}

	args = append(args, opts.Limit, opts.Offset)
	query := fmt.Sprintf(
		"SELECT %s FROM executions %s ORDER BY start_time %s LIMIT $%d OFFSET $%d",
		executionColumns, where, direction, len(args)-1, len(args),
	)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query executions: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	executions := make([]*models.Execution, 0)

	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}

		executions = append(executions, execution)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}

	return &persistence.ExecutionListResult{
		Executions:  executions,
		TotalCount:  totalCount,
		HasNextPage: int64(opts.Offset+len(executions)) < totalCount,
	}, nil
}

func scanExecution(row rowScanner) (*models.Execution, error) {
	var (
		execution models.Execution
		endTime   sql.NullTime
		logsJSON  []byte
	)

	err := row.Scan(
		&execution.ID,
		&execution.AgentID,
		&execution.Status,
		&execution.StartTime,
		&endTime,
		&execution.Result,
		&execution.Error,
		&logsJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan execution: %w", err)
	}

	if endTime.Valid {
		execution.EndTime = &endTime.Time
	}

	if len(logsJSON) > 0 {
		if err := json.Unmarshal(logsJSON, &execution.Logs); err != nil {
			return nil, fmt.Errorf("failed to unmarshal execution logs: %w", err)
		}
	}

	return &execution, nil
}

// GetByID returns an execution by its ID, or nil when absent.
func (r *ExecutionRepository) GetByID(ctx context.Context, id string) (*models.Execution, error) {
	query := `SELECT ` + executionColumns + ` FROM executions WHERE id = $1`

	execution, err := scanExecution(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return execution, nil
}

// Save upserts an execution.
func (r *ExecutionRepository) Save(ctx context.Context, execution *models.Execution) error {
	logsJSON, err := json.Marshal(execution.Logs)
	if err != nil {
		return fmt.Errorf("failed to marshal execution logs: %w", err)
	}

	var endTime sql.NullTime
	if execution.EndTime != nil {
		endTime = sql.NullTime{Time: *execution.EndTime, Valid: true}
	}

	query := `
		INSERT INTO executions (id, agent_id, status, start_time, end_time, result, error, logs)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			end_time = EXCLUDED.end_time,
			result = EXCLUDED.result,
			error = EXCLUDED.error,
			logs = EXCLUDED.logs
	`

	_, err = r.db.ExecContext(ctx, query,
		execution.ID,
		execution.AgentID,
		execution.Status,
		execution.StartTime,
		endTime,
		execution.Result,
		execution.Error,
		logsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save execution %s: %w", execution.ID, err)
	}

	return nil
}

// Delete removes an execution by its ID.
func (r *ExecutionRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM executions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete execution %s: %w", id, err)
	}

	return nil
}

// Count returns the number of executions matching the optional status and
// start-time lower bound.
func (r *ExecutionRepository) Count(ctx context.Context, status *models.ExecutionStatus, since *time.Time) (int64, error) {
	where := "WHERE TRUE"
	args := []any{}

	if status != nil {
		args = append(args, string(*status))
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	if since != nil {
		args = append(args, *since)
		where += fmt.Sprintf(" AND start_time >= $%d", len(args))
	}

	var count int64

	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM executions "+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count executions: %w", err)
	}

	return count, nil
}

// ListStaleRunning returns executions still marked running that started
// before the cutoff.
func (r *ExecutionRepository) ListStaleRunning(ctx context.Context, cutoff time.Time) ([]*models.Execution, error) {
	query := `SELECT ` + executionColumns + ` FROM executions WHERE status = $1 AND start_time < $2`

	rows, err := r.db.QueryContext(ctx, query, string(models.ExecutionStatusRunning), cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale executions: %w", err)
	}

	defer func() {
		if err := rows.Close(); err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	executions := make([]*models.Execution, 0)

	for rows.Next() {
		execution, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}

		executions = append(executions, execution)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stale executions: %w", err)
	}

	return executions, nil
}
