package file

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/agentdash/agentdash/pkg/models"
	"github.com/agentdash/agentdash/pkg/persistence"
)

const executionsDir = "executions"

// ExecutionRepository handles execution record file operations.
type ExecutionRepository struct {
	root string
}

// NewExecutionRepository creates a new execution repository.
func NewExecutionRepository(root string) *ExecutionRepository {
	return &ExecutionRepository{root: root}
}

// List returns paginated and filtered executions with in-memory operations.
func (er *ExecutionRepository) List(_ context.Context, opts persistence.ListExecutionsOptions) (*persistence.ExecutionListResult, error) {
	if opts.Limit <= 0 || opts.Limit > 100 {
		opts.Limit = 20
	}

	if opts.SortBy == "" {
		opts.SortBy = "start_time"
	}

	if opts.SortOrder == "" {
		opts.SortOrder = "desc"
	}

	if opts.SortBy != "start_time" {
		return nil, fmt.Errorf("invalid sort field: %s", opts.SortBy)
	}

	all, err := listDocuments[models.Execution](er.root, executionsDir)
	if err != nil {
		return nil, err
	}

	filtered := make([]*models.Execution, 0, len(all))

	for _, execution := range all {
		if opts.AgentID != "" && execution.AgentID != opts.AgentID {
			continue
		}

		if opts.Status != nil && execution.Status != *opts.Status {
			continue
		}

		filtered = append(filtered, execution)
	}

	sort.Slice(filtered, func(i, j int) bool {
		less := filtered[i].StartTime.Before(filtered[j].StartTime)
		if opts.SortOrder == "desc" {
			return !less
		}

		return less
	})

	totalCount := int64(len(filtered))

	startIdx := opts.Offset
	if startIdx >= len(filtered) {
		return &persistence.ExecutionListResult{
			Executions:  make([]*models.Execution, 0),
			TotalCount:  totalCount,
			HasNextPage: false,
		}, nil
	}

	endIdx := opts.Offset + opts.Limit
	if endIdx > len(filtered) {
		endIdx = len(filtered)
	}

	return &persistence.ExecutionListResult{
		Executions:  filtered[startIdx:endIdx],
		TotalCount:  totalCount,
		HasNextPage: endIdx < len(filtered),
	}, nil
}

// GetByID retrieves an execution by its ID from the file system.
func (er *ExecutionRepository) GetByID(_ context.Context, id string) (*models.Execution, error) {
	doc, _, err := readDocument[models.Execution](er.root, executionsDir, id)

	return doc, err
}

// Save writes an execution to the file system.
func (er *ExecutionRepository) Save(_ context.Context, execution *models.Execution) error {
	return writeDocument(er.root, executionsDir, execution.ID, execution)
}

// Delete removes an execution by its ID.
func (er *ExecutionRepository) Delete(_ context.Context, id string) error {
	return deleteDocument(er.root, executionsDir, id)
}

// Count returns the number of executions, optionally restricted to a status
// and a start-time lower bound.
func (er *ExecutionRepository) Count(_ context.Context, status *models.ExecutionStatus, since *time.Time) (int64, error) {
	all, err := listDocuments[models.Execution](er.root, executionsDir)
	if err != nil {
		return 0, err
	}

	var count int64

	for _, execution := range all {
		if status != nil && execution.Status != *status {
			continue
		}

		if since != nil && execution.StartTime.Before(*since) {
			continue
		}

		count++
	}

	return count, nil
}

// ListStaleRunning returns running executions started before the cutoff.
func (er *ExecutionRepository) ListStaleRunning(_ context.Context, cutoff time.Time) ([]*models.Execution, error) {
	all, err := listDocuments[models.Execution](er.root, executionsDir)
	if err != nil {
		return nil, err
	}

	stale := make([]*models.Execution, 0)

	for _, execution := range all {
		if execution.Status == models.ExecutionStatusRunning && execution.StartTime.Before(cutoff) {
			stale = append(stale, execution)
		}
	}

	return stale, nil
}
