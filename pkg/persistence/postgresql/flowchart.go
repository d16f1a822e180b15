package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/agentdash/agentdash/pkg/models"
)

// FlowchartRepository handles flowchart-related database operations.
type FlowchartRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewFlowchartRepository creates a new flowchart repository.
func NewFlowchartRepository(db *sql.DB, logger *slog.Logger) *FlowchartRepository {
	return &FlowchartRepository{db: db, logger: logger}
}

const flowchartColumns = `
	id
  , agent_id
  , version
  , nodes
  , connections
  , layout
  , metadata
  , chronology
`

// GetByID returns a flowchart by its ID, or nil when absent.
func (r *FlowchartRepository) GetByID(ctx context.Context, id string) (*models.Flowchart, error) {
	query := `SELECT ` + flowchartColumns + ` FROM flowcharts WHERE id = $1`

	return r.scanFlowchart(r.db.QueryRowContext(ctx, query, id))
}

// GetByAgentID returns the flowchart owned by the agent, or nil when the
// agent has none.
func (r *FlowchartRepository) GetByAgentID(ctx context.Context, agentID string) (*models.Flowchart, error) {
	query := `SELECT ` + flowchartColumns + ` FROM flowcharts WHERE agent_id = $1`

	return r.scanFlowchart(r.db.QueryRowContext(ctx, query, agentID))
}

func (r *FlowchartRepository) scanFlowchart(row *sql.Row) (*models.Flowchart, error) {
	var (
		f               models.Flowchart
		nodesJSON       []byte
		connectionsJSON []byte
		layoutJSON      []byte
		metadataJSON    []byte
		chronologyJSON  []byte
	)

	err := row.Scan(
		&f.ID,
		&f.AgentID,
		&f.Version,
		&nodesJSON,
		&connectionsJSON,
		&layoutJSON,
		&metadataJSON,
		&chronologyJSON,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan flowchart: %w", err)
	}

	for _, field := range []struct {
		data []byte
		dest any
	}{
		{nodesJSON, &f.Nodes},
		{connectionsJSON, &f.Connections},
		{layoutJSON, &f.Layout},
		{metadataJSON, &f.Metadata},
		{chronologyJSON, &f.Chronology},
	} {
		if err := json.Unmarshal(field.data, field.dest); err != nil {
			return nil, fmt.Errorf("failed to unmarshal flowchart %s: %w", f.ID, err)
		}
	}

	return &f, nil
}

// Save upserts a flowchart document.
func (r *FlowchartRepository) Save(ctx context.Context, f *models.Flowchart) error {
	nodesJSON, err := json.Marshal(f.Nodes)
	if err != nil {
		return fmt.Errorf("failed to marshal nodes: %w", err)
	}

	connectionsJSON, err := json.Marshal(f.Connections)
	if err != nil {
		return fmt.Errorf("failed to marshal connections: %w", err)
	}

	layoutJSON, err := json.Marshal(f.Layout)
	if err != nil {
		return fmt.Errorf("failed to marshal layout: %w", err)
	}

	metadataJSON, err := json.Marshal(f.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	chronologyJSON, err := json.Marshal(f.Chronology)
	if err != nil {
		return fmt.Errorf("failed to marshal chronology: %w", err)
	}

	query := `
		INSERT INTO flowcharts (id, agent_id, version, nodes, connections, layout, metadata, chronology)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			agent_id = EXCLUDED.agent_id,
			version = EXCLUDED.version,
			nodes = EXCLUDED.nodes,
			connections = EXCLUDED.connections,
			layout = EXCLUDED.layout,
			metadata = EXCLUDED.metadata,
			chronology = EXCLUDED.chronology
	`

	_, err = r.db.ExecContext(ctx, query,
		f.ID,
		f.AgentID,
		f.Version,
		nodesJSON,
		connectionsJSON,
		layoutJSON,
		metadataJSON,
		chronologyJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save flowchart %s: %w", f.ID, err)
	}

	return nil
}

// Delete removes a flowchart by its ID.
func (r *FlowchartRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM flowcharts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete flowchart %s: %w", id, err)
	}

	return nil
}
