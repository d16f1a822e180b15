package file

import (
	"context"

	"github.com/agentdash/agentdash/pkg/models"
)

const flowchartsDir = "flowcharts"

// FlowchartRepository handles flowchart document file operations.
type FlowchartRepository struct {
	root string
}

// NewFlowchartRepository creates a new flowchart repository.
func NewFlowchartRepository(root string) *FlowchartRepository {
	return &FlowchartRepository{root: root}
}

// GetByID retrieves a flowchart by its ID from the file system.
func (fr *FlowchartRepository) GetByID(_ context.Context, id string) (*models.Flowchart, error) {
	doc, _, err := readDocument[models.Flowchart](fr.root, flowchartsDir, id)

	return doc, err
}

// GetByAgentID returns the single flowchart owned by the agent, or nil when
// the agent has none. Flowcharts are keyed by their own id on disk, so this
// scans the directory; the collection stays small (one document per agent).
func (fr *FlowchartRepository) GetByAgentID(_ context.Context, agentID string) (*models.Flowchart, error) {
	docs, err := listDocuments[models.Flowchart](fr.root, flowchartsDir)
	if err != nil {
		return nil, err
	}

	for _, doc := range docs {
		if doc.AgentID == agentID {
			return doc, nil
		}
	}

	return nil, nil
}

// Save writes a flowchart document to the file system.
func (fr *FlowchartRepository) Save(_ context.Context, f *models.Flowchart) error {
	return writeDocument(fr.root, flowchartsDir, f.ID, f)
}

// Delete removes a flowchart document by its ID.
func (fr *FlowchartRepository) Delete(_ context.Context, id string) error {
	return deleteDocument(fr.root, flowchartsDir, id)
}
