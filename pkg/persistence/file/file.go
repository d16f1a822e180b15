// Package file provides a file-based persistence implementation for agents,
// executions and flowcharts. Each document is one JSON file under the root
// directory; intended for development and tests.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/agentdash/agentdash/pkg/persistence"
)

// Persistence implements persistence.Persistence using the file system.
type Persistence struct {
	root          string
	agentRepo     *AgentRepository
	executionRepo *ExecutionRepository
	flowchartRepo *FlowchartRepository
}

// NewPersistence creates a new file persistence rooted at the given
// directory. A "file://" scheme prefix is tolerated.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:          cleanRoot,
		agentRepo:     NewAgentRepository(cleanRoot),
		executionRepo: NewExecutionRepository(cleanRoot),
		flowchartRepo: NewFlowchartRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is
// nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) AgentRepository() persistence.AgentRepository {
	return fp.agentRepo
}

func (fp *Persistence) ExecutionRepository() persistence.ExecutionRepository {
	return fp.executionRepo
}

func (fp *Persistence) FlowchartRepository() persistence.FlowchartRepository {
	return fp.flowchartRepo
}
