// Package flowchart provides the pure core of the flowchart engine:
// structural validation, entity construction and chronology tracking.
// Nothing in this package performs I/O or panics.
package flowchart

import (
	"fmt"
	"math"
	"strings"

	"github.com/agentdash/agentdash/pkg/models"
)

// ValidationResult is the outcome of a structural validation pass. It is
// data, not an error: an invalid graph is a normal answer.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Validate checks the structural well-formedness of a node/connection set.
// The input may be partial: callers validating an update substitute current
// values for omitted fields before calling. Errors accumulate in a fixed
// order (missing nodes, missing start, missing end, disconnected nodes,
// per-node checks, per-connection checks) and never abort early.
func Validate(nodes []*models.FlowchartNode, connections []*models.FlowchartConnection) ValidationResult {
	errs := make([]string, 0)

	if len(nodes) == 0 {
		errs = append(errs, "Flowchart must have at least one node")
	} else {
		errs = append(errs, checkTerminals(nodes)...)
		errs = append(errs, checkConnectivity(nodes, connections)...)
		errs = append(errs, checkNodes(nodes)...)
	}

	errs = append(errs, checkConnections(nodes, connections)...)

	return ValidationResult{
		Valid:  len(errs) == 0,
		Errors: errs,
	}
}

// checkTerminals requires at least one start and one end node.
func checkTerminals(nodes []*models.FlowchartNode) []string {
	var startCount, endCount int

	for _, node := range nodes {
		switch node.Type {
		case models.NodeTypeStart:
			startCount++
		case models.NodeTypeEnd:
			endCount++
		case models.NodeTypeProcess, models.NodeTypeDecision:
		}
	}

	var errs []string

	if startCount == 0 {
		errs = append(errs, "Flowchart must have at least one start node")
	}

	if endCount == 0 {
		errs = append(errs, "Flowchart must have at least one end node")
	}

	return errs
}

// checkConnectivity flags process/decision nodes that appear in no
// connection. Start and end nodes are exempt: a trivial start/end pair with
// no connections is vacuously connected.
func checkConnectivity(nodes []*models.FlowchartNode, connections []*models.FlowchartConnection) []string {
	connected := make(map[string]struct{}, len(connections)*2)
	for _, conn := range connections {
		connected[conn.From] = struct{}{}
		connected[conn.To] = struct{}{}
	}

	var disconnected []string

	for _, node := range nodes {
		if node.Type == models.NodeTypeStart || node.Type == models.NodeTypeEnd {
			continue
		}

		if _, ok := connected[node.ID]; !ok {
			disconnected = append(disconnected, node.Title)
		}
	}

	if len(disconnected) == 0 {
		return nil
	}

	return []string{fmt.Sprintf(
		"Found %d disconnected node(s): %s",
		len(disconnected),
		strings.Join(disconnected, ", "),
	)}
}

// checkNodes validates position coordinates and titles node by node.
func checkNodes(nodes []*models.FlowchartNode) []string {
	var errs []string

	for i, node := range nodes {
		if !hasValidPosition(node) {
			errs = append(errs, fmt.Sprintf(
				"Node %d (%s) has invalid position coordinates", i+1, node.Title))
		}

		if strings.TrimSpace(node.Title) == "" {
			errs = append(errs, fmt.Sprintf("Node %d must have a title", i+1))
		}
	}

	return errs
}

func hasValidPosition(node *models.FlowchartNode) bool {
	if node.Position == nil {
		return false
	}

	return !math.IsNaN(node.Position.X) && !math.IsNaN(node.Position.Y)
}

// checkConnections validates that every edge resolves to known nodes and is
// not a self-loop.
func checkConnections(nodes []*models.FlowchartNode, connections []*models.FlowchartConnection) []string {
	if len(connections) == 0 {
		return nil
	}

	nodeIDs := make(map[string]struct{}, len(nodes))
	for _, node := range nodes {
		nodeIDs[node.ID] = struct{}{}
	}

	var errs []string

	for i, conn := range connections {
		if _, ok := nodeIDs[conn.From]; !ok {
			errs = append(errs, fmt.Sprintf(
				"Connection %d references non-existent 'from' node: %s", i+1, conn.From))
		}

		if _, ok := nodeIDs[conn.To]; !ok {
			errs = append(errs, fmt.Sprintf(
				"Connection %d references non-existent 'to' node: %s", i+1, conn.To))
		}

		if conn.From == conn.To {
			errs = append(errs, fmt.Sprintf(
				"Connection %d creates a self-loop, which is not allowed", i+1))
		}
	}

	return errs
}
