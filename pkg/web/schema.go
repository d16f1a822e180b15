package web

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// flowchartPayloadSchema rejects structurally malformed create/update bodies
// before binding. Semantic rules (terminals, connectivity, dangling edges)
// stay with the validator; this only guards field shapes.
const flowchartPayloadSchema = `{
	"type": "object",
	"properties": {
		"version": {"type": "string"},
		"nodes": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"id": {"type": "string"},
					"type": {"type": "string", "enum": ["start", "end", "process", "decision"]},
					"title": {"type": "string"},
					"description": {"type": "string"},
					"position": {
						"type": "object",
						"properties": {
							"x": {"type": "number"},
							"y": {"type": "number"},
							"z": {"type": "number"}
						}
					},
					"size": {
						"type": "object",
						"properties": {
							"width": {"type": "number"},
							"height": {"type": "number"}
						}
					},
					"config": {"type": "object"}
				}
			}
		},
		"connections": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"id": {"type": "string"},
					"from": {"type": "string"},
					"to": {"type": "string"},
					"label": {"type": "string"},
					"condition": {"type": "string"},
					"path": {
						"type": "object",
						"properties": {
							"type": {"type": "string", "enum": ["straight", "curved", "stepped"]},
							"points": {"type": "array"}
						}
					}
				}
			}
		},
		"layout": {"type": "object"},
		"metadata": {"type": "object"}
	}
}`

// validateFlowchartPayload checks a raw request body against the flowchart
// payload schema.
func validateFlowchartPayload(body []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(flowchartPayloadSchema)
	dataLoader := gojsonschema.NewBytesLoader(body)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("invalid JSON payload: %w", err)
	}

	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}

		return fmt.Errorf("invalid flowchart payload: %s", strings.Join(errs, "; "))
	}

	return nil
}
