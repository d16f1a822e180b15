package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/agentdash/agentdash/pkg/services"
)

type APIHandlers struct {
	flowchartService *services.Flowchart
	agentService     *services.Agent
	executionService *services.Execution
	dashboardService *services.Dashboard
	validator        *validator.Validate
}

func NewAPIHandlers(
	flowchartService *services.Flowchart,
	agentService *services.Agent,
	executionService *services.Execution,
	dashboardService *services.Dashboard,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		flowchartService: flowchartService,
		agentService:     agentService,
		executionService: executionService,
		dashboardService: dashboardService,
		validator:        validator,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, repOk := h.flowchartService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "AgentDash API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if repOk {
		status = "healthy"
		message = "AgentDash API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetFlowchart(c fiber.Ctx) error {
	agentID := c.Params("id")
	if agentID == "" {
		return badRequest(c, "Agent ID is required")
	}

	f, err := h.flowchartService.FetchByAgentID(c.Context(), agentID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"flowchart": f})
}

func (h *APIHandlers) CreateFlowchart(c fiber.Ctx) error {
	agentID := c.Params("id")
	if agentID == "" {
		return badRequest(c, "Agent ID is required")
	}

	if err := validateFlowchartPayload(c.Body()); err != nil {
		return badRequest(c, err.Error())
	}

	var req CreateFlowchartRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	created, err := h.flowchartService.Create(c.Context(), agentID, services.CreateFlowchartRequest{
		Version:     req.Version,
		Nodes:       req.Nodes,
		Connections: req.Connections,
		Layout:      req.Layout,
		Metadata:    req.Metadata,
	}, principalID(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"flowchart": created})
}

func (h *APIHandlers) UpdateFlowchart(c fiber.Ctx) error {
	agentID := c.Params("id")
	if agentID == "" {
		return badRequest(c, "Agent ID is required")
	}

	if err := validateFlowchartPayload(c.Body()); err != nil {
		return badRequest(c, err.Error())
	}

	var req UpdateFlowchartRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	updated, err := h.flowchartService.Update(c.Context(), agentID, services.UpdateFlowchartRequest{
		Version:     req.Version,
		Nodes:       req.Nodes,
		Connections: req.Connections,
		Layout:      req.Layout,
		Metadata:    req.Metadata,
	}, principalID(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"flowchart": updated})
}

func (h *APIHandlers) DeleteFlowchart(c fiber.Ctx) error {
	agentID := c.Params("id")
	if agentID == "" {
		return badRequest(c, "Agent ID is required")
	}

	err := h.flowchartService.Delete(c.Context(), agentID, principalID(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Flowchart deleted successfully"})
}

// ValidateFlowchart runs structural validation over a draft. An invalid
// draft still answers 200; only an empty request is a client error.
func (h *APIHandlers) ValidateFlowchart(c fiber.Ctx) error {
	var req ValidateFlowchartRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	result, err := h.flowchartService.Validate(req.Nodes, req.Connections)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) DuplicateFlowchart(c fiber.Ctx) error {
	sourceAgentID := c.Params("id")
	if sourceAgentID == "" {
		return badRequest(c, "Agent ID is required")
	}

	var req DuplicateFlowchartRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, "Target agent ID is required")
	}

	duplicated, err := h.flowchartService.Duplicate(c.Context(), sourceAgentID, req.TargetAgentID, principalID(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"flowchart": duplicated,
		"message":   "Flowchart duplicated successfully",
	})
}

func (h *APIHandlers) ExportFlowchart(c fiber.Ctx) error {
	agentID := c.Params("id")
	if agentID == "" {
		return badRequest(c, "Agent ID is required")
	}

	format := c.Query("format", "json")

	result, err := h.flowchartService.Export(c.Context(), agentID, format)
	if err != nil {
		return handleServiceError(c, err)
	}

	filename := strings.ReplaceAll(result.Flowchart.Metadata.Title, " ", "_") + "_flowchart.json"
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)

	return c.JSON(result)
}
