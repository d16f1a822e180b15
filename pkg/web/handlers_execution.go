package web

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/agentdash/agentdash/pkg/models"
	"github.com/agentdash/agentdash/pkg/services"
)

func (h *APIHandlers) GetExecutions(c fiber.Ctx) error {
	req := services.ListExecutionsRequest{
		AgentID:   c.Query("agent_id"),
		SortOrder: c.Query("sort_order"),
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return badRequest(c, "Invalid query parameters: "+err.Error())
		}

		req.Limit = limit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return badRequest(c, "Invalid query parameters: "+err.Error())
		}

		req.Offset = offset
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.ExecutionStatus(statusStr)
		req.Status = &status
	}

	result, err := h.executionService.ListExecutions(c.Context(), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"executions":  result.Executions,
		"totalCount":  result.TotalCount,
		"hasNextPage": result.HasNextPage,
		"pagination": fiber.Map{
			"limit":  req.Limit,
			"offset": req.Offset,
		},
	})
}

func (h *APIHandlers) GetExecution(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	execution, err := h.executionService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(execution)
}

func (h *APIHandlers) StartExecution(c fiber.Ctx) error {
	agentID := c.Params("id")
	if agentID == "" {
		return badRequest(c, "Agent ID is required")
	}

	execution, err := h.executionService.Start(c.Context(), agentID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(execution)
}

func (h *APIHandlers) FinishExecution(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	var req FinishExecutionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	execution, err := h.executionService.Finish(c.Context(), id, req.Status, req.Result, req.Error)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(execution)
}

func (h *APIHandlers) AppendExecutionLogs(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Execution ID is required")
	}

	var req AppendExecutionLogsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	execution, err := h.executionService.AppendLogs(c.Context(), id, req.Logs)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(execution)
}
