package web

import (
	"strconv"

	"github.com/gofiber/fiber/v3"

	"github.com/agentdash/agentdash/pkg/models"
	"github.com/agentdash/agentdash/pkg/services"
)

func (h *APIHandlers) GetAgents(c fiber.Ctx) error {
	req, err := h.parseListAgentsRequest(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	result, err := h.agentService.ListAgents(c.Context(), *req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"agents":      result.Agents,
		"totalCount":  result.TotalCount,
		"hasNextPage": result.HasNextPage,
		"pagination": fiber.Map{
			"limit":  req.Limit,
			"offset": req.Offset,
		},
		"sorting": fiber.Map{
			"sortBy":    req.SortBy,
			"sortOrder": req.SortOrder,
		},
	})
}

func (h *APIHandlers) parseListAgentsRequest(c fiber.Ctx) (*services.ListAgentsRequest, error) {
	req := &services.ListAgentsRequest{}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, err
		}

		req.Limit = limit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return nil, err
		}

		req.Offset = offset
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.AgentStatus(statusStr)
		req.Status = &status
	}

	req.Category = c.Query("category")
	req.SortBy = c.Query("sort_by")
	req.SortOrder = c.Query("sort_order")

	return req, nil
}

func (h *APIHandlers) GetAgent(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Agent ID is required")
	}

	agent, err := h.agentService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(agent)
}

func (h *APIHandlers) CreateAgent(c fiber.Ctx) error {
	var req CreateAgentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	agent := &models.Agent{
		Name:          req.Name,
		Description:   req.Description,
		Status:        req.Status,
		Category:      req.Category,
		Enabled:       req.Enabled,
		Configuration: req.Configuration,
		CreatedByID:   principalID(c),
	}

	created, err := h.agentService.Create(c.Context(), agent)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateAgent(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Agent ID is required")
	}

	var req UpdateAgentRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing, err := h.agentService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}

	if req.Description != nil {
		existing.Description = *req.Description
	}

	if req.Status != nil {
		existing.Status = *req.Status
	}

	if req.Category != nil {
		existing.Category = *req.Category
	}

	if req.Enabled != nil {
		existing.Enabled = *req.Enabled
	}

	if req.Configuration != nil {
		existing.Configuration = req.Configuration
	}

	updated, err := h.agentService.Update(c.Context(), id, existing)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteAgent(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Agent ID is required")
	}

	err := h.agentService.Delete(c.Context(), id, principalID(c))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
