package web

import (
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"

	"github.com/agentdash/agentdash/pkg/services"
)

// validationProblem is an RFC 7807 problem carrying the full list of
// structural validation messages.
type validationProblem struct {
	*problems.Problem

	Errors []string `json:"errors,omitempty"`
}

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func conflict(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(409).
		WithInstance(c.Path()).
		WithType("conflict").
		WithDetail(detail)

	return c.Status(fiber.StatusConflict).JSON(problem)
}

func unauthorized(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(401).
		WithInstance(c.Path()).
		WithType("unauthorized").
		WithDetail(detail)

	return c.Status(fiber.StatusUnauthorized).JSON(problem)
}

func forbidden(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(403).
		WithInstance(c.Path()).
		WithType("forbidden").
		WithDetail(detail)

	return c.Status(fiber.StatusForbidden).JSON(problem)
}

func notImplemented(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(501).
		WithInstance(c.Path()).
		WithType("not_implemented").
		WithDetail(detail)

	return c.Status(fiber.StatusNotImplemented).JSON(problem)
}

func tooManyRequests(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(429).
		WithInstance(c.Path()).
		WithType("rate_limited").
		WithDetail(detail)

	return c.Status(fiber.StatusTooManyRequests).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleServiceError maps service layer errors onto HTTP problem responses.
func handleServiceError(c fiber.Ctx, err error) error {
	switch {
	case services.IsValidationError(err):
		if invalid, ok := services.AsInvalidFlowchart(err); ok {
			problem := &validationProblem{
				Problem: problems.NewStatusProblem(400).
					WithInstance(c.Path()).
					WithType("flowchart_validation_error").
					WithDetail("flowchart validation failed"),
				Errors: invalid.Errors,
			}

			return c.Status(fiber.StatusBadRequest).JSON(problem)
		}

		return badRequest(c, err.Error())

	case services.IsConflictError(err):
		return conflict(c, err.Error())

	case services.IsNotFoundError(err):
		return notFound(c, err.Error())

	case services.IsNotImplementedError(err):
		return notImplemented(c, err.Error())

	default:
		return internalError(c, err)
	}
}
