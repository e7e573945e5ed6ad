package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/queryflow/queryflow-backend/internal/api/models"
	"github.com/queryflow/queryflow-backend/internal/services"
)

// SubmitQuery handles POST /api/v1/query
func SubmitQuery(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req models.QueryRequest

		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}

		if strings.TrimSpace(req.Utterance) == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "utterance is required",
			})
		}

		if req.SessionID == "" {
			req.SessionID = uuid.New().String()
		}

		resp, err := svc.Orchestrator.Handle(c.Context(), req.SessionID, req.Utterance, req.ResolveOptions())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		return c.JSON(resp)
	}
}

// AnalyzeQuery handles POST /api/v1/query/analyze
func AnalyzeQuery(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Utterance string `json:"utterance"`
		}

		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}

		return c.JSON(svc.Analyzer.AnalyzeIntent(req.Utterance))
	}
}

// GetSuggestions handles GET /api/v1/query/suggestions
func GetSuggestions(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		topic := c.Query("topic")

		return c.JSON(fiber.Map{
			"suggestions": svc.Analyzer.Suggestions(c.Context(), topic),
		})
	}
}
