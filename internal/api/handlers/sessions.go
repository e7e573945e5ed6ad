package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/queryflow/queryflow-backend/internal/services"
)

// CreateSession creates a new conversation session
func CreateSession(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			SessionID string `json:"session_id"`
		}

		// body is optional; an empty request gets a generated id
		_ = c.BodyParser(&req)
		if req.SessionID == "" {
			req.SessionID = uuid.New().String()
		}

		session, err := svc.Ledger.StartOrResume(c.Context(), req.SessionID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		return c.JSON(session)
	}
}

// GetSessions returns all sessions ordered by recency
func GetSessions(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessions, err := svc.Ledger.ListSessions(c.Context())
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"sessions": sessions,
		})
	}
}

// GetSession returns a single session
func GetSession(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Params("id")

		session, err := svc.Ledger.Get(c.Context(), sessionID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		if session == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Session not found",
			})
		}

		return c.JSON(session)
	}
}

// GetSessionTurns returns the conversation history of a session
func GetSessionTurns(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Params("id")

		turns, err := svc.Ledger.RecentTurns(c.Context(), sessionID, c.QueryInt("limit", 0))
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"turns": turns,
		})
	}
}

// GetSessionSummary returns conversation counters for a session
func GetSessionSummary(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Params("id")

		summary, err := svc.Ledger.Summarize(c.Context(), sessionID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		return c.JSON(summary)
	}
}

// DeleteSession removes a session and its turn history
func DeleteSession(svc *services.Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Params("id")

		if err := svc.Ledger.Clear(c.Context(), sessionID); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"message": "Session deleted successfully",
		})
	}
}
