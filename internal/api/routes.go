package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/queryflow/queryflow-backend/internal/api/handlers"
	"github.com/queryflow/queryflow-backend/internal/api/middleware"
	"github.com/queryflow/queryflow-backend/internal/services"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, svc *services.Services) {
	api := app.Group("/api/v1")

	// Query pipeline
	api.Post("/query", middleware.QueryRateLimit(), handlers.SubmitQuery(svc))
	api.Post("/query/analyze", handlers.AnalyzeQuery(svc))
	api.Get("/query/suggestions", handlers.GetSuggestions(svc))

	// Session management
	api.Post("/sessions", handlers.CreateSession(svc))
	api.Get("/sessions", handlers.GetSessions(svc))
	api.Get("/sessions/:id", handlers.GetSession(svc))
	api.Get("/sessions/:id/turns", handlers.GetSessionTurns(svc))
	api.Get("/sessions/:id/summary", handlers.GetSessionSummary(svc))
	api.Delete("/sessions/:id", handlers.DeleteSession(svc))

	// Cache administration
	api.Get("/cache/stats", handlers.GetCacheStats(svc))
	api.Delete("/cache/:fingerprint", handlers.InvalidateCacheEntry(svc))
	api.Delete("/cache", handlers.InvalidateCache(svc))

	// WebSocket routes
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	streamHandler := handlers.NewStreamHandler(svc)
	app.Get("/ws/query", websocket.New(streamHandler.StreamQuery))

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		status := "healthy"
		if err := svc.DB.Ping(); err != nil {
			status = "degraded"
		}
		return c.JSON(fiber.Map{
			"status":  status,
			"service": "queryflow-backend",
		})
	})
}
