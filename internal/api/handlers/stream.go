package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/queryflow/queryflow-backend/internal/api/models"
	"github.com/queryflow/queryflow-backend/internal/services"
)

// streamFrame is one websocket message: either a pipeline stage event or the
// final response
type streamFrame struct {
	Type     string                `json:"type"`
	Stage    *models.StageEvent    `json:"stage,omitempty"`
	Response *models.QueryResponse `json:"response,omitempty"`
	Error    string                `json:"error,omitempty"`
}

// StreamHandler serves GET /ws/query
type StreamHandler struct {
	services *services.Services
}

func NewStreamHandler(svc *services.Services) *StreamHandler {
	return &StreamHandler{services: svc}
}

// StreamQuery reads one QueryRequest off the socket, runs the pipeline, and
// writes a stage frame for each pipeline step followed by a final response
// frame. One request per connection.
func (h *StreamHandler) StreamQuery(c *websocket.Conn) {
	defer c.Close()

	var req models.QueryRequest
	if err := c.ReadJSON(&req); err != nil {
		_ = c.WriteJSON(streamFrame{Type: "error", Error: "invalid request: " + err.Error()})
		return
	}

	if strings.TrimSpace(req.Utterance) == "" {
		_ = c.WriteJSON(streamFrame{Type: "error", Error: "utterance is required"})
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.New().String()
	}

	progress := func(ev models.StageEvent) {
		event := ev
		_ = c.WriteJSON(streamFrame{Type: "stage", Stage: &event})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	resp, err := h.services.Orchestrator.HandleWithProgress(ctx, req.SessionID, req.Utterance, req.ResolveOptions(), progress)
	if err != nil {
		_ = c.WriteJSON(streamFrame{Type: "error", Error: err.Error()})
		return
	}

	_ = c.WriteJSON(streamFrame{Type: "response", Response: resp})
}
