package ws

import (
	"context"
	"encoding/json"
	"log/slog"
)

// Event type constants for WebSocket messages.
const (
	EventRunStage   = "run.stage"
	EventTaskStatus = "task.status"
)

// RunStageEvent is broadcast when a recommendation run enters a new stage.
type RunStageEvent struct {
	RunID  string `json:"run_id"`
	Stage  string `json:"stage"`
	Detail string `json:"detail,omitempty"`
}

// TaskStatusEvent is broadcast when a pipeline task starts or finishes.
type TaskStatusEvent struct {
	RunID  string `json:"run_id"`
	Task   string `json:"task"`
	Status string `json:"status"`
}

// BroadcastEvent is a convenience method that marshals a typed event and broadcasts it.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	h.Broadcast(ctx, Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	})
}
