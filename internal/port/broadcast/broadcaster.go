// Package broadcast defines the port for pushing run-progress events to
// connected clients. The orchestrator publishes stage and task transitions
// through it without knowing the transport.
package broadcast

import "context"

// Broadcaster fans a typed event out to every connected client. Delivery is
// best-effort: a slow or gone client never fails the publishing run.
type Broadcaster interface {
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}
