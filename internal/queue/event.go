// Package queue defines message payloads exchanged over the message broker.
package queue

// RequestLifecycleEvent is published after a request is created or its
// status moves. It carries enough information for downstream consumers
// to log or notify without querying the primary database.
type RequestLifecycleEvent struct {
	RequestID    uint64 `json:"request_id"`
	TrackingCode string `json:"tracking_code"`
	Kind         string `json:"kind"`
	Event        string `json:"event"`
	FromStatus   string `json:"from_status,omitempty"`
	ToStatus     string `json:"to_status"`
	ActorID      uint64 `json:"actor_id"`
	ActorRole    string `json:"actor_role"`
	WorkerID     uint64 `json:"worker_id,omitempty"`
	Note         string `json:"note,omitempty"`
	OccurredAt   string `json:"occurred_at"`
}
