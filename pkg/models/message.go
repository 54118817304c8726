package models

// NewMessage is the body of POST /api/message.
type NewMessage struct {
	Content string `json:"content"`
}

// HealthStatus is the body of the liveness and readiness probes.
type HealthStatus struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}
