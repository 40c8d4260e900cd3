package model

import (
	"time"
)

// AuditLog is one complete request audit record.
type AuditLog struct {
	ID        string `json:"id"`       // request UUID
	ActorID   string `json:"actor_id"` // resolved caller, if any
	Method    string `json:"method"`
	Path      string `json:"path"`
	IP        string `json:"ip"`
	UserAgent string `json:"user_agent"`

	RequestBody   string `json:"request_body"` // redacted
	RequestHeader string `json:"request_header"`

	StatusCode   int    `json:"status_code"`
	ResponseBody string `json:"response_body"`
	LatencyMs    int64  `json:"latency_ms"`

	// Business context: taxonomy tags, pnl after execution, bridge
	// request ids, gross valuation, upstream errors.
	Context map[string]interface{} `json:"context"`

	CreatedAt time.Time `json:"created_at"`
}
