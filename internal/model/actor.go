package model

// Role controls which route groups an actor may call.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleOracle Role = "oracle"
	RoleTrader Role = "trader"
)

// RateLimitConfig is the per-actor token bucket.
type RateLimitConfig struct {
	QPS   float64 `json:"qps"`
	Burst int     `json:"burst"`
}

// Actor is a caller known to the gateway: the admin, the oracle
// authority, or a trading user driven by the orchestrator.
type Actor struct {
	ID     string          `json:"id" gorm:"primaryKey"`
	Name   string          `json:"name"`
	ApiKey string          `json:"api_key" gorm:"uniqueIndex"`
	Role   Role            `json:"role"`
	Rate   RateLimitConfig `json:"rate_limit" gorm:"embedded;embeddedPrefix:rate_"`
}

func (Actor) TableName() string { return "actors" }
