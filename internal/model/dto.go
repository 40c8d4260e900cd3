package model

// InitializeRouterRequest bootstraps the one global RouterConfig.
type InitializeRouterRequest struct {
	Admin            string `json:"admin" binding:"required"`
	OracleAuthority  string `json:"oracle_authority" binding:"required"`
	RiskThresholdBps int    `json:"risk_threshold_bps"`
}

type SetPauseRequest struct {
	Paused *bool `json:"paused" binding:"required"`
}

type UpdateThresholdRequest struct {
	RiskThresholdBps *int `json:"risk_threshold_bps" binding:"required"`
}

type SetScoreRequest struct {
	ScoreBps *int `json:"score_bps" binding:"required"`
}

// MintMandateRequest mints a mandate for User (defaults to the caller).
type MintMandateRequest struct {
	User       string   `json:"user,omitempty"`
	Asset      string   `json:"asset" binding:"required"`
	Strategy   Strategy `json:"strategy" binding:"required"`
	TTLSeconds int64    `json:"ttl_seconds"`
}

type RevokeMandateRequest struct {
	User     string   `json:"user,omitempty"`
	Asset    string   `json:"asset" binding:"required"`
	Strategy Strategy `json:"strategy" binding:"required"`
}

type InitializeSlabRequest struct {
	Strategy Strategy `json:"strategy" binding:"required"`
}

// ExecuteSignalRequest carries one trade signal for the caller's slab.
type ExecuteSignalRequest struct {
	Asset         string   `json:"asset" binding:"required"`
	Strategy      Strategy `json:"strategy" binding:"required"`
	Side          Side     `json:"side" binding:"required,oneof=long short"`
	ConfidenceBps int      `json:"confidence_bps"`
	Notional      int64    `json:"notional"`
	Price         int64    `json:"price"`
}

type WaitFinalityRequest struct {
	TimeoutMs int64 `json:"timeout_ms"`
}

// MandateResponse is the read-model for getMandate: a not-found lookup
// returns Found=false rather than an error, so callers can distinguish
// "never minted" from "expired" themselves.
type MandateResponse struct {
	Found   bool     `json:"found"`
	Mandate *Mandate `json:"mandate,omitempty"`
}
