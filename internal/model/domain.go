package model

import "time"

// MaxBps is the upper bound for every basis-point field (100%).
const MaxBps = 10_000

// Strategy identifies one of the supported trading strategies.
type Strategy string

const (
	StrategyMomentum      Strategy = "momentum"
	StrategyArbitrage     Strategy = "arbitrage"
	StrategyLP            Strategy = "lp"
	StrategyMeanReversion Strategy = "mean_reversion"
)

func (s Strategy) Valid() bool {
	switch s {
	case StrategyMomentum, StrategyArbitrage, StrategyLP, StrategyMeanReversion:
		return true
	}
	return false
}

// Side is the direction of a trade signal.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

func (s Side) Valid() bool {
	return s == SideLong || s == SideShort
}

// RouterConfig is the single global configuration record owned by the
// mandate authority. Mutated only through admin-authorized operations.
type RouterConfig struct {
	Admin            string `json:"admin"`
	OracleAuthority  string `json:"oracle_authority"`
	RiskThresholdBps int    `json:"risk_threshold_bps"`
	Paused           bool   `json:"paused"`
}

// OracleScore is the per-asset confidence rating set by the oracle
// authority. Last write wins.
type OracleScore struct {
	Asset     string    `json:"asset"`
	ScoreBps  int       `json:"score_bps"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Mandate is a time-boxed, risk-gated authorization for one
// (user, asset, strategy) triple. Expiry is checked at consumption
// time; records are never swept in the background.
type Mandate struct {
	User      string    `json:"user"`
	Asset     string    `json:"asset"`
	Strategy  Strategy  `json:"strategy"`
	ExpiresAt time.Time `json:"expires_at"`
	Exists    bool      `json:"exists"`

	// Threshold in force when the mandate was minted. Consulted when
	// the confidence mode is "frozen".
	MintedThresholdBps int `json:"minted_threshold_bps"`
}

// SlabAccount is the per-(owner, strategy) execution ledger.
type SlabAccount struct {
	Owner          string    `json:"owner"`
	Strategy       Strategy  `json:"strategy"`
	Initialized    bool      `json:"initialized"`
	PerformancePnl int64     `json:"performance_pnl"`
	LastSignalTs   time.Time `json:"last_signal_ts"`
}

// Signal is an inbound trade instruction. It is not persisted beyond
// the PnL delta it produces.
type Signal struct {
	Asset         string   `json:"asset"`
	Strategy      Strategy `json:"strategy"`
	Side          Side     `json:"side"`
	ConfidenceBps int      `json:"confidence_bps"`
	Notional      int64    `json:"notional"`
	Price         int64    `json:"price"` // carried for audit/valuation, not applied to PnL
}

// PnlDelta returns the signed PnL contribution of the signal:
// long adds the notional, short subtracts it.
func (s Signal) PnlDelta() int64 {
	if s.Side == SideShort {
		return -s.Notional
	}
	return s.Notional
}
