package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mollyslab/slabgate/internal/model"
	"github.com/mollyslab/slabgate/internal/pkg/apperrors"
	"github.com/mollyslab/slabgate/internal/pkg/logger"
	"github.com/mollyslab/slabgate/internal/pkg/metrics"
	"github.com/mollyslab/slabgate/internal/store"
)

// RouterService is the mandate authority: it owns the global router
// config, the oracle score table, and the mandate registry, and it
// enforces the risk threshold at issuance time.
//
// Every mutating operation is a read-modify-write serialized per key
// through KeyLocks; callers on unrelated keys never contend.
type RouterService struct {
	store store.RouterStore
	locks *store.KeyLocks
	nowFn func() time.Time
}

func NewRouterService(st store.RouterStore) *RouterService {
	return &RouterService{
		store: st,
		locks: store.NewKeyLocks(),
		nowFn: time.Now,
	}
}

// Initialize creates the RouterConfig exactly once.
func (s *RouterService) Initialize(ctx context.Context, admin, oracleAuthority string, thresholdBps int) (*model.RouterConfig, error) {
	if thresholdBps < 0 || thresholdBps > model.MaxBps {
		return nil, apperrors.Newf(apperrors.ErrInvalidRange, "risk threshold %d out of range [0, %d]", thresholdBps, model.MaxBps)
	}
	if admin == "" || oracleAuthority == "" {
		return nil, apperrors.New(apperrors.ErrInvalidRequest, "admin and oracle authority are required", nil)
	}

	defer s.locks.Lock(store.ConfigKey)()

	existing, err := s.store.GetConfig(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err)
	}
	if existing != nil {
		return nil, apperrors.New(apperrors.ErrAlreadyInitialized, "router config already initialized", nil)
	}

	cfg := &model.RouterConfig{
		Admin:            admin,
		OracleAuthority:  oracleAuthority,
		RiskThresholdBps: thresholdBps,
		Paused:           false,
	}
	if err := s.store.PutConfig(ctx, cfg); err != nil {
		return nil, apperrors.Wrap(err)
	}

	logger.Info("router initialized", "admin", admin, "oracle_authority", oracleAuthority, "risk_threshold_bps", thresholdBps)
	return cfg, nil
}

// SetPause flips the global pause flag. Admin only.
func (s *RouterService) SetPause(ctx context.Context, caller string, paused bool) (*model.RouterConfig, error) {
	defer s.locks.Lock(store.ConfigKey)()

	cfg, err := s.requireConfig(ctx)
	if err != nil {
		return nil, err
	}
	if caller != cfg.Admin {
		return nil, apperrors.NewUnauthorized("only the admin may pause or unpause the router")
	}

	cfg.Paused = paused
	if err := s.store.PutConfig(ctx, cfg); err != nil {
		return nil, apperrors.Wrap(err)
	}

	if paused {
		logger.Warn("router paused", "admin", caller)
	} else {
		logger.Info("router unpaused", "admin", caller)
	}
	return cfg, nil
}

// UpdateThreshold replaces the global risk threshold. Admin only.
func (s *RouterService) UpdateThreshold(ctx context.Context, caller string, bps int) (*model.RouterConfig, error) {
	if bps < 0 || bps > model.MaxBps {
		return nil, apperrors.Newf(apperrors.ErrInvalidRange, "risk threshold %d out of range [0, %d]", bps, model.MaxBps)
	}

	defer s.locks.Lock(store.ConfigKey)()

	cfg, err := s.requireConfig(ctx)
	if err != nil {
		return nil, err
	}
	if caller != cfg.Admin {
		return nil, apperrors.NewUnauthorized("only the admin may update the risk threshold")
	}

	cfg.RiskThresholdBps = bps
	if err := s.store.PutConfig(ctx, cfg); err != nil {
		return nil, apperrors.Wrap(err)
	}

	logger.Info("risk threshold updated", "risk_threshold_bps", bps)
	return cfg, nil
}

// SetOracleScore upserts the per-asset confidence score. Oracle
// authority only; last write wins.
func (s *RouterService) SetOracleScore(ctx context.Context, caller, asset string, scoreBps int) (*model.OracleScore, error) {
	if scoreBps < 0 || scoreBps > model.MaxBps {
		return nil, apperrors.Newf(apperrors.ErrInvalidRange, "score %d out of range [0, %d]", scoreBps, model.MaxBps)
	}
	if asset == "" {
		return nil, apperrors.New(apperrors.ErrInvalidRequest, "asset is required", nil)
	}

	cfg, err := s.requireConfig(ctx)
	if err != nil {
		return nil, err
	}
	if caller != cfg.OracleAuthority {
		return nil, apperrors.NewUnauthorized("only the oracle authority may set scores")
	}

	defer s.locks.Lock(store.ScoreKey(asset))()

	score := &model.OracleScore{
		Asset:     asset,
		ScoreBps:  scoreBps,
		UpdatedAt: s.nowFn(),
	}
	if err := s.store.PutScore(ctx, score); err != nil {
		return nil, apperrors.Wrap(err)
	}

	logger.Info("oracle score set", "asset", asset, "score_bps", scoreBps)
	return score, nil
}

// GetOracleScore is a read-only lookup; a never-scored asset returns
// found=false rather than an error.
func (s *RouterService) GetOracleScore(ctx context.Context, asset string) (*model.OracleScore, bool, error) {
	score, err := s.store.GetScore(ctx, asset)
	if err != nil {
		return nil, false, apperrors.Wrap(err)
	}
	if score == nil {
		return nil, false, nil
	}
	return score, true, nil
}

// MintMandate issues (or overwrites) the mandate for
// (user, asset, strategy) after the oracle score clears the risk
// threshold. Equal-to-threshold passes; strictly below is rejected.
func (s *RouterService) MintMandate(ctx context.Context, caller, user, asset string, strategy model.Strategy, ttlSeconds int64) (*model.Mandate, error) {
	if user == "" {
		user = caller
	}
	if asset == "" {
		return nil, apperrors.New(apperrors.ErrInvalidRequest, "asset is required", nil)
	}
	if !strategy.Valid() {
		return nil, apperrors.Newf(apperrors.ErrInvalidRange, "unknown strategy %q", strategy)
	}
	if ttlSeconds <= 0 {
		return nil, apperrors.New(apperrors.ErrInvalidRange, "ttl_seconds must be > 0", nil)
	}

	cfg, err := s.requireConfig(ctx)
	if err != nil {
		return nil, err
	}
	if caller != user && caller != cfg.Admin {
		return nil, apperrors.NewUnauthorized("mandates may only be minted by their user or the admin")
	}
	if cfg.Paused {
		metrics.MandateRejects.WithLabelValues("paused").Inc()
		return nil, apperrors.New(apperrors.ErrPaused, "router is paused", nil)
	}

	score, err := s.store.GetScore(ctx, asset)
	if err != nil {
		return nil, apperrors.Wrap(err)
	}
	if score == nil {
		metrics.MandateRejects.WithLabelValues("no_score").Inc()
		return nil, apperrors.Newf(apperrors.ErrRiskRejected, "no oracle score for asset %s", asset)
	}
	if score.ScoreBps < cfg.RiskThresholdBps {
		metrics.MandateRejects.WithLabelValues("below_threshold").Inc()
		return nil, apperrors.Newf(apperrors.ErrRiskRejected,
			"oracle score %d below threshold %d for asset %s", score.ScoreBps, cfg.RiskThresholdBps, asset)
	}

	defer s.locks.Lock(store.MandateKey(user, asset, strategy))()

	m := &model.Mandate{
		User:               user,
		Asset:              asset,
		Strategy:           strategy,
		ExpiresAt:          s.nowFn().Add(time.Duration(ttlSeconds) * time.Second),
		Exists:             true,
		MintedThresholdBps: cfg.RiskThresholdBps,
	}
	if err := s.store.PutMandate(ctx, m); err != nil {
		return nil, apperrors.Wrap(err)
	}

	metrics.MandatesMinted.Inc()
	logger.Info("mandate minted", "user", user, "asset", asset, "strategy", strategy, "expires_at", m.ExpiresAt)
	return m, nil
}

// RevokeMandate logically destroys a mandate. Admin or the owning user
// only. Revoking a nonexistent mandate is a no-op, not an error.
func (s *RouterService) RevokeMandate(ctx context.Context, caller, user, asset string, strategy model.Strategy) error {
	if user == "" {
		user = caller
	}
	cfg, err := s.requireConfig(ctx)
	if err != nil {
		return err
	}
	if caller != user && caller != cfg.Admin {
		return apperrors.NewUnauthorized("mandates may only be revoked by their user or the admin")
	}

	defer s.locks.Lock(store.MandateKey(user, asset, strategy))()

	m, err := s.store.GetMandate(ctx, user, asset, strategy)
	if err != nil {
		return apperrors.Wrap(err)
	}
	if m == nil || !m.Exists {
		return nil
	}

	m.Exists = false
	if err := s.store.PutMandate(ctx, m); err != nil {
		return apperrors.Wrap(err)
	}

	logger.Info("mandate revoked", "user", user, "asset", asset, "strategy", strategy, "by", caller)
	return nil
}

// VetoMandate is the admin-only forced removal of a mandate record.
func (s *RouterService) VetoMandate(ctx context.Context, caller, user, asset string, strategy model.Strategy) error {
	cfg, err := s.requireConfig(ctx)
	if err != nil {
		return err
	}
	if caller != cfg.Admin {
		return apperrors.NewUnauthorized("only the admin may veto a mandate")
	}

	defer s.locks.Lock(store.MandateKey(user, asset, strategy))()

	if err := s.store.DeleteMandate(ctx, user, asset, strategy); err != nil {
		return apperrors.Wrap(err)
	}

	logger.Warn("mandate vetoed", "user", user, "asset", asset, "strategy", strategy)
	return nil
}

// GetMandate is a read-only lookup. A record that was never minted
// returns found=false; revoked or expired records are returned as-is
// so the caller can inspect Exists and ExpiresAt separately.
func (s *RouterService) GetMandate(ctx context.Context, user, asset string, strategy model.Strategy) (*model.Mandate, bool, error) {
	m, err := s.store.GetMandate(ctx, user, asset, strategy)
	if err != nil {
		return nil, false, apperrors.Wrap(err)
	}
	if m == nil {
		return nil, false, nil
	}
	return m, true, nil
}

// Config returns a snapshot of the router config, or found=false when
// the router has not been initialized.
func (s *RouterService) Config(ctx context.Context) (*model.RouterConfig, bool, error) {
	cfg, err := s.store.GetConfig(ctx)
	if err != nil {
		return nil, false, apperrors.Wrap(err)
	}
	if cfg == nil {
		return nil, false, nil
	}
	return cfg, true, nil
}

// CurrentThresholdBps exposes the live risk threshold to the slab when
// the confidence mode is "current".
func (s *RouterService) CurrentThresholdBps(ctx context.Context) (int, error) {
	cfg, err := s.requireConfig(ctx)
	if err != nil {
		return 0, err
	}
	return cfg.RiskThresholdBps, nil
}

func (s *RouterService) requireConfig(ctx context.Context) (*model.RouterConfig, error) {
	cfg, err := s.store.GetConfig(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err)
	}
	if cfg == nil {
		return nil, apperrors.New(apperrors.ErrNotInitialized, "router config not initialized", nil)
	}
	// A threshold outside its domain in our own bookkeeping is a bug,
	// not user input.
	if cfg.RiskThresholdBps < 0 || cfg.RiskThresholdBps > model.MaxBps {
		err := apperrors.New(apperrors.ErrInternal,
			fmt.Sprintf("stored risk threshold %d violates [0, %d]", cfg.RiskThresholdBps, model.MaxBps), nil)
		logger.Error("router config invariant violated", "risk_threshold_bps", cfg.RiskThresholdBps)
		return nil, err
	}
	return cfg, nil
}
