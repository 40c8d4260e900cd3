package service

import (
	"context"
	"math"
	"time"

	"github.com/mollyslab/slabgate/internal/model"
	"github.com/mollyslab/slabgate/internal/pkg/apperrors"
	"github.com/mollyslab/slabgate/internal/pkg/logger"
	"github.com/mollyslab/slabgate/internal/pkg/metrics"
	"github.com/mollyslab/slabgate/internal/store"
	"github.com/shopspring/decimal"
)

// Confidence modes: which floor a signal's confidence is held to at
// execution time.
const (
	ConfidenceModeCurrent = "current" // reapply the live router threshold
	ConfidenceModeFrozen  = "frozen"  // threshold captured at mandate mint
)

// MandateSource is the slab's view of the mandate authority.
type MandateSource interface {
	GetMandate(ctx context.Context, user, asset string, strategy model.Strategy) (*model.Mandate, bool, error)
	CurrentThresholdBps(ctx context.Context) (int, error)
}

// ExecutionEvent is broadcast after every successful signal execution.
// GrossValue carries the notional*price valuation for audit; it does
// not feed back into PnL.
type ExecutionEvent struct {
	Owner         string         `json:"owner"`
	Strategy      model.Strategy `json:"strategy"`
	Side          model.Side     `json:"side"`
	ConfidenceBps int            `json:"confidence_bps"`
	Notional      int64          `json:"notional"`
	Price         int64          `json:"price"`
	GrossValue    string         `json:"gross_value"`
	PnlAfter      int64          `json:"pnl_after"`
	At            time.Time      `json:"at"`
}

// EventPublisher receives execution events; the websocket hub
// implements it. A nil publisher drops events.
type EventPublisher interface {
	Publish(ev ExecutionEvent)
}

// SlabService owns the per-(owner, strategy) execution accounts and
// applies mandate-gated trade signals to cumulative PnL.
type SlabService struct {
	store          store.SlabStore
	locks          *store.KeyLocks
	mandates       MandateSource
	confidenceMode string
	events         EventPublisher
	nowFn          func() time.Time
}

func NewSlabService(st store.SlabStore, mandates MandateSource, confidenceMode string, events EventPublisher) *SlabService {
	if confidenceMode != ConfidenceModeFrozen {
		confidenceMode = ConfidenceModeCurrent
	}
	return &SlabService{
		store:          st,
		locks:          store.NewKeyLocks(),
		mandates:       mandates,
		confidenceMode: confidenceMode,
		events:         events,
		nowFn:          time.Now,
	}
}

// InitializeSlab creates the execution account once per
// (owner, strategy).
func (s *SlabService) InitializeSlab(ctx context.Context, owner string, strategy model.Strategy) (*model.SlabAccount, error) {
	if !strategy.Valid() {
		return nil, apperrors.Newf(apperrors.ErrInvalidRange, "unknown strategy %q", strategy)
	}

	defer s.locks.Lock(store.SlabKey(owner, strategy))()

	existing, err := s.store.GetSlab(ctx, owner, strategy)
	if err != nil {
		return nil, apperrors.Wrap(err)
	}
	if existing != nil && existing.Initialized {
		return nil, apperrors.Newf(apperrors.ErrAlreadyInitialized, "slab already initialized for %s/%s", owner, strategy)
	}

	slab := &model.SlabAccount{
		Owner:       owner,
		Strategy:    strategy,
		Initialized: true,
	}
	if err := s.store.PutSlab(ctx, slab); err != nil {
		return nil, apperrors.Wrap(err)
	}

	logger.Info("slab initialized", "owner", owner, "strategy", strategy)
	return slab, nil
}

// ExecuteSignal validates the signal against the owner's mandate and
// the confidence floor, then applies it to cumulative PnL. The PnL
// update is all-or-nothing: a rejected signal never mutates state.
//
// Not idempotent. Replaying the same signal doubles PnL; at-most-once
// submission is the caller's job (the gateway's idempotency middleware
// covers the HTTP path).
func (s *SlabService) ExecuteSignal(ctx context.Context, owner string, sig model.Signal) (*model.SlabAccount, error) {
	if !sig.Strategy.Valid() {
		return nil, apperrors.Newf(apperrors.ErrInvalidRange, "unknown strategy %q", sig.Strategy)
	}
	if !sig.Side.Valid() {
		return nil, apperrors.Newf(apperrors.ErrInvalidRange, "unknown side %q", sig.Side)
	}
	if sig.ConfidenceBps < 0 || sig.ConfidenceBps > model.MaxBps {
		return nil, apperrors.Newf(apperrors.ErrInvalidRange, "confidence %d out of range [0, %d]", sig.ConfidenceBps, model.MaxBps)
	}

	defer s.locks.Lock(store.SlabKey(owner, sig.Strategy))()

	slab, err := s.store.GetSlab(ctx, owner, sig.Strategy)
	if err != nil {
		return nil, apperrors.Wrap(err)
	}
	if slab == nil || !slab.Initialized {
		metrics.SignalRejects.WithLabelValues("not_initialized").Inc()
		return nil, apperrors.Newf(apperrors.ErrNotInitialized, "no slab for %s/%s", owner, sig.Strategy)
	}

	mandate, found, err := s.mandates.GetMandate(ctx, owner, sig.Asset, sig.Strategy)
	if err != nil {
		return nil, err
	}
	if !found || !mandate.Exists {
		metrics.SignalRejects.WithLabelValues("no_mandate").Inc()
		return nil, apperrors.Newf(apperrors.ErrNoMandate, "no mandate for %s/%s/%s", owner, sig.Asset, sig.Strategy)
	}

	now := s.nowFn()
	if now.After(mandate.ExpiresAt) {
		metrics.SignalRejects.WithLabelValues("expired").Inc()
		return nil, apperrors.Newf(apperrors.ErrMandateExpired, "mandate for %s/%s expired at %s", owner, sig.Asset, mandate.ExpiresAt.Format(time.RFC3339))
	}

	floor, err := s.requiredConfidenceBps(ctx, mandate)
	if err != nil {
		return nil, err
	}
	if sig.ConfidenceBps < floor {
		metrics.SignalRejects.WithLabelValues("low_confidence").Inc()
		return nil, apperrors.Newf(apperrors.ErrLowConfidence, "confidence %d below required %d", sig.ConfidenceBps, floor)
	}

	slab.PerformancePnl = satAdd(slab.PerformancePnl, sig.PnlDelta())
	slab.LastSignalTs = now
	if err := s.store.PutSlab(ctx, slab); err != nil {
		return nil, apperrors.Wrap(err)
	}

	gross := decimal.NewFromInt(sig.Notional).Mul(decimal.NewFromInt(sig.Price))
	metrics.SignalsTotal.WithLabelValues("executed", string(sig.Side)).Inc()
	logger.Info("signal executed",
		"owner", owner, "strategy", sig.Strategy, "side", sig.Side,
		"confidence_bps", sig.ConfidenceBps, "notional", sig.Notional,
		"price", sig.Price, "gross_value", gross.String(), "pnl_after", slab.PerformancePnl)

	if s.events != nil {
		s.events.Publish(ExecutionEvent{
			Owner:         owner,
			Strategy:      sig.Strategy,
			Side:          sig.Side,
			ConfidenceBps: sig.ConfidenceBps,
			Notional:      sig.Notional,
			Price:         sig.Price,
			GrossValue:    gross.String(),
			PnlAfter:      slab.PerformancePnl,
			At:            now,
		})
	}

	return slab, nil
}

// CloseSlab destroys the execution account.
func (s *SlabService) CloseSlab(ctx context.Context, owner string, strategy model.Strategy) error {
	if !strategy.Valid() {
		return apperrors.Newf(apperrors.ErrInvalidRange, "unknown strategy %q", strategy)
	}

	defer s.locks.Lock(store.SlabKey(owner, strategy))()

	existing, err := s.store.GetSlab(ctx, owner, strategy)
	if err != nil {
		return apperrors.Wrap(err)
	}
	if existing == nil || !existing.Initialized {
		return apperrors.Newf(apperrors.ErrNotInitialized, "no slab for %s/%s", owner, strategy)
	}

	if err := s.store.DeleteSlab(ctx, owner, strategy); err != nil {
		return apperrors.Wrap(err)
	}

	logger.Info("slab closed", "owner", owner, "strategy", strategy, "final_pnl", existing.PerformancePnl)
	return nil
}

// GetSlab is a read-only lookup with a found sentinel.
func (s *SlabService) GetSlab(ctx context.Context, owner string, strategy model.Strategy) (*model.SlabAccount, bool, error) {
	slab, err := s.store.GetSlab(ctx, owner, strategy)
	if err != nil {
		return nil, false, apperrors.Wrap(err)
	}
	if slab == nil || !slab.Initialized {
		return nil, false, nil
	}
	return slab, true, nil
}

func (s *SlabService) requiredConfidenceBps(ctx context.Context, mandate *model.Mandate) (int, error) {
	if s.confidenceMode == ConfidenceModeFrozen {
		return mandate.MintedThresholdBps, nil
	}
	return s.mandates.CurrentThresholdBps(ctx)
}

func satAdd(a, b int64) int64 {
	c := a + b
	if b > 0 && c < a {
		return math.MaxInt64
	}
	if b < 0 && c > a {
		return math.MinInt64
	}
	return c
}
