package service

import (
	"context"
	"testing"
	"time"

	"github.com/mollyslab/slabgate/internal/model"
	"github.com/mollyslab/slabgate/internal/pkg/apperrors"
	"github.com/mollyslab/slabgate/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *RouterService {
	t.Helper()
	svc := NewRouterService(store.NewMemoryStore())
	_, err := svc.Initialize(context.Background(), "admin-1", "oracle-1", 7000)
	require.NoError(t, err)
	return svc
}

func TestInitializeOnce(t *testing.T) {
	svc := NewRouterService(store.NewMemoryStore())
	ctx := context.Background()

	cfg, err := svc.Initialize(ctx, "admin-1", "oracle-1", 7000)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.RiskThresholdBps)
	assert.False(t, cfg.Paused)

	_, err = svc.Initialize(ctx, "admin-2", "oracle-2", 5000)
	assert.True(t, apperrors.Is(err, apperrors.ErrAlreadyInitialized))

	// The original config survives the failed re-init.
	got, found, err := svc.Config(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "admin-1", got.Admin)
}

func TestInitializeThresholdRange(t *testing.T) {
	svc := NewRouterService(store.NewMemoryStore())
	ctx := context.Background()

	_, err := svc.Initialize(ctx, "admin-1", "oracle-1", -1)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidRange))

	_, err = svc.Initialize(ctx, "admin-1", "oracle-1", model.MaxBps+1)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidRange))

	// Both bounds are inclusive.
	_, err = svc.Initialize(ctx, "admin-1", "oracle-1", 0)
	require.NoError(t, err)
}

func TestOperationsBeforeInitialize(t *testing.T) {
	svc := NewRouterService(store.NewMemoryStore())
	ctx := context.Background()

	_, err := svc.SetPause(ctx, "admin-1", true)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotInitialized))

	_, err = svc.SetOracleScore(ctx, "oracle-1", "SOL", 9000)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotInitialized))

	_, err = svc.MintMandate(ctx, "user-1", "user-1", "SOL", model.StrategyMomentum, 300)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotInitialized))
}

func TestSetPauseAdminOnly(t *testing.T) {
	svc := newTestRouter(t)
	ctx := context.Background()

	_, err := svc.SetPause(ctx, "user-1", true)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))

	cfg, err := svc.SetPause(ctx, "admin-1", true)
	require.NoError(t, err)
	assert.True(t, cfg.Paused)

	cfg, err = svc.SetPause(ctx, "admin-1", false)
	require.NoError(t, err)
	assert.False(t, cfg.Paused)
}

func TestUpdateThreshold(t *testing.T) {
	svc := newTestRouter(t)
	ctx := context.Background()

	_, err := svc.UpdateThreshold(ctx, "user-1", 5000)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))

	_, err = svc.UpdateThreshold(ctx, "admin-1", 10001)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidRange))

	cfg, err := svc.UpdateThreshold(ctx, "admin-1", 5000)
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.RiskThresholdBps)
}

func TestSetOracleScore(t *testing.T) {
	svc := newTestRouter(t)
	ctx := context.Background()

	_, err := svc.SetOracleScore(ctx, "user-1", "SOL", 9000)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))

	_, err = svc.SetOracleScore(ctx, "oracle-1", "SOL", 10001)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidRange))

	score, err := svc.SetOracleScore(ctx, "oracle-1", "SOL", 9000)
	require.NoError(t, err)
	assert.Equal(t, 9000, score.ScoreBps)

	// Last write wins.
	score, err = svc.SetOracleScore(ctx, "oracle-1", "SOL", 6500)
	require.NoError(t, err)
	assert.Equal(t, 6500, score.ScoreBps)

	got, found, err := svc.GetOracleScore(ctx, "SOL")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 6500, got.ScoreBps)

	_, found, err = svc.GetOracleScore(ctx, "NEVER")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMintMandateThresholdGate(t *testing.T) {
	svc := newTestRouter(t)
	ctx := context.Background()

	// No score at all rejects.
	_, err := svc.MintMandate(ctx, "user-1", "user-1", "SOL", model.StrategyMomentum, 300)
	assert.True(t, apperrors.Is(err, apperrors.ErrRiskRejected))

	_, err = svc.SetOracleScore(ctx, "oracle-1", "SOL", 6999)
	require.NoError(t, err)
	_, err = svc.MintMandate(ctx, "user-1", "user-1", "SOL", model.StrategyMomentum, 300)
	assert.True(t, apperrors.Is(err, apperrors.ErrRiskRejected))

	// Equal to threshold passes.
	_, err = svc.SetOracleScore(ctx, "oracle-1", "SOL", 7000)
	require.NoError(t, err)
	m, err := svc.MintMandate(ctx, "user-1", "user-1", "SOL", model.StrategyMomentum, 300)
	require.NoError(t, err)
	assert.True(t, m.Exists)
	assert.Equal(t, 7000, m.MintedThresholdBps)
}

func TestMintMandateValidation(t *testing.T) {
	svc := newTestRouter(t)
	ctx := context.Background()

	_, err := svc.MintMandate(ctx, "user-1", "user-1", "SOL", "ponzi", 300)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidRange))

	_, err = svc.MintMandate(ctx, "user-1", "user-1", "SOL", model.StrategyMomentum, 0)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidRange))

	_, err = svc.MintMandate(ctx, "user-1", "user-1", "", model.StrategyMomentum, 300)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidRequest))
}

func TestMintMandateCallerGate(t *testing.T) {
	svc := newTestRouter(t)
	ctx := context.Background()
	_, err := svc.SetOracleScore(ctx, "oracle-1", "SOL", 9000)
	require.NoError(t, err)

	// A stranger cannot mint for someone else.
	_, err = svc.MintMandate(ctx, "user-2", "user-1", "SOL", model.StrategyMomentum, 300)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))

	// The admin can.
	m, err := svc.MintMandate(ctx, "admin-1", "user-1", "SOL", model.StrategyMomentum, 300)
	require.NoError(t, err)
	assert.Equal(t, "user-1", m.User)

	// User defaults to the caller when omitted.
	m, err = svc.MintMandate(ctx, "user-3", "", "SOL", model.StrategyMomentum, 300)
	require.NoError(t, err)
	assert.Equal(t, "user-3", m.User)
}

func TestMintMandateWhilePaused(t *testing.T) {
	svc := newTestRouter(t)
	ctx := context.Background()
	_, err := svc.SetOracleScore(ctx, "oracle-1", "SOL", 9000)
	require.NoError(t, err)

	_, err = svc.SetPause(ctx, "admin-1", true)
	require.NoError(t, err)

	_, err = svc.MintMandate(ctx, "user-1", "user-1", "SOL", model.StrategyMomentum, 300)
	assert.True(t, apperrors.Is(err, apperrors.ErrPaused))

	// Reads still work while paused.
	_, found, err := svc.GetOracleScore(ctx, "SOL")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestRemintOverwrites(t *testing.T) {
	svc := newTestRouter(t)
	ctx := context.Background()
	_, err := svc.SetOracleScore(ctx, "oracle-1", "SOL", 9000)
	require.NoError(t, err)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.nowFn = func() time.Time { return base }

	m1, err := svc.MintMandate(ctx, "user-1", "user-1", "SOL", model.StrategyMomentum, 300)
	require.NoError(t, err)

	svc.nowFn = func() time.Time { return base.Add(time.Hour) }
	m2, err := svc.MintMandate(ctx, "user-1", "user-1", "SOL", model.StrategyMomentum, 300)
	require.NoError(t, err)
	assert.True(t, m2.ExpiresAt.After(m1.ExpiresAt))
}

func TestRevokeMandateIdempotent(t *testing.T) {
	svc := newTestRouter(t)
	ctx := context.Background()
	_, err := svc.SetOracleScore(ctx, "oracle-1", "SOL", 9000)
	require.NoError(t, err)

	_, err = svc.MintMandate(ctx, "user-1", "user-1", "SOL", model.StrategyMomentum, 300)
	require.NoError(t, err)

	require.NoError(t, svc.RevokeMandate(ctx, "user-1", "user-1", "SOL", model.StrategyMomentum))

	// The record survives with Exists=false.
	m, found, err := svc.GetMandate(ctx, "user-1", "SOL", model.StrategyMomentum)
	require.NoError(t, err)
	require.True(t, found)
	assert.False(t, m.Exists)

	// Revoking again, or revoking something never minted, is a no-op.
	require.NoError(t, svc.RevokeMandate(ctx, "user-1", "user-1", "SOL", model.StrategyMomentum))
	require.NoError(t, svc.RevokeMandate(ctx, "user-1", "user-1", "BNB", model.StrategyArbitrage))

	// A stranger cannot revoke.
	err = svc.RevokeMandate(ctx, "user-2", "user-1", "SOL", model.StrategyMomentum)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))
}

func TestVetoMandate(t *testing.T) {
	svc := newTestRouter(t)
	ctx := context.Background()
	_, err := svc.SetOracleScore(ctx, "oracle-1", "SOL", 9000)
	require.NoError(t, err)

	_, err = svc.MintMandate(ctx, "user-1", "user-1", "SOL", model.StrategyMomentum, 300)
	require.NoError(t, err)

	err = svc.VetoMandate(ctx, "user-1", "user-1", "SOL", model.StrategyMomentum)
	assert.True(t, apperrors.Is(err, apperrors.ErrUnauthorized))

	require.NoError(t, svc.VetoMandate(ctx, "admin-1", "user-1", "SOL", model.StrategyMomentum))

	// Veto removes the record entirely.
	_, found, err := svc.GetMandate(ctx, "user-1", "SOL", model.StrategyMomentum)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGetMandateSentinel(t *testing.T) {
	svc := newTestRouter(t)

	m, found, err := svc.GetMandate(context.Background(), "user-1", "SOL", model.StrategyMomentum)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, m)
}
