package service

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/mollyslab/slabgate/internal/model"
	"github.com/mollyslab/slabgate/internal/pkg/apperrors"
	"github.com/mollyslab/slabgate/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedEvents struct {
	mu     sync.Mutex
	events []ExecutionEvent
}

func (c *capturedEvents) Publish(ev ExecutionEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *capturedEvents) all() []ExecutionEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ExecutionEvent(nil), c.events...)
}

// fixture wires a router and slab service over one memory store, with
// the standard setup: threshold 7000, SOL scored 9000, a momentum
// mandate for user-1 with ttl 300s, and an open slab.
type fixture struct {
	router *RouterService
	slab   *SlabService
	events *capturedEvents
	now    time.Time
}

func newFixture(t *testing.T, mode string) *fixture {
	t.Helper()
	mem := store.NewMemoryStore()
	router := NewRouterService(mem)
	events := &capturedEvents{}
	slab := NewSlabService(mem, router, mode, events)

	f := &fixture{router: router, slab: slab, events: events,
		now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	router.nowFn = func() time.Time { return f.now }
	slab.nowFn = func() time.Time { return f.now }

	ctx := context.Background()
	_, err := router.Initialize(ctx, "admin-1", "oracle-1", 7000)
	require.NoError(t, err)
	_, err = router.SetOracleScore(ctx, "oracle-1", "SOL", 9000)
	require.NoError(t, err)
	_, err = router.MintMandate(ctx, "user-1", "user-1", "SOL", model.StrategyMomentum, 300)
	require.NoError(t, err)
	_, err = slab.InitializeSlab(ctx, "user-1", model.StrategyMomentum)
	require.NoError(t, err)
	return f
}

func signal(side model.Side, confidence int, notional int64) model.Signal {
	return model.Signal{
		Asset:         "SOL",
		Strategy:      model.StrategyMomentum,
		Side:          side,
		ConfidenceBps: confidence,
		Notional:      notional,
		Price:         42,
	}
}

func TestExecuteSignalHappyPath(t *testing.T) {
	f := newFixture(t, ConfidenceModeCurrent)
	ctx := context.Background()

	slab, err := f.slab.ExecuteSignal(ctx, "user-1", signal(model.SideLong, 9000, 1000))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), slab.PerformancePnl)
	assert.Equal(t, f.now, slab.LastSignalTs)

	slab, err = f.slab.ExecuteSignal(ctx, "user-1", signal(model.SideShort, 9000, 400))
	require.NoError(t, err)
	assert.Equal(t, int64(600), slab.PerformancePnl)

	events := f.events.all()
	require.Len(t, events, 2)
	assert.Equal(t, int64(1000), events[0].PnlAfter)
	assert.Equal(t, "42000", events[0].GrossValue)
	assert.Equal(t, int64(600), events[1].PnlAfter)
}

func TestExecuteSignalConfidenceFloor(t *testing.T) {
	f := newFixture(t, ConfidenceModeCurrent)
	ctx := context.Background()

	// Equal to the floor passes.
	_, err := f.slab.ExecuteSignal(ctx, "user-1", signal(model.SideLong, 7000, 100))
	require.NoError(t, err)

	_, err = f.slab.ExecuteSignal(ctx, "user-1", signal(model.SideLong, 6999, 100))
	assert.True(t, apperrors.Is(err, apperrors.ErrLowConfidence))

	// Rejection leaves PnL untouched.
	slab, found, err := f.slab.GetSlab(ctx, "user-1", model.StrategyMomentum)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(100), slab.PerformancePnl)
	assert.Len(t, f.events.all(), 1)
}

func TestExecuteSignalCurrentModeTracksThreshold(t *testing.T) {
	f := newFixture(t, ConfidenceModeCurrent)
	ctx := context.Background()

	// Raising the live threshold raises the floor for existing mandates.
	_, err := f.router.UpdateThreshold(ctx, "admin-1", 9500)
	require.NoError(t, err)

	_, err = f.slab.ExecuteSignal(ctx, "user-1", signal(model.SideLong, 9000, 100))
	assert.True(t, apperrors.Is(err, apperrors.ErrLowConfidence))

	_, err = f.slab.ExecuteSignal(ctx, "user-1", signal(model.SideLong, 9500, 100))
	require.NoError(t, err)
}

func TestExecuteSignalFrozenModeUsesMintThreshold(t *testing.T) {
	f := newFixture(t, ConfidenceModeFrozen)
	ctx := context.Background()

	// The mandate froze 7000 at mint; later raises don't apply.
	_, err := f.router.UpdateThreshold(ctx, "admin-1", 9500)
	require.NoError(t, err)

	_, err = f.slab.ExecuteSignal(ctx, "user-1", signal(model.SideLong, 7000, 100))
	require.NoError(t, err)
}

func TestExecuteSignalMandateGates(t *testing.T) {
	f := newFixture(t, ConfidenceModeCurrent)
	ctx := context.Background()

	// No mandate for a different asset.
	sig := signal(model.SideLong, 9000, 100)
	sig.Asset = "BNB"
	_, err := f.slab.ExecuteSignal(ctx, "user-1", sig)
	assert.True(t, apperrors.Is(err, apperrors.ErrNoMandate))

	// Revoked mandate rejects even before expiry.
	require.NoError(t, f.router.RevokeMandate(ctx, "user-1", "user-1", "SOL", model.StrategyMomentum))
	_, err = f.slab.ExecuteSignal(ctx, "user-1", signal(model.SideLong, 9000, 100))
	assert.True(t, apperrors.Is(err, apperrors.ErrNoMandate))
}

func TestExecuteSignalExpiry(t *testing.T) {
	f := newFixture(t, ConfidenceModeCurrent)
	ctx := context.Background()

	// At exactly expiry the mandate is still live.
	f.now = f.now.Add(300 * time.Second)
	_, err := f.slab.ExecuteSignal(ctx, "user-1", signal(model.SideLong, 9000, 100))
	require.NoError(t, err)

	// One instant past expiry fails; the failure is permanent.
	f.now = f.now.Add(time.Nanosecond)
	_, err = f.slab.ExecuteSignal(ctx, "user-1", signal(model.SideLong, 9000, 100))
	assert.True(t, apperrors.Is(err, apperrors.ErrMandateExpired))

	// Expiry does not erase the record.
	m, found, err := f.router.GetMandate(ctx, "user-1", "SOL", model.StrategyMomentum)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, m.Exists)

	// A fresh mint reopens execution.
	_, err = f.router.MintMandate(ctx, "user-1", "user-1", "SOL", model.StrategyMomentum, 300)
	require.NoError(t, err)
	_, err = f.slab.ExecuteSignal(ctx, "user-1", signal(model.SideLong, 9000, 100))
	require.NoError(t, err)
}

func TestExecuteSignalValidation(t *testing.T) {
	f := newFixture(t, ConfidenceModeCurrent)
	ctx := context.Background()

	sig := signal(model.SideLong, 9000, 100)
	sig.Side = "sideways"
	_, err := f.slab.ExecuteSignal(ctx, "user-1", sig)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidRange))

	sig = signal(model.SideLong, 10001, 100)
	_, err = f.slab.ExecuteSignal(ctx, "user-1", sig)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidRange))

	sig = signal(model.SideLong, 9000, 100)
	sig.Strategy = "ponzi"
	_, err = f.slab.ExecuteSignal(ctx, "user-1", sig)
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidRange))
}

func TestExecuteSignalRequiresSlab(t *testing.T) {
	f := newFixture(t, ConfidenceModeCurrent)
	ctx := context.Background()

	sig := signal(model.SideLong, 9000, 100)
	_, err := f.slab.ExecuteSignal(ctx, "user-2", sig)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotInitialized))
}

func TestInitializeSlabOnce(t *testing.T) {
	f := newFixture(t, ConfidenceModeCurrent)
	ctx := context.Background()

	_, err := f.slab.InitializeSlab(ctx, "user-1", model.StrategyMomentum)
	assert.True(t, apperrors.Is(err, apperrors.ErrAlreadyInitialized))

	// Same owner, different strategy is a separate account.
	slab, err := f.slab.InitializeSlab(ctx, "user-1", model.StrategyArbitrage)
	require.NoError(t, err)
	assert.Equal(t, int64(0), slab.PerformancePnl)
}

func TestCloseSlab(t *testing.T) {
	f := newFixture(t, ConfidenceModeCurrent)
	ctx := context.Background()

	require.NoError(t, f.slab.CloseSlab(ctx, "user-1", model.StrategyMomentum))

	err := f.slab.CloseSlab(ctx, "user-1", model.StrategyMomentum)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotInitialized))

	// Reopening starts from zero.
	slab, err := f.slab.InitializeSlab(ctx, "user-1", model.StrategyMomentum)
	require.NoError(t, err)
	assert.Equal(t, int64(0), slab.PerformancePnl)
}

func TestPnlSaturates(t *testing.T) {
	assert.Equal(t, int64(math.MaxInt64), satAdd(math.MaxInt64, 1))
	assert.Equal(t, int64(math.MinInt64), satAdd(math.MinInt64, -1))
	assert.Equal(t, int64(math.MaxInt64-1), satAdd(math.MaxInt64, -1))
	assert.Equal(t, int64(0), satAdd(-5, 5))
}

func TestPnlDeltaSides(t *testing.T) {
	long := model.Signal{Side: model.SideLong, Notional: 777}
	short := model.Signal{Side: model.SideShort, Notional: 777}
	assert.Equal(t, int64(777), long.PnlDelta())
	assert.Equal(t, int64(-777), short.PnlDelta())
}

func TestConcurrentSignalsSerialize(t *testing.T) {
	f := newFixture(t, ConfidenceModeCurrent)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.slab.ExecuteSignal(ctx, "user-1", signal(model.SideLong, 9000, 1))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	slab, found, err := f.slab.GetSlab(ctx, "user-1", model.StrategyMomentum)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(50), slab.PerformancePnl)
}
