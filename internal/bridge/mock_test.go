package bridge

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mollyslab/slabgate/internal/model"
	"github.com/mollyslab/slabgate/internal/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() model.BridgeTransfer {
	return model.BridgeTransfer{
		FromChain: model.ChainSol,
		ToChain:   model.ChainBnb,
		Token:     "USDC",
		Amount:    1_000_000,
		Sender:    "sender-wallet",
		Recipient: "recipient-wallet",
		MemoJSON:  `{"action":"execute_signal"}`,
	}
}

func TestMockTransferSubmits(t *testing.T) {
	adapter := NewMockAdapter()

	receipt, err := adapter.TransferAndCall(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, model.BridgeSubmitted, receipt.Status)
	assert.NotEmpty(t, receipt.RequestID)
	assert.True(t, strings.HasPrefix(receipt.TxHash, "0x"))
	assert.Len(t, receipt.TxHash, 66)
	assert.Empty(t, receipt.VaaID)
}

func TestMockTransferInvalidRoute(t *testing.T) {
	adapter := NewMockAdapter()
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*model.BridgeTransfer)
	}{
		{"same chain", func(r *model.BridgeTransfer) { r.ToChain = r.FromChain }},
		{"unknown source", func(r *model.BridgeTransfer) { r.FromChain = "eth" }},
		{"unknown destination", func(r *model.BridgeTransfer) { r.ToChain = "eth" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(&req)

			receipt, err := adapter.TransferAndCall(ctx, req)
			assert.True(t, apperrors.Is(err, apperrors.ErrInvalidRoute))

			// Failures still produce a terminal receipt.
			assert.Equal(t, model.BridgeFailed, receipt.Status)
			assert.NotEmpty(t, receipt.RequestID)
			assert.NotEmpty(t, receipt.Error)
		})
	}
}

func TestMockTransferInvalidAmount(t *testing.T) {
	adapter := NewMockAdapter()

	for _, amount := range []int64{0, -1} {
		req := validRequest()
		req.Amount = amount

		receipt, err := adapter.TransferAndCall(context.Background(), req)
		assert.True(t, apperrors.Is(err, apperrors.ErrInvalidAmount))
		assert.Equal(t, model.BridgeFailed, receipt.Status)
	}
}

func TestMockWaitForFinality(t *testing.T) {
	adapter := NewMockAdapter()
	ctx := context.Background()

	submitted, err := adapter.TransferAndCall(ctx, validRequest())
	require.NoError(t, err)

	finalized, err := adapter.WaitForFinality(ctx, submitted, time.Second)
	require.NoError(t, err)
	assert.Equal(t, model.BridgeFinalized, finalized.Status)
	assert.NotEmpty(t, finalized.VaaID)
	assert.Equal(t, submitted.RequestID, finalized.RequestID)
	assert.Equal(t, submitted.TxHash, finalized.TxHash)

	// The input receipt is never mutated.
	assert.Equal(t, model.BridgeSubmitted, submitted.Status)
	assert.Empty(t, submitted.VaaID)

	// Waiting again is idempotent, including the vaa id.
	again, err := adapter.WaitForFinality(ctx, finalized, time.Second)
	require.NoError(t, err)
	assert.Equal(t, finalized, again)
}

func TestMockWaitOnFailedReceipt(t *testing.T) {
	adapter := NewMockAdapter()

	failed := model.BridgeReceipt{RequestID: "req-1", Status: model.BridgeFailed, Error: "boom"}
	out, err := adapter.WaitForFinality(context.Background(), failed, time.Second)
	require.NoError(t, err)
	assert.Equal(t, failed, out)
}

func TestRequestIDsAreUnique(t *testing.T) {
	adapter := NewMockAdapter()
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		receipt, err := adapter.TransferAndCall(ctx, validRequest())
		require.NoError(t, err)
		assert.False(t, seen[receipt.RequestID])
		seen[receipt.RequestID] = true
	}
}
