package bridge

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/mollyslab/slabgate/internal/model"
	"github.com/mollyslab/slabgate/internal/pkg/logger"
	"github.com/mollyslab/slabgate/internal/pkg/metrics"
)

// MockAdapter performs no network I/O. It validates inputs, echoes a
// synthetic transaction hash, and finalizes instantly. Used for local
// development and deterministic testing of the orchestration layer.
type MockAdapter struct{}

func NewMockAdapter() *MockAdapter {
	return &MockAdapter{}
}

func (m *MockAdapter) TransferAndCall(ctx context.Context, req model.BridgeTransfer) (model.BridgeReceipt, error) {
	if rec, err := validateTransfer(req); err != nil {
		metrics.BridgeTransfers.WithLabelValues(route(req), "failed").Inc()
		return rec, err
	}

	receipt := model.BridgeReceipt{
		RequestID: newRequestID(),
		TxHash:    syntheticTxHash(),
		Status:    model.BridgeSubmitted,
	}

	metrics.BridgeTransfers.WithLabelValues(route(req), "submitted").Inc()
	logger.Component("mock-bridge").Info("transfer submitted",
		"from", req.FromChain, "to", req.ToChain, "token", req.Token,
		"amount", req.Amount, "recipient", req.Recipient,
		"memo", req.MemoJSON, "tx_hash", receipt.TxHash)
	return receipt, nil
}

// WaitForFinality finalizes immediately. The vaa id is assigned on the
// first call only, so repeated waits on the same receipt are
// idempotent.
func (m *MockAdapter) WaitForFinality(ctx context.Context, receipt model.BridgeReceipt, timeout time.Duration) (model.BridgeReceipt, error) {
	if receipt.Terminal() {
		return receipt, nil
	}
	return receipt.Finalized(newRequestID()), nil
}

func syntheticTxHash() string {
	var b [32]byte
	_, _ = rand.Read(b[:])
	return "0x" + hex.EncodeToString(b[:])
}

func route(req model.BridgeTransfer) string {
	return string(req.FromChain) + "->" + string(req.ToChain)
}
