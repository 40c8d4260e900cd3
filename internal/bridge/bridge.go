// Package bridge moves tokens (and an optional small call-trigger
// payload) between chains. Two adapters implement the same narrow
// interface: a mock for local development and deterministic tests, and
// a wormhole-backed live adapter. The orchestration layer selects one
// by configuration at startup and never cares which it got.
package bridge

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mollyslab/slabgate/internal/model"
	"github.com/mollyslab/slabgate/internal/pkg/apperrors"
)

// Adapter is the polymorphic bridge surface.
//
// TransferAndCall returns once the source-chain transaction is
// accepted for inclusion; it never blocks to finality. WaitForFinality
// is the only operation allowed to block for an extended period; it
// honors the timeout cooperatively and returns a failed receipt rather
// than hanging or panicking.
//
// Receipts are copy-on-transition: both methods return new values and
// never mutate the receipt they were given. RequestID is assigned
// exactly once per TransferAndCall and stays stable across
// WaitForFinality calls.
//
// Every failure is reported twice over: the returned receipt carries
// status=failed plus the reason, and the error return carries the
// taxonomy tag for callers that branch on it. Nothing is ever thrown
// past this boundary uncaught.
//
// Neither method retries. Resubmitting a failed transfer is the
// caller's decision and needs a fresh idempotency key per attempt.
type Adapter interface {
	TransferAndCall(ctx context.Context, req model.BridgeTransfer) (model.BridgeReceipt, error)
	WaitForFinality(ctx context.Context, receipt model.BridgeReceipt, timeout time.Duration) (model.BridgeReceipt, error)
}

// validateTransfer applies the input checks shared by every adapter.
// On failure it returns the failure record (a failed receipt with a
// fresh request id) alongside the tagged error.
func validateTransfer(req model.BridgeTransfer) (model.BridgeReceipt, *apperrors.AppError) {
	if !req.FromChain.Valid() || !req.ToChain.Valid() || req.FromChain == req.ToChain {
		err := apperrors.Newf(apperrors.ErrInvalidRoute, "invalid route %s -> %s", req.FromChain, req.ToChain)
		return failureRecord(err), err
	}
	if req.Amount <= 0 {
		err := apperrors.New(apperrors.ErrInvalidAmount, "amount must be > 0", nil)
		return failureRecord(err), err
	}
	return model.BridgeReceipt{}, nil
}

func failureRecord(err *apperrors.AppError) model.BridgeReceipt {
	return model.BridgeReceipt{
		RequestID: newRequestID(),
		Status:    model.BridgeFailed,
		Error:     err.Message,
	}
}

func newRequestID() string {
	return uuid.New().String()
}
