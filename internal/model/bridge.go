package model

// Chain identifies one of the supported ledgers.
type Chain string

const (
	ChainSol Chain = "sol"
	ChainBnb Chain = "bnb"
)

func (c Chain) Valid() bool {
	return c == ChainSol || c == ChainBnb
}

// BridgeTransferStatus is the lifecycle of a bridge receipt. It only
// ever advances submitted -> {finalized | failed}.
type BridgeTransferStatus string

const (
	BridgeSubmitted BridgeTransferStatus = "submitted"
	BridgeFinalized BridgeTransferStatus = "finalized"
	BridgeFailed    BridgeTransferStatus = "failed"
)

// BridgeTransfer moves tokens (and an optional small call-trigger memo)
// between chains. Amount is in atomic units.
type BridgeTransfer struct {
	FromChain Chain  `json:"from_chain" binding:"required"`
	ToChain   Chain  `json:"to_chain" binding:"required"`
	Token     string `json:"token" binding:"required"`
	Amount    int64  `json:"amount"`
	Sender    string `json:"sender" binding:"required"`
	Recipient string `json:"recipient" binding:"required"`
	// Optional payload to trigger an action on arrival (e.g. trade on
	// the destination slab). Keep it small; UTF-8 JSON.
	MemoJSON string `json:"memo_json,omitempty"`
}

// BridgeReceipt is the caller-owned record of one transfer attempt.
// Receipts are value types: every status transition returns a new
// receipt, never a mutation of the old one.
type BridgeReceipt struct {
	RequestID string               `json:"request_id"`
	TxHash    string               `json:"tx_hash,omitempty"`
	VaaID     string               `json:"vaa_id,omitempty"`
	Status    BridgeTransferStatus `json:"status"`
	Error     string               `json:"error,omitempty"`
}

// Finalized returns a copy of the receipt advanced to finalized,
// assigning the bridge message id only if one is not already set.
func (r BridgeReceipt) Finalized(vaaID string) BridgeReceipt {
	out := r
	out.Status = BridgeFinalized
	out.Error = ""
	if out.VaaID == "" {
		out.VaaID = vaaID
	}
	return out
}

// Failed returns a copy of the receipt advanced to failed with the
// provider's failure reason.
func (r BridgeReceipt) Failed(reason string) BridgeReceipt {
	out := r
	out.Status = BridgeFailed
	out.Error = reason
	return out
}

// Terminal reports whether the receipt can no longer transition.
func (r BridgeReceipt) Terminal() bool {
	return r.Status == BridgeFinalized || r.Status == BridgeFailed
}
