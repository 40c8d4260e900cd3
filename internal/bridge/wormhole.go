package bridge

import (
	"context"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/mollyslab/slabgate/internal/model"
	"github.com/mollyslab/slabgate/internal/pkg/apperrors"
	"github.com/mollyslab/slabgate/internal/pkg/logger"
	"github.com/mollyslab/slabgate/internal/pkg/metrics"
)

// WormholeOptions configures the live adapter.
type WormholeOptions struct {
	Network       string // "testnet" or "mainnet"
	EvmRPCURL     string
	EvmPrivateKey string // hex, no 0x prefix
	TokenBridge   string // token bridge contract on the EVM chain
	EvmChainID    int64
	GuardianAPI   string // guardian attestation REST endpoint
	PollInterval  time.Duration
}

// WormholeAdapter submits real source-chain transactions and polls the
// guardian attestation layer for finality. Only the EVM source leg is
// signed in-process; a Solana-source transfer needs an external signer
// and is reported as a provider failure rather than attempted.
type WormholeAdapter struct {
	opts        WormholeOptions
	eth         *ethclient.Client
	key         *ecdsa.PrivateKey
	sender      common.Address
	tokenBridge common.Address
	chainID     *big.Int
	nonces      *nonceCache
	httpClient  *http.Client
}

// transferWithPayload(address token,uint256 amount,bytes32 recipient,bytes payload)
var transferSelector = crypto.Keccak256([]byte("transferWithPayload(address,uint256,bytes32,bytes)"))[:4]

func NewWormholeAdapter(opts WormholeOptions) (*WormholeAdapter, error) {
	if opts.EvmRPCURL == "" || opts.GuardianAPI == "" {
		return nil, fmt.Errorf("wormhole adapter requires evm_rpc_url and guardian_api")
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}

	eth, err := ethclient.Dial(opts.EvmRPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to evm rpc: %w", err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(opts.EvmPrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid evm private key: %w", err)
	}

	return &WormholeAdapter{
		opts:        opts,
		eth:         eth,
		key:         key,
		sender:      crypto.PubkeyToAddress(key.PublicKey),
		tokenBridge: common.HexToAddress(opts.TokenBridge),
		chainID:     big.NewInt(opts.EvmChainID),
		nonces:      newNonceCache(eth),
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (w *WormholeAdapter) TransferAndCall(ctx context.Context, req model.BridgeTransfer) (model.BridgeReceipt, error) {
	if rec, err := validateTransfer(req); err != nil {
		metrics.BridgeTransfers.WithLabelValues(route(req), "failed").Inc()
		return rec, err
	}

	requestID := newRequestID()

	if req.FromChain != model.ChainBnb {
		// The Solana lock leg is signed by the orchestrator's wallet
		// process, not by this gateway.
		return w.fail(req, requestID, apperrors.New(apperrors.ErrProviderFailure,
			"solana source leg requires an external signer", nil))
	}

	txHash, err := w.submitEvmLock(ctx, req)
	if err != nil {
		w.nonces.Reset(w.sender)
		return w.fail(req, requestID, apperrors.New(apperrors.ErrProviderFailure, "evm submission failed", err))
	}

	receipt := model.BridgeReceipt{
		RequestID: requestID,
		TxHash:    txHash,
		Status:    model.BridgeSubmitted,
	}

	metrics.BridgeTransfers.WithLabelValues(route(req), "submitted").Inc()
	logger.Component("wormhole").Info("transfer submitted",
		"network", w.opts.Network, "from", req.FromChain, "to", req.ToChain,
		"token", req.Token, "amount", req.Amount, "tx_hash", txHash)
	return receipt, nil
}

// WaitForFinality polls the guardian attestation API until the message
// is signed or the timeout elapses. Polling yields on a ticker so one
// caller's wait never starves other bridge operations in the process.
func (w *WormholeAdapter) WaitForFinality(ctx context.Context, receipt model.BridgeReceipt, timeout time.Duration) (model.BridgeReceipt, error) {
	if receipt.Terminal() {
		return receipt, nil
	}
	if receipt.TxHash == "" {
		err := apperrors.New(apperrors.ErrProviderFailure, "receipt has no source transaction hash", nil)
		return receipt.Failed(err.Message), err
	}
	if timeout <= 0 {
		timeout = w.opts.PollInterval * 30
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		vaaID, found, err := w.fetchAttestation(ctx, receipt.TxHash)
		if err == nil && found {
			logger.Component("wormhole").Info("transfer finalized", "tx_hash", receipt.TxHash, "vaa_id", vaaID)
			return receipt.Finalized(vaaID), nil
		}
		if err != nil {
			logger.Component("wormhole").Debug("attestation poll failed", "tx_hash", receipt.TxHash, "error", err)
		}

		select {
		case <-ctx.Done():
			appErr := apperrors.New(apperrors.ErrProviderFailure, "finality not reached before timeout", ctx.Err())
			return receipt.Failed(appErr.Message), appErr
		case <-ticker.C:
		}
	}
}

// submitEvmLock builds, signs, and broadcasts the token-bridge lock
// transaction, with the memo payload appended for the destination-side
// trigger.
func (w *WormholeAdapter) submitEvmLock(ctx context.Context, req model.BridgeTransfer) (string, error) {
	nonce, err := w.nonces.Next(ctx, w.sender)
	if err != nil {
		return "", err
	}

	gasPrice, err := w.eth.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch gas price: %w", err)
	}

	data := packTransferWithPayload(req)

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &w.tokenBridge,
		Value:    big.NewInt(0),
		Gas:      300_000,
		GasPrice: gasPrice,
		Data:     data,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(w.chainID), w.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := w.eth.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("failed to broadcast transaction: %w", err)
	}

	return signed.Hash().Hex(), nil
}

func (w *WormholeAdapter) fetchAttestation(ctx context.Context, txHash string) (string, bool, error) {
	url := strings.TrimSuffix(w.opts.GuardianAPI, "/") + "/v1/attestations/" + txHash

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", false, err
	}

	resp, err := w.httpClient.Do(httpReq)
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("guardian api returned %d", resp.StatusCode)
	}

	var body struct {
		VaaID  string `json:"vaa_id"`
		Signed bool   `json:"signed"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", false, err
	}
	if !body.Signed || body.VaaID == "" {
		return "", false, nil
	}
	return body.VaaID, true, nil
}

func (w *WormholeAdapter) fail(req model.BridgeTransfer, requestID string, appErr *apperrors.AppError) (model.BridgeReceipt, error) {
	metrics.BridgeTransfers.WithLabelValues(route(req), "failed").Inc()
	logger.Component("wormhole").Warn("transfer failed",
		"from", req.FromChain, "to", req.ToChain, "error", appErr.Error())
	return model.BridgeReceipt{
		RequestID: requestID,
		Status:    model.BridgeFailed,
		Error:     appErr.Message,
	}, appErr
}

// packTransferWithPayload hand-packs the calldata: selector, token
// address, amount, recipient (left-padded to bytes32), then the raw
// memo bytes. The destination contract ignores a trailing empty memo.
func packTransferWithPayload(req model.BridgeTransfer) []byte {
	data := make([]byte, 0, 4+32*3+len(req.MemoJSON))
	data = append(data, transferSelector...)
	data = append(data, common.LeftPadBytes(common.HexToAddress(req.Token).Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(big.NewInt(req.Amount).Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(common.HexToAddress(req.Recipient).Bytes(), 32)...)
	data = append(data, []byte(req.MemoJSON)...)
	return data
}
