package handler

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mollyslab/slabgate/internal/bridge"
	"github.com/mollyslab/slabgate/internal/middleware"
	"github.com/mollyslab/slabgate/internal/model"
	"github.com/mollyslab/slabgate/internal/pkg/apperrors"
)

// BridgeHandler submits cross-chain transfers through the configured
// adapter and tracks receipts by request id. Receipts are scoped to the
// submitting actor; admins can inspect any receipt.
type BridgeHandler struct {
	adapter bridge.Adapter
	timeout time.Duration

	mu       sync.RWMutex
	receipts map[string]*trackedReceipt
}

type trackedReceipt struct {
	Owner   string
	Receipt model.BridgeReceipt
}

func NewBridgeHandler(adapter bridge.Adapter, defaultTimeout time.Duration) *BridgeHandler {
	return &BridgeHandler{
		adapter:  adapter,
		timeout:  defaultTimeout,
		receipts: make(map[string]*trackedReceipt),
	}
}

func (h *BridgeHandler) SubmitTransfer(c *gin.Context) {
	var req model.BridgeTransfer
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := middleware.Actor(c)
	receipt, err := h.adapter.TransferAndCall(c.Request.Context(), req)

	// Failed submissions still produce a receipt; keep it so the
	// caller can fetch the failure later by request id.
	if receipt.RequestID != "" {
		h.track(actor.ID, receipt)
	}
	middleware.AddAuditContext(c, "bridge_request_id", receipt.RequestID)
	middleware.AddAuditContext(c, "bridge_route", string(req.FromChain)+"->"+string(req.ToChain))

	if err != nil {
		appErr := apperrors.Wrap(err)
		middleware.AddAuditContext(c, "error", appErr.Message)
		c.JSON(appErr.HTTPStatus, gin.H{
			"receipt": receipt,
			"code":    appErr.Type,
			"message": appErr.Message,
		})
		return
	}

	c.JSON(http.StatusAccepted, receipt)
}

func (h *BridgeHandler) GetTransfer(c *gin.Context) {
	tracked, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, tracked.Receipt)
}

func (h *BridgeHandler) WaitFinality(c *gin.Context) {
	tracked, ok := h.lookup(c)
	if !ok {
		return
	}

	var req model.WaitFinalityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	timeout := h.timeout
	if req.TimeoutMs > 0 {
		timeout = time.Duration(req.TimeoutMs) * time.Millisecond
	}

	actor := middleware.Actor(c)
	receipt, err := h.adapter.WaitForFinality(c.Request.Context(), tracked.Receipt, timeout)
	h.track(actor.ID, receipt)
	middleware.AddAuditContext(c, "bridge_request_id", receipt.RequestID)
	middleware.AddAuditContext(c, "bridge_status", string(receipt.Status))

	if err != nil {
		appErr := apperrors.Wrap(err)
		middleware.AddAuditContext(c, "error", appErr.Message)
		c.JSON(appErr.HTTPStatus, gin.H{
			"receipt": receipt,
			"code":    appErr.Type,
			"message": appErr.Message,
		})
		return
	}

	c.JSON(http.StatusOK, receipt)
}

func (h *BridgeHandler) track(owner string, receipt model.BridgeReceipt) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.receipts[receipt.RequestID] = &trackedReceipt{Owner: owner, Receipt: receipt}
}

// lookup resolves the :id path param to a tracked receipt, enforcing
// ownership. Writes the error response itself on failure.
func (h *BridgeHandler) lookup(c *gin.Context) (*trackedReceipt, bool) {
	id := c.Param("id")

	h.mu.RLock()
	tracked, ok := h.receipts[id]
	h.mu.RUnlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown transfer request id"})
		return nil, false
	}

	actor := middleware.Actor(c)
	if actor == nil || (tracked.Owner != actor.ID && actor.Role != model.RoleAdmin) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown transfer request id"})
		return nil, false
	}
	return tracked, true
}
