package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mollyslab/slabgate/internal/middleware"
	"github.com/mollyslab/slabgate/internal/model"
	"github.com/mollyslab/slabgate/internal/service"
)

// SlabHandler exposes the execution accounts: open, execute, close.
// Slabs are always the caller's own; there is no cross-owner access.
type SlabHandler struct {
	svc *service.SlabService
}

func NewSlabHandler(svc *service.SlabService) *SlabHandler {
	return &SlabHandler{svc: svc}
}

func (h *SlabHandler) InitializeSlab(c *gin.Context) {
	var req model.InitializeSlabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := middleware.Actor(c)
	slab, err := h.svc.InitializeSlab(c.Request.Context(), actor.ID, req.Strategy)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, slab)
}

func (h *SlabHandler) ExecuteSignal(c *gin.Context) {
	var req model.ExecuteSignalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := middleware.Actor(c)
	sig := model.Signal{
		Asset:         req.Asset,
		Strategy:      req.Strategy,
		Side:          req.Side,
		ConfidenceBps: req.ConfidenceBps,
		Notional:      req.Notional,
		Price:         req.Price,
	}

	slab, err := h.svc.ExecuteSignal(c.Request.Context(), actor.ID, sig)
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.AddAuditContext(c, "pnl_after", slab.PerformancePnl)
	middleware.AddAuditContext(c, "side", string(req.Side))
	middleware.AddAuditContext(c, "notional", req.Notional)
	c.JSON(http.StatusOK, slab)
}

func (h *SlabHandler) CloseSlab(c *gin.Context) {
	strategy := model.Strategy(c.Param("strategy"))
	if !strategy.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown strategy"})
		return
	}

	actor := middleware.Actor(c)
	if err := h.svc.CloseSlab(c.Request.Context(), actor.ID, strategy); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"closed": true})
}

func (h *SlabHandler) GetSlab(c *gin.Context) {
	strategy := model.Strategy(c.Param("strategy"))
	if !strategy.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown strategy"})
		return
	}

	actor := middleware.Actor(c)
	slab, found, err := h.svc.GetSlab(c.Request.Context(), actor.ID, strategy)
	if err != nil {
		respondError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "slab not initialized"})
		return
	}
	c.JSON(http.StatusOK, slab)
}
