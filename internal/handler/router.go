package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mollyslab/slabgate/internal/middleware"
	"github.com/mollyslab/slabgate/internal/model"
	"github.com/mollyslab/slabgate/internal/service"
)

// RouterHandler exposes the mandate authority: config bootstrap, pause,
// threshold, oracle scores, and the mandate registry.
type RouterHandler struct {
	svc *service.RouterService
}

func NewRouterHandler(svc *service.RouterService) *RouterHandler {
	return &RouterHandler{svc: svc}
}

func (h *RouterHandler) Initialize(c *gin.Context) {
	var req model.InitializeRouterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg, err := h.svc.Initialize(c.Request.Context(), req.Admin, req.OracleAuthority, req.RiskThresholdBps)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, cfg)
}

func (h *RouterHandler) SetPause(c *gin.Context) {
	var req model.SetPauseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := middleware.Actor(c)
	cfg, err := h.svc.SetPause(c.Request.Context(), actor.ID, *req.Paused)
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.AddAuditContext(c, "paused", cfg.Paused)
	c.JSON(http.StatusOK, cfg)
}

func (h *RouterHandler) UpdateThreshold(c *gin.Context) {
	var req model.UpdateThresholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := middleware.Actor(c)
	cfg, err := h.svc.UpdateThreshold(c.Request.Context(), actor.ID, *req.RiskThresholdBps)
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.AddAuditContext(c, "risk_threshold_bps", cfg.RiskThresholdBps)
	c.JSON(http.StatusOK, cfg)
}

func (h *RouterHandler) GetConfig(c *gin.Context) {
	cfg, found, err := h.svc.Config(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusOK, gin.H{"initialized": false})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *RouterHandler) SetScore(c *gin.Context) {
	asset := c.Param("asset")

	var req model.SetScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := middleware.Actor(c)
	score, err := h.svc.SetOracleScore(c.Request.Context(), actor.ID, asset, *req.ScoreBps)
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.AddAuditContext(c, "score_bps", score.ScoreBps)
	c.JSON(http.StatusOK, score)
}

func (h *RouterHandler) GetScore(c *gin.Context) {
	asset := c.Param("asset")

	score, found, err := h.svc.GetOracleScore(c.Request.Context(), asset)
	if err != nil {
		respondError(c, err)
		return
	}
	if !found {
		c.JSON(http.StatusOK, gin.H{"found": false, "asset": asset})
		return
	}
	c.JSON(http.StatusOK, score)
}

func (h *RouterHandler) MintMandate(c *gin.Context) {
	var req model.MintMandateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := middleware.Actor(c)
	m, err := h.svc.MintMandate(c.Request.Context(), actor.ID, req.User, req.Asset, req.Strategy, req.TTLSeconds)
	if err != nil {
		respondError(c, err)
		return
	}

	middleware.AddAuditContext(c, "mandate_user", m.User)
	middleware.AddAuditContext(c, "mandate_expires_at", m.ExpiresAt)
	c.JSON(http.StatusCreated, m)
}

func (h *RouterHandler) RevokeMandate(c *gin.Context) {
	var req model.RevokeMandateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := middleware.Actor(c)
	if err := h.svc.RevokeMandate(c.Request.Context(), actor.ID, req.User, req.Asset, req.Strategy); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"revoked": true})
}

func (h *RouterHandler) VetoMandate(c *gin.Context) {
	var req model.RevokeMandateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.User == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user is required"})
		return
	}

	actor := middleware.Actor(c)
	if err := h.svc.VetoMandate(c.Request.Context(), actor.ID, req.User, req.Asset, req.Strategy); err != nil {
		respondError(c, err)
		return
	}

	middleware.AddAuditContext(c, "vetoed_user", req.User)
	c.JSON(http.StatusOK, gin.H{"vetoed": true})
}

func (h *RouterHandler) GetMandate(c *gin.Context) {
	user := c.Query("user")
	asset := c.Query("asset")
	strategy := model.Strategy(c.Query("strategy"))

	if user == "" {
		user = middleware.Actor(c).ID
	}
	if asset == "" || !strategy.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "asset and a valid strategy are required"})
		return
	}

	m, found, err := h.svc.GetMandate(c.Request.Context(), user, asset, strategy)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.MandateResponse{Found: found, Mandate: m})
}
