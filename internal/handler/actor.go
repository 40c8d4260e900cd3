package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mollyslab/slabgate/internal/model"
	"github.com/mollyslab/slabgate/internal/repository"
	"github.com/mollyslab/slabgate/internal/service"
)

// ActorHandler is the admin surface for the actor registry. The repo
// is optional; without it actors live only in config and memory.
type ActorHandler struct {
	manager *service.ActorManager
	repo    *repository.GormActorRepo
}

func NewActorHandler(manager *service.ActorManager, repo *repository.GormActorRepo) *ActorHandler {
	return &ActorHandler{manager: manager, repo: repo}
}

type createActorRequest struct {
	ID   string                `json:"id"`
	Name string                `json:"name" binding:"required"`
	Role model.Role            `json:"role" binding:"required,oneof=admin oracle trader"`
	Rate model.RateLimitConfig `json:"rate_limit"`
}

func (h *ActorHandler) Create(c *gin.Context) {
	var req createActorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := &model.Actor{
		ID:     req.ID,
		Name:   req.Name,
		ApiKey: uuid.New().String(),
		Role:   req.Role,
		Rate:   req.Rate,
	}
	if actor.ID == "" {
		actor.ID = uuid.New().String()
	}

	if h.repo != nil {
		if err := h.repo.Upsert(c.Request.Context(), actor); err != nil {
			respondError(c, err)
			return
		}
	}
	h.manager.Register(actor)

	// The generated key is returned exactly once.
	c.JSON(http.StatusCreated, actor)
}

func (h *ActorHandler) List(c *gin.Context) {
	actors := h.manager.List()
	// Never echo keys on list.
	out := make([]gin.H, 0, len(actors))
	for _, a := range actors {
		out = append(out, gin.H{
			"id":         a.ID,
			"name":       a.Name,
			"role":       a.Role,
			"rate_limit": a.Rate,
		})
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "actors": out})
}
