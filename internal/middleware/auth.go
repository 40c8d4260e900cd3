package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mollyslab/slabgate/internal/config"
	"github.com/mollyslab/slabgate/internal/model"
	"github.com/mollyslab/slabgate/internal/service"
)

const (
	HeaderGatewayKey = "X-Gateway-Key"
	ContextActorKey  = "actor"
)

// AuthMiddleware resolves the gateway key to an actor and stores it in
// the request context. With require_api_key disabled a missing key is
// rejected anyway; there is no anonymous default for a system that
// moves value.
func AuthMiddleware(cfg *config.Config, am *service.ActorManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader(HeaderGatewayKey)
		if apiKey == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing gateway key"})
			c.Abort()
			return
		}

		actor, ok := am.GetByApiKey(c.Request.Context(), apiKey)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid gateway key"})
			c.Abort()
			return
		}

		c.Set(ContextActorKey, actor)
		c.Next()
	}
}

// RequireRole gates a route group on the actor's role. Admins pass
// everything.
func RequireRole(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actorVal, exists := c.Get(ContextActorKey)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		actor := actorVal.(*model.Actor)
		if actor.Role != role && actor.Role != model.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// Actor fetches the resolved actor from the context, nil when auth did
// not run on this route.
func Actor(c *gin.Context) *model.Actor {
	if val, exists := c.Get(ContextActorKey); exists {
		if actor, ok := val.(*model.Actor); ok {
			return actor
		}
	}
	return nil
}
