package service

import (
	"context"
	"sync"

	"github.com/mollyslab/slabgate/internal/config"
	"github.com/mollyslab/slabgate/internal/model"
	"golang.org/x/time/rate"
)

// ActorManager resolves gateway keys to actors and hands out their
// rate limiters. Config-file actors load first; a repo (when wired)
// backfills keys the config doesn't know.
type ActorManager struct {
	mu       sync.RWMutex
	actors   map[string]*model.Actor // Key: gateway ApiKey
	byID     map[string]*model.Actor
	limiters map[string]*rate.Limiter // Key: ActorID
	repo     ActorRepo
}

type ActorRepo interface {
	GetByApiKey(ctx context.Context, apiKey string) (*model.Actor, error)
}

func NewActorManager(cfg *config.Config, repo ActorRepo) *ActorManager {
	am := &ActorManager{
		actors:   make(map[string]*model.Actor),
		byID:     make(map[string]*model.Actor),
		limiters: make(map[string]*rate.Limiter),
		repo:     repo,
	}

	for _, ac := range cfg.Actors {
		actor := &model.Actor{
			ID:     ac.ID,
			Name:   ac.Name,
			ApiKey: ac.APIKey,
			Role:   model.Role(ac.Role),
			Rate:   model.RateLimitConfig{QPS: ac.QPS, Burst: ac.Burst},
		}
		am.Register(actor)
	}

	return am
}

func (m *ActorManager) Register(actor *model.Actor) {
	if actor.Rate.QPS <= 0 {
		actor.Rate.QPS = 10
	}
	if actor.Rate.Burst <= 0 {
		actor.Rate.Burst = 20
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actors[actor.ApiKey] = actor
	m.byID[actor.ID] = actor
	m.limiters[actor.ID] = rate.NewLimiter(rate.Limit(actor.Rate.QPS), actor.Rate.Burst)
}

// GetByApiKey resolves an actor, falling back to the repo for keys not
// loaded from config. Repo hits are cached.
func (m *ActorManager) GetByApiKey(ctx context.Context, apiKey string) (*model.Actor, bool) {
	m.mu.RLock()
	actor, ok := m.actors[apiKey]
	m.mu.RUnlock()
	if ok {
		return actor, true
	}

	if m.repo == nil {
		return nil, false
	}
	fetched, err := m.repo.GetByApiKey(ctx, apiKey)
	if err != nil || fetched == nil {
		return nil, false
	}
	m.Register(fetched)
	return fetched, true
}

func (m *ActorManager) GetByID(id string) (*model.Actor, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	actor, ok := m.byID[id]
	return actor, ok
}

// GetLimiter returns the actor's token bucket, or nil for unknown ids.
func (m *ActorManager) GetLimiter(actorID string) *rate.Limiter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.limiters[actorID]
}

func (m *ActorManager) List() []*model.Actor {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Actor, 0, len(m.byID))
	for _, a := range m.byID {
		out = append(out, a)
	}
	return out
}
