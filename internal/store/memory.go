package store

import (
	"context"
	"sync"

	"github.com/mollyslab/slabgate/internal/model"
)

// MemoryStore is the default in-process store. Values are copied on
// the way in and out so callers never share a record with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	config   *model.RouterConfig
	scores   map[string]model.OracleScore
	mandates map[string]model.Mandate
	slabs    map[string]model.SlabAccount
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		scores:   make(map[string]model.OracleScore),
		mandates: make(map[string]model.Mandate),
		slabs:    make(map[string]model.SlabAccount),
	}
}

func (s *MemoryStore) GetConfig(ctx context.Context) (*model.RouterConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.config == nil {
		return nil, nil
	}
	cfg := *s.config
	return &cfg, nil
}

func (s *MemoryStore) PutConfig(ctx context.Context, cfg *model.RouterConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *cfg
	s.config = &c
	return nil
}

func (s *MemoryStore) GetScore(ctx context.Context, asset string) (*model.OracleScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc, ok := s.scores[ScoreKey(asset)]
	if !ok {
		return nil, nil
	}
	return &sc, nil
}

func (s *MemoryStore) PutScore(ctx context.Context, score *model.OracleScore) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[ScoreKey(score.Asset)] = *score
	return nil
}

func (s *MemoryStore) GetMandate(ctx context.Context, user, asset string, strategy model.Strategy) (*model.Mandate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.mandates[MandateKey(user, asset, strategy)]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (s *MemoryStore) PutMandate(ctx context.Context, m *model.Mandate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mandates[MandateKey(m.User, m.Asset, m.Strategy)] = *m
	return nil
}

func (s *MemoryStore) DeleteMandate(ctx context.Context, user, asset string, strategy model.Strategy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.mandates, MandateKey(user, asset, strategy))
	return nil
}

func (s *MemoryStore) GetSlab(ctx context.Context, owner string, strategy model.Strategy) (*model.SlabAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl, ok := s.slabs[SlabKey(owner, strategy)]
	if !ok {
		return nil, nil
	}
	return &sl, nil
}

func (s *MemoryStore) PutSlab(ctx context.Context, sl *model.SlabAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slabs[SlabKey(sl.Owner, sl.Strategy)] = *sl
	return nil
}

func (s *MemoryStore) DeleteSlab(ctx context.Context, owner string, strategy model.Strategy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slabs, SlabKey(owner, strategy))
	return nil
}
