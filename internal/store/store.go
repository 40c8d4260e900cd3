package store

import (
	"context"

	"github.com/mollyslab/slabgate/internal/model"
)

// RouterStore holds the state owned by the mandate authority: the one
// RouterConfig record, the per-asset oracle score table, and the
// (user, asset, strategy)-keyed mandate table. Lookups return
// (nil, nil) on miss; the service layer decides what a miss means.
//
// Stores are dumb keyed storage. Per-key serialization of
// read-modify-write cycles is the job of KeyLocks in the service layer,
// never of the store itself.
type RouterStore interface {
	GetConfig(ctx context.Context) (*model.RouterConfig, error)
	PutConfig(ctx context.Context, cfg *model.RouterConfig) error

	GetScore(ctx context.Context, asset string) (*model.OracleScore, error)
	PutScore(ctx context.Context, score *model.OracleScore) error

	GetMandate(ctx context.Context, user, asset string, strategy model.Strategy) (*model.Mandate, error)
	PutMandate(ctx context.Context, m *model.Mandate) error
	DeleteMandate(ctx context.Context, user, asset string, strategy model.Strategy) error
}

// SlabStore holds the (owner, strategy)-keyed execution accounts.
type SlabStore interface {
	GetSlab(ctx context.Context, owner string, strategy model.Strategy) (*model.SlabAccount, error)
	PutSlab(ctx context.Context, s *model.SlabAccount) error
	DeleteSlab(ctx context.Context, owner string, strategy model.Strategy) error
}

// MandateKey builds the canonical key for a mandate record.
func MandateKey(user, asset string, strategy model.Strategy) string {
	return "mandate:" + user + ":" + asset + ":" + string(strategy)
}

// SlabKey builds the canonical key for a slab account.
func SlabKey(owner string, strategy model.Strategy) string {
	return "slab:" + owner + ":" + string(strategy)
}

// ScoreKey builds the canonical key for an oracle score.
func ScoreKey(asset string) string {
	return "score:" + asset
}

// ConfigKey is the key of the single router config record.
const ConfigKey = "router:config"
