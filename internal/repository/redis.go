package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mollyslab/slabgate/internal/config"
	"github.com/mollyslab/slabgate/internal/model"
	"github.com/mollyslab/slabgate/internal/store"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "slabgate:"

// RedisStore implements store.RouterStore and store.SlabStore on a
// shared redis instance, one JSON value per keyed record.
type RedisStore struct {
	Client *redis.Client
}

func NewRedisStore(cfg *config.Config) (*RedisStore, error) {
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis address is empty")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStore{Client: rdb}, nil
}

func (r *RedisStore) GetConfig(ctx context.Context) (*model.RouterConfig, error) {
	return getJSON[model.RouterConfig](ctx, r.Client, redisKeyPrefix+store.ConfigKey)
}

func (r *RedisStore) PutConfig(ctx context.Context, cfg *model.RouterConfig) error {
	return putJSON(ctx, r.Client, redisKeyPrefix+store.ConfigKey, cfg)
}

func (r *RedisStore) GetScore(ctx context.Context, asset string) (*model.OracleScore, error) {
	return getJSON[model.OracleScore](ctx, r.Client, redisKeyPrefix+store.ScoreKey(asset))
}

func (r *RedisStore) PutScore(ctx context.Context, score *model.OracleScore) error {
	return putJSON(ctx, r.Client, redisKeyPrefix+store.ScoreKey(score.Asset), score)
}

func (r *RedisStore) GetMandate(ctx context.Context, user, asset string, strategy model.Strategy) (*model.Mandate, error) {
	return getJSON[model.Mandate](ctx, r.Client, redisKeyPrefix+store.MandateKey(user, asset, strategy))
}

func (r *RedisStore) PutMandate(ctx context.Context, m *model.Mandate) error {
	return putJSON(ctx, r.Client, redisKeyPrefix+store.MandateKey(m.User, m.Asset, m.Strategy), m)
}

func (r *RedisStore) DeleteMandate(ctx context.Context, user, asset string, strategy model.Strategy) error {
	return r.Client.Del(ctx, redisKeyPrefix+store.MandateKey(user, asset, strategy)).Err()
}

func (r *RedisStore) GetSlab(ctx context.Context, owner string, strategy model.Strategy) (*model.SlabAccount, error) {
	return getJSON[model.SlabAccount](ctx, r.Client, redisKeyPrefix+store.SlabKey(owner, strategy))
}

func (r *RedisStore) PutSlab(ctx context.Context, s *model.SlabAccount) error {
	return putJSON(ctx, r.Client, redisKeyPrefix+store.SlabKey(s.Owner, s.Strategy), s)
}

func (r *RedisStore) DeleteSlab(ctx context.Context, owner string, strategy model.Strategy) error {
	return r.Client.Del(ctx, redisKeyPrefix+store.SlabKey(owner, strategy)).Err()
}

func getJSON[T any](ctx context.Context, client *redis.Client, key string) (*T, error) {
	raw, err := client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("corrupt record at %s: %w", key, err)
	}
	return &out, nil
}

func putJSON(ctx context.Context, client *redis.Client, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, raw, 0).Err()
}
