package repository

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/mollyslab/slabgate/internal/middleware"
	"github.com/redis/go-redis/v9"
)

// RedisIdempotencyStore shares idempotency records across gateway
// replicas. SET NX provides the lock; a processing placeholder is
// written under it until the response is saved.
type RedisIdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisIdempotencyStore(client *redis.Client, ttl time.Duration) *RedisIdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisIdempotencyStore{
		client: client,
		ttl:    ttl,
		prefix: "idem:",
	}
}

func (s *RedisIdempotencyStore) GetOrLock(key string) (*middleware.IdempotencyRecord, bool) {
	ctx := context.Background()
	placeholder := encodeIdemRecord(middleware.IdempotencyRecord{
		CreatedAt:  time.Now().UTC(),
		Processing: true,
	})

	ok, err := s.client.SetNX(ctx, s.prefix+key, placeholder, s.ttl).Result()
	if err == nil && ok {
		return nil, false // we hold the lock
	}

	raw, err := s.client.Get(ctx, s.prefix+key).Result()
	if err != nil {
		return nil, false
	}
	rec, err := decodeIdemRecord(raw)
	if err != nil {
		return nil, false
	}
	return rec, true
}

func (s *RedisIdempotencyStore) Save(key string, status int, body []byte) {
	ctx := context.Background()
	payload := encodeIdemRecord(middleware.IdempotencyRecord{
		Status:    status,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	})
	_ = s.client.Set(ctx, s.prefix+key, payload, s.ttl).Err()
}

func (s *RedisIdempotencyStore) Unlock(key string) {
	_ = s.client.Del(context.Background(), s.prefix+key).Err()
}

func encodeIdemRecord(rec middleware.IdempotencyRecord) string {
	wire := map[string]interface{}{
		"status":     rec.Status,
		"body":       base64.StdEncoding.EncodeToString(rec.Body),
		"created_at": rec.CreatedAt.Unix(),
		"processing": rec.Processing,
	}
	data, _ := json.Marshal(wire)
	return string(data)
}

func decodeIdemRecord(raw string) (*middleware.IdempotencyRecord, error) {
	var wire struct {
		Status     int    `json:"status"`
		Body       string `json:"body"`
		CreatedAt  int64  `json:"created_at"`
		Processing bool   `json:"processing"`
	}
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, err
	}
	body, _ := base64.StdEncoding.DecodeString(wire.Body)
	return &middleware.IdempotencyRecord{
		Status:     wire.Status,
		Body:       body,
		CreatedAt:  time.Unix(wire.CreatedAt, 0).UTC(),
		Processing: wire.Processing,
	}, nil
}
