package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mollyslab/slabgate/internal/model"
	"github.com/redis/go-redis/v9"
)

// RedisAuditRepo keeps a capped list of recent audit entries for
// deployments without postgres.
type RedisAuditRepo struct {
	client  *redis.Client
	listKey string
	listMax int
}

func NewRedisAuditRepo(client *redis.Client, listKey string, listMax int) *RedisAuditRepo {
	if listKey == "" {
		listKey = "audit_logs"
	}
	if listMax <= 0 {
		listMax = 10000
	}
	return &RedisAuditRepo{
		client:  client,
		listKey: listKey,
		listMax: listMax,
	}
}

func (r *RedisAuditRepo) Insert(ctx context.Context, entry *model.AuditLog) error {
	if entry == nil {
		return nil
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	pipe := r.client.Pipeline()
	pipe.LPush(ctx, r.listKey, payload)
	pipe.LTrim(ctx, r.listKey, 0, int64(r.listMax-1))
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisAuditRepo) List(ctx context.Context, actorID string, limit int, from, to *time.Time) ([]*model.AuditLog, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	fetch := limit * 5
	if fetch < 100 {
		fetch = 100
	}
	if fetch > r.listMax {
		fetch = r.listMax
	}

	items, err := r.client.LRange(ctx, r.listKey, 0, int64(fetch-1)).Result()
	if err != nil {
		return nil, err
	}

	results := make([]*model.AuditLog, 0, limit)
	for _, raw := range items {
		var entry model.AuditLog
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		if actorID != "" && entry.ActorID != actorID {
			continue
		}
		if from != nil && entry.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && entry.CreatedAt.After(*to) {
			continue
		}
		results = append(results, &entry)
		if len(results) >= limit {
			break
		}
	}
	return results, nil
}
