package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/mollyslab/slabgate/internal/config"
	"github.com/mollyslab/slabgate/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var ErrActorNotFound = errors.New("actor not found")

// GormActorRepo persists the actor registry. Config-file actors are
// upserted on startup so the table always reflects the running config.
type GormActorRepo struct {
	db *gorm.DB
}

func NewGormActorRepo(cfg *config.Config) (*GormActorRepo, error) {
	if cfg == nil || cfg.Database.DSN == "" {
		return nil, fmt.Errorf("database dsn is empty")
	}

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	if err := db.AutoMigrate(&model.Actor{}); err != nil {
		return nil, fmt.Errorf("failed to migrate actors table: %w", err)
	}

	return &GormActorRepo{db: db}, nil
}

func (r *GormActorRepo) GetByApiKey(ctx context.Context, apiKey string) (*model.Actor, error) {
	var actor model.Actor
	err := r.db.WithContext(ctx).Where("api_key = ?", apiKey).First(&actor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrActorNotFound
	}
	if err != nil {
		return nil, err
	}
	return &actor, nil
}

func (r *GormActorRepo) Upsert(ctx context.Context, actor *model.Actor) error {
	return r.db.WithContext(ctx).Save(actor).Error
}

func (r *GormActorRepo) List(ctx context.Context) ([]*model.Actor, error) {
	var actors []*model.Actor
	if err := r.db.WithContext(ctx).Order("id").Find(&actors).Error; err != nil {
		return nil, err
	}
	return actors, nil
}
