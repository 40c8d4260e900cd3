package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mollyslab/slabgate/internal/model"
)

// PostgresSlabStore is the durable store.SlabStore.
type PostgresSlabStore struct {
	db *sqlx.DB
}

func NewPostgresSlabStore(db *sqlx.DB) *PostgresSlabStore {
	repo := &PostgresSlabStore{db: db}
	_ = repo.ensureSchema(context.Background())
	return repo
}

func (r *PostgresSlabStore) GetSlab(ctx context.Context, owner string, strategy model.Strategy) (*model.SlabAccount, error) {
	var row struct {
		Owner          string       `db:"owner"`
		Strategy       string       `db:"strategy"`
		PerformancePnl int64        `db:"performance_pnl"`
		LastSignalTs   sql.NullTime `db:"last_signal_ts"`
	}
	err := r.db.GetContext(ctx, &row, `
		SELECT owner, strategy, performance_pnl, last_signal_ts
		FROM slab_accounts WHERE owner = $1 AND strategy = $2
	`, owner, string(strategy))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	slab := &model.SlabAccount{
		Owner:          row.Owner,
		Strategy:       model.Strategy(row.Strategy),
		Initialized:    true,
		PerformancePnl: row.PerformancePnl,
	}
	if row.LastSignalTs.Valid {
		slab.LastSignalTs = row.LastSignalTs.Time
	}
	return slab, nil
}

func (r *PostgresSlabStore) PutSlab(ctx context.Context, s *model.SlabAccount) error {
	var ts *time.Time
	if !s.LastSignalTs.IsZero() {
		ts = &s.LastSignalTs
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO slab_accounts (owner, strategy, performance_pnl, last_signal_ts)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (owner, strategy)
		DO UPDATE SET performance_pnl = $3, last_signal_ts = $4
	`, s.Owner, string(s.Strategy), s.PerformancePnl, ts)
	return err
}

func (r *PostgresSlabStore) DeleteSlab(ctx context.Context, owner string, strategy model.Strategy) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM slab_accounts WHERE owner = $1 AND strategy = $2`,
		owner, string(strategy))
	return err
}

func (r *PostgresSlabStore) ensureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS slab_accounts (
			owner TEXT NOT NULL,
			strategy TEXT NOT NULL,
			performance_pnl BIGINT NOT NULL DEFAULT 0,
			last_signal_ts TIMESTAMPTZ,
			PRIMARY KEY (owner, strategy)
		)
	`)
	return err
}
