package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mollyslab/slabgate/internal/model"
)

// PostgresRouterStore is the durable store.RouterStore: one row for
// the router config, one row per oracle score, one row per mandate.
type PostgresRouterStore struct {
	db *sqlx.DB
}

func NewPostgresRouterStore(db *sqlx.DB) *PostgresRouterStore {
	repo := &PostgresRouterStore{db: db}
	_ = repo.ensureSchema(context.Background())
	return repo
}

func (r *PostgresRouterStore) GetConfig(ctx context.Context) (*model.RouterConfig, error) {
	var row struct {
		Admin            string `db:"admin"`
		OracleAuthority  string `db:"oracle_authority"`
		RiskThresholdBps int    `db:"risk_threshold_bps"`
		Paused           bool   `db:"paused"`
	}
	err := r.db.GetContext(ctx, &row, `SELECT admin, oracle_authority, risk_threshold_bps, paused FROM router_config WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &model.RouterConfig{
		Admin:            row.Admin,
		OracleAuthority:  row.OracleAuthority,
		RiskThresholdBps: row.RiskThresholdBps,
		Paused:           row.Paused,
	}, nil
}

func (r *PostgresRouterStore) PutConfig(ctx context.Context, cfg *model.RouterConfig) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO router_config (id, admin, oracle_authority, risk_threshold_bps, paused)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id)
		DO UPDATE SET admin = $1, oracle_authority = $2, risk_threshold_bps = $3, paused = $4
	`, cfg.Admin, cfg.OracleAuthority, cfg.RiskThresholdBps, cfg.Paused)
	return err
}

func (r *PostgresRouterStore) GetScore(ctx context.Context, asset string) (*model.OracleScore, error) {
	var row struct {
		Asset     string    `db:"asset"`
		ScoreBps  int       `db:"score_bps"`
		UpdatedAt time.Time `db:"updated_at"`
	}
	err := r.db.GetContext(ctx, &row, `SELECT asset, score_bps, updated_at FROM oracle_scores WHERE asset = $1`, asset)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &model.OracleScore{Asset: row.Asset, ScoreBps: row.ScoreBps, UpdatedAt: row.UpdatedAt}, nil
}

func (r *PostgresRouterStore) PutScore(ctx context.Context, score *model.OracleScore) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO oracle_scores (asset, score_bps, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (asset)
		DO UPDATE SET score_bps = $2, updated_at = $3
	`, score.Asset, score.ScoreBps, score.UpdatedAt)
	return err
}

func (r *PostgresRouterStore) GetMandate(ctx context.Context, user, asset string, strategy model.Strategy) (*model.Mandate, error) {
	var row struct {
		User               string    `db:"user_id"`
		Asset              string    `db:"asset"`
		Strategy           string    `db:"strategy"`
		ExpiresAt          time.Time `db:"expires_at"`
		Exists             bool      `db:"record_exists"`
		MintedThresholdBps int       `db:"minted_threshold_bps"`
	}
	err := r.db.GetContext(ctx, &row, `
		SELECT user_id, asset, strategy, expires_at, record_exists, minted_threshold_bps
		FROM mandates WHERE user_id = $1 AND asset = $2 AND strategy = $3
	`, user, asset, string(strategy))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &model.Mandate{
		User:               row.User,
		Asset:              row.Asset,
		Strategy:           model.Strategy(row.Strategy),
		ExpiresAt:          row.ExpiresAt,
		Exists:             row.Exists,
		MintedThresholdBps: row.MintedThresholdBps,
	}, nil
}

func (r *PostgresRouterStore) PutMandate(ctx context.Context, m *model.Mandate) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO mandates (user_id, asset, strategy, expires_at, record_exists, minted_threshold_bps)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id, asset, strategy)
		DO UPDATE SET expires_at = $4, record_exists = $5, minted_threshold_bps = $6
	`, m.User, m.Asset, string(m.Strategy), m.ExpiresAt, m.Exists, m.MintedThresholdBps)
	return err
}

func (r *PostgresRouterStore) DeleteMandate(ctx context.Context, user, asset string, strategy model.Strategy) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM mandates WHERE user_id = $1 AND asset = $2 AND strategy = $3`,
		user, asset, string(strategy))
	return err
}

func (r *PostgresRouterStore) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS router_config (
			id SMALLINT PRIMARY KEY,
			admin TEXT NOT NULL,
			oracle_authority TEXT NOT NULL,
			risk_threshold_bps INTEGER NOT NULL,
			paused BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS oracle_scores (
			asset TEXT PRIMARY KEY,
			score_bps INTEGER NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS mandates (
			user_id TEXT NOT NULL,
			asset TEXT NOT NULL,
			strategy TEXT NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL,
			record_exists BOOLEAN NOT NULL DEFAULT TRUE,
			minted_threshold_bps INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, asset, strategy)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
