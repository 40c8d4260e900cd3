package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mollyslab/slabgate/internal/model"
)

type PostgresAuditRepo struct {
	db *sqlx.DB
}

func NewPostgresAuditRepo(db *sqlx.DB) *PostgresAuditRepo {
	repo := &PostgresAuditRepo{db: db}
	_ = repo.ensureSchema(context.Background())
	return repo
}

func (r *PostgresAuditRepo) Insert(ctx context.Context, entry *model.AuditLog) error {
	if entry == nil {
		return nil
	}
	contextJSON, _ := json.Marshal(entry.Context)
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_logs (
			id, actor_id, method, path, ip, user_agent,
			request_body, request_header, status_code, response_body,
			latency_ms, context, created_at
		) VALUES (
			$1,$2,$3,$4,$5,$6,
			$7,$8,$9,$10,
			$11,$12,$13
		)
		ON CONFLICT (id) DO NOTHING
	`, entry.ID, entry.ActorID, entry.Method, entry.Path, entry.IP, entry.UserAgent,
		entry.RequestBody, entry.RequestHeader, entry.StatusCode, entry.ResponseBody,
		entry.LatencyMs, contextJSON, entry.CreatedAt)
	return err
}

func (r *PostgresAuditRepo) List(ctx context.Context, actorID string, limit int, from, to *time.Time) ([]*model.AuditLog, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	query := `SELECT id, actor_id, method, path, ip, user_agent, request_body, request_header, status_code, response_body, latency_ms, context, created_at FROM audit_logs`
	clauses := []string{}
	args := []interface{}{}
	idx := 1

	if actorID != "" {
		clauses = append(clauses, fmt.Sprintf("actor_id = $%d", idx))
		args = append(args, actorID)
		idx++
	}
	if from != nil {
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", idx))
		args = append(args, *from)
		idx++
	}
	if to != nil {
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", idx))
		args = append(args, *to)
		idx++
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", idx)
	args = append(args, limit)

	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*model.AuditLog
	for rows.Next() {
		var row struct {
			ID            string    `db:"id"`
			ActorID       string    `db:"actor_id"`
			Method        string    `db:"method"`
			Path          string    `db:"path"`
			IP            string    `db:"ip"`
			UserAgent     string    `db:"user_agent"`
			RequestBody   string    `db:"request_body"`
			RequestHeader string    `db:"request_header"`
			StatusCode    int       `db:"status_code"`
			ResponseBody  string    `db:"response_body"`
			LatencyMs     int64     `db:"latency_ms"`
			Context       []byte    `db:"context"`
			CreatedAt     time.Time `db:"created_at"`
		}
		if err := rows.StructScan(&row); err != nil {
			return nil, err
		}
		entry := &model.AuditLog{
			ID:            row.ID,
			ActorID:       row.ActorID,
			Method:        row.Method,
			Path:          row.Path,
			IP:            row.IP,
			UserAgent:     row.UserAgent,
			RequestBody:   row.RequestBody,
			RequestHeader: row.RequestHeader,
			StatusCode:    row.StatusCode,
			ResponseBody:  row.ResponseBody,
			LatencyMs:     row.LatencyMs,
			CreatedAt:     row.CreatedAt,
		}
		if len(row.Context) > 0 {
			_ = json.Unmarshal(row.Context, &entry.Context)
		}
		results = append(results, entry)
	}
	return results, rows.Err()
}

func (r *PostgresAuditRepo) Cleanup(ctx context.Context, olderThan time.Duration) error {
	if olderThan <= 0 {
		return nil
	}
	cutoff := time.Now().UTC().Add(-olderThan)
	_, err := r.db.ExecContext(ctx, `DELETE FROM audit_logs WHERE created_at < $1`, cutoff)
	return err
}

func (r *PostgresAuditRepo) ensureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS audit_logs (
			id TEXT PRIMARY KEY,
			actor_id TEXT,
			method TEXT,
			path TEXT,
			ip TEXT,
			user_agent TEXT,
			request_body TEXT,
			request_header TEXT,
			status_code INTEGER,
			response_body TEXT,
			latency_ms BIGINT,
			context JSONB,
			created_at TIMESTAMPTZ NOT NULL
		)
	`)
	return err
}
