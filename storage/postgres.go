package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"newsdigest/internal/domain"
)

const defaultRunsLimit = 20

var _ Storage = (*PostgresDB)(nil)

type PostgresDB struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func NewPostgresDB(pool *pgxpool.Pool, log *slog.Logger) *PostgresDB {
	log = log.With(slog.String("component", "storage"))
	log.Info("Initializing Postgres storage")
	return &PostgresDB{pool: pool, log: log}
}

func (db *PostgresDB) Close() {
	db.log.Info("Closing database connection pool")
	db.pool.Close()
}

// ReadArtifact возвращает текущий артефакт закладок.
// Если сборщик еще ничего не записал, ошибка оборачивает domain.ErrNoBookmarkContext.
func (db *PostgresDB) ReadArtifact(ctx context.Context) ([]byte, error) {
	const op = "storage.postgres.ReadArtifact"
	var doc []byte
	err := db.pool.QueryRow(ctx, `SELECT document FROM bookmark_context WHERE id = 1`).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, domain.ErrNoBookmarkContext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}
	return doc, nil
}

// WriteArtifact заменяет артефакт закладок. В таблице всегда одна строка.
func (db *PostgresDB) WriteArtifact(ctx context.Context, doc []byte) error {
	const op = "storage.postgres.WriteArtifact"
	query := `
	INSERT INTO bookmark_context (id, document, synced_at)
	VALUES (1, $1, now())
	ON CONFLICT (id) DO UPDATE
	SET document = EXCLUDED.document, synced_at = EXCLUDED.synced_at;
	`
	if _, err := db.pool.Exec(ctx, query, doc); err != nil {
		db.log.Error("Failed to write bookmark context", slog.String("op", op), slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SaveRun записывает итог запуска в журнал.
func (db *PostgresDB) SaveRun(ctx context.Context, run domain.RunResult) error {
	const op = "storage.postgres.SaveRun"
	query := `
	INSERT INTO digest_runs (run_id, status, reason, delivery_id, item_count, finished_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (run_id) DO NOTHING;
	`
	_, err := db.pool.Exec(ctx, query,
		run.RunID,
		string(run.Status),
		run.Reason,
		run.DeliveryID,
		run.ItemCount,
		run.FinishedAt,
	)
	if err != nil {
		db.log.Error("Failed to save run", slog.String("op", op), slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RecentRuns возвращает последние n запусков, новые первыми.
func (db *PostgresDB) RecentRuns(ctx context.Context, n int) ([]domain.RunResult, error) {
	limit := n
	if limit <= 0 {
		limit = defaultRunsLimit
	}
	const op = "storage.postgres.RecentRuns"
	log := db.log.With(slog.String("op", op), slog.Int("limit", limit))
	query := `
	SELECT run_id, status, reason, delivery_id, item_count, finished_at
	FROM digest_runs
	ORDER BY finished_at DESC
	LIMIT $1;
	`
	rows, err := db.pool.Query(ctx, query, limit)
	if err != nil {
		log.Error("Database query failed", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}
	defer rows.Close()
	runs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.RunResult, error) {
		var run domain.RunResult
		var status string
		err := row.Scan(
			&run.RunID,
			&status,
			&run.Reason,
			&run.DeliveryID,
			&run.ItemCount,
			&run.FinishedAt,
		)
		run.Status = domain.RunStatus(status)
		return run, err
	})
	if err != nil {
		log.Error("Failed to collect rows", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to scan row: %w", op, err)
	}
	log.Debug("Retrieved digest runs", slog.Int("count", len(runs)))
	return runs, nil
}
