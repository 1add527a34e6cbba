package syncruns

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/efactura/internal/dbx"
	"github.com/dmitrijs2005/efactura/internal/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, run *models.SyncRun) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_runs (id, cif, days, started_at, finished_at, listed, saved, skipped, failed, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.CIF, run.Days, run.StartedAt.Unix(), run.FinishedAt.Unix(),
		run.Listed, run.Saved, run.Skipped, run.Failed, run.Error)
	if err != nil {
		return fmt.Errorf("failed to save sync run for %s: %w", run.CIF, err)
	}
	return nil
}

func (r *SQLiteRepository) ListByCIF(ctx context.Context, cif string, limit int) ([]models.SyncRun, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, cif, days, started_at, finished_at, listed, saved, skipped, failed, error
		FROM sync_runs
		WHERE cif = ?
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, cif, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	defer rows.Close()

	var result []models.SyncRun
	for rows.Next() {
		var (
			run             models.SyncRun
			started, finish int64
		)
		if err := rows.Scan(&run.ID, &run.CIF, &run.Days, &started, &finish,
			&run.Listed, &run.Saved, &run.Skipped, &run.Failed, &run.Error); err != nil {
			return nil, fmt.Errorf("failed to scan sync run row: %w", err)
		}
		run.StartedAt = time.Unix(started, 0).UTC()
		run.FinishedAt = time.Unix(finish, 0).UTC()
		result = append(result, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sync run rows: %w", err)
	}
	return result, nil
}
