package attempts

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

func (r *SQLiteRepository) Create(ctx context.Context, a *models.DownloadAttempt) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO download_attempts (id, cif, message_id, outcome, attempted_at)
		VALUES (?, ?, ?, ?, ?)
	`, a.ID, a.CIF, a.MessageID, a.Outcome, a.AttemptedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to record attempt for %s: %w", a.MessageID, err)
	}
	return nil
}

func (r *SQLiteRepository) CountSince(ctx context.Context, messageID string, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM download_attempts WHERE message_id = ? AND attempted_at >= ?
	`, messageID, since.Unix()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count attempts for %s: %w", messageID, err)
	}
	return n, nil
}

func (r *SQLiteRepository) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM download_attempts WHERE attempted_at < ?`, before.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to prune attempts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to prune attempts: %w", err)
	}
	return n, nil
}
