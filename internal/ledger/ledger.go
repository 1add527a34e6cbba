// Package ledger keeps the local bookkeeping of a fetch: download attempts
// (for the per-message daily quota) and the history of taxpayer runs.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/efactura/internal/dbx"
	"github.com/dmitrijs2005/efactura/internal/models"
	"github.com/dmitrijs2005/efactura/internal/repositories/attempts"
	"github.com/dmitrijs2005/efactura/internal/repositories/syncruns"
	"github.com/google/uuid"
)

// DefaultDailyQuota is how many times ANAF lets one message be downloaded
// per day.
const DefaultDailyQuota = 10

// attemptRetention bounds how long attempts are kept; only today's count.
const attemptRetention = 48 * time.Hour

type Ledger struct {
	db    *sql.DB
	quota int
	now   func() time.Time
}

type Option func(*Ledger)

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// New returns a Ledger over a migrated database. A non-positive quota
// disables the quota check.
func New(db *sql.DB, quota int, opts ...Option) *Ledger {
	l := &Ledger{db: db, quota: quota, now: time.Now}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *Ledger) startOfDay() time.Time {
	now := l.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// Allow reports whether messageID may be downloaded again today.
func (l *Ledger) Allow(ctx context.Context, messageID string) (bool, error) {
	if l.quota <= 0 {
		return true, nil
	}
	n, err := attempts.NewSQLiteRepository(l.db).CountSince(ctx, messageID, l.startOfDay())
	if err != nil {
		return false, err
	}
	return n < l.quota, nil
}

// RecordAttempt stores one download call for messageID.
func (l *Ledger) RecordAttempt(ctx context.Context, cif, messageID, outcome string) error {
	return attempts.NewSQLiteRepository(l.db).Create(ctx, &models.DownloadAttempt{
		ID:          uuid.NewString(),
		CIF:         cif,
		MessageID:   messageID,
		Outcome:     outcome,
		AttemptedAt: l.now(),
	})
}

// FinishRun stores run and prunes stale attempts in one transaction.
func (l *Ledger) FinishRun(ctx context.Context, run *models.SyncRun) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = l.now()
	}

	return dbx.WithTx(ctx, l.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := syncruns.NewSQLiteRepository(tx).Create(ctx, run); err != nil {
			return err
		}
		if _, err := attempts.NewSQLiteRepository(tx).DeleteBefore(ctx, l.now().Add(-attemptRetention)); err != nil {
			return fmt.Errorf("finish run: %w", err)
		}
		return nil
	})
}

// History returns the latest runs for cif, newest first.
func (l *Ledger) History(ctx context.Context, cif string, limit int) ([]models.SyncRun, error) {
	if limit <= 0 {
		limit = 20
	}
	return syncruns.NewSQLiteRepository(l.db).ListByCIF(ctx, cif, limit)
}
