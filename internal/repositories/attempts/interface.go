// Package attempts persists download attempts so the per-message daily
// download quota survives restarts.
package attempts

import (
	"context"
	"time"

	"github.com/dmitrijs2005/efactura/internal/models"
)

type Repository interface {
	// Create stores one attempt.
	Create(ctx context.Context, a *models.DownloadAttempt) error

	// CountSince returns the attempts for messageID at or after since.
	CountSince(ctx context.Context, messageID string, since time.Time) (int, error)

	// DeleteBefore removes attempts older than before and returns how many.
	DeleteBefore(ctx context.Context, before time.Time) (int64, error)
}
