// Package syncruns persists the per-taxpayer history of fetch runs.
package syncruns

import (
	"context"

	"github.com/dmitrijs2005/efactura/internal/models"
)

type Repository interface {
	Create(ctx context.Context, run *models.SyncRun) error

	// ListByCIF returns the most recent runs for cif, newest first.
	ListByCIF(ctx context.Context, cif string, limit int) ([]models.SyncRun, error)
}
