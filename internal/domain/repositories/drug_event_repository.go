package repositories

import (
	"context"

	"github.com/zatekoja/drugevents/internal/domain/entities"
)

// DrugEventRepository persists transformed rows
type DrugEventRepository interface {
	// Replace drops and recreates the table, then inserts rows in one transaction.
	Replace(ctx context.Context, rows []entities.EnrichedRow) error
	Count(ctx context.Context) (int, error)
	List(ctx context.Context) ([]entities.EnrichedRow, error)
}
