package ports

import (
	"context"

	"gopower/models"

	"github.com/google/uuid"
)

// CalculationRepository stores the history of calculations
type CalculationRepository interface {
	// Save persists a record, assigning ID and CreatedAt when unset
	Save(ctx context.Context, record *models.CalculationRecord) error

	// Get returns a record by ID or a NOT_FOUND error
	Get(ctx context.Context, id uuid.UUID) (*models.CalculationRecord, error)

	// List returns the most recent records first; limit <= 0 means no limit
	List(ctx context.Context, limit int) ([]*models.CalculationRecord, error)
}
