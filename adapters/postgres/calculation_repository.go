package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"gopower/internal/errors"
	"gopower/models"
	"gopower/ports"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// CalculationRepositoryImpl implements CalculationRepository for PostgreSQL
type CalculationRepositoryImpl struct {
	db *sqlx.DB
}

// NewCalculationRepository creates a new PostgreSQL calculation repository
func NewCalculationRepository(db *sqlx.DB) ports.CalculationRepository {
	return &CalculationRepositoryImpl{db: db}
}

// Save inserts a calculation record. Saving an existing ID again is a no-op.
func (r *CalculationRepositoryImpl) Save(ctx context.Context, record *models.CalculationRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO power_calculations
			(id, kind, reference_proportion, alternative_proportion, power_level, z_alpha, sample_size, required, labels, created_at)
		VALUES
			(:id, :kind, :reference_proportion, :alternative_proportion, :power_level, :z_alpha, :sample_size, :required, :labels, :created_at)
		ON CONFLICT (id) DO NOTHING
	`, record)
	if err != nil {
		return errors.DatabaseError("failed to insert calculation", err)
	}
	return nil
}

// Get retrieves a calculation by its ID
func (r *CalculationRepositoryImpl) Get(ctx context.Context, id uuid.UUID) (*models.CalculationRecord, error) {
	var record models.CalculationRecord
	err := r.db.GetContext(ctx, &record, `
		SELECT id, kind, reference_proportion, alternative_proportion, power_level, z_alpha, sample_size, required, labels, created_at
		FROM power_calculations
		WHERE id = $1
	`, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("calculation")
	}
	if err != nil {
		return nil, errors.DatabaseError("failed to load calculation", err)
	}
	return &record, nil
}

// List returns recent calculations, newest first
func (r *CalculationRepositoryImpl) List(ctx context.Context, limit int) ([]*models.CalculationRecord, error) {
	query := `
		SELECT id, kind, reference_proportion, alternative_proportion, power_level, z_alpha, sample_size, required, labels, created_at
		FROM power_calculations
		ORDER BY created_at DESC
	`

	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	records := []*models.CalculationRecord{}
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, errors.DatabaseError("failed to list calculations", err)
	}
	return records, nil
}
