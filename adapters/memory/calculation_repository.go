package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"gopower/internal/errors"
	"gopower/models"
	"gopower/ports"

	"github.com/google/uuid"
)

// CalculationRepository keeps calculations in process memory. It backs the
// service when no DATABASE_URL is configured.
type CalculationRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]models.CalculationRecord
	now     func() time.Time
}

// NewCalculationRepository creates an empty in-memory repository
func NewCalculationRepository() *CalculationRepository {
	return &CalculationRepository{
		records: make(map[uuid.UUID]models.CalculationRecord),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

var _ ports.CalculationRepository = (*CalculationRepository)(nil)

func (r *CalculationRepository) Save(ctx context.Context, record *models.CalculationRecord) error {
	if err := ctx.Err(); err != nil {
		return errors.Canceled(err)
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = r.now()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[record.ID]; exists {
		return nil
	}
	r.records[record.ID] = copyRecord(record)
	return nil
}

func (r *CalculationRepository) Get(ctx context.Context, id uuid.UUID) (*models.CalculationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[id]
	if !ok {
		return nil, errors.NotFound("calculation")
	}
	out := copyRecord(&record)
	return &out, nil
}

func (r *CalculationRepository) List(ctx context.Context, limit int) ([]*models.CalculationRecord, error) {
	r.mu.RLock()
	records := make([]*models.CalculationRecord, 0, len(r.records))
	for _, record := range r.records {
		out := copyRecord(&record)
		records = append(records, &out)
	}
	r.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID.String() < records[j].ID.String()
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func copyRecord(record *models.CalculationRecord) models.CalculationRecord {
	out := *record
	if record.Labels != nil {
		out.Labels = make(models.Labels, len(record.Labels))
		for k, v := range record.Labels {
			out.Labels[k] = v
		}
	}
	return out
}
