package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campuslab/research-adm-api/internal/models"
)

// LookupRepository manages the simple name-keyed reference tables
// (organizations, campuses, knowledge areas, organizational and
// initiative types).
type LookupRepository struct {
	db DBTX
}

// NewLookupRepository constructs a LookupRepository.
func NewLookupRepository(db DBTX) *LookupRepository {
	return &LookupRepository{db: db}
}

// FindByName fetches a lookup entity by case-insensitive name match. Ties
// are broken deterministically by creation time, then id.
func (r *LookupRepository) FindByName(ctx context.Context, kind models.LookupKind, name string) (*models.Lookup, error) {
	table := kind.Table()
	if table == "" {
		return nil, fmt.Errorf("unknown lookup kind %q", kind)
	}
	query := fmt.Sprintf(`SELECT id, name, created_at, updated_at FROM %s
        WHERE LOWER(name) = LOWER($1) ORDER BY created_at, id LIMIT 1`, table)
	var lookup models.Lookup
	if err := r.db.GetContext(ctx, &lookup, query, name); err != nil {
		return nil, err
	}
	return &lookup, nil
}

// Create inserts a lookup entity with the literal (trimmed) name.
func (r *LookupRepository) Create(ctx context.Context, kind models.LookupKind, lookup *models.Lookup) error {
	table := kind.Table()
	if table == "" {
		return fmt.Errorf("unknown lookup kind %q", kind)
	}
	if lookup.ID == "" {
		lookup.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if lookup.CreatedAt.IsZero() {
		lookup.CreatedAt = now
	}
	lookup.UpdatedAt = now
	query := fmt.Sprintf(`INSERT INTO %s (id, name, created_at, updated_at)
        VALUES (:id, :name, :created_at, :updated_at)`, table)
	if _, err := r.db.NamedExecContext(ctx, query, lookup); err != nil {
		return fmt.Errorf("create %s: %w", kind, err)
	}
	return nil
}
