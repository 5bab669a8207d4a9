package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campuslab/research-adm-api/internal/models"
)

// UnitRepository manages persistence for organizational units and their
// leadership assignments.
type UnitRepository struct {
	db DBTX
}

// NewUnitRepository constructs a UnitRepository.
func NewUnitRepository(db DBTX) *UnitRepository {
	return &UnitRepository{db: db}
}

const unitColumns = `id, name, short_name, url, type_id, organization_id, campus_id, knowledge_area_id, created_at, updated_at`

// FindByShortName fetches a unit by its composite duplicate key
// (short_name, organization, campus), matching the short name
// case-insensitively.
func (r *UnitRepository) FindByShortName(ctx context.Context, shortName, organizationID, campusID string) (*models.OrganizationalUnit, error) {
	query := fmt.Sprintf(`SELECT %s FROM organizational_units
        WHERE LOWER(short_name) = LOWER($1) AND organization_id = $2 AND campus_id = $3`, unitColumns)
	var unit models.OrganizationalUnit
	if err := r.db.GetContext(ctx, &unit, query, shortName, organizationID, campusID); err != nil {
		return nil, err
	}
	return &unit, nil
}

// FindByName fetches a unit by case-insensitive full-name match. Ties are
// broken deterministically by creation time, then id.
func (r *UnitRepository) FindByName(ctx context.Context, name string) (*models.OrganizationalUnit, error) {
	query := fmt.Sprintf(`SELECT %s FROM organizational_units
        WHERE LOWER(name) = LOWER($1) ORDER BY created_at, id LIMIT 1`, unitColumns)
	var unit models.OrganizationalUnit
	if err := r.db.GetContext(ctx, &unit, query, name); err != nil {
		return nil, err
	}
	return &unit, nil
}

// Create inserts a new organizational unit.
func (r *UnitRepository) Create(ctx context.Context, unit *models.OrganizationalUnit) error {
	if unit.ID == "" {
		unit.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if unit.CreatedAt.IsZero() {
		unit.CreatedAt = now
	}
	unit.UpdatedAt = now
	const query = `INSERT INTO organizational_units (id, name, short_name, url, type_id, organization_id, campus_id, knowledge_area_id, created_at, updated_at)
        VALUES (:id, :name, :short_name, :url, :type_id, :organization_id, :campus_id, :knowledge_area_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, unit); err != nil {
		return fmt.Errorf("create unit: %w", err)
	}
	return nil
}

// AddLeadership records a leadership assignment for a unit.
func (r *UnitRepository) AddLeadership(ctx context.Context, leadership *models.Leadership) error {
	if leadership.ID == "" {
		leadership.ID = uuid.NewString()
	}
	if leadership.CreatedAt.IsZero() {
		leadership.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO unit_leaderships (id, unit_id, person_id, start_date, end_date, is_active, created_at)
        VALUES (:id, :unit_id, :person_id, :start_date, :end_date, :is_active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, leadership); err != nil {
		return fmt.Errorf("add leadership: %w", err)
	}
	return nil
}
