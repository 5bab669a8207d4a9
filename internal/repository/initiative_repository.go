package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campuslab/research-adm-api/internal/models"
)

// InitiativeRepository manages persistence for initiatives and their
// relationship rows.
type InitiativeRepository struct {
	db DBTX
}

// NewInitiativeRepository constructs an InitiativeRepository.
func NewInitiativeRepository(db DBTX) *InitiativeRepository {
	return &InitiativeRepository{db: db}
}

const initiativeColumns = `id, name, type_id, start_date, end_date, coordinator_id, demanding_partner_id, knowledge_area_id, created_at, updated_at`

// FindByNameAndCoordinator fetches an initiative by its duplicate key:
// case-insensitive name plus coordinator identity.
func (r *InitiativeRepository) FindByNameAndCoordinator(ctx context.Context, name, coordinatorID string) (*models.Initiative, error) {
	query := fmt.Sprintf(`SELECT %s FROM initiatives
        WHERE LOWER(name) = LOWER($1) AND coordinator_id = $2`, initiativeColumns)
	var initiative models.Initiative
	if err := r.db.GetContext(ctx, &initiative, query, name, coordinatorID); err != nil {
		return nil, err
	}
	return &initiative, nil
}

// FindByName fetches an initiative by case-insensitive name match,
// breaking ties deterministically. Used when linking scholarships.
func (r *InitiativeRepository) FindByName(ctx context.Context, name string) (*models.Initiative, error) {
	query := fmt.Sprintf(`SELECT %s FROM initiatives
        WHERE LOWER(name) = LOWER($1) ORDER BY created_at, id LIMIT 1`, initiativeColumns)
	var initiative models.Initiative
	if err := r.db.GetContext(ctx, &initiative, query, name); err != nil {
		return nil, err
	}
	return &initiative, nil
}

// Create inserts a new initiative record.
func (r *InitiativeRepository) Create(ctx context.Context, initiative *models.Initiative) error {
	if initiative.ID == "" {
		initiative.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if initiative.CreatedAt.IsZero() {
		initiative.CreatedAt = now
	}
	initiative.UpdatedAt = now
	const query = `INSERT INTO initiatives (id, name, type_id, start_date, end_date, coordinator_id, demanding_partner_id, knowledge_area_id, created_at, updated_at)
        VALUES (:id, :name, :type_id, :start_date, :end_date, :coordinator_id, :demanding_partner_id, :knowledge_area_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, initiative); err != nil {
		return fmt.Errorf("create initiative: %w", err)
	}
	return nil
}

// AddMember links a person to the initiative team.
func (r *InitiativeRepository) AddMember(ctx context.Context, initiativeID, personID string) error {
	const query = `INSERT INTO initiative_members (initiative_id, person_id)
        VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, initiativeID, personID); err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

// AddStudent links a student to the initiative.
func (r *InitiativeRepository) AddStudent(ctx context.Context, initiativeID, personID string) error {
	const query = `INSERT INTO initiative_students (initiative_id, person_id)
        VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, initiativeID, personID); err != nil {
		return fmt.Errorf("add student: %w", err)
	}
	return nil
}

// AddGroup links a participating unit to the initiative.
func (r *InitiativeRepository) AddGroup(ctx context.Context, initiativeID, unitID string, external bool) error {
	const query = `INSERT INTO initiative_groups (initiative_id, unit_id, external)
        VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, initiativeID, unitID, external); err != nil {
		return fmt.Errorf("add group: %w", err)
	}
	return nil
}
