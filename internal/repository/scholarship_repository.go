package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campuslab/research-adm-api/internal/models"
)

// ScholarshipRepository manages persistence for scholarships.
type ScholarshipRepository struct {
	db DBTX
}

// NewScholarshipRepository constructs a ScholarshipRepository.
func NewScholarshipRepository(db DBTX) *ScholarshipRepository {
	return &ScholarshipRepository{db: db}
}

// Exists checks the scholarship duplicate key: case-insensitive title,
// student and start date.
func (r *ScholarshipRepository) Exists(ctx context.Context, title, studentID string, startDate time.Time) (bool, error) {
	const query = `SELECT 1 FROM scholarships
        WHERE LOWER(title) = LOWER($1) AND student_id = $2 AND start_date = $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, title, studentID, startDate); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check scholarship: %w", err)
	}
	return true, nil
}

// Create inserts a new scholarship record.
func (r *ScholarshipRepository) Create(ctx context.Context, scholarship *models.Scholarship) error {
	if scholarship.ID == "" {
		scholarship.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if scholarship.CreatedAt.IsZero() {
		scholarship.CreatedAt = now
	}
	scholarship.UpdatedAt = now
	const query = `INSERT INTO scholarships (id, title, campus_id, start_date, end_date, supervisor_id, student_id, value, sponsor_id, initiative_id, created_at, updated_at)
        VALUES (:id, :title, :campus_id, :start_date, :end_date, :supervisor_id, :student_id, :value, :sponsor_id, :initiative_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, scholarship); err != nil {
		return fmt.Errorf("create scholarship: %w", err)
	}
	return nil
}
