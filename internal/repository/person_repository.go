package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/campuslab/research-adm-api/internal/models"
)

// PersonRepository manages persistence for people referenced by imports.
type PersonRepository struct {
	db DBTX
}

// NewPersonRepository constructs a PersonRepository.
func NewPersonRepository(db DBTX) *PersonRepository {
	return &PersonRepository{db: db}
}

// FindByEmail fetches a person by case-insensitive email match.
func (r *PersonRepository) FindByEmail(ctx context.Context, email string) (*models.Person, error) {
	const query = `SELECT id, full_name, email, created_at, updated_at FROM people WHERE LOWER(email) = LOWER($1)`
	var person models.Person
	if err := r.db.GetContext(ctx, &person, query, email); err != nil {
		return nil, err
	}
	return &person, nil
}

// FindByName fetches a person by case-insensitive name match. Ties are
// broken deterministically by creation time, then id.
func (r *PersonRepository) FindByName(ctx context.Context, fullName string) (*models.Person, error) {
	const query = `SELECT id, full_name, email, created_at, updated_at FROM people
        WHERE LOWER(full_name) = LOWER($1) ORDER BY created_at, id LIMIT 1`
	var person models.Person
	if err := r.db.GetContext(ctx, &person, query, fullName); err != nil {
		return nil, err
	}
	return &person, nil
}

// EmailExists checks whether any person already holds the email.
func (r *PersonRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	const query = `SELECT 1 FROM people WHERE LOWER(email) = LOWER($1) LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check email: %w", err)
	}
	return true, nil
}

// Create inserts a new person record.
func (r *PersonRepository) Create(ctx context.Context, person *models.Person) error {
	if person.ID == "" {
		person.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if person.CreatedAt.IsZero() {
		person.CreatedAt = now
	}
	person.UpdatedAt = now
	const query = `INSERT INTO people (id, full_name, email, created_at, updated_at)
        VALUES (:id, :full_name, :email, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, person); err != nil {
		return fmt.Errorf("create person: %w", err)
	}
	return nil
}

// UpdateName refreshes the stored name for a person.
func (r *PersonRepository) UpdateName(ctx context.Context, id, fullName string) error {
	const query = `UPDATE people SET full_name = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, fullName, time.Now().UTC()); err != nil {
		return fmt.Errorf("update person name: %w", err)
	}
	return nil
}
