package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Scholarship grants a stipend to a student under a supervisor. A zero
// value is valid (voluntary scholarships); negatives never are.
type Scholarship struct {
	ID           string          `db:"id" json:"id"`
	Title        string          `db:"title" json:"title"`
	CampusID     string          `db:"campus_id" json:"campus_id"`
	StartDate    time.Time       `db:"start_date" json:"start_date"`
	EndDate      *time.Time      `db:"end_date" json:"end_date,omitempty"`
	SupervisorID string          `db:"supervisor_id" json:"supervisor_id"`
	StudentID    string          `db:"student_id" json:"student_id"`
	Value        decimal.Decimal `db:"value" json:"value"`
	SponsorID    *string         `db:"sponsor_id" json:"sponsor_id,omitempty"`
	InitiativeID *string         `db:"initiative_id" json:"initiative_id,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}
