package models

import "time"

// OrganizationalUnit is a research group or administrative unit.
// (short_name, organization_id, campus_id) is unique: the same acronym may
// repeat across campuses of an organization but not within one campus.
type OrganizationalUnit struct {
	ID              string    `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	ShortName       string    `db:"short_name" json:"short_name"`
	URL             *string   `db:"url" json:"url,omitempty"`
	TypeID          string    `db:"type_id" json:"type_id"`
	OrganizationID  string    `db:"organization_id" json:"organization_id"`
	CampusID        string    `db:"campus_id" json:"campus_id"`
	KnowledgeAreaID *string   `db:"knowledge_area_id" json:"knowledge_area_id,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Leadership records a person leading a unit over a period.
type Leadership struct {
	ID        string     `db:"id" json:"id"`
	UnitID    string     `db:"unit_id" json:"unit_id"`
	PersonID  string     `db:"person_id" json:"person_id"`
	StartDate time.Time  `db:"start_date" json:"start_date"`
	EndDate   *time.Time `db:"end_date" json:"end_date,omitempty"`
	IsActive  bool       `db:"is_active" json:"is_active"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
