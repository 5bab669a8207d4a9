package models

import "time"

// LookupKind selects one of the simple name-keyed reference tables.
type LookupKind string

const (
	LookupOrganization       LookupKind = "organization"
	LookupCampus             LookupKind = "campus"
	LookupKnowledgeArea      LookupKind = "knowledge_area"
	LookupOrganizationalType LookupKind = "organizational_type"
	LookupInitiativeType     LookupKind = "initiative_type"
)

// Table returns the backing table for the kind.
func (k LookupKind) Table() string {
	switch k {
	case LookupOrganization:
		return "organizations"
	case LookupCampus:
		return "campuses"
	case LookupKnowledgeArea:
		return "knowledge_areas"
	case LookupOrganizationalType:
		return "organizational_types"
	case LookupInitiativeType:
		return "initiative_types"
	}
	return ""
}

// Lookup is a reference entity with a case-insensitively unique name.
// The import pipeline creates lookups on demand and never deletes them.
type Lookup struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
