package models

import "time"

// Initiative is a research program, project or event. Two initiatives are
// considered the same when their normalized names and coordinators match.
type Initiative struct {
	ID                 string     `db:"id" json:"id"`
	Name               string     `db:"name" json:"name"`
	TypeID             string     `db:"type_id" json:"type_id"`
	StartDate          time.Time  `db:"start_date" json:"start_date"`
	EndDate            *time.Time `db:"end_date" json:"end_date,omitempty"`
	CoordinatorID      string     `db:"coordinator_id" json:"coordinator_id"`
	DemandingPartnerID *string    `db:"demanding_partner_id" json:"demanding_partner_id,omitempty"`
	KnowledgeAreaID    *string    `db:"knowledge_area_id" json:"knowledge_area_id,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// InitiativeGroup links an initiative to a participating unit.
type InitiativeGroup struct {
	InitiativeID string `db:"initiative_id" json:"initiative_id"`
	UnitID       string `db:"unit_id" json:"unit_id"`
	External     bool   `db:"external" json:"external"`
}
