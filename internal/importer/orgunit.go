package importer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/campuslab/research-adm-api/internal/models"
)

// Source column vocabulary for the organizational-unit variant.
const (
	ColUnitName            = "Nome"
	ColUnitShortName       = "Sigla"
	ColUnitURL             = "Site"
	ColUnitType            = "Tipo"
	ColUnitOrganization    = "Organizacao"
	ColUnitCampus          = "Campus"
	ColUnitKnowledgeArea   = "AreaConhecimento"
	ColUnitLeader          = "Lider"
	ColUnitLeaderEmail     = "EmailLider"
	ColUnitLeadershipStart = "InicioLideranca"
)

var unitRequired = []string{
	ColUnitName,
	ColUnitType,
	ColUnitOrganization,
	ColUnitCampus,
}

// UnitValidator checks organizational-unit rows.
type UnitValidator struct{}

// Validate implements RowValidator.
func (UnitValidator) Validate(row Row) ValidationResult {
	var result ValidationResult

	checkRequired(row, &result, unitRequired...)

	checkEmail(row, &result, ColUnitLeaderEmail)
	checkDate(row, &result, ColUnitLeadershipStart)

	if row.Value(ColUnitLeader) != "" && row.Value(ColUnitLeadershipStart) == "" {
		result.addf("%s is required when %s is set", ColUnitLeadershipStart, ColUnitLeader)
	}

	return result
}

// UnitHandler resolves an organizational-unit row's related entities and
// persists the unit plus its leadership assignment.
type UnitHandler struct {
	people  *PersonResolver
	lookups *LookupResolver
}

// NewUnitHandler constructs the handler for one import run.
func NewUnitHandler(people *PersonResolver, lookups *LookupResolver) *UnitHandler {
	return &UnitHandler{people: people, lookups: lookups}
}

// Domain implements AggregateHandler.
func (h *UnitHandler) Domain() string { return "units" }

// Apply implements AggregateHandler. The duplicate key is (short_name,
// organization, campus): the same acronym may repeat on another campus.
func (h *UnitHandler) Apply(ctx context.Context, stores Stores, row Row) (Outcome, error) {
	name := TitleCase(row.Value(ColUnitName))

	organization, err := h.lookups.GetOrCreate(ctx, stores, models.LookupOrganization, row.Value(ColUnitOrganization))
	if err != nil {
		return Outcome{}, fmt.Errorf("resolve organization: %w", err)
	}
	campus, err := h.lookups.GetOrCreate(ctx, stores, models.LookupCampus, row.Value(ColUnitCampus))
	if err != nil {
		return Outcome{}, fmt.Errorf("resolve campus: %w", err)
	}

	shortName := row.Value(ColUnitShortName)
	if shortName == "" {
		shortName = ComputeShortName(name)
	}

	if existing, err := stores.Units.FindByShortName(ctx, shortName, organization.ID, campus.ID); err == nil {
		return Outcome{Name: existing.Name, Created: false, Reason: "duplicate"}, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return Outcome{}, fmt.Errorf("check duplicate: %w", err)
	}

	unitType, err := h.lookups.GetOrCreate(ctx, stores, models.LookupOrganizationalType, row.Value(ColUnitType))
	if err != nil {
		return Outcome{}, fmt.Errorf("resolve type: %w", err)
	}

	unit := &models.OrganizationalUnit{
		Name:           name,
		ShortName:      shortName,
		TypeID:         unitType.ID,
		OrganizationID: organization.ID,
		CampusID:       campus.ID,
	}
	if raw := row.Value(ColUnitURL); raw != "" {
		unit.URL = &raw
	}
	if raw := row.Value(ColUnitKnowledgeArea); raw != "" {
		area, err := h.lookups.GetOrCreate(ctx, stores, models.LookupKnowledgeArea, raw)
		if err != nil {
			return Outcome{}, fmt.Errorf("resolve knowledge area: %w", err)
		}
		unit.KnowledgeAreaID = &area.ID
	}

	if err := stores.Units.Create(ctx, unit); err != nil {
		return Outcome{}, err
	}

	if leader := row.Value(ColUnitLeader); leader != "" {
		person, err := h.people.Resolve(ctx, stores, leader, row.Value(ColUnitLeaderEmail))
		if err != nil {
			return Outcome{}, fmt.Errorf("resolve leader: %w", err)
		}
		start, err := parseDate(row.Value(ColUnitLeadershipStart))
		if err != nil {
			return Outcome{}, err
		}
		leadership := &models.Leadership{
			UnitID:    unit.ID,
			PersonID:  person.ID,
			StartDate: start,
			IsActive:  true,
		}
		if err := stores.Units.AddLeadership(ctx, leadership); err != nil {
			return Outcome{}, err
		}
	}

	return Outcome{Name: name, Created: true}, nil
}
