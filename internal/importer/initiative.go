package importer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/campuslab/research-adm-api/internal/models"
)

// Source column vocabulary for the initiative variant.
const (
	ColInitiativeTitle            = "Titulo"
	ColInitiativeType             = "Tipo"
	ColInitiativeCoordinator      = "Coordenador"
	ColInitiativeCoordinatorEmail = "EmailCoordenador"
	ColInitiativeStart            = "Inicio"
	ColInitiativeEnd              = "Fim"
	ColInitiativeResearchers      = "Pesquisadores"
	ColInitiativeStudents         = "Estudantes"
	ColInitiativeGroup            = "GrupoPesquisa"
	ColInitiativeExternalGroup    = "GrupoPesquisaExterno"
	ColInitiativePartner          = "ParceiroDemandante"
	ColInitiativeKnowledgeArea    = "AreaConhecimento"
)

var initiativeRequired = []string{
	ColInitiativeTitle,
	ColInitiativeCoordinator,
	ColInitiativeCoordinatorEmail,
	ColInitiativeStart,
	ColInitiativeEnd,
}

// InitiativeValidator checks initiative rows: required fields, then field
// formats, then cross-field date ordering.
type InitiativeValidator struct{}

// Validate implements RowValidator.
func (InitiativeValidator) Validate(row Row) ValidationResult {
	var result ValidationResult

	checkRequired(row, &result, initiativeRequired...)

	start, startOK := checkDate(row, &result, ColInitiativeStart)
	end, endOK := checkDate(row, &result, ColInitiativeEnd)
	checkEmail(row, &result, ColInitiativeCoordinatorEmail)

	checkDateOrder(&result, start, end, startOK, endOK, ColInitiativeStart, ColInitiativeEnd)

	return result
}

// InitiativeHandler resolves an initiative row's related entities and
// persists the aggregate with its relationship rows.
type InitiativeHandler struct {
	people      *PersonResolver
	lookups     *LookupResolver
	units       *UnitResolver
	defaultType string
	logger      *zap.Logger
}

// NewInitiativeHandler constructs the handler for one import run.
func NewInitiativeHandler(people *PersonResolver, lookups *LookupResolver, units *UnitResolver, defaultType string, logger *zap.Logger) *InitiativeHandler {
	if defaultType == "" {
		defaultType = "Research Project"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InitiativeHandler{
		people:      people,
		lookups:     lookups,
		units:       units,
		defaultType: defaultType,
		logger:      logger,
	}
}

// Domain implements AggregateHandler.
func (h *InitiativeHandler) Domain() string { return "initiatives" }

// Apply implements AggregateHandler. The duplicate key is the normalized
// name plus the coordinator: the same title under another coordinator is
// a different initiative.
func (h *InitiativeHandler) Apply(ctx context.Context, stores Stores, row Row) (Outcome, error) {
	name := TitleCase(row.Value(ColInitiativeTitle))

	coordinator, err := h.people.Resolve(ctx, stores,
		row.Value(ColInitiativeCoordinator), row.Value(ColInitiativeCoordinatorEmail))
	if err != nil {
		return Outcome{}, fmt.Errorf("resolve coordinator: %w", err)
	}

	if existing, err := stores.Initiatives.FindByNameAndCoordinator(ctx, name, coordinator.ID); err == nil {
		return Outcome{Name: existing.Name, Created: false, Reason: "duplicate"}, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return Outcome{}, fmt.Errorf("check duplicate: %w", err)
	}

	typeName := row.Value(ColInitiativeType)
	if typeName == "" {
		typeName = h.defaultType
	}
	initiativeType, err := h.lookups.GetOrCreate(ctx, stores, models.LookupInitiativeType, typeName)
	if err != nil {
		return Outcome{}, fmt.Errorf("resolve type: %w", err)
	}

	var knowledgeAreaID *string
	if raw := row.Value(ColInitiativeKnowledgeArea); raw != "" {
		area, err := h.lookups.GetOrCreate(ctx, stores, models.LookupKnowledgeArea, raw)
		if err != nil {
			return Outcome{}, fmt.Errorf("resolve knowledge area: %w", err)
		}
		knowledgeAreaID = &area.ID
	}

	start, err := parseDate(row.Value(ColInitiativeStart))
	if err != nil {
		return Outcome{}, err
	}
	initiative := &models.Initiative{
		Name:            name,
		TypeID:          initiativeType.ID,
		StartDate:       start,
		CoordinatorID:   coordinator.ID,
		KnowledgeAreaID: knowledgeAreaID,
	}
	if raw := row.Value(ColInitiativeEnd); raw != "" {
		endParsed, err := parseDate(raw)
		if err != nil {
			return Outcome{}, err
		}
		initiative.EndDate = &endParsed
	}

	if partner := row.Value(ColInitiativePartner); partner != "" {
		unit, err := h.units.ResolveExternal(ctx, stores, partner, knowledgeAreaID)
		if err != nil {
			return Outcome{}, fmt.Errorf("resolve demanding partner: %w", err)
		}
		initiative.DemandingPartnerID = &unit.ID
	}

	if err := stores.Initiatives.Create(ctx, initiative); err != nil {
		return Outcome{}, err
	}

	members, err := h.people.ResolveList(ctx, stores, row.Value(ColInitiativeResearchers))
	if err != nil {
		return Outcome{}, fmt.Errorf("resolve researchers: %w", err)
	}
	for _, member := range members {
		if err := stores.Initiatives.AddMember(ctx, initiative.ID, member.ID); err != nil {
			return Outcome{}, err
		}
	}

	students, err := h.people.ResolveList(ctx, stores, row.Value(ColInitiativeStudents))
	if err != nil {
		return Outcome{}, fmt.Errorf("resolve students: %w", err)
	}
	for _, student := range students {
		if err := stores.Initiatives.AddStudent(ctx, initiative.ID, student.ID); err != nil {
			return Outcome{}, err
		}
	}

	if group := row.Value(ColInitiativeGroup); group != "" {
		unit, err := stores.Units.FindByName(ctx, group)
		switch {
		case err == nil:
			if err := stores.Initiatives.AddGroup(ctx, initiative.ID, unit.ID, false); err != nil {
				return Outcome{}, err
			}
		case errors.Is(err, sql.ErrNoRows):
			// Internal groups are not auto-created; an unknown name is
			// simply not linked.
			h.logger.Sugar().Debugw("internal group not found", "row", row.Number, "group", group)
		default:
			return Outcome{}, fmt.Errorf("find internal group: %w", err)
		}
	}

	if external := row.Value(ColInitiativeExternalGroup); external != "" {
		unit, err := h.units.ResolveExternal(ctx, stores, external, knowledgeAreaID)
		if err != nil {
			return Outcome{}, fmt.Errorf("resolve external group: %w", err)
		}
		if err := stores.Initiatives.AddGroup(ctx, initiative.ID, unit.ID, true); err != nil {
			return Outcome{}, err
		}
	}

	return Outcome{Name: name, Created: true}, nil
}
