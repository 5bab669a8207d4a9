package importer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/campuslab/research-adm-api/internal/models"
)

// Source column vocabulary for the scholarship variant.
const (
	ColScholarshipTitle           = "Titulo"
	ColScholarshipCampus          = "Campus"
	ColScholarshipStart           = "Inicio"
	ColScholarshipEnd             = "Fim"
	ColScholarshipSupervisor      = "Orientador"
	ColScholarshipSupervisorEmail = "EmailOrientador"
	ColScholarshipStudent         = "Bolsista"
	ColScholarshipStudentEmail    = "EmailBolsista"
	ColScholarshipValue           = "Valor"
	ColScholarshipSponsor         = "Financiador"
	ColScholarshipInitiative      = "Iniciativa"
)

var scholarshipRequired = []string{
	ColScholarshipTitle,
	ColScholarshipCampus,
	ColScholarshipStart,
	ColScholarshipSupervisor,
	ColScholarshipStudent,
	ColScholarshipValue,
}

// ScholarshipValidator checks scholarship rows. A zero value is valid
// (voluntary scholarships); a negative one is not.
type ScholarshipValidator struct{}

// Validate implements RowValidator.
func (ScholarshipValidator) Validate(row Row) ValidationResult {
	var result ValidationResult

	checkRequired(row, &result, scholarshipRequired...)

	start, startOK := checkDate(row, &result, ColScholarshipStart)
	end, endOK := checkDate(row, &result, ColScholarshipEnd)
	checkEmail(row, &result, ColScholarshipSupervisorEmail)
	checkEmail(row, &result, ColScholarshipStudentEmail)

	if raw := row.Value(ColScholarshipValue); raw != "" {
		if value, err := parseValue(raw); err != nil {
			result.addf("%s: %v", ColScholarshipValue, err)
		} else if value.IsNegative() {
			result.addf("%s must not be negative", ColScholarshipValue)
		}
	}

	checkDateOrder(&result, start, end, startOK, endOK, ColScholarshipStart, ColScholarshipEnd)

	return result
}

// ScholarshipHandler resolves a scholarship row's related entities and
// persists the aggregate.
type ScholarshipHandler struct {
	people  *PersonResolver
	lookups *LookupResolver
}

// NewScholarshipHandler constructs the handler for one import run.
func NewScholarshipHandler(people *PersonResolver, lookups *LookupResolver) *ScholarshipHandler {
	return &ScholarshipHandler{people: people, lookups: lookups}
}

// Domain implements AggregateHandler.
func (h *ScholarshipHandler) Domain() string { return "scholarships" }

// Apply implements AggregateHandler. The duplicate key is the normalized
// title plus the student plus the start date.
func (h *ScholarshipHandler) Apply(ctx context.Context, stores Stores, row Row) (Outcome, error) {
	title := TitleCase(row.Value(ColScholarshipTitle))

	supervisor, err := h.people.Resolve(ctx, stores,
		row.Value(ColScholarshipSupervisor), row.Value(ColScholarshipSupervisorEmail))
	if err != nil {
		return Outcome{}, fmt.Errorf("resolve supervisor: %w", err)
	}
	student, err := h.people.Resolve(ctx, stores,
		row.Value(ColScholarshipStudent), row.Value(ColScholarshipStudentEmail))
	if err != nil {
		return Outcome{}, fmt.Errorf("resolve student: %w", err)
	}
	if supervisor.ID == student.ID {
		return Outcome{}, fmt.Errorf("supervisor and student must be different people")
	}

	start, err := parseDate(row.Value(ColScholarshipStart))
	if err != nil {
		return Outcome{}, err
	}

	duplicate, err := stores.Scholarships.Exists(ctx, title, student.ID, start)
	if err != nil {
		return Outcome{}, err
	}
	if duplicate {
		return Outcome{Name: title, Created: false, Reason: "duplicate"}, nil
	}

	campus, err := h.lookups.GetOrCreate(ctx, stores, models.LookupCampus, row.Value(ColScholarshipCampus))
	if err != nil {
		return Outcome{}, fmt.Errorf("resolve campus: %w", err)
	}

	value, err := parseValue(row.Value(ColScholarshipValue))
	if err != nil {
		return Outcome{}, err
	}

	scholarship := &models.Scholarship{
		Title:        title,
		CampusID:     campus.ID,
		StartDate:    start,
		SupervisorID: supervisor.ID,
		StudentID:    student.ID,
		Value:        value,
	}
	if raw := row.Value(ColScholarshipEnd); raw != "" {
		end, err := parseDate(raw)
		if err != nil {
			return Outcome{}, err
		}
		scholarship.EndDate = &end
	}
	if sponsor := row.Value(ColScholarshipSponsor); sponsor != "" {
		organization, err := h.lookups.GetOrCreate(ctx, stores, models.LookupOrganization, sponsor)
		if err != nil {
			return Outcome{}, fmt.Errorf("resolve sponsor: %w", err)
		}
		scholarship.SponsorID = &organization.ID
	}
	if name := row.Value(ColScholarshipInitiative); name != "" {
		initiative, err := stores.Initiatives.FindByName(ctx, name)
		switch {
		case err == nil:
			scholarship.InitiativeID = &initiative.ID
		case errors.Is(err, sql.ErrNoRows):
			// An unknown initiative name leaves the link unset.
		default:
			return Outcome{}, fmt.Errorf("find initiative: %w", err)
		}
	}

	if err := stores.Scholarships.Create(ctx, scholarship); err != nil {
		return Outcome{}, err
	}
	return Outcome{Name: title, Created: true}, nil
}
