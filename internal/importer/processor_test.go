package importer

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslab/research-adm-api/internal/models"
)

func newInitiativeProcessor(db *memDB) *Processor {
	people := NewPersonResolver("noemail.local")
	lookups := NewLookupResolver(nil)
	units := NewUnitResolver(lookups, "Organizacao Externa", "Externo")
	handler := NewInitiativeHandler(people, lookups, units, "Research Project", nil)
	return NewProcessor(memTx{db: db}, InitiativeValidator{}, handler, nil, nil)
}

func TestProcessorSingleRowEndToEnd(t *testing.T) {
	db := newMemDB()
	processor := newInitiativeProcessor(db)

	src := "Titulo,Coordenador,EmailCoordenador,Inicio,Fim\n" +
		`"AI Lab","Dr. Silva","silva@x.com","01-01-24","31-12-24"` + "\n"
	report, err := processor.Run(context.Background(), strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, 1, report.TotalRows)
	assert.Equal(t, 1, report.SuccessCount)
	assert.Equal(t, 0, report.SkipCount)
	assert.Equal(t, 0, report.ErrorCount)

	require.Len(t, db.initiatives, 1)
	initiative := db.initiatives[0]
	assert.Equal(t, "Ai Lab", initiative.Name)

	initiativeType, err := db.stores().Lookups.FindByName(context.Background(), models.LookupInitiativeType, "Research Project")
	require.NoError(t, err)
	assert.Equal(t, initiativeType.ID, initiative.TypeID)

	coordinator, err := db.stores().People.FindByEmail(context.Background(), "silva@x.com")
	require.NoError(t, err)
	assert.Equal(t, coordinator.ID, initiative.CoordinatorID)
	assert.Equal(t, "Dr. Silva", coordinator.FullName)
}

func TestProcessorIdempotence(t *testing.T) {
	db := newMemDB()
	src := "Titulo,Coordenador,EmailCoordenador,Inicio,Fim,Pesquisadores\n" +
		"AI Lab,Dr. Silva,silva@x.com,01-01-24,31-12-24,Ana Souza;Pedro Lima\n" +
		"Robotics,Dr. Souza,souza@x.com,01-02-24,30-11-24,\n"

	first, err := newInitiativeProcessor(db).Run(context.Background(), strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, 2, first.SuccessCount)

	peopleBefore := len(db.people)
	initiativesBefore := len(db.initiatives)

	// a fresh processor mirrors a second invocation of the import
	second, err := newInitiativeProcessor(db).Run(context.Background(), strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, 0, second.SuccessCount)
	assert.Equal(t, 2, second.SkipCount)
	assert.Equal(t, second.TotalRows, second.SkipCount)
	assert.Equal(t, peopleBefore, len(db.people))
	assert.Equal(t, initiativesBefore, len(db.initiatives))
}

func TestProcessorRowIsolation(t *testing.T) {
	db := newMemDB()
	src := "Titulo,Coordenador,EmailCoordenador,Inicio,Fim\n" +
		"A,Dr. Silva,silva@x.com,01-01-24,31-12-24\n" +
		"B,Dr. Souza,souza@x.com,01-01-24,31-12-24\n" +
		"C,Dr. Lima,lima@x.com,bad-date,31-12-24\n" +
		"D,Dr. Costa,costa@x.com,01-01-24,31-12-24\n"

	report, err := newInitiativeProcessor(db).Run(context.Background(), strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, 4, report.TotalRows)
	assert.Equal(t, 3, report.SuccessCount)
	assert.Equal(t, 1, report.ErrorCount)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, 3, report.Errors[0].Row)

	assert.Len(t, db.initiatives, 3)
	_, err = db.stores().People.FindByEmail(context.Background(), "lima@x.com")
	assert.Error(t, err)
}

func TestProcessorDuplicateIsSkipNotError(t *testing.T) {
	db := newMemDB()
	src := "Titulo,Coordenador,EmailCoordenador,Inicio,Fim\n" +
		"AI Lab,Dr. Silva,silva@x.com,01-01-24,31-12-24\n" +
		"ai lab,Dr. Silva,silva@x.com,01-01-24,31-12-24\n"

	report, err := newInitiativeProcessor(db).Run(context.Background(), strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, 1, report.SuccessCount)
	assert.Equal(t, 1, report.SkipCount)
	assert.Equal(t, 0, report.ErrorCount)
	require.Len(t, report.Skips, 1)
	assert.Equal(t, "duplicate", report.Skips[0].Reason)
	assert.Len(t, db.initiatives, 1)
}

func TestProcessorSameNameDifferentCoordinatorIsNotDuplicate(t *testing.T) {
	db := newMemDB()
	src := "Titulo,Coordenador,EmailCoordenador,Inicio,Fim\n" +
		"AI Lab,Dr. Silva,silva@x.com,01-01-24,31-12-24\n" +
		"AI Lab,Dr. Souza,souza@x.com,01-01-24,31-12-24\n"

	report, err := newInitiativeProcessor(db).Run(context.Background(), strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, 2, report.SuccessCount)
	assert.Len(t, db.initiatives, 2)
}

func TestProcessorParseFailureIsFatal(t *testing.T) {
	db := newMemDB()
	_, err := newInitiativeProcessor(db).Run(context.Background(), strings.NewReader("Titulo\n\"broken\n"))
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Empty(t, db.initiatives)
}

func TestProcessorScholarshipFlow(t *testing.T) {
	db := newMemDB()
	people := NewPersonResolver("noemail.local")
	lookups := NewLookupResolver(nil)
	handler := NewScholarshipHandler(people, lookups)
	processor := NewProcessor(memTx{db: db}, ScholarshipValidator{}, handler, nil, nil)

	src := "Titulo,Campus,Inicio,Fim,Orientador,EmailOrientador,Bolsista,EmailBolsista,Valor\n" +
		"Iniciacao Cientifica,Centro,01-03-24,31-12-24,Dr. Souza,souza@x.com,Maria Silva,maria@x.com,0\n" +
		"Iniciacao Cientifica,Centro,01-03-24,31-12-24,Dr. Souza,souza@x.com,Maria Silva,maria@x.com,0\n" +
		"Mestrado,Centro,01-03-24,,Dr. Souza,souza@x.com,Dr. Souza,souza@x.com,500\n"

	report, err := processor.Run(context.Background(), strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, 1, report.SuccessCount)
	assert.Equal(t, 1, report.SkipCount)
	assert.Equal(t, 1, report.ErrorCount)
	assert.Contains(t, report.Errors[0].Message, "must be different")
	require.Len(t, db.scholarships, 1)
	assert.True(t, db.scholarships[0].Value.IsZero())
}

func TestProcessorUnitFlow(t *testing.T) {
	db := newMemDB()
	people := NewPersonResolver("noemail.local")
	lookups := NewLookupResolver(nil)
	handler := NewUnitHandler(people, lookups)
	processor := NewProcessor(memTx{db: db}, UnitValidator{}, handler, nil, nil)

	src := "Nome,Sigla,Tipo,Organizacao,Campus,Lider,EmailLider,InicioLideranca\n" +
		"Laboratorio de Robotica,LR,Laboratorio,Universidade,Centro,Dr. Silva,silva@x.com,01-01-24\n" +
		"Laboratorio de Robotica,LR,Laboratorio,Universidade,Centro,,,\n" +
		"Laboratorio de Robotica,LR,Laboratorio,Universidade,Norte,,,\n"

	report, err := processor.Run(context.Background(), strings.NewReader(src))
	require.NoError(t, err)

	// same acronym on another campus is a distinct unit
	assert.Equal(t, 2, report.SuccessCount)
	assert.Equal(t, 1, report.SkipCount)
	assert.Len(t, db.units, 2)
	assert.Len(t, db.leaderships, 1)
	assert.True(t, db.leaderships[0].IsActive)
}
