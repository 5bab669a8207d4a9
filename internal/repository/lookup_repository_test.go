package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslab/research-adm-api/internal/models"
)

func TestLookupRepositoryFindByName(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLookupRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "created_at", "updated_at"}).
		AddRow("c1", "Centro", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, created_at, updated_at FROM campuses")).
		WithArgs("CENTRO").
		WillReturnRows(rows)

	lookup, err := repo.FindByName(context.Background(), models.LookupCampus, "CENTRO")
	require.NoError(t, err)
	assert.Equal(t, "Centro", lookup.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLookupRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLookupRepository(db)

	mock.ExpectExec("INSERT INTO knowledge_areas").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	lookup := &models.Lookup{Name: "Computer Science"}
	err := repo.Create(context.Background(), models.LookupKnowledgeArea, lookup)
	require.NoError(t, err)
	assert.NotEmpty(t, lookup.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLookupRepositoryUnknownKind(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLookupRepository(db)

	_, err := repo.FindByName(context.Background(), models.LookupKind("bogus"), "x")
	assert.Error(t, err)
}
