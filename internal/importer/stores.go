package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/campuslab/research-adm-api/internal/models"
	"github.com/campuslab/research-adm-api/internal/repository"
)

// PersonStore is the persistence surface the person resolver needs.
type PersonStore interface {
	FindByEmail(ctx context.Context, email string) (*models.Person, error)
	FindByName(ctx context.Context, fullName string) (*models.Person, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, person *models.Person) error
	UpdateName(ctx context.Context, id, fullName string) error
}

// LookupStore is the persistence surface for name-keyed reference tables.
type LookupStore interface {
	FindByName(ctx context.Context, kind models.LookupKind, name string) (*models.Lookup, error)
	Create(ctx context.Context, kind models.LookupKind, lookup *models.Lookup) error
}

// UnitStore is the persistence surface for organizational units.
type UnitStore interface {
	FindByShortName(ctx context.Context, shortName, organizationID, campusID string) (*models.OrganizationalUnit, error)
	FindByName(ctx context.Context, name string) (*models.OrganizationalUnit, error)
	Create(ctx context.Context, unit *models.OrganizationalUnit) error
	AddLeadership(ctx context.Context, leadership *models.Leadership) error
}

// InitiativeStore is the persistence surface for initiatives.
type InitiativeStore interface {
	FindByNameAndCoordinator(ctx context.Context, name, coordinatorID string) (*models.Initiative, error)
	FindByName(ctx context.Context, name string) (*models.Initiative, error)
	Create(ctx context.Context, initiative *models.Initiative) error
	AddMember(ctx context.Context, initiativeID, personID string) error
	AddStudent(ctx context.Context, initiativeID, personID string) error
	AddGroup(ctx context.Context, initiativeID, unitID string, external bool) error
}

// ScholarshipStore is the persistence surface for scholarships.
type ScholarshipStore interface {
	Exists(ctx context.Context, title, studentID string, startDate time.Time) (bool, error)
	Create(ctx context.Context, scholarship *models.Scholarship) error
}

// Stores bundles every repository a row handler may touch, all bound to
// the same transaction.
type Stores struct {
	People       PersonStore
	Lookups      LookupStore
	Units        UnitStore
	Initiatives  InitiativeStore
	Scholarships ScholarshipStore

	savepoint func(ctx context.Context, fn func() error) error
	hooks     *commitHooks
}

type commitHooks struct {
	fns []func()
}

func (h *commitHooks) run() {
	for _, fn := range h.fns {
		fn()
	}
}

// InSavepoint runs fn so that its statements can be rolled back on error
// without aborting the enclosing transaction. PostgreSQL aborts the whole
// transaction after any failed statement, so a get-or-create that intends
// to recover from a unique violation must scope the INSERT this way.
// Without a transactional backing fn runs directly.
func (s Stores) InSavepoint(ctx context.Context, fn func() error) error {
	if s.savepoint == nil {
		return fn()
	}
	return s.savepoint(ctx, fn)
}

// OnCommit defers fn until the row's transaction has committed, so side
// effects outside the database (cache writes) never outlive a rollback.
// Without a transactional backing fn runs immediately.
func (s Stores) OnCommit(fn func()) {
	if s.hooks == nil {
		fn()
		return
	}
	s.hooks.fns = append(s.hooks.fns, fn)
}

// TxRunner scopes a function to one transaction: commit when it returns
// nil, roll back when it errors. One row of the import equals one call.
type TxRunner interface {
	InTransaction(ctx context.Context, fn func(Stores) error) error
}

// SQLTxRunner runs each row inside a database transaction.
type SQLTxRunner struct {
	db *sqlx.DB
}

// NewSQLTxRunner wraps a database handle.
func NewSQLTxRunner(db *sqlx.DB) *SQLTxRunner {
	return &SQLTxRunner{db: db}
}

// InTransaction opens a transaction, binds every repository to it and
// commits or rolls back based on fn's result. Commit hooks registered
// through Stores.OnCommit run only after a successful commit.
func (r *SQLTxRunner) InTransaction(ctx context.Context, fn func(Stores) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	stores := sqlStores(tx)
	if err := fn(stores); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	stores.hooks.run()
	return nil
}

func sqlStores(db repository.DBTX) Stores {
	return Stores{
		People:       repository.NewPersonRepository(db),
		Lookups:      repository.NewLookupRepository(db),
		Units:        repository.NewUnitRepository(db),
		Initiatives:  repository.NewInitiativeRepository(db),
		Scholarships: repository.NewScholarshipRepository(db),
		savepoint:    sqlSavepoint(db),
		hooks:        &commitHooks{},
	}
}

// sqlSavepoint scopes fn to a SAVEPOINT on the transaction db is bound
// to, rolling back to it when fn errors so the transaction stays usable.
func sqlSavepoint(db repository.DBTX) func(ctx context.Context, fn func() error) error {
	var n int
	return func(ctx context.Context, fn func() error) error {
		n++
		name := fmt.Sprintf("sp_%d", n)
		if _, err := db.ExecContext(ctx, "SAVEPOINT "+name); err != nil {
			return fmt.Errorf("open savepoint: %w", err)
		}
		if err := fn(); err != nil {
			if _, rbErr := db.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
				return fmt.Errorf("roll back savepoint: %w", rbErr)
			}
			return err
		}
		if _, err := db.ExecContext(ctx, "RELEASE SAVEPOINT "+name); err != nil {
			return fmt.Errorf("release savepoint: %w", err)
		}
		return nil
	}
}
