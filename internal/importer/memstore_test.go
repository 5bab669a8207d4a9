package importer

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/campuslab/research-adm-api/internal/models"
)

// memDB is an in-memory stand-in for the repositories, used to test the
// resolver and processor logic without a database. Transactions are not
// simulated; commit/rollback behaviour of SQLTxRunner is covered by the
// sqlmock tests in stores_test.go.
type memDB struct {
	seq int

	people       []*models.Person
	lookups      map[models.LookupKind][]*models.Lookup
	units        []*models.OrganizationalUnit
	leaderships  []*models.Leadership
	initiatives  []*models.Initiative
	members      map[string][]string
	students     map[string][]string
	groups       map[string][]models.InitiativeGroup
	scholarships []*models.Scholarship
}

func newMemDB() *memDB {
	return &memDB{
		lookups:  make(map[models.LookupKind][]*models.Lookup),
		members:  make(map[string][]string),
		students: make(map[string][]string),
		groups:   make(map[string][]models.InitiativeGroup),
	}
}

func (d *memDB) nextID(prefix string) string {
	d.seq++
	return fmt.Sprintf("%s-%d", prefix, d.seq)
}

func (d *memDB) stores() Stores {
	return Stores{
		People:       (*memPeople)(d),
		Lookups:      (*memLookups)(d),
		Units:        (*memUnits)(d),
		Initiatives:  (*memInitiatives)(d),
		Scholarships: (*memScholarships)(d),
		hooks:        &commitHooks{},
	}
}

// memTx satisfies TxRunner by running the function directly. Writes are
// not rolled back on error, but commit hooks follow the real contract:
// they run only when the callback succeeds.
type memTx struct {
	db *memDB
}

func (t memTx) InTransaction(_ context.Context, fn func(Stores) error) error {
	stores := t.db.stores()
	if err := fn(stores); err != nil {
		return err
	}
	stores.hooks.run()
	return nil
}

type memPeople memDB

func (m *memPeople) FindByEmail(_ context.Context, email string) (*models.Person, error) {
	for _, p := range m.people {
		if strings.EqualFold(p.Email, email) {
			return p, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memPeople) FindByName(_ context.Context, fullName string) (*models.Person, error) {
	for _, p := range m.people {
		if strings.EqualFold(p.FullName, fullName) {
			return p, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memPeople) EmailExists(_ context.Context, email string) (bool, error) {
	for _, p := range m.people {
		if strings.EqualFold(p.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memPeople) Create(_ context.Context, person *models.Person) error {
	for _, p := range m.people {
		if strings.EqualFold(p.Email, person.Email) {
			return &pq.Error{Code: "23505"}
		}
	}
	person.ID = (*memDB)(m).nextID("person")
	m.people = append(m.people, person)
	return nil
}

func (m *memPeople) UpdateName(_ context.Context, id, fullName string) error {
	for _, p := range m.people {
		if p.ID == id {
			p.FullName = fullName
			return nil
		}
	}
	return sql.ErrNoRows
}

type memLookups memDB

func (m *memLookups) FindByName(_ context.Context, kind models.LookupKind, name string) (*models.Lookup, error) {
	for _, l := range m.lookups[kind] {
		if strings.EqualFold(l.Name, name) {
			return l, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memLookups) Create(_ context.Context, kind models.LookupKind, lookup *models.Lookup) error {
	lookup.ID = (*memDB)(m).nextID(string(kind))
	m.lookups[kind] = append(m.lookups[kind], lookup)
	return nil
}

type memUnits memDB

func (m *memUnits) FindByShortName(_ context.Context, shortName, organizationID, campusID string) (*models.OrganizationalUnit, error) {
	for _, u := range m.units {
		if strings.EqualFold(u.ShortName, shortName) && u.OrganizationID == organizationID && u.CampusID == campusID {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memUnits) FindByName(_ context.Context, name string) (*models.OrganizationalUnit, error) {
	for _, u := range m.units {
		if strings.EqualFold(u.Name, name) {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memUnits) Create(_ context.Context, unit *models.OrganizationalUnit) error {
	unit.ID = (*memDB)(m).nextID("unit")
	m.units = append(m.units, unit)
	return nil
}

func (m *memUnits) AddLeadership(_ context.Context, leadership *models.Leadership) error {
	leadership.ID = (*memDB)(m).nextID("leadership")
	m.leaderships = append(m.leaderships, leadership)
	return nil
}

type memInitiatives memDB

func (m *memInitiatives) FindByNameAndCoordinator(_ context.Context, name, coordinatorID string) (*models.Initiative, error) {
	for _, i := range m.initiatives {
		if strings.EqualFold(i.Name, name) && i.CoordinatorID == coordinatorID {
			return i, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memInitiatives) FindByName(_ context.Context, name string) (*models.Initiative, error) {
	for _, i := range m.initiatives {
		if strings.EqualFold(i.Name, name) {
			return i, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memInitiatives) Create(_ context.Context, initiative *models.Initiative) error {
	initiative.ID = (*memDB)(m).nextID("initiative")
	m.initiatives = append(m.initiatives, initiative)
	return nil
}

func (m *memInitiatives) AddMember(_ context.Context, initiativeID, personID string) error {
	m.members[initiativeID] = append(m.members[initiativeID], personID)
	return nil
}

func (m *memInitiatives) AddStudent(_ context.Context, initiativeID, personID string) error {
	m.students[initiativeID] = append(m.students[initiativeID], personID)
	return nil
}

func (m *memInitiatives) AddGroup(_ context.Context, initiativeID, unitID string, external bool) error {
	m.groups[initiativeID] = append(m.groups[initiativeID], models.InitiativeGroup{
		InitiativeID: initiativeID,
		UnitID:       unitID,
		External:     external,
	})
	return nil
}

type memScholarships memDB

func (m *memScholarships) Exists(_ context.Context, title, studentID string, startDate time.Time) (bool, error) {
	for _, s := range m.scholarships {
		if strings.EqualFold(s.Title, title) && s.StudentID == studentID && s.StartDate.Equal(startDate) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memScholarships) Create(_ context.Context, scholarship *models.Scholarship) error {
	scholarship.ID = (*memDB)(m).nextID("scholarship")
	m.scholarships = append(m.scholarships, scholarship)
	return nil
}
