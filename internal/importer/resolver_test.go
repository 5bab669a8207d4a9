package importer

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslab/research-adm-api/internal/models"
)

func TestPersonResolverEmailDedupIsCaseInsensitive(t *testing.T) {
	db := newMemDB()
	resolver := NewPersonResolver("noemail.local")
	ctx := context.Background()

	first, err := resolver.Resolve(ctx, db.stores(), "Maria Silva", "maria@x.com")
	require.NoError(t, err)
	second, err := resolver.Resolve(ctx, db.stores(), "MARIA SILVA", "MARIA@X.COM")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, db.people, 1)
}

func TestPersonResolverNameDedupWithoutEmail(t *testing.T) {
	db := newMemDB()
	resolver := NewPersonResolver("noemail.local")
	ctx := context.Background()

	first, err := resolver.Resolve(ctx, db.stores(), "joão santos", "")
	require.NoError(t, err)
	second, err := resolver.Resolve(ctx, db.stores(), "João Santos", "")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "joao.santos@noemail.local", first.Email)
	assert.Len(t, db.people, 1)
}

func TestPersonResolverPlaceholderCollisionGetsSuffix(t *testing.T) {
	db := newMemDB()
	resolver := NewPersonResolver("noemail.local")
	ctx := context.Background()

	// Same slug from a different (accented) spelling: no name match, so a
	// new person is created and the placeholder must be disambiguated.
	first, err := resolver.Resolve(ctx, db.stores(), "Maria Silva", "")
	require.NoError(t, err)
	second, err := resolver.Resolve(ctx, db.stores(), "María Silva", "")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "maria.silva@noemail.local", first.Email)
	assert.Equal(t, "maria.silva.2@noemail.local", second.Email)
}

func TestPersonResolverRefreshesStoredName(t *testing.T) {
	db := newMemDB()
	resolver := NewPersonResolver("noemail.local")
	ctx := context.Background()

	_, err := resolver.Resolve(ctx, db.stores(), "M. Silva", "maria@x.com")
	require.NoError(t, err)
	person, err := resolver.Resolve(ctx, db.stores(), "Maria Silva", "maria@x.com")
	require.NoError(t, err)

	assert.Equal(t, "Maria Silva", person.FullName)
	assert.Len(t, db.people, 1)
}

func TestPersonResolverListSkipsEmptyAndCollapsesDuplicates(t *testing.T) {
	db := newMemDB()
	resolver := NewPersonResolver("noemail.local")
	ctx := context.Background()

	people, err := resolver.ResolveList(ctx, db.stores(), "Ana Souza; ; joão santos;João Santos ")
	require.NoError(t, err)

	require.Len(t, people, 2)
	assert.Equal(t, "Ana Souza", people[0].FullName)
	assert.Equal(t, "João Santos", people[1].FullName)
	assert.Len(t, db.people, 2)
}

func TestLookupResolverGetOrCreate(t *testing.T) {
	db := newMemDB()
	resolver := NewLookupResolver(nil)
	ctx := context.Background()

	created, err := resolver.GetOrCreate(ctx, db.stores(), models.LookupCampus, "Centro")
	require.NoError(t, err)
	reused, err := resolver.GetOrCreate(ctx, db.stores(), models.LookupCampus, "CENTRO")
	require.NoError(t, err)

	assert.Equal(t, created.ID, reused.ID)
	assert.Len(t, db.lookups[models.LookupCampus], 1)
}

func TestUnitResolverExternalDefaults(t *testing.T) {
	db := newMemDB()
	lookups := NewLookupResolver(nil)
	resolver := NewUnitResolver(lookups, "Organizacao Externa", "Externo")
	ctx := context.Background()

	kaID := "ka-1"
	unit, err := resolver.ResolveExternal(ctx, db.stores(), "Instituto Nacional de Pesquisa", &kaID)
	require.NoError(t, err)

	assert.Equal(t, "Instituto Nacional De Pesquisa", unit.Name)
	assert.Equal(t, "INDP", unit.ShortName)
	require.NotNil(t, unit.KnowledgeAreaID)
	assert.Equal(t, "ka-1", *unit.KnowledgeAreaID)

	organization, err := db.stores().Lookups.FindByName(ctx, models.LookupOrganization, "Organizacao Externa")
	require.NoError(t, err)
	assert.Equal(t, organization.ID, unit.OrganizationID)

	// second resolution reuses the unit
	again, err := resolver.ResolveExternal(ctx, db.stores(), "INSTITUTO NACIONAL DE PESQUISA", nil)
	require.NoError(t, err)
	assert.Equal(t, unit.ID, again.ID)
	assert.Len(t, db.units, 1)
}

// racingPeople simulates losing an insert race: the first Create writes a
// competing person and reports the unique violation the real constraint
// would raise.
type racingPeople struct {
	PersonStore
	raced bool
}

func (s *racingPeople) Create(ctx context.Context, person *models.Person) error {
	if !s.raced {
		s.raced = true
		competitor := &models.Person{FullName: person.FullName, Email: person.Email}
		if err := s.PersonStore.Create(ctx, competitor); err != nil {
			return err
		}
		return &pq.Error{Code: "23505"}
	}
	return s.PersonStore.Create(ctx, person)
}

func TestPersonResolverRefetchesAfterLosingEmailRace(t *testing.T) {
	db := newMemDB()
	resolver := NewPersonResolver("noemail.local")
	ctx := context.Background()

	stores := db.stores()
	stores.People = &racingPeople{PersonStore: stores.People}

	person, err := resolver.Resolve(ctx, stores, "Maria Silva", "maria@x.com")
	require.NoError(t, err)

	assert.Equal(t, "maria@x.com", person.Email)
	assert.Len(t, db.people, 1)
}

func TestPersonResolverRetriesPlaceholderAfterLosingRace(t *testing.T) {
	db := newMemDB()
	resolver := NewPersonResolver("noemail.local")
	ctx := context.Background()

	stores := db.stores()
	stores.People = &racingPeople{PersonStore: stores.People}

	person, err := resolver.Resolve(ctx, stores, "Maria Silva", "")
	require.NoError(t, err)

	// the competitor kept the bare slug, so the retry took the suffix
	assert.Equal(t, "maria.silva.2@noemail.local", person.Email)
	assert.Len(t, db.people, 2)
}

// memLookupCache records Set calls so tests can observe when cache writes
// become visible relative to the row transaction.
type memLookupCache struct {
	entries map[string]string
}

func newMemLookupCache() *memLookupCache {
	return &memLookupCache{entries: make(map[string]string)}
}

func (c *memLookupCache) Get(_ context.Context, kind, name string) (string, bool) {
	id, ok := c.entries[kind+":"+strings.ToLower(name)]
	return id, ok
}

func (c *memLookupCache) Set(_ context.Context, kind, name, id string) {
	c.entries[kind+":"+strings.ToLower(name)] = id
}

func TestLookupResolverCacheNotWrittenOnRollback(t *testing.T) {
	db := newMemDB()
	cache := newMemLookupCache()
	resolver := NewLookupResolver(cache)
	ctx := context.Background()

	err := memTx{db: db}.InTransaction(ctx, func(stores Stores) error {
		if _, err := resolver.GetOrCreate(ctx, stores, models.LookupCampus, "Centro"); err != nil {
			return err
		}
		return fmt.Errorf("row failed after lookup")
	})
	require.Error(t, err)

	_, cached := cache.Get(ctx, string(models.LookupCampus), "Centro")
	assert.False(t, cached, "cache must not hold ids from rows that never committed")
}

func TestLookupResolverCacheWrittenAfterCommit(t *testing.T) {
	db := newMemDB()
	cache := newMemLookupCache()
	resolver := NewLookupResolver(cache)
	ctx := context.Background()

	var created *models.Lookup
	err := memTx{db: db}.InTransaction(ctx, func(stores Stores) error {
		var err error
		created, err = resolver.GetOrCreate(ctx, stores, models.LookupCampus, "Centro")
		return err
	})
	require.NoError(t, err)

	id, cached := cache.Get(ctx, string(models.LookupCampus), "Centro")
	require.True(t, cached)
	assert.Equal(t, created.ID, id)
}
