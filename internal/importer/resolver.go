package importer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/campuslab/research-adm-api/internal/models"
	"github.com/campuslab/research-adm-api/internal/repository"
)

// placeholder suffixes are bounded so a pathological run cannot loop
// forever against the uniqueness constraint.
const maxPlaceholderAttempts = 1000

// PersonResolver finds or creates people. It carries per-run state: the
// set of placeholder emails already allocated during this import, so two
// rows in one file can never be handed the same synthesized address even
// before their transactions commit.
type PersonResolver struct {
	placeholderDomain string
	allocated         map[string]struct{}
}

// NewPersonResolver builds a resolver for one import run.
func NewPersonResolver(placeholderDomain string) *PersonResolver {
	if placeholderDomain == "" {
		placeholderDomain = "noemail.local"
	}
	return &PersonResolver{
		placeholderDomain: placeholderDomain,
		allocated:         make(map[string]struct{}),
	}
}

// Resolve returns the person for a name and optional email. With an email
// the match is case-insensitive on email; without one it falls back to a
// case-insensitive name match and, failing that, creates the person with
// a synthesized placeholder email.
func (r *PersonResolver) Resolve(ctx context.Context, stores Stores, name, email string) (*models.Person, error) {
	name = TitleCase(name)
	email = strings.TrimSpace(email)

	if email != "" {
		person, err := stores.People.FindByEmail(ctx, email)
		if err == nil {
			if name != "" && !strings.EqualFold(person.FullName, name) {
				if err := stores.People.UpdateName(ctx, person.ID, name); err != nil {
					return nil, err
				}
				person.FullName = name
			}
			return person, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("find person by email: %w", err)
		}

		person = &models.Person{FullName: name, Email: strings.ToLower(email)}
		err = stores.InSavepoint(ctx, func() error {
			return stores.People.Create(ctx, person)
		})
		if err != nil {
			if repository.IsUniqueViolation(err) {
				// Lost a race with a concurrent import; the row exists now.
				return stores.People.FindByEmail(ctx, email)
			}
			return nil, err
		}
		return person, nil
	}

	person, err := stores.People.FindByName(ctx, name)
	if err == nil {
		return person, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find person by name: %w", err)
	}
	return r.createWithPlaceholder(ctx, stores, name)
}

// createWithPlaceholder allocates the next free placeholder email for the
// name. The storage uniqueness constraint is the final authority: a
// conflicting INSERT is rolled back to its savepoint, the suffix
// incremented and the insert retried, rather than trusting a prior
// SELECT.
func (r *PersonResolver) createWithPlaceholder(ctx context.Context, stores Stores, name string) (*models.Person, error) {
	slug := emailSlug(name)
	for attempt := 1; attempt <= maxPlaceholderAttempts; attempt++ {
		local := slug
		if attempt > 1 {
			local = fmt.Sprintf("%s.%d", slug, attempt)
		}
		email := fmt.Sprintf("%s@%s", local, r.placeholderDomain)

		if _, taken := r.allocated[email]; taken {
			continue
		}
		exists, err := stores.People.EmailExists(ctx, email)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}

		person := &models.Person{FullName: name, Email: email}
		err = stores.InSavepoint(ctx, func() error {
			return stores.People.Create(ctx, person)
		})
		if err != nil {
			if repository.IsUniqueViolation(err) {
				continue
			}
			return nil, err
		}
		r.allocated[email] = struct{}{}
		return person, nil
	}
	return nil, fmt.Errorf("could not allocate placeholder email for %q", name)
}

// ResolveList resolves a semicolon-separated list of names without
// emails. Empty tokens are skipped; duplicate names within the list
// collapse to one reference, order preserved.
func (r *PersonResolver) ResolveList(ctx context.Context, stores Stores, raw string) ([]*models.Person, error) {
	seen := make(map[string]struct{})
	var people []*models.Person
	for _, token := range strings.Split(raw, ";") {
		name := TitleCase(token)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		person, err := r.Resolve(ctx, stores, name, "")
		if err != nil {
			return nil, err
		}
		people = append(people, person)
	}
	return people, nil
}

// lookupCache is the subset of the Redis lookup cache the resolver needs.
type lookupCache interface {
	Get(ctx context.Context, kind, name string) (string, bool)
	Set(ctx context.Context, kind, name, id string)
}

// LookupResolver gets or creates reference entities, optionally memoised
// through Redis.
type LookupResolver struct {
	cache lookupCache
}

// NewLookupResolver builds a resolver. The cache may be nil.
func NewLookupResolver(cache lookupCache) *LookupResolver {
	return &LookupResolver{cache: cache}
}

// GetOrCreate returns the lookup entity with a case-insensitive exact
// name match, creating it with the literal trimmed name when absent. The
// cache is only written after the row's transaction commits: an id read
// inside an open transaction may belong to a row that rolls back.
func (r *LookupResolver) GetOrCreate(ctx context.Context, stores Stores, kind models.LookupKind, name string) (*models.Lookup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%s name is empty", kind)
	}

	if r.cache != nil {
		if id, ok := r.cache.Get(ctx, string(kind), name); ok {
			return &models.Lookup{ID: id, Name: name}, nil
		}
	}

	lookup, err := stores.Lookups.FindByName(ctx, kind, name)
	if err == nil {
		r.cacheAfterCommit(ctx, stores, kind, name, lookup.ID)
		return lookup, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find %s: %w", kind, err)
	}

	lookup = &models.Lookup{Name: name}
	err = stores.InSavepoint(ctx, func() error {
		return stores.Lookups.Create(ctx, kind, lookup)
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return stores.Lookups.FindByName(ctx, kind, name)
		}
		return nil, err
	}
	r.cacheAfterCommit(ctx, stores, kind, name, lookup.ID)
	return lookup, nil
}

func (r *LookupResolver) cacheAfterCommit(ctx context.Context, stores Stores, kind models.LookupKind, name, id string) {
	if r.cache == nil {
		return
	}
	stores.OnCommit(func() {
		r.cache.Set(ctx, string(kind), name, id)
	})
}

// Auto-created partner units hang off a synthetic organizational type.
const externalUnitType = "Externo"

// UnitResolver finds or creates external (demanding-partner) units with
// fixed synthetic defaults.
type UnitResolver struct {
	lookups              *LookupResolver
	externalOrganization string
	externalCampus       string
}

// NewUnitResolver builds a resolver using the configured synthetic
// organization and campus names for auto-created units.
func NewUnitResolver(lookups *LookupResolver, externalOrganization, externalCampus string) *UnitResolver {
	if externalOrganization == "" {
		externalOrganization = "Organizacao Externa"
	}
	if externalCampus == "" {
		externalCampus = "Externo"
	}
	return &UnitResolver{
		lookups:              lookups,
		externalOrganization: externalOrganization,
		externalCampus:       externalCampus,
	}
}

// ResolveExternal gets or creates an external unit by name. Auto-created
// units receive the synthetic organization and campus, a computed short
// name and the knowledge area of the initiative being imported.
func (r *UnitResolver) ResolveExternal(ctx context.Context, stores Stores, name string, knowledgeAreaID *string) (*models.OrganizationalUnit, error) {
	name = TitleCase(name)

	unit, err := stores.Units.FindByName(ctx, name)
	if err == nil {
		return unit, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find unit: %w", err)
	}

	organization, err := r.lookups.GetOrCreate(ctx, stores, models.LookupOrganization, r.externalOrganization)
	if err != nil {
		return nil, err
	}
	campus, err := r.lookups.GetOrCreate(ctx, stores, models.LookupCampus, r.externalCampus)
	if err != nil {
		return nil, err
	}
	unitType, err := r.lookups.GetOrCreate(ctx, stores, models.LookupOrganizationalType, externalUnitType)
	if err != nil {
		return nil, err
	}

	unit = &models.OrganizationalUnit{
		Name:            name,
		ShortName:       ComputeShortName(name),
		TypeID:          unitType.ID,
		OrganizationID:  organization.ID,
		CampusID:        campus.ID,
		KnowledgeAreaID: knowledgeAreaID,
	}
	err = stores.InSavepoint(ctx, func() error {
		return stores.Units.Create(ctx, unit)
	})
	if err != nil {
		if repository.IsUniqueViolation(err) {
			return stores.Units.FindByName(ctx, name)
		}
		return nil, err
	}
	return unit, nil
}
