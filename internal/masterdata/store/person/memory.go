package person

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"govinda/internal/history"
	"govinda/internal/masterdata/models"
	id "govinda/pkg/domain"
	"govinda/pkg/platform/sentinel"
)

// InMemory is a thread-safe in-memory person store used in unit tests and
// local development. It mirrors the PostgresStore semantics, including
// version checking and the temporal history query.
type InMemory struct {
	mu      sync.RWMutex
	persons map[id.PersonID]*models.Person
	entries map[id.PersonID][]*models.PersonHistoryEntry
}

func NewInMemory() *InMemory {
	return &InMemory{
		persons: make(map[id.PersonID]*models.Person),
		entries: make(map[id.PersonID][]*models.PersonHistoryEntry),
	}
}

func clonePerson(p *models.Person) *models.Person {
	cp := *p
	return &cp
}

func cloneEntry(e *models.PersonHistoryEntry) *models.PersonHistoryEntry {
	cp := *e
	if e.ValidTo != nil {
		v := *e.ValidTo
		cp.ValidTo = &v
	}
	if e.SupersededAt != nil {
		v := *e.SupersededAt
		cp.SupersededAt = &v
	}
	return &cp
}

// Create inserts a new person, enforcing AHV uniqueness per tenant.
func (s *InMemory) Create(ctx context.Context, p *models.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.persons[p.ID]; ok {
		return sentinel.ErrConflict
	}
	for _, existing := range s.persons {
		if existing.TenantID == p.TenantID && existing.AhvNr == p.AhvNr {
			return sentinel.ErrConflict
		}
	}
	s.persons[p.ID] = clonePerson(p)
	return nil
}

func (s *InMemory) FindByID(ctx context.Context, tenantID id.TenantID, personID id.PersonID) (*models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.persons[personID]
	if !ok || p.TenantID != tenantID {
		return nil, sentinel.ErrNotFound
	}
	return clonePerson(p), nil
}

func (s *InMemory) FindByAhv(ctx context.Context, tenantID id.TenantID, ahv models.AhvNumber) (*models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.persons {
		if p.TenantID == tenantID && p.AhvNr == ahv {
			return clonePerson(p), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// Search filters persons within a tenant by name fragment and status.
func (s *InMemory) Search(ctx context.Context, tenantID id.TenantID, q Query) ([]*models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	name := strings.ToLower(strings.TrimSpace(q.Name))
	var out []*models.Person
	for _, p := range s.persons {
		if p.TenantID != tenantID {
			continue
		}
		if q.Status != "" && p.Status != q.Status {
			continue
		}
		if name != "" &&
			!strings.Contains(strings.ToLower(p.LastName), name) &&
			!strings.Contains(strings.ToLower(p.FirstName), name) {
			continue
		}
		out = append(out, clonePerson(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastName != out[j].LastName {
			return out[i].LastName < out[j].LastName
		}
		return out[i].FirstName < out[j].FirstName
	})
	return paginate(out, q.Offset, q.Limit), nil
}

func paginate(ps []*models.Person, offset, limit int) []*models.Person {
	if offset >= len(ps) {
		return nil
	}
	ps = ps[offset:]
	if limit > 0 && limit < len(ps) {
		ps = ps[:limit]
	}
	return ps
}

// Update persists the aggregate if the caller's version matches the stored
// one, then increments the version on both sides.
func (s *InMemory) Update(ctx context.Context, p *models.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.persons[p.ID]
	if !ok || stored.TenantID != p.TenantID {
		return sentinel.ErrNotFound
	}
	if stored.Version != p.Version {
		return sentinel.ErrVersionMismatch
	}
	p.Version++
	s.persons[p.ID] = clonePerson(p)
	return nil
}

// AppendHistory inserts a new ledger entry.
func (s *InMemory) AppendHistory(ctx context.Context, e *models.PersonHistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.entries[e.PersonID] {
		if existing.HistoryID == e.HistoryID {
			return sentinel.ErrConflict
		}
	}
	s.entries[e.PersonID] = append(s.entries[e.PersonID], cloneEntry(e))
	return nil
}

// SupersedeHistory stamps supersededAt on an existing entry. It refuses to
// supersede twice.
func (s *InMemory) SupersedeHistory(ctx context.Context, personID id.PersonID, historyID id.HistoryID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries[personID] {
		if e.HistoryID != historyID {
			continue
		}
		if e.SupersededAt != nil {
			return sentinel.ErrConflict
		}
		t := at
		e.SupersededAt = &t
		return nil
	}
	return sentinel.ErrNotFound
}

func (s *InMemory) FindHistoryEntry(ctx context.Context, personID id.PersonID, historyID id.HistoryID) (*models.PersonHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, e := range s.entries[personID] {
		if e.HistoryID == historyID {
			return cloneEntry(e), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// HistoryOf returns the full ledger for a person, newest window first.
// Superseded rows are included; callers filter if they need the active view.
func (s *InMemory) HistoryOf(ctx context.Context, personID id.PersonID) ([]*models.PersonHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src := s.entries[personID]
	out := make([]*models.PersonHistoryEntry, 0, len(src))
	for _, e := range src {
		out = append(out, cloneEntry(e))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ValidFrom.Equal(out[j].ValidFrom) {
			return out[i].ValidFrom.After(out[j].ValidFrom)
		}
		return out[i].RecordedAt.After(out[j].RecordedAt)
	})
	return out, nil
}

// HistoryAt resolves the snapshot covering the given date. Only entries not
// superseded participate; with several candidates the one with the latest
// validFrom wins. A miss returns ErrNotFound, which callers treat as "the
// live record applies".
func (s *InMemory) HistoryAt(ctx context.Context, personID id.PersonID, date time.Time) (*models.PersonHistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d := history.DateOf(date)
	var best *models.PersonHistoryEntry
	for _, e := range s.entries[personID] {
		if e.IsSuperseded() || !e.Covers(d) {
			continue
		}
		if best == nil || e.ValidFrom.After(best.ValidFrom) {
			best = e
		}
	}
	if best == nil {
		return nil, sentinel.ErrNotFound
	}
	return cloneEntry(best), nil
}
