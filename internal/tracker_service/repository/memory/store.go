// Package memory provides a mutex-guarded in-memory implementation of the
// tracker repositories. It backs the "memory" store driver and the app-level
// tests. Every operation runs under one store-wide lock, which makes each
// call atomic: the same uniqueness guarantees the Postgres schema enforces
// hold here by serialization.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/upntrack/upn-server/internal/tracker_service/domain"
)

type pairKey struct {
	phoneID   uuid.UUID
	serviceID uuid.UUID
}

// Store owns all entity state. Access it only through the repository views
// returned by Operators, Phones, Services and Usage.
type Store struct {
	mu sync.Mutex

	operators map[uuid.UUID]domain.Operator
	phones    map[uuid.UUID]domain.Phone
	services  map[uuid.UUID]domain.Service
	usages    map[uuid.UUID]domain.Usage

	byNormalized map[string]uuid.UUID
	byPair       map[pairKey]uuid.UUID

	seq    uint64
	seqOf  map[uuid.UUID]uint64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		operators:    make(map[uuid.UUID]domain.Operator),
		phones:       make(map[uuid.UUID]domain.Phone),
		services:     make(map[uuid.UUID]domain.Service),
		usages:       make(map[uuid.UUID]domain.Usage),
		byNormalized: make(map[string]uuid.UUID),
		byPair:       make(map[pairKey]uuid.UUID),
		seqOf:        make(map[uuid.UUID]uint64),
	}
}

// Operators returns the OperatorRepository view of the store.
func (s *Store) Operators() domain.OperatorRepository { return operatorRepo{s} }

// Phones returns the PhoneRepository view of the store.
func (s *Store) Phones() domain.PhoneRepository { return phoneRepo{s} }

// Services returns the ServiceRepository view of the store.
func (s *Store) Services() domain.ServiceRepository { return serviceRepo{s} }

// Usage returns the UsageRepository view of the store.
func (s *Store) Usage() domain.UsageRepository { return usageRepo{s} }

// track records insertion order so listings are deterministic even when two
// records share a creation timestamp.
func (s *Store) track(id uuid.UUID) {
	s.seq++
	s.seqOf[id] = s.seq
}

func (s *Store) less(a, b uuid.UUID) bool {
	return s.seqOf[a] < s.seqOf[b]
}

// --- Operators ---

type operatorRepo struct{ s *Store }

func (r operatorRepo) Create(_ context.Context, op *domain.Operator) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.operators[op.ID] = *op
	r.s.track(op.ID)
	return nil
}

func (r operatorRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Operator, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	op, ok := r.s.operators[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &op, nil
}

func (r operatorRepo) GetByName(_ context.Context, name string) (*domain.Operator, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var found *domain.Operator
	for id, op := range r.s.operators {
		if op.Name != name {
			continue
		}
		op := op
		if found == nil || r.s.less(id, found.ID) {
			found = &op
		}
	}
	if found == nil {
		return nil, domain.ErrNotFound
	}
	return found, nil
}

func (r operatorRepo) List(_ context.Context) ([]*domain.Operator, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*domain.Operator, 0, len(r.s.operators))
	for _, op := range r.s.operators {
		op := op
		out = append(out, &op)
	}
	sort.Slice(out, func(i, j int) bool { return r.s.less(out[i].ID, out[j].ID) })
	return out, nil
}

func (r operatorRepo) Update(_ context.Context, op *domain.Operator) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.operators[op.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.operators[op.ID] = *op
	return nil
}

func (r operatorRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.operators[id]; !ok {
		return domain.ErrNotFound
	}
	for _, p := range r.s.phones {
		if p.OperatorID == id {
			return domain.ErrHasDependents
		}
	}
	delete(r.s.operators, id)
	delete(r.s.seqOf, id)
	return nil
}

// --- Phones ---

type phoneRepo struct{ s *Store }

func (r phoneRepo) Create(_ context.Context, p *domain.Phone) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.operators[p.OperatorID]; !ok {
		return domain.ErrUnknownOperator
	}
	if _, taken := r.s.byNormalized[p.NormalizedNumber]; taken {
		return domain.ErrDuplicatePhone
	}
	r.s.phones[p.ID] = *p
	r.s.byNormalized[p.NormalizedNumber] = p.ID
	r.s.track(p.ID)
	return nil
}

func (r phoneRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Phone, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.phones[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r phoneRepo) GetByNormalizedNumber(_ context.Context, normalized string) (*domain.Phone, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	id, ok := r.s.byNormalized[normalized]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p := r.s.phones[id]
	return &p, nil
}

func (r phoneRepo) List(_ context.Context) ([]*domain.Phone, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*domain.Phone, 0, len(r.s.phones))
	for _, p := range r.s.phones {
		p := p
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return r.s.less(out[i].ID, out[j].ID) })
	return out, nil
}

func (r phoneRepo) Update(_ context.Context, p *domain.Phone) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	prev, ok := r.s.phones[p.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if _, ok := r.s.operators[p.OperatorID]; !ok {
		return domain.ErrUnknownOperator
	}
	if owner, taken := r.s.byNormalized[p.NormalizedNumber]; taken && owner != p.ID {
		return domain.ErrDuplicatePhone
	}
	delete(r.s.byNormalized, prev.NormalizedNumber)
	r.s.byNormalized[p.NormalizedNumber] = p.ID
	r.s.phones[p.ID] = *p
	return nil
}

func (r phoneRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.phones[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(r.s.phones, id)
	delete(r.s.byNormalized, p.NormalizedNumber)
	delete(r.s.seqOf, id)
	r.s.cascadeUsage(func(u domain.Usage) bool { return u.PhoneID == id })
	return nil
}

func (r phoneRepo) Search(_ context.Context, digits, literal string, limit int) ([]*domain.Phone, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Phone
	for _, p := range r.s.phones {
		p := p
		if phoneMatches(&p, digits, literal) {
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return r.s.less(out[i].ID, out[j].ID) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func phoneMatches(p *domain.Phone, digits, literal string) bool {
	if digits != "" {
		if strings.Contains(domain.DigitsOnly(p.Number), digits) ||
			strings.Contains(domain.DigitsOnly(p.NormalizedNumber), digits) {
			return true
		}
	}
	return literal != "" && strings.Contains(p.Number, literal)
}

// --- Services ---

type serviceRepo struct{ s *Store }

func (r serviceRepo) Create(_ context.Context, sv *domain.Service) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.services[sv.ID] = *sv
	r.s.track(sv.ID)
	return nil
}

func (r serviceRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sv, ok := r.s.services[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &sv, nil
}

func (r serviceRepo) GetByName(_ context.Context, name string) (*domain.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var found *domain.Service
	for id, sv := range r.s.services {
		if sv.Name != name {
			continue
		}
		sv := sv
		if found == nil || r.s.less(id, found.ID) {
			found = &sv
		}
	}
	if found == nil {
		return nil, domain.ErrNotFound
	}
	return found, nil
}

func (r serviceRepo) List(_ context.Context) ([]*domain.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*domain.Service, 0, len(r.s.services))
	for _, sv := range r.s.services {
		sv := sv
		out = append(out, &sv)
	}
	sort.Slice(out, func(i, j int) bool { return r.s.less(out[i].ID, out[j].ID) })
	return out, nil
}

func (r serviceRepo) Update(_ context.Context, sv *domain.Service) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.services[sv.ID]; !ok {
		return domain.ErrNotFound
	}
	r.s.services[sv.ID] = *sv
	return nil
}

func (r serviceRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.services[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.s.services, id)
	delete(r.s.seqOf, id)
	r.s.cascadeUsage(func(u domain.Usage) bool { return u.ServiceID == id })
	return nil
}

func (r serviceRepo) SearchByName(_ context.Context, query string, limit int) ([]*domain.Service, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	lowered := strings.ToLower(query)
	var out []*domain.Service
	for _, sv := range r.s.services {
		sv := sv
		if strings.Contains(strings.ToLower(sv.Name), lowered) {
			out = append(out, &sv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return r.s.less(out[i].ID, out[j].ID) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- Usage ---

type usageRepo struct{ s *Store }

func (r usageRepo) Create(_ context.Context, u *domain.Usage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.phones[u.PhoneID]; !ok {
		return domain.ErrUnknownPhone
	}
	if _, ok := r.s.services[u.ServiceID]; !ok {
		return domain.ErrUnknownService
	}
	key := pairKey{u.PhoneID, u.ServiceID}
	if _, taken := r.s.byPair[key]; taken {
		return domain.ErrDuplicateUsage
	}
	r.s.usages[u.ID] = *u
	r.s.byPair[key] = u.ID
	r.s.track(u.ID)
	return nil
}

func (r usageRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Usage, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.usages[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (r usageRepo) List(_ context.Context) ([]*domain.Usage, error) {
	return r.filtered(func(domain.Usage) bool { return true }), nil
}

func (r usageRepo) ListByPhone(_ context.Context, phoneID uuid.UUID) ([]*domain.Usage, error) {
	return r.filtered(func(u domain.Usage) bool { return u.PhoneID == phoneID }), nil
}

func (r usageRepo) ListByService(_ context.Context, serviceID uuid.UUID) ([]*domain.Usage, error) {
	return r.filtered(func(u domain.Usage) bool { return u.ServiceID == serviceID }), nil
}

func (r usageRepo) filtered(keep func(domain.Usage) bool) []*domain.Usage {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*domain.Usage
	for _, u := range r.s.usages {
		u := u
		if keep(u) {
			out = append(out, &u)
		}
	}
	// chronological, insertion order as tiebreak
	sort.Slice(out, func(i, j int) bool {
		if out[i].UsedAt.Equal(out[j].UsedAt) {
			return r.s.less(out[i].ID, out[j].ID)
		}
		return out[i].UsedAt.Before(out[j].UsedAt)
	})
	return out
}

func (r usageRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.usages[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(r.s.usages, id)
	delete(r.s.byPair, pairKey{u.PhoneID, u.ServiceID})
	delete(r.s.seqOf, id)
	return nil
}

func (r usageRepo) DeleteByPair(_ context.Context, phoneID, serviceID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := pairKey{phoneID, serviceID}
	id, ok := r.s.byPair[key]
	if !ok {
		return domain.ErrNotFound
	}
	delete(r.s.usages, id)
	delete(r.s.byPair, key)
	delete(r.s.seqOf, id)
	return nil
}

// cascadeUsage removes all usage rows matching the predicate. Callers hold
// the store lock.
func (s *Store) cascadeUsage(match func(domain.Usage) bool) {
	for id, u := range s.usages {
		if match(u) {
			delete(s.usages, id)
			delete(s.byPair, pairKey{u.PhoneID, u.ServiceID})
			delete(s.seqOf, id)
		}
	}
}
