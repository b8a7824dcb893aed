package domain

import (
	"context"

	"github.com/google/uuid"
)

// OperatorRepository manages Operator persistence.
type OperatorRepository interface {
	Create(ctx context.Context, op *Operator) error
	GetByID(ctx context.Context, id uuid.UUID) (*Operator, error)
	// GetByName returns the first live operator with the given name, or
	// ErrNotFound. Used as the natural key during snapshot merges.
	GetByName(ctx context.Context, name string) (*Operator, error)
	List(ctx context.Context) ([]*Operator, error)
	Update(ctx context.Context, op *Operator) error
	// Delete removes the operator. Returns ErrHasDependents while any live
	// phone still references it.
	Delete(ctx context.Context, id uuid.UUID) error
}

// PhoneRepository manages Phone persistence. Create and Update enforce
// normalized-number uniqueness atomically at the store; callers never
// pre-check and insert.
type PhoneRepository interface {
	Create(ctx context.Context, p *Phone) error
	GetByID(ctx context.Context, id uuid.UUID) (*Phone, error)
	GetByNormalizedNumber(ctx context.Context, normalized string) (*Phone, error)
	List(ctx context.Context) ([]*Phone, error)
	Update(ctx context.Context, p *Phone) error
	// Delete removes the phone and cascades deletion of its usage rows.
	Delete(ctx context.Context, id uuid.UUID) error
	// Search returns live phones whose digit projection contains digits, or
	// whose raw number contains the literal query. Matching is literal
	// substring containment; query text is never interpreted as a pattern.
	// Results are ordered by (created_at, id) ascending.
	Search(ctx context.Context, digits, literal string, limit int) ([]*Phone, error)
}

// ServiceRepository manages Service persistence.
type ServiceRepository interface {
	Create(ctx context.Context, s *Service) error
	GetByID(ctx context.Context, id uuid.UUID) (*Service, error)
	// GetByName returns the first live service with the given name, or
	// ErrNotFound. Names are not unique; merge uses first match.
	GetByName(ctx context.Context, name string) (*Service, error)
	List(ctx context.Context) ([]*Service, error)
	Update(ctx context.Context, s *Service) error
	// Delete removes the service and cascades deletion of its usage rows.
	Delete(ctx context.Context, id uuid.UUID) error
	// SearchByName returns live services whose name contains the query as a
	// case-insensitive literal substring, ordered by (created_at, id).
	SearchByName(ctx context.Context, query string, limit int) ([]*Service, error)
}

// UsageRepository manages the phone-to-service usage ledger. Create enforces
// pair uniqueness atomically; concurrent callers for the same pair get
// exactly one success and one ErrDuplicateUsage.
type UsageRepository interface {
	Create(ctx context.Context, u *Usage) error
	GetByID(ctx context.Context, id uuid.UUID) (*Usage, error)
	List(ctx context.Context) ([]*Usage, error)
	// ListByPhone returns usage rows for the phone ordered by used_at
	// ascending (id as tiebreak). ListByService is symmetric.
	ListByPhone(ctx context.Context, phoneID uuid.UUID) ([]*Usage, error)
	ListByService(ctx context.Context, serviceID uuid.UUID) ([]*Usage, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// DeleteByPair removes the unique live row for the pair, ErrNotFound if
	// none exists.
	DeleteByPair(ctx context.Context, phoneID, serviceID uuid.UUID) error
}
