package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/upntrack/upn-server/internal/tracker_service/domain"
)

// Application exposes every tracker operation: entity CRUD, the usage
// ledger, free-text search and snapshot import/export. All invariants are
// enforced here or in the repositories beneath; callers (HTTP transport)
// only translate errors.
type Application struct {
	operatorRepo domain.OperatorRepository
	phoneRepo    domain.PhoneRepository
	serviceRepo  domain.ServiceRepository
	usageRepo    domain.UsageRepository
	publisher    EventPublisher
	logger       *slog.Logger

	searchLimit  int
	mergeWorkers int
}

// Option tweaks Application construction.
type Option func(*Application)

// WithSearchLimit caps search results per entity kind.
func WithSearchLimit(n int) Option {
	return func(a *Application) {
		if n > 0 {
			a.searchLimit = n
		}
	}
}

// WithMergeWorkers bounds concurrent record applies within a merge phase.
func WithMergeWorkers(n int) Option {
	return func(a *Application) {
		if n > 0 {
			a.mergeWorkers = n
		}
	}
}

// WithEventPublisher attaches a lifecycle event publisher. Without one,
// events are dropped.
func WithEventPublisher(p EventPublisher) Option {
	return func(a *Application) { a.publisher = p }
}

// NewApplication creates an Application over the given repositories.
func NewApplication(
	operatorRepo domain.OperatorRepository,
	phoneRepo domain.PhoneRepository,
	serviceRepo domain.ServiceRepository,
	usageRepo domain.UsageRepository,
	logger *slog.Logger,
	opts ...Option,
) *Application {
	a := &Application{
		operatorRepo: operatorRepo,
		phoneRepo:    phoneRepo,
		serviceRepo:  serviceRepo,
		usageRepo:    usageRepo,
		logger:       logger,
		searchLimit:  10,
		mergeWorkers: 4,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// --- Operators ---

func (a *Application) CreateOperator(ctx context.Context, name, logoBase64 string) (*domain.Operator, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: operator name is required", domain.ErrValidation)
	}
	op := domain.NewOperator(name, logoBase64)
	if err := a.operatorRepo.Create(ctx, op); err != nil {
		return nil, err
	}
	a.logger.InfoContext(ctx, "Operator created", "operator_id", op.ID, "name", op.Name)
	entitiesCreatedCounter.WithLabelValues("operator").Inc()
	a.publishEntityEvent(ctx, domain.SubjectOperatorCreated, op.ID, op.Name)
	return op, nil
}

func (a *Application) GetOperator(ctx context.Context, id uuid.UUID) (*domain.Operator, error) {
	return a.operatorRepo.GetByID(ctx, id)
}

func (a *Application) ListOperators(ctx context.Context) ([]*domain.Operator, error) {
	return a.operatorRepo.List(ctx)
}

func (a *Application) UpdateOperator(ctx context.Context, id uuid.UUID, name, logoBase64 string) (*domain.Operator, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: operator name is required", domain.ErrValidation)
	}
	op, err := a.operatorRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	op.Name = name
	op.LogoBase64 = logoBase64
	if err := a.operatorRepo.Update(ctx, op); err != nil {
		return nil, err
	}
	return op, nil
}

// DeleteOperator rejects with ErrHasDependents while live phones reference
// the operator; operator deletion never cascades.
func (a *Application) DeleteOperator(ctx context.Context, id uuid.UUID) error {
	if err := a.operatorRepo.Delete(ctx, id); err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "Operator deleted", "operator_id", id)
	a.publishEntityEvent(ctx, domain.SubjectOperatorDeleted, id, "")
	return nil
}

// --- Phones ---

// CreatePhone normalizes the raw number, then inserts. Uniqueness of the
// normalized number is enforced atomically by the store, not by a
// check-then-insert here.
func (a *Application) CreatePhone(ctx context.Context, rawNumber string, operatorID uuid.UUID) (*domain.Phone, error) {
	normalized, err := domain.NormalizePhoneNumber(rawNumber)
	if err != nil {
		return nil, err
	}
	p := domain.NewPhone(strings.TrimSpace(rawNumber), normalized, operatorID)
	if err := a.phoneRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	a.logger.InfoContext(ctx, "Phone created", "phone_id", p.ID, "normalized_number", p.NormalizedNumber)
	entitiesCreatedCounter.WithLabelValues("phone").Inc()
	a.publishEntityEvent(ctx, domain.SubjectPhoneCreated, p.ID, p.NormalizedNumber)
	return p, nil
}

func (a *Application) GetPhone(ctx context.Context, id uuid.UUID) (*domain.Phone, error) {
	return a.phoneRepo.GetByID(ctx, id)
}

func (a *Application) ListPhones(ctx context.Context) ([]*domain.Phone, error) {
	return a.phoneRepo.List(ctx)
}

// UpdatePhone re-validates exactly as create: a new raw number is
// re-normalized and re-checked for uniqueness, a new operator id must
// reference a live operator. Nil arguments leave the field unchanged.
func (a *Application) UpdatePhone(ctx context.Context, id uuid.UUID, rawNumber *string, operatorID *uuid.UUID) (*domain.Phone, error) {
	p, err := a.phoneRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rawNumber != nil {
		normalized, err := domain.NormalizePhoneNumber(*rawNumber)
		if err != nil {
			return nil, err
		}
		p.Number = strings.TrimSpace(*rawNumber)
		p.NormalizedNumber = normalized
	}
	if operatorID != nil {
		p.OperatorID = *operatorID
	}
	if err := a.phoneRepo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// DeletePhone removes the phone and all usage rows referencing it. Deleting
// twice yields ErrNotFound the second time.
func (a *Application) DeletePhone(ctx context.Context, id uuid.UUID) error {
	if err := a.phoneRepo.Delete(ctx, id); err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "Phone deleted", "phone_id", id)
	a.publishEntityEvent(ctx, domain.SubjectPhoneDeleted, id, "")
	return nil
}

// NormalizePhone exposes the pure normalizer for client-side validation
// feedback.
func (a *Application) NormalizePhone(raw string) (string, error) {
	return domain.NormalizePhoneNumber(raw)
}

// --- Services ---

func (a *Application) CreateService(ctx context.Context, name, logoBase64 string) (*domain.Service, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: service name is required", domain.ErrValidation)
	}
	sv := domain.NewService(name, logoBase64)
	if err := a.serviceRepo.Create(ctx, sv); err != nil {
		return nil, err
	}
	a.logger.InfoContext(ctx, "Service created", "service_id", sv.ID, "name", sv.Name)
	entitiesCreatedCounter.WithLabelValues("service").Inc()
	a.publishEntityEvent(ctx, domain.SubjectServiceCreated, sv.ID, sv.Name)
	return sv, nil
}

func (a *Application) GetService(ctx context.Context, id uuid.UUID) (*domain.Service, error) {
	return a.serviceRepo.GetByID(ctx, id)
}

func (a *Application) ListServices(ctx context.Context) ([]*domain.Service, error) {
	return a.serviceRepo.List(ctx)
}

func (a *Application) UpdateService(ctx context.Context, id uuid.UUID, name, logoBase64 string) (*domain.Service, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: service name is required", domain.ErrValidation)
	}
	sv, err := a.serviceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sv.Name = name
	sv.LogoBase64 = logoBase64
	if err := a.serviceRepo.Update(ctx, sv); err != nil {
		return nil, err
	}
	return sv, nil
}

// DeleteService removes the service and all usage rows referencing it.
func (a *Application) DeleteService(ctx context.Context, id uuid.UUID) error {
	if err := a.serviceRepo.Delete(ctx, id); err != nil {
		return err
	}
	a.logger.InfoContext(ctx, "Service deleted", "service_id", id)
	a.publishEntityEvent(ctx, domain.SubjectServiceDeleted, id, "")
	return nil
}

// --- Usage ledger ---

// MarkUsed records that the phone was used with the service. The pair
// constraint in the store guarantees at most one live row per pair even
// under concurrent callers.
func (a *Application) MarkUsed(ctx context.Context, phoneID, serviceID uuid.UUID) (*domain.Usage, error) {
	// Distinguish dangling references up front so callers get ErrUnknown*
	// rather than a blind FK failure ordering.
	if _, err := a.phoneRepo.GetByID(ctx, phoneID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnknownPhone
		}
		return nil, err
	}
	if _, err := a.serviceRepo.GetByID(ctx, serviceID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnknownService
		}
		return nil, err
	}
	u := domain.NewUsage(phoneID, serviceID)
	if err := a.usageRepo.Create(ctx, u); err != nil {
		return nil, err
	}
	a.logger.InfoContext(ctx, "Usage recorded", "usage_id", u.ID, "phone_id", phoneID, "service_id", serviceID)
	entitiesCreatedCounter.WithLabelValues("usage").Inc()
	a.publishEntityEvent(ctx, domain.SubjectUsageMarked, u.ID, "")
	return u, nil
}

// MarkUnused deletes the unique live usage row for the pair.
func (a *Application) MarkUnused(ctx context.Context, phoneID, serviceID uuid.UUID) error {
	if err := a.usageRepo.DeleteByPair(ctx, phoneID, serviceID); err != nil {
		return err
	}
	a.publishEntityEvent(ctx, domain.SubjectUsageUnmarked, phoneID, "")
	return nil
}

// DeleteUsage removes a usage row by its id.
func (a *Application) DeleteUsage(ctx context.Context, id uuid.UUID) error {
	if err := a.usageRepo.Delete(ctx, id); err != nil {
		return err
	}
	a.publishEntityEvent(ctx, domain.SubjectUsageUnmarked, id, "")
	return nil
}

// ListUsage returns all usage rows in chronological order.
func (a *Application) ListUsage(ctx context.Context) ([]*domain.Usage, error) {
	return a.usageRepo.List(ctx)
}

// ListUsageForPhone returns the phone's usage rows ordered by used_at
// ascending. Callers wanting recent-first reverse the slice.
func (a *Application) ListUsageForPhone(ctx context.Context, phoneID uuid.UUID) ([]*domain.Usage, error) {
	if _, err := a.phoneRepo.GetByID(ctx, phoneID); err != nil {
		return nil, err
	}
	return a.usageRepo.ListByPhone(ctx, phoneID)
}

// ListUsageForService is the per-service counterpart of ListUsageForPhone.
func (a *Application) ListUsageForService(ctx context.Context, serviceID uuid.UUID) ([]*domain.Usage, error) {
	if _, err := a.serviceRepo.GetByID(ctx, serviceID); err != nil {
		return nil, err
	}
	return a.usageRepo.ListByService(ctx, serviceID)
}

// PhoneServiceBreakdown partitions the full service catalog into services
// the phone was used with (annotated with usage id and timestamp) and the
// rest. One pass over services plus one over the phone's usage rows.
func (a *Application) PhoneServiceBreakdown(ctx context.Context, phoneID uuid.UUID) ([]domain.ServiceUsage, error) {
	if _, err := a.phoneRepo.GetByID(ctx, phoneID); err != nil {
		return nil, err
	}
	services, err := a.serviceRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	usages, err := a.usageRepo.ListByPhone(ctx, phoneID)
	if err != nil {
		return nil, err
	}
	byService := make(map[uuid.UUID]*domain.Usage, len(usages))
	for _, u := range usages {
		byService[u.ServiceID] = u
	}
	out := make([]domain.ServiceUsage, 0, len(services))
	for _, sv := range services {
		entry := domain.ServiceUsage{Service: sv}
		if u, ok := byService[sv.ID]; ok {
			entry.UsageID = &u.ID
			entry.UsedAt = &u.UsedAt
		}
		out = append(out, entry)
	}
	return out, nil
}

// ServicePhoneBreakdown is the symmetric partition of all phones for a
// given service.
func (a *Application) ServicePhoneBreakdown(ctx context.Context, serviceID uuid.UUID) ([]domain.PhoneUsage, error) {
	if _, err := a.serviceRepo.GetByID(ctx, serviceID); err != nil {
		return nil, err
	}
	phones, err := a.phoneRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	usages, err := a.usageRepo.ListByService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	byPhone := make(map[uuid.UUID]*domain.Usage, len(usages))
	for _, u := range usages {
		byPhone[u.PhoneID] = u
	}
	out := make([]domain.PhoneUsage, 0, len(phones))
	for _, p := range phones {
		entry := domain.PhoneUsage{Phone: p}
		if u, ok := byPhone[p.ID]; ok {
			entry.UsageID = &u.ID
			entry.UsedAt = &u.UsedAt
		}
		out = append(out, entry)
	}
	return out, nil
}
