package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/upntrack/upn-server/internal/tracker_service/domain"
)

// mergeCounter aggregates per-kind outcomes; atomic so concurrent record
// workers can count without coordination.
type mergeCounter struct {
	kind    string
	created atomic.Int64
	skipped atomic.Int64
	failed  atomic.Int64
}

func (c *mergeCounter) addCreated() {
	c.created.Add(1)
	mergeRecordsCounter.WithLabelValues(c.kind, "created").Inc()
}

func (c *mergeCounter) addSkipped() {
	c.skipped.Add(1)
	mergeRecordsCounter.WithLabelValues(c.kind, "skipped_duplicate").Inc()
}

func (c *mergeCounter) addFailed() {
	c.failed.Add(1)
	mergeRecordsCounter.WithLabelValues(c.kind, "failed_validation").Inc()
}

func (c *mergeCounter) counts() domain.MergeCounts {
	return domain.MergeCounts{
		Created:          c.created.Load(),
		SkippedDuplicate: c.skipped.Load(),
		FailedValidation: c.failed.Load(),
	}
}

// idRemap maps snapshot entity ids onto live store ids so cross-references
// survive the merge.
type idRemap struct {
	mu sync.Mutex
	m  map[uuid.UUID]uuid.UUID
}

func newIDRemap() *idRemap {
	return &idRemap{m: make(map[uuid.UUID]uuid.UUID)}
}

func (r *idRemap) set(from, to uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[from] = to
}

func (r *idRemap) get(from uuid.UUID) (uuid.UUID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	to, ok := r.m[from]
	return to, ok
}

// ImportSnapshot replays a snapshot through the regular create paths.
// The merge is best-effort and explicitly non-atomic: each record is applied
// independently, conflicts and validation failures are counted, and the
// merge proceeds. Records within a phase are applied concurrently; phases
// run in dependency order (operators, services, phones, usage).
//
// On context cancellation no further records are applied; the partial report
// is returned together with the context error.
func (a *Application) ImportSnapshot(ctx context.Context, snap *domain.Snapshot) (*domain.MergeReport, error) {
	if snap == nil {
		return nil, fmt.Errorf("%w: snapshot is required", domain.ErrValidation)
	}
	if snap.Version != 0 && snap.Version != domain.SnapshotVersion {
		return nil, fmt.Errorf("%w: unsupported snapshot version %d", domain.ErrValidation, snap.Version)
	}

	timer := prometheus.NewTimer(mergeDurationHist)
	defer timer.ObserveDuration()

	operatorIDs := newIDRemap()
	serviceIDs := newIDRemap()
	phoneIDs := newIDRemap()

	operatorCount := &mergeCounter{kind: "operator"}
	serviceCount := &mergeCounter{kind: "service"}
	phoneCount := &mergeCounter{kind: "phone"}
	usageCount := &mergeCounter{kind: "usage"}

	report := func() *domain.MergeReport {
		return &domain.MergeReport{
			Operators: operatorCount.counts(),
			Services:  serviceCount.counts(),
			Phones:    phoneCount.counts(),
			Usage:     usageCount.counts(),
		}
	}

	phases := []func(context.Context) error{
		func(pctx context.Context) error {
			return a.runMergePhase(pctx, len(snap.Data.Operators), func(wctx context.Context, i int) {
				a.mergeOperator(wctx, snap.Data.Operators[i], operatorCount, operatorIDs)
			})
		},
		func(pctx context.Context) error {
			return a.runMergePhase(pctx, len(snap.Data.Services), func(wctx context.Context, i int) {
				a.mergeService(wctx, snap.Data.Services[i], serviceCount, serviceIDs)
			})
		},
		func(pctx context.Context) error {
			return a.runMergePhase(pctx, len(snap.Data.Phones), func(wctx context.Context, i int) {
				a.mergePhone(wctx, snap.Data.Phones[i], phoneCount, operatorIDs, phoneIDs)
			})
		},
		func(pctx context.Context) error {
			return a.runMergePhase(pctx, len(snap.Data.Usage), func(wctx context.Context, i int) {
				a.mergeUsage(wctx, snap.Data.Usage[i], usageCount, phoneIDs, serviceIDs)
			})
		},
	}
	for _, phase := range phases {
		if err := phase(ctx); err != nil {
			return report(), err
		}
	}

	r := report()
	a.logger.InfoContext(ctx, "Snapshot merge complete",
		"operators", r.Operators, "services", r.Services, "phones", r.Phones, "usage", r.Usage)
	a.publishMergeEvent(ctx, *r)
	return r, nil
}

// runMergePhase applies n records through a bounded worker group. Worker
// errors are not propagated (outcomes are counted instead); only context
// cancellation aborts the phase.
func (a *Application) runMergePhase(ctx context.Context, n int, apply func(context.Context, int)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.mergeWorkers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			apply(gctx, i)
			return nil
		})
	}
	return g.Wait()
}

func (a *Application) mergeOperator(ctx context.Context, op *domain.Operator, count *mergeCounter, remap *idRemap) {
	if op == nil {
		count.addFailed()
		return
	}
	name := strings.TrimSpace(op.Name)
	if name == "" {
		count.addFailed()
		return
	}
	existing, err := a.operatorRepo.GetByName(ctx, name)
	if err == nil {
		remap.set(op.ID, existing.ID)
		count.addSkipped()
		return
	}
	if !errors.Is(err, domain.ErrNotFound) {
		a.logger.WarnContext(ctx, "Merge: operator lookup failed", "error", err, "name", name)
		count.addFailed()
		return
	}
	created := domain.NewOperator(name, op.LogoBase64)
	if err := a.operatorRepo.Create(ctx, created); err != nil {
		a.logger.WarnContext(ctx, "Merge: operator create failed", "error", err, "name", name)
		count.addFailed()
		return
	}
	remap.set(op.ID, created.ID)
	count.addCreated()
}

func (a *Application) mergeService(ctx context.Context, sv *domain.Service, count *mergeCounter, remap *idRemap) {
	if sv == nil {
		count.addFailed()
		return
	}
	name := strings.TrimSpace(sv.Name)
	if name == "" {
		count.addFailed()
		return
	}
	// Service names are not unique in the store; the first live match is
	// the deterministic merge target.
	existing, err := a.serviceRepo.GetByName(ctx, name)
	if err == nil {
		remap.set(sv.ID, existing.ID)
		count.addSkipped()
		return
	}
	if !errors.Is(err, domain.ErrNotFound) {
		a.logger.WarnContext(ctx, "Merge: service lookup failed", "error", err, "name", name)
		count.addFailed()
		return
	}
	created := domain.NewService(name, sv.LogoBase64)
	if err := a.serviceRepo.Create(ctx, created); err != nil {
		a.logger.WarnContext(ctx, "Merge: service create failed", "error", err, "name", name)
		count.addFailed()
		return
	}
	remap.set(sv.ID, created.ID)
	count.addCreated()
}

func (a *Application) mergePhone(ctx context.Context, p *domain.Phone, count *mergeCounter, operatorIDs, remap *idRemap) {
	if p == nil {
		count.addFailed()
		return
	}
	normalized, err := domain.NormalizePhoneNumber(p.Number)
	if err != nil {
		count.addFailed()
		return
	}
	existing, err := a.phoneRepo.GetByNormalizedNumber(ctx, normalized)
	if err == nil {
		remap.set(p.ID, existing.ID)
		count.addSkipped()
		return
	}
	if !errors.Is(err, domain.ErrNotFound) {
		a.logger.WarnContext(ctx, "Merge: phone lookup failed", "error", err)
		count.addFailed()
		return
	}
	operatorID, ok := operatorIDs.get(p.OperatorID)
	if !ok {
		// dangling operator reference in the snapshot
		count.addFailed()
		return
	}
	created := domain.NewPhone(p.Number, normalized, operatorID)
	err = a.phoneRepo.Create(ctx, created)
	switch {
	case err == nil:
		remap.set(p.ID, created.ID)
		count.addCreated()
	case errors.Is(err, domain.ErrDuplicatePhone):
		// lost a race with a concurrent record for the same number
		if existing, lookupErr := a.phoneRepo.GetByNormalizedNumber(ctx, normalized); lookupErr == nil {
			remap.set(p.ID, existing.ID)
		}
		count.addSkipped()
	default:
		a.logger.WarnContext(ctx, "Merge: phone create failed", "error", err)
		count.addFailed()
	}
}

func (a *Application) mergeUsage(ctx context.Context, u *domain.Usage, count *mergeCounter, phoneIDs, serviceIDs *idRemap) {
	if u == nil {
		count.addFailed()
		return
	}
	phoneID, okPhone := phoneIDs.get(u.PhoneID)
	serviceID, okService := serviceIDs.get(u.ServiceID)
	if !okPhone || !okService {
		count.addFailed()
		return
	}
	record := domain.NewUsage(phoneID, serviceID)
	if !u.UsedAt.IsZero() {
		record.UsedAt = u.UsedAt
	}
	err := a.usageRepo.Create(ctx, record)
	switch {
	case err == nil:
		count.addCreated()
	case errors.Is(err, domain.ErrDuplicateUsage):
		count.addSkipped()
	default:
		a.logger.WarnContext(ctx, "Merge: usage create failed", "error", err)
		count.addFailed()
	}
}

// ExportSnapshot assembles a snapshot of the full live state in the same
// format ImportSnapshot consumes.
func (a *Application) ExportSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	operators, err := a.operatorRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	services, err := a.serviceRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	phones, err := a.phoneRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	usage, err := a.usageRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	return &domain.Snapshot{
		Version:    domain.SnapshotVersion,
		ExportedAt: time.Now().UTC(),
		Data: domain.SnapshotData{
			Operators: operators,
			Services:  services,
			Phones:    phones,
			Usage:     usage,
		},
	}, nil
}
