package app

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upntrack/upn-server/internal/tracker_service/domain"
)

// snapshotFixture builds a well-formed snapshot with one operator, two
// services, one phone and one usage row, all cross-referenced by fresh ids.
func snapshotFixture() *domain.Snapshot {
	op := &domain.Operator{ID: uuid.New(), Name: "MTS"}
	svA := &domain.Service{ID: uuid.New(), Name: "Yandex"}
	svB := &domain.Service{ID: uuid.New(), Name: "Ozon"}
	phone := &domain.Phone{ID: uuid.New(), Number: "89651091162", OperatorID: op.ID}
	usage := &domain.Usage{
		ID:        uuid.New(),
		PhoneID:   phone.ID,
		ServiceID: svA.ID,
		UsedAt:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	return &domain.Snapshot{
		Version: domain.SnapshotVersion,
		Data: domain.SnapshotData{
			Operators: []*domain.Operator{op},
			Services:  []*domain.Service{svA, svB},
			Phones:    []*domain.Phone{phone},
			Usage:     []*domain.Usage{usage},
		},
	}
}

func TestApplication_ImportSnapshot(t *testing.T) {
	ctx := context.Background()

	t.Run("EmptyStoreCreatesEverything", func(t *testing.T) {
		a := setupAppTest(t)
		report, err := a.ImportSnapshot(ctx, snapshotFixture())
		require.NoError(t, err)

		assert.Equal(t, int64(1), report.Operators.Created)
		assert.Equal(t, int64(2), report.Services.Created)
		assert.Equal(t, int64(1), report.Phones.Created)
		assert.Equal(t, int64(1), report.Usage.Created)

		phones, err := a.ListPhones(ctx)
		require.NoError(t, err)
		require.Len(t, phones, 1)
		assert.Equal(t, "+7 965 109 11 62", phones[0].NormalizedNumber)

		// the usage row keeps the snapshot's timestamp
		usages, err := a.ListUsage(ctx)
		require.NoError(t, err)
		require.Len(t, usages, 1)
		assert.Equal(t, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), usages[0].UsedAt)
	})

	t.Run("ReimportIsIdempotent", func(t *testing.T) {
		a := setupAppTest(t)
		snap := snapshotFixture()
		_, err := a.ImportSnapshot(ctx, snap)
		require.NoError(t, err)

		report, err := a.ImportSnapshot(ctx, snap)
		require.NoError(t, err)
		assert.Equal(t, int64(0), report.Operators.Created)
		assert.Equal(t, int64(1), report.Operators.SkippedDuplicate)
		assert.Equal(t, int64(2), report.Services.SkippedDuplicate)
		assert.Equal(t, int64(1), report.Phones.SkippedDuplicate)
		assert.Equal(t, int64(1), report.Usage.SkippedDuplicate)

		phones, err := a.ListPhones(ctx)
		require.NoError(t, err)
		assert.Len(t, phones, 1)
	})

	t.Run("RemapsAgainstExistingEntities", func(t *testing.T) {
		a := setupAppTest(t)
		op := mustCreateOperator(t, a, "MTS")
		existing := mustCreatePhone(t, a, "+79651091162", op.ID)

		report, err := a.ImportSnapshot(ctx, snapshotFixture())
		require.NoError(t, err)
		assert.Equal(t, int64(1), report.Operators.SkippedDuplicate)
		assert.Equal(t, int64(1), report.Phones.SkippedDuplicate)
		// usage lands on the pre-existing phone via the id remap
		assert.Equal(t, int64(1), report.Usage.Created)

		usages, err := a.ListUsageForPhone(ctx, existing.ID)
		require.NoError(t, err)
		assert.Len(t, usages, 1)
	})

	t.Run("MalformedRecordsCountedNotFatal", func(t *testing.T) {
		a := setupAppTest(t)
		snap := snapshotFixture()
		snap.Data.Operators = append(snap.Data.Operators, &domain.Operator{ID: uuid.New(), Name: "  "})
		snap.Data.Phones = append(snap.Data.Phones,
			&domain.Phone{ID: uuid.New(), Number: "not a number", OperatorID: snap.Data.Operators[0].ID},
			// phone referencing an operator absent from the snapshot
			&domain.Phone{ID: uuid.New(), Number: "89167775533", OperatorID: uuid.New()},
		)
		snap.Data.Usage = append(snap.Data.Usage,
			&domain.Usage{ID: uuid.New(), PhoneID: uuid.New(), ServiceID: uuid.New()},
		)

		report, err := a.ImportSnapshot(ctx, snap)
		require.NoError(t, err)
		assert.Equal(t, int64(1), report.Operators.FailedValidation)
		assert.Equal(t, int64(2), report.Phones.FailedValidation)
		assert.Equal(t, int64(1), report.Usage.FailedValidation)

		// well-formed records still landed
		assert.Equal(t, int64(1), report.Operators.Created)
		assert.Equal(t, int64(1), report.Phones.Created)
		assert.Equal(t, int64(1), report.Usage.Created)
	})

	t.Run("UnsupportedVersionRejected", func(t *testing.T) {
		a := setupAppTest(t)
		snap := snapshotFixture()
		snap.Version = 99
		_, err := a.ImportSnapshot(ctx, snap)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("NilSnapshotRejected", func(t *testing.T) {
		a := setupAppTest(t)
		_, err := a.ImportSnapshot(ctx, nil)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("CancelledContextAborts", func(t *testing.T) {
		a := setupAppTest(t)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		report, err := a.ImportSnapshot(cancelled, snapshotFixture())
		require.ErrorIs(t, err, context.Canceled)
		require.NotNil(t, report)
	})
}

func TestApplication_ExportSnapshot(t *testing.T) {
	ctx := context.Background()
	a := setupAppTest(t)
	op := mustCreateOperator(t, a, "MTS")
	p := mustCreatePhone(t, a, "+79651091162", op.ID)
	sv := mustCreateService(t, a, "Yandex")
	_, err := a.MarkUsed(ctx, p.ID, sv.ID)
	require.NoError(t, err)

	snap, err := a.ExportSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.SnapshotVersion, snap.Version)
	assert.False(t, snap.ExportedAt.IsZero())
	assert.Len(t, snap.Data.Operators, 1)
	assert.Len(t, snap.Data.Phones, 1)
	assert.Len(t, snap.Data.Services, 1)
	assert.Len(t, snap.Data.Usage, 1)

	// an exported snapshot re-imports into a fresh store without losses
	other := setupAppTest(t)
	report, err := other.ImportSnapshot(ctx, snap)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.Operators.Created)
	assert.Equal(t, int64(1), report.Phones.Created)
	assert.Equal(t, int64(1), report.Usage.Created)
}
