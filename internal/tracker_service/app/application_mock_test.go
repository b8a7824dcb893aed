package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/upntrack/upn-server/internal/tracker_service/domain"
)

// --- Mocks ---

type MockOperatorRepository struct {
	mock.Mock
}

func (m *MockOperatorRepository) Create(ctx context.Context, op *domain.Operator) error {
	args := m.Called(ctx, op)
	return args.Error(0)
}

func (m *MockOperatorRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Operator, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Operator), args.Error(1)
}

func (m *MockOperatorRepository) GetByName(ctx context.Context, name string) (*domain.Operator, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Operator), args.Error(1)
}

func (m *MockOperatorRepository) List(ctx context.Context) ([]*domain.Operator, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Operator), args.Error(1)
}

func (m *MockOperatorRepository) Update(ctx context.Context, op *domain.Operator) error {
	args := m.Called(ctx, op)
	return args.Error(0)
}

func (m *MockOperatorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockPhoneRepository struct {
	mock.Mock
}

func (m *MockPhoneRepository) Create(ctx context.Context, p *domain.Phone) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPhoneRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Phone, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Phone), args.Error(1)
}

func (m *MockPhoneRepository) GetByNormalizedNumber(ctx context.Context, normalized string) (*domain.Phone, error) {
	args := m.Called(ctx, normalized)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Phone), args.Error(1)
}

func (m *MockPhoneRepository) List(ctx context.Context) ([]*domain.Phone, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Phone), args.Error(1)
}

func (m *MockPhoneRepository) Update(ctx context.Context, p *domain.Phone) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPhoneRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPhoneRepository) Search(ctx context.Context, digits, literal string, limit int) ([]*domain.Phone, error) {
	args := m.Called(ctx, digits, literal, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Phone), args.Error(1)
}

type MockServiceRepository struct {
	mock.Mock
}

func (m *MockServiceRepository) Create(ctx context.Context, s *domain.Service) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockServiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Service, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Service), args.Error(1)
}

func (m *MockServiceRepository) GetByName(ctx context.Context, name string) (*domain.Service, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Service), args.Error(1)
}

func (m *MockServiceRepository) List(ctx context.Context) ([]*domain.Service, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Service), args.Error(1)
}

func (m *MockServiceRepository) Update(ctx context.Context, s *domain.Service) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockServiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockServiceRepository) SearchByName(ctx context.Context, query string, limit int) ([]*domain.Service, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Service), args.Error(1)
}

type MockUsageRepository struct {
	mock.Mock
}

func (m *MockUsageRepository) Create(ctx context.Context, u *domain.Usage) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUsageRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Usage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Usage), args.Error(1)
}

func (m *MockUsageRepository) List(ctx context.Context) ([]*domain.Usage, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Usage), args.Error(1)
}

func (m *MockUsageRepository) ListByPhone(ctx context.Context, phoneID uuid.UUID) ([]*domain.Usage, error) {
	args := m.Called(ctx, phoneID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Usage), args.Error(1)
}

func (m *MockUsageRepository) ListByService(ctx context.Context, serviceID uuid.UUID) ([]*domain.Usage, error) {
	args := m.Called(ctx, serviceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Usage), args.Error(1)
}

func (m *MockUsageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUsageRepository) DeleteByPair(ctx context.Context, phoneID, serviceID uuid.UUID) error {
	args := m.Called(ctx, phoneID, serviceID)
	return args.Error(0)
}

// --- Test Setup ---

type appMockTestComponents struct {
	app          *Application
	operatorRepo *MockOperatorRepository
	phoneRepo    *MockPhoneRepository
	serviceRepo  *MockServiceRepository
	usageRepo    *MockUsageRepository
}

func setupAppMockTest(t *testing.T) appMockTestComponents {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	operatorRepo := new(MockOperatorRepository)
	phoneRepo := new(MockPhoneRepository)
	serviceRepo := new(MockServiceRepository)
	usageRepo := new(MockUsageRepository)
	application := NewApplication(operatorRepo, phoneRepo, serviceRepo, usageRepo, logger)
	return appMockTestComponents{
		app:          application,
		operatorRepo: operatorRepo,
		phoneRepo:    phoneRepo,
		serviceRepo:  serviceRepo,
		usageRepo:    usageRepo,
	}
}

// --- Storage error propagation ---

func TestApplication_StorageErrors(t *testing.T) {
	ctx := context.Background()
	storageErr := errors.New("connection reset")

	t.Run("CreateOperator", func(t *testing.T) {
		comps := setupAppMockTest(t)
		comps.operatorRepo.On("Create", ctx, mock.AnythingOfType("*domain.Operator")).Return(storageErr).Once()

		op, err := comps.app.CreateOperator(ctx, "MTS", "")
		require.Error(t, err)
		assert.Nil(t, op)
		assert.Equal(t, storageErr, err)
		comps.operatorRepo.AssertExpectations(t)
	})

	t.Run("CreatePhoneSkipsRepoOnBadNumber", func(t *testing.T) {
		comps := setupAppMockTest(t)

		_, err := comps.app.CreatePhone(ctx, "abc", uuid.New())
		require.ErrorIs(t, err, domain.ErrNotPhoneNumber)
		comps.phoneRepo.AssertNotCalled(t, "Create")
	})

	t.Run("CreatePhonePropagatesRepoError", func(t *testing.T) {
		comps := setupAppMockTest(t)
		comps.phoneRepo.On("Create", ctx, mock.MatchedBy(func(p *domain.Phone) bool {
			return p.NormalizedNumber == "+7 965 109 11 62"
		})).Return(storageErr).Once()

		_, err := comps.app.CreatePhone(ctx, "+79651091162", uuid.New())
		require.Error(t, err)
		assert.Equal(t, storageErr, err)
		comps.phoneRepo.AssertExpectations(t)
	})

	t.Run("MarkUsedPhoneLookupFails", func(t *testing.T) {
		comps := setupAppMockTest(t)
		phoneID := uuid.New()
		comps.phoneRepo.On("GetByID", ctx, phoneID).Return(nil, storageErr).Once()

		_, err := comps.app.MarkUsed(ctx, phoneID, uuid.New())
		require.Error(t, err)
		assert.Equal(t, storageErr, err)
		comps.usageRepo.AssertNotCalled(t, "Create")
	})

	t.Run("SearchPhoneRepoFails", func(t *testing.T) {
		comps := setupAppMockTest(t)
		comps.phoneRepo.On("Search", ctx, "965", "965", 10).Return(nil, storageErr).Once()

		_, err := comps.app.Search(ctx, "965")
		require.Error(t, err)
		assert.Equal(t, storageErr, err)
		comps.serviceRepo.AssertNotCalled(t, "SearchByName")
	})

	t.Run("ExportSnapshotListFails", func(t *testing.T) {
		comps := setupAppMockTest(t)
		comps.operatorRepo.On("List", ctx).Return(nil, storageErr).Once()

		_, err := comps.app.ExportSnapshot(ctx)
		require.Error(t, err)
		assert.Equal(t, storageErr, err)
	})
}
