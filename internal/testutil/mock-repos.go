package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"emulator-service/internal/core/domain"
	"emulator-service/internal/core/ports/output"
)

// MockDatasetRepo is a mock of DatasetRepository.
type MockDatasetRepo struct {
	mock.Mock
}

func (m *MockDatasetRepo) Put(ctx context.Context, dataset *domain.Dataset) error {
	args := m.Called(ctx, dataset)
	return args.Error(0)
}

func (m *MockDatasetRepo) GetByName(ctx context.Context, name string) (*domain.Dataset, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dataset), args.Error(1)
}

func (m *MockDatasetRepo) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Dataset, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*domain.Dataset), args.Int(1), args.Error(2)
}

func (m *MockDatasetRepo) Delete(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

// MockEmulatorRepo is a mock of EmulatorRepository.
type MockEmulatorRepo struct {
	mock.Mock
}

func (m *MockEmulatorRepo) Create(ctx context.Context, emulator *domain.Emulator) error {
	args := m.Called(ctx, emulator)
	return args.Error(0)
}

func (m *MockEmulatorRepo) GetByName(ctx context.Context, name string) (*domain.Emulator, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Emulator), args.Error(1)
}

func (m *MockEmulatorRepo) List(ctx context.Context, filter ports.EmulatorListFilter) ([]*domain.Emulator, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*domain.Emulator), args.Int(1), args.Error(2)
}

func (m *MockEmulatorRepo) Update(ctx context.Context, emulator *domain.Emulator) error {
	args := m.Called(ctx, emulator)
	return args.Error(0)
}

func (m *MockEmulatorRepo) UpdateStatus(ctx context.Context, name string, status domain.EmulatorStatus, message string) error {
	args := m.Called(ctx, name, status, message)
	return args.Error(0)
}

func (m *MockEmulatorRepo) Delete(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

func (m *MockEmulatorRepo) CountActiveByDataset(ctx context.Context, dataset string) (int, error) {
	args := m.Called(ctx, dataset)
	return args.Int(0), args.Error(1)
}
