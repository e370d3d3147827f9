package ports

import (
	"context"

	"emulator-service/internal/core/domain"
)

type ListFilter struct {
	Search string
	Limit  int
	Offset int
}

type EmulatorListFilter struct {
	Dataset string
	Status  string
	Limit   int
	Offset  int
}

// DatasetRepository persists datasets keyed by name. Put has upsert
// semantics: replacing an existing dataset keeps its ID and creation time.
// List omits the Data payload; GetByName includes it.
type DatasetRepository interface {
	Put(ctx context.Context, dataset *domain.Dataset) error
	GetByName(ctx context.Context, name string) (*domain.Dataset, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.Dataset, int, error)
	Delete(ctx context.Context, name string) error
}

// EmulatorRepository persists emulators keyed by name.
type EmulatorRepository interface {
	Create(ctx context.Context, emulator *domain.Emulator) error
	GetByName(ctx context.Context, name string) (*domain.Emulator, error)
	List(ctx context.Context, filter EmulatorListFilter) ([]*domain.Emulator, int, error)
	Update(ctx context.Context, emulator *domain.Emulator) error
	// UpdateStatus flips only the status and failure message, leaving the
	// rest of the record untouched.
	UpdateStatus(ctx context.Context, name string, status domain.EmulatorStatus, message string) error
	Delete(ctx context.Context, name string) error
	// CountActiveByDataset counts emulators referencing the dataset whose
	// training has not reached a terminal status.
	CountActiveByDataset(ctx context.Context, dataset string) (int, error)
}
