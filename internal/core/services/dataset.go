package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"emulator-service/internal/core/domain"
	"emulator-service/internal/core/ports/output"
	"emulator-service/pkg/tabular"
)

type DatasetService struct {
	repo      ports.DatasetRepository
	emulators ports.EmulatorRepository
}

func NewDatasetService(repo ports.DatasetRepository, emulators ports.EmulatorRepository) *DatasetService {
	return &DatasetService{repo: repo, emulators: emulators}
}

// Upload creates or replaces the named dataset with the given table. The
// stored payload is the table's own CSV encoding, not the caller's raw bytes.
func (s *DatasetService) Upload(ctx context.Context, name string, table *tabular.Table) (*domain.Dataset, error) {
	if !domain.ValidName(name) {
		return nil, domain.ErrInvalidDatasetName
	}
	if table == nil || table.NumRows() == 0 {
		return nil, domain.ErrEmptyDataset
	}

	data, err := table.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encode dataset: %w", err)
	}

	now := time.Now()
	dataset := &domain.Dataset{
		ID:        uuid.New(),
		Name:      name,
		Columns:   append([]string(nil), table.Columns...),
		RowCount:  table.NumRows(),
		SizeBytes: int64(len(data)),
		CreatedAt: now,
		UpdatedAt: now,
		Data:      data,
	}

	if err := s.repo.Put(ctx, dataset); err != nil {
		return nil, err
	}
	return s.repo.GetByName(ctx, name)
}

func (s *DatasetService) Get(ctx context.Context, name string) (*domain.Dataset, error) {
	return s.repo.GetByName(ctx, name)
}

func (s *DatasetService) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Dataset, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	return s.repo.List(ctx, filter)
}

// Table parses the stored CSV payload back into a table.
func (s *DatasetService) Table(ctx context.Context, name string) (*tabular.Table, error) {
	dataset, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	table, err := tabular.ReadCSV(bytes.NewReader(dataset.Data))
	if err != nil {
		return nil, fmt.Errorf("parse stored dataset %q: %w", name, err)
	}
	return table, nil
}

// Summary returns the dataset record plus per-column descriptive statistics.
func (s *DatasetService) Summary(ctx context.Context, name string) (*domain.Dataset, []tabular.Summary, error) {
	dataset, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	table, err := tabular.ReadCSV(bytes.NewReader(dataset.Data))
	if err != nil {
		return nil, nil, fmt.Errorf("parse stored dataset %q: %w", name, err)
	}
	return dataset, table.Describe(), nil
}

// Delete removes the dataset unless a PENDING or TRAINING emulator still
// references it.
func (s *DatasetService) Delete(ctx context.Context, name string) error {
	if _, err := s.repo.GetByName(ctx, name); err != nil {
		return err
	}

	active, err := s.emulators.CountActiveByDataset(ctx, name)
	if err != nil {
		return err
	}
	if active > 0 {
		return domain.ErrDatasetInUse
	}

	return s.repo.Delete(ctx, name)
}
