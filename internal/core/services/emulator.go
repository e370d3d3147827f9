package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"emulator-service/internal/core/domain"
	"emulator-service/internal/core/ports/output"
	"emulator-service/internal/surrogate"
	"emulator-service/pkg/tabular"
)

// Prediction pairs the mean and std tables returned for one predict call.
// Both carry exactly the emulator's output columns, one row per input row.
type Prediction struct {
	Mean *tabular.Table
	Std  *tabular.Table
}

type EmulatorService struct {
	repo     ports.EmulatorRepository
	datasets ports.DatasetRepository
	queue    TrainingQueue
}

func NewEmulatorService(repo ports.EmulatorRepository, datasets ports.DatasetRepository, queue TrainingQueue) *EmulatorService {
	return &EmulatorService{repo: repo, datasets: datasets, queue: queue}
}

// Train validates the request, snapshots the dataset rows, stores a PENDING
// emulator and hands the job to the runner.
func (s *EmulatorService) Train(ctx context.Context, name, dataset string, inputs, outputs []string, params domain.TrainParams) (*domain.Emulator, error) {
	if !domain.ValidName(name) {
		return nil, domain.ErrInvalidEmulatorName
	}

	params.Normalize()
	if err := params.Validate(); err != nil {
		return nil, err
	}

	ds, err := s.datasets.GetByName(ctx, dataset)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateColumnSplit(inputs, outputs, ds.Columns); err != nil {
		return nil, err
	}

	table, err := tabular.ReadCSV(bytes.NewReader(ds.Data))
	if err != nil {
		return nil, fmt.Errorf("parse stored dataset %q: %w", dataset, err)
	}
	x, err := table.Select(inputs...)
	if err != nil {
		return nil, err
	}
	y, err := table.Select(outputs...)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	emulator := &domain.Emulator{
		ID:        uuid.New(),
		Name:      name,
		Dataset:   dataset,
		Inputs:    append([]string(nil), inputs...),
		Outputs:   append([]string(nil), outputs...),
		Params:    params,
		Status:    domain.EmulatorStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, emulator); err != nil {
		return nil, err
	}

	job := TrainJob{
		Emulator:    name,
		X:           x.Rows,
		Y:           y.Rows,
		OutputNames: emulator.Outputs,
		Params:      params,
	}
	if err := s.queue.Enqueue(job); err != nil {
		// Roll the record back so a retry is not blocked by a PENDING
		// emulator that will never run.
		_ = s.repo.Delete(ctx, name)
		return nil, err
	}

	return s.repo.GetByName(ctx, name)
}

func (s *EmulatorService) Get(ctx context.Context, name string) (*domain.Emulator, error) {
	return s.repo.GetByName(ctx, name)
}

// Status is Get under the name the polling route uses.
func (s *EmulatorService) Status(ctx context.Context, name string) (*domain.Emulator, error) {
	return s.repo.GetByName(ctx, name)
}

// Summary is Get under the name the summary route uses.
func (s *EmulatorService) Summary(ctx context.Context, name string) (*domain.Emulator, error) {
	return s.repo.GetByName(ctx, name)
}

func (s *EmulatorService) List(ctx context.Context, filter ports.EmulatorListFilter) ([]*domain.Emulator, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	return s.repo.List(ctx, filter)
}

// Predict evaluates a READY emulator on the given rows. The input table
// must contain every input column; extra columns are ignored.
func (s *EmulatorService) Predict(ctx context.Context, name string, table *tabular.Table) (*Prediction, error) {
	emulator, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if emulator.Status != domain.EmulatorStatusReady || emulator.Artifact == nil {
		return nil, domain.ErrEmulatorNotReady
	}
	if table == nil || table.NumRows() == 0 {
		return nil, domain.ErrEmptyInputTable
	}
	for _, col := range emulator.Inputs {
		if table.ColumnIndex(col) < 0 {
			return nil, fmt.Errorf("%w: %q", domain.ErrMissingInputColumn, col)
		}
	}

	x, err := table.Select(emulator.Inputs...)
	if err != nil {
		return nil, err
	}

	model := &surrogate.Model{
		Weights:     emulator.Artifact.Weights,
		ResidualStd: emulator.Artifact.ResidualStd,
	}
	mean, std, err := model.Predict(x.Rows)
	if err != nil {
		return nil, err
	}

	columns := append([]string(nil), emulator.Outputs...)
	return &Prediction{
		Mean: &tabular.Table{Columns: columns, Rows: mean},
		Std:  &tabular.Table{Columns: append([]string(nil), columns...), Rows: std},
	}, nil
}

// Delete removes the emulator, cancelling its training job first when one
// is still running.
func (s *EmulatorService) Delete(ctx context.Context, name string) error {
	emulator, err := s.repo.GetByName(ctx, name)
	if err != nil {
		return err
	}

	if !emulator.Status.Terminal() && s.queue != nil {
		s.queue.Cancel(name)
	}

	return s.repo.Delete(ctx, name)
}
