package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"emulator-service/internal/core/domain"
	"emulator-service/internal/testutil"
	"emulator-service/pkg/tabular"
)

// fakeQueue records submissions so tests can inspect the snapshot that
// would reach the runner.
type fakeQueue struct {
	jobs       []TrainJob
	enqueueErr error
	cancelled  []string
	cancelOK   bool
}

func (q *fakeQueue) Enqueue(job TrainJob) error {
	if q.enqueueErr != nil {
		return q.enqueueErr
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *fakeQueue) Cancel(name string) bool {
	q.cancelled = append(q.cancelled, name)
	return q.cancelOK
}

func storedDataset(t *testing.T) *domain.Dataset {
	t.Helper()
	table, err := tabular.New(
		[]string{"a", "b", "z"},
		[][]float64{{1, 2, 9}, {3, 4, 19}, {5, 6, 29}},
	)
	require.NoError(t, err)
	data, err := table.Bytes()
	require.NoError(t, err)
	return &domain.Dataset{Name: "demo", Columns: table.Columns, RowCount: 3, Data: data}
}

func TestEmulatorService_Train(t *testing.T) {
	repo := new(testutil.MockEmulatorRepo)
	datasets := new(testutil.MockDatasetRepo)
	queue := &fakeQueue{}
	svc := NewEmulatorService(repo, datasets, queue)

	datasets.On("GetByName", mock.Anything, "demo").Return(storedDataset(t), nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Emulator")).Return(nil)
	repo.On("GetByName", mock.Anything, "emu").
		Return(&domain.Emulator{Name: "emu", Status: domain.EmulatorStatusPending}, nil)

	emulator, err := svc.Train(context.Background(), "emu", "demo",
		[]string{"a", "b"}, []string{"z"}, domain.TrainParams{})
	assert.NoError(t, err)
	assert.Equal(t, domain.EmulatorStatusPending, emulator.Status)
	repo.AssertExpectations(t)

	created := repo.Calls[0].Arguments.Get(1).(*domain.Emulator)
	assert.Equal(t, domain.EmulatorStatusPending, created.Status)
	assert.Equal(t, "linear_ridge", created.Params.Estimator)
	assert.Equal(t, int64(42), created.Params.Seed)

	require.Len(t, queue.jobs, 1)
	job := queue.jobs[0]
	assert.Equal(t, "emu", job.Emulator)
	assert.Equal(t, [][]float64{{1, 2}, {3, 4}, {5, 6}}, job.X)
	assert.Equal(t, [][]float64{{9}, {19}, {29}}, job.Y)
	assert.Equal(t, []string{"z"}, job.OutputNames)
}

func TestEmulatorService_Train_InvalidName(t *testing.T) {
	svc := NewEmulatorService(new(testutil.MockEmulatorRepo), new(testutil.MockDatasetRepo), &fakeQueue{})

	_, err := svc.Train(context.Background(), "Not Valid", "demo",
		[]string{"a"}, []string{"z"}, domain.TrainParams{})
	assert.ErrorIs(t, err, domain.ErrInvalidEmulatorName)
}

func TestEmulatorService_Train_BadParams(t *testing.T) {
	svc := NewEmulatorService(new(testutil.MockEmulatorRepo), new(testutil.MockDatasetRepo), &fakeQueue{})

	_, err := svc.Train(context.Background(), "emu", "demo",
		[]string{"a"}, []string{"z"}, domain.TrainParams{Estimator: "quadratic"})
	assert.ErrorIs(t, err, domain.ErrUnsupportedEstimator)

	_, err = svc.Train(context.Background(), "emu", "demo",
		[]string{"a"}, []string{"z"}, domain.TrainParams{TrainTestRatio: 1.5})
	assert.ErrorIs(t, err, domain.ErrInvalidTrainTestRatio)
}

func TestEmulatorService_Train_DatasetMissing(t *testing.T) {
	datasets := new(testutil.MockDatasetRepo)
	svc := NewEmulatorService(new(testutil.MockEmulatorRepo), datasets, &fakeQueue{})

	datasets.On("GetByName", mock.Anything, "missing").Return(nil, domain.ErrDatasetNotFound)

	_, err := svc.Train(context.Background(), "emu", "missing",
		[]string{"a"}, []string{"z"}, domain.TrainParams{})
	assert.ErrorIs(t, err, domain.ErrDatasetNotFound)
}

func TestEmulatorService_Train_OverlappingColumns(t *testing.T) {
	datasets := new(testutil.MockDatasetRepo)
	svc := NewEmulatorService(new(testutil.MockEmulatorRepo), datasets, &fakeQueue{})

	datasets.On("GetByName", mock.Anything, "demo").Return(storedDataset(t), nil)

	_, err := svc.Train(context.Background(), "emu", "demo",
		[]string{"a", "b"}, []string{"b", "z"}, domain.TrainParams{})
	assert.ErrorIs(t, err, domain.ErrOverlappingColumns)
}

func TestEmulatorService_Train_NameConflict(t *testing.T) {
	repo := new(testutil.MockEmulatorRepo)
	datasets := new(testutil.MockDatasetRepo)
	svc := NewEmulatorService(repo, datasets, &fakeQueue{})

	datasets.On("GetByName", mock.Anything, "demo").Return(storedDataset(t), nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Emulator")).
		Return(domain.ErrEmulatorNameConflict)

	_, err := svc.Train(context.Background(), "emu", "demo",
		[]string{"a"}, []string{"z"}, domain.TrainParams{})
	assert.ErrorIs(t, err, domain.ErrEmulatorNameConflict)
}

func TestEmulatorService_Train_QueueFull(t *testing.T) {
	repo := new(testutil.MockEmulatorRepo)
	datasets := new(testutil.MockDatasetRepo)
	queue := &fakeQueue{enqueueErr: domain.ErrTrainingQueueFull}
	svc := NewEmulatorService(repo, datasets, queue)

	datasets.On("GetByName", mock.Anything, "demo").Return(storedDataset(t), nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Emulator")).Return(nil)
	repo.On("Delete", mock.Anything, "emu").Return(nil)

	_, err := svc.Train(context.Background(), "emu", "demo",
		[]string{"a"}, []string{"z"}, domain.TrainParams{})
	assert.ErrorIs(t, err, domain.ErrTrainingQueueFull)
	repo.AssertCalled(t, "Delete", mock.Anything, "emu")
}

func readyEmulator() *domain.Emulator {
	return &domain.Emulator{
		Name:    "emu",
		Dataset: "demo",
		Inputs:  []string{"a", "b"},
		Outputs: []string{"z"},
		Status:  domain.EmulatorStatusReady,
		Artifact: &domain.Artifact{
			// z = 1 + 2a + 3b
			Weights:     [][]float64{{1}, {2}, {3}},
			ResidualStd: []float64{0.5},
		},
	}
}

func TestEmulatorService_Predict(t *testing.T) {
	repo := new(testutil.MockEmulatorRepo)
	svc := NewEmulatorService(repo, new(testutil.MockDatasetRepo), &fakeQueue{})

	repo.On("GetByName", mock.Anything, "emu").Return(readyEmulator(), nil)

	// Columns arrive in a different order with an extra one; the service
	// selects the emulator's inputs by name.
	table, err := tabular.New([]string{"b", "extra", "a"}, [][]float64{{2, 0, 1}, {4, 0, 3}})
	require.NoError(t, err)

	pred, err := svc.Predict(context.Background(), "emu", table)
	assert.NoError(t, err)
	assert.Equal(t, []string{"z"}, pred.Mean.Columns)
	assert.Equal(t, []string{"z"}, pred.Std.Columns)
	require.Equal(t, 2, pred.Mean.NumRows())
	require.Equal(t, 2, pred.Std.NumRows())
	assert.InDelta(t, 9.0, pred.Mean.Rows[0][0], 1e-9)
	assert.InDelta(t, 19.0, pred.Mean.Rows[1][0], 1e-9)
	assert.InDelta(t, 0.5, pred.Std.Rows[0][0], 1e-9)
	assert.InDelta(t, 0.5, pred.Std.Rows[1][0], 1e-9)
}

func TestEmulatorService_Predict_NotReady(t *testing.T) {
	repo := new(testutil.MockEmulatorRepo)
	svc := NewEmulatorService(repo, new(testutil.MockDatasetRepo), &fakeQueue{})

	repo.On("GetByName", mock.Anything, "emu").
		Return(&domain.Emulator{Name: "emu", Status: domain.EmulatorStatusTraining}, nil)

	table, err := tabular.New([]string{"a", "b"}, [][]float64{{1, 2}})
	require.NoError(t, err)

	_, err = svc.Predict(context.Background(), "emu", table)
	assert.ErrorIs(t, err, domain.ErrEmulatorNotReady)
}

func TestEmulatorService_Predict_EmptyTable(t *testing.T) {
	repo := new(testutil.MockEmulatorRepo)
	svc := NewEmulatorService(repo, new(testutil.MockDatasetRepo), &fakeQueue{})

	repo.On("GetByName", mock.Anything, "emu").Return(readyEmulator(), nil)

	_, err := svc.Predict(context.Background(), "emu", &tabular.Table{Columns: []string{"a", "b"}})
	assert.ErrorIs(t, err, domain.ErrEmptyInputTable)
}

func TestEmulatorService_Predict_MissingColumn(t *testing.T) {
	repo := new(testutil.MockEmulatorRepo)
	svc := NewEmulatorService(repo, new(testutil.MockDatasetRepo), &fakeQueue{})

	repo.On("GetByName", mock.Anything, "emu").Return(readyEmulator(), nil)

	table, err := tabular.New([]string{"a"}, [][]float64{{1}})
	require.NoError(t, err)

	_, err = svc.Predict(context.Background(), "emu", table)
	assert.ErrorIs(t, err, domain.ErrMissingInputColumn)
	assert.Contains(t, err.Error(), `"b"`)
}

func TestEmulatorService_Delete_CancelsRunning(t *testing.T) {
	repo := new(testutil.MockEmulatorRepo)
	queue := &fakeQueue{cancelOK: true}
	svc := NewEmulatorService(repo, new(testutil.MockDatasetRepo), queue)

	repo.On("GetByName", mock.Anything, "emu").
		Return(&domain.Emulator{Name: "emu", Status: domain.EmulatorStatusTraining}, nil)
	repo.On("Delete", mock.Anything, "emu").Return(nil)

	err := svc.Delete(context.Background(), "emu")
	assert.NoError(t, err)
	assert.Equal(t, []string{"emu"}, queue.cancelled)
	repo.AssertExpectations(t)
}

func TestEmulatorService_Delete_TerminalSkipsCancel(t *testing.T) {
	repo := new(testutil.MockEmulatorRepo)
	queue := &fakeQueue{}
	svc := NewEmulatorService(repo, new(testutil.MockDatasetRepo), queue)

	repo.On("GetByName", mock.Anything, "emu").Return(readyEmulator(), nil)
	repo.On("Delete", mock.Anything, "emu").Return(nil)

	err := svc.Delete(context.Background(), "emu")
	assert.NoError(t, err)
	assert.Empty(t, queue.cancelled)
}

func TestEmulatorService_Delete_NotFound(t *testing.T) {
	repo := new(testutil.MockEmulatorRepo)
	svc := NewEmulatorService(repo, new(testutil.MockDatasetRepo), &fakeQueue{})

	repo.On("GetByName", mock.Anything, "missing").Return(nil, domain.ErrEmulatorNotFound)

	err := svc.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrEmulatorNotFound)
}
