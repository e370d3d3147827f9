package domain

import "errors"

// ============================================================================
// Dataset Errors
// ============================================================================

// Not found errors
var (
	ErrDatasetNotFound = errors.New("dataset not found")
)

// Validation errors
var (
	ErrInvalidDatasetName = errors.New("dataset name must be a lowercase label of at most 63 characters")
	ErrEmptyDataset       = errors.New("dataset must have at least one row")
)

// Business rule errors
var (
	ErrDatasetInUse = errors.New("dataset is referenced by an emulator that is still training")
)

// ============================================================================
// Emulator Errors
// ============================================================================

// Not found errors
var (
	ErrEmulatorNotFound = errors.New("emulator not found")
)

// Conflict errors
var (
	ErrEmulatorNameConflict = errors.New("emulator with this name already exists")
)

// Validation errors
var (
	ErrInvalidEmulatorName   = errors.New("emulator name must be a lowercase label of at most 63 characters")
	ErrUnsupportedEstimator  = errors.New("unsupported estimator")
	ErrInvalidTrainTestRatio = errors.New("train_test_ratio must be greater than 0 and at most 1")
	ErrInvalidRidgeAlpha     = errors.New("ridge_alpha must be >= 0")
)

// Business rule errors
var (
	ErrEmulatorNotReady  = errors.New("emulator is not ready: training has not completed")
	ErrTrainingQueueFull = errors.New("training queue is full")
)

// ============================================================================
// Column Partition Errors
// ============================================================================

var (
	ErrNoInputColumns     = errors.New("at least one input column is required")
	ErrNoOutputColumns    = errors.New("at least one output column is required")
	ErrDuplicateColumn    = errors.New("column listed more than once")
	ErrOverlappingColumns = errors.New("input and output columns must be disjoint")
	ErrColumnNotInDataset = errors.New("column does not exist in the dataset")
	ErrMissingInputColumn = errors.New("prediction input is missing a required column")
	ErrEmptyInputTable    = errors.New("prediction input must have at least one row")
)
