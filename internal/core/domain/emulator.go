package domain

import (
	"time"

	"github.com/google/uuid"
)

type EmulatorStatus string

const (
	EmulatorStatusPending  EmulatorStatus = "PENDING"
	EmulatorStatusTraining EmulatorStatus = "TRAINING"
	EmulatorStatusReady    EmulatorStatus = "READY"
	EmulatorStatusFailed   EmulatorStatus = "FAILED"
)

// Terminal reports whether the training job has finished, successfully or not.
func (s EmulatorStatus) Terminal() bool {
	return s == EmulatorStatusReady || s == EmulatorStatusFailed
}

// Estimators the reference trainer implements.
var SupportedEstimators = map[string]bool{
	"linear_ridge": true,
}

const DefaultEstimator = "linear_ridge"

// TrainParams are the hyperparameters accepted with a train request.
type TrainParams struct {
	Estimator      string  `json:"estimator"`
	TrainTestRatio float64 `json:"train_test_ratio"`
	RidgeAlpha     float64 `json:"ridge_alpha"`
	Seed           int64   `json:"seed"`
}

func DefaultTrainParams() TrainParams {
	return TrainParams{
		Estimator:      DefaultEstimator,
		TrainTestRatio: 1.0,
		RidgeAlpha:     1e-6,
		Seed:           42,
	}
}

// Normalize fills zero-valued fields with their defaults.
func (p *TrainParams) Normalize() {
	def := DefaultTrainParams()
	if p.Estimator == "" {
		p.Estimator = def.Estimator
	}
	if p.TrainTestRatio == 0 {
		p.TrainTestRatio = def.TrainTestRatio
	}
	if p.RidgeAlpha == 0 {
		p.RidgeAlpha = def.RidgeAlpha
	}
	if p.Seed == 0 {
		p.Seed = def.Seed
	}
}

func (p TrainParams) Validate() error {
	if !SupportedEstimators[p.Estimator] {
		return ErrUnsupportedEstimator
	}
	if p.TrainTestRatio <= 0 || p.TrainTestRatio > 1 {
		return ErrInvalidTrainTestRatio
	}
	if p.RidgeAlpha < 0 {
		return ErrInvalidRidgeAlpha
	}
	return nil
}

// Artifact is the trained surrogate stored with a READY emulator. Weights is
// a (len(inputs)+1) x len(outputs) matrix with the bias row first;
// ResidualStd carries one value per output column. Metrics holds the holdout
// RMSE per output when a holdout split existed.
type Artifact struct {
	Weights     [][]float64        `json:"weights"`
	ResidualStd []float64          `json:"residual_std"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
	TrainRows   int                `json:"train_rows"`
	HoldoutRows int                `json:"holdout_rows"`
}

// Emulator is a named surrogate model trained against a dataset.
type Emulator struct {
	ID            uuid.UUID      `json:"id"`
	Name          string         `json:"name"`
	Dataset       string         `json:"dataset"`
	Inputs        []string       `json:"inputs"`
	Outputs       []string       `json:"outputs"`
	Params        TrainParams    `json:"params"`
	Status        EmulatorStatus `json:"status"`
	Error         string         `json:"error,omitempty"`
	Artifact      *Artifact      `json:"artifact,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	TrainedAt     *time.Time     `json:"trained_at,omitempty"`
	TrainDuration time.Duration  `json:"train_duration"`
}
