package dto

import (
	"github.com/google/uuid"

	"emulator-service/pkg/tabular"
)

type TrainEmulatorRequest struct {
	Name    string          `json:"name" binding:"required,max=100"`
	Dataset string          `json:"dataset" binding:"required"`
	Inputs  []string        `json:"inputs" binding:"required"`
	Outputs []string        `json:"outputs" binding:"required"`
	Params  *TrainParamsDTO `json:"params"`
}

type TrainParamsDTO struct {
	Estimator      string  `json:"estimator"`
	TrainTestRatio float64 `json:"train_test_ratio"`
	RidgeAlpha     float64 `json:"ridge_alpha"`
	Seed           int64   `json:"seed"`
}

type EmulatorResponse struct {
	ID              uuid.UUID      `json:"id"`
	Name            string         `json:"name"`
	Dataset         string         `json:"dataset"`
	Inputs          []string       `json:"inputs"`
	Outputs         []string       `json:"outputs"`
	Params          TrainParamsDTO `json:"params"`
	Status          string         `json:"status"`
	Error           string         `json:"error,omitempty"`
	CreatedAt       string         `json:"created_at"`
	UpdatedAt       string         `json:"updated_at"`
	TrainedAt       *string        `json:"trained_at,omitempty"`
	TrainDurationMs int64          `json:"train_duration_ms,omitempty"`
}

type ListEmulatorsResponse struct {
	Items      []EmulatorResponse `json:"items"`
	Total      int                `json:"total"`
	PageSize   int                `json:"page_size"`
	NextOffset int                `json:"next_offset"`
}

// EmulatorStatusResponse is the lean shape the polling route returns.
type EmulatorStatusResponse struct {
	Name       string  `json:"name"`
	Status     string  `json:"status"`
	Error      string  `json:"error,omitempty"`
	TrainedAt  *string `json:"trained_at,omitempty"`
	DurationMs int64   `json:"duration_ms"`
}

type EmulatorSummaryResponse struct {
	EmulatorResponse
	Metrics     map[string]float64 `json:"metrics,omitempty"`
	TrainRows   int                `json:"train_rows"`
	HoldoutRows int                `json:"holdout_rows"`
}

type PredictionResponse struct {
	Mean *tabular.Table `json:"mean"`
	Std  *tabular.Table `json:"std"`
}
