package client

import (
	"time"

	"emulator-service/pkg/tabular"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusTraining Status = "TRAINING"
	StatusReady    Status = "READY"
	StatusFailed   Status = "FAILED"
)

// Terminal reports whether training finished, successfully or not.
func (s Status) Terminal() bool {
	return s == StatusReady || s == StatusFailed
}

type Dataset struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Columns   []string  `json:"columns"`
	RowCount  int       `json:"row_count"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ColumnSummary struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Q25    float64 `json:"q25"`
	Median float64 `json:"median"`
	Q75    float64 `json:"q75"`
	Max    float64 `json:"max"`
}

type DatasetSummary struct {
	Dataset Dataset         `json:"dataset"`
	Columns []ColumnSummary `json:"columns"`
}

type TrainParams struct {
	Estimator      string  `json:"estimator,omitempty"`
	TrainTestRatio float64 `json:"train_test_ratio,omitempty"`
	RidgeAlpha     float64 `json:"ridge_alpha,omitempty"`
	Seed           int64   `json:"seed,omitempty"`
}

// TrainSpec is a training request: which dataset to fit, the input/output
// column split, and optional hyperparameters (server defaults fill the rest).
type TrainSpec struct {
	Name    string       `json:"name"`
	Dataset string       `json:"dataset"`
	Inputs  []string     `json:"inputs"`
	Outputs []string     `json:"outputs"`
	Params  *TrainParams `json:"params,omitempty"`
}

type Emulator struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Dataset         string      `json:"dataset"`
	Inputs          []string    `json:"inputs"`
	Outputs         []string    `json:"outputs"`
	Params          TrainParams `json:"params"`
	Status          Status      `json:"status"`
	Error           string      `json:"error"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
	TrainedAt       *time.Time  `json:"trained_at,omitempty"`
	TrainDurationMs int64       `json:"train_duration_ms"`
}

type EmulatorStatus struct {
	Name       string     `json:"name"`
	Status     Status     `json:"status"`
	Error      string     `json:"error"`
	TrainedAt  *time.Time `json:"trained_at,omitempty"`
	DurationMs int64      `json:"duration_ms"`
}

type EmulatorSummary struct {
	Emulator
	Metrics     map[string]float64 `json:"metrics"`
	TrainRows   int                `json:"train_rows"`
	HoldoutRows int                `json:"holdout_rows"`
}

// Prediction pairs the mean and std tables for one predict call. Both carry
// the emulator's output columns and one row per input row, in input order.
type Prediction struct {
	Mean *tabular.Table `json:"mean"`
	Std  *tabular.Table `json:"std"`
}

type DatasetPage struct {
	Items      []Dataset `json:"items"`
	Total      int       `json:"total"`
	PageSize   int       `json:"page_size"`
	NextOffset int       `json:"next_offset"`
}

type EmulatorPage struct {
	Items      []Emulator `json:"items"`
	Total      int        `json:"total"`
	PageSize   int        `json:"page_size"`
	NextOffset int        `json:"next_offset"`
}

// ListOptions control pagination and filtering. Search applies to dataset
// listings; Dataset and Status apply to emulator listings.
type ListOptions struct {
	Search  string
	Dataset string
	Status  string
	Limit   int
	Offset  int
}
