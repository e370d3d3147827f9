package dto

import (
	"time"

	"emulator-service/internal/core/domain"
	"emulator-service/pkg/tabular"
)

const timeFormat = time.RFC3339

func ToDatasetResponse(d *domain.Dataset) DatasetResponse {
	return DatasetResponse{
		ID:        d.ID,
		Name:      d.Name,
		Columns:   d.Columns,
		RowCount:  d.RowCount,
		SizeBytes: d.SizeBytes,
		CreatedAt: d.CreatedAt.Format(timeFormat),
		UpdatedAt: d.UpdatedAt.Format(timeFormat),
	}
}

func ToDatasetSummaryResponse(d *domain.Dataset, stats []tabular.Summary) DatasetSummaryResponse {
	return DatasetSummaryResponse{
		Dataset: ToDatasetResponse(d),
		Columns: stats,
	}
}

func ToEmulatorResponse(e *domain.Emulator) EmulatorResponse {
	resp := EmulatorResponse{
		ID:      e.ID,
		Name:    e.Name,
		Dataset: e.Dataset,
		Inputs:  e.Inputs,
		Outputs: e.Outputs,
		Params: TrainParamsDTO{
			Estimator:      e.Params.Estimator,
			TrainTestRatio: e.Params.TrainTestRatio,
			RidgeAlpha:     e.Params.RidgeAlpha,
			Seed:           e.Params.Seed,
		},
		Status:          string(e.Status),
		Error:           e.Error,
		CreatedAt:       e.CreatedAt.Format(timeFormat),
		UpdatedAt:       e.UpdatedAt.Format(timeFormat),
		TrainDurationMs: e.TrainDuration.Milliseconds(),
	}
	if e.TrainedAt != nil {
		trainedAt := e.TrainedAt.Format(timeFormat)
		resp.TrainedAt = &trainedAt
	}
	return resp
}

func ToEmulatorStatusResponse(e *domain.Emulator) EmulatorStatusResponse {
	resp := EmulatorStatusResponse{
		Name:       e.Name,
		Status:     string(e.Status),
		Error:      e.Error,
		DurationMs: e.TrainDuration.Milliseconds(),
	}
	if e.TrainedAt != nil {
		trainedAt := e.TrainedAt.Format(timeFormat)
		resp.TrainedAt = &trainedAt
	}
	return resp
}

func ToEmulatorSummaryResponse(e *domain.Emulator) EmulatorSummaryResponse {
	resp := EmulatorSummaryResponse{EmulatorResponse: ToEmulatorResponse(e)}
	if e.Artifact != nil {
		resp.Metrics = e.Artifact.Metrics
		resp.TrainRows = e.Artifact.TrainRows
		resp.HoldoutRows = e.Artifact.HoldoutRows
	}
	return resp
}

// ToTrainParams maps the optional request block; zero fields are filled by
// the service's Normalize.
func ToTrainParams(p *TrainParamsDTO) domain.TrainParams {
	if p == nil {
		return domain.TrainParams{}
	}
	return domain.TrainParams{
		Estimator:      p.Estimator,
		TrainTestRatio: p.TrainTestRatio,
		RidgeAlpha:     p.RidgeAlpha,
		Seed:           p.Seed,
	}
}
