package dto

import (
	"github.com/google/uuid"

	"emulator-service/pkg/tabular"
)

type DatasetResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Columns   []string  `json:"columns"`
	RowCount  int       `json:"row_count"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
}

type ListDatasetsResponse struct {
	Items      []DatasetResponse `json:"items"`
	Total      int               `json:"total"`
	PageSize   int               `json:"page_size"`
	NextOffset int               `json:"next_offset"`
}

type DatasetSummaryResponse struct {
	Dataset DatasetResponse   `json:"dataset"`
	Columns []tabular.Summary `json:"columns"`
}
