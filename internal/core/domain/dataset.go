package domain

import (
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Dataset is a named tabular resource. Data holds the raw CSV payload the
// dataset was uploaded with; repositories omit it from list results.
type Dataset struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Columns   []string  `json:"columns"`
	RowCount  int       `json:"row_count"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Data      []byte    `json:"-"`
}

// Resource names travel in URL paths, so they follow DNS-label rules plus
// dots and underscores.
var nameRE = regexp.MustCompile(`^[a-z0-9]([a-z0-9._-]{0,61}[a-z0-9])?$`)

func ValidName(name string) bool {
	return nameRE.MatchString(name)
}

// ValidateColumnSplit checks a train request's input/output partition against
// the dataset's columns: both sides non-empty, no duplicates, disjoint, and
// every named column present in the dataset.
func ValidateColumnSplit(inputs, outputs, datasetColumns []string) error {
	if len(inputs) == 0 {
		return ErrNoInputColumns
	}
	if len(outputs) == 0 {
		return ErrNoOutputColumns
	}

	seen := make(map[string]bool, len(inputs)+len(outputs))
	for _, col := range inputs {
		if seen[col] {
			return ErrDuplicateColumn
		}
		seen[col] = true
	}
	for _, col := range outputs {
		if seen[col] {
			// Either listed twice among outputs or shared with inputs.
			for _, in := range inputs {
				if in == col {
					return ErrOverlappingColumns
				}
			}
			return ErrDuplicateColumn
		}
		seen[col] = true
	}

	have := make(map[string]bool, len(datasetColumns))
	for _, col := range datasetColumns {
		have[col] = true
	}
	for _, col := range append(append([]string(nil), inputs...), outputs...) {
		if !have[col] {
			return ErrColumnNotInDataset
		}
	}
	return nil
}
