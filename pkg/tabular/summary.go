package tabular

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary holds the descriptive statistics of one column.
type Summary struct {
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

// Describe computes per-column statistics in column order. Std is the sample
// standard deviation and is zero when fewer than two rows exist; quantiles
// use linear interpolation.
func (t *Table) Describe() []Summary {
	summaries := make([]Summary, len(t.Columns))
	for j, col := range t.Columns {
		vals := make([]float64, len(t.Rows))
		for i, row := range t.Rows {
			vals[i] = row[j]
		}
		summaries[j] = describeColumn(col, vals)
	}
	return summaries
}

func describeColumn(name string, vals []float64) Summary {
	s := Summary{Column: name, Count: len(vals)}
	if len(vals) == 0 {
		return s
	}

	s.Mean = stat.Mean(vals, nil)
	if len(vals) > 1 {
		s.Std = stat.StdDev(vals, nil)
	}
	s.Min = floats.Min(vals)
	s.Max = floats.Max(vals)

	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	s.Q25 = stat.Quantile(0.25, stat.LinInterp, sorted, nil)
	s.Median = stat.Quantile(0.50, stat.LinInterp, sorted, nil)
	s.Q75 = stat.Quantile(0.75, stat.LinInterp, sorted, nil)

	return s
}
