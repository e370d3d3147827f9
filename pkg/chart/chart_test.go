package chart

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrediction(t *testing.T) {
	x := []float64{3, 1, 2}
	mean := []float64{9, 1, 4}
	std := []float64{0.3, 0.1, 0.2}

	p, err := Prediction(x, mean, std, []float64{1, 2, 3}, []float64{1.1, 3.9, 9.2}, Options{
		Title:  "lift-model",
		XLabel: "x",
		YLabel: "y",
	})

	require.NoError(t, err)
	assert.Equal(t, "lift-model", p.Title.Text)
	assert.Equal(t, "x", p.X.Label.Text)
	assert.Equal(t, "y", p.Y.Label.Text)
}

func TestPrediction_NoTruth(t *testing.T) {
	_, err := Prediction([]float64{1, 2}, []float64{1, 4}, []float64{0.1, 0.1}, nil, nil, Options{})
	require.NoError(t, err)
}

func TestPrediction_LengthMismatch(t *testing.T) {
	_, err := Prediction([]float64{1, 2}, []float64{1}, []float64{0.1, 0.1}, nil, nil, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lengths differ")
}

func TestPrediction_TruthMismatch(t *testing.T) {
	_, err := Prediction([]float64{1}, []float64{1}, []float64{0.1}, []float64{1, 2}, []float64{1}, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "truth lengths differ")
}

func TestPrediction_Empty(t *testing.T) {
	_, err := Prediction(nil, nil, nil, nil, nil, Options{})
	require.Error(t, err)
}

func TestWriteFile(t *testing.T) {
	p, err := Prediction([]float64{1, 2, 3}, []float64{1, 4, 9}, []float64{0.1, 0.2, 0.3}, nil, nil, Options{})
	require.NoError(t, err)

	dir := t.TempDir()
	for _, name := range []string{"plot.png", "plot.svg"} {
		path := filepath.Join(dir, name)
		require.NoError(t, WriteFile(p, path))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0), name)
	}
}

func TestWriteFile_UnsupportedExtension(t *testing.T) {
	p, err := Prediction([]float64{1}, []float64{1}, []float64{0.1}, nil, nil, Options{})
	require.NoError(t, err)

	err = WriteFile(p, filepath.Join(t.TempDir(), "plot.bogus"))
	require.Error(t, err)
}
