package tabular

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSV(t *testing.T) {
	in := "x,y\n1,2\n3.5,-4\n1e2, 7\n"
	tbl, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, []string{"x", "y"}, tbl.Columns)
	assert.Equal(t, 3, tbl.NumRows())
	assert.Equal(t, 2, tbl.NumCols())
	assert.Equal(t, [][]float64{{1, 2}, {3.5, -4}, {100, 7}}, tbl.Rows)
}

func TestReadCSV_HeaderOnly(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("a,b\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.NumRows())
	assert.Equal(t, []string{"a", "b"}, tbl.Columns)
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestReadCSV_NotANumber(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("x,y\n1,abc\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a number")
	assert.Contains(t, err.Error(), `"y"`)
}

func TestReadCSV_NaNRejected(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("x\nNaN\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not finite")
}

func TestReadCSV_RaggedRow(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("x,y\n1,2\n3\n"))
	assert.Error(t, err)
}

func TestReadCSV_DuplicateHeader(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("x,x\n1,2\n"))
	assert.ErrorIs(t, err, ErrColumnExists)
}

func TestReadCSV_BlankHeader(t *testing.T) {
	_, err := ReadCSV(strings.NewReader("x,\n1,2\n"))
	assert.Error(t, err)
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	orig, err := New([]string{"x", "y"}, [][]float64{{1.5, -2}, {0.25, 1e6}})
	require.NoError(t, err)

	data, err := orig.Bytes()
	require.NoError(t, err)

	parsed, err := ReadCSV(strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Equal(t, orig.Columns, parsed.Columns)
	assert.Equal(t, orig.Rows, parsed.Rows)
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(nil, nil)
	assert.ErrorIs(t, err, ErrEmptyTable)

	_, err = New([]string{"x"}, [][]float64{{1, 2}})
	assert.Error(t, err)
}

func TestSelect(t *testing.T) {
	tbl, err := New([]string{"a", "b", "c"}, [][]float64{{1, 2, 3}, {4, 5, 6}})
	require.NoError(t, err)

	got, err := tbl.Select("c", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, got.Columns)
	assert.Equal(t, [][]float64{{3, 1}, {6, 4}}, got.Rows)

	_, err = tbl.Select("missing")
	assert.Error(t, err)
}

func TestColumn(t *testing.T) {
	tbl, err := New([]string{"a", "b"}, [][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)

	vals, err := tbl.Column("b")
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 4}, vals)

	_, err = tbl.Column("z")
	assert.Error(t, err)
}

func TestAppendRow(t *testing.T) {
	tbl, err := New([]string{"a", "b"}, nil)
	require.NoError(t, err)

	require.NoError(t, tbl.AppendRow(1, 2))
	assert.Equal(t, 1, tbl.NumRows())

	err = tbl.AppendRow(1)
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	tbl, err := New([]string{"x"}, [][]float64{{1}, {2}, {3}})
	require.NoError(t, err)

	sums := tbl.Describe()
	require.Len(t, sums, 1)
	s := sums[0]

	assert.Equal(t, "x", s.Column)
	assert.Equal(t, 3, s.Count)
	assert.InDelta(t, 2.0, s.Mean, 1e-12)
	assert.InDelta(t, 1.0, s.Std, 1e-12)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 3.0, s.Max)
	assert.GreaterOrEqual(t, s.Q25, s.Min)
	assert.LessOrEqual(t, s.Q25, s.Median)
	assert.GreaterOrEqual(t, s.Q75, s.Median)
	assert.LessOrEqual(t, s.Q75, s.Max)
}

func TestDescribe_SingleRow(t *testing.T) {
	tbl, err := New([]string{"x"}, [][]float64{{5}})
	require.NoError(t, err)

	s := tbl.Describe()[0]
	assert.Equal(t, 1, s.Count)
	assert.Equal(t, 5.0, s.Mean)
	assert.Equal(t, 0.0, s.Std)
	assert.Equal(t, 5.0, s.Min)
	assert.Equal(t, 5.0, s.Max)
	assert.Equal(t, 5.0, s.Median)
}

func TestReadWriteFile(t *testing.T) {
	path := t.TempDir() + "/data.csv"
	tbl, err := New([]string{"x", "y"}, [][]float64{{1, 2}})
	require.NoError(t, err)
	require.NoError(t, tbl.WriteFile(path))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, tbl.Rows, got.Rows)

	_, err = ReadFile(t.TempDir() + "/missing.csv")
	assert.Error(t, err)
}
