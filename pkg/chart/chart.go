// Package chart renders emulator predictions: the mean response over one
// input variable, a shaded uncertainty band around it, and optionally the
// observed values from the training data.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const (
	defaultWidth  = 6 * vg.Inch
	defaultHeight = 4 * vg.Inch
)

var (
	meanColor  = color.NRGBA{R: 31, G: 119, B: 180, A: 255}
	bandColor  = color.NRGBA{R: 31, G: 119, B: 180, A: 60}
	truthColor = color.NRGBA{R: 214, G: 39, B: 40, A: 255}
)

// Options label the plot. BandSigma is the half-width of the uncertainty
// band in standard deviations; zero means 2.
type Options struct {
	Title     string
	XLabel    string
	YLabel    string
	BandSigma float64
}

// Prediction plots mean ± BandSigma·std against x. The three slices must
// have equal length; points are connected in ascending x order whatever the
// input order. truthX and truthY are optional observed values drawn as a
// scatter on top, and must themselves be of equal length.
func Prediction(x, mean, std []float64, truthX, truthY []float64, opts Options) (*plot.Plot, error) {
	if len(x) == 0 {
		return nil, errors.New("chart: no points to plot")
	}
	if len(mean) != len(x) || len(std) != len(x) {
		return nil, fmt.Errorf("chart: x, mean and std lengths differ: %d, %d, %d",
			len(x), len(mean), len(std))
	}
	if len(truthX) != len(truthY) {
		return nil, fmt.Errorf("chart: truth lengths differ: %d x values, %d y values",
			len(truthX), len(truthY))
	}

	sigma := opts.BandSigma
	if sigma == 0 {
		sigma = 2
	}
	if sigma < 0 {
		return nil, fmt.Errorf("chart: negative band width %g", sigma)
	}

	type point struct{ x, mean, std float64 }
	pts := make([]point, len(x))
	for i := range x {
		pts[i] = point{x: x[i], mean: mean[i], std: std[i]}
	}
	sort.Slice(pts, func(i, j int) bool { return pts[i].x < pts[j].x })

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = opts.XLabel
	p.Y.Label.Text = opts.YLabel
	p.Add(plotter.NewGrid())

	// The band polygon walks the upper edge left to right, then the lower
	// edge back.
	bandPts := make(plotter.XYs, 0, 2*len(pts))
	for _, pt := range pts {
		bandPts = append(bandPts, plotter.XY{X: pt.x, Y: pt.mean + sigma*pt.std})
	}
	for i := len(pts) - 1; i >= 0; i-- {
		bandPts = append(bandPts, plotter.XY{X: pts[i].x, Y: pts[i].mean - sigma*pts[i].std})
	}
	band, err := plotter.NewPolygon(bandPts)
	if err != nil {
		return nil, fmt.Errorf("chart: build band: %w", err)
	}
	band.Color = bandColor
	band.LineStyle.Width = 0
	band.LineStyle.Color = color.NRGBA{}
	p.Add(band)

	meanPts := make(plotter.XYs, len(pts))
	for i, pt := range pts {
		meanPts[i] = plotter.XY{X: pt.x, Y: pt.mean}
	}
	line, err := plotter.NewLine(meanPts)
	if err != nil {
		return nil, fmt.Errorf("chart: build mean line: %w", err)
	}
	line.Color = meanColor
	line.LineStyle.Width = vg.Points(2)
	p.Add(line)
	p.Legend.Add("mean", line)

	if len(truthX) > 0 {
		truthPts := make(plotter.XYs, len(truthX))
		for i := range truthX {
			truthPts[i] = plotter.XY{X: truthX[i], Y: truthY[i]}
		}
		scatter, err := plotter.NewScatter(truthPts)
		if err != nil {
			return nil, fmt.Errorf("chart: build scatter: %w", err)
		}
		scatter.Color = truthColor
		scatter.Radius = vg.Points(2.5)
		p.Add(scatter)
		p.Legend.Add("observed", scatter)
	}

	p.Legend.Top = true
	p.Legend.Left = true
	return p, nil
}

// WriteFile renders the plot to path at the default size. The image format
// follows the file extension: .png, .svg, .pdf and the other formats
// gonum/plot supports.
func WriteFile(p *plot.Plot, path string) error {
	if err := p.Save(defaultWidth, defaultHeight, path); err != nil {
		return fmt.Errorf("chart: save %s: %w", path, err)
	}
	return nil
}
