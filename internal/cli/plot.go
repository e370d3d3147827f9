package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"emulator-service/pkg/chart"
	"emulator-service/pkg/client"
)

func newPlotCmd(opts *rootOptions) *cobra.Command {
	pl := PlanPlot{}
	cmd := &cobra.Command{
		Use:   "plot EMULATOR",
		Short: "Plot an emulator's predictions against a dataset",
		Long: "Plot downloads the dataset, predicts on its input columns with the\n" +
			"emulator and renders the predicted mean with an uncertainty band over\n" +
			"the --x column, with the observed --y values on top. The output format\n" +
			"follows the file extension (.png, .svg, .pdf).",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pl.Emulator = args[0]
			if err := renderPrediction(cmd.Context(), opts.newClient(), pl); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote plot to %s\n", pl.Out)
			return nil
		},
	}
	cmd.Flags().StringVar(&pl.Dataset, "data", "", "dataset with the observed values")
	cmd.Flags().StringVar(&pl.X, "x", "", "input column for the horizontal axis")
	cmd.Flags().StringVar(&pl.Y, "y", "", "output column to plot")
	cmd.Flags().StringVarP(&pl.Out, "out", "o", "", "image file to write")
	cmd.Flags().Float64Var(&pl.Sigma, "sigma", 0, "band half-width in standard deviations (default 2)")
	_ = cmd.MarkFlagRequired("data")
	_ = cmd.MarkFlagRequired("x")
	_ = cmd.MarkFlagRequired("y")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

// renderPrediction fetches the dataset, predicts on its inputs and writes
// the chart. The dataset supplies both the prediction inputs and the
// observed values, so predictions line up row for row with the truth.
func renderPrediction(ctx context.Context, c *client.Client, pl PlanPlot) error {
	em, err := c.Emulators.Get(ctx, pl.Emulator)
	if err != nil {
		return err
	}
	truth, err := c.Datasets.View(ctx, pl.Dataset)
	if err != nil {
		return err
	}
	inputs, err := truth.Select(em.Inputs...)
	if err != nil {
		return err
	}
	pred, err := c.Emulators.Predict(ctx, pl.Emulator, inputs)
	if err != nil {
		return err
	}

	x, err := truth.Column(pl.X)
	if err != nil {
		return err
	}
	mean, err := pred.Mean.Column(pl.Y)
	if err != nil {
		return fmt.Errorf("column %q is not an output of %s: %w", pl.Y, pl.Emulator, err)
	}
	std, err := pred.Std.Column(pl.Y)
	if err != nil {
		return err
	}
	observed, err := truth.Column(pl.Y)
	if err != nil {
		return err
	}

	p, err := chart.Prediction(x, mean, std, x, observed, chart.Options{
		Title:     pl.Emulator,
		XLabel:    pl.X,
		YLabel:    pl.Y,
		BandSigma: pl.Sigma,
	})
	if err != nil {
		return err
	}
	if err := ensureDir(pl.Out); err != nil {
		return err
	}
	return chart.WriteFile(p, pl.Out)
}
