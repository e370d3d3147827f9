package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"emulator-service/pkg/client"
	"emulator-service/pkg/tabular"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run PLAN",
		Short: "Execute a YAML plan: upload, train, predict, plot",
		Long: "Run executes a declarative plan file. Datasets are uploaded first, then\n" +
			"all emulators are submitted and awaited, then predictions and plots are\n" +
			"produced. With cleanup: true the created emulators and datasets are\n" +
			"deleted at the end.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := LoadPlan(args[0])
			if err != nil {
				return err
			}
			c := opts.newClient()
			if plan.URL != "" {
				c = opts.newClientFor(plan.URL)
			}
			return runPlan(cmd.Context(), cmd.OutOrStdout(), c, plan)
		},
	}
}

func runPlan(ctx context.Context, out io.Writer, c *client.Client, plan *Plan) error {
	for _, d := range plan.Datasets {
		table, err := tabular.ReadFile(d.File)
		if err != nil {
			return err
		}
		ds, err := c.Datasets.Upload(ctx, d.Name, table)
		if err != nil {
			return fmt.Errorf("upload dataset %q: %w", d.Name, err)
		}
		fmt.Fprintf(out, "uploaded dataset %s (%d rows)\n", ds.Name, ds.RowCount)
	}

	// Submit every training job before waiting so they share the queue.
	for _, e := range plan.Emulators {
		_, err := c.Emulators.Train(ctx, client.TrainSpec{
			Name:    e.Name,
			Dataset: e.Dataset,
			Inputs:  e.Inputs,
			Outputs: e.Outputs,
			Params:  e.Params.toTrainParams(),
		})
		if err != nil {
			return fmt.Errorf("train emulator %q: %w", e.Name, err)
		}
		fmt.Fprintf(out, "training %s on dataset %s\n", e.Name, e.Dataset)
	}
	for _, e := range plan.Emulators {
		em, err := c.Emulators.WaitUntilTrained(ctx, e.Name)
		if err != nil {
			return fmt.Errorf("wait for emulator %q: %w", e.Name, err)
		}
		fmt.Fprintf(out, "emulator %s is %s after %dms\n", em.Name, em.Status, em.TrainDurationMs)
	}

	for _, pr := range plan.Predictions {
		inputs, err := tabular.ReadFile(pr.Inputs)
		if err != nil {
			return err
		}
		pred, err := c.Emulators.Predict(ctx, pr.Emulator, inputs)
		if err != nil {
			return fmt.Errorf("predict with %q: %w", pr.Emulator, err)
		}
		if pr.Mean != "" {
			if err := writeTableFile(pred.Mean, pr.Mean); err != nil {
				return err
			}
			fmt.Fprintf(out, "wrote mean to %s\n", pr.Mean)
		}
		if pr.Std != "" {
			if err := writeTableFile(pred.Std, pr.Std); err != nil {
				return err
			}
			fmt.Fprintf(out, "wrote std to %s\n", pr.Std)
		}
	}

	for _, pl := range plan.Plots {
		if err := renderPrediction(ctx, c, pl); err != nil {
			return fmt.Errorf("plot %q: %w", pl.Out, err)
		}
		fmt.Fprintf(out, "wrote plot to %s\n", pl.Out)
	}

	if plan.Cleanup {
		// Emulators first: a dataset cannot be deleted while training
		// against it is still active.
		for _, e := range plan.Emulators {
			if err := c.Emulators.Delete(ctx, e.Name); err != nil {
				return fmt.Errorf("delete emulator %q: %w", e.Name, err)
			}
			fmt.Fprintf(out, "deleted emulator %s\n", e.Name)
		}
		for _, d := range plan.Datasets {
			if err := c.Datasets.Delete(ctx, d.Name); err != nil {
				return fmt.Errorf("delete dataset %q: %w", d.Name, err)
			}
			fmt.Fprintf(out, "deleted dataset %s\n", d.Name)
		}
	}
	return nil
}
