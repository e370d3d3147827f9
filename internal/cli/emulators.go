package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"emulator-service/pkg/client"
	"emulator-service/pkg/tabular"
)

func newEmulatorsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "emulators",
		Aliases: []string{"emulator", "emu"},
		Short:   "Train and query emulators",
	}
	cmd.AddCommand(
		newEmulatorsTrainCmd(opts),
		newEmulatorsStatusCmd(opts),
		newEmulatorsListCmd(opts),
		newEmulatorsSummariseCmd(opts),
		newEmulatorsPredictCmd(opts),
		newEmulatorsDeleteCmd(opts),
	)
	return cmd
}

func newEmulatorsTrainCmd(opts *rootOptions) *cobra.Command {
	var (
		spec   client.TrainSpec
		params client.TrainParams
		wait   bool
	)
	cmd := &cobra.Command{
		Use:   "train NAME",
		Short: "Train an emulator on an uploaded dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec.Name = args[0]
			if params != (client.TrainParams{}) {
				spec.Params = &params
			}

			c := opts.newClient()
			em, err := c.Emulators.Train(cmd.Context(), spec)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "training %s on dataset %s (%s)\n",
				em.Name, em.Dataset, em.Status)

			if !wait {
				return nil
			}
			trained, err := c.Emulators.WaitUntilTrained(cmd.Context(), em.Name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "emulator %s is %s after %dms\n",
				trained.Name, trained.Status, trained.TrainDurationMs)
			return nil
		},
	}
	cmd.Flags().StringVar(&spec.Dataset, "dataset", "", "dataset to train on")
	cmd.Flags().StringSliceVar(&spec.Inputs, "inputs", nil, "input column names")
	cmd.Flags().StringSliceVar(&spec.Outputs, "outputs", nil, "output column names")
	cmd.Flags().StringVar(&params.Estimator, "estimator", "", "estimator (default linear_ridge)")
	cmd.Flags().Float64Var(&params.TrainTestRatio, "ratio", 0, "train/holdout split ratio")
	cmd.Flags().Float64Var(&params.RidgeAlpha, "alpha", 0, "ridge regularisation strength")
	cmd.Flags().Int64Var(&params.Seed, "seed", 0, "shuffle seed")
	cmd.Flags().BoolVar(&wait, "wait", false, "block until training finishes")
	_ = cmd.MarkFlagRequired("dataset")
	_ = cmd.MarkFlagRequired("inputs")
	_ = cmd.MarkFlagRequired("outputs")
	return cmd
}

func newEmulatorsStatusCmd(opts *rootOptions) *cobra.Command {
	var wait bool
	cmd := &cobra.Command{
		Use:   "status NAME",
		Short: "Show the training status of an emulator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.newClient()
			if wait {
				em, err := c.Emulators.WaitUntilTrained(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s after %dms\n",
					em.Name, em.Status, em.TrainDurationMs)
				return nil
			}

			st, err := c.Emulators.Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if st.Error != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s: %s\n", st.Name, st.Status, st.Error)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", st.Name, st.Status)
			return nil
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "block until training finishes")
	return cmd
}

func newEmulatorsListCmd(opts *rootOptions) *cobra.Command {
	var list client.ListOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List emulators",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := opts.newClient().Emulators.List(cmd.Context(), list)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDATASET\tSTATUS\tTRAINED\tDURATION")
			for _, em := range page.Items {
				trained := "-"
				if em.TrainedAt != nil {
					trained = em.TrainedAt.Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%dms\n",
					em.Name, em.Dataset, em.Status, trained, em.TrainDurationMs)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d emulators\n", len(page.Items), page.Total)
			return nil
		},
	}
	cmd.Flags().StringVar(&list.Dataset, "dataset", "", "filter by dataset")
	cmd.Flags().StringVar(&list.Status, "status", "", "filter by status (PENDING, TRAINING, READY, FAILED)")
	cmd.Flags().IntVar(&list.Limit, "limit", 0, "page size")
	cmd.Flags().IntVar(&list.Offset, "offset", 0, "page offset")
	return cmd
}

func newEmulatorsSummariseCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "summarise NAME",
		Aliases: []string{"summarize", "summary"},
		Short:   "Show training configuration and holdout metrics",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.newClient().Emulators.Summarise(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "emulator %s (%s)\n", s.Name, s.Status)
			fmt.Fprintf(out, "  dataset:   %s\n", s.Dataset)
			fmt.Fprintf(out, "  inputs:    %v\n", s.Inputs)
			fmt.Fprintf(out, "  outputs:   %v\n", s.Outputs)
			fmt.Fprintf(out, "  estimator: %s (ratio %g, alpha %g, seed %d)\n",
				s.Params.Estimator, s.Params.TrainTestRatio, s.Params.RidgeAlpha, s.Params.Seed)
			if s.Status == client.StatusReady {
				fmt.Fprintf(out, "  trained on %d rows, held out %d\n", s.TrainRows, s.HoldoutRows)
				for _, col := range s.Outputs {
					if rmse, ok := s.Metrics[col]; ok {
						fmt.Fprintf(out, "  holdout rmse %s: %g\n", col, rmse)
					}
				}
			}
			if s.Error != "" {
				fmt.Fprintf(out, "  error: %s\n", s.Error)
			}
			return nil
		},
	}
}

func newEmulatorsPredictCmd(opts *rootOptions) *cobra.Command {
	var meanOut, stdOut string
	cmd := &cobra.Command{
		Use:   "predict NAME INPUT",
		Short: "Predict outputs for a CSV of input points",
		Long: "Predict sends the rows of INPUT to a trained emulator and receives the\n" +
			"predicted mean and standard deviation per output column. The mean table\n" +
			"goes to stdout unless --mean names a file.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := tabular.ReadFile(args[1])
			if err != nil {
				return err
			}
			pred, err := opts.newClient().Emulators.Predict(cmd.Context(), args[0], inputs)
			if err != nil {
				return err
			}

			if meanOut == "" {
				if err := pred.Mean.WriteCSV(cmd.OutOrStdout()); err != nil {
					return err
				}
			} else {
				if err := writeTableFile(pred.Mean, meanOut); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote mean to %s\n", meanOut)
			}
			if stdOut != "" {
				if err := writeTableFile(pred.Std, stdOut); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote std to %s\n", stdOut)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&meanOut, "mean", "", "write predicted means to a CSV file")
	cmd.Flags().StringVar(&stdOut, "std", "", "write predicted standard deviations to a CSV file")
	return cmd
}

func newEmulatorsDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete an emulator, cancelling any running training",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.newClient().Emulators.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted emulator %s\n", args[0])
			return nil
		},
	}
}
