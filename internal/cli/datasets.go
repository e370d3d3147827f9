package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"emulator-service/pkg/client"
	"emulator-service/pkg/tabular"
)

func newDatasetsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "datasets",
		Aliases: []string{"dataset", "ds"},
		Short:   "Manage datasets",
	}
	cmd.AddCommand(
		newDatasetsUploadCmd(opts),
		newDatasetsListCmd(opts),
		newDatasetsViewCmd(opts),
		newDatasetsSummariseCmd(opts),
		newDatasetsDeleteCmd(opts),
	)
	return cmd
}

func newDatasetsUploadCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "upload NAME FILE",
		Short: "Create or replace a dataset from a CSV file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := tabular.ReadFile(args[1])
			if err != nil {
				return err
			}
			ds, err := opts.newClient().Datasets.Upload(cmd.Context(), args[0], table)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "uploaded dataset %s (%d rows, %d columns)\n",
				ds.Name, ds.RowCount, len(ds.Columns))
			return nil
		},
	}
}

func newDatasetsListCmd(opts *rootOptions) *cobra.Command {
	var list client.ListOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List datasets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := opts.newClient().Datasets.List(cmd.Context(), list)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tROWS\tCOLUMNS\tSIZE\tUPDATED")
			for _, ds := range page.Items {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n",
					ds.Name, ds.RowCount, len(ds.Columns), ds.SizeBytes,
					ds.UpdatedAt.Format("2006-01-02 15:04:05"))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d datasets\n", len(page.Items), page.Total)
			return nil
		},
	}
	cmd.Flags().StringVar(&list.Search, "search", "", "filter by name substring")
	cmd.Flags().IntVar(&list.Limit, "limit", 0, "page size")
	cmd.Flags().IntVar(&list.Offset, "offset", 0, "page offset")
	return cmd
}

func newDatasetsViewCmd(opts *rootOptions) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "view NAME",
		Short: "Download a dataset as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := opts.newClient().Datasets.View(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if out == "" {
				return table.WriteCSV(cmd.OutOrStdout())
			}
			if err := writeTableFile(table, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", table.NumRows(), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "write CSV to a file instead of stdout")
	return cmd
}

func newDatasetsSummariseCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "summarise NAME",
		Aliases: []string{"summarize", "summary"},
		Short:   "Show per-column statistics for a dataset",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := opts.newClient().Datasets.Summarise(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "dataset %s: %d rows\n",
				summary.Dataset.Name, summary.Dataset.RowCount)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "COLUMN\tCOUNT\tMEAN\tSTD\tMIN\tQ25\tMEDIAN\tQ75\tMAX")
			for _, col := range summary.Columns {
				fmt.Fprintf(w, "%s\t%d\t%g\t%g\t%g\t%g\t%g\t%g\t%g\n",
					col.Column, col.Count, col.Mean, col.Std,
					col.Min, col.Q25, col.Median, col.Q75, col.Max)
			}
			return w.Flush()
		},
	}
}

func newDatasetsDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.newClient().Datasets.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted dataset %s\n", args[0])
			return nil
		},
	}
}

// writeTableFile writes the table as CSV, creating parent directories first.
func writeTableFile(table *tabular.Table, path string) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	return table.WriteFile(path)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
