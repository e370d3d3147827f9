package e2e

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"emulator-service/pkg/client"
	"emulator-service/pkg/tabular"
)

// trainingData samples y = 1 + 2x on a grid. The relationship is exactly
// linear, so the trained emulator must recover it to numerical precision.
func trainingData() *tabular.Table {
	t := &tabular.Table{Columns: []string{"x", "y"}}
	for i := 0; i < 20; i++ {
		x := float64(i) / 2
		Expect(t.AppendRow(x, 1+2*x)).To(Succeed())
	}
	return t
}

var _ = Describe("emulator workflow", Ordered, func() {
	ctx := context.Background()

	It("uploads a dataset", func() {
		ds, err := api.Datasets.Upload(ctx, "line", trainingData())
		Expect(err).NotTo(HaveOccurred())
		Expect(ds.Name).To(Equal("line"))
		Expect(ds.RowCount).To(Equal(20))
		Expect(ds.Columns).To(Equal([]string{"x", "y"}))
	})

	It("lists the dataset", func() {
		page, err := api.Datasets.List(ctx, client.ListOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(page.Total).To(Equal(1))
		Expect(page.Items).To(HaveLen(1))
		Expect(page.Items[0].Name).To(Equal("line"))
	})

	It("summarises the dataset", func() {
		summary, err := api.Datasets.Summarise(ctx, "line")
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Dataset.RowCount).To(Equal(20))
		Expect(summary.Columns).To(HaveLen(2))

		// x runs 0 through 9.5 in steps of 0.5.
		x := summary.Columns[0]
		Expect(x.Column).To(Equal("x"))
		Expect(x.Count).To(Equal(20))
		Expect(x.Mean).To(BeNumerically("~", 4.75, 1e-9))
		Expect(x.Min).To(Equal(0.0))
		Expect(x.Max).To(Equal(9.5))
	})

	It("round-trips the stored rows", func() {
		table, err := api.Datasets.View(ctx, "line")
		Expect(err).NotTo(HaveOccurred())
		Expect(table.Columns).To(Equal([]string{"x", "y"}))
		Expect(table.NumRows()).To(Equal(20))
	})

	It("replaces the dataset on re-upload with the same name", func() {
		ds, err := api.Datasets.Upload(ctx, "line", trainingData())
		Expect(err).NotTo(HaveOccurred())
		Expect(ds.RowCount).To(Equal(20))

		page, err := api.Datasets.List(ctx, client.ListOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(page.Total).To(Equal(1))
	})

	It("trains an emulator to READY", func() {
		em, err := api.Emulators.Train(ctx, client.TrainSpec{
			Name:    "line-emulator",
			Dataset: "line",
			Inputs:  []string{"x"},
			Outputs: []string{"y"},
			Params:  &client.TrainParams{TrainTestRatio: 0.8, Seed: 7},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(em.Status).To(Equal(client.StatusPending))

		waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		trained, err := api.Emulators.WaitUntilTrained(waitCtx, "line-emulator")
		Expect(err).NotTo(HaveOccurred())
		Expect(trained.Status).To(Equal(client.StatusReady))
		Expect(trained.TrainedAt).NotTo(BeNil())
	})

	It("rejects a second emulator with the same name", func() {
		_, err := api.Emulators.Train(ctx, client.TrainSpec{
			Name:    "line-emulator",
			Dataset: "line",
			Inputs:  []string{"x"},
			Outputs: []string{"y"},
		})
		Expect(err).To(MatchError(client.ErrConflict))
	})

	It("rejects overlapping input and output columns", func() {
		_, err := api.Emulators.Train(ctx, client.TrainSpec{
			Name:    "bad-columns",
			Dataset: "line",
			Inputs:  []string{"x", "y"},
			Outputs: []string{"y"},
		})
		Expect(err).To(MatchError(client.ErrInvalid))
	})

	It("reports holdout metrics in the summary", func() {
		summary, err := api.Emulators.Summarise(ctx, "line-emulator")
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.Status).To(Equal(client.StatusReady))
		Expect(summary.TrainRows).To(Equal(16))
		Expect(summary.HoldoutRows).To(Equal(4))
		Expect(summary.Metrics).To(HaveKey("y"))
		Expect(summary.Metrics["y"]).To(BeNumerically("<", 1e-3))
	})

	It("predicts close to the true line", func() {
		inputs := &tabular.Table{Columns: []string{"x"}}
		probes := []float64{0.25, 1.25, 3.75}
		for _, x := range probes {
			Expect(inputs.AppendRow(x)).To(Succeed())
		}

		pred, err := api.Emulators.Predict(ctx, "line-emulator", inputs)
		Expect(err).NotTo(HaveOccurred())
		Expect(pred.Mean.Columns).To(Equal([]string{"y"}))
		Expect(pred.Mean.Rows).To(HaveLen(3))
		Expect(pred.Std.Rows).To(HaveLen(3))
		for i, x := range probes {
			Expect(pred.Mean.Rows[i][0]).To(BeNumerically("~", 1+2*x, 1e-6))
			Expect(pred.Std.Rows[i][0]).To(BeNumerically(">=", 0.0))
		}
	})

	It("accepts permuted and extra input columns", func() {
		inputs := &tabular.Table{Columns: []string{"noise", "x"}}
		Expect(inputs.AppendRow(99, 2)).To(Succeed())

		pred, err := api.Emulators.Predict(ctx, "line-emulator", inputs)
		Expect(err).NotTo(HaveOccurred())
		Expect(pred.Mean.Rows[0][0]).To(BeNumerically("~", 5, 1e-6))
	})

	It("rejects prediction with a missing input column", func() {
		inputs := &tabular.Table{Columns: []string{"z"}}
		Expect(inputs.AppendRow(1)).To(Succeed())

		_, err := api.Emulators.Predict(ctx, "line-emulator", inputs)
		Expect(err).To(MatchError(client.ErrInvalid))
	})

	It("deletes the emulator and then the dataset", func() {
		Expect(api.Emulators.Delete(ctx, "line-emulator")).To(Succeed())
		_, err := api.Emulators.Get(ctx, "line-emulator")
		Expect(err).To(MatchError(client.ErrNotFound))

		Expect(api.Datasets.Delete(ctx, "line")).To(Succeed())
		_, err = api.Datasets.Get(ctx, "line")
		Expect(err).To(MatchError(client.ErrNotFound))
	})

	It("ends with no resources left", func() {
		datasets, err := api.Datasets.List(ctx, client.ListOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(datasets.Total).To(BeZero())

		emulators, err := api.Emulators.List(ctx, client.ListOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(emulators.Total).To(BeZero())
	})
})
