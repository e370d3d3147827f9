package cli

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"emulator-service/pkg/client"
)

// Plan is a declarative workflow: upload datasets, train emulators, predict,
// plot, and optionally clean up afterwards. Steps run in that order.
type Plan struct {
	URL         string           `yaml:"url"`
	Datasets    []PlanDataset    `yaml:"datasets"`
	Emulators   []PlanEmulator   `yaml:"emulators"`
	Predictions []PlanPrediction `yaml:"predictions"`
	Plots       []PlanPlot       `yaml:"plots"`
	Cleanup     bool             `yaml:"cleanup"`
}

type PlanDataset struct {
	Name string `yaml:"name"`
	File string `yaml:"file"`
}

type PlanEmulator struct {
	Name    string      `yaml:"name"`
	Dataset string      `yaml:"dataset"`
	Inputs  []string    `yaml:"inputs"`
	Outputs []string    `yaml:"outputs"`
	Params  *PlanParams `yaml:"params"`
}

type PlanParams struct {
	Estimator      string  `yaml:"estimator"`
	TrainTestRatio float64 `yaml:"train_test_ratio"`
	RidgeAlpha     float64 `yaml:"ridge_alpha"`
	Seed           int64   `yaml:"seed"`
}

func (p *PlanParams) toTrainParams() *client.TrainParams {
	if p == nil {
		return nil
	}
	return &client.TrainParams{
		Estimator:      p.Estimator,
		TrainTestRatio: p.TrainTestRatio,
		RidgeAlpha:     p.RidgeAlpha,
		Seed:           p.Seed,
	}
}

// PlanPrediction scores an input CSV with a trained emulator and writes the
// mean (and optionally std) tables to CSV files.
type PlanPrediction struct {
	Emulator string `yaml:"emulator"`
	Inputs   string `yaml:"inputs"`
	Mean     string `yaml:"mean"`
	Std      string `yaml:"std"`
}

// PlanPlot renders an emulator's response over one dataset column against
// the observed values.
type PlanPlot struct {
	Emulator string  `yaml:"emulator"`
	Dataset  string  `yaml:"dataset"`
	X        string  `yaml:"x"`
	Y        string  `yaml:"y"`
	Out      string  `yaml:"out"`
	Sigma    float64 `yaml:"sigma"`
}

// LoadPlan reads and validates a plan file. Unknown YAML keys are rejected
// so typos surface before any request is made.
func LoadPlan(path string) (*Plan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open plan: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	var plan Plan
	if err := dec.Decode(&plan); err != nil {
		return nil, fmt.Errorf("parse plan %s: %w", path, err)
	}
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("plan %s: %w", path, err)
	}
	return &plan, nil
}

// Validate checks the plan is internally consistent before any step runs.
// Emulators and plots may reference datasets that already exist on the
// server, so only in-plan duplicates and missing fields are errors.
func (p *Plan) Validate() error {
	if len(p.Datasets) == 0 && len(p.Emulators) == 0 &&
		len(p.Predictions) == 0 && len(p.Plots) == 0 {
		return fmt.Errorf("plan has no steps")
	}

	datasetNames := make(map[string]bool, len(p.Datasets))
	for i, d := range p.Datasets {
		if d.Name == "" {
			return fmt.Errorf("datasets[%d]: missing name", i)
		}
		if d.File == "" {
			return fmt.Errorf("dataset %q: missing file", d.Name)
		}
		if datasetNames[d.Name] {
			return fmt.Errorf("dataset %q listed twice", d.Name)
		}
		datasetNames[d.Name] = true
	}

	emulatorNames := make(map[string]bool, len(p.Emulators))
	for i, e := range p.Emulators {
		if e.Name == "" {
			return fmt.Errorf("emulators[%d]: missing name", i)
		}
		if e.Dataset == "" {
			return fmt.Errorf("emulator %q: missing dataset", e.Name)
		}
		if len(e.Inputs) == 0 || len(e.Outputs) == 0 {
			return fmt.Errorf("emulator %q: inputs and outputs are required", e.Name)
		}
		if emulatorNames[e.Name] {
			return fmt.Errorf("emulator %q listed twice", e.Name)
		}
		emulatorNames[e.Name] = true
	}

	for i, pr := range p.Predictions {
		if pr.Emulator == "" {
			return fmt.Errorf("predictions[%d]: missing emulator", i)
		}
		if pr.Inputs == "" {
			return fmt.Errorf("prediction with %q: missing inputs file", pr.Emulator)
		}
		if pr.Mean == "" && pr.Std == "" {
			return fmt.Errorf("prediction with %q: no output files", pr.Emulator)
		}
	}

	for i, pl := range p.Plots {
		if pl.Emulator == "" || pl.Dataset == "" {
			return fmt.Errorf("plots[%d]: emulator and dataset are required", i)
		}
		if pl.X == "" || pl.Y == "" {
			return fmt.Errorf("plot of %q: x and y columns are required", pl.Emulator)
		}
		if pl.Out == "" {
			return fmt.Errorf("plot of %q: missing out path", pl.Emulator)
		}
		if pl.Sigma < 0 {
			return fmt.Errorf("plot of %q: negative sigma", pl.Emulator)
		}
	}
	return nil
}
