package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"emulator-service/internal/core/domain"
	"emulator-service/internal/core/ports/output"
	"emulator-service/internal/metrics"
	"emulator-service/internal/surrogate"
)

// TrainJob carries a snapshot of the training data. The rows are copied out
// of the dataset at submission time, so replacing or deleting the dataset
// afterwards never reaches into a queued or running job.
type TrainJob struct {
	Emulator    string
	X           [][]float64
	Y           [][]float64
	OutputNames []string
	Params      domain.TrainParams
}

// TrainingQueue is the part of the runner the emulator service depends on.
type TrainingQueue interface {
	Enqueue(job TrainJob) error
	Cancel(name string) bool
}

// TrainingRunner executes training jobs on a bounded worker pool and walks
// each emulator through PENDING -> TRAINING -> READY | FAILED.
type TrainingRunner struct {
	repo    ports.EmulatorRepository
	metrics *metrics.Metrics
	queue   chan TrainJob
	wg      sync.WaitGroup

	mu      sync.Mutex
	running map[string]context.CancelFunc
	closed  bool
}

// NewTrainingRunner starts the worker pool immediately. Call Close to drain
// it on shutdown.
func NewTrainingRunner(repo ports.EmulatorRepository, workers, queueSize int, m *metrics.Metrics) *TrainingRunner {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	r := &TrainingRunner{
		repo:    repo,
		metrics: m,
		queue:   make(chan TrainJob, queueSize),
		running: make(map[string]context.CancelFunc),
	}
	for i := 0; i < workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}
	return r
}

// Enqueue submits a job without blocking; a full queue is the caller's
// problem to surface.
func (r *TrainingRunner) Enqueue(job TrainJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return domain.ErrTrainingQueueFull
	}
	select {
	case r.queue <- job:
		return nil
	default:
		return domain.ErrTrainingQueueFull
	}
}

// Cancel aborts the named job if it is currently running. Jobs still queued
// are skipped by the worker once it sees the record is gone.
func (r *TrainingRunner) Cancel(name string) bool {
	r.mu.Lock()
	cancel, ok := r.running[name]
	r.mu.Unlock()
	if ok {
		cancel()
	}
	return ok
}

// Close stops accepting jobs, lets queued and in-flight work finish, and
// waits for the workers to exit.
func (r *TrainingRunner) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.queue)
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *TrainingRunner) worker() {
	defer r.wg.Done()
	for job := range r.queue {
		r.run(job)
	}
}

func (r *TrainingRunner) run(job TrainJob) {
	ctx, cancel := context.WithCancel(context.Background())
	r.mu.Lock()
	r.running[job.Emulator] = cancel
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.running, job.Emulator)
		r.mu.Unlock()
		cancel()
	}()

	err := r.repo.UpdateStatus(ctx, job.Emulator, domain.EmulatorStatusTraining, "")
	if err != nil {
		// The emulator was deleted while the job sat in the queue.
		if errors.Is(err, domain.ErrEmulatorNotFound) {
			log.WithField("emulator", job.Emulator).Debug("skipping job for deleted emulator")
		} else {
			log.WithError(err).WithField("emulator", job.Emulator).Error("mark emulator training failed")
		}
		return
	}

	r.metrics.JobStarted()
	start := time.Now()
	model, trainErr := r.train(ctx, job)
	elapsed := time.Since(start)

	if ctx.Err() != nil {
		log.WithFields(log.Fields{
			"emulator":   job.Emulator,
			"latency_ms": elapsed.Milliseconds(),
		}).Info("training cancelled")
		r.metrics.JobFinished("CANCELLED", elapsed)
		return
	}

	emu, err := r.repo.GetByName(context.Background(), job.Emulator)
	if err != nil {
		r.metrics.JobFinished("CANCELLED", elapsed)
		return
	}

	now := time.Now()
	emu.TrainedAt = &now
	emu.TrainDuration = elapsed
	emu.UpdatedAt = now
	if trainErr != nil {
		emu.Status = domain.EmulatorStatusFailed
		emu.Error = trainErr.Error()
		emu.Artifact = nil
		log.WithError(trainErr).WithField("emulator", job.Emulator).Warn("training failed")
	} else {
		emu.Status = domain.EmulatorStatusReady
		emu.Error = ""
		emu.Artifact = buildArtifact(model, job.OutputNames)
		log.WithFields(log.Fields{
			"emulator":   job.Emulator,
			"latency_ms": elapsed.Milliseconds(),
			"train_rows": model.TrainRows,
		}).Info("training completed")
	}

	if err := r.repo.Update(context.Background(), emu); err != nil && !errors.Is(err, domain.ErrEmulatorNotFound) {
		log.WithError(err).WithField("emulator", job.Emulator).Error("store training result failed")
	}
	r.metrics.JobFinished(string(emu.Status), elapsed)
}

// train runs the fit with panic containment: a panicking job fails that
// emulator, not the daemon.
func (r *TrainingRunner) train(ctx context.Context, job TrainJob) (model *surrogate.Model, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			model = nil
			err = fmt.Errorf("training panicked: %v", rec)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return surrogate.Train(job.X, job.Y, surrogate.Params{
		Alpha:      job.Params.RidgeAlpha,
		TrainRatio: job.Params.TrainTestRatio,
		Seed:       job.Params.Seed,
	})
}

func buildArtifact(model *surrogate.Model, outputs []string) *domain.Artifact {
	artifact := &domain.Artifact{
		Weights:     model.Weights,
		ResidualStd: model.ResidualStd,
		TrainRows:   model.TrainRows,
		HoldoutRows: model.HoldoutRows,
	}
	if len(model.HoldoutRMSE) == len(outputs) {
		artifact.Metrics = make(map[string]float64, len(outputs))
		for i, col := range outputs {
			artifact.Metrics[col] = model.HoldoutRMSE[i]
		}
	}
	return artifact
}
