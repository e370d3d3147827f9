package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"emulator-service/internal/core/domain"
	"emulator-service/internal/core/ports/output"
)

type EmulatorRepo struct {
	mu        sync.RWMutex
	emulators map[string]*domain.Emulator
}

func NewEmulatorRepo() *EmulatorRepo {
	return &EmulatorRepo{emulators: make(map[string]*domain.Emulator)}
}

func (r *EmulatorRepo) Create(ctx context.Context, emulator *domain.Emulator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.emulators[emulator.Name]; ok {
		return domain.ErrEmulatorNameConflict
	}
	r.emulators[emulator.Name] = cloneEmulator(emulator)
	return nil
}

func (r *EmulatorRepo) GetByName(ctx context.Context, name string) (*domain.Emulator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	emulator, ok := r.emulators[name]
	if !ok {
		return nil, domain.ErrEmulatorNotFound
	}
	return cloneEmulator(emulator), nil
}

func (r *EmulatorRepo) List(ctx context.Context, filter ports.EmulatorListFilter) ([]*domain.Emulator, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*domain.Emulator, 0, len(r.emulators))
	for _, emulator := range r.emulators {
		if filter.Dataset != "" && emulator.Dataset != filter.Dataset {
			continue
		}
		if filter.Status != "" && string(emulator.Status) != filter.Status {
			continue
		}
		matched = append(matched, emulator)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].Name < matched[j].Name
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	matched = paginate(matched, filter.Offset, filter.Limit)

	out := make([]*domain.Emulator, len(matched))
	for i, emulator := range matched {
		out[i] = cloneEmulator(emulator)
	}
	return out, total, nil
}

func (r *EmulatorRepo) Update(ctx context.Context, emulator *domain.Emulator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.emulators[emulator.Name]; !ok {
		return domain.ErrEmulatorNotFound
	}
	r.emulators[emulator.Name] = cloneEmulator(emulator)
	return nil
}

func (r *EmulatorRepo) UpdateStatus(ctx context.Context, name string, status domain.EmulatorStatus, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	emulator, ok := r.emulators[name]
	if !ok {
		return domain.ErrEmulatorNotFound
	}
	emulator.Status = status
	emulator.Error = message
	emulator.UpdatedAt = time.Now()
	return nil
}

func (r *EmulatorRepo) Delete(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.emulators[name]; !ok {
		return domain.ErrEmulatorNotFound
	}
	delete(r.emulators, name)
	return nil
}

func (r *EmulatorRepo) CountActiveByDataset(ctx context.Context, dataset string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, emulator := range r.emulators {
		if emulator.Dataset == dataset && !emulator.Status.Terminal() {
			count++
		}
	}
	return count, nil
}

func cloneEmulator(e *domain.Emulator) *domain.Emulator {
	clone := *e
	clone.Inputs = append([]string(nil), e.Inputs...)
	clone.Outputs = append([]string(nil), e.Outputs...)
	if e.Artifact != nil {
		artifact := *e.Artifact
		artifact.Weights = make([][]float64, len(e.Artifact.Weights))
		for i, row := range e.Artifact.Weights {
			artifact.Weights[i] = append([]float64(nil), row...)
		}
		artifact.ResidualStd = append([]float64(nil), e.Artifact.ResidualStd...)
		if e.Artifact.Metrics != nil {
			artifact.Metrics = make(map[string]float64, len(e.Artifact.Metrics))
			for k, v := range e.Artifact.Metrics {
				artifact.Metrics[k] = v
			}
		}
		clone.Artifact = &artifact
	}
	if e.TrainedAt != nil {
		trainedAt := *e.TrainedAt
		clone.TrainedAt = &trainedAt
	}
	return &clone
}
