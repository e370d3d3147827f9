// Package memory provides map-backed repositories with the same semantics
// as the postgres adapters. The server uses them when STORE_DRIVER=memory;
// tests use them to exercise services against a real store.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"emulator-service/internal/core/domain"
	"emulator-service/internal/core/ports/output"
)

type DatasetRepo struct {
	mu       sync.RWMutex
	datasets map[string]*domain.Dataset
}

func NewDatasetRepo() *DatasetRepo {
	return &DatasetRepo{datasets: make(map[string]*domain.Dataset)}
}

func (r *DatasetRepo) Put(ctx context.Context, dataset *domain.Dataset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneDataset(dataset)
	if existing, ok := r.datasets[dataset.Name]; ok {
		// Upsert keeps the original identity and creation time.
		stored.ID = existing.ID
		stored.CreatedAt = existing.CreatedAt
		stored.UpdatedAt = time.Now()
	}
	r.datasets[dataset.Name] = stored
	return nil
}

func (r *DatasetRepo) GetByName(ctx context.Context, name string) (*domain.Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dataset, ok := r.datasets[name]
	if !ok {
		return nil, domain.ErrDatasetNotFound
	}
	return cloneDataset(dataset), nil
}

func (r *DatasetRepo) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Dataset, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*domain.Dataset, 0, len(r.datasets))
	for _, dataset := range r.datasets {
		if filter.Search != "" && !strings.Contains(dataset.Name, filter.Search) {
			continue
		}
		matched = append(matched, dataset)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].Name < matched[j].Name
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	matched = paginate(matched, filter.Offset, filter.Limit)

	out := make([]*domain.Dataset, len(matched))
	for i, dataset := range matched {
		clone := cloneDataset(dataset)
		clone.Data = nil
		out[i] = clone
	}
	return out, total, nil
}

func (r *DatasetRepo) Delete(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.datasets[name]; !ok {
		return domain.ErrDatasetNotFound
	}
	delete(r.datasets, name)
	return nil
}

func cloneDataset(d *domain.Dataset) *domain.Dataset {
	clone := *d
	clone.Columns = append([]string(nil), d.Columns...)
	clone.Data = append([]byte(nil), d.Data...)
	return &clone
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
