package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"emulator-service/internal/core/domain"
	"emulator-service/internal/core/ports/output"
)

type datasetRepo struct {
	pool *pgxpool.Pool
}

func NewDatasetRepository(pool *pgxpool.Pool) ports.DatasetRepository {
	return &datasetRepo{pool: pool}
}

func (r *datasetRepo) Put(ctx context.Context, dataset *domain.Dataset) error {
	columnsJSON, err := json.Marshal(dataset.Columns)
	if err != nil {
		return fmt.Errorf("marshal columns: %w", err)
	}

	// Replacing an existing dataset keeps its id and created_at.
	query := `
		INSERT INTO dataset
			(id, name, columns, row_count, size_bytes, data, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (name) DO UPDATE SET
			columns = EXCLUDED.columns,
			row_count = EXCLUDED.row_count,
			size_bytes = EXCLUDED.size_bytes,
			data = EXCLUDED.data,
			updated_at = NOW()
	`
	_, err = r.pool.Exec(ctx, query,
		dataset.ID, dataset.Name, columnsJSON, dataset.RowCount,
		dataset.SizeBytes, dataset.Data, dataset.CreatedAt, dataset.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("put dataset: %w", err)
	}
	return nil
}

func (r *datasetRepo) GetByName(ctx context.Context, name string) (*domain.Dataset, error) {
	query := `
		SELECT id, name, columns, row_count, size_bytes, data, created_at, updated_at
		FROM dataset
		WHERE name = $1
	`
	dataset, err := scanDataset(r.pool.QueryRow(ctx, query, name), true)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDatasetNotFound
		}
		return nil, fmt.Errorf("get dataset by name: %w", err)
	}
	return dataset, nil
}

func (r *datasetRepo) List(ctx context.Context, filter ports.ListFilter) ([]*domain.Dataset, int, error) {
	conditions := []string{}
	args := []interface{}{}
	argPos := 1

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE '%%' || $%d || '%%'", argPos))
		args = append(args, filter.Search)
		argPos++
	}

	whereClause := "1=1"
	if len(conditions) > 0 {
		whereClause = strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM dataset WHERE %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count datasets: %w", err)
	}

	// The data payload stays out of listings.
	query := fmt.Sprintf(`
		SELECT id, name, columns, row_count, size_bytes, created_at, updated_at
		FROM dataset
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argPos, argPos+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list datasets: %w", err)
	}
	defer rows.Close()

	var datasets []*domain.Dataset
	for rows.Next() {
		dataset, err := scanDataset(rows, false)
		if err != nil {
			return nil, 0, fmt.Errorf("scan dataset row: %w", err)
		}
		datasets = append(datasets, dataset)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate dataset rows: %w", err)
	}

	return datasets, total, nil
}

func (r *datasetRepo) Delete(ctx context.Context, name string) error {
	result, err := r.pool.Exec(ctx, "DELETE FROM dataset WHERE name = $1", name)
	if err != nil {
		return fmt.Errorf("delete dataset: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrDatasetNotFound
	}
	return nil
}

func scanDataset(row pgx.Row, withData bool) (*domain.Dataset, error) {
	d := &domain.Dataset{}
	var columnsJSON []byte

	var err error
	if withData {
		err = row.Scan(&d.ID, &d.Name, &columnsJSON, &d.RowCount, &d.SizeBytes,
			&d.Data, &d.CreatedAt, &d.UpdatedAt)
	} else {
		err = row.Scan(&d.ID, &d.Name, &columnsJSON, &d.RowCount, &d.SizeBytes,
			&d.CreatedAt, &d.UpdatedAt)
	}
	if err != nil {
		return nil, err
	}

	if len(columnsJSON) > 0 {
		if err := json.Unmarshal(columnsJSON, &d.Columns); err != nil {
			return nil, fmt.Errorf("unmarshal columns: %w", err)
		}
	}
	return d, nil
}
