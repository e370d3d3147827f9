package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"emulator-service/internal/core/domain"
	"emulator-service/internal/core/ports/output"
)

type emulatorRepo struct {
	pool *pgxpool.Pool
}

func NewEmulatorRepository(pool *pgxpool.Pool) ports.EmulatorRepository {
	return &emulatorRepo{pool: pool}
}

func (r *emulatorRepo) Create(ctx context.Context, emulator *domain.Emulator) error {
	inputsJSON, outputsJSON, paramsJSON, artifactJSON, err := marshalEmulator(emulator)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO emulator
			(id, name, dataset, inputs, outputs, params, status, error,
			 artifact, created_at, updated_at, trained_at, train_duration_ms)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
	`
	_, err = r.pool.Exec(ctx, query,
		emulator.ID, emulator.Name, emulator.Dataset,
		inputsJSON, outputsJSON, paramsJSON,
		string(emulator.Status), emulator.Error, artifactJSON,
		emulator.CreatedAt, emulator.UpdatedAt, emulator.TrainedAt,
		emulator.TrainDuration.Milliseconds(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrEmulatorNameConflict
		}
		return fmt.Errorf("create emulator: %w", err)
	}
	return nil
}

func (r *emulatorRepo) GetByName(ctx context.Context, name string) (*domain.Emulator, error) {
	query := `
		SELECT id, name, dataset, inputs, outputs, params, status, error,
			   artifact, created_at, updated_at, trained_at, train_duration_ms
		FROM emulator
		WHERE name = $1
	`
	emulator, err := scanEmulator(r.pool.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEmulatorNotFound
		}
		return nil, fmt.Errorf("get emulator by name: %w", err)
	}
	return emulator, nil
}

func (r *emulatorRepo) List(ctx context.Context, filter ports.EmulatorListFilter) ([]*domain.Emulator, int, error) {
	conditions := []string{}
	args := []interface{}{}
	argPos := 1

	if filter.Dataset != "" {
		conditions = append(conditions, fmt.Sprintf("dataset = $%d", argPos))
		args = append(args, filter.Dataset)
		argPos++
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, filter.Status)
		argPos++
	}

	whereClause := "1=1"
	if len(conditions) > 0 {
		whereClause = strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM emulator WHERE %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count emulators: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, name, dataset, inputs, outputs, params, status, error,
			   artifact, created_at, updated_at, trained_at, train_duration_ms
		FROM emulator
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argPos, argPos+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list emulators: %w", err)
	}
	defer rows.Close()

	var emulators []*domain.Emulator
	for rows.Next() {
		emulator, err := scanEmulator(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan emulator row: %w", err)
		}
		emulators = append(emulators, emulator)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate emulator rows: %w", err)
	}

	return emulators, total, nil
}

func (r *emulatorRepo) Update(ctx context.Context, emulator *domain.Emulator) error {
	inputsJSON, outputsJSON, paramsJSON, artifactJSON, err := marshalEmulator(emulator)
	if err != nil {
		return err
	}

	query := `
		UPDATE emulator
		SET dataset=$1, inputs=$2, outputs=$3, params=$4, status=$5, error=$6,
			artifact=$7, updated_at=$8, trained_at=$9, train_duration_ms=$10
		WHERE name=$11
	`
	result, err := r.pool.Exec(ctx, query,
		emulator.Dataset, inputsJSON, outputsJSON, paramsJSON,
		string(emulator.Status), emulator.Error, artifactJSON,
		emulator.UpdatedAt, emulator.TrainedAt,
		emulator.TrainDuration.Milliseconds(), emulator.Name,
	)
	if err != nil {
		return fmt.Errorf("update emulator: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrEmulatorNotFound
	}
	return nil
}

func (r *emulatorRepo) UpdateStatus(ctx context.Context, name string, status domain.EmulatorStatus, message string) error {
	query := `UPDATE emulator SET status=$1, error=$2, updated_at=NOW() WHERE name=$3`
	result, err := r.pool.Exec(ctx, query, string(status), message, name)
	if err != nil {
		return fmt.Errorf("update emulator status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrEmulatorNotFound
	}
	return nil
}

func (r *emulatorRepo) Delete(ctx context.Context, name string) error {
	result, err := r.pool.Exec(ctx, "DELETE FROM emulator WHERE name = $1", name)
	if err != nil {
		return fmt.Errorf("delete emulator: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrEmulatorNotFound
	}
	return nil
}

func (r *emulatorRepo) CountActiveByDataset(ctx context.Context, dataset string) (int, error) {
	query := `
		SELECT COUNT(*) FROM emulator
		WHERE dataset = $1 AND status IN ('PENDING', 'TRAINING')
	`
	var count int
	if err := r.pool.QueryRow(ctx, query, dataset).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active emulators: %w", err)
	}
	return count, nil
}

func marshalEmulator(e *domain.Emulator) (inputs, outputs, params, artifact []byte, err error) {
	if inputs, err = json.Marshal(e.Inputs); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal inputs: %w", err)
	}
	if outputs, err = json.Marshal(e.Outputs); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal outputs: %w", err)
	}
	if params, err = json.Marshal(e.Params); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal params: %w", err)
	}
	if e.Artifact != nil {
		if artifact, err = json.Marshal(e.Artifact); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("marshal artifact: %w", err)
		}
	}
	return inputs, outputs, params, artifact, nil
}

func scanEmulator(row pgx.Row) (*domain.Emulator, error) {
	e := &domain.Emulator{}
	var inputsJSON, outputsJSON, paramsJSON, artifactJSON []byte
	var durationMs int64

	err := row.Scan(
		&e.ID, &e.Name, &e.Dataset, &inputsJSON, &outputsJSON, &paramsJSON,
		&e.Status, &e.Error, &artifactJSON,
		&e.CreatedAt, &e.UpdatedAt, &e.TrainedAt, &durationMs,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(inputsJSON, &e.Inputs); err != nil {
		return nil, fmt.Errorf("unmarshal inputs: %w", err)
	}
	if err := json.Unmarshal(outputsJSON, &e.Outputs); err != nil {
		return nil, fmt.Errorf("unmarshal outputs: %w", err)
	}
	if err := json.Unmarshal(paramsJSON, &e.Params); err != nil {
		return nil, fmt.Errorf("unmarshal params: %w", err)
	}
	if len(artifactJSON) > 0 {
		e.Artifact = &domain.Artifact{}
		if err := json.Unmarshal(artifactJSON, e.Artifact); err != nil {
			return nil, fmt.Errorf("unmarshal artifact: %w", err)
		}
	}
	e.TrainDuration = time.Duration(durationMs) * time.Millisecond

	return e, nil
}
