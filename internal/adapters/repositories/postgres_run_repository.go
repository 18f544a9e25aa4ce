package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"milk-collection-service/internal/domain"
	"milk-collection-service/internal/platform/obs"
)

const (
	statusCompleted = "completed"
	statusDegraded  = "degraded"
)

type runSummary struct {
	TotalCost              float64 `json:"total_cost"`
	TotalViolations        int     `json:"total_violations"`
	TotalUnassignedFarmers int     `json:"total_unassigned_farmers"`
	TotalUnassignedMilk    float64 `json:"total_unassigned_milk"`
	ClusterCount           int     `json:"cluster_count"`
	Degraded               bool    `json:"degraded"`
}

func summarize(run *domain.Run) runSummary {
	return runSummary{
		TotalCost:              run.TotalCost,
		TotalViolations:        run.TotalViolations,
		TotalUnassignedFarmers: run.TotalUnassignedFarmers,
		TotalUnassignedMilk:    run.TotalUnassignedMilk,
		ClusterCount:           len(run.Clusters),
		Degraded:               run.Degraded,
	}
}

func runStatus(run *domain.Run) string {
	if run.Degraded {
		return statusDegraded
	}
	return statusCompleted
}

// Postgres-backed implementation of the RunRepository port. Runs are
// stored whole as JSON in optimization_runs.
type PostgresRunRepository struct{ DB *sql.DB }

func NewPostgresRunRepository(db *sql.DB) *PostgresRunRepository {
	return &PostgresRunRepository{DB: db}
}

func (r *PostgresRunRepository) Save(ctx context.Context, run *domain.Run) (err error) {
	defer obs.Time(ctx, "runs.Save")(&err)

	if r.DB == nil {
		return errors.New("postgres run repository: DB is nil")
	}
	if run == nil || run.ID == "" {
		return fmt.Errorf("save run: missing id: %w", domain.ErrInvalidInput)
	}

	config, err := json.Marshal(run.Config)
	if err != nil {
		return fmt.Errorf("save run %s: marshal config: %w", run.ID, err)
	}
	result, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("save run %s: marshal result: %w", run.ID, err)
	}
	summary, err := json.Marshal(summarize(run))
	if err != nil {
		return fmt.Errorf("save run %s: marshal summary: %w", run.ID, err)
	}

	_, err = r.DB.ExecContext(ctx, `
	INSERT INTO optimization_runs (id, trigger_type, status, input_config, result, results_summary, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7);
	`, run.ID, string(run.Trigger), runStatus(run), config, result, summary, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("save run %s: insert: %w", run.ID, err)
	}

	return nil
}

func (r *PostgresRunRepository) Get(ctx context.Context, id string) (*domain.Run, error) {
	if r.DB == nil {
		return nil, errors.New("postgres run repository: DB is nil")
	}

	var raw []byte
	err := r.DB.QueryRowContext(ctx, `SELECT result FROM optimization_runs WHERE id = $1;`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get run %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: query: %w", id, err)
	}

	return decodeRun(raw)
}

func (r *PostgresRunRepository) List(ctx context.Context, trigger domain.Trigger) ([]*domain.Run, error) {
	if r.DB == nil {
		return nil, errors.New("postgres run repository: DB is nil")
	}

	query := `
	SELECT result
	FROM optimization_runs
	WHERE ($1 = '' OR trigger_type = $1)
	ORDER BY created_at DESC, id DESC;
	`
	rows, err := r.DB.QueryContext(ctx, query, string(trigger))
	if err != nil {
		return nil, fmt.Errorf("list runs: query optimization_runs table: %w", err)
	}
	defer rows.Close()

	runs := make([]*domain.Run, 0, 16)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("list runs: scan row: %w", err)
		}
		run, err := decodeRun(raw)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: row iteration: %w", err)
	}

	return runs, nil
}

func (r *PostgresRunRepository) Latest(ctx context.Context, trigger domain.Trigger) (*domain.Run, error) {
	if r.DB == nil {
		return nil, errors.New("postgres run repository: DB is nil")
	}

	var raw []byte
	err := r.DB.QueryRowContext(ctx, `
	SELECT result
	FROM optimization_runs
	WHERE trigger_type = $1
	ORDER BY created_at DESC, id DESC
	LIMIT 1;
	`, string(trigger)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("latest %s run: %w", trigger, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("latest %s run: query: %w", trigger, err)
	}

	return decodeRun(raw)
}

func decodeRun(raw []byte) (*domain.Run, error) {
	var run domain.Run
	if err := json.Unmarshal(raw, &run); err != nil {
		return nil, fmt.Errorf("decode run: %w", err)
	}
	return &run, nil
}
