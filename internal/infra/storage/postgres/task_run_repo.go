package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/feedhq/feedmanager/internal/core/domain"
)

// TaskRunRepo implements storage.TaskRunRepository using PostgreSQL.
type TaskRunRepo struct {
	db *DB
}

// NewTaskRunRepo creates a new PostgreSQL task run repository.
func NewTaskRunRepo(db *DB) *TaskRunRepo {
	return &TaskRunRepo{db: db}
}

type taskRunRow struct {
	ID         string    `db:"id"`
	Name       string    `db:"name"`
	Status     string    `db:"status"`
	Message    string    `db:"message"`
	StartedAt  time.Time `db:"started_at"`
	FinishedAt time.Time `db:"finished_at"`
}

// Save records a task run.
func (r *TaskRunRepo) Save(ctx context.Context, run *domain.TaskRun) error {
	query := `
		INSERT INTO task_runs (id, name, status, message, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		run.ID,
		run.Name,
		string(run.Status),
		run.Message,
		run.StartedAt,
		run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save task run: %w", err)
	}
	return nil
}

// GetRecent retrieves the most recent task runs.
func (r *TaskRunRepo) GetRecent(ctx context.Context, limit int) ([]*domain.TaskRun, error) {
	query := `
		SELECT id, name, status, message, started_at, finished_at
		FROM task_runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	var rows []taskRunRow
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to get recent task runs: %w", err)
	}

	runs := make([]*domain.TaskRun, 0, len(rows))
	for _, row := range rows {
		runs = append(runs, &domain.TaskRun{
			ID:         row.ID,
			Name:       row.Name,
			Status:     domain.TaskRunStatus(row.Status),
			Message:    row.Message,
			StartedAt:  row.StartedAt,
			FinishedAt: row.FinishedAt,
		})
	}
	return runs, nil
}
