package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/board-service/internal/domain"
)

// TaskFilter narrows task listings.
type TaskFilter struct {
	Statuses   []domain.TaskStatus
	Priorities []domain.TaskPriority
	AssigneeID *string
	Limit      int
	Offset     int
}

// TaskRepository defines persistence access for tasks.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	ListByBoard(ctx context.Context, boardID string, filter TaskFilter) ([]domain.Task, error)
}

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation.
func NewTaskRepository(pool *pgxpool.Pool) TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	const query = `
        INSERT INTO tasks (board_id, creator_id, assignee_id, title, description, status, priority, labels, due_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		task.BoardID,
		task.CreatorID,
		task.AssigneeID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.Labels,
		task.DueAt,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	const query = `
        UPDATE tasks SET assignee_id=$1, title=$2, description=$3, status=$4, priority=$5, labels=$6, due_at=$7, updated_at=NOW()
        WHERE id=$8`

	cmd, err := r.pool.Exec(ctx, query,
		task.AssigneeID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.Labels,
		task.DueAt,
		task.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	const query = `
        SELECT id, board_id, creator_id, assignee_id, title, description, status, priority, labels, due_at, created_at, updated_at
        FROM tasks WHERE id=$1`

	var task domain.Task
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&task.ID,
		&task.BoardID,
		&task.CreatorID,
		&task.AssigneeID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Priority,
		&task.Labels,
		&task.DueAt,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) ListByBoard(ctx context.Context, boardID string, filter TaskFilter) ([]domain.Task, error) {
	query := strings.Builder{}
	query.WriteString(`
        SELECT id, board_id, creator_id, assignee_id, title, description, status, priority, labels, due_at, created_at, updated_at
        FROM tasks WHERE board_id=$1`)

	args := []any{boardID}
	if len(filter.Statuses) > 0 {
		args = append(args, filter.Statuses)
		query.WriteString(fmt.Sprintf(" AND status = ANY($%d)", len(args)))
	}
	if len(filter.Priorities) > 0 {
		args = append(args, filter.Priorities)
		query.WriteString(fmt.Sprintf(" AND priority = ANY($%d)", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		query.WriteString(fmt.Sprintf(" AND assignee_id = $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	query.WriteString(fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args)))
	args = append(args, filter.Offset)
	query.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))

	rows, err := r.pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		var task domain.Task
		if err := rows.Scan(
			&task.ID,
			&task.BoardID,
			&task.CreatorID,
			&task.AssigneeID,
			&task.Title,
			&task.Description,
			&task.Status,
			&task.Priority,
			&task.Labels,
			&task.DueAt,
			&task.CreatedAt,
			&task.UpdatedAt,
		); err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}
