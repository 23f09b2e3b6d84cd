package dto

import (
	"time"

	"github.com/spec-kit/board-service/internal/domain"
)

// CreateTaskRequest payload.
type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	AssigneeID  *string    `json:"assignee_id"`
	Labels      []string   `json:"labels"`
	DueAt       *time.Time `json:"due_at"`
}

// UpdateTaskRequest payload. An empty assignee_id clears the assignment.
type UpdateTaskRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Status      *string    `json:"status"`
	Priority    *string    `json:"priority"`
	AssigneeID  *string    `json:"assignee_id"`
	Labels      []string   `json:"labels"`
	DueAt       *time.Time `json:"due_at"`
}

// TaskResponse represents a task.
type TaskResponse struct {
	ID          string              `json:"id"`
	BoardID     string              `json:"board_id"`
	CreatorID   string              `json:"creator_id"`
	AssigneeID  *string             `json:"assignee_id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      domain.TaskStatus   `json:"status"`
	Priority    domain.TaskPriority `json:"priority"`
	Labels      []string            `json:"labels"`
	DueAt       *time.Time          `json:"due_at"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}
