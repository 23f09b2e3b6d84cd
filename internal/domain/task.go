package domain

import (
	"fmt"
	"time"
)

// TaskStatus enumerates lifecycle states for tasks.
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
)

// ParseTaskStatus validates a status label from an untrusted source.
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch TaskStatus(s) {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return TaskStatus(s), nil
	default:
		return "", fmt.Errorf("unknown task status %q", s)
	}
}

// TaskPriority enumerates urgency.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
)

// ParseTaskPriority validates a priority label from an untrusted source.
func ParseTaskPriority(s string) (TaskPriority, error) {
	switch TaskPriority(s) {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return TaskPriority(s), nil
	default:
		return "", fmt.Errorf("unknown task priority %q", s)
	}
}

// Task is the aggregate for units of work on a board.
type Task struct {
	ID          string
	BoardID     string
	CreatorID   string
	AssigneeID  *string
	Title       string
	Description string
	Status      TaskStatus
	Priority    TaskPriority
	Labels      []string
	DueAt       *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
