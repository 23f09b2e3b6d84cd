package events

import (
	"time"

	"github.com/spec-kit/board-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventBoardCreated       EventType = "board_created"
	EventBoardArchived      EventType = "board_archived"
	EventBoardMemberAdded   EventType = "board_member_added"
	EventBoardMemberRemoved EventType = "board_member_removed"
	EventTaskCreated        EventType = "task_created"
	EventTaskStatusChanged  EventType = "task_status_changed"
	EventTaskAssigned       EventType = "task_assigned"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	BoardID   string      `json:"board_id"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// BoardCreatedPayload payload.
type BoardCreatedPayload struct {
	Name    string `json:"name"`
	OwnerID string `json:"owner_id"`
}

// BoardMemberPayload payload for membership changes.
type BoardMemberPayload struct {
	UserID string `json:"user_id"`
}

// TaskCreatedPayload payload.
type TaskCreatedPayload struct {
	TaskID   string              `json:"task_id"`
	Title    string              `json:"title"`
	Priority domain.TaskPriority `json:"priority"`
}

// TaskStatusChangedPayload payload.
type TaskStatusChangedPayload struct {
	TaskID    string            `json:"task_id"`
	OldStatus domain.TaskStatus `json:"old_status"`
	NewStatus domain.TaskStatus `json:"new_status"`
}

// TaskAssignedPayload payload.
type TaskAssignedPayload struct {
	TaskID     string  `json:"task_id"`
	AssigneeID *string `json:"assignee_id,omitempty"`
}
