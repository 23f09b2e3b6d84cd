package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/board-service/internal/auth"
	"github.com/spec-kit/board-service/internal/domain"
	"github.com/spec-kit/board-service/internal/events"
	"github.com/spec-kit/board-service/internal/repository"
	apperrors "github.com/spec-kit/board-service/pkg/util"
)

// TaskService coordinates task workflows on boards.
type TaskService struct {
	tasks      repository.TaskRepository
	boards     repository.BoardRepository
	dispatcher events.Dispatcher
}

// TaskDependencies bundles collaborators for task service.
type TaskDependencies struct {
	TaskRepo   repository.TaskRepository
	BoardRepo  repository.BoardRepository
	Dispatcher events.Dispatcher
}

// NewTaskService builds the service.
func NewTaskService(deps TaskDependencies) *TaskService {
	return &TaskService{
		tasks:      deps.TaskRepo,
		boards:     deps.BoardRepo,
		dispatcher: deps.Dispatcher,
	}
}

// TaskCreateInput describes task creation payload.
type TaskCreateInput struct {
	Title       string
	Description string
	Priority    domain.TaskPriority
	AssigneeID  *string
	Labels      []string
	DueAt       *time.Time
}

// TaskUpdateInput carries optional field updates. A non-nil AssigneeID with an
// empty string clears the assignee.
type TaskUpdateInput struct {
	Title       *string
	Description *string
	Status      *domain.TaskStatus
	Priority    *domain.TaskPriority
	AssigneeID  *string
	Labels      []string
	DueAt       *time.Time
}

// Create adds a task to a board the caller belongs to.
func (s *TaskService) Create(ctx context.Context, identity *auth.Identity, boardID string, input TaskCreateInput) (*domain.Task, error) {
	board, err := s.requireBoardMember(ctx, identity, boardID)
	if err != nil {
		return nil, err
	}
	if board.Archived {
		return nil, apperrors.NewConflict("board is archived", nil)
	}

	if input.AssigneeID != nil {
		if err := s.requireAssignable(ctx, board.ID, *input.AssigneeID); err != nil {
			return nil, err
		}
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.TaskPriorityMedium
	}

	task := &domain.Task{
		BoardID:     board.ID,
		CreatorID:   identity.SubjectID,
		AssigneeID:  input.AssigneeID,
		Title:       input.Title,
		Description: input.Description,
		Status:      domain.TaskStatusTodo,
		Priority:    priority,
		Labels:      input.Labels,
		DueAt:       input.DueAt,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventTaskCreated, task.BoardID, identity.SubjectID, events.TaskCreatedPayload{
		TaskID:   task.ID,
		Title:    task.Title,
		Priority: task.Priority,
	})
	if task.AssigneeID != nil {
		s.publish(ctx, events.EventTaskAssigned, task.BoardID, identity.SubjectID, events.TaskAssignedPayload{
			TaskID:     task.ID,
			AssigneeID: task.AssigneeID,
		})
	}
	return task, nil
}

// ListByBoard returns tasks on a board the caller belongs to.
func (s *TaskService) ListByBoard(ctx context.Context, identity *auth.Identity, boardID string, filter repository.TaskFilter) ([]domain.Task, error) {
	if _, err := s.requireBoardMember(ctx, identity, boardID); err != nil {
		return nil, err
	}
	return s.tasks.ListByBoard(ctx, boardID, filter)
}

// Get returns one task if the caller belongs to its board.
func (s *TaskService) Get(ctx context.Context, identity *auth.Identity, taskID string) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("task", nil)
		}
		return nil, err
	}
	if _, err := s.requireBoardMember(ctx, identity, task.BoardID); err != nil {
		return nil, err
	}
	return task, nil
}

// Update applies partial changes and emits status/assignment events.
func (s *TaskService) Update(ctx context.Context, identity *auth.Identity, taskID string, input TaskUpdateInput) (*domain.Task, error) {
	task, err := s.Get(ctx, identity, taskID)
	if err != nil {
		return nil, err
	}

	board, err := s.boards.GetByID(ctx, task.BoardID)
	if err != nil {
		return nil, err
	}
	if board.Archived {
		return nil, apperrors.NewConflict("board is archived", nil)
	}

	oldStatus := task.Status
	oldAssignee := task.AssigneeID

	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		task.Status = *input.Status
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.Labels != nil {
		task.Labels = input.Labels
	}
	if input.DueAt != nil {
		task.DueAt = input.DueAt
	}
	if input.AssigneeID != nil {
		if *input.AssigneeID == "" {
			task.AssigneeID = nil
		} else {
			if err := s.requireAssignable(ctx, task.BoardID, *input.AssigneeID); err != nil {
				return nil, err
			}
			task.AssigneeID = input.AssigneeID
		}
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	if task.Status != oldStatus {
		s.publish(ctx, events.EventTaskStatusChanged, task.BoardID, identity.SubjectID, events.TaskStatusChangedPayload{
			TaskID:    task.ID,
			OldStatus: oldStatus,
			NewStatus: task.Status,
		})
	}
	if !equalAssignee(oldAssignee, task.AssigneeID) {
		s.publish(ctx, events.EventTaskAssigned, task.BoardID, identity.SubjectID, events.TaskAssignedPayload{
			TaskID:     task.ID,
			AssigneeID: task.AssigneeID,
		})
	}
	return task, nil
}

// Delete removes a task. Only its creator, the board owner or an admin may.
func (s *TaskService) Delete(ctx context.Context, identity *auth.Identity, taskID string) error {
	task, err := s.Get(ctx, identity, taskID)
	if err != nil {
		return err
	}

	if !identity.IsAdmin && task.CreatorID != identity.SubjectID {
		board, err := s.boards.GetByID(ctx, task.BoardID)
		if err != nil {
			return err
		}
		if board.OwnerID != identity.SubjectID {
			return apperrors.NewForbidden("task creator or board owner required")
		}
	}

	return s.tasks.Delete(ctx, task.ID)
}

func (s *TaskService) requireBoardMember(ctx context.Context, identity *auth.Identity, boardID string) (*domain.Board, error) {
	board, err := s.boards.GetByID(ctx, boardID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("board", nil)
		}
		return nil, err
	}
	if identity.IsAdmin || board.OwnerID == identity.SubjectID {
		return board, nil
	}
	member, err := s.boards.IsMember(ctx, board.ID, identity.SubjectID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, apperrors.NewForbidden("board membership required")
	}
	return board, nil
}

func (s *TaskService) requireAssignable(ctx context.Context, boardID, userID string) error {
	member, err := s.boards.IsMember(ctx, boardID, userID)
	if err != nil {
		return err
	}
	if !member {
		return apperrors.NewValidationError("assignee must be a board member", nil)
	}
	return nil
}

func (s *TaskService) publish(ctx context.Context, eventType events.EventType, boardID, actorID string, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		BoardID:   boardID,
		ActorID:   actorID,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

func equalAssignee(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
