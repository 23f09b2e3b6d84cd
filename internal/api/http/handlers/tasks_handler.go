package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/board-service/internal/api/dto"
	"github.com/spec-kit/board-service/internal/auth"
	"github.com/spec-kit/board-service/internal/domain"
	"github.com/spec-kit/board-service/internal/repository"
	"github.com/spec-kit/board-service/internal/service"
	apperrors "github.com/spec-kit/board-service/pkg/util"
)

const maxTaskTitleLength = 200

// TasksHandler manages task endpoints.
type TasksHandler struct {
	service *service.TaskService
}

// NewTasksHandler constructs handler.
func NewTasksHandler(taskService *service.TaskService) *TasksHandler {
	return &TasksHandler{service: taskService}
}

// Create handles POST /boards/:id/tasks.
func (h *TasksHandler) Create(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewSessionRequired()
	}

	var req dto.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Title) == "" {
		return apperrors.NewValidationError("title required", nil)
	}
	if len(req.Title) > maxTaskTitleLength {
		return apperrors.NewValidationError("title too long", fiber.Map{"max_length": maxTaskTitleLength})
	}

	input := service.TaskCreateInput{
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
		Labels:      req.Labels,
		DueAt:       req.DueAt,
	}
	if req.Priority != "" {
		priority, err := domain.ParseTaskPriority(req.Priority)
		if err != nil {
			return apperrors.NewValidationError(err.Error(), nil)
		}
		input.Priority = priority
	}

	task, err := h.service.Create(c.UserContext(), identity, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": taskResponse(task)})
}

// ListByBoard handles GET /boards/:id/tasks.
func (h *TasksHandler) ListByBoard(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewSessionRequired()
	}

	filter, err := parseTaskQuery(c)
	if err != nil {
		return err
	}

	tasks, err := h.service.ListByBoard(c.UserContext(), identity, c.Params("id"), filter)
	if err != nil {
		return err
	}

	items := make([]dto.TaskResponse, 0, len(tasks))
	for i := range tasks {
		items = append(items, taskResponse(&tasks[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get handles GET /tasks/:id.
func (h *TasksHandler) Get(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewSessionRequired()
	}

	task, err := h.service.Get(c.UserContext(), identity, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": taskResponse(task)})
}

// Update handles PATCH /tasks/:id.
func (h *TasksHandler) Update(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewSessionRequired()
	}

	var req dto.UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		return apperrors.NewValidationError("title cannot be empty", nil)
	}

	input := service.TaskUpdateInput{
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
		Labels:      req.Labels,
		DueAt:       req.DueAt,
	}
	if req.Status != nil {
		status, err := domain.ParseTaskStatus(*req.Status)
		if err != nil {
			return apperrors.NewValidationError(err.Error(), nil)
		}
		input.Status = &status
	}
	if req.Priority != nil {
		priority, err := domain.ParseTaskPriority(*req.Priority)
		if err != nil {
			return apperrors.NewValidationError(err.Error(), nil)
		}
		input.Priority = &priority
	}

	task, err := h.service.Update(c.UserContext(), identity, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": taskResponse(task)})
}

// Delete handles DELETE /tasks/:id.
func (h *TasksHandler) Delete(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewSessionRequired()
	}

	if err := h.service.Delete(c.UserContext(), identity, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "deleted"}})
}

func parseTaskQuery(c *fiber.Ctx) (repository.TaskFilter, error) {
	filter := repository.TaskFilter{}

	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status, err := domain.ParseTaskStatus(strings.TrimSpace(part))
			if err != nil {
				return filter, apperrors.NewValidationError(err.Error(), nil)
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}
	if raw := c.Query("priority"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			priority, err := domain.ParseTaskPriority(strings.TrimSpace(part))
			if err != nil {
				return filter, apperrors.NewValidationError(err.Error(), nil)
			}
			filter.Priorities = append(filter.Priorities, priority)
		}
	}
	if assignee := c.Query("assignee_id"); assignee != "" {
		filter.AssigneeID = &assignee
	}

	filter.Limit, _ = strconv.Atoi(c.Query("limit", "50"))
	filter.Offset, _ = strconv.Atoi(c.Query("offset", "0"))
	return filter, nil
}

func taskResponse(task *domain.Task) dto.TaskResponse {
	return dto.TaskResponse{
		ID:          task.ID,
		BoardID:     task.BoardID,
		CreatorID:   task.CreatorID,
		AssigneeID:  task.AssigneeID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		Labels:      task.Labels,
		DueAt:       task.DueAt,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}
}
