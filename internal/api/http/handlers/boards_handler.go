package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/board-service/internal/api/dto"
	"github.com/spec-kit/board-service/internal/auth"
	"github.com/spec-kit/board-service/internal/domain"
	"github.com/spec-kit/board-service/internal/service"
	apperrors "github.com/spec-kit/board-service/pkg/util"
)

const maxBoardNameLength = 120

// BoardsHandler manages board endpoints.
type BoardsHandler struct {
	service *service.BoardService
}

// NewBoardsHandler constructs handler.
func NewBoardsHandler(boardService *service.BoardService) *BoardsHandler {
	return &BoardsHandler{service: boardService}
}

// Create handles POST /boards.
func (h *BoardsHandler) Create(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewSessionRequired()
	}

	var req dto.CreateBoardRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Name) == "" {
		return apperrors.NewValidationError("name required", nil)
	}
	if len(req.Name) > maxBoardNameLength {
		return apperrors.NewValidationError("name too long", fiber.Map{"max_length": maxBoardNameLength})
	}

	board, err := h.service.Create(c.UserContext(), identity, service.BoardCreateInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": boardSummary(board)})
}

// List handles GET /boards. Anonymous callers get an empty listing.
func (h *BoardsHandler) List(c *fiber.Ctx) error {
	identity, _ := auth.IdentityFromContext(c)
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	boards, err := h.service.List(c.UserContext(), identity, limit, offset)
	if err != nil {
		return err
	}

	items := make([]dto.BoardSummary, 0, len(boards))
	for i := range boards {
		items = append(items, boardSummary(&boards[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get handles GET /boards/:id.
func (h *BoardsHandler) Get(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewSessionRequired()
	}

	board, members, err := h.service.Get(c.UserContext(), identity, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.BoardDetailResponse{
		BoardSummary: boardSummary(board),
		MemberIDs:    members,
	}})
}

// Update handles PATCH /boards/:id.
func (h *BoardsHandler) Update(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewSessionRequired()
	}

	var req dto.UpdateBoardRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return apperrors.NewValidationError("name cannot be empty", nil)
	}

	board, err := h.service.Update(c.UserContext(), identity, c.Params("id"), service.BoardUpdateInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": boardSummary(board)})
}

// Archive handles DELETE /boards/:id.
func (h *BoardsHandler) Archive(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewSessionRequired()
	}

	if err := h.service.Archive(c.UserContext(), identity, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "archived"}})
}

// AddMember handles POST /boards/:id/members.
func (h *BoardsHandler) AddMember(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewSessionRequired()
	}

	var req dto.AddMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.UserID == "" {
		return apperrors.NewValidationError("user_id required", nil)
	}

	if err := h.service.AddMember(c.UserContext(), identity, c.Params("id"), req.UserID); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{"status": "member_added"}})
}

// RemoveMember handles DELETE /boards/:id/members/:userId.
func (h *BoardsHandler) RemoveMember(c *fiber.Ctx) error {
	identity, ok := auth.IdentityFromContext(c)
	if !ok {
		return apperrors.NewSessionRequired()
	}

	if err := h.service.RemoveMember(c.UserContext(), identity, c.Params("id"), c.Params("userId")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"status": "member_removed"}})
}

func boardSummary(board *domain.Board) dto.BoardSummary {
	return dto.BoardSummary{
		ID:          board.ID,
		OwnerID:     board.OwnerID,
		Name:        board.Name,
		Description: board.Description,
		Archived:    board.Archived,
		CreatedAt:   board.CreatedAt,
		UpdatedAt:   board.UpdatedAt,
	}
}
