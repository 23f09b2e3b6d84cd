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

// BoardService coordinates board workflows and membership.
type BoardService struct {
	boards     repository.BoardRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// BoardDependencies bundles collaborators for board service.
type BoardDependencies struct {
	BoardRepo  repository.BoardRepository
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
}

// NewBoardService builds the service.
func NewBoardService(deps BoardDependencies) *BoardService {
	return &BoardService{
		boards:     deps.BoardRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
	}
}

// BoardCreateInput describes board creation payload.
type BoardCreateInput struct {
	Name        string
	Description string
}

// BoardUpdateInput carries optional field updates.
type BoardUpdateInput struct {
	Name        *string
	Description *string
}

// Create opens a new board owned by the caller.
func (s *BoardService) Create(ctx context.Context, identity *auth.Identity, input BoardCreateInput) (*domain.Board, error) {
	board := &domain.Board{
		OwnerID:     identity.SubjectID,
		Name:        input.Name,
		Description: input.Description,
	}
	if err := s.boards.Create(ctx, board); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventBoardCreated, board.ID, identity.SubjectID, events.BoardCreatedPayload{
		Name:    board.Name,
		OwnerID: board.OwnerID,
	})
	return board, nil
}

// List returns the boards visible to the caller. Anonymous callers see
// nothing, admins see everything, members see boards they belong to.
func (s *BoardService) List(ctx context.Context, identity *auth.Identity, limit, offset int) ([]domain.Board, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	if identity == nil {
		return []domain.Board{}, nil
	}
	if identity.IsAdmin {
		return s.boards.ListAll(ctx, limit, offset)
	}
	return s.boards.ListForUser(ctx, identity.SubjectID, limit, offset)
}

// Get returns a board the caller may see.
func (s *BoardService) Get(ctx context.Context, identity *auth.Identity, id string) (*domain.Board, []string, error) {
	board, err := s.boards.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("board", nil)
		}
		return nil, nil, err
	}

	if err := s.requireMember(ctx, identity, board); err != nil {
		return nil, nil, err
	}

	members, err := s.boards.ListMemberIDs(ctx, board.ID)
	if err != nil {
		return nil, nil, err
	}
	return board, members, nil
}

// Update applies partial changes; only the owner or an admin may mutate.
func (s *BoardService) Update(ctx context.Context, identity *auth.Identity, id string, input BoardUpdateInput) (*domain.Board, error) {
	board, err := s.requireOwned(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		board.Name = *input.Name
	}
	if input.Description != nil {
		board.Description = *input.Description
	}

	if err := s.boards.Update(ctx, board); err != nil {
		return nil, err
	}
	return board, nil
}

// Archive retires a board; tasks stay readable, mutations stop.
func (s *BoardService) Archive(ctx context.Context, identity *auth.Identity, id string) error {
	board, err := s.requireOwned(ctx, identity, id)
	if err != nil {
		return err
	}
	if board.Archived {
		return nil
	}

	board.Archived = true
	if err := s.boards.Update(ctx, board); err != nil {
		return err
	}

	s.publish(ctx, events.EventBoardArchived, board.ID, identity.SubjectID, nil)
	return nil
}

// AddMember grants a user access to the board.
func (s *BoardService) AddMember(ctx context.Context, identity *auth.Identity, boardID, userID string) error {
	board, err := s.requireOwned(ctx, identity, boardID)
	if err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", nil)
		}
		return err
	}
	if !user.Active {
		return apperrors.NewValidationError("user is disabled", nil)
	}

	if err := s.boards.AddMember(ctx, board.ID, user.ID); err != nil {
		return err
	}

	s.publish(ctx, events.EventBoardMemberAdded, board.ID, identity.SubjectID, events.BoardMemberPayload{UserID: user.ID})
	return nil
}

// RemoveMember revokes a user's board access. The owner cannot be removed.
func (s *BoardService) RemoveMember(ctx context.Context, identity *auth.Identity, boardID, userID string) error {
	board, err := s.requireOwned(ctx, identity, boardID)
	if err != nil {
		return err
	}
	if userID == board.OwnerID {
		return apperrors.NewValidationError("cannot remove the board owner", nil)
	}

	if err := s.boards.RemoveMember(ctx, board.ID, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("member", nil)
		}
		return err
	}

	s.publish(ctx, events.EventBoardMemberRemoved, board.ID, identity.SubjectID, events.BoardMemberPayload{UserID: userID})
	return nil
}

func (s *BoardService) requireOwned(ctx context.Context, identity *auth.Identity, id string) (*domain.Board, error) {
	board, err := s.boards.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("board", nil)
		}
		return nil, err
	}
	if !identity.IsAdmin && board.OwnerID != identity.SubjectID {
		return nil, apperrors.NewForbidden("board owner required")
	}
	return board, nil
}

func (s *BoardService) requireMember(ctx context.Context, identity *auth.Identity, board *domain.Board) error {
	if identity.IsAdmin || board.OwnerID == identity.SubjectID {
		return nil
	}
	member, err := s.boards.IsMember(ctx, board.ID, identity.SubjectID)
	if err != nil {
		return err
	}
	if !member {
		return apperrors.NewForbidden("board membership required")
	}
	return nil
}

func (s *BoardService) publish(ctx context.Context, eventType events.EventType, boardID, actorID string, payload interface{}) {
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
