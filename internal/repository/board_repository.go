package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/board-service/internal/domain"
)

// BoardRepository defines persistence access for boards and their membership.
type BoardRepository interface {
	Create(ctx context.Context, board *domain.Board) error
	Update(ctx context.Context, board *domain.Board) error
	GetByID(ctx context.Context, id string) (*domain.Board, error)
	ListAll(ctx context.Context, limit, offset int) ([]domain.Board, error)
	ListForUser(ctx context.Context, userID string, limit, offset int) ([]domain.Board, error)
	AddMember(ctx context.Context, boardID, userID string) error
	RemoveMember(ctx context.Context, boardID, userID string) error
	IsMember(ctx context.Context, boardID, userID string) (bool, error)
	ListMemberIDs(ctx context.Context, boardID string) ([]string, error)
}

type boardRepository struct {
	pool *pgxpool.Pool
}

// NewBoardRepository returns a Postgres-backed implementation.
func NewBoardRepository(pool *pgxpool.Pool) BoardRepository {
	return &boardRepository{pool: pool}
}

func (r *boardRepository) Create(ctx context.Context, board *domain.Board) error {
	const query = `
        INSERT INTO boards (owner_id, name, description, archived)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at, updated_at`

	if err := r.pool.QueryRow(ctx, query,
		board.OwnerID,
		board.Name,
		board.Description,
		board.Archived,
	).Scan(&board.ID, &board.CreatedAt, &board.UpdatedAt); err != nil {
		return err
	}

	// the owner is always a member
	return r.AddMember(ctx, board.ID, board.OwnerID)
}

func (r *boardRepository) Update(ctx context.Context, board *domain.Board) error {
	const query = `
        UPDATE boards SET name=$1, description=$2, archived=$3, updated_at=NOW()
        WHERE id=$4`

	cmd, err := r.pool.Exec(ctx, query,
		board.Name,
		board.Description,
		board.Archived,
		board.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *boardRepository) GetByID(ctx context.Context, id string) (*domain.Board, error) {
	const query = `
        SELECT id, owner_id, name, description, archived, created_at, updated_at
        FROM boards WHERE id=$1`

	var board domain.Board
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&board.ID,
		&board.OwnerID,
		&board.Name,
		&board.Description,
		&board.Archived,
		&board.CreatedAt,
		&board.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &board, nil
}

func (r *boardRepository) ListAll(ctx context.Context, limit, offset int) ([]domain.Board, error) {
	const query = `
        SELECT id, owner_id, name, description, archived, created_at, updated_at
        FROM boards ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBoards(rows)
}

func (r *boardRepository) ListForUser(ctx context.Context, userID string, limit, offset int) ([]domain.Board, error) {
	const query = `
        SELECT b.id, b.owner_id, b.name, b.description, b.archived, b.created_at, b.updated_at
        FROM boards b
        JOIN board_members m ON m.board_id = b.id
        WHERE m.user_id = $1
        ORDER BY b.created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBoards(rows)
}

func (r *boardRepository) AddMember(ctx context.Context, boardID, userID string) error {
	const query = `
        INSERT INTO board_members (board_id, user_id)
        VALUES ($1, $2)
        ON CONFLICT (board_id, user_id) DO NOTHING`

	_, err := r.pool.Exec(ctx, query, boardID, userID)
	return err
}

func (r *boardRepository) RemoveMember(ctx context.Context, boardID, userID string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM board_members WHERE board_id=$1 AND user_id=$2`, boardID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *boardRepository) IsMember(ctx context.Context, boardID, userID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM board_members WHERE board_id=$1 AND user_id=$2)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, boardID, userID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *boardRepository) ListMemberIDs(ctx context.Context, boardID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT user_id FROM board_members WHERE board_id=$1 ORDER BY user_id`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanBoards(rows pgx.Rows) ([]domain.Board, error) {
	boards := make([]domain.Board, 0)
	for rows.Next() {
		var board domain.Board
		if err := rows.Scan(
			&board.ID,
			&board.OwnerID,
			&board.Name,
			&board.Description,
			&board.Archived,
			&board.CreatedAt,
			&board.UpdatedAt,
		); err != nil {
			return nil, err
		}
		boards = append(boards, board)
	}
	return boards, rows.Err()
}
