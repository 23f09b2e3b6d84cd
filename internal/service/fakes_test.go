package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/board-service/internal/domain"
	"github.com/spec-kit/board-service/internal/events"
	"github.com/spec-kit/board-service/internal/repository"
)

// In-memory repository fakes shared across service tests.

type memUserRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*domain.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	user.ID = fmt.Sprintf("user-%d", r.seq)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *memUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *user
	stored.UpdatedAt = time.Now()
	r.users[user.ID] = &stored
	return nil
}

func (r *memUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.users, id)
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUserRepo) List(_ context.Context, limit, offset int) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	users := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		users = append(users, *r.users[id])
	}
	if offset >= len(users) {
		return []domain.User{}, nil
	}
	users = users[offset:]
	if limit < len(users) {
		users = users[:limit]
	}
	return users, nil
}

type memBoardRepo struct {
	mu      sync.Mutex
	seq     int
	boards  map[string]*domain.Board
	members map[string]map[string]bool
}

func newMemBoardRepo() *memBoardRepo {
	return &memBoardRepo{
		boards:  make(map[string]*domain.Board),
		members: make(map[string]map[string]bool),
	}
}

func (r *memBoardRepo) Create(_ context.Context, board *domain.Board) error {
	r.mu.Lock()
	r.seq++
	board.ID = fmt.Sprintf("board-%d", r.seq)
	board.CreatedAt = time.Now()
	board.UpdatedAt = board.CreatedAt
	stored := *board
	r.boards[board.ID] = &stored
	r.mu.Unlock()
	return r.AddMember(context.Background(), board.ID, board.OwnerID)
}

func (r *memBoardRepo) Update(_ context.Context, board *domain.Board) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.boards[board.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *board
	stored.UpdatedAt = time.Now()
	r.boards[board.ID] = &stored
	return nil
}

func (r *memBoardRepo) GetByID(_ context.Context, id string) (*domain.Board, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	board, ok := r.boards[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *board
	return &copied, nil
}

func (r *memBoardRepo) ListAll(_ context.Context, limit, offset int) ([]domain.Board, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.window(r.allIDs(), limit, offset), nil
}

func (r *memBoardRepo) ListForUser(_ context.Context, userID string, limit, offset int) ([]domain.Board, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0)
	for _, id := range r.allIDs() {
		if r.members[id][userID] {
			ids = append(ids, id)
		}
	}
	return r.window(ids, limit, offset), nil
}

func (r *memBoardRepo) AddMember(_ context.Context, boardID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.members[boardID] == nil {
		r.members[boardID] = make(map[string]bool)
	}
	r.members[boardID][userID] = true
	return nil
}

func (r *memBoardRepo) RemoveMember(_ context.Context, boardID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.members[boardID][userID] {
		return pgx.ErrNoRows
	}
	delete(r.members[boardID], userID)
	return nil
}

func (r *memBoardRepo) IsMember(_ context.Context, boardID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.members[boardID][userID], nil
}

func (r *memBoardRepo) ListMemberIDs(_ context.Context, boardID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.members[boardID]))
	for id := range r.members[boardID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *memBoardRepo) allIDs() []string {
	ids := make([]string, 0, len(r.boards))
	for id := range r.boards {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (r *memBoardRepo) window(ids []string, limit, offset int) []domain.Board {
	boards := make([]domain.Board, 0, len(ids))
	for _, id := range ids {
		boards = append(boards, *r.boards[id])
	}
	if offset >= len(boards) {
		return []domain.Board{}
	}
	boards = boards[offset:]
	if limit > 0 && limit < len(boards) {
		boards = boards[:limit]
	}
	return boards
}

type memTaskRepo struct {
	mu    sync.Mutex
	seq   int
	tasks map[string]*domain.Task
}

func newMemTaskRepo() *memTaskRepo {
	return &memTaskRepo{tasks: make(map[string]*domain.Task)}
}

func (r *memTaskRepo) Create(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	task.ID = fmt.Sprintf("task-%d", r.seq)
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	stored := *task
	r.tasks[task.ID] = &stored
	return nil
}

func (r *memTaskRepo) Update(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[task.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *task
	stored.UpdatedAt = time.Now()
	r.tasks[task.ID] = &stored
	return nil
}

func (r *memTaskRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tasks, id)
	return nil
}

func (r *memTaskRepo) GetByID(_ context.Context, id string) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *task
	return &copied, nil
}

func (r *memTaskRepo) ListByBoard(_ context.Context, boardID string, filter repository.TaskFilter) ([]domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.tasks))
	for id := range r.tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	tasks := make([]domain.Task, 0)
	for _, id := range ids {
		task := r.tasks[id]
		if task.BoardID != boardID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, task.Status) {
			continue
		}
		if len(filter.Priorities) > 0 && !containsPriority(filter.Priorities, task.Priority) {
			continue
		}
		if filter.AssigneeID != nil && (task.AssigneeID == nil || *task.AssigneeID != *filter.AssigneeID) {
			continue
		}
		tasks = append(tasks, *task)
	}
	return tasks, nil
}

func containsStatus(set []domain.TaskStatus, status domain.TaskStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}

func containsPriority(set []domain.TaskPriority, priority domain.TaskPriority) bool {
	for _, p := range set {
		if p == priority {
			return true
		}
	}
	return false
}

type memResetRepo struct {
	mu     sync.Mutex
	seq    int
	tokens map[string]*repository.PasswordResetToken
}

func newMemResetRepo() *memResetRepo {
	return &memResetRepo{tokens: make(map[string]*repository.PasswordResetToken)}
}

func (r *memResetRepo) Create(_ context.Context, token *repository.PasswordResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	token.ID = fmt.Sprintf("reset-%d", r.seq)
	token.CreatedAt = time.Now()
	stored := *token
	r.tokens[token.Token] = &stored
	return nil
}

func (r *memResetRepo) GetByToken(_ context.Context, tokenStr string) (*repository.PasswordResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[tokenStr]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *token
	return &copied, nil
}

func (r *memResetRepo) MarkUsed(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, token := range r.tokens {
		if token.ID == id {
			now := time.Now()
			token.UsedAt = &now
			return nil
		}
	}
	return pgx.ErrNoRows
}

type captureDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *captureDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *captureDispatcher) Subscribe(_ events.EventType, _ events.EventHandler) {}

func (d *captureDispatcher) byType(eventType events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	matched := make([]events.Event, 0)
	for _, event := range d.events {
		if event.Type == eventType {
			matched = append(matched, event)
		}
	}
	return matched
}
