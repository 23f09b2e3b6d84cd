package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/board-service/internal/domain"
	"github.com/spec-kit/board-service/internal/events"
	"github.com/spec-kit/board-service/internal/repository"
)

type taskFixture struct {
	svc        *TaskService
	boardSvc   *BoardService
	users      *memUserRepo
	dispatcher *captureDispatcher
	alice      *domain.User // board owner
	bob        *domain.User // board member
	carol      *domain.User // outsider
	board      *domain.Board
}

func newTaskFixture(t *testing.T) *taskFixture {
	t.Helper()
	ctx := context.Background()

	users := newMemUserRepo()
	boards := newMemBoardRepo()
	tasks := newMemTaskRepo()
	dispatcher := &captureDispatcher{}

	boardSvc := NewBoardService(BoardDependencies{BoardRepo: boards, UserRepo: users, Dispatcher: dispatcher})
	svc := NewTaskService(TaskDependencies{TaskRepo: tasks, BoardRepo: boards, Dispatcher: dispatcher})

	alice := seedUser(t, users, "alice", true)
	bob := seedUser(t, users, "bob", true)
	carol := seedUser(t, users, "carol", true)

	board, err := boardSvc.Create(ctx, memberIdentity(alice.ID), BoardCreateInput{Name: "Roadmap"})
	require.NoError(t, err)
	require.NoError(t, boardSvc.AddMember(ctx, memberIdentity(alice.ID), board.ID, bob.ID))

	return &taskFixture{
		svc:        svc,
		boardSvc:   boardSvc,
		users:      users,
		dispatcher: dispatcher,
		alice:      alice,
		bob:        bob,
		carol:      carol,
		board:      board,
	}
}

func TestTaskServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("member creates a task with defaults", func(t *testing.T) {
		f := newTaskFixture(t)

		task, err := f.svc.Create(ctx, memberIdentity(f.bob.ID), f.board.ID, TaskCreateInput{Title: "Ship it"})
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusTodo, task.Status)
		assert.Equal(t, domain.TaskPriorityMedium, task.Priority)
		assert.Equal(t, f.bob.ID, task.CreatorID)
		assert.Nil(t, task.AssigneeID)
		assert.Len(t, f.dispatcher.byType(events.EventTaskCreated), 1)
	})

	t.Run("assignment at creation emits an event", func(t *testing.T) {
		f := newTaskFixture(t)

		task, err := f.svc.Create(ctx, memberIdentity(f.alice.ID), f.board.ID, TaskCreateInput{
			Title:      "Review",
			AssigneeID: &f.bob.ID,
		})
		require.NoError(t, err)
		require.NotNil(t, task.AssigneeID)
		assert.Equal(t, f.bob.ID, *task.AssigneeID)
		assert.Len(t, f.dispatcher.byType(events.EventTaskAssigned), 1)
	})

	t.Run("assignee must be a board member", func(t *testing.T) {
		f := newTaskFixture(t)

		_, err := f.svc.Create(ctx, memberIdentity(f.alice.ID), f.board.ID, TaskCreateInput{
			Title:      "Review",
			AssigneeID: &f.carol.ID,
		})
		assertErrCode(t, err, "VALIDATION_FAILED")
	})

	t.Run("outsider is forbidden", func(t *testing.T) {
		f := newTaskFixture(t)

		_, err := f.svc.Create(ctx, memberIdentity(f.carol.ID), f.board.ID, TaskCreateInput{Title: "Sneak"})
		assertErrCode(t, err, "FORBIDDEN")
	})

	t.Run("archived board rejects new tasks", func(t *testing.T) {
		f := newTaskFixture(t)
		require.NoError(t, f.boardSvc.Archive(ctx, memberIdentity(f.alice.ID), f.board.ID))

		_, err := f.svc.Create(ctx, memberIdentity(f.alice.ID), f.board.ID, TaskCreateInput{Title: "Late"})
		assertErrCode(t, err, "CONFLICT")
	})
}

func TestTaskServiceListAndGet(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)

	todo, err := f.svc.Create(ctx, memberIdentity(f.alice.ID), f.board.ID, TaskCreateInput{Title: "One"})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, memberIdentity(f.alice.ID), f.board.ID, TaskCreateInput{Title: "Two", AssigneeID: &f.bob.ID})
	require.NoError(t, err)

	t.Run("members list board tasks", func(t *testing.T) {
		tasks, err := f.svc.ListByBoard(ctx, memberIdentity(f.bob.ID), f.board.ID, repository.TaskFilter{})
		require.NoError(t, err)
		assert.Len(t, tasks, 2)
	})

	t.Run("assignee filter narrows the listing", func(t *testing.T) {
		tasks, err := f.svc.ListByBoard(ctx, memberIdentity(f.bob.ID), f.board.ID, repository.TaskFilter{AssigneeID: &f.bob.ID})
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, "Two", tasks[0].Title)
	})

	t.Run("outsider may not list or read", func(t *testing.T) {
		_, err := f.svc.ListByBoard(ctx, memberIdentity(f.carol.ID), f.board.ID, repository.TaskFilter{})
		assertErrCode(t, err, "FORBIDDEN")

		_, err = f.svc.Get(ctx, memberIdentity(f.carol.ID), todo.ID)
		assertErrCode(t, err, "FORBIDDEN")
	})

	t.Run("unknown task is not found", func(t *testing.T) {
		_, err := f.svc.Get(ctx, memberIdentity(f.alice.ID), "missing")
		assertErrCode(t, err, "NOT_FOUND")
	})
}

func TestTaskServiceUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("status change emits an event", func(t *testing.T) {
		f := newTaskFixture(t)
		task, err := f.svc.Create(ctx, memberIdentity(f.alice.ID), f.board.ID, TaskCreateInput{Title: "One"})
		require.NoError(t, err)

		status := domain.TaskStatusInProgress
		updated, err := f.svc.Update(ctx, memberIdentity(f.bob.ID), task.ID, TaskUpdateInput{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusInProgress, updated.Status)

		changes := f.dispatcher.byType(events.EventTaskStatusChanged)
		require.Len(t, changes, 1)
		payload, ok := changes[0].Payload.(events.TaskStatusChangedPayload)
		require.True(t, ok)
		assert.Equal(t, domain.TaskStatusTodo, payload.OldStatus)
		assert.Equal(t, domain.TaskStatusInProgress, payload.NewStatus)
	})

	t.Run("reassignment emits an event, clearing included", func(t *testing.T) {
		f := newTaskFixture(t)
		task, err := f.svc.Create(ctx, memberIdentity(f.alice.ID), f.board.ID, TaskCreateInput{Title: "One"})
		require.NoError(t, err)

		updated, err := f.svc.Update(ctx, memberIdentity(f.alice.ID), task.ID, TaskUpdateInput{AssigneeID: &f.bob.ID})
		require.NoError(t, err)
		require.NotNil(t, updated.AssigneeID)

		clear := ""
		updated, err = f.svc.Update(ctx, memberIdentity(f.alice.ID), task.ID, TaskUpdateInput{AssigneeID: &clear})
		require.NoError(t, err)
		assert.Nil(t, updated.AssigneeID)

		assert.Len(t, f.dispatcher.byType(events.EventTaskAssigned), 2)
	})

	t.Run("unchanged status emits nothing", func(t *testing.T) {
		f := newTaskFixture(t)
		task, err := f.svc.Create(ctx, memberIdentity(f.alice.ID), f.board.ID, TaskCreateInput{Title: "One"})
		require.NoError(t, err)

		title := "Renamed"
		_, err = f.svc.Update(ctx, memberIdentity(f.alice.ID), task.ID, TaskUpdateInput{Title: &title})
		require.NoError(t, err)
		assert.Empty(t, f.dispatcher.byType(events.EventTaskStatusChanged))
	})

	t.Run("archived board rejects updates", func(t *testing.T) {
		f := newTaskFixture(t)
		task, err := f.svc.Create(ctx, memberIdentity(f.alice.ID), f.board.ID, TaskCreateInput{Title: "One"})
		require.NoError(t, err)
		require.NoError(t, f.boardSvc.Archive(ctx, memberIdentity(f.alice.ID), f.board.ID))

		status := domain.TaskStatusDone
		_, err = f.svc.Update(ctx, memberIdentity(f.alice.ID), task.ID, TaskUpdateInput{Status: &status})
		assertErrCode(t, err, "CONFLICT")
	})
}

func TestTaskServiceDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("plain member may not delete another's task", func(t *testing.T) {
		f := newTaskFixture(t)
		task, err := f.svc.Create(ctx, memberIdentity(f.alice.ID), f.board.ID, TaskCreateInput{Title: "One"})
		require.NoError(t, err)

		err = f.svc.Delete(ctx, memberIdentity(f.bob.ID), task.ID)
		assertErrCode(t, err, "FORBIDDEN")
	})

	t.Run("creator deletes own task", func(t *testing.T) {
		f := newTaskFixture(t)
		task, err := f.svc.Create(ctx, memberIdentity(f.bob.ID), f.board.ID, TaskCreateInput{Title: "Mine"})
		require.NoError(t, err)

		require.NoError(t, f.svc.Delete(ctx, memberIdentity(f.bob.ID), task.ID))
		_, err = f.svc.Get(ctx, memberIdentity(f.bob.ID), task.ID)
		assertErrCode(t, err, "NOT_FOUND")
	})

	t.Run("board owner deletes any task on the board", func(t *testing.T) {
		f := newTaskFixture(t)
		task, err := f.svc.Create(ctx, memberIdentity(f.bob.ID), f.board.ID, TaskCreateInput{Title: "Bob's"})
		require.NoError(t, err)

		require.NoError(t, f.svc.Delete(ctx, memberIdentity(f.alice.ID), task.ID))
	})
}
