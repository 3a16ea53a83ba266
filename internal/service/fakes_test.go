package service

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/spec-kit/tickethub/internal/domain"
	"github.com/spec-kit/tickethub/internal/upstream"
)

type fakeTodoAPI struct {
	mu     sync.Mutex
	calls  []string
	page   func(limit, skip int) (*upstream.TodoPage, error)
	search func(query string, limit, skip int) (*upstream.TodoPage, error)
	byID   func(id int) (*domain.Todo, error)
}

func (f *fakeTodoAPI) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeTodoAPI) FetchTodosPage(_ context.Context, limit, skip int) (*upstream.TodoPage, error) {
	f.record("page")
	return f.page(limit, skip)
}

func (f *fakeTodoAPI) SearchTodos(_ context.Context, query string, limit, skip int) (*upstream.TodoPage, error) {
	f.record("search")
	return f.search(query, limit, skip)
}

func (f *fakeTodoAPI) FetchTodoByID(_ context.Context, id int) (*domain.Todo, error) {
	f.record("byID")
	return f.byID(id)
}

type fakeUserAPI struct {
	calls atomic.Int64
	fetch func(ctx context.Context, id int) (*domain.UserSummary, error)
	list  func(limit, skip int) (*upstream.UserPage, error)
}

func (f *fakeUserAPI) FetchUserByID(ctx context.Context, id int) (*domain.UserSummary, error) {
	f.calls.Add(1)
	if f.fetch == nil {
		return &domain.UserSummary{ID: id, Username: usernameFor(id)}, nil
	}
	return f.fetch(ctx, id)
}

func (f *fakeUserAPI) FetchUsersPage(_ context.Context, limit, skip int) (*upstream.UserPage, error) {
	return f.list(limit, skip)
}

func usernameFor(id int) string {
	return "user" + string(rune('a'+id%26))
}

// resolverFunc adapts a function to AssigneeResolver.
type resolverFunc func(ctx context.Context, id int) domain.UserSummary

func (f resolverFunc) Resolve(ctx context.Context, id int) domain.UserSummary {
	return f(ctx, id)
}

func makeTodos(from, to int, completed func(id int) bool) []domain.Todo {
	todos := make([]domain.Todo, 0, to-from+1)
	for id := from; id <= to; id++ {
		todos = append(todos, domain.Todo{
			ID:        id,
			Text:      "todo number " + string(rune('A'+id%26)),
			Completed: completed(id),
			UserID:    id%5 + 1,
		})
	}
	return todos
}
