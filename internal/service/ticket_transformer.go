package service

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/tickethub/internal/domain"
)

// AssigneeResolver looks up the user a todo belongs to.
type AssigneeResolver interface {
	Resolve(ctx context.Context, id int) domain.UserSummary
}

// TicketTransformer turns upstream todos into tickets.
type TicketTransformer struct {
	users AssigneeResolver
}

// NewTicketTransformer constructs the transformer.
func NewTicketTransformer(users AssigneeResolver) *TicketTransformer {
	return &TicketTransformer{users: users}
}

// ToTicket converts one todo. It fails only when ctx is done.
func (t *TicketTransformer) ToTicket(ctx context.Context, todo domain.Todo) (domain.Ticket, error) {
	if err := ctx.Err(); err != nil {
		return domain.Ticket{}, err
	}
	user := t.users.Resolve(ctx, todo.UserID)
	return domain.Ticket{
		ID:         todo.ID,
		Title:      todo.Text,
		Status:     domain.StatusFor(todo.Completed),
		Priority:   domain.PriorityFor(todo.ID),
		Assignee:   user.Username,
		SourceData: todo.Source(),
	}, nil
}

// ToTickets converts todos concurrently. result[i] always corresponds to
// todos[i]; the first error to occur is returned with no partial result.
func (t *TicketTransformer) ToTickets(ctx context.Context, todos []domain.Todo) ([]domain.Ticket, error) {
	tickets := make([]domain.Ticket, len(todos))
	g, gctx := errgroup.WithContext(ctx)
	for i := range todos {
		i := i
		g.Go(func() error {
			ticket, err := t.ToTicket(gctx, todos[i])
			if err != nil {
				return err
			}
			tickets[i] = ticket
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tickets, nil
}
