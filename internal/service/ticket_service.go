package service

import (
	"context"
	"fmt"
	"net/http"

	"github.com/spec-kit/tickethub/internal/domain"
	"github.com/spec-kit/tickethub/internal/upstream"
	apperrors "github.com/spec-kit/tickethub/pkg/util/errorutil"
)

const (
	DefaultPerPage = 30
	MaxPerPage     = 100
	MaxSearchLen   = 100
)

// TicketService serves ticket listings and lookups from the upstream todo API.
type TicketService struct {
	todos       upstream.TodoAPI
	transformer *TicketTransformer
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TodoAPI     upstream.TodoAPI
	Transformer *TicketTransformer
}

// TicketFilter describes a listing request. Status and Priority are optional;
// the zero value means "any".
type TicketFilter struct {
	Status   domain.TicketStatus
	Priority domain.TicketPriority
	Search   string
	Page     int
	PerPage  int
}

// TicketPage is one page of list items. Total and Pages describe the upstream
// result before status/priority filtering, so Items may be shorter than PerPage.
type TicketPage struct {
	Items   []domain.TicketListItem
	Total   int
	Page    int
	PerPage int
	Pages   int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		todos:       deps.TodoAPI,
		transformer: deps.Transformer,
	}
}

// ListTickets fetches one upstream page (or search page), converts it and
// applies status/priority filters to that page only.
func (s *TicketService) ListTickets(ctx context.Context, filter TicketFilter) (*TicketPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 {
		filter.PerPage = DefaultPerPage
	}
	skip := (filter.Page - 1) * filter.PerPage

	var (
		page *upstream.TodoPage
		err  error
	)
	if filter.Search != "" {
		page, err = s.todos.SearchTodos(ctx, filter.Search, filter.PerPage, skip)
	} else {
		page, err = s.todos.FetchTodosPage(ctx, filter.PerPage, skip)
	}
	if err != nil {
		return nil, err
	}

	tickets, err := s.transformer.ToTickets(ctx, page.Todos)
	if err != nil {
		return nil, apperrors.ToDomainError(err)
	}

	items := make([]domain.TicketListItem, 0, len(tickets))
	for _, ticket := range tickets {
		if !ticket.Matches(filter.Status, filter.Priority) {
			continue
		}
		items = append(items, ticket.ListItem())
	}

	return &TicketPage{
		Items:   items,
		Total:   page.Total,
		Page:    filter.Page,
		PerPage: filter.PerPage,
		Pages:   PageCount(page.Total, filter.PerPage),
	}, nil
}

// GetTicket returns the detail view for one ticket.
func (s *TicketService) GetTicket(ctx context.Context, id int) (*domain.Ticket, error) {
	todo, err := s.todos.FetchTodoByID(ctx, id)
	if err != nil {
		if status, ok := apperrors.UpstreamStatus(err); ok && status == http.StatusNotFound {
			return nil, apperrors.NewNotFound(fmt.Sprintf("Ticket with ID %d not found", id), map[string]any{"ticket_id": id})
		}
		return nil, err
	}
	ticket, err := s.transformer.ToTicket(ctx, *todo)
	if err != nil {
		return nil, apperrors.ToDomainError(err)
	}
	return &ticket, nil
}

// PageCount returns ceil(total/perPage), or 0 for an empty result.
func PageCount(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}
