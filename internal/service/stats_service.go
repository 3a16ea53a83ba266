package service

import (
	"context"

	"github.com/spec-kit/tickethub/internal/domain"
	"github.com/spec-kit/tickethub/internal/upstream"
	apperrors "github.com/spec-kit/tickethub/pkg/util/errorutil"
)

// StatsFetchCap is the most todos a single stats computation reads.
const StatsFetchCap = 1000

// Stats summarises tickets by status and priority.
type Stats struct {
	TotalTickets      int
	OpenTickets       int
	ClosedTickets     int
	PriorityBreakdown map[domain.TicketPriority]int
}

// StatsService aggregates ticket counts.
type StatsService struct {
	todos       upstream.TodoAPI
	transformer *TicketTransformer
}

// NewStatsService constructs the service.
func NewStatsService(todos upstream.TodoAPI, transformer *TicketTransformer) *StatsService {
	return &StatsService{todos: todos, transformer: transformer}
}

// ComputeStats counts tickets over at most StatsFetchCap records. Larger
// corpora yield an approximation based on the first StatsFetchCap todos.
func (s *StatsService) ComputeStats(ctx context.Context) (*Stats, error) {
	probe, err := s.todos.FetchTodosPage(ctx, 1, 0)
	if err != nil {
		return nil, err
	}

	limit := min(probe.Total, StatsFetchCap)
	if limit <= 0 {
		return emptyStats(), nil
	}

	page, err := s.todos.FetchTodosPage(ctx, limit, 0)
	if err != nil {
		return nil, err
	}
	if len(page.Todos) == 0 {
		return emptyStats(), nil
	}

	tickets, err := s.transformer.ToTickets(ctx, page.Todos)
	if err != nil {
		return nil, apperrors.ToDomainError(err)
	}

	stats := emptyStats()
	stats.TotalTickets = len(tickets)
	for _, ticket := range tickets {
		if ticket.Status == domain.TicketStatusOpen {
			stats.OpenTickets++
		}
		stats.PriorityBreakdown[ticket.Priority]++
	}
	stats.ClosedTickets = stats.TotalTickets - stats.OpenTickets
	return stats, nil
}

func emptyStats() *Stats {
	breakdown := make(map[domain.TicketPriority]int, len(domain.Priorities))
	for _, p := range domain.Priorities {
		breakdown[p] = 0
	}
	return &Stats{PriorityBreakdown: breakdown}
}
