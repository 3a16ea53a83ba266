package dto

import (
	"encoding/json"
	"time"

	"github.com/spec-kit/tickethub/internal/domain"
)

// TicketListItem is the list-view projection of a ticket.
type TicketListItem struct {
	ID       int                   `json:"id"`
	Title    string                `json:"title"`
	Status   domain.TicketStatus   `json:"status"`
	Priority domain.TicketPriority `json:"priority"`
}

// PaginatedResponse wraps one page of list items.
type PaginatedResponse struct {
	Items   []TicketListItem `json:"items"`
	Total   int              `json:"total"`
	Page    int              `json:"page"`
	PerPage int              `json:"per_page"`
	Pages   int              `json:"pages"`
}

// TicketDetailResponse provides full ticket info, including the upstream record.
type TicketDetailResponse struct {
	ID         int                   `json:"id"`
	Title      string                `json:"title"`
	Status     domain.TicketStatus   `json:"status"`
	Priority   domain.TicketPriority `json:"priority"`
	Assignee   string                `json:"assignee"`
	SourceData json.RawMessage       `json:"source_data"`
	CreatedAt  *time.Time            `json:"created_at"`
	UpdatedAt  *time.Time            `json:"updated_at"`
}

// StatsResponse summarises tickets.
type StatsResponse struct {
	TotalTickets      int                           `json:"total_tickets"`
	OpenTickets       int                           `json:"open_tickets"`
	ClosedTickets     int                           `json:"closed_tickets"`
	PriorityBreakdown map[domain.TicketPriority]int `json:"priority_breakdown"`
}
