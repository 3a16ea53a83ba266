package domain

import (
	"encoding/json"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen   TicketStatus = "open"
	TicketStatusClosed TicketStatus = "closed"
)

// TicketPriority enumerates ticket urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
)

// Priorities lists every priority bucket in id-modulo order.
var Priorities = []TicketPriority{TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh}

// ListTitleMaxLen bounds titles in list views.
const ListTitleMaxLen = 100

const ellipsis = "..."

// Ticket is the aggregate derived from one upstream todo.
type Ticket struct {
	ID         int
	Title      string
	Status     TicketStatus
	Priority   TicketPriority
	Assignee   string
	SourceData json.RawMessage
	CreatedAt  *time.Time
	UpdatedAt  *time.Time
}

// TicketListItem is the trimmed projection used by list endpoints.
type TicketListItem struct {
	ID       int
	Title    string
	Status   TicketStatus
	Priority TicketPriority
}

// StatusFor maps the upstream completed flag to a status.
func StatusFor(completed bool) TicketStatus {
	if completed {
		return TicketStatusClosed
	}
	return TicketStatusOpen
}

// PriorityFor derives priority from the ticket id. Negative ids are folded
// into the same three buckets.
func PriorityFor(id int) TicketPriority {
	m := id % len(Priorities)
	if m < 0 {
		m += len(Priorities)
	}
	return Priorities[m]
}

// ParseStatus validates a status filter value.
func ParseStatus(s string) (TicketStatus, bool) {
	switch TicketStatus(s) {
	case TicketStatusOpen, TicketStatusClosed:
		return TicketStatus(s), true
	}
	return "", false
}

// ParsePriority validates a priority filter value.
func ParsePriority(s string) (TicketPriority, bool) {
	for _, p := range Priorities {
		if TicketPriority(s) == p {
			return p, true
		}
	}
	return "", false
}

// TruncateTitle shortens titles longer than max runes, ending them with "...".
// The result is exactly max runes long when truncated.
func TruncateTitle(title string, max int) string {
	runes := []rune(title)
	if len(runes) <= max {
		return title
	}
	keep := max - len(ellipsis)
	if keep < 0 {
		keep = 0
	}
	return string(runes[:keep]) + ellipsis
}

// ListItem projects the ticket for list views.
func (t Ticket) ListItem() TicketListItem {
	return TicketListItem{
		ID:       t.ID,
		Title:    TruncateTitle(t.Title, ListTitleMaxLen),
		Status:   t.Status,
		Priority: t.Priority,
	}
}

// Matches reports whether the ticket satisfies the optional filters.
// Empty values match everything.
func (t Ticket) Matches(status TicketStatus, priority TicketPriority) bool {
	if status != "" && t.Status != status {
		return false
	}
	if priority != "" && t.Priority != priority {
		return false
	}
	return true
}
