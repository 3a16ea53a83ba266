package handlers

import (
	"strconv"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tickethub/internal/api/dto"
	"github.com/spec-kit/tickethub/internal/domain"
	"github.com/spec-kit/tickethub/internal/service"
	apperrors "github.com/spec-kit/tickethub/pkg/util/errorutil"
)

// TicketsHandler serves the read-only ticket endpoints.
type TicketsHandler struct {
	tickets *service.TicketService
	stats   *service.StatsService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, stats *service.StatsService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, stats: stats}
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter, err := parseTicketQuery(c, false)
	if err != nil {
		return err
	}
	return h.list(c, filter)
}

// SearchTickets GET /tickets/search.
func (h *TicketsHandler) SearchTickets(c *fiber.Ctx) error {
	filter, err := parseTicketQuery(c, true)
	if err != nil {
		return err
	}
	// Only q and pagination apply to search.
	filter.Status = ""
	filter.Priority = ""
	return h.list(c, filter)
}

func (h *TicketsHandler) list(c *fiber.Ctx, filter service.TicketFilter) error {
	page, err := h.tickets.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(paginatedResponse(page))
}

// GetTicket GET /tickets/:ticket_id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("ticket_id"))
	if err != nil {
		return apperrors.NewValidationError("ticket_id must be an integer", map[string]any{"ticket_id": c.Params("ticket_id")})
	}
	ticket, err := h.tickets.GetTicket(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(ticketDetail(ticket))
}

// Stats GET /tickets/stats/summary.
func (h *TicketsHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.stats.ComputeStats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.StatsResponse{
		TotalTickets:      stats.TotalTickets,
		OpenTickets:       stats.OpenTickets,
		ClosedTickets:     stats.ClosedTickets,
		PriorityBreakdown: stats.PriorityBreakdown,
	})
}

func parseTicketQuery(c *fiber.Ctx, requireSearch bool) (service.TicketFilter, error) {
	filter := service.TicketFilter{Page: 1, PerPage: service.DefaultPerPage}

	if statusStr := c.Query("status"); statusStr != "" {
		status, ok := domain.ParseStatus(statusStr)
		if !ok {
			return filter, apperrors.NewValidationError("status must be one of: open, closed", map[string]any{"status": statusStr})
		}
		filter.Status = status
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		priority, ok := domain.ParsePriority(priorityStr)
		if !ok {
			return filter, apperrors.NewValidationError("priority must be one of: low, medium, high", map[string]any{"priority": priorityStr})
		}
		filter.Priority = priority
	}

	q := c.Query("q")
	hasQ := c.Context().QueryArgs().Has("q")
	switch {
	case requireSearch && q == "":
		return filter, apperrors.NewValidationError("q is required", nil)
	case hasQ && q == "":
		return filter, apperrors.NewValidationError("q must not be empty", nil)
	case utf8.RuneCountInString(q) > service.MaxSearchLen:
		return filter, apperrors.NewValidationError("q must be at most 100 characters", map[string]any{"q_length": utf8.RuneCountInString(q)})
	}
	filter.Search = q

	page, err := parseBoundedInt(c.Query("page"), 1, 1, 0)
	if err != nil {
		return filter, apperrors.NewValidationError("page must be an integer >= 1", map[string]any{"page": c.Query("page")})
	}
	filter.Page = page

	perPage, err := parseBoundedInt(c.Query("per_page"), service.DefaultPerPage, 1, service.MaxPerPage)
	if err != nil {
		return filter, apperrors.NewValidationError("per_page must be an integer between 1 and 100", map[string]any{"per_page": c.Query("per_page")})
	}
	filter.PerPage = perPage

	return filter, nil
}

// parseBoundedInt parses val, returning def when empty. hi <= 0 means unbounded.
func parseBoundedInt(val string, def, lo, hi int) (int, error) {
	if val == "" {
		return def, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return 0, err
	}
	if parsed < lo || (hi > 0 && parsed > hi) {
		return 0, strconv.ErrRange
	}
	return parsed, nil
}

func paginatedResponse(page *service.TicketPage) dto.PaginatedResponse {
	items := make([]dto.TicketListItem, 0, len(page.Items))
	for _, item := range page.Items {
		items = append(items, dto.TicketListItem{
			ID:       item.ID,
			Title:    item.Title,
			Status:   item.Status,
			Priority: item.Priority,
		})
	}
	return dto.PaginatedResponse{
		Items:   items,
		Total:   page.Total,
		Page:    page.Page,
		PerPage: page.PerPage,
		Pages:   page.Pages,
	}
}

func ticketDetail(ticket *domain.Ticket) dto.TicketDetailResponse {
	return dto.TicketDetailResponse{
		ID:         ticket.ID,
		Title:      ticket.Title,
		Status:     ticket.Status,
		Priority:   ticket.Priority,
		Assignee:   ticket.Assignee,
		SourceData: ticket.SourceData,
		CreatedAt:  ticket.CreatedAt,
		UpdatedAt:  ticket.UpdatedAt,
	}
}
