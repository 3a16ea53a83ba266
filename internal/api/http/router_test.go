package http

import (
	"encoding/json"
	"fmt"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/tickethub/internal/api/dto"
	"github.com/spec-kit/tickethub/internal/api/http/handlers"
	"github.com/spec-kit/tickethub/internal/config"
	"github.com/spec-kit/tickethub/internal/observability"
	"github.com/spec-kit/tickethub/internal/service"
	"github.com/spec-kit/tickethub/internal/upstream"
)

// fakeUpstream imitates the to-do/user API with a corpus of `total` todos.
type fakeUpstream struct {
	total        int
	openHighIDs  map[int]bool
	failingUsers map[int]bool
	upstreamHits atomic.Int64
}

func (f *fakeUpstream) todo(id int) map[string]any {
	return map[string]any{
		"id":        id,
		"todo":      fmt.Sprintf("Todo %d", id),
		"completed": !f.openHighIDs[id],
		"userId":    id%3 + 1,
	}
}

func (f *fakeUpstream) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	f.upstreamHits.Add(1)
	w.Header().Set("Content-Type", "application/json")
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	skip, _ := strconv.Atoi(q.Get("skip"))

	switch {
	case r.URL.Path == "/todos":
		todos := []map[string]any{}
		for id := skip + 1; id <= f.total && len(todos) < limit; id++ {
			todos = append(todos, f.todo(id))
		}
		writeJSON(w, stdhttp.StatusOK, map[string]any{"todos": todos, "total": f.total, "skip": skip, "limit": limit})
	case r.URL.Path == "/todos/search":
		todos := []map[string]any{}
		if strings.Contains("todo 7", strings.ToLower(q.Get("q"))) {
			todos = append(todos, f.todo(7))
		}
		writeJSON(w, stdhttp.StatusOK, map[string]any{"todos": todos, "total": len(todos), "skip": skip, "limit": limit})
	case strings.HasPrefix(r.URL.Path, "/todos/"):
		id, _ := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/todos/"))
		if id < 1 || id > f.total {
			writeJSON(w, stdhttp.StatusNotFound, map[string]any{"message": fmt.Sprintf("Todo with id '%d' not found", id)})
			return
		}
		writeJSON(w, stdhttp.StatusOK, f.todo(id))
	case strings.HasPrefix(r.URL.Path, "/users/"):
		id, _ := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/users/"))
		if f.failingUsers[id] {
			writeJSON(w, stdhttp.StatusInternalServerError, map[string]any{"message": "boom"})
			return
		}
		writeJSON(w, stdhttp.StatusOK, map[string]any{
			"id": id, "username": fmt.Sprintf("owner%d", id), "firstName": "F", "lastName": "L", "email": "e@example.com",
		})
	default:
		writeJSON(w, stdhttp.StatusNotFound, map[string]any{"message": "not found"})
	}
}

func writeJSON(w stdhttp.ResponseWriter, status int, body any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newTestApp(t *testing.T, fake *fakeUpstream) *fiber.App {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	logger := zap.NewNop()
	client := upstream.NewClient(config.UpstreamConfig{BaseURL: srv.URL, TimeoutSeconds: 2}, logger)
	t.Cleanup(client.Close)

	resolver, err := service.NewUserResolver(client, 64, logger)
	require.NoError(t, err)
	transformer := service.NewTicketTransformer(resolver)
	tickets := service.NewTicketService(service.TicketDependencies{TodoAPI: client, Transformer: transformer})
	stats := service.NewStatsService(client, transformer)
	metrics := observability.NewMetrics()

	app := fiber.New()
	RegisterMiddlewares(app, logger, metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:  handlers.NewHealthHandler("tickethub-api", "0.1.0", client),
		Tickets: handlers.NewTicketsHandler(tickets, stats),
		Metrics: handlers.NewMetricsHandler(metrics, resolver),
	})
	return app
}

func doGet(t *testing.T, app *fiber.App, target string) (int, []byte) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(stdhttp.MethodGet, target, nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func TestListTickets(t *testing.T) {
	app := newTestApp(t, &fakeUpstream{total: 150})

	status, body := doGet(t, app, "/tickets/")
	require.Equal(t, stdhttp.StatusOK, status, string(body))

	var page dto.PaginatedResponse
	require.NoError(t, json.Unmarshal(body, &page))
	assert.Len(t, page.Items, 30)
	assert.Equal(t, 150, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 30, page.PerPage)
	assert.Equal(t, 5, page.Pages)
	assert.Equal(t, 1, page.Items[0].ID)
	assert.Equal(t, "medium", string(page.Items[0].Priority))
}

func TestListTicketsWithoutTrailingSlashAndPagination(t *testing.T) {
	app := newTestApp(t, &fakeUpstream{total: 150})

	status, body := doGet(t, app, "/tickets?page=2&per_page=10")
	require.Equal(t, stdhttp.StatusOK, status, string(body))

	var page dto.PaginatedResponse
	require.NoError(t, json.Unmarshal(body, &page))
	require.Len(t, page.Items, 10)
	assert.Equal(t, 11, page.Items[0].ID)
	assert.Equal(t, 15, page.Pages)
}

func TestListTicketsFilteredPageKeepsUnfilteredTotal(t *testing.T) {
	app := newTestApp(t, &fakeUpstream{total: 150, openHighIDs: map[int]bool{2: true, 5: true}})

	status, body := doGet(t, app, "/tickets/?status=open&priority=high")
	require.Equal(t, stdhttp.StatusOK, status, string(body))

	var page dto.PaginatedResponse
	require.NoError(t, json.Unmarshal(body, &page))
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 150, page.Total)
	assert.Equal(t, 5, page.Pages)
}

func TestListTicketsValidation(t *testing.T) {
	fake := &fakeUpstream{total: 150}
	app := newTestApp(t, fake)

	for _, target := range []string{
		"/tickets/?page=0",
		"/tickets/?page=abc",
		"/tickets/?per_page=0",
		"/tickets/?per_page=101",
		"/tickets/?status=pending",
		"/tickets/?priority=urgent",
		"/tickets/?q=",
		"/tickets/?q=" + strings.Repeat("a", 101),
	} {
		status, body := doGet(t, app, target)
		assert.Equal(t, stdhttp.StatusUnprocessableEntity, status, target)

		var env errorEnvelope
		require.NoError(t, json.Unmarshal(body, &env), target)
		assert.Equal(t, "VALIDATION_FAILED", env.Error.Code, target)
	}
	assert.Zero(t, fake.upstreamHits.Load(), "validation must reject before calling upstream")
}

func TestSearchTickets(t *testing.T) {
	app := newTestApp(t, &fakeUpstream{total: 150})

	status, body := doGet(t, app, "/tickets/search?q=todo%207")
	require.Equal(t, stdhttp.StatusOK, status, string(body))

	var page dto.PaginatedResponse
	require.NoError(t, json.Unmarshal(body, &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, 7, page.Items[0].ID)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 1, page.Pages)
}

func TestSearchTicketsMissingQuery(t *testing.T) {
	app := newTestApp(t, &fakeUpstream{total: 150})

	status, _ := doGet(t, app, "/tickets/search")
	assert.Equal(t, stdhttp.StatusUnprocessableEntity, status)
}

func TestGetTicket(t *testing.T) {
	app := newTestApp(t, &fakeUpstream{total: 150})

	status, body := doGet(t, app, "/tickets/2")
	require.Equal(t, stdhttp.StatusOK, status, string(body))

	var detail map[string]any
	require.NoError(t, json.Unmarshal(body, &detail))
	assert.EqualValues(t, 2, detail["id"])
	assert.Equal(t, "Todo 2", detail["title"])
	assert.Equal(t, "closed", detail["status"])
	assert.Equal(t, "high", detail["priority"])
	assert.Equal(t, "owner3", detail["assignee"])
	assert.Nil(t, detail["created_at"])
	assert.Nil(t, detail["updated_at"])

	source, ok := detail["source_data"].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 3, source["userId"])
}

func TestGetTicketNotFound(t *testing.T) {
	app := newTestApp(t, &fakeUpstream{total: 150})

	status, body := doGet(t, app, "/tickets/99999")
	require.Equal(t, stdhttp.StatusNotFound, status)

	var env errorEnvelope
	require.NoError(t, json.Unmarshal(body, &env))
	assert.Equal(t, "Ticket with ID 99999 not found", env.Error.Message)
}

func TestGetTicketInvalidID(t *testing.T) {
	app := newTestApp(t, &fakeUpstream{total: 150})

	status, _ := doGet(t, app, "/tickets/abc")
	assert.Equal(t, stdhttp.StatusUnprocessableEntity, status)
}

func TestGetTicketUserLookupFailureUsesPlaceholder(t *testing.T) {
	app := newTestApp(t, &fakeUpstream{total: 150, failingUsers: map[int]bool{2: true}})

	status, body := doGet(t, app, "/tickets/1")
	require.Equal(t, stdhttp.StatusOK, status, string(body))

	var detail dto.TicketDetailResponse
	require.NoError(t, json.Unmarshal(body, &detail))
	assert.Equal(t, "user_2", detail.Assignee)
}

func TestStatsSummary(t *testing.T) {
	app := newTestApp(t, &fakeUpstream{total: 9, openHighIDs: map[int]bool{2: true}})

	status, body := doGet(t, app, "/tickets/stats/summary")
	require.Equal(t, stdhttp.StatusOK, status, string(body))

	var stats dto.StatsResponse
	require.NoError(t, json.Unmarshal(body, &stats))
	assert.Equal(t, 9, stats.TotalTickets)
	assert.Equal(t, 1, stats.OpenTickets)
	assert.Equal(t, 8, stats.ClosedTickets)
	assert.Equal(t, 3, stats.PriorityBreakdown["low"])
	assert.Equal(t, 3, stats.PriorityBreakdown["medium"])
	assert.Equal(t, 3, stats.PriorityBreakdown["high"])
}

func TestStatsSummaryEmptyCorpus(t *testing.T) {
	app := newTestApp(t, &fakeUpstream{total: 0})

	status, body := doGet(t, app, "/tickets/stats/summary")
	require.Equal(t, stdhttp.StatusOK, status, string(body))
	assert.JSONEq(t,
		`{"total_tickets":0,"open_tickets":0,"closed_tickets":0,"priority_breakdown":{"low":0,"medium":0,"high":0}}`,
		string(body))
}

func TestUpstreamUnavailable(t *testing.T) {
	srv := httptest.NewServer(stdhttp.NotFoundHandler())
	base := srv.URL
	srv.Close()

	logger := zap.NewNop()
	client := upstream.NewClient(config.UpstreamConfig{BaseURL: base, TimeoutSeconds: 1}, logger)
	defer client.Close()
	resolver, err := service.NewUserResolver(client, 4, logger)
	require.NoError(t, err)
	transformer := service.NewTicketTransformer(resolver)

	app := fiber.New()
	RegisterMiddlewares(app, logger, observability.NewMetrics(), 0)
	RegisterRoutes(app, RouteConfig{
		Health:  handlers.NewHealthHandler("tickethub-api", "0.1.0", client),
		Tickets: handlers.NewTicketsHandler(service.NewTicketService(service.TicketDependencies{TodoAPI: client, Transformer: transformer}), service.NewStatsService(client, transformer)),
		Metrics: handlers.NewMetricsHandler(observability.NewMetrics(), resolver),
	})

	status, body := doGet(t, app, "/tickets/")
	require.Equal(t, stdhttp.StatusServiceUnavailable, status)
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(body, &env))
	assert.Equal(t, "SERVICE_UNAVAILABLE", env.Error.Code)

	status, _ = doGet(t, app, "/health/ready")
	assert.Equal(t, stdhttp.StatusServiceUnavailable, status)
}

func TestHealthRootAndMetrics(t *testing.T) {
	app := newTestApp(t, &fakeUpstream{total: 3})

	status, body := doGet(t, app, "/health")
	require.Equal(t, stdhttp.StatusOK, status)
	assert.JSONEq(t, `{"status":"healthy","service":"tickethub-api","version":"0.1.0"}`, string(body))

	status, body = doGet(t, app, "/")
	require.Equal(t, stdhttp.StatusOK, status)
	assert.JSONEq(t, `{"message":"Welcome to TicketHub API","version":"0.1.0","health":"/health"}`, string(body))

	status, _ = doGet(t, app, "/health/ready")
	assert.Equal(t, stdhttp.StatusOK, status)

	status, _ = doGet(t, app, "/tickets/1")
	require.Equal(t, stdhttp.StatusOK, status)

	status, body = doGet(t, app, "/metrics")
	require.Equal(t, stdhttp.StatusOK, status)
	var snap struct {
		HTTP           observability.Snapshot `json:"http"`
		UserCacheItems int                    `json:"user_cache_items"`
	}
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, 1, snap.UserCacheItems)
	assert.NotEmpty(t, snap.HTTP.Requests)
}

func TestMetricsKeyErrorsByRoute(t *testing.T) {
	app := newTestApp(t, &fakeUpstream{total: 3})

	for id := 1000; id < 1020; id++ {
		status, _ := doGet(t, app, fmt.Sprintf("/tickets/%d", id))
		require.Equal(t, stdhttp.StatusNotFound, status)
	}

	status, body := doGet(t, app, "/metrics")
	require.Equal(t, stdhttp.StatusOK, status)
	var snap struct {
		HTTP observability.Snapshot `json:"http"`
	}
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, []observability.Counter{
		{Key: "/tickets/:ticket_id|GET|NOT_FOUND", Count: 20},
	}, snap.HTTP.Errors)
}

func TestRequestIDHeader(t *testing.T) {
	app := newTestApp(t, &fakeUpstream{total: 3})

	req := httptest.NewRequest(stdhttp.MethodGet, "/health", nil)
	req.Header.Set(observability.RequestIDHeader, "abc-123")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "abc-123", resp.Header.Get(observability.RequestIDHeader))

	resp, err = app.Test(httptest.NewRequest(stdhttp.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get(observability.RequestIDHeader))
}

func TestUnknownRoute(t *testing.T) {
	app := newTestApp(t, &fakeUpstream{total: 3})

	status, body := doGet(t, app, "/nope")
	assert.Equal(t, stdhttp.StatusNotFound, status)
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(body, &env))
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}
