// Package upstream talks to the public to-do/user API that tickets are derived from.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/tickethub/internal/config"
	"github.com/spec-kit/tickethub/internal/domain"
	apperrors "github.com/spec-kit/tickethub/pkg/util/errorutil"
)

// TodoAPI reads to-do records.
type TodoAPI interface {
	FetchTodosPage(ctx context.Context, limit, skip int) (*TodoPage, error)
	FetchTodoByID(ctx context.Context, id int) (*domain.Todo, error)
	SearchTodos(ctx context.Context, query string, limit, skip int) (*TodoPage, error)
}

// UserAPI reads user records.
type UserAPI interface {
	FetchUserByID(ctx context.Context, id int) (*domain.UserSummary, error)
	FetchUsersPage(ctx context.Context, limit, skip int) (*UserPage, error)
}

// TodoPage is one page of a todo listing or search.
type TodoPage struct {
	Todos []domain.Todo
	Total int
	Skip  int
	Limit int
}

// UserPage is one page of the user listing.
type UserPage struct {
	Users []domain.UserSummary
	Total int
	Skip  int
	Limit int
}

type todosEnvelope struct {
	Todos []domain.Todo `json:"todos"`
	Total *int          `json:"total"`
	Skip  int           `json:"skip"`
	Limit int           `json:"limit"`
}

type usersEnvelope struct {
	Users []domain.UserSummary `json:"users"`
	Total *int                 `json:"total"`
	Skip  int                  `json:"skip"`
	Limit int                  `json:"limit"`
}

// Client is an HTTP client for the upstream API. It is safe for concurrent use
// and keeps a bounded keep-alive pool until Close is called.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger

	closeOnce sync.Once
}

var (
	_ TodoAPI = (*Client)(nil)
	_ UserAPI = (*Client)(nil)
)

// NewClient builds a client from configuration.
func NewClient(cfg config.UpstreamConfig, logger *zap.Logger) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.MaxConns > 0 {
		transport.MaxConnsPerHost = cfg.MaxConns
	}
	if cfg.MaxIdleConns > 0 {
		transport.MaxIdleConns = cfg.MaxIdleConns
		transport.MaxIdleConnsPerHost = cfg.MaxIdleConns
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http: &http.Client{
			Timeout:   cfg.Timeout(),
			Transport: transport,
		},
		logger: logger.Named("upstream"),
	}
}

// Close releases pooled connections. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.http.CloseIdleConnections()
	})
}

// Ping checks that the upstream answers a minimal listing request.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.FetchTodosPage(ctx, 1, 0)
	return err
}

// FetchTodosPage returns one page of todos.
func (c *Client) FetchTodosPage(ctx context.Context, limit, skip int) (*TodoPage, error) {
	var env todosEnvelope
	if err := c.getJSON(ctx, "todos", pageParams(limit, skip), &env); err != nil {
		return nil, err
	}
	return env.page(), nil
}

// FetchTodoByID returns a single todo.
func (c *Client) FetchTodoByID(ctx context.Context, id int) (*domain.Todo, error) {
	var todo domain.Todo
	if err := c.getJSON(ctx, "todos/"+strconv.Itoa(id), nil, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// SearchTodos runs a text search over todos.
func (c *Client) SearchTodos(ctx context.Context, query string, limit, skip int) (*TodoPage, error) {
	params := pageParams(limit, skip)
	params.Set("q", query)
	var env todosEnvelope
	if err := c.getJSON(ctx, "todos/search", params, &env); err != nil {
		return nil, err
	}
	return env.page(), nil
}

// FetchUserByID returns a single user.
func (c *Client) FetchUserByID(ctx context.Context, id int) (*domain.UserSummary, error) {
	var user domain.UserSummary
	if err := c.getJSON(ctx, "users/"+strconv.Itoa(id), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// FetchUsersPage returns one page of users.
func (c *Client) FetchUsersPage(ctx context.Context, limit, skip int) (*UserPage, error) {
	var env usersEnvelope
	if err := c.getJSON(ctx, "users", pageParams(limit, skip), &env); err != nil {
		return nil, err
	}
	total := len(env.Users)
	if env.Total != nil {
		total = *env.Total
	}
	return &UserPage{Users: env.Users, Total: total, Skip: env.Skip, Limit: env.Limit}, nil
}

func (e todosEnvelope) page() *TodoPage {
	total := len(e.Todos)
	if e.Total != nil {
		total = *e.Total
	}
	return &TodoPage{Todos: e.Todos, Total: total, Skip: e.Skip, Limit: e.Limit}
}

func pageParams(limit, skip int) url.Values {
	return url.Values{
		"limit": []string{strconv.Itoa(limit)},
		"skip":  []string{strconv.Itoa(skip)},
	}
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, v any) error {
	target := c.baseURL + "/" + endpoint
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return apperrors.NewInternalError(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("upstream request failed", zap.String("endpoint", endpoint), zap.Error(err))
		if isTransportError(err) {
			return apperrors.NewServiceUnavailable(err)
		}
		return apperrors.NewInternalError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.NewServiceUnavailable(fmt.Errorf("read response: %w", err))
	}

	c.logger.Debug("upstream request",
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.NewUpstreamStatusError(resp.StatusCode, string(data))
	}

	if err := json.Unmarshal(data, v); err != nil {
		return apperrors.NewInternalError(fmt.Errorf("parse %s response: %w", endpoint, err))
	}
	return nil
}

// isTransportError reports failures reaching the upstream: DNS, refused
// connections, timeouts and cancelled requests.
func isTransportError(err error) bool {
	// *url.Error satisfies net.Error itself, so classify what it wraps.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return true
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
