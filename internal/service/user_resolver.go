package service

import (
	"context"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/spec-kit/tickethub/internal/domain"
	"github.com/spec-kit/tickethub/internal/upstream"
)

// UserResolver maps user ids to summaries, remembering results in a bounded
// LRU. Lookups never fail: an id the upstream cannot return resolves to a
// cached placeholder.
type UserResolver struct {
	users  upstream.UserAPI
	cache  *lru.Cache[int, domain.UserSummary]
	group  singleflight.Group
	logger *zap.Logger
}

// NewUserResolver constructs a resolver holding at most size users.
func NewUserResolver(users upstream.UserAPI, size int, logger *zap.Logger) (*UserResolver, error) {
	cache, err := lru.New[int, domain.UserSummary](size)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserResolver{users: users, cache: cache, logger: logger}, nil
}

// Resolve returns the user for id, fetching it on a cache miss.
func (r *UserResolver) Resolve(ctx context.Context, id int) domain.UserSummary {
	if user, ok := r.cache.Get(id); ok {
		return user
	}
	// Concurrent misses for one id share a single upstream call. The shared
	// call outlives any one caller; the client timeout still bounds it.
	shared := context.WithoutCancel(ctx)
	ch := r.group.DoChan(strconv.Itoa(id), func() (any, error) {
		if user, ok := r.cache.Get(id); ok {
			return user, nil
		}
		user := r.fetch(shared, id)
		r.cache.Add(id, user)
		return user, nil
	})
	select {
	case res := <-ch:
		return res.Val.(domain.UserSummary)
	case <-ctx.Done():
		return domain.PlaceholderUser(id)
	}
}

func (r *UserResolver) fetch(ctx context.Context, id int) domain.UserSummary {
	user, err := r.users.FetchUserByID(ctx, id)
	if err != nil {
		r.logger.Warn("user lookup failed; using placeholder", zap.Int("user_id", id), zap.Error(err))
		return domain.PlaceholderUser(id)
	}
	return *user
}

// Warm preloads the first limit users from the upstream listing.
func (r *UserResolver) Warm(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		return 0, nil
	}
	page, err := r.users.FetchUsersPage(ctx, limit, 0)
	if err != nil {
		return 0, err
	}
	for _, user := range page.Users {
		r.cache.Add(user.ID, user)
	}
	return len(page.Users), nil
}

// Len reports how many users are cached.
func (r *UserResolver) Len() int {
	return r.cache.Len()
}
