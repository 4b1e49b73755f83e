// Package credentials resolves the publishing credentials of a user, with an
// optional redis cache in front of the credential store.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/postsync/pkg/models"
	"github.com/dukex/postsync/pkg/persistence"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultCacheTTL = 5 * time.Minute
	keyPrefix       = "postsync:credentials:"
)

var (
	// ErrNotFound means the user must authenticate before running the workflow.
	ErrNotFound = errors.New("credentials not found")

	// ErrIncompleteCredentials means a stored credential pair lacks the token or the person URN.
	ErrIncompleteCredentials = errors.New("incomplete credentials")
)

// Cache is the subset of the redis client used by the resolver.
type Cache interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type Resolver struct {
	store  persistence.CredentialStore
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

type Option func(*Resolver)

// WithCache enables caching of resolved credentials for ttl.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(r *Resolver) {
		r.cache = cache
		r.ttl = ttl
	}
}

func NewResolver(store persistence.CredentialStore, logger *slog.Logger, opts ...Option) *Resolver {
	resolver := &Resolver{
		store:  store,
		ttl:    DefaultCacheTTL,
		logger: logger.With("module", "credentials"),
	}

	for _, opt := range opts {
		opt(resolver)
	}

	if resolver.ttl <= 0 {
		resolver.ttl = DefaultCacheTTL
	}

	return resolver
}

// NewRedisClient parses a redis:// URL.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	return redis.NewClient(options), nil
}

// Resolve returns the complete credential pair of userID, or an error wrapping
// ErrNotFound or ErrIncompleteCredentials.
func (r *Resolver) Resolve(ctx context.Context, userID string) (*models.Credentials, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: empty user id", ErrNotFound)
	}

	if creds, ok := r.cached(ctx, userID); ok {
		return creds, nil
	}

	creds, err := r.store.Credentials(ctx, userID)
	if persistence.IsCredentialsNotFound(err) {
		return nil, fmt.Errorf("%w for user %s", ErrNotFound, userID)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}

	if !creds.Complete() {
		return nil, fmt.Errorf("%w for user %s", ErrIncompleteCredentials, userID)
	}

	creds.PersonURN = models.PersonURN(creds.PersonURN)
	r.remember(ctx, userID, creds)

	return creds, nil
}

// Save stores creds for userID and drops any cached copy.
func (r *Resolver) Save(ctx context.Context, userID string, creds models.Credentials) error {
	if !creds.Complete() {
		return ErrIncompleteCredentials
	}

	err := r.store.SaveCredentials(ctx, userID, creds)
	if err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}

	if r.cache != nil {
		if err := r.cache.Del(ctx, cacheKey(userID)).Err(); err != nil {
			r.logger.WarnContext(ctx, "Failed to invalidate cached credentials", "user_id", userID, "error", err)
		}
	}

	return nil
}

func (r *Resolver) cached(ctx context.Context, userID string) (*models.Credentials, bool) {
	if r.cache == nil {
		return nil, false
	}

	raw, err := r.cache.Get(ctx, cacheKey(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.WarnContext(ctx, "Credential cache unavailable", "error", err)
		}

		return nil, false
	}

	var creds models.Credentials

	err = json.Unmarshal(raw, &creds)
	if err != nil || !creds.Complete() {
		r.logger.DebugContext(ctx, "Discarding unreadable cached credentials", "user_id", userID)

		return nil, false
	}

	r.logger.DebugContext(ctx, "Credential cache hit", "user_id", userID)

	return &creds, true
}

func (r *Resolver) remember(ctx context.Context, userID string, creds *models.Credentials) {
	if r.cache == nil {
		return
	}

	data, err := json.Marshal(creds)
	if err != nil {
		return
	}

	if err := r.cache.Set(ctx, cacheKey(userID), data, r.ttl).Err(); err != nil {
		r.logger.WarnContext(ctx, "Failed to cache credentials", "user_id", userID, "error", err)
	}
}

func cacheKey(userID string) string {
	return keyPrefix + userID
}
