package directory

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dialog-app/dialog/internal/application/messaging"
	"github.com/dialog-app/dialog/internal/domain/user"
	"github.com/dialog-app/dialog/internal/domain/uuid"
)

// DefaultCacheTTL is how long a resolved identity stays cached.
// Identities are stable; only a rename invalidates the mapping, and a short
// TTL keeps that window bounded.
const DefaultCacheTTL = 5 * time.Minute

const cacheKeyPrefix = "dialog:directory:"

// CachedDirectory wraps another directory with a Redis read-through cache.
// Cache failures are never fatal: the lookup falls through to the inner
// directory and only logs at debug level.
type CachedDirectory struct {
	inner  messaging.UserDirectory
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedDirectory creates a caching decorator around inner.
func NewCachedDirectory(
	inner messaging.UserDirectory,
	client *redis.Client,
	ttl time.Duration,
	logger *slog.Logger,
) *CachedDirectory {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedDirectory{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

type cachedUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Resolve returns the cached identity or falls through to the inner directory.
func (d *CachedDirectory) Resolve(ctx context.Context, username string) (user.User, error) {
	key := cacheKeyPrefix + strings.ToLower(strings.TrimSpace(username))

	if cached, err := d.client.Get(ctx, key).Result(); err == nil {
		var doc cachedUser
		if jsonErr := json.Unmarshal([]byte(cached), &doc); jsonErr == nil {
			if id, idErr := uuid.ParseUUID(doc.ID); idErr == nil {
				if u, userErr := user.New(id, doc.Username); userErr == nil {
					return u, nil
				}
			}
		}
		// fall through on a corrupt entry
	} else if !errors.Is(err, redis.Nil) {
		d.logger.DebugContext(ctx, "directory cache read failed",
			slog.String("error", err.Error()),
		)
	}

	u, err := d.inner.Resolve(ctx, username)
	if err != nil {
		return user.User{}, err
	}

	payload, err := json.Marshal(cachedUser{
		ID:       u.ID().String(),
		Username: u.Username(),
	})
	if err == nil {
		if setErr := d.client.Set(ctx, key, payload, d.ttl).Err(); setErr != nil {
			d.logger.DebugContext(ctx, "directory cache write failed",
				slog.String("error", setErr.Error()),
			)
		}
	}

	return u, nil
}
