package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gharsewa/estate_api/internal/models"
)

// SessionSnapshot is the authorization state captured at login time.
// Permission checks during a session read this snapshot, never the database:
// grants made after login are invisible until the admin re-authenticates or
// the session is explicitly refreshed.
type SessionSnapshot struct {
	UserID        int                  `json:"userId"`
	Role          models.Role          `json:"role"`
	IsAdminActive bool                 `json:"isAdminActive"`
	Permissions   models.PermissionSet `json:"permissions"`
	CachedAt      time.Time            `json:"cachedAt"`
}

// Can applies the authorization gate to the snapshot.
func (s *SessionSnapshot) Can(p models.Permission) bool {
	u := models.User{
		Role:             s.Role,
		IsAdminActive:    s.IsAdminActive,
		AdminPermissions: s.Permissions,
	}
	return u.Can(p)
}

// SessionCache stores per-admin authorization snapshots in Redis for the
// lifetime of the bearer token.
type SessionCache struct {
	redis *RedisClient
	ttl   time.Duration
}

// NewSessionCache creates a new SessionCache. ttl should match the token TTL.
func NewSessionCache(redis *RedisClient, ttl time.Duration) *SessionCache {
	return &SessionCache{redis: redis, ttl: ttl}
}

func (c *SessionCache) key(userID int) string {
	return fmt.Sprintf("session:perms:%d", userID)
}

// Put writes the snapshot for a user, replacing any previous one.
func (c *SessionCache) Put(ctx context.Context, user *models.User) error {
	snap := &SessionSnapshot{
		UserID:        user.ID,
		Role:          user.Role,
		IsAdminActive: user.IsAdminActive,
		Permissions:   user.AdminPermissions,
		CachedAt:      time.Now(),
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal session snapshot: %w", err)
	}
	return c.redis.Set(ctx, c.key(user.ID), string(data), c.ttl)
}

// Get retrieves the snapshot for a user. Returns (nil, nil) when no
// snapshot exists, which callers treat as a session requiring re-login.
func (c *SessionCache) Get(ctx context.Context, userID int) (*SessionSnapshot, error) {
	data, err := c.redis.Get(ctx, c.key(userID))
	if err != nil {
		if IsNil(err) {
			return nil, nil
		}
		return nil, err
	}
	var snap SessionSnapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session snapshot: %w", err)
	}
	return &snap, nil
}

// Invalidate removes a user's snapshot, forcing re-authentication.
func (c *SessionCache) Invalidate(ctx context.Context, userID int) error {
	return c.redis.Delete(ctx, c.key(userID))
}
