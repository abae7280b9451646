// Package histcache is a Redis read-through cache in front of the chat
// history store. Prompt generation reads the same few recent turns on every
// request; keeping them in Redis spares PostgreSQL a query per generation.
//
// The cache is strictly optional. A nil *Cache behaves as a pass-through to
// the underlying [ragstore.ChatStore], so deployments without Redis simply
// skip construction.
package histcache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/promptforge/promptforge/pkg/ragstore"
)

// NewClient connects to Redis and verifies the connection with a ping.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Cache decorates a [ragstore.ChatStore] with per-tenant caching of the
// recent-turns listing. Writes invalidate; reads populate.
type Cache struct {
	store  ragstore.ChatStore
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

var _ ragstore.ChatStore = (*Cache)(nil)

// New wraps store with a Redis cache. Entries expire after ttl.
func New(store ragstore.ChatStore, client *redis.Client, ttl time.Duration, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.Default()
	}
	return &Cache{store: store, client: client, ttl: ttl, log: log}
}

// SaveTurn writes through to the store and drops the tenant's cached
// listing. A failed invalidation is logged and the write still succeeds;
// the stale entry ages out at the TTL.
func (c *Cache) SaveTurn(ctx context.Context, tenantID int64, userMessage, aiMessage string) (int64, error) {
	id, err := c.store.SaveTurn(ctx, tenantID, userMessage, aiMessage)
	if err != nil {
		return 0, err
	}
	if err := c.client.Del(ctx, historyKey(tenantID)).Err(); err != nil {
		c.log.Warn("history cache invalidation failed", "tenant_id", tenantID, "error", err)
	}
	return id, nil
}

// ListTurns serves the tenant's recent turns from Redis when a fresh entry
// with at least limit turns is present, falling back to the store otherwise.
// Redis errors degrade to a plain store read.
func (c *Cache) ListTurns(ctx context.Context, tenantID int64, limit int) ([]ragstore.ChatTurn, error) {
	key := historyKey(tenantID)

	raw, err := c.client.Get(ctx, key).Result()
	switch {
	case err == redis.Nil:
		// miss
	case err != nil:
		c.log.Warn("history cache read failed", "tenant_id", tenantID, "error", err)
	default:
		var turns []ragstore.ChatTurn
		if jerr := json.Unmarshal([]byte(raw), &turns); jerr == nil && len(turns) >= limit {
			return turns[:limit], nil
		}
	}

	turns, err := c.store.ListTurns(ctx, tenantID, limit)
	if err != nil {
		return nil, err
	}

	if payload, jerr := json.Marshal(turns); jerr == nil {
		if serr := c.client.Set(ctx, key, payload, c.ttl).Err(); serr != nil {
			c.log.Warn("history cache write failed", "tenant_id", tenantID, "error", serr)
		}
	}
	return turns, nil
}

// GetTurn is not cached; single-turn lookups go straight to the store.
func (c *Cache) GetTurn(ctx context.Context, turnID, tenantID int64) (*ragstore.ChatTurn, error) {
	return c.store.GetTurn(ctx, turnID, tenantID)
}

func historyKey(tenantID int64) string {
	return fmt.Sprintf("chat:history:%d", tenantID)
}
