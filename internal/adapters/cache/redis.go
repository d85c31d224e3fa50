// Package cache provides the Redis-backed read cache for the event catalogue.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"eventbooking/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix     = "events:"
	generationKey = keyPrefix + "gen"
)

// NewRedisClient connects to Redis and pings it with a short timeout.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}

// EventCache implements domain.EventCache on Redis. Every key embeds a generation
// counter: one per event for single events and a shared one for list pages. A miss
// returns the generation it saw, and the value loaded afterwards is stored under
// that generation, so a load that raced an Invalidate lands on a key nobody reads.
// Redis errors are logged and treated as misses.
type EventCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ domain.EventCache = (*EventCache)(nil)

// NewEventCache returns an EventCache whose entries expire after ttl.
func NewEventCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *EventCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &EventCache{client: client, ttl: ttl, logger: logger}
}

func eventGenerationKey(id string) string { return keyPrefix + "gen:" + id }

func eventKey(gen domain.CacheStamp, id string) string {
	return fmt.Sprintf("%sitem:%s:%d", keyPrefix, id, gen)
}

func listKey(gen domain.CacheStamp, params domain.PaginationParams) string {
	return fmt.Sprintf("%slist:%d:%d:%d", keyPrefix, gen, params.Page, params.PageSize)
}

func (c *EventCache) GetEvent(ctx context.Context, id string) (*domain.Event, domain.CacheStamp, bool) {
	gen, ok := c.generation(ctx, eventGenerationKey(id))
	if !ok {
		return nil, domain.NoCacheStamp, false
	}
	var e domain.Event
	if !c.get(ctx, eventKey(gen, id), &e) {
		return nil, gen, false
	}
	return &e, gen, true
}

func (c *EventCache) SetEvent(ctx context.Context, stamp domain.CacheStamp, event *domain.Event) {
	if stamp < 0 {
		return
	}
	c.set(ctx, eventKey(stamp, event.ID), event)
}

func (c *EventCache) GetEventList(ctx context.Context, params domain.PaginationParams) (*domain.EventPage, domain.CacheStamp, bool) {
	gen, ok := c.generation(ctx, generationKey)
	if !ok {
		return nil, domain.NoCacheStamp, false
	}
	var page domain.EventPage
	if !c.get(ctx, listKey(gen, params), &page) {
		return nil, gen, false
	}
	return &page, gen, true
}

func (c *EventCache) SetEventList(ctx context.Context, stamp domain.CacheStamp, params domain.PaginationParams, page *domain.EventPage) {
	if stamp < 0 {
		return
	}
	c.set(ctx, listKey(stamp, params), page)
}

// Invalidate moves the event and the list pages to new generations.
func (c *EventCache) Invalidate(ctx context.Context, eventID string) {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, eventGenerationKey(eventID))
		pipe.Incr(ctx, generationKey)
		return nil
	})
	if err != nil {
		c.logger.WarnContext(ctx, "cache invalidate failed", "event_id", eventID, "err", err)
	}
}

func (c *EventCache) generation(ctx context.Context, key string) (domain.CacheStamp, bool) {
	gen, err := c.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		c.logger.WarnContext(ctx, "cache generation read failed", "key", key, "err", err)
		return domain.NoCacheStamp, false
	}
	return domain.CacheStamp(gen), true
}

func (c *EventCache) get(ctx context.Context, key string, dest any) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "cache read failed", "key", key, "err", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.WarnContext(ctx, "cache entry corrupt", "key", key, "err", err)
		return false
	}
	return true
}

func (c *EventCache) set(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.WarnContext(ctx, "cache encode failed", "key", key, "err", err)
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "cache write failed", "key", key, "err", err)
	}
}
