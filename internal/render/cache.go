package render

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/minutelab/minuted/internal/helpers"
)

const defaultCacheTTL = 10 * time.Minute

// CachedRenderer wraps another renderer with a Redis cache keyed by the
// page URL. Cache failures are treated as misses; the inner renderer is
// the source of truth.
type CachedRenderer struct {
	Inner  Renderer
	Client *redis.Client
	TTL    time.Duration
	Logger *log.Logger
}

func (c *CachedRenderer) Name() string { return c.Inner.Name() }

func (c *CachedRenderer) Render(ctx context.Context, url string) (string, error) {
	key := c.key(url)
	if c.Client != nil {
		cached, err := c.Client.Get(ctx, key).Result()
		if err == nil && cached != "" {
			return cached, nil
		}
		if err != nil && err != redis.Nil && c.Logger != nil {
			c.Logger.Printf("[RENDER] cache read failed for %s: %v", c.Inner.Name(), err)
		}
	}

	html, err := c.Inner.Render(ctx, url)
	if err != nil {
		return "", err
	}

	if c.Client != nil {
		ttl := c.TTL
		if ttl <= 0 {
			ttl = defaultCacheTTL
		}
		if err := c.Client.Set(ctx, key, html, ttl).Err(); err != nil && c.Logger != nil {
			c.Logger.Printf("[RENDER] cache write failed for %s: %v", c.Inner.Name(), err)
		}
	}
	return html, nil
}

func (c *CachedRenderer) key(url string) string {
	fp, err := helpers.URLFingerprint(url)
	if err != nil {
		fp = url
	}
	return "minuted:render:" + c.Inner.Name() + ":" + fp
}
