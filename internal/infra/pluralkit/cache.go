package pluralkit

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"reply_reminder_bot/internal/domain/proxy"
)

// CachingResolver remembers successful resolutions. Every hit pushes the entry's
// expiry back by the TTL, so hot messages stay cached. Not-proxied answers and
// errors always go to the wrapped resolver.
type CachingResolver struct {
	next  proxy.Resolver
	cache *ttlcache.Cache[string, proxy.Message]
}

func NewCachingResolver(next proxy.Resolver, ttl time.Duration) *CachingResolver {
	cache := ttlcache.New[string, proxy.Message](
		ttlcache.WithTTL[string, proxy.Message](ttl),
	)
	go cache.Start() // expired item cleanup
	return &CachingResolver{next: next, cache: cache}
}

func (c *CachingResolver) Resolve(ctx context.Context, messageID string) (*proxy.Message, error) {
	if item := c.cache.Get(messageID); item != nil {
		msg := item.Value()
		return &msg, nil
	}

	msg, err := c.next.Resolve(ctx, messageID)
	if err != nil {
		return nil, err
	}
	c.cache.Set(messageID, *msg, ttlcache.DefaultTTL)
	return msg, nil
}

// Stop ends the cleanup goroutine.
func (c *CachingResolver) Stop() {
	c.cache.Stop()
}

// NewResolver builds the resolver the bot uses: a live client, cached when ttl > 0.
func NewResolver(opts ClientOptions, ttl time.Duration) proxy.Resolver {
	client := NewClient(opts)
	if ttl <= 0 {
		return client
	}
	return NewCachingResolver(client, ttl)
}
