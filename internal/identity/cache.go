package identity

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// cachedAccount wraps a resolved account id with version metadata
type cachedAccount struct {
	Version   string
	AccountID string
	CachedAt  time.Time
}

// handleCache keeps positive handle lookups. Misses are never cached so a
// handle linked elsewhere becomes resolvable on the next call.
type handleCache struct {
	lru *expirable.LRU[string, *cachedAccount]
}

func newHandleCache(size int, ttl time.Duration) *handleCache {
	return &handleCache{
		lru: expirable.NewLRU[string, *cachedAccount](size, nil, ttl),
	}
}

func cacheKey(tenantID, platform, handle string) string {
	return tenantID + ":" + platform + ":" + handle
}

func (c *handleCache) Get(tenantID, platform, handle string) (string, bool) {
	key := cacheKey(tenantID, platform, handle)
	entry, found := c.lru.Get(key)
	if !found {
		return "", false
	}
	if entry.Version != CacheSchemaVersion {
		c.lru.Remove(key)
		return "", false
	}
	return entry.AccountID, true
}

func (c *handleCache) Set(tenantID, platform, handle, accountID string) {
	c.lru.Add(cacheKey(tenantID, platform, handle), &cachedAccount{
		Version:   CacheSchemaVersion,
		AccountID: accountID,
		CachedAt:  time.Now(),
	})
}

func (c *handleCache) Invalidate(tenantID, platform, handle string) {
	c.lru.Remove(cacheKey(tenantID, platform, handle))
}
