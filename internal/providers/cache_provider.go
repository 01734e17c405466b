package providers

import (
	"auditstat/internal/structures"
	"errors"

	"github.com/coocood/freecache"
)

// CacheProviderInterface stores encoded drill-down answers. Keys embed the
// snapshot digest, so entries of an older snapshot are never served for a
// newer one; Clear drops them eagerly on publish.
type CacheProviderInterface interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
	Clear()
	Len() int
}

type CacheProvider struct {
	cache  *freecache.Cache
	ttl    int
	logger Logger
}

func NewCacheProvider(conf *structures.Config, logger Logger) CacheProviderInterface {
	if !conf.Cache.Enabled || conf.Cache.Size <= 0 {
		logger.Infof(TypeApp, "Drill-down cache disabled")
		return &noopCache{}
	}

	// freecache expires with second granularity
	ttl := max(int(conf.Cache.TTL.Seconds()), 1)
	logger.Infof(TypeApp, "Drill-down cache: %dMB, TTL=%ds", conf.Cache.Size, ttl)

	return &CacheProvider{
		cache:  freecache.NewCache(conf.Cache.Size << 20),
		ttl:    ttl,
		logger: logger,
	}
}

func (c *CacheProvider) Get(key string) ([]byte, bool) {
	val, err := c.cache.Get([]byte(key))
	if err != nil {
		return nil, false
	}
	return val, true
}

func (c *CacheProvider) Set(key string, value []byte) {
	err := c.cache.Set([]byte(key), value, c.ttl)
	if errors.Is(err, freecache.ErrLargeEntry) {
		c.logger.Debugf(TypeEngine, "Drill-down %s too large to cache (%d bytes)", key, len(value))
	}
}

func (c *CacheProvider) Clear() {
	c.cache.Clear()
}

func (c *CacheProvider) Len() int {
	return int(c.cache.EntryCount())
}

type noopCache struct{}

func (n *noopCache) Get(_ string) ([]byte, bool) { return nil, false }
func (n *noopCache) Set(_ string, _ []byte)      {}
func (n *noopCache) Clear()                      {}
func (n *noopCache) Len() int                    { return 0 }
