package providers

import "auditstat/internal/structures"

// InstrumentedCache counts drill-down cache hits and misses.
type InstrumentedCache struct {
	inner   CacheProviderInterface
	metrics MetricsProviderInterface
}

func (c *InstrumentedCache) Get(key string) ([]byte, bool) {
	val, ok := c.inner.Get(key)
	if ok {
		c.metrics.IncCacheHits()
		return val, true
	}
	c.metrics.IncCacheMisses()
	return nil, false
}

func (c *InstrumentedCache) Set(key string, value []byte) { c.inner.Set(key, value) }
func (c *InstrumentedCache) Clear()                       { c.inner.Clear() }
func (c *InstrumentedCache) Len() int                     { return c.inner.Len() }

// NewInstrumentedCacheProvider wraps the freecache provider with hit/miss
// counters. A disabled cache is returned bare: every lookup would miss.
func NewInstrumentedCacheProvider(conf *structures.Config, logger Logger, metrics MetricsProviderInterface) CacheProviderInterface {
	inner := NewCacheProvider(conf, logger)
	if _, disabled := inner.(*noopCache); disabled {
		return inner
	}
	return &InstrumentedCache{inner: inner, metrics: metrics}
}
