package providers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type cacheMetricsTestMetrics struct {
	hits   int
	misses int
}

func (m *cacheMetricsTestMetrics) IncComputations(_ string)                {}
func (m *cacheMetricsTestMetrics) ObserveComputeDuration(_ time.Duration) {}
func (m *cacheMetricsTestMetrics) SetRecordsTotal(_ string, _ int)        {}
func (m *cacheMetricsTestMetrics) SetProfilesTotal(_ int, _ int)          {}
func (m *cacheMetricsTestMetrics) IncCacheHits()                          { m.hits++ }
func (m *cacheMetricsTestMetrics) IncCacheMisses()                        { m.misses++ }
func (m *cacheMetricsTestMetrics) ObserveExportDuration(_ time.Duration)  {}
func (m *cacheMetricsTestMetrics) WriteTextfile(_ string) error           { return nil }

type cacheMetricsTestInner struct {
	data    map[string][]byte
	cleared bool
}

func (c *cacheMetricsTestInner) Get(key string) ([]byte, bool) {
	v, ok := c.data[key]
	return v, ok
}
func (c *cacheMetricsTestInner) Set(key string, value []byte) {
	c.data[key] = value
}
func (c *cacheMetricsTestInner) Len() int { return len(c.data) }
func (c *cacheMetricsTestInner) Clear() {
	c.data = map[string][]byte{}
	c.cleared = true
}

func TestInstrumentedCache_HitAndMiss(t *testing.T) {
	inner := &cacheMetricsTestInner{data: map[string][]byte{"a": []byte("1")}}
	metrics := &cacheMetricsTestMetrics{}
	cache := &InstrumentedCache{inner: inner, metrics: metrics}

	val, ok := cache.Get("a")
	assert.True(t, ok)
	assert.Equal(t, []byte("1"), val)

	cache.Get("b")
	cache.Get("a")
	cache.Get("c")

	assert.Equal(t, 2, metrics.hits)
	assert.Equal(t, 2, metrics.misses)
}

func TestInstrumentedCache_SetAndClearDelegate(t *testing.T) {
	inner := &cacheMetricsTestInner{data: map[string][]byte{}}
	cache := &InstrumentedCache{inner: inner, metrics: &cacheMetricsTestMetrics{}}

	cache.Set("key2", []byte("val2"))
	assert.Equal(t, 1, cache.Len())
	val, ok := inner.Get("key2")
	assert.True(t, ok)
	assert.Equal(t, []byte("val2"), val)

	cache.Clear()
	assert.True(t, inner.cleared)
	assert.Empty(t, inner.data)
}

func TestNewInstrumentedCacheProvider(t *testing.T) {
	metrics := &cacheMetricsTestMetrics{}

	disabled := NewInstrumentedCacheProvider(cacheConfig(false, 1, time.Minute), &cacheTestLogger{}, metrics)
	assert.IsType(t, &noopCache{}, disabled)
	disabled.Get("x")
	assert.Equal(t, 0, metrics.misses, "disabled cache must not count phantom misses")

	enabled := NewInstrumentedCacheProvider(cacheConfig(true, 1, time.Minute), &cacheTestLogger{}, metrics)
	assert.IsType(t, &InstrumentedCache{}, enabled)
	enabled.Get("x")
	assert.Equal(t, 1, metrics.misses)
}
