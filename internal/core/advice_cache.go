package core

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/coocood/freecache"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/adwikanair2008-hue/swim-flow/internal/metrics"
)

const (
	megabyte = 1024 * 1024

	DefaultAdviceCacheMB = 8
	DefaultAdviceTTL     = time.Hour
)

// AdviceCache keeps generated advice so revisiting a view with unchanged
// inputs does not call the model again.
type AdviceCache struct {
	cache   *freecache.Cache
	ttl     int
	metrics *metrics.Manager
}

func NewAdviceCache(sizeMB int, ttl time.Duration, m *metrics.Manager) *AdviceCache {
	if sizeMB <= 0 {
		sizeMB = DefaultAdviceCacheMB
	}
	if ttl <= 0 {
		ttl = DefaultAdviceTTL
	}
	return &AdviceCache{
		cache:   freecache.NewCache(sizeMB * megabyte),
		ttl:     int(ttl.Seconds()),
		metrics: m,
	}
}

// AdviceKey identifies a request by kind, goal and everything the prompt is built from.
func AdviceKey(kind RequestKind, goal string, inputs ...any) string {
	b, err := json.Marshal(inputs)
	if err != nil {
		b = []byte(fmt.Sprint(inputs...))
	}
	fingerprint := uuid.NewSHA1(uuid.NameSpaceOID, b)
	return fmt.Sprintf("%s::%s::%s", kind, goal, fingerprint)
}

func (c *AdviceCache) Get(kind RequestKind, key string) ([]byte, bool) {
	value, err := c.cache.Get([]byte(key))
	if err != nil {
		log.Tracef("advice cache miss for %s: %s", key, err)
		c.observe(kind, "miss")
		return nil, false
	}
	c.observe(kind, "hit")
	return value, true
}

func (c *AdviceCache) Set(kind RequestKind, key string, value []byte) {
	if err := c.cache.Set([]byte(key), value, c.ttl); err != nil {
		log.Errorf("failed to write advice cache for %s: %s", kind, err)
		return
	}
	log.Debugf("advice cache set for %s", kind)
}

func (c *AdviceCache) Clear() {
	c.cache.Clear()
}

func (c *AdviceCache) observe(kind RequestKind, outcome string) {
	if c.metrics != nil {
		c.metrics.CounterAdviceCache.WithLabelValues(string(kind), outcome).Inc()
	}
}
