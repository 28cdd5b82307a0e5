package sharedtable

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/pkg/errors"
	"github.com/sharedtable/mtdynamo/mapping"
	"github.com/sharedtable/mtdynamo/tenant"
	"golang.org/x/sync/singleflight"
)

// mappingCache memoizes TableMapping construction per (tenant, virtual
// table). Concurrent misses for the same key collapse into a single build;
// failed builds are never cached, so transient repo errors retry.
type mappingCache struct {
	cache *ristretto.Cache[string, *mapping.TableMapping]
	group singleflight.Group
	ttl   time.Duration
	build func(ctx context.Context, tableName string) (*mapping.TableMapping, error)
}

func newMappingCache(maxEntries int64, ttl time.Duration, build func(ctx context.Context, tableName string) (*mapping.TableMapping, error)) (*mappingCache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, *mapping.TableMapping]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create mapping cache")
	}
	return &mappingCache{cache: cache, ttl: ttl, build: build}, nil
}

func (c *mappingCache) get(ctx context.Context, tableName string) (*mapping.TableMapping, error) {
	tn, err := tenant.Required(ctx)
	if err != nil {
		return nil, err
	}
	key := tn + "\x00" + tableName
	if tm, ok := c.cache.Get(key); ok {
		return tm, nil
	}
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Another flight may have populated the cache between the miss and
		// this call.
		if tm, ok := c.cache.Get(key); ok {
			return tm, nil
		}
		tm, berr := c.build(ctx, tableName)
		if berr != nil {
			return nil, berr
		}
		c.cache.SetWithTTL(key, tm, 1, c.ttl)
		return tm, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*mapping.TableMapping), nil
}

func (c *mappingCache) invalidate(tn, tableName string) {
	c.cache.Del(tn + "\x00" + tableName)
}

func (c *mappingCache) close() {
	c.cache.Close()
}
