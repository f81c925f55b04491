package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const (
	rankPopularKey = "rank:movies:popular"
	rankTopKey     = "rank:movies:top"

	// viewGenerationKey is bumped after every committed view refresh or
	// warehouse load. It must not match the "view:*" pattern.
	viewGenerationKey = "views:generation"
)

func viewCacheKey(gen int64, name string, limit int) string {
	return fmt.Sprintf("view:%d:%s:%d", gen, name, limit)
}

// viewGeneration returns the current view snapshot generation. Entries are
// keyed by it, so a reader that fetched rows before a refresh can only write
// them under a generation nobody reads any more. It reports false when the
// cache must be bypassed.
func (d *Data) viewGeneration(ctx context.Context) (int64, bool) {
	if d.rdb == nil {
		return 0, false
	}
	gen, err := d.rdb.Get(ctx, viewGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		d.log.Warnf("bypassing view cache: %v", err)
		return 0, false
	}
	return gen, true
}

// bumpViewGeneration retires every cached view entry.
func (d *Data) bumpViewGeneration(ctx context.Context) {
	if d.rdb == nil {
		return
	}
	if err := d.rdb.Incr(ctx, viewGenerationKey).Err(); err != nil {
		d.log.Warnf("failed to bump view generation: %v", err)
	}
	d.cacheDelPattern(ctx, "view:*")
}

// cacheGet decodes a cached JSON value into v. It reports false on a miss,
// on a decode failure and when Redis is not configured.
func (d *Data) cacheGet(ctx context.Context, key string, v interface{}) bool {
	if d.rdb == nil {
		return false
	}
	cached, err := d.rdb.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(cached), v); err != nil {
		d.log.Warnf("dropping undecodable cache entry %s: %v", key, err)
		d.rdb.Del(ctx, key)
		return false
	}
	d.log.Debugf("cache hit: %s", key)
	return true
}

func (d *Data) cacheSet(ctx context.Context, key string, v interface{}) {
	if d.rdb == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := d.rdb.Set(ctx, key, b, d.ttl).Err(); err != nil {
		d.log.Warnf("failed to cache %s: %v", key, err)
	}
}

func (d *Data) cacheDel(ctx context.Context, keys ...string) {
	if d.rdb == nil || len(keys) == 0 {
		return
	}
	if err := d.rdb.Del(ctx, keys...).Err(); err != nil {
		d.log.Warnf("failed to invalidate %v: %v", keys, err)
	}
}

// cacheDelPattern removes every key matching pattern using SCAN.
func (d *Data) cacheDelPattern(ctx context.Context, pattern string) {
	if d.rdb == nil {
		return
	}
	iter := d.rdb.Scan(ctx, 0, pattern, 500).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == 500 {
			d.cacheDel(ctx, keys...)
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		d.log.Warnf("failed to scan %s: %v", pattern, err)
	}
	d.cacheDel(ctx, keys...)
}
