package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wifi-voucher/internal/domain/model"
	"wifi-voucher/internal/domain/ports/repository"
	"wifi-voucher/internal/infra/metrics"
	red "wifi-voucher/internal/infra/redis"

	"github.com/rs/zerolog"
)

var _ repository.LocationRepository = (*locationRepoCacheDecorator)(nil)

const locationListKey = "locations:all"

// locationRepoCacheDecorator caches location reads. The active flag gates
// purchases, so every write drops the entry before touching the database and
// the TTL stays short.
type locationRepoCacheDecorator struct {
	inner repository.LocationRepository
	cache red.RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewLocationRepoCacheDecorator(inner repository.LocationRepository, cache red.RedisClient, ttl time.Duration, log *zerolog.Logger) repository.LocationRepository {
	if ttl <= 0 || ttl > 5*time.Minute {
		ttl = 5 * time.Minute
	}
	return &locationRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl, log: log}
}

func locationKey(id string) string { return fmt.Sprintf("location:%s", id) }

func (d *locationRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Location, error) {
	if tx != nil {
		return d.inner.FindByID(ctx, tx, id)
	}
	key := locationKey(id)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var loc model.Location
		if json.Unmarshal([]byte(val), &loc) == nil {
			metrics.IncCacheRequest("location", "hit")
			return &loc, nil
		}
	} else if !errors.Is(err, red.Nil) {
		d.log.Warn().Err(err).Str("key", key).Msg("location cache read failed")
	}

	metrics.IncCacheRequest("location", "miss")
	loc, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(loc); err == nil {
		_ = d.cache.Set(ctx, key, b, d.ttl)
	}
	return loc, nil
}

func (d *locationRepoCacheDecorator) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Location, error) {
	if tx != nil {
		return d.inner.ListAll(ctx, tx)
	}
	if val, err := d.cache.Get(ctx, locationListKey); err == nil {
		var locs []*model.Location
		if json.Unmarshal([]byte(val), &locs) == nil {
			metrics.IncCacheRequest("location_list", "hit")
			return locs, nil
		}
	}

	metrics.IncCacheRequest("location_list", "miss")
	locs, err := d.inner.ListAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	if len(locs) > 0 {
		if b, err := json.Marshal(locs); err == nil {
			_ = d.cache.Set(ctx, locationListKey, b, d.ttl)
		}
	}
	return locs, nil
}

func (d *locationRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, l *model.Location) error {
	d.invalidate(ctx, l.ID)
	return d.inner.Save(ctx, tx, l)
}

func (d *locationRepoCacheDecorator) SetActive(ctx context.Context, tx repository.Tx, id string, active bool) error {
	d.invalidate(ctx, id)
	if err := d.inner.SetActive(ctx, tx, id, active); err != nil {
		return err
	}
	// a reader may have refilled the entry between the delete and the update
	d.invalidate(ctx, id)
	return nil
}

func (d *locationRepoCacheDecorator) invalidate(ctx context.Context, id string) {
	if err := d.cache.Del(ctx, locationKey(id), locationListKey); err != nil {
		d.log.Warn().Err(err).Str("location_id", id).Msg("location cache invalidation failed")
	}
}
