package infra

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const cotizacionPrefix = "cotizacion:"

// CotizacionCache stores serialized quotes in Redis. Every method is
// best-effort from the caller's point of view.
type CotizacionCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCotizacionCache(rdb *redis.Client, ttl time.Duration) *CotizacionCache {
	return &CotizacionCache{rdb: rdb, ttl: ttl}
}

// Obtener returns (nil, false, nil) on a miss.
func (c *CotizacionCache) Obtener(ctx context.Context, clave string) ([]byte, bool, error) {
	b, err := c.rdb.Get(ctx, cotizacionPrefix+clave).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (c *CotizacionCache) Guardar(ctx context.Context, clave string, valor []byte) error {
	return c.rdb.Set(ctx, cotizacionPrefix+clave, valor, c.ttl).Err()
}

// Limpiar deletes every cached quote. SCAN keeps Redis responsive on big caches.
func (c *CotizacionCache) Limpiar(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, cotizacionPrefix+"*", 500).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 500 {
			if err := c.rdb.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return c.rdb.Del(ctx, batch...).Err()
	}
	return nil
}
