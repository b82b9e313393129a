package geocoding

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/pharmacy-locator/internal/models"
	"github.com/patrickmn/go-cache"
)

// CachingProvider memoizes reverse geocoding answers in memory for the life of
// the process. Coordinates are rounded to four decimals (about 11 m) for the key.
type CachingProvider struct {
	next  Provider
	store *cache.Cache
	log   *slog.Logger
}

// NewCachingProvider wraps next with a TTL cache.
func NewCachingProvider(next Provider, ttl time.Duration, log *slog.Logger) *CachingProvider {
	return &CachingProvider{
		next:  next,
		store: cache.New(ttl, 2*ttl),
		log:   log,
	}
}

// ReverseGeocode returns a cached address when one exists, otherwise it asks the
// wrapped provider and caches successful answers.
func (cp *CachingProvider) ReverseGeocode(ctx context.Context, coords models.Coordinates) (*models.Address, error) {
	key := cacheKey(coords)
	if cached, found := cp.store.Get(key); found {
		address, _ := cached.(models.Address)
		cp.log.DebugContext(ctx, "Reverse geocode cache hit", "key", key)
		return &address, nil
	}

	address, err := cp.next.ReverseGeocode(ctx, coords)
	if err != nil {
		return nil, err
	}

	cp.store.SetDefault(key, *address)
	return address, nil
}

func cacheKey(coords models.Coordinates) string {
	return fmt.Sprintf("%.4f,%.4f", coords.Latitude, coords.Longitude)
}
