package quake

import (
	"context"
	"fmt"
	"time"

	"github.com/zjrosen/aftershock/internal/cachemanager"
)

// CachedSource puts read-through caches in front of a Source. A ttl of
// zero disables caching.
type CachedSource struct {
	mainshocks  cachemanager.CacheManager[string, Mainshock]
	catalogs    cachemanager.CacheManager[string, Catalog]
	mainshockRT *cachemanager.ReadThroughCache[string, Mainshock, string]
	catalogRT   *cachemanager.ReadThroughCache[string, Catalog, CatalogQuery]
	ttl         time.Duration
}

var _ Source = (*CachedSource)(nil)

// NewCachedSource wraps next with go-cache backed caches.
func NewCachedSource(next Source, ttl time.Duration) *CachedSource {
	return NewCachedSourceWith(next, ttl,
		cachemanager.NewInMemoryCacheManager[string, Mainshock]("mainshocks", ttl, cachemanager.DefaultCleanupInterval),
		cachemanager.NewInMemoryCacheManager[string, Catalog]("catalogs", ttl, cachemanager.DefaultCleanupInterval),
	)
}

// NewCachedSourceWith wraps next with the given caches.
func NewCachedSourceWith(
	next Source,
	ttl time.Duration,
	mainshocks cachemanager.CacheManager[string, Mainshock],
	catalogs cachemanager.CacheManager[string, Catalog],
) *CachedSource {
	skip := ttl <= 0
	return &CachedSource{
		mainshocks:  mainshocks,
		catalogs:    catalogs,
		mainshockRT: cachemanager.NewReadThroughCache(mainshocks, next.Mainshock, skip),
		catalogRT:   cachemanager.NewReadThroughCache(catalogs, next.Aftershocks, skip),
		ttl:         ttl,
	}
}

// Mainshock returns the cached mainshock or fetches it.
func (s *CachedSource) Mainshock(ctx context.Context, eventID string) (Mainshock, error) {
	return s.mainshockRT.Get(ctx, eventID, eventID, s.ttl)
}

// Aftershocks returns the cached catalog for an identical query or fetches it.
func (s *CachedSource) Aftershocks(ctx context.Context, q CatalogQuery) (Catalog, error) {
	return s.catalogRT.Get(ctx, CatalogKey(q), q, s.ttl)
}

// Flush drops every cached entry, e.g. after the backing file changed.
func (s *CachedSource) Flush(ctx context.Context) error {
	if err := s.mainshocks.Flush(ctx); err != nil {
		return err
	}
	return s.catalogs.Flush(ctx)
}

// CatalogKey is the cache key of a catalog query.
func CatalogKey(q CatalogQuery) string {
	return fmt.Sprintf("%s|%g|%g|%g|%g", q.Mainshock.ID, q.StartDays, q.EndDays, q.RadiusKm, q.MinMag)
}
