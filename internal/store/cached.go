package store

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/voyagen/wolfflix/internal/cache"
	"github.com/voyagen/wolfflix/internal/logging"
	"github.com/voyagen/wolfflix/internal/models"
)

// Cache TTLs for different entity types.
const (
	ttlList        = 5 * time.Minute
	ttlCatalogItem = 30 * time.Minute
	ttlSearch      = 2 * time.Minute
	ttlStats       = 30 * time.Second
)

// CachedStore wraps a Store with a Redis caching layer.
// Lists, indexed items and semantic searches are served from cache when
// possible; writes invalidate the affected keys.
type CachedStore struct {
	inner Store
	cache *cache.Redis
}

// NewCachedStore creates a CachedStore that wraps inner with Redis caching.
func NewCachedStore(inner Store, c *cache.Redis) *CachedStore {
	return &CachedStore{inner: inner, cache: c}
}

// --- cached read operations ---

func (c *CachedStore) Items(ctx context.Context, profileID string, list List) ([]models.ListItem, error) {
	key := listCacheKey(profileID, list)
	if v, err := cache.Get[[]models.ListItem](ctx, c.cache, key); err == nil {
		return v, nil
	}
	items, err := c.inner.Items(ctx, profileID, list)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, items, ttlList)
	return items, nil
}

func (c *CachedStore) CatalogItem(ctx context.Context, kind string, id int64) (*models.CatalogItem, error) {
	key := "catalog:" + models.ItemKey(kind, id)
	if v, err := cache.Get[models.CatalogItem](ctx, c.cache, key); err == nil {
		return &v, nil
	}
	it, err := c.inner.CatalogItem(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, it, ttlCatalogItem)
	return it, nil
}

// semanticSearchResult caches the SemanticSearch return value.
type semanticSearchResult struct {
	Hits []models.SemanticHit `json:"hits"`
}

func (c *CachedStore) SemanticSearch(ctx context.Context, queryVec []float32, filter SemanticFilter) ([]models.SemanticHit, error) {
	filter = filter.Normalize()
	key := fmt.Sprintf("search:%s:%s:%d", vecHash(queryVec), filter.Kind, filter.Limit)
	if v, err := cache.Get[semanticSearchResult](ctx, c.cache, key); err == nil {
		return v.Hits, nil
	}
	hits, err := c.inner.SemanticSearch(ctx, queryVec, filter)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, semanticSearchResult{Hits: hits}, ttlSearch)
	return hits, nil
}

func (c *CachedStore) IndexStats(ctx context.Context) (IndexStats, error) {
	const key = "catalog:stats"
	if v, err := cache.Get[IndexStats](ctx, c.cache, key); err == nil {
		return v, nil
	}
	s, err := c.inner.IndexStats(ctx)
	if err != nil {
		return s, err
	}
	c.set(ctx, key, s, ttlStats)
	return s, nil
}

// --- write operations with cache invalidation ---

func (c *CachedStore) ReplaceItems(ctx context.Context, profileID string, list List, items []models.ListItem) error {
	if err := c.inner.ReplaceItems(ctx, profileID, list, items); err != nil {
		return err
	}
	c.invalidate(ctx, listCacheKey(profileID, list))
	return nil
}

func (c *CachedStore) UpsertCatalogItems(ctx context.Context, items []models.CatalogItem) (int, error) {
	n, err := c.inner.UpsertCatalogItems(ctx, items)
	if err != nil {
		return n, err
	}
	keys := make([]string, 0, len(items)+1)
	for _, it := range items {
		keys = append(keys, "catalog:"+it.Key())
	}
	keys = append(keys, "catalog:stats")
	c.invalidate(ctx, keys...)
	return n, nil
}

func (c *CachedStore) StoreEmbeddings(ctx context.Context, keys []string, embeddings [][]float32) error {
	if err := c.inner.StoreEmbeddings(ctx, keys, embeddings); err != nil {
		return err
	}
	c.invalidate(ctx, "catalog:stats")
	c.invalidatePattern(ctx, "search:*")
	return nil
}

// --- passthrough (no caching) ---

func (c *CachedStore) AppendMessage(ctx context.Context, profileID string, msg models.ChatMessage) error {
	return c.inner.AppendMessage(ctx, profileID, msg)
}

func (c *CachedStore) Messages(ctx context.Context, profileID string, limit int) ([]models.ChatMessage, error) {
	return c.inner.Messages(ctx, profileID, limit)
}

func (c *CachedStore) ItemsWithoutEmbeddings(ctx context.Context, limit int) ([]models.CatalogItem, error) {
	return c.inner.ItemsWithoutEmbeddings(ctx, limit)
}

// --- helpers ---

func (c *CachedStore) set(ctx context.Context, key string, v any, ttl time.Duration) {
	if err := cache.Set(ctx, c.cache, key, v, ttl); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}

// invalidate deletes exact cache keys, logging any errors.
func (c *CachedStore) invalidate(ctx context.Context, keys ...string) {
	if err := cache.Del(ctx, c.cache, keys...); err != nil && !cache.IsMiss(err) {
		logging.Ctx(ctx).Warn().Err(err).Strs("keys", keys).Msg("cache del failed")
	}
}

// invalidatePattern deletes all keys matching the given glob patterns.
func (c *CachedStore) invalidatePattern(ctx context.Context, patterns ...string) {
	for _, p := range patterns {
		if err := cache.DelPattern(ctx, c.cache, p); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("pattern", p).Msg("cache del pattern failed")
		}
	}
}

func listCacheKey(profileID string, list List) string {
	return fmt.Sprintf("list:%s:%s", profileID, list)
}

// vecHash produces a short hash for a float32 vector.
func vecHash(v []float32) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%v", v)))
	return fmt.Sprintf("%x", h[:8])
}
