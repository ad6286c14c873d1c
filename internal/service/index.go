// Package service indexes catalog items seen by users and serves semantic
// search over them.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/sourcegraph/conc"

	"github.com/voyagen/wolfflix/internal/cache"
	"github.com/voyagen/wolfflix/internal/embedding"
	"github.com/voyagen/wolfflix/internal/logging"
	"github.com/voyagen/wolfflix/internal/models"
	"github.com/voyagen/wolfflix/internal/store"
)

// ErrSemanticDisabled is returned by Semantic when no embedder is configured.
var ErrSemanticDisabled = errors.New("semantic search is not configured")

// DefaultRefreshLimit bounds one embedding refresh run.
const DefaultRefreshLimit = 256

// Indexer records catalog items and keeps their embeddings current.
// Redis and the embedder are optional: without an embedder items are only
// recorded; without Redis embeddings are refreshed in a background
// goroutine owned by the Indexer.
type Indexer struct {
	store    store.Store
	embedder embedding.Embedder
	redis    *cache.Redis
	queue    string

	refreshing atomic.Bool
	pending    conc.WaitGroup
}

// NewIndexer returns an Indexer. embedder and rds may be nil.
func NewIndexer(s store.Store, embedder embedding.Embedder, rds *cache.Redis) *Indexer {
	return &Indexer{store: s, embedder: embedder, redis: rds, queue: cache.DefaultQueue}
}

// SemanticEnabled reports whether semantic search is available.
func (ix *Indexer) SemanticEnabled() bool {
	return ix.embedder != nil
}

// Index upserts items and schedules embeddings for them.
func (ix *Indexer) Index(ctx context.Context, reason string, items []models.CatalogItem) error {
	items = uniqueItems(items)
	if len(items) == 0 {
		return nil
	}
	n, err := ix.store.UpsertCatalogItems(ctx, items)
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}
	logging.Ctx(ctx).Debug().Str("reason", reason).Int("items", n).Msg("catalog items indexed")

	if ix.embedder == nil {
		return nil
	}
	keys := make([]string, len(items))
	for i, it := range items {
		keys[i] = it.Key()
	}
	if ix.redis != nil {
		job := cache.EmbeddingJob{Reason: reason, Keys: keys, Limit: DefaultRefreshLimit}
		if err := cache.Enqueue(ctx, ix.redis, ix.queue, job); err != nil {
			return fmt.Errorf("index: enqueue: %w", err)
		}
		return nil
	}
	ix.refreshInBackground(ctx)
	return nil
}

// refreshInBackground drains items without vectors unless a refresh is
// already running. Items indexed meanwhile wait for the next Index call.
func (ix *Indexer) refreshInBackground(ctx context.Context) {
	if !ix.refreshing.CompareAndSwap(false, true) {
		return
	}
	ctx = context.WithoutCancel(ctx)
	ix.pending.Go(func() {
		defer ix.refreshing.Store(false)
		log := logging.Ctx(ctx).With().Str("component", "embedding-refresh").Logger()
		total := 0
		for {
			n, err := ix.RefreshEmbeddings(ctx, DefaultRefreshLimit)
			if err != nil {
				log.Error().Err(err).Msg("refresh embeddings")
				break
			}
			total += n
			if n < DefaultRefreshLimit {
				break
			}
		}
		log.Debug().Int("embedded", total).Msg("embedding refresh finished")
	})
}

// Wait blocks until background refreshes started by Index have finished.
func (ix *Indexer) Wait() {
	ix.pending.Wait()
}

// RefreshEmbeddings embeds up to limit indexed items that have no vector
// yet and returns how many were stored.
func (ix *Indexer) RefreshEmbeddings(ctx context.Context, limit int) (int, error) {
	if ix.embedder == nil {
		return 0, ErrSemanticDisabled
	}
	if limit <= 0 {
		limit = DefaultRefreshLimit
	}
	items, err := ix.store.ItemsWithoutEmbeddings(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("ItemsWithoutEmbeddings: %w", err)
	}
	if len(items) == 0 {
		return 0, nil
	}

	texts := make([]string, len(items))
	keys := make([]string, len(items))
	for i, it := range items {
		texts[i] = DocumentText(it)
		keys[i] = it.Key()
	}
	log := logging.Ctx(ctx)
	vectors, err := embedding.EmbedBatch(ctx, ix.embedder, texts, embedding.InputDocument, 0, func(batch, total int) {
		log.Debug().Int("batch", batch).Int("total", total).Msg("embedding batch done")
	})
	if err != nil {
		return 0, fmt.Errorf("embed: %w", err)
	}
	if err := ix.store.StoreEmbeddings(ctx, keys, vectors); err != nil {
		return 0, fmt.Errorf("StoreEmbeddings: %w", err)
	}
	log.Info().Int("items", len(items)).Msg("embeddings refreshed")
	return len(items), nil
}

// Semantic embeds query and returns the nearest indexed items.
func (ix *Indexer) Semantic(ctx context.Context, query string, filter store.SemanticFilter) ([]models.SemanticHit, error) {
	if ix.embedder == nil {
		return nil, ErrSemanticDisabled
	}
	vecs, err := ix.embedder.Embed(ctx, []string{query}, embedding.InputQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return ix.store.SemanticSearch(ctx, vecs[0], filter)
}

// Stats reports index coverage.
func (ix *Indexer) Stats(ctx context.Context) (store.IndexStats, error) {
	return ix.store.IndexStats(ctx)
}

// DocumentText is the text embedded for an item.
func DocumentText(it models.CatalogItem) string {
	kind := "Movie"
	if it.MediaType == models.KindTV {
		kind = "TV show"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s, %s)", it.Title, kind, it.Year())
	if it.Overview != "" {
		sb.WriteString(": ")
		sb.WriteString(it.Overview)
	}
	return sb.String()
}

func uniqueItems(items []models.CatalogItem) []models.CatalogItem {
	seen := make(map[string]struct{}, len(items))
	out := make([]models.CatalogItem, 0, len(items))
	for _, it := range items {
		if it.ID == 0 || it.MediaType == "" {
			continue
		}
		if _, ok := seen[it.Key()]; ok {
			continue
		}
		seen[it.Key()] = struct{}{}
		out = append(out, it)
	}
	return out
}
