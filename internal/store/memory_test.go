package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagen/wolfflix/internal/models"
)

func TestMemoryListsArePerProfile(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	items := []models.ListItem{{ID: 1, Title: "A", Type: models.TypeMovie, AddedAt: time.Now()}}
	require.NoError(t, m.ReplaceItems(ctx, "p1", ListWatchlist, items))

	got, err := m.Items(ctx, "p1", ListWatchlist)
	require.NoError(t, err)
	assert.Equal(t, items, got)

	other, err := m.Items(ctx, "p2", ListWatchlist)
	require.NoError(t, err)
	assert.Empty(t, other)

	recent, err := m.Items(ctx, "p1", ListRecent)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestMemoryMessagesReturnsTail(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for _, text := range []string{"one", "two", "three"} {
		require.NoError(t, m.AppendMessage(ctx, "p", models.ChatMessage{Text: text}))
	}

	msgs, err := m.Messages(ctx, "p", 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "two", msgs[0].Text)
	assert.Equal(t, int64(3), msgs[1].ID)
}

func TestMemorySemanticSearch(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, err := m.UpsertCatalogItems(ctx, []models.CatalogItem{
		{ID: 1, MediaType: models.KindMovie, Title: "Space"},
		{ID: 2, MediaType: models.KindMovie, Title: "Sea"},
		{ID: 3, MediaType: models.KindTV, Title: "Stars"},
	})
	require.NoError(t, err)

	pending, err := m.ItemsWithoutEmbeddings(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, pending, 3)

	require.NoError(t, m.StoreEmbeddings(ctx,
		[]string{"movie:1", "movie:2", "tv:3"},
		[][]float32{{1, 0}, {0, 1}, {0.9, 0.1}},
	))

	hits, err := m.SemanticSearch(ctx, []float32{1, 0}, SemanticFilter{})
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, int64(1), hits[0].ID)
	assert.Equal(t, int64(3), hits[1].ID)
	assert.InDelta(t, 0, hits[0].Distance, 1e-9)

	hits, err = m.SemanticSearch(ctx, []float32{1, 0}, SemanticFilter{Kind: models.KindTV})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "Stars", hits[0].Title)

	stats, err := m.IndexStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, IndexStats{Items: 3, Embedded: 3}, stats)
}

func TestMemoryUpsertClearsStaleEmbedding(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	item := models.CatalogItem{ID: 1, MediaType: models.KindMovie, Title: "A", Overview: "old"}
	_, err := m.UpsertCatalogItems(ctx, []models.CatalogItem{item})
	require.NoError(t, err)
	require.NoError(t, m.StoreEmbeddings(ctx, []string{item.Key()}, [][]float32{{1}}))

	item.Overview = "new"
	_, err = m.UpsertCatalogItems(ctx, []models.CatalogItem{item})
	require.NoError(t, err)

	pending, err := m.ItemsWithoutEmbeddings(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestMemoryCatalogItemNotFound(t *testing.T) {
	_, err := NewMemory().CatalogItem(context.Background(), models.KindMovie, 9)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreEmbeddingsLengthMismatch(t *testing.T) {
	err := NewMemory().StoreEmbeddings(context.Background(), []string{"movie:1"}, nil)
	assert.Error(t, err)
}

func TestSplitKey(t *testing.T) {
	kind, id, err := splitKey("tv:1399")
	require.NoError(t, err)
	assert.Equal(t, "tv", kind)
	assert.Equal(t, int64(1399), id)

	_, _, err = splitKey("nonsense")
	assert.Error(t, err)
}
