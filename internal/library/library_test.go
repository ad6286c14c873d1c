package library

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagen/wolfflix/internal/models"
	"github.com/voyagen/wolfflix/internal/store"
)

func movie(id int64) models.ListItem {
	return models.ListItem{ID: id, Title: fmt.Sprintf("Movie %d", id), Type: models.TypeMovie}
}

func listIDs(list []models.ListItem) []int64 {
	out := make([]int64, len(list))
	for i, it := range list {
		out[i] = it.ID
	}
	return out
}

func TestPushRecentMovesDuplicateToFront(t *testing.T) {
	list := []models.ListItem{movie(1), movie(2), movie(3)}

	list = PushRecent(list, movie(2), 50)
	assert.Equal(t, []int64{2, 1, 3}, listIDs(list))

	list = PushRecent(list, movie(2), 50)
	assert.Equal(t, []int64{2, 1, 3}, listIDs(list))
}

func TestPushRecentDistinguishesType(t *testing.T) {
	show := models.ListItem{ID: 1, Title: "Show", Type: models.TypeTVShow}
	list := PushRecent([]models.ListItem{movie(1)}, show, 50)
	assert.Len(t, list, 2)
}

func TestPushRecentNeverExceedsMax(t *testing.T) {
	var list []models.ListItem
	for i := int64(1); i <= 60; i++ {
		list = PushRecent(list, movie(i), 50)
		assert.LessOrEqual(t, len(list), 50)
	}
	assert.Equal(t, int64(60), list[0].ID)
	assert.Equal(t, int64(11), list[49].ID)
}

func TestAddWatchlist(t *testing.T) {
	list, added := AddWatchlist(nil, movie(1))
	assert.True(t, added)

	list, added = AddWatchlist(list, movie(2))
	assert.True(t, added)

	list, added = AddWatchlist(list, movie(1))
	assert.False(t, added)
	assert.Equal(t, []int64{1, 2}, listIDs(list))
}

func TestRemoveWatchlist(t *testing.T) {
	list, removed := RemoveWatchlist([]models.ListItem{movie(1), movie(2)}, 1, models.TypeMovie)
	assert.True(t, removed)
	assert.Equal(t, []int64{2}, listIDs(list))

	_, removed = RemoveWatchlist(list, 2, models.TypeTVShow)
	assert.False(t, removed)
}

func TestServiceWatchlistMessages(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemory(), 0)

	added, msg, err := svc.AddWatchlist(ctx, "p", movie(7))
	require.NoError(t, err)
	assert.True(t, added)
	assert.Equal(t, "Movie 7 has been added to your watchlist.", msg)

	added, msg, err = svc.AddWatchlist(ctx, "p", movie(7))
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, "Movie 7 is already in your watchlist.", msg)

	list, err := svc.Watchlist(ctx, "p")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.False(t, list[0].AddedAt.IsZero())

	removed, err := svc.RemoveWatchlist(ctx, "p", 7, models.TypeMovie)
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestServiceRejectsInvalidItem(t *testing.T) {
	svc := NewService(store.NewMemory(), 0)

	err := svc.PushRecent(context.Background(), "p", models.ListItem{ID: 1, Title: "x", Type: "book"})
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestServicePushRecentOrder(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemory(), 3)

	require.NoError(t, svc.PushRecent(ctx, "p", movie(1), movie(2), movie(3), movie(4)))
	list, err := svc.Recent(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 3, 2}, listIDs(list))
}

func TestServiceConcurrentPushesAreSerialized(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemory(), 100)

	var wg sync.WaitGroup
	for i := int64(1); i <= 20; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			assert.NoError(t, svc.PushRecent(ctx, "p", movie(id)))
		}(i)
	}
	wg.Wait()

	list, err := svc.Recent(ctx, "p")
	require.NoError(t, err)
	assert.Len(t, list, 20)
}

func TestServiceReleasesIdleProfileLocks(t *testing.T) {
	ctx := context.Background()
	svc := NewService(store.NewMemory(), 10)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			profile := fmt.Sprintf("anon-%d", n%5)
			assert.NoError(t, svc.PushRecent(ctx, profile, movie(int64(n+1))))
		}(i)
	}
	wg.Wait()

	svc.mu.Lock()
	defer svc.mu.Unlock()
	assert.Empty(t, svc.locks)
}
