package catalog

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagen/wolfflix/internal/library"
	"github.com/voyagen/wolfflix/internal/live"
	"github.com/voyagen/wolfflix/internal/models"
	"github.com/voyagen/wolfflix/internal/store"
)

type fakeProvider struct {
	mu     sync.Mutex
	lists  map[string][]models.CatalogItem
	search []models.CatalogItem
	recs   []models.CatalogItem
	paths  []string
}

func (f *fakeProvider) List(_ context.Context, path string, _ url.Values, kind string) ([]models.CatalogItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paths = append(f.paths, path)
	items, ok := f.lists[path]
	if !ok {
		return nil, errors.New("no such list")
	}
	for i := range items {
		items[i].MediaType = kind
	}
	return items, nil
}

func (f *fakeProvider) SearchMulti(context.Context, string) ([]models.CatalogItem, error) {
	return f.search, nil
}

func (f *fakeProvider) Recommendations(context.Context, string, int64) ([]models.CatalogItem, error) {
	return f.recs, nil
}

func (f *fakeProvider) Show(_ context.Context, id int64) (*models.Show, error) {
	return &models.Show{ID: id, Name: "Dark", Seasons: []models.Season{{Number: 1, EpisodeCount: 10}}}, nil
}

func (f *fakeProvider) Episodes(context.Context, int64, int) ([]models.Episode, error) {
	return []models.Episode{{Number: 1, Name: "Secrets"}}, nil
}

type fakeLive struct{}

func (fakeLive) Matches(context.Context) ([]live.Match, error) {
	return []live.Match{{ID: "m1", Title: "Final"}}, nil
}

type fakeIndexer struct {
	items []models.CatalogItem
}

func (f *fakeIndexer) Index(_ context.Context, _ string, items []models.CatalogItem) error {
	f.items = append(f.items, items...)
	return nil
}

func items(n int) []models.CatalogItem {
	out := make([]models.CatalogItem, n)
	for i := range out {
		out[i] = models.CatalogItem{ID: int64(i + 1), Title: "T"}
	}
	return out
}

func TestRowsKeepCategoryOrder(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	lib := library.NewService(mem, 50)
	require.NoError(t, lib.PushRecent(ctx, "p", models.ListItem{ID: 9, Title: "Seen", Type: models.TypeMovie}))

	prov := &fakeProvider{lists: map[string][]models.CatalogItem{
		"/trending/movie/week": items(2),
		"/discover/tv":         items(1),
	}}
	idx := &fakeIndexer{}
	svc := New(prov, lib, Options{
		Live:    fakeLive{},
		Indexer: idx,
		Categories: []Category{
			{Name: "Recently Viewed", Recent: true},
			{Name: "Trending Movies", Path: "/trending/movie/week", Kind: models.KindMovie},
			{Name: "Broken", Path: "/nope", Kind: models.KindMovie},
			genreRow("Drama TV Shows", models.KindTV, 18),
			{Name: "Live TV", Live: true},
		},
		Concurrency: 2,
	})

	rows := svc.Rows(ctx, "p")
	require.Len(t, rows, 5)
	assert.Equal(t, "Recently Viewed", rows[0].Name)
	require.Len(t, rows[0].Recent, 1)
	assert.Len(t, rows[1].Items, 2)
	assert.NotEmpty(t, rows[2].Error)
	assert.Empty(t, rows[2].Items)
	assert.Equal(t, models.KindTV, rows[3].Items[0].MediaType)
	assert.True(t, rows[4].Live)
	assert.Equal(t, "Final", rows[4].Matches[0].Title)
	assert.Len(t, idx.items, 3)
}

func TestDefaultCategories(t *testing.T) {
	assert.True(t, Categories[0].Recent)
	assert.True(t, Categories[len(Categories)-1].Live)

	byName := make(map[string]Category)
	for _, c := range Categories {
		byName[c.Name] = c
	}
	assert.Equal(t, "10759", byName["Action TV Shows"].Params.Get("with_genres"))
	assert.Equal(t, "10765", byName["Science Fiction TV Shows"].Params.Get("with_genres"))
	assert.Equal(t, "/tv/top_rated", byName["Top Rated TV Shows"].Path)
	_, hasHorrorTV := byName["Horror TV Shows"]
	assert.False(t, hasHorrorTV)
}

func TestSearchCapsAtFive(t *testing.T) {
	svc := New(&fakeProvider{search: items(8)}, nil, Options{})

	got, err := svc.Search(context.Background(), " dark ")
	require.NoError(t, err)
	assert.Len(t, got, 5)

	got, err = svc.Search(context.Background(), "  ")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecommendationsCapAtTen(t *testing.T) {
	svc := New(&fakeProvider{recs: items(20)}, nil, Options{})

	got, err := svc.Recommendations(context.Background(), models.KindMovie, 1)
	require.NoError(t, err)
	assert.Len(t, got, 10)
}

func TestShowAndEpisodes(t *testing.T) {
	svc := New(&fakeProvider{}, nil, Options{})

	show, err := svc.Show(context.Background(), 70523)
	require.NoError(t, err)
	assert.Equal(t, "Dark", show.Name)

	eps, err := svc.Episodes(context.Background(), 70523, 1)
	require.NoError(t, err)
	assert.Equal(t, "Secrets", eps[0].Name)
}
