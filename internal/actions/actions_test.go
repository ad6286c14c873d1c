package actions

import (
	"context"
	"net/url"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagen/wolfflix/internal/catalog"
	"github.com/voyagen/wolfflix/internal/chat"
	"github.com/voyagen/wolfflix/internal/intent"
	"github.com/voyagen/wolfflix/internal/library"
	"github.com/voyagen/wolfflix/internal/models"
	"github.com/voyagen/wolfflix/internal/session"
	"github.com/voyagen/wolfflix/internal/store"
	"github.com/voyagen/wolfflix/internal/tmdb"
)

type fakeProvider struct{}

func (fakeProvider) List(context.Context, string, url.Values, string) ([]models.CatalogItem, error) {
	return nil, nil
}
func (fakeProvider) SearchMulti(context.Context, string) ([]models.CatalogItem, error) {
	return nil, nil
}
func (fakeProvider) Recommendations(context.Context, string, int64) ([]models.CatalogItem, error) {
	return nil, nil
}
func (fakeProvider) Show(_ context.Context, id int64) (*models.Show, error) {
	if id == 404 {
		return nil, tmdb.ErrNotFound
	}
	return &models.Show{ID: id, Name: "Dark", Seasons: []models.Season{{Number: 1, EpisodeCount: 10}}}, nil
}
func (fakeProvider) Episodes(context.Context, int64, int) ([]models.Episode, error) {
	return nil, nil
}
func (fakeProvider) SearchPerson(context.Context, string) (int64, bool, error) {
	return 0, false, nil
}
func (fakeProvider) Discover(_ context.Context, kind string, _ []int) ([]models.CatalogItem, error) {
	return []models.CatalogItem{{ID: 1, Title: "Pick " + kind, MediaType: kind}}, nil
}
func (fakeProvider) PersonCredits(context.Context, int64, string) ([]models.CatalogItem, error) {
	return nil, nil
}
func (fakeProvider) MovieRuntime(context.Context, int64) (int, error) { return 0, nil }
func (fakeProvider) EpisodeRuntime(context.Context, int64, int, int) (int, error) {
	return 0, nil
}

func newDispatcher() (*Dispatcher, *library.Service) {
	mem := store.NewMemory()
	lib := library.NewService(mem, 50)
	prov := fakeProvider{}
	return New(Deps{
		Bot:      chat.NewBot(intent.NewResolver(false), prov, lib, mem),
		Library:  lib,
		Sessions: session.NewManager(prov, lib),
		Catalog:  catalog.New(prov, lib, catalog.Options{}),
	}), lib
}

func dispatch(t *testing.T, d *Dispatcher, action string, payload any) (*Result, error) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return d.Dispatch(context.Background(), action, "p", raw)
}

func TestActionsTable(t *testing.T) {
	d, _ := newDispatcher()
	assert.Equal(t, []string{
		ChatSend, ItemOpen, LiveClose, LiveSelectServer,
		PlayerAutoplay, PlayerClose, PlayerNext, PlayerPrev,
		WatchlistAdd, WatchlistRemove,
	}, d.Actions())

	_, err := d.Dispatch(context.Background(), "player.rewind", "p", nil)
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestChatSend(t *testing.T) {
	d, _ := newDispatcher()

	res, err := dispatch(t, d, ChatSend, map[string]string{"text": "a comedy please"})
	require.NoError(t, err)
	require.NotNil(t, res.Chat)
	assert.Equal(t, chat.OutcomeRecommendations, res.Chat.Kind)

	_, err = dispatch(t, d, ChatSend, map[string]string{})
	var pe *InvalidPayloadError
	assert.ErrorAs(t, err, &pe)
}

func TestItemOpenMovie(t *testing.T) {
	d, lib := newDispatcher()

	res, err := dispatch(t, d, ItemOpen, map[string]any{"id": 550, "kind": "movie", "title": "Fight Club", "poster_path": "/fc.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "https://vidsrc.su/embed/movie/550", res.Playback.URL)
	require.NotNil(t, res.State.Playing)

	recent, err := lib.Recent(context.Background(), "p")
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "https://image.tmdb.org/t/p/w200/fc.jpg", recent[0].Thumbnail)
}

func TestItemOpenShowListsSeasons(t *testing.T) {
	d, lib := newDispatcher()

	res, err := dispatch(t, d, ItemOpen, map[string]any{"id": 70523, "kind": "tv", "title": "Dark"})
	require.NoError(t, err)
	require.NotNil(t, res.Show)
	assert.Len(t, res.Show.Seasons, 1)
	assert.Nil(t, res.Playback)

	recent, err := lib.Recent(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, models.TypeTVShow, recent[0].Type)

	_, err = dispatch(t, d, ItemOpen, map[string]any{"id": 404, "kind": "tv"})
	var ue *UserError
	assert.ErrorAs(t, err, &ue)
}

func TestEpisodeNavigationAlerts(t *testing.T) {
	d, _ := newDispatcher()

	_, err := dispatch(t, d, PlayerNext, nil)
	var ue *UserError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "No TV episode is currently playing.", ue.Message)

	res, err := dispatch(t, d, ItemOpen, map[string]any{"id": 70523, "kind": "tv", "season": 1, "episode": 1})
	require.NoError(t, err)
	assert.Equal(t, "Dark (Season 1) (Episode 1)", res.Playback.Title)

	_, err = dispatch(t, d, PlayerPrev, nil)
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "This is the first episode.", ue.Message)

	res, err = dispatch(t, d, PlayerNext, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://vidsrc.su/embed/tv/70523/1/2", res.Playback.URL)

	res, err = dispatch(t, d, PlayerClose, nil)
	require.NoError(t, err)
	assert.Nil(t, res.State.Playing)
	assert.NotNil(t, res.State.Episode)
}

func TestWatchlistActions(t *testing.T) {
	d, _ := newDispatcher()
	item := map[string]any{"id": 1, "title": "Heat", "type": "movie"}

	res, err := dispatch(t, d, WatchlistAdd, item)
	require.NoError(t, err)
	assert.Equal(t, "Heat has been added to your watchlist.", res.Message)

	res, err = dispatch(t, d, WatchlistAdd, item)
	require.NoError(t, err)
	assert.Equal(t, "Heat is already in your watchlist.", res.Message)

	res, err = dispatch(t, d, WatchlistRemove, item)
	require.NoError(t, err)
	assert.Equal(t, "Removed from your watchlist.", res.Message)

	_, err = dispatch(t, d, WatchlistAdd, map[string]any{"id": 1, "type": "book"})
	var pe *InvalidPayloadError
	assert.ErrorAs(t, err, &pe)
}

func TestAutoplayToggle(t *testing.T) {
	d, _ := newDispatcher()

	res, err := dispatch(t, d, PlayerAutoplay, map[string]bool{"enabled": false})
	require.NoError(t, err)
	assert.False(t, res.State.Autoplay)

	_, err = dispatch(t, d, PlayerAutoplay, map[string]any{})
	var pe *InvalidPayloadError
	assert.ErrorAs(t, err, &pe)
}

func TestLiveServerSelection(t *testing.T) {
	d, _ := newDispatcher()

	res, err := dispatch(t, d, LiveSelectServer, map[string]string{"match_id": "m1"})
	require.NoError(t, err)
	assert.Len(t, res.Servers, 6)
	assert.Equal(t, "m1", res.State.SelectedMatch)

	res, err = dispatch(t, d, LiveSelectServer, map[string]string{"server": "Echo"})
	require.NoError(t, err)
	assert.Equal(t, "https://streamed.su/watch/m1/echo/1", res.StreamURL)
	assert.Empty(t, res.State.SelectedMatch)

	_, err = dispatch(t, d, LiveSelectServer, map[string]string{"server": "Echo"})
	var ue *UserError
	assert.ErrorAs(t, err, &ue)

	_, err = dispatch(t, d, LiveSelectServer, map[string]string{"match_id": "m2"})
	require.NoError(t, err)
	res, err = dispatch(t, d, LiveClose, nil)
	require.NoError(t, err)
	assert.Empty(t, res.State.SelectedMatch)
}
