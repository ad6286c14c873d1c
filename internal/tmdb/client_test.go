package tmdb

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagen/wolfflix/internal/busy"
	"github.com/voyagen/wolfflix/internal/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *busy.Tracker) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	tr := &busy.Tracker{}
	c := NewClient("secret", Options{
		BaseURL:    srv.URL,
		Rate:       1000,
		RetryDelay: time.Millisecond,
		Busy:       tr,
	})
	return c, tr
}

func TestDiscoverBuildsQuery(t *testing.T) {
	c, tr := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/discover/movie", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "secret", q.Get("api_key"))
		assert.Equal(t, "28,35", q.Get("with_genres"))
		assert.Equal(t, "popularity.desc", q.Get("sort_by"))
		assert.Equal(t, "en-US", q.Get("language"))
		fmt.Fprint(w, `{"page":1,"results":[
			{"id":5,"title":"Speed","release_date":"1994-06-10","poster_path":"/speed.jpg"},
			{"id":7,"title":"Big"}]}`)
	})

	items, err := c.Discover(context.Background(), models.KindMovie, []int{28, 35})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, models.CatalogItem{
		ID: 5, MediaType: models.KindMovie, Title: "Speed", ReleaseDate: "1994-06-10", PosterPath: "/speed.jpg",
	}, items[0])
	assert.False(t, tr.Busy())
}

func TestDiscoverRejectsUnknownKind(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	_, err := c.Discover(context.Background(), "anime", []int{1})
	assert.Error(t, err)
}

func TestSearchPerson(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/person", r.URL.Path)
		if r.URL.Query().Get("query") == "Tom Hanks" {
			fmt.Fprint(w, `{"results":[{"id":31,"name":"Tom Hanks"},{"id":99,"name":"Tom Hanks Jr"}]}`)
			return
		}
		fmt.Fprint(w, `{"results":[]}`)
	})

	id, found, err := c.SearchPerson(context.Background(), "Tom Hanks")
	require.NoError(t, err)
	assert.True(t, found)
	assert.EqualValues(t, 31, id)

	_, found, err = c.SearchPerson(context.Background(), "Nobody")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPersonCreditsUsesKindPath(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/person/31/tv_credits", r.URL.Path)
		fmt.Fprint(w, `{"id":31,"cast":[{"id":1,"name":"Show","first_air_date":"2001-01-01"}]}`)
	})

	items, err := c.PersonCredits(context.Background(), 31, models.KindTV)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, models.KindTV, items[0].MediaType)
	assert.Equal(t, "Show", items[0].Title)
	assert.Equal(t, "2001", items[0].Year())
}

func TestSearchMultiDropsPeopleAndInfersKind(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[
			{"id":1,"media_type":"movie","title":"Alien"},
			{"id":2,"media_type":"person","name":"Sigourney Weaver"},
			{"id":3,"name":"Aliens in the Attic Show"}]}`)
	})

	items, err := c.SearchMulti(context.Background(), "alien")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, models.KindMovie, items[0].MediaType)
	assert.Equal(t, models.KindTV, items[1].MediaType)
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"runtime":142}`)
	})

	runtime, err := c.MovieRuntime(context.Background(), 13)
	require.NoError(t, err)
	assert.Equal(t, 142, runtime)
	assert.EqualValues(t, 3, calls.Load())
}

func TestNotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c, tr := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.Show(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualValues(t, 1, calls.Load())
	assert.False(t, tr.Busy())
}

func TestMalformedBodyIsAnError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results": "nope"`)
	})
	_, err := c.Discover(context.Background(), models.KindTV, []int{18})
	assert.Error(t, err)
}

func TestEpisodesAndShow(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tv/1399":
			fmt.Fprint(w, `{"id":1399,"name":"Game of Thrones","poster_path":"/got.jpg",
				"seasons":[{"season_number":1,"name":"Season 1","episode_count":10}]}`)
		case "/tv/1399/season/1":
			fmt.Fprint(w, `{"season_number":1,"episodes":[{"episode_number":1,"name":"Winter Is Coming","air_date":"2011-04-17"}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	show, err := c.Show(context.Background(), 1399)
	require.NoError(t, err)
	assert.Equal(t, "Game of Thrones", show.Name)
	require.Len(t, show.Seasons, 1)
	assert.Equal(t, 10, show.Seasons[0].EpisodeCount)

	eps, err := c.Episodes(context.Background(), 1399, 1)
	require.NoError(t, err)
	require.Len(t, eps, 1)
	assert.Equal(t, "Winter Is Coming", eps[0].Name)
}

func TestThumbnailURL(t *testing.T) {
	assert.Equal(t, "", ThumbnailURL(""))
	assert.Equal(t, "https://image.tmdb.org/t/p/w200/a.jpg", ThumbnailURL("/a.jpg"))
}
