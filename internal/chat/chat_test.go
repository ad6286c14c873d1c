package chat

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagen/wolfflix/internal/intent"
	"github.com/voyagen/wolfflix/internal/library"
	"github.com/voyagen/wolfflix/internal/models"
	"github.com/voyagen/wolfflix/internal/recommend"
	"github.com/voyagen/wolfflix/internal/store"
)

type fakeCatalog struct {
	mu       sync.Mutex
	people   map[string]int64
	discover map[string][]models.CatalogItem
	credits  map[string][]models.CatalogItem
	calls    int
}

func (f *fakeCatalog) SearchPerson(_ context.Context, name string) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	id, ok := f.people[name]
	return id, ok, nil
}

func (f *fakeCatalog) Discover(_ context.Context, kind string, _ []int) ([]models.CatalogItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.discover[kind], nil
}

func (f *fakeCatalog) PersonCredits(_ context.Context, _ int64, kind string) ([]models.CatalogItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.credits[kind], nil
}

func newBot(cat *fakeCatalog) (*Bot, *store.Memory, *library.Service) {
	mem := store.NewMemory()
	lib := library.NewService(mem, 50)
	return NewBot(intent.NewResolver(false), cat, lib, mem), mem, lib
}

func TestHandleRecommendations(t *testing.T) {
	ctx := context.Background()
	cat := &fakeCatalog{
		discover: map[string][]models.CatalogItem{
			models.KindMovie: {{ID: 1, Title: "Die Hard", ReleaseDate: "1988-07-15", PosterPath: "/dh.jpg"}},
			models.KindTV:    {{ID: 2, Title: "24"}},
		},
	}
	bot, mem, lib := newBot(cat)

	out, err := bot.Handle(ctx, "p", "  some action please ")
	require.NoError(t, err)
	assert.Equal(t, OutcomeRecommendations, out.Kind)
	assert.Equal(t, []string{"action"}, out.Intent.Genres)
	require.Len(t, out.Replies, 2)
	assert.Equal(t, "**Movies:**\n- Die Hard (1988)\n**TV Shows:**\n- 24 (N/A)", out.Replies[0].Text)
	assert.Equal(t, msgAddedToRecent, out.Replies[1].Text)

	recent, err := lib.Recent(ctx, "p")
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, models.TypeTVShow, recent[0].Type)
	assert.Equal(t, "", recent[0].Thumbnail)
	assert.Equal(t, models.TypeMovie, recent[1].Type)
	assert.Equal(t, "https://image.tmdb.org/t/p/w200/dh.jpg", recent[1].Thumbnail)

	transcript, err := mem.Messages(ctx, "p", 0)
	require.NoError(t, err)
	require.Len(t, transcript, 3)
	assert.Equal(t, "some action please", transcript[0].Text)
	assert.False(t, transcript[0].IsBot)
	assert.True(t, transcript[2].IsBot)
}

func TestHandleUnrecognizedGenre(t *testing.T) {
	cat := &fakeCatalog{}
	bot, _, _ := newBot(cat)

	out, err := bot.Handle(context.Background(), "p", "show me zombie movies")
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnrecognizedGenre, out.Kind)
	require.Len(t, out.Replies, 1)
	assert.Equal(t, `Sorry, I couldn't recognize the genre(s): "zombie". Please try another one.`, out.Replies[0].Text)
	assert.Zero(t, cat.calls)
}

func TestHandleActorNotFound(t *testing.T) {
	cat := &fakeCatalog{}
	bot, _, _ := newBot(cat)

	out, err := bot.Handle(context.Background(), "p", "something starring Nobody")
	require.NoError(t, err)
	assert.Equal(t, OutcomeActorNotFound, out.Kind)
	assert.Equal(t, `Sorry, I couldn't find an actor named "Nobody". Please check the name and try again.`, out.Replies[0].Text)
	assert.Equal(t, 1, cat.calls)
}

func TestHandleEmpty(t *testing.T) {
	cat := &fakeCatalog{}
	bot, _, lib := newBot(cat)

	out, err := bot.Handle(context.Background(), "p", "hello there")
	require.NoError(t, err)
	assert.Equal(t, OutcomeEmpty, out.Kind)
	assert.Equal(t, msgNoResults, out.Replies[0].Text)
	assert.Zero(t, cat.calls)

	recent, err := lib.Recent(context.Background(), "p")
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestHandleActorCredits(t *testing.T) {
	cat := &fakeCatalog{
		people: map[string]int64{"Tom Hanks": 31},
		credits: map[string][]models.CatalogItem{
			models.KindMovie: {{ID: 13, Title: "Forrest Gump", ReleaseDate: "1994-06-23"}},
		},
	}
	bot, _, _ := newBot(cat)

	out, err := bot.Handle(context.Background(), "p", "recommend something with Tom Hanks")
	require.NoError(t, err)
	assert.Equal(t, OutcomeRecommendations, out.Kind)
	assert.Equal(t, "Tom Hanks", out.Intent.Actor)
	assert.Equal(t, "**Movies:**\n- Forrest Gump (1994)", out.Replies[0].Text)
}

// listFailingStore keeps the transcript but refuses list writes.
type listFailingStore struct {
	*store.Memory
}

func (listFailingStore) ReplaceItems(context.Context, string, store.List, []models.ListItem) error {
	return errors.New("lists unavailable")
}

func TestHandleRecentFailureKeepsReply(t *testing.T) {
	ctx := context.Background()
	cat := &fakeCatalog{
		discover: map[string][]models.CatalogItem{
			models.KindMovie: {{ID: 1, Title: "Die Hard", ReleaseDate: "1988-07-15"}},
		},
	}
	st := listFailingStore{store.NewMemory()}
	bot := NewBot(intent.NewResolver(false), cat, library.NewService(st, 50), st)

	out, err := bot.Handle(ctx, "p", "action")
	require.NoError(t, err)
	assert.Equal(t, OutcomeRecommendations, out.Kind)
	require.Len(t, out.Replies, 1)
	assert.Equal(t, "**Movies:**\n- Die Hard (1988)", out.Replies[0].Text)

	transcript, err := st.Messages(ctx, "p", 0)
	require.NoError(t, err)
	require.Len(t, transcript, 2)
	assert.True(t, transcript[1].IsBot)
}

func TestHandleBlankMessage(t *testing.T) {
	bot, mem, _ := newBot(&fakeCatalog{})

	_, err := bot.Handle(context.Background(), "p", "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	msgs, err := mem.Messages(context.Background(), "p", 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestRenderSkipsEmptySections(t *testing.T) {
	got := Render(recommend.Result{TVShows: []models.CatalogItem{{Title: "Dark", ReleaseDate: "2017-12-01"}}})
	assert.Equal(t, "**TV Shows:**\n- Dark (2017)", got)
	assert.Empty(t, Render(recommend.Result{}))
}
