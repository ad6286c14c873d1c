// Package chat runs the recommendation chat: it records the transcript,
// resolves each message into catalog lookups and renders the bot replies.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/voyagen/wolfflix/internal/intent"
	"github.com/voyagen/wolfflix/internal/library"
	"github.com/voyagen/wolfflix/internal/logging"
	"github.com/voyagen/wolfflix/internal/metrics"
	"github.com/voyagen/wolfflix/internal/models"
	"github.com/voyagen/wolfflix/internal/recommend"
	"github.com/voyagen/wolfflix/internal/store"
	"github.com/voyagen/wolfflix/internal/tmdb"
)

// OutcomeKind tells callers how a message was resolved.
type OutcomeKind string

const (
	OutcomeRecommendations   OutcomeKind = "recommendations"
	OutcomeUnrecognizedGenre OutcomeKind = "unrecognized_genre"
	OutcomeActorNotFound     OutcomeKind = "actor_not_found"
	OutcomeEmpty             OutcomeKind = "empty"
)

const (
	msgAddedToRecent = "I've added these titles to your Recently Viewed category for you to look at later."
	msgNoResults     = "Sorry, I couldn't find any recommendations based on your request."
)

// Outcome is the result of handling one chat message.
type Outcome struct {
	Kind    OutcomeKind          `json:"kind"`
	Intent  intent.Intent        `json:"intent"`
	Result  recommend.Result     `json:"result"`
	Replies []models.ChatMessage `json:"replies"`
}

// Catalog is what the bot needs from the metadata provider.
type Catalog interface {
	intent.PersonSearcher
	recommend.Catalog
}

// Bot handles chat messages for all profiles.
type Bot struct {
	resolver   *intent.Resolver
	people     intent.PersonSearcher
	aggregator *recommend.Aggregator
	library    *library.Service
	store      store.Store
	now        func() time.Time
}

// NewBot wires a Bot.
func NewBot(resolver *intent.Resolver, catalog Catalog, lib *library.Service, s store.Store) *Bot {
	return &Bot{
		resolver:   resolver,
		people:     catalog,
		aggregator: recommend.New(catalog),
		library:    lib,
		store:      s,
		now:        time.Now,
	}
}

// ErrEmptyMessage is returned for blank input.
var ErrEmptyMessage = errors.New("empty message")

// Handle records text in the profile's transcript, answers it and returns
// the outcome. Resolution failures are reported through Outcome.Kind and
// the bot replies; only storage errors are returned.
func (b *Bot) Handle(ctx context.Context, profileID, text string) (*Outcome, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if _, err := b.append(ctx, profileID, text, false); err != nil {
		return nil, err
	}

	log := logging.Ctx(ctx)
	out := &Outcome{}
	res, err := b.resolver.Resolve(ctx, text, b.people)
	out.Intent = res.Intent

	var (
		unrecognized *intent.UnrecognizedGenreError
		notFound     *intent.ActorNotFoundError
	)
	switch {
	case errors.As(err, &unrecognized):
		out.Kind = OutcomeUnrecognizedGenre
		err = b.reply(ctx, profileID, out, fmt.Sprintf(
			`Sorry, I couldn't recognize the genre(s): "%s". Please try another one.`,
			strings.Join(unrecognized.Genres, ", ")))
	case errors.As(err, &notFound):
		out.Kind = OutcomeActorNotFound
		err = b.reply(ctx, profileID, out, fmt.Sprintf(
			`Sorry, I couldn't find an actor named "%s". Please check the name and try again.`,
			notFound.Name))
	case err != nil:
		return nil, err
	default:
		out.Result = b.aggregator.Aggregate(ctx, res.GenreIDs, res.ActorID)
		err = b.answer(ctx, profileID, out)
	}
	if err != nil {
		return nil, err
	}

	metrics.ChatOutcomes.WithLabelValues(string(out.Kind)).Inc()
	log.Info().
		Str("outcome", string(out.Kind)).
		Strs("genres", out.Intent.Genres).
		Str("actor", out.Intent.Actor).
		Int("movies", len(out.Result.Movies)).
		Int("tv_shows", len(out.Result.TVShows)).
		Msg("chat message handled")
	return out, nil
}

func (b *Bot) answer(ctx context.Context, profileID string, out *Outcome) error {
	if out.Result.Empty() {
		out.Kind = OutcomeEmpty
		return b.reply(ctx, profileID, out, msgNoResults)
	}
	out.Kind = OutcomeRecommendations
	if err := b.reply(ctx, profileID, out, Render(out.Result)); err != nil {
		return err
	}

	viewed := make([]models.ListItem, 0, len(out.Result.Movies)+len(out.Result.TVShows))
	for _, it := range out.Result.Movies {
		it.MediaType = models.KindMovie
		viewed = append(viewed, library.FromCatalog(it, tmdb.ThumbnailURL(it.PosterPath)))
	}
	for _, it := range out.Result.TVShows {
		it.MediaType = models.KindTV
		viewed = append(viewed, library.FromCatalog(it, tmdb.ThumbnailURL(it.PosterPath)))
	}
	// The recommendations are already in the transcript; a failed push only
	// drops the confirmation line.
	if err := b.library.PushRecent(ctx, profileID, viewed...); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("recording recommendations as viewed")
		return nil
	}
	return b.reply(ctx, profileID, out, msgAddedToRecent)
}

func (b *Bot) reply(ctx context.Context, profileID string, out *Outcome, text string) error {
	msg, err := b.append(ctx, profileID, text, true)
	if err != nil {
		return err
	}
	out.Replies = append(out.Replies, msg)
	return nil
}

func (b *Bot) append(ctx context.Context, profileID, text string, isBot bool) (models.ChatMessage, error) {
	msg := models.ChatMessage{Text: text, IsBot: isBot, SentAt: b.now()}
	if err := b.store.AppendMessage(ctx, profileID, msg); err != nil {
		return msg, fmt.Errorf("chat: append message: %w", err)
	}
	return msg, nil
}

// Transcript returns the last limit lines of the profile's chat.
func (b *Bot) Transcript(ctx context.Context, profileID string, limit int) ([]models.ChatMessage, error) {
	return b.store.Messages(ctx, profileID, limit)
}

// Render formats a recommendation result as chat text.
func Render(r recommend.Result) string {
	var sb strings.Builder
	section := func(heading string, items []models.CatalogItem) {
		if len(items) == 0 {
			return
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(heading)
		for _, it := range items {
			fmt.Fprintf(&sb, "\n- %s (%s)", it.Title, it.Year())
		}
	}
	section("**Movies:**", r.Movies)
	section("**TV Shows:**", r.TVShows)
	return sb.String()
}
