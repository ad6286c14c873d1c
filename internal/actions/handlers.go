package actions

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/voyagen/wolfflix/internal/models"
	"github.com/voyagen/wolfflix/internal/session"
	"github.com/voyagen/wolfflix/internal/tmdb"
)

type chatPayload struct {
	Text string `json:"text" validate:"required"`
}

func (d *Dispatcher) chatSend(ctx context.Context, profileID string, payload json.RawMessage) (*Result, error) {
	var p chatPayload
	if err := d.decode(payload, &p); err != nil {
		return nil, err
	}
	out, err := d.deps.Bot.Handle(ctx, profileID, p.Text)
	if err != nil {
		return nil, err
	}
	return &Result{Chat: out}, nil
}

// openPayload identifies a title card, a recently-viewed entry or an
// episode of a season listing.
type openPayload struct {
	ID         int64  `json:"id" validate:"required,gt=0"`
	Kind       string `json:"kind" validate:"required,oneof=movie tv"`
	Title      string `json:"title"`
	PosterPath string `json:"poster_path"`
	Progress   int    `json:"progress" validate:"gte=0"`
	Season     *int   `json:"season" validate:"omitempty,gte=0"`
	Episode    *int   `json:"episode" validate:"omitempty,gte=1"`
}

// itemOpen plays a movie or episode. Opening a show without an episode
// returns its seasons and records the show as viewed.
func (d *Dispatcher) itemOpen(ctx context.Context, profileID string, payload json.RawMessage) (*Result, error) {
	var p openPayload
	if err := d.decode(payload, &p); err != nil {
		return nil, err
	}
	if p.Title == "" {
		p.Title = "Untitled"
	}

	if p.Kind == models.KindMovie {
		pb, err := d.deps.Sessions.PlayMovie(ctx, profileID, p.ID, p.Title, p.PosterPath, p.Progress)
		if err != nil {
			return nil, err
		}
		return &Result{Playback: pb}, nil
	}

	if p.Season != nil && p.Episode != nil {
		show := p.Title
		if s, err := d.deps.Catalog.Show(ctx, p.ID); err == nil && s.Name != "" {
			show = s.Name
		}
		ep := session.Episode{ShowID: p.ID, Season: *p.Season, Episode: *p.Episode, ShowName: show, PosterPath: p.PosterPath}
		pb, err := d.deps.Sessions.PlayEpisode(ctx, profileID, ep, p.Progress)
		if err != nil {
			return nil, err
		}
		return &Result{Playback: pb}, nil
	}

	show, err := d.deps.Catalog.Show(ctx, p.ID)
	if err != nil {
		if errors.Is(err, tmdb.ErrNotFound) {
			return nil, &UserError{Message: "This show is no longer available.", Err: err}
		}
		return nil, err
	}
	item := models.ListItem{ID: p.ID, Title: p.Title, Type: models.TypeTVShow, Thumbnail: tmdb.ThumbnailURL(p.PosterPath), Progress: p.Progress}
	if err := d.deps.Library.PushRecent(ctx, profileID, item); err != nil {
		return nil, err
	}
	return &Result{Show: show}, nil
}

type watchlistPayload struct {
	ID         int64  `json:"id" validate:"required,gt=0"`
	Title      string `json:"title"`
	Type       string `json:"type" validate:"required,oneof=movie tv_show"`
	PosterPath string `json:"poster_path"`
	Thumbnail  string `json:"thumbnail"`
}

func (d *Dispatcher) watchlistAdd(ctx context.Context, profileID string, payload json.RawMessage) (*Result, error) {
	var p watchlistPayload
	if err := d.decode(payload, &p); err != nil {
		return nil, err
	}
	if p.Title == "" {
		p.Title = "Untitled"
	}
	if p.Thumbnail == "" {
		p.Thumbnail = tmdb.ThumbnailURL(p.PosterPath)
	}
	_, msg, err := d.deps.Library.AddWatchlist(ctx, profileID, models.ListItem{
		ID: p.ID, Title: p.Title, Type: p.Type, Thumbnail: p.Thumbnail,
	})
	if err != nil {
		return nil, err
	}
	return &Result{Message: msg}, nil
}

func (d *Dispatcher) watchlistRemove(ctx context.Context, profileID string, payload json.RawMessage) (*Result, error) {
	var p watchlistPayload
	if err := d.decode(payload, &p); err != nil {
		return nil, err
	}
	removed, err := d.deps.Library.RemoveWatchlist(ctx, profileID, p.ID, p.Type)
	if err != nil {
		return nil, err
	}
	if !removed {
		return &Result{Message: "That title is not in your watchlist."}, nil
	}
	return &Result{Message: "Removed from your watchlist."}, nil
}

func (d *Dispatcher) playerNext(ctx context.Context, profileID string, _ json.RawMessage) (*Result, error) {
	pb, err := d.deps.Sessions.NextEpisode(ctx, profileID)
	if err != nil {
		return nil, episodeError(err)
	}
	return &Result{Playback: pb}, nil
}

func (d *Dispatcher) playerPrev(ctx context.Context, profileID string, _ json.RawMessage) (*Result, error) {
	pb, err := d.deps.Sessions.PrevEpisode(ctx, profileID)
	if err != nil {
		return nil, episodeError(err)
	}
	return &Result{Playback: pb}, nil
}

func episodeError(err error) error {
	switch {
	case errors.Is(err, session.ErrNoEpisode):
		return &UserError{Message: "No TV episode is currently playing.", Err: err}
	case errors.Is(err, session.ErrFirstEpisode):
		return &UserError{Message: "This is the first episode.", Err: err}
	}
	return err
}

type autoplayPayload struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

func (d *Dispatcher) playerAutoplay(_ context.Context, profileID string, payload json.RawMessage) (*Result, error) {
	var p autoplayPayload
	if err := d.decode(payload, &p); err != nil {
		return nil, err
	}
	d.deps.Sessions.SetAutoplay(profileID, *p.Enabled)
	return &Result{}, nil
}

func (d *Dispatcher) playerClose(_ context.Context, profileID string, _ json.RawMessage) (*Result, error) {
	d.deps.Sessions.Close(profileID)
	return &Result{}, nil
}

type serverPayload struct {
	MatchID string `json:"match_id"`
	Server  string `json:"server"`
}

// liveSelectServer opens the server picker for match_id, or, when server
// is set, returns the stream URL for the open picker and closes it.
func (d *Dispatcher) liveSelectServer(_ context.Context, profileID string, payload json.RawMessage) (*Result, error) {
	var p serverPayload
	if err := d.decode(payload, &p); err != nil {
		return nil, err
	}
	if p.Server == "" {
		if p.MatchID == "" {
			return nil, &InvalidPayloadError{Err: errors.New("match_id or server is required")}
		}
		return &Result{Servers: d.deps.Sessions.SelectMatch(profileID, p.MatchID)}, nil
	}
	if p.MatchID != "" {
		d.deps.Sessions.SelectMatch(profileID, p.MatchID)
	}
	url, err := d.deps.Sessions.ChooseServer(profileID, p.Server)
	if errors.Is(err, session.ErrNoSelection) {
		return nil, &UserError{Message: "Pick a match first.", Err: err}
	}
	if err != nil {
		return nil, &InvalidPayloadError{Err: fmt.Errorf("server: %w", err)}
	}
	return &Result{StreamURL: url}, nil
}

func (d *Dispatcher) liveClose(_ context.Context, profileID string, _ json.RawMessage) (*Result, error) {
	d.deps.Sessions.CloseSelection(profileID)
	return &Result{}, nil
}
