// Package actions maps UI action names to handlers. Every user
// interaction of the front end (sending a chat message, opening a title,
// the player buttons, the live server picker) goes through Dispatch.
package actions

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/voyagen/wolfflix/internal/catalog"
	"github.com/voyagen/wolfflix/internal/chat"
	"github.com/voyagen/wolfflix/internal/library"
	"github.com/voyagen/wolfflix/internal/logging"
	"github.com/voyagen/wolfflix/internal/models"
	"github.com/voyagen/wolfflix/internal/session"
)

// Action names.
const (
	ChatSend         = "chat.send"
	ItemOpen         = "item.open"
	WatchlistAdd     = "watchlist.add"
	WatchlistRemove  = "watchlist.remove"
	PlayerNext       = "player.next"
	PlayerPrev       = "player.prev"
	PlayerAutoplay   = "player.autoplay"
	PlayerClose      = "player.close"
	LiveSelectServer = "live.select_server"
	LiveClose        = "live.close"
)

// ErrUnknownAction is returned for names missing from the table.
var ErrUnknownAction = errors.New("unknown action")

// UserError is a failure shown to the user as an alert.
type UserError struct {
	Message string
	Err     error
}

func (e *UserError) Error() string { return e.Message }
func (e *UserError) Unwrap() error { return e.Err }

// InvalidPayloadError reports a payload that failed to decode or validate.
type InvalidPayloadError struct {
	Err error
}

func (e *InvalidPayloadError) Error() string { return "invalid payload: " + e.Err.Error() }
func (e *InvalidPayloadError) Unwrap() error { return e.Err }

// Result is what an action hands back to the front end.
type Result struct {
	Action    string            `json:"action"`
	Message   string            `json:"message,omitempty"`
	Playback  *session.Playback `json:"playback,omitempty"`
	Chat      *chat.Outcome     `json:"chat,omitempty"`
	Show      *models.Show      `json:"show,omitempty"`
	Servers   []string          `json:"servers,omitempty"`
	StreamURL string            `json:"stream_url,omitempty"`
	State     session.State     `json:"state"`
}

// Handler runs one action for a profile.
type Handler func(ctx context.Context, profileID string, payload json.RawMessage) (*Result, error)

// Deps are the services the handlers drive.
type Deps struct {
	Bot      *chat.Bot
	Library  *library.Service
	Sessions *session.Manager
	Catalog  *catalog.Service
}

// Dispatcher holds the action table.
type Dispatcher struct {
	deps     Deps
	validate *validator.Validate
	table    map[string]Handler
}

// New builds the dispatch table.
func New(deps Deps) *Dispatcher {
	d := &Dispatcher{deps: deps, validate: validator.New()}
	d.table = map[string]Handler{
		ChatSend:         d.chatSend,
		ItemOpen:         d.itemOpen,
		WatchlistAdd:     d.watchlistAdd,
		WatchlistRemove:  d.watchlistRemove,
		PlayerNext:       d.playerNext,
		PlayerPrev:       d.playerPrev,
		PlayerAutoplay:   d.playerAutoplay,
		PlayerClose:      d.playerClose,
		LiveSelectServer: d.liveSelectServer,
		LiveClose:        d.liveClose,
	}
	return d
}

// Actions returns the registered action names, sorted.
func (d *Dispatcher) Actions() []string {
	names := make([]string, 0, len(d.table))
	for name := range d.table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs action for profileID. The returned Result always carries
// the session state after the action.
func (d *Dispatcher) Dispatch(ctx context.Context, action, profileID string, payload json.RawMessage) (*Result, error) {
	h, ok := d.table[action]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
	res, err := h(ctx, profileID, payload)
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Str("action", action).Msg("action failed")
		return nil, err
	}
	res.Action = action
	res.State = d.deps.Sessions.State(profileID)
	return res, nil
}

// decode unmarshals payload into dst and validates it. An empty payload
// decodes as the zero value.
func (d *Dispatcher) decode(payload json.RawMessage, dst any) error {
	if len(payload) > 0 && string(payload) != "null" {
		if err := json.Unmarshal(payload, dst); err != nil {
			return &InvalidPayloadError{Err: err}
		}
	}
	if err := d.validate.Struct(dst); err != nil {
		return &InvalidPayloadError{Err: err}
	}
	return nil
}
