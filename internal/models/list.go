package models

import (
	"strconv"
	"time"
)

// ListItem is an entry of the watchlist or the recently-viewed list.
// Identity is (ID, Type).
type ListItem struct {
	ID        int64     `json:"id" validate:"required,gt=0"`
	Title     string    `json:"title" validate:"required"`
	Type      string    `json:"type" validate:"required,oneof=movie tv_show"`
	Thumbnail string    `json:"thumbnail"`
	Season    *int      `json:"season,omitempty"`
	Episode   *int      `json:"episode,omitempty"`
	Progress  int       `json:"progress,omitempty"`
	AddedAt   time.Time `json:"added_at"`
}

// Key returns a stable identifier combining type and id.
func (l ListItem) Key() string {
	return ItemKey(l.Type, l.ID)
}

// Same reports whether both items refer to the same title.
func (l ListItem) Same(o ListItem) bool {
	return l.ID == o.ID && l.Type == o.Type
}

// ItemKey builds the "<type>:<id>" key used by lists and caches.
func ItemKey(kind string, id int64) string {
	return kind + ":" + strconv.FormatInt(id, 10)
}
