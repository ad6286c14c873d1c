// Package library maintains each profile's watchlist and recently-viewed
// list.
package library

import "github.com/voyagen/wolfflix/internal/models"

// PushRecent moves item to the front of list, dropping any earlier entry
// with the same (id, type), and truncates the result to max entries.
func PushRecent(list []models.ListItem, item models.ListItem, max int) []models.ListItem {
	out := make([]models.ListItem, 0, len(list)+1)
	out = append(out, item)
	for _, it := range list {
		if it.Same(item) {
			continue
		}
		out = append(out, it)
	}
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

// AddWatchlist appends item unless an entry with the same (id, type) is
// already present. It reports whether the item was added.
func AddWatchlist(list []models.ListItem, item models.ListItem) ([]models.ListItem, bool) {
	for _, it := range list {
		if it.Same(item) {
			return list, false
		}
	}
	return append(list, item), true
}

// RemoveWatchlist drops the entry matching (id, type). It reports whether
// anything was removed.
func RemoveWatchlist(list []models.ListItem, id int64, itemType string) ([]models.ListItem, bool) {
	out := make([]models.ListItem, 0, len(list))
	removed := false
	for _, it := range list {
		if it.ID == id && it.Type == itemType {
			removed = true
			continue
		}
		out = append(out, it)
	}
	return out, removed
}
