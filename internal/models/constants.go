package models

// Media kinds as understood by the metadata provider.
const (
	KindMovie = "movie"
	KindTV    = "tv"
)

// Item types stored in the watchlist and recently-viewed lists.
const (
	TypeMovie  = "movie"
	TypeTVShow = "tv_show"
)

// DefaultRecentLimit caps the recently-viewed list.
const DefaultRecentLimit = 50

// TypeForKind maps a provider media kind to the list item type.
func TypeForKind(kind string) string {
	if kind == KindTV {
		return TypeTVShow
	}
	return TypeMovie
}
