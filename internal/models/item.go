package models

// CatalogItem is a movie or TV show as returned by the metadata provider.
// Identity is (ID, MediaType).
type CatalogItem struct {
	ID          int64   `json:"id"`
	MediaType   string  `json:"media_type"` // KindMovie or KindTV
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date,omitempty"`
	PosterPath  string  `json:"poster_path,omitempty"`
	Overview    string  `json:"overview,omitempty"`
	Popularity  float64 `json:"popularity,omitempty"`
}

// Key returns a stable identifier combining media type and id.
func (c CatalogItem) Key() string {
	return ItemKey(c.MediaType, c.ID)
}

// Year returns the first four characters of the release date, or "N/A".
func (c CatalogItem) Year() string {
	if c.ReleaseDate == "" {
		return "N/A"
	}
	if len(c.ReleaseDate) < 4 {
		return c.ReleaseDate
	}
	return c.ReleaseDate[:4]
}

// Season is a season summary of a TV show.
type Season struct {
	Number       int    `json:"season_number"`
	Name         string `json:"name"`
	EpisodeCount int    `json:"episode_count"`
	PosterPath   string `json:"poster_path,omitempty"`
}

// Show is a TV show with its season list.
type Show struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	PosterPath string   `json:"poster_path,omitempty"`
	Seasons    []Season `json:"seasons"`
}

// Episode is a single episode of a season.
type Episode struct {
	Number   int    `json:"episode_number"`
	Name     string `json:"name"`
	AirDate  string `json:"air_date,omitempty"`
	Overview string `json:"overview,omitempty"`
	Runtime  int    `json:"runtime,omitempty"`
}

// SemanticHit is a catalog item with its distance to a search query.
type SemanticHit struct {
	CatalogItem
	Distance float64 `json:"distance"`
}
