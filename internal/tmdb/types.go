package tmdb

import "github.com/voyagen/wolfflix/internal/models"

// result is a movie, show or person entry in a TMDB list response.
type result struct {
	ID           int64   `json:"id"`
	MediaType    string  `json:"media_type"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	PosterPath   string  `json:"poster_path"`
	Overview     string  `json:"overview"`
	Popularity   float64 `json:"popularity"`
}

type listResponse struct {
	Page    int      `json:"page"`
	Results []result `json:"results"`
}

type creditsResponse struct {
	ID   int64    `json:"id"`
	Cast []result `json:"cast"`
}

type showResponse struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	PosterPath string          `json:"poster_path"`
	Seasons    []models.Season `json:"seasons"`
}

type seasonResponse struct {
	SeasonNumber int              `json:"season_number"`
	Episodes     []models.Episode `json:"episodes"`
}

type runtimeResponse struct {
	Runtime int `json:"runtime"`
}

// toItem converts a raw result. kind is used when the entry carries no
// media_type; an empty kind falls back to "has a title means movie".
func (r result) toItem(kind string) models.CatalogItem {
	switch r.MediaType {
	case models.KindMovie, models.KindTV:
		kind = r.MediaType
	}
	if kind == "" {
		kind = models.KindTV
		if r.Title != "" {
			kind = models.KindMovie
		}
	}
	title := r.Title
	if title == "" {
		title = r.Name
	}
	if title == "" {
		title = "Untitled"
	}
	date := r.ReleaseDate
	if date == "" {
		date = r.FirstAirDate
	}
	return models.CatalogItem{
		ID:          r.ID,
		MediaType:   kind,
		Title:       title,
		ReleaseDate: date,
		PosterPath:  r.PosterPath,
		Overview:    r.Overview,
		Popularity:  r.Popularity,
	}
}

func toItems(rs []result, kind string) []models.CatalogItem {
	items := make([]models.CatalogItem, 0, len(rs))
	for _, r := range rs {
		if r.MediaType == "person" {
			continue
		}
		items = append(items, r.toItem(kind))
	}
	return items
}
