package tmdb

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/voyagen/wolfflix/internal/models"
)

func validKind(kind string) error {
	if kind != models.KindMovie && kind != models.KindTV {
		return fmt.Errorf("tmdb: unknown media kind %q", kind)
	}
	return nil
}

func decode[T any](data []byte, endpoint string) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("tmdb %s: unmarshal: %w", endpoint, err)
	}
	return v, nil
}

// Discover returns the first page of kind titles matching all genreIDs,
// sorted by popularity.
func (c *Client) Discover(ctx context.Context, kind string, genreIDs []int) ([]models.CatalogItem, error) {
	if err := validKind(kind); err != nil {
		return nil, err
	}
	ids := make([]string, len(genreIDs))
	for i, id := range genreIDs {
		ids[i] = strconv.Itoa(id)
	}
	params := url.Values{}
	params.Set("with_genres", strings.Join(ids, ","))
	params.Set("sort_by", "popularity.desc")
	params.Set("language", defaultLanguage)
	params.Set("page", "1")

	data, err := c.get(ctx, "discover_"+kind, "/discover/"+kind, params, listTTL)
	if err != nil {
		return nil, err
	}
	resp, err := decode[listResponse](data, "discover")
	if err != nil {
		return nil, err
	}
	return toItems(resp.Results, kind), nil
}

// SearchPerson returns the id of the first person matching name.
// found is false when the provider has no match.
func (c *Client) SearchPerson(ctx context.Context, name string) (id int64, found bool, err error) {
	params := url.Values{}
	params.Set("query", name)
	data, err := c.get(ctx, "search_person", "/search/person", params, detailTTL)
	if err != nil {
		return 0, false, err
	}
	resp, err := decode[listResponse](data, "search_person")
	if err != nil {
		return 0, false, err
	}
	if len(resp.Results) == 0 {
		return 0, false, nil
	}
	return resp.Results[0].ID, true, nil
}

// PersonCredits returns the cast credits of personID for kind, in provider order.
func (c *Client) PersonCredits(ctx context.Context, personID int64, kind string) ([]models.CatalogItem, error) {
	if err := validKind(kind); err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("language", defaultLanguage)
	path := fmt.Sprintf("/person/%d/%s_credits", personID, kind)
	data, err := c.get(ctx, kind+"_credits", path, params, detailTTL)
	if err != nil {
		return nil, err
	}
	resp, err := decode[creditsResponse](data, kind+"_credits")
	if err != nil {
		return nil, err
	}
	return toItems(resp.Cast, kind), nil
}

// SearchMulti searches movies and shows by free text. People are dropped.
func (c *Client) SearchMulti(ctx context.Context, query string) ([]models.CatalogItem, error) {
	params := url.Values{}
	params.Set("query", query)
	data, err := c.get(ctx, "search_multi", "/search/multi", params, listTTL)
	if err != nil {
		return nil, err
	}
	resp, err := decode[listResponse](data, "search_multi")
	if err != nil {
		return nil, err
	}
	return toItems(resp.Results, ""), nil
}

// List fetches a listing endpoint such as "/trending/movie/week" or
// "/tv/top_rated". kind is applied to entries without a media_type.
func (c *Client) List(ctx context.Context, path string, params url.Values, kind string) ([]models.CatalogItem, error) {
	endpoint := strings.ReplaceAll(strings.Trim(path, "/"), "/", "_")
	data, err := c.get(ctx, endpoint, path, params, listTTL)
	if err != nil {
		return nil, err
	}
	resp, err := decode[listResponse](data, endpoint)
	if err != nil {
		return nil, err
	}
	return toItems(resp.Results, kind), nil
}

// Recommendations returns titles the provider recommends for kind/id.
func (c *Client) Recommendations(ctx context.Context, kind string, id int64) ([]models.CatalogItem, error) {
	if err := validKind(kind); err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("language", defaultLanguage)
	params.Set("page", "1")
	// Recommendations of a movie may include shows and vice versa.
	return c.List(ctx, fmt.Sprintf("/%s/%d/recommendations", kind, id), params, "")
}

// Show returns a TV show with its seasons.
func (c *Client) Show(ctx context.Context, id int64) (*models.Show, error) {
	data, err := c.get(ctx, "tv_details", fmt.Sprintf("/tv/%d", id), nil, detailTTL)
	if err != nil {
		return nil, err
	}
	resp, err := decode[showResponse](data, "tv_details")
	if err != nil {
		return nil, err
	}
	name := resp.Name
	if name == "" {
		name = "Untitled"
	}
	return &models.Show{ID: resp.ID, Name: name, PosterPath: resp.PosterPath, Seasons: resp.Seasons}, nil
}

// Episodes returns the episodes of one season.
func (c *Client) Episodes(ctx context.Context, showID int64, season int) ([]models.Episode, error) {
	data, err := c.get(ctx, "tv_season", fmt.Sprintf("/tv/%d/season/%d", showID, season), nil, detailTTL)
	if err != nil {
		return nil, err
	}
	resp, err := decode[seasonResponse](data, "tv_season")
	if err != nil {
		return nil, err
	}
	return resp.Episodes, nil
}

// MovieRuntime returns a movie's runtime in minutes (0 when unknown).
func (c *Client) MovieRuntime(ctx context.Context, id int64) (int, error) {
	data, err := c.get(ctx, "movie_details", fmt.Sprintf("/movie/%d", id), nil, detailTTL)
	if err != nil {
		return 0, err
	}
	resp, err := decode[runtimeResponse](data, "movie_details")
	return resp.Runtime, err
}

// EpisodeRuntime returns an episode's runtime in minutes (0 when unknown).
func (c *Client) EpisodeRuntime(ctx context.Context, showID int64, season, episode int) (int, error) {
	path := fmt.Sprintf("/tv/%d/season/%d/episode/%d", showID, season, episode)
	data, err := c.get(ctx, "tv_episode", path, nil, detailTTL)
	if err != nil {
		return 0, err
	}
	resp, err := decode[runtimeResponse](data, "tv_episode")
	return resp.Runtime, err
}
