package catalog

import (
	"net/url"
	"strconv"

	"github.com/voyagen/wolfflix/internal/models"
)

// Category is one row of the home page.
type Category struct {
	Name   string
	Path   string     // provider path, empty for special rows
	Params url.Values // extra query parameters
	Kind   string     // applied to entries without a media_type
	Recent bool       // the profile's recently-viewed list
	Live   bool       // today's live matches
}

func listRow(name, path, kind string) Category {
	params := url.Values{}
	params.Set("language", "en-US")
	params.Set("page", "1")
	return Category{Name: name, Path: path, Params: params, Kind: kind}
}

func genreRow(name, kind string, genreID int) Category {
	params := url.Values{}
	params.Set("with_genres", strconv.Itoa(genreID))
	return Category{Name: name, Path: "/discover/" + kind, Params: params, Kind: kind}
}

// Categories lists the home page rows in display order. TV rows use the
// provider's combined TV genres where the movie genre has no TV
// counterpart.
var Categories = []Category{
	{Name: "Recently Viewed", Recent: true},
	{Name: "Trending Movies", Path: "/trending/movie/week", Kind: models.KindMovie},
	{Name: "Trending TV Shows", Path: "/trending/tv/week", Kind: models.KindTV},
	listRow("Popular Movies", "/movie/popular", models.KindMovie),
	listRow("Popular TV Shows", "/tv/popular", models.KindTV),
	listRow("Top Rated Movies", "/movie/top_rated", models.KindMovie),
	listRow("Top Rated TV Shows", "/tv/top_rated", models.KindTV),
	genreRow("Action Movies", models.KindMovie, 28),
	genreRow("Action TV Shows", models.KindTV, 10759),
	genreRow("Adventure Movies", models.KindMovie, 12),
	genreRow("Adventure TV Shows", models.KindTV, 10759),
	genreRow("Animation Movies", models.KindMovie, 16),
	genreRow("Animation TV Shows", models.KindTV, 16),
	genreRow("Comedy Movies", models.KindMovie, 35),
	genreRow("Comedy TV Shows", models.KindTV, 35),
	genreRow("Crime Movies", models.KindMovie, 80),
	genreRow("Crime TV Shows", models.KindTV, 80),
	genreRow("Documentary Movies", models.KindMovie, 99),
	genreRow("Documentary TV Shows", models.KindTV, 99),
	genreRow("Drama Movies", models.KindMovie, 18),
	genreRow("Drama TV Shows", models.KindTV, 18),
	genreRow("Family Movies", models.KindMovie, 10751),
	genreRow("Family TV Shows", models.KindTV, 10751),
	genreRow("Fantasy Movies", models.KindMovie, 14),
	genreRow("Fantasy TV Shows", models.KindTV, 10765),
	genreRow("History Movies", models.KindMovie, 36),
	genreRow("History TV Shows", models.KindTV, 36),
	genreRow("Horror Movies", models.KindMovie, 27),
	genreRow("Music Movies", models.KindMovie, 10402),
	genreRow("Mystery Movies", models.KindMovie, 9648),
	genreRow("Mystery TV Shows", models.KindTV, 9648),
	genreRow("Romance Movies", models.KindMovie, 10749),
	genreRow("Romance TV Shows", models.KindTV, 10749),
	genreRow("Science Fiction Movies", models.KindMovie, 878),
	genreRow("Science Fiction TV Shows", models.KindTV, 10765),
	genreRow("Thriller Movies", models.KindMovie, 53),
	genreRow("War Movies", models.KindMovie, 10752),
	genreRow("Western Movies", models.KindMovie, 37),
	genreRow("Western TV Shows", models.KindTV, 37),
	{Name: "Live TV", Live: true},
}
