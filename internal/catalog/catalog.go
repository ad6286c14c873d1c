// Package catalog serves the browsing side of the app: home page rows,
// search, per-title recommendations and TV season listings.
package catalog

import (
	"context"
	"net/url"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"github.com/voyagen/wolfflix/internal/library"
	"github.com/voyagen/wolfflix/internal/live"
	"github.com/voyagen/wolfflix/internal/logging"
	"github.com/voyagen/wolfflix/internal/models"
	"github.com/voyagen/wolfflix/internal/recommend"
)

const (
	searchLimit          = 5
	recommendationsLimit = 10
	defaultConcurrency   = 6
)

// Provider is the subset of the metadata client used for browsing.
type Provider interface {
	List(ctx context.Context, path string, params url.Values, kind string) ([]models.CatalogItem, error)
	SearchMulti(ctx context.Context, query string) ([]models.CatalogItem, error)
	Recommendations(ctx context.Context, kind string, id int64) ([]models.CatalogItem, error)
	Show(ctx context.Context, id int64) (*models.Show, error)
	Episodes(ctx context.Context, showID int64, season int) ([]models.Episode, error)
}

// LiveSource lists today's live matches.
type LiveSource interface {
	Matches(ctx context.Context) ([]live.Match, error)
}

// Indexer records items surfaced by rows.
type Indexer interface {
	Index(ctx context.Context, reason string, items []models.CatalogItem) error
}

// Row is a rendered home page row. Exactly one of Items, Recent or
// Matches is populated, depending on the category.
type Row struct {
	Name    string               `json:"name"`
	Kind    string               `json:"kind,omitempty"`
	Items   []models.CatalogItem `json:"items,omitempty"`
	Recent  []models.ListItem    `json:"recent,omitempty"`
	Matches []live.Match         `json:"matches,omitempty"`
	Live    bool                 `json:"live,omitempty"`
	Error   string               `json:"error,omitempty"`
}

// Service implements the browsing operations.
type Service struct {
	provider    Provider
	library     *library.Service
	live        LiveSource
	indexer     Indexer
	categories  []Category
	concurrency int
}

// Options configures a Service. Live and Indexer may be nil.
type Options struct {
	Live        LiveSource
	Indexer     Indexer
	Categories  []Category
	Concurrency int
}

// New returns a Service.
func New(p Provider, lib *library.Service, opts Options) *Service {
	if opts.Categories == nil {
		opts.Categories = Categories
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	return &Service{
		provider:    p,
		library:     lib,
		live:        opts.Live,
		indexer:     opts.Indexer,
		categories:  opts.Categories,
		concurrency: opts.Concurrency,
	}
}

// Rows fetches every home page row for profileID. Rows are fetched with
// bounded concurrency; a failing row is returned empty with its error.
func (s *Service) Rows(ctx context.Context, profileID string) []Row {
	rows := make([]Row, len(s.categories))
	p := pool.New().WithMaxGoroutines(s.concurrency)
	for i, cat := range s.categories {
		p.Go(func() {
			rows[i] = s.row(ctx, profileID, cat)
		})
	}
	p.Wait()

	if s.indexer != nil {
		var seen []models.CatalogItem
		for _, r := range rows {
			seen = append(seen, r.Items...)
		}
		if err := s.indexer.Index(ctx, "categories", seen); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("index category items")
		}
	}
	return rows
}

func (s *Service) row(ctx context.Context, profileID string, cat Category) Row {
	row := Row{Name: cat.Name, Kind: cat.Kind, Live: cat.Live}
	var err error
	switch {
	case cat.Recent:
		row.Recent, err = s.library.Recent(ctx, profileID)
	case cat.Live:
		if s.live == nil {
			return row
		}
		row.Matches, err = s.live.Matches(ctx)
	default:
		row.Items, err = s.provider.List(ctx, cat.Path, cat.Params, cat.Kind)
	}
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("category", cat.Name).Msg("load category")
		row.Error = err.Error()
	}
	return row
}

// Search returns the first matching movies and shows for query.
func (s *Service) Search(ctx context.Context, query string) ([]models.CatalogItem, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	items, err := s.provider.SearchMulti(ctx, query)
	if err != nil {
		return nil, err
	}
	return recommend.Cap(items, searchLimit), nil
}

// Recommendations returns titles related to kind/id, as shown under the
// player.
func (s *Service) Recommendations(ctx context.Context, kind string, id int64) ([]models.CatalogItem, error) {
	items, err := s.provider.Recommendations(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	return recommend.Cap(items, recommendationsLimit), nil
}

// Show returns a show and its seasons.
func (s *Service) Show(ctx context.Context, id int64) (*models.Show, error) {
	return s.provider.Show(ctx, id)
}

// Episodes returns the episodes of one season.
func (s *Service) Episodes(ctx context.Context, showID int64, season int) ([]models.Episode, error) {
	return s.provider.Episodes(ctx, showID, season)
}
