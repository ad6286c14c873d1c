// Package recommend merges genre discovery and actor credits into a single
// bounded recommendation result.
package recommend

import (
	"context"

	"github.com/sourcegraph/conc"

	"github.com/voyagen/wolfflix/internal/logging"
	"github.com/voyagen/wolfflix/internal/models"
)

const (
	// PerSource is how many items each lookup contributes.
	PerSource = 5
	// MaxResults caps each merged list.
	MaxResults = 10
)

// Catalog is the subset of the metadata provider used for recommendations.
type Catalog interface {
	Discover(ctx context.Context, kind string, genreIDs []int) ([]models.CatalogItem, error)
	PersonCredits(ctx context.Context, personID int64, kind string) ([]models.CatalogItem, error)
}

// Result holds the merged movie and TV lists.
type Result struct {
	Movies  []models.CatalogItem `json:"movies"`
	TVShows []models.CatalogItem `json:"tv_shows"`
}

// Empty reports whether both lists are empty.
func (r Result) Empty() bool {
	return len(r.Movies) == 0 && len(r.TVShows) == 0
}

// Aggregator issues the catalog lookups for a resolved request.
type Aggregator struct {
	catalog Catalog
}

// New returns an Aggregator backed by catalog.
func New(catalog Catalog) *Aggregator {
	return &Aggregator{catalog: catalog}
}

// Aggregate runs discovery for genreIDs and credit lookups for actorID (0
// means none) concurrently and returns the merged result. Failed lookups
// are logged and count as empty.
func (a *Aggregator) Aggregate(ctx context.Context, genreIDs []int, actorID int64) Result {
	if len(genreIDs) == 0 && actorID == 0 {
		return Result{}
	}

	var genreMovies, genreTV, actorMovies, actorTV []models.CatalogItem
	var wg conc.WaitGroup
	if len(genreIDs) > 0 {
		wg.Go(func() {
			genreMovies = a.lookup(ctx, "discover", models.KindMovie, func() ([]models.CatalogItem, error) {
				return a.catalog.Discover(ctx, models.KindMovie, genreIDs)
			})
		})
		wg.Go(func() {
			genreTV = a.lookup(ctx, "discover", models.KindTV, func() ([]models.CatalogItem, error) {
				return a.catalog.Discover(ctx, models.KindTV, genreIDs)
			})
		})
	}
	if actorID != 0 {
		wg.Go(func() {
			actorMovies = a.lookup(ctx, "credits", models.KindMovie, func() ([]models.CatalogItem, error) {
				return a.catalog.PersonCredits(ctx, actorID, models.KindMovie)
			})
		})
		wg.Go(func() {
			actorTV = a.lookup(ctx, "credits", models.KindTV, func() ([]models.CatalogItem, error) {
				return a.catalog.PersonCredits(ctx, actorID, models.KindTV)
			})
		})
	}
	wg.Wait()

	return Result{
		Movies:  Cap(Dedupe(concat(genreMovies, actorMovies)), MaxResults),
		TVShows: Cap(Dedupe(concat(genreTV, actorTV)), MaxResults),
	}
}

func (a *Aggregator) lookup(ctx context.Context, source, kind string, fn func() ([]models.CatalogItem, error)) []models.CatalogItem {
	items, err := fn()
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("source", source).Str("kind", kind).Msg("recommendation lookup failed")
		return nil
	}
	return Cap(items, PerSource)
}

// Dedupe drops items whose id was already seen, keeping first occurrences
// in their original order.
func Dedupe(items []models.CatalogItem) []models.CatalogItem {
	seen := make(map[int64]struct{}, len(items))
	out := make([]models.CatalogItem, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.ID]; ok {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out
}

// Cap returns at most the first n items.
func Cap(items []models.CatalogItem, n int) []models.CatalogItem {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func concat(a, b []models.CatalogItem) []models.CatalogItem {
	out := make([]models.CatalogItem, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
