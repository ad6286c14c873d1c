package store

import (
	"context"
	"errors"

	"github.com/voyagen/wolfflix/internal/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// List names a per-profile item list.
type List string

const (
	ListRecent    List = "recent"
	ListWatchlist List = "watchlist"
)

// Store defines persistence for per-profile lists, chat transcripts and the
// catalog index.
type Store interface {
	// Items returns a profile's list, front first.
	Items(ctx context.Context, profileID string, list List) ([]models.ListItem, error)
	// ReplaceItems overwrites a profile's list with items in order.
	ReplaceItems(ctx context.Context, profileID string, list List, items []models.ListItem) error

	// AppendMessage adds a line to a profile's chat transcript.
	AppendMessage(ctx context.Context, profileID string, msg models.ChatMessage) error
	// Messages returns the last limit transcript lines, oldest first.
	Messages(ctx context.Context, profileID string, limit int) ([]models.ChatMessage, error)

	// UpsertCatalogItems records items seen in category rows; returns the
	// number of rows written.
	UpsertCatalogItems(ctx context.Context, items []models.CatalogItem) (int, error)
	// CatalogItem returns a single indexed item.
	CatalogItem(ctx context.Context, kind string, id int64) (*models.CatalogItem, error)
	// ItemsWithoutEmbeddings returns up to limit indexed items that have no vector.
	ItemsWithoutEmbeddings(ctx context.Context, limit int) ([]models.CatalogItem, error)
	// StoreEmbeddings saves one vector per item key ("<kind>:<id>").
	StoreEmbeddings(ctx context.Context, keys []string, embeddings [][]float32) error
	// SemanticSearch returns the items nearest to queryVec by cosine distance.
	SemanticSearch(ctx context.Context, queryVec []float32, filter SemanticFilter) ([]models.SemanticHit, error)
	// IndexStats reports how many items are indexed and how many have vectors.
	IndexStats(ctx context.Context) (IndexStats, error)
}

// SemanticFilter narrows a semantic search.
type SemanticFilter struct {
	Kind  string // "", movie or tv
	Limit int    // default 10, max 50
}

// Normalize applies the default and maximum limit.
func (f SemanticFilter) Normalize() SemanticFilter {
	if f.Limit <= 0 {
		f.Limit = 10
	}
	if f.Limit > 50 {
		f.Limit = 50
	}
	return f
}

// IndexStats summarizes the catalog index.
type IndexStats struct {
	Items    int `json:"items"`
	Embedded int `json:"embedded"`
}
