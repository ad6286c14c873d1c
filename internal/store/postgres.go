package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/voyagen/wolfflix/internal/models"
)

// Postgres implements Store using PostgreSQL with the pgvector extension.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres store from a DSN. Caller must call Close when done.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close closes the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// Ping checks the database connection.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Items(ctx context.Context, profileID string, list List) ([]models.ListItem, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT item_id, title, item_type, thumbnail, season, episode, progress, added_at
		 FROM list_items WHERE profile_id = $1 AND list = $2
		 ORDER BY position`,
		profileID, string(list),
	)
	if err != nil {
		return nil, fmt.Errorf("Items: %w", err)
	}
	defer rows.Close()

	var out []models.ListItem
	for rows.Next() {
		var it models.ListItem
		if err := rows.Scan(&it.ID, &it.Title, &it.Type, &it.Thumbnail, &it.Season, &it.Episode, &it.Progress, &it.AddedAt); err != nil {
			return nil, fmt.Errorf("Items scan: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// ReplaceItems rewrites the list inside one transaction so readers never
// see a partial list.
func (p *Postgres) ReplaceItems(ctx context.Context, profileID string, list List, items []models.ListItem) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ReplaceItems begin: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM list_items WHERE profile_id = $1 AND list = $2`, profileID, string(list)); err != nil {
		return fmt.Errorf("ReplaceItems delete: %w", err)
	}
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"list_items"},
		[]string{"profile_id", "list", "position", "item_id", "item_type", "title", "thumbnail", "season", "episode", "progress", "added_at"},
		pgx.CopyFromSlice(len(items), func(i int) ([]any, error) {
			it := items[i]
			return []any{profileID, string(list), i, it.ID, it.Type, it.Title, it.Thumbnail, it.Season, it.Episode, it.Progress, it.AddedAt}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("ReplaceItems copy: %w", err)
	}
	return tx.Commit(ctx)
}

func (p *Postgres) AppendMessage(ctx context.Context, profileID string, msg models.ChatMessage) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO chat_messages (profile_id, text, is_bot, sent_at) VALUES ($1, $2, $3, $4)`,
		profileID, msg.Text, msg.IsBot, msg.SentAt,
	)
	if err != nil {
		return fmt.Errorf("AppendMessage: %w", err)
	}
	return nil
}

func (p *Postgres) Messages(ctx context.Context, profileID string, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := p.pool.Query(ctx,
		`SELECT id, text, is_bot, sent_at FROM (
		   SELECT id, text, is_bot, sent_at FROM chat_messages
		   WHERE profile_id = $1 ORDER BY id DESC LIMIT $2
		 ) recent ORDER BY id`,
		profileID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("Messages: %w", err)
	}
	defer rows.Close()

	var out []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		if err := rows.Scan(&m.ID, &m.Text, &m.IsBot, &m.SentAt); err != nil {
			return nil, fmt.Errorf("Messages scan: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// UpsertCatalogItems inserts or refreshes indexed items. A changed title or
// overview clears the stored embedding so the worker recomputes it.
func (p *Postgres) UpsertCatalogItems(ctx context.Context, items []models.CatalogItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(
			`INSERT INTO catalog_items (media_type, id, title, release_date, poster_path, overview, popularity, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
			 ON CONFLICT (media_type, id) DO UPDATE SET
			   title = EXCLUDED.title, release_date = EXCLUDED.release_date,
			   poster_path = EXCLUDED.poster_path, overview = EXCLUDED.overview,
			   popularity = EXCLUDED.popularity, updated_at = NOW(),
			   embedding = CASE
			     WHEN catalog_items.title = EXCLUDED.title AND catalog_items.overview = EXCLUDED.overview
			     THEN catalog_items.embedding END`,
			it.MediaType, it.ID, it.Title, it.ReleaseDate, it.PosterPath, it.Overview, it.Popularity,
		)
	}
	br := p.pool.SendBatch(ctx, batch)
	defer br.Close()
	n := 0
	for range items {
		tag, err := br.Exec()
		if err != nil {
			return n, fmt.Errorf("UpsertCatalogItems: %w", err)
		}
		n += int(tag.RowsAffected())
	}
	return n, nil
}

func (p *Postgres) CatalogItem(ctx context.Context, kind string, id int64) (*models.CatalogItem, error) {
	var it models.CatalogItem
	err := p.pool.QueryRow(ctx,
		`SELECT media_type, id, title, release_date, poster_path, overview, popularity
		 FROM catalog_items WHERE media_type = $1 AND id = $2`,
		kind, id,
	).Scan(&it.MediaType, &it.ID, &it.Title, &it.ReleaseDate, &it.PosterPath, &it.Overview, &it.Popularity)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("CatalogItem: %w", err)
	}
	return &it, nil
}

func (p *Postgres) ItemsWithoutEmbeddings(ctx context.Context, limit int) ([]models.CatalogItem, error) {
	if limit <= 0 {
		limit = 128
	}
	rows, err := p.pool.Query(ctx,
		`SELECT media_type, id, title, release_date, poster_path, overview, popularity
		 FROM catalog_items WHERE embedding IS NULL
		 ORDER BY popularity DESC, id LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("ItemsWithoutEmbeddings: %w", err)
	}
	defer rows.Close()
	return scanCatalogItems(rows)
}

func (p *Postgres) StoreEmbeddings(ctx context.Context, keys []string, embeddings [][]float32) error {
	if len(keys) != len(embeddings) {
		return fmt.Errorf("StoreEmbeddings: %d keys but %d embeddings", len(keys), len(embeddings))
	}
	batch := &pgx.Batch{}
	for i, key := range keys {
		kind, id, err := splitKey(key)
		if err != nil {
			return fmt.Errorf("StoreEmbeddings: %w", err)
		}
		batch.Queue(`UPDATE catalog_items SET embedding = $1 WHERE media_type = $2 AND id = $3`,
			pgvector.NewVector(embeddings[i]), kind, id)
	}
	br := p.pool.SendBatch(ctx, batch)
	defer br.Close()
	for range keys {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("StoreEmbeddings: %w", err)
		}
	}
	return nil
}

func (p *Postgres) SemanticSearch(ctx context.Context, queryVec []float32, filter SemanticFilter) ([]models.SemanticHit, error) {
	filter = filter.Normalize()
	rows, err := p.pool.Query(ctx,
		`SELECT media_type, id, title, release_date, poster_path, overview, popularity,
		        embedding <=> $1 AS distance
		 FROM catalog_items
		 WHERE embedding IS NOT NULL AND ($2 = '' OR media_type = $2)
		 ORDER BY distance LIMIT $3`,
		pgvector.NewVector(queryVec), filter.Kind, filter.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("SemanticSearch: %w", err)
	}
	defer rows.Close()

	var out []models.SemanticHit
	for rows.Next() {
		var h models.SemanticHit
		if err := rows.Scan(&h.MediaType, &h.ID, &h.Title, &h.ReleaseDate, &h.PosterPath, &h.Overview, &h.Popularity, &h.Distance); err != nil {
			return nil, fmt.Errorf("SemanticSearch scan: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (p *Postgres) IndexStats(ctx context.Context) (IndexStats, error) {
	var s IndexStats
	err := p.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(embedding) FROM catalog_items`,
	).Scan(&s.Items, &s.Embedded)
	if err != nil {
		return s, fmt.Errorf("IndexStats: %w", err)
	}
	return s, nil
}

func scanCatalogItems(rows pgx.Rows) ([]models.CatalogItem, error) {
	var out []models.CatalogItem
	for rows.Next() {
		var it models.CatalogItem
		if err := rows.Scan(&it.MediaType, &it.ID, &it.Title, &it.ReleaseDate, &it.PosterPath, &it.Overview, &it.Popularity); err != nil {
			return nil, fmt.Errorf("scan catalog item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// splitKey parses "<kind>:<id>".
func splitKey(key string) (string, int64, error) {
	kind, raw, ok := strings.Cut(key, ":")
	if !ok {
		return "", 0, fmt.Errorf("malformed item key %q", key)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("malformed item key %q: %w", key, err)
	}
	return kind, id, nil
}
