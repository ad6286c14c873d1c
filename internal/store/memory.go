package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/voyagen/wolfflix/internal/models"
)

// Memory implements Store in process memory. It is used when no database
// is configured and in tests.
type Memory struct {
	mu       sync.RWMutex
	lists    map[string][]models.ListItem
	messages map[string][]models.ChatMessage
	items    map[string]models.CatalogItem
	order    []string
	vectors  map[string][]float32
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		lists:    make(map[string][]models.ListItem),
		messages: make(map[string][]models.ChatMessage),
		items:    make(map[string]models.CatalogItem),
		vectors:  make(map[string][]float32),
	}
}

func listKey(profileID string, list List) string {
	return profileID + "/" + string(list)
}

func (m *Memory) Items(_ context.Context, profileID string, list List) ([]models.ListItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.ListItem(nil), m.lists[listKey(profileID, list)]...), nil
}

func (m *Memory) ReplaceItems(_ context.Context, profileID string, list List, items []models.ListItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists[listKey(profileID, list)] = append([]models.ListItem(nil), items...)
	return nil
}

func (m *Memory) AppendMessage(_ context.Context, profileID string, msg models.ChatMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := m.messages[profileID]
	msg.ID = int64(len(msgs) + 1)
	m.messages[profileID] = append(msgs, msg)
	return nil
}

func (m *Memory) Messages(_ context.Context, profileID string, limit int) ([]models.ChatMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := m.messages[profileID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return append([]models.ChatMessage(nil), msgs...), nil
}

func (m *Memory) UpsertCatalogItems(_ context.Context, items []models.CatalogItem) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, it := range items {
		key := it.Key()
		prev, exists := m.items[key]
		if !exists {
			m.order = append(m.order, key)
		} else if prev.Overview != it.Overview || prev.Title != it.Title {
			// Text changed, so the stored vector no longer describes it.
			delete(m.vectors, key)
		}
		m.items[key] = it
	}
	return len(items), nil
}

func (m *Memory) CatalogItem(_ context.Context, kind string, id int64) (*models.CatalogItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.items[models.ItemKey(kind, id)]
	if !ok {
		return nil, ErrNotFound
	}
	return &it, nil
}

func (m *Memory) ItemsWithoutEmbeddings(_ context.Context, limit int) ([]models.CatalogItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.CatalogItem
	for _, key := range m.order {
		if _, ok := m.vectors[key]; ok {
			continue
		}
		out = append(out, m.items[key])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *Memory) StoreEmbeddings(_ context.Context, keys []string, embeddings [][]float32) error {
	if len(keys) != len(embeddings) {
		return fmt.Errorf("StoreEmbeddings: %d keys but %d embeddings", len(keys), len(embeddings))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, key := range keys {
		if _, ok := m.items[key]; !ok {
			continue
		}
		m.vectors[key] = embeddings[i]
	}
	return nil
}

func (m *Memory) SemanticSearch(_ context.Context, queryVec []float32, filter SemanticFilter) ([]models.SemanticHit, error) {
	filter = filter.Normalize()
	m.mu.RLock()
	defer m.mu.RUnlock()
	var hits []models.SemanticHit
	for key, vec := range m.vectors {
		it := m.items[key]
		if filter.Kind != "" && it.MediaType != filter.Kind {
			continue
		}
		hits = append(hits, models.SemanticHit{CatalogItem: it, Distance: cosineDistance(queryVec, vec)})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].Key() < hits[j].Key()
	})
	if len(hits) > filter.Limit {
		hits = hits[:filter.Limit]
	}
	return hits, nil
}

func (m *Memory) IndexStats(_ context.Context) (IndexStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return IndexStats{Items: len(m.items), Embedded: len(m.vectors)}, nil
}

// cosineDistance matches pgvector's <=> operator.
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
