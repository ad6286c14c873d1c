package library

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/voyagen/wolfflix/internal/logging"
	"github.com/voyagen/wolfflix/internal/models"
	"github.com/voyagen/wolfflix/internal/store"
)

// Service applies list operations for a profile on top of a Store.
// Read-modify-write cycles on the same profile are serialized.
type Service struct {
	store       store.Store
	recentLimit int
	validate    *validator.Validate
	now         func() time.Time

	mu    sync.Mutex
	locks map[string]*profileLock
}

// profileLock is dropped from Service.locks once nobody holds or waits on it.
type profileLock struct {
	sync.Mutex
	refs int
}

// NewService returns a Service keeping at most recentLimit recently-viewed
// entries per profile.
func NewService(s store.Store, recentLimit int) *Service {
	if recentLimit <= 0 {
		recentLimit = models.DefaultRecentLimit
	}
	return &Service{
		store:       s,
		recentLimit: recentLimit,
		validate:    validator.New(),
		now:         time.Now,
		locks:       make(map[string]*profileLock),
	}
}

func (s *Service) lock(profileID string) func() {
	s.mu.Lock()
	l, ok := s.locks[profileID]
	if !ok {
		l = &profileLock{}
		s.locks[profileID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		s.mu.Lock()
		if l.refs--; l.refs == 0 {
			delete(s.locks, profileID)
		}
		s.mu.Unlock()
	}
}

// Recent returns the profile's recently-viewed list, most recent first.
func (s *Service) Recent(ctx context.Context, profileID string) ([]models.ListItem, error) {
	return s.store.Items(ctx, profileID, store.ListRecent)
}

// Watchlist returns the profile's watchlist in insertion order.
func (s *Service) Watchlist(ctx context.Context, profileID string) ([]models.ListItem, error) {
	return s.store.Items(ctx, profileID, store.ListWatchlist)
}

// PushRecent records items as viewed, in order, so the last one ends up
// at the front.
func (s *Service) PushRecent(ctx context.Context, profileID string, items ...models.ListItem) error {
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		if err := s.prepare(&items[i]); err != nil {
			return err
		}
	}

	defer s.lock(profileID)()
	list, err := s.store.Items(ctx, profileID, store.ListRecent)
	if err != nil {
		return fmt.Errorf("PushRecent: %w", err)
	}
	for _, it := range items {
		list = PushRecent(list, it, s.recentLimit)
	}
	if err := s.store.ReplaceItems(ctx, profileID, store.ListRecent, list); err != nil {
		return fmt.Errorf("PushRecent: %w", err)
	}
	logging.Ctx(ctx).Debug().Int("pushed", len(items)).Int("size", len(list)).Msg("recently viewed updated")
	return nil
}

// AddWatchlist adds item unless it is already listed and returns the
// message shown to the user.
func (s *Service) AddWatchlist(ctx context.Context, profileID string, item models.ListItem) (added bool, message string, err error) {
	if err := s.prepare(&item); err != nil {
		return false, "", err
	}

	defer s.lock(profileID)()
	list, err := s.store.Items(ctx, profileID, store.ListWatchlist)
	if err != nil {
		return false, "", fmt.Errorf("AddWatchlist: %w", err)
	}
	list, added = AddWatchlist(list, item)
	if !added {
		return false, fmt.Sprintf("%s is already in your watchlist.", item.Title), nil
	}
	if err := s.store.ReplaceItems(ctx, profileID, store.ListWatchlist, list); err != nil {
		return false, "", fmt.Errorf("AddWatchlist: %w", err)
	}
	return true, fmt.Sprintf("%s has been added to your watchlist.", item.Title), nil
}

// RemoveWatchlist removes the entry for (id, type). Removing an absent
// entry is not an error.
func (s *Service) RemoveWatchlist(ctx context.Context, profileID string, id int64, itemType string) (bool, error) {
	defer s.lock(profileID)()
	list, err := s.store.Items(ctx, profileID, store.ListWatchlist)
	if err != nil {
		return false, fmt.Errorf("RemoveWatchlist: %w", err)
	}
	list, removed := RemoveWatchlist(list, id, itemType)
	if !removed {
		return false, nil
	}
	if err := s.store.ReplaceItems(ctx, profileID, store.ListWatchlist, list); err != nil {
		return false, fmt.Errorf("RemoveWatchlist: %w", err)
	}
	return true, nil
}

// ValidationError wraps a rejected list item.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return "invalid item: " + e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

func (s *Service) prepare(item *models.ListItem) error {
	if err := s.validate.Struct(item); err != nil {
		return &ValidationError{Err: err}
	}
	if item.AddedAt.IsZero() {
		item.AddedAt = s.now()
	}
	return nil
}

// FromCatalog builds a list entry for a provider item, using the w200
// poster as thumbnail.
func FromCatalog(it models.CatalogItem, thumbnail string) models.ListItem {
	return models.ListItem{
		ID:        it.ID,
		Title:     it.Title,
		Type:      models.TypeForKind(it.MediaType),
		Thumbnail: thumbnail,
	}
}
