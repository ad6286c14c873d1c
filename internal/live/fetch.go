// Package live lists today's live matches from the stream provider and
// exports them as an M3U playlist.
package live

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/voyagen/wolfflix/internal/busy"
	"github.com/voyagen/wolfflix/internal/cache"
	"github.com/voyagen/wolfflix/internal/logging"
)

// DefaultMatchesURL lists all of today's matches.
const DefaultMatchesURL = "https://streamed.su/api/matches/all-today"

const matchesTTL = time.Minute

// Fetcher retrieves the live match list.
type Fetcher struct {
	url       string
	userAgent string
	client    *http.Client
	cache     *cache.Redis
	busy      *busy.Tracker
}

// NewFetcher returns a Fetcher. url defaults to DefaultMatchesURL; cache
// and tracker may be nil.
func NewFetcher(url, userAgent string, timeout time.Duration, c *cache.Redis, tracker *busy.Tracker) *Fetcher {
	if url == "" {
		url = DefaultMatchesURL
	}
	if tracker == nil {
		tracker = busy.Default
	}
	return &Fetcher{
		url:       url,
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
		cache:     c,
		busy:      tracker,
	}
}

// Matches fetches today's matches. Responses are cached briefly when a
// cache is configured.
func (f *Fetcher) Matches(ctx context.Context) ([]Match, error) {
	key := "live:" + f.url
	if f.cache != nil {
		if raw, ok := f.cache.GetBytes(ctx, "live", key); ok {
			if matches, err := decodeMatches(raw); err == nil {
				return matches, nil
			}
		}
	}

	done := f.busy.Begin()
	defer done()

	body, err := f.get(ctx)
	if err != nil {
		return nil, err
	}
	matches, err := decodeMatches(body)
	if err != nil {
		return nil, err
	}
	if f.cache != nil {
		if err := f.cache.SetBytes(ctx, key, body, matchesTTL); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("cache live matches")
		}
	}
	return matches, nil
}

func (f *Fetcher) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("NewRequest: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("live matches: HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ReadAll: %w", err)
	}
	return body, nil
}

func decodeMatches(data []byte) ([]Match, error) {
	var matches []Match
	if err := json.Unmarshal(data, &matches); err != nil {
		return nil, fmt.Errorf("decode live matches: %w", err)
	}
	return matches, nil
}
