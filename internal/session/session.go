// Package session keeps per-profile player state: the episode being
// watched, the autoplay flag and timer, and the open live server
// selection.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/voyagen/wolfflix/internal/models"
	"github.com/voyagen/wolfflix/internal/player"
	"github.com/voyagen/wolfflix/internal/tmdb"
)

var (
	// ErrNoEpisode is returned by episode navigation when no show is playing.
	ErrNoEpisode = errors.New("no tv episode is playing")
	// ErrFirstEpisode is returned by PrevEpisode on episode 1.
	ErrFirstEpisode = errors.New("already at the first episode")
	// ErrNoSelection is returned when choosing a server with no match selected.
	ErrNoSelection = errors.New("no live match selected")
)

const (
	movieGrace   = 5 * time.Second
	episodeGrace = 10 * time.Second

	// Sessions untouched for idleTTL with no armed timer are dropped; the
	// check runs at most once per sweepInterval.
	idleTTL       = 24 * time.Hour
	sweepInterval = 10 * time.Minute
)

// Runtimes looks up running times in minutes.
type Runtimes interface {
	MovieRuntime(ctx context.Context, id int64) (int, error)
	EpisodeRuntime(ctx context.Context, showID int64, season, episode int) (int, error)
}

// Recorder records opened titles in the recently-viewed list.
type Recorder interface {
	PushRecent(ctx context.Context, profileID string, items ...models.ListItem) error
}

// Episode identifies the episode being watched.
type Episode struct {
	ShowID     int64  `json:"show_id"`
	Season     int    `json:"season"`
	Episode    int    `json:"episode"`
	ShowName   string `json:"show_name"`
	PosterPath string `json:"poster_path,omitempty"`
}

// Title is the recently-viewed title of the episode.
func (e Episode) Title() string {
	return fmt.Sprintf("%s (Season %d) (Episode %d)", e.ShowName, e.Season, e.Episode)
}

// Playback describes what the player overlay should open.
type Playback struct {
	URL      string   `json:"url"`
	Kind     string   `json:"kind"`
	ID       int64    `json:"id"`
	Title    string   `json:"title"`
	Episode  *Episode `json:"episode,omitempty"`
	Progress int      `json:"progress,omitempty"`
}

// State is a snapshot of a session.
type State struct {
	Playing       *Playback `json:"playing,omitempty"`
	Episode       *Episode  `json:"episode,omitempty"`
	Autoplay      bool      `json:"autoplay"`
	AutoplayArmed bool      `json:"autoplay_armed"`
	SelectedMatch string    `json:"selected_match,omitempty"`
}

// session is the per-profile context. All fields are guarded by mu.
type session struct {
	mu       sync.Mutex
	playing  *Playback
	episode  *Episode
	autoplay bool
	timer    *time.Timer
	gen      uint64 // bumped on every play or close; stale timers compare against it
	match    string

	touched time.Time // guarded by Manager.mu
}

func (s *session) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// Manager owns all sessions.
type Manager struct {
	runtimes Runtimes
	recorder Recorder
	after    func(time.Duration, func()) *time.Timer
	now      func() time.Time

	mu        sync.Mutex
	sessions  map[string]*session
	lastSweep time.Time
	pending   conc.WaitGroup
}

// NewManager returns a Manager.
func NewManager(runtimes Runtimes, recorder Recorder) *Manager {
	return &Manager{
		runtimes: runtimes,
		recorder: recorder,
		after:    time.AfterFunc,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

func (m *Manager) get(profileID string) *session {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if now.Sub(m.lastSweep) >= sweepInterval {
		m.sweep(now)
	}
	s, ok := m.sessions[profileID]
	if !ok {
		s = &session{autoplay: true}
		m.sessions[profileID] = s
	}
	s.touched = now
	return s
}

// sweep drops idle sessions. Sessions that are locked or have an armed
// timer are kept. Caller holds m.mu.
func (m *Manager) sweep(now time.Time) {
	m.lastSweep = now
	for id, s := range m.sessions {
		if now.Sub(s.touched) < idleTTL || !s.mu.TryLock() {
			continue
		}
		armed := s.timer != nil
		s.mu.Unlock()
		if !armed {
			delete(m.sessions, id)
		}
	}
}

// State returns a snapshot of the profile's session.
func (m *Manager) State(profileID string) State {
	m.mu.Lock()
	s, ok := m.sessions[profileID]
	m.mu.Unlock()
	if !ok {
		return State{Autoplay: true}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{Autoplay: s.autoplay, AutoplayArmed: s.timer != nil, SelectedMatch: s.match}
	if s.playing != nil {
		p := *s.playing
		st.Playing = &p
	}
	if s.episode != nil {
		e := *s.episode
		st.Episode = &e
	}
	return st
}

// PlayMovie opens a movie and records it as viewed.
func (m *Manager) PlayMovie(ctx context.Context, profileID string, id int64, title, posterPath string, progress int) (*Playback, error) {
	pb := &Playback{
		URL:      player.MovieURL(id, progress),
		Kind:     models.KindMovie,
		ID:       id,
		Title:    title,
		Progress: progress,
	}
	item := models.ListItem{ID: id, Title: title, Type: models.TypeMovie, Thumbnail: tmdb.ThumbnailURL(posterPath), Progress: progress}
	if err := m.recorder.PushRecent(ctx, profileID, item); err != nil {
		return nil, err
	}

	s := m.get(profileID)
	s.mu.Lock()
	s.episode = nil
	gen := m.open(s, pb)
	autoplay := s.autoplay
	s.mu.Unlock()

	if autoplay {
		m.schedule(ctx, profileID, gen, pb)
	}
	return pb, nil
}

// PlayEpisode opens an episode, makes it the current episode and records
// it as viewed.
func (m *Manager) PlayEpisode(ctx context.Context, profileID string, ep Episode, progress int) (*Playback, error) {
	if ep.ShowID <= 0 || ep.Season < 0 || ep.Episode < 1 {
		return nil, fmt.Errorf("invalid episode %d/%d/%d", ep.ShowID, ep.Season, ep.Episode)
	}
	return m.playEpisode(ctx, profileID, ep, progress)
}

// NextEpisode advances the current episode by one.
func (m *Manager) NextEpisode(ctx context.Context, profileID string) (*Playback, error) {
	return m.step(ctx, profileID, 1)
}

// PrevEpisode moves the current episode back by one.
func (m *Manager) PrevEpisode(ctx context.Context, profileID string) (*Playback, error) {
	return m.step(ctx, profileID, -1)
}

func (m *Manager) step(ctx context.Context, profileID string, delta int) (*Playback, error) {
	s := m.get(profileID)
	s.mu.Lock()
	if s.episode == nil {
		s.mu.Unlock()
		return nil, ErrNoEpisode
	}
	ep := *s.episode
	s.mu.Unlock()

	if delta < 0 && ep.Episode <= 1 {
		return nil, ErrFirstEpisode
	}
	ep.Episode += delta
	return m.playEpisode(ctx, profileID, ep, 0)
}

func (m *Manager) playEpisode(ctx context.Context, profileID string, ep Episode, progress int) (*Playback, error) {
	e := ep
	pb := &Playback{
		URL:      player.EpisodeURL(ep.ShowID, ep.Season, ep.Episode, progress),
		Kind:     models.KindTV,
		ID:       ep.ShowID,
		Title:    ep.Title(),
		Episode:  &e,
		Progress: progress,
	}
	season, episode := ep.Season, ep.Episode
	item := models.ListItem{
		ID:        ep.ShowID,
		Title:     ep.Title(),
		Type:      models.TypeTVShow,
		Thumbnail: tmdb.ThumbnailURL(ep.PosterPath),
		Season:    &season,
		Episode:   &episode,
		Progress:  progress,
	}
	if err := m.recorder.PushRecent(ctx, profileID, item); err != nil {
		return nil, err
	}

	s := m.get(profileID)
	s.mu.Lock()
	s.episode = &ep
	gen := m.open(s, pb)
	autoplay := s.autoplay
	s.mu.Unlock()

	if autoplay {
		m.schedule(ctx, profileID, gen, pb)
	}
	return pb, nil
}

// open makes pb the current playback and invalidates any armed timer.
// Caller holds s.mu.
func (m *Manager) open(s *session, pb *Playback) uint64 {
	s.stopTimer()
	s.gen++
	s.playing = pb
	return s.gen
}

// Close closes the player and disarms autoplay. The current episode is
// kept so navigation can resume.
func (m *Manager) Close(profileID string) {
	s := m.get(profileID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimer()
	s.gen++
	s.playing = nil
}

// SetAutoplay toggles autoplay. Turning it off disarms a pending timer.
func (m *Manager) SetAutoplay(profileID string, enabled bool) {
	s := m.get(profileID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoplay = enabled
	if !enabled {
		s.stopTimer()
	}
}

// SelectMatch opens the server selection for a live match, replacing any
// selection already open.
func (m *Manager) SelectMatch(profileID, matchID string) []string {
	s := m.get(profileID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.match = matchID
	return player.Servers
}

// ChooseServer returns the stream URL for the selected match on server and
// closes the selection.
func (m *Manager) ChooseServer(profileID, server string) (string, error) {
	s := m.get(profileID)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.match == "" {
		return "", ErrNoSelection
	}
	url, err := player.LiveURL(s.match, server)
	if err != nil {
		return "", err
	}
	s.match = ""
	return url, nil
}

// CloseSelection closes the server selection without opening a stream.
func (m *Manager) CloseSelection(profileID string) {
	s := m.get(profileID)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.match = ""
}

// Shutdown disarms every timer and waits for runtime lookups in flight.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	for _, s := range m.sessions {
		s.mu.Lock()
		s.stopTimer()
		s.gen++
		s.mu.Unlock()
	}
	m.mu.Unlock()
	m.pending.Wait()
}
