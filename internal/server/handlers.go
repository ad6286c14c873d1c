package server

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/voyagen/wolfflix/internal/live"
	"github.com/voyagen/wolfflix/internal/logging"
	"github.com/voyagen/wolfflix/internal/models"
	"github.com/voyagen/wolfflix/internal/player"
	"github.com/voyagen/wolfflix/internal/service"
	"github.com/voyagen/wolfflix/internal/store"
)

const (
	defaultTranscriptLimit = 100
	healthTimeout          = 2 * time.Second
)

func profileID(r *http.Request) string {
	return logging.ProfileID(r.Context())
}

// handleHealth pings every configured backing service.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if len(s.deps.Checks) == 0 {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	status, code := "ok", http.StatusOK
	checks := make(map[string]string, len(s.deps.Checks))
	for name, p := range s.deps.Checks {
		if err := p.Ping(ctx); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("check", name).Msg("health check failed")
			checks[name] = err.Error()
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	writeJSON(w, code, map[string]any{"status": status, "checks": checks})
}

// handleStatus backs the loading indicator: busy stays true while any
// provider lookup is outstanding.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"busy":      s.deps.Busy.Busy(),
		"in_flight": s.deps.Busy.InFlight(),
		"semantic":  false,
	}
	if s.deps.Indexer != nil {
		resp["semantic"] = s.deps.Indexer.SemanticEnabled()
		if stats, err := s.deps.Indexer.Stats(r.Context()); err == nil {
			resp["index"] = stats
		} else {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("index stats")
		}
		if backlog, err := s.deps.Indexer.Backlog(r.Context()); err == nil {
			resp["embedding_backlog"] = backlog
		} else {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("embedding backlog")
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- catalog handlers ---

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"rows": s.deps.Catalog.Rows(r.Context(), profileID(r)),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeErr(w, r, http.StatusBadRequest, fmt.Errorf("q parameter is required"))
		return
	}
	items, err := s.deps.Catalog.Search(r.Context(), q)
	if err != nil {
		fail(w, r, err)
		return
	}
	if items == nil {
		items = []models.CatalogItem{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": items})
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	if kind != models.KindMovie && kind != models.KindTV {
		writeErr(w, r, http.StatusBadRequest, fmt.Errorf("invalid kind: %s (use movie or tv)", kind))
		return
	}
	id, err := parseID(r, "id")
	if err != nil {
		writeErr(w, r, http.StatusBadRequest, err)
		return
	}
	items, err := s.deps.Catalog.Recommendations(r.Context(), kind, id)
	if err != nil {
		fail(w, r, err)
		return
	}
	if items == nil {
		items = []models.CatalogItem{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": items})
}

func (s *Server) handleSeasons(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeErr(w, r, http.StatusBadRequest, err)
		return
	}
	show, err := s.deps.Catalog.Show(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, show)
}

func (s *Server) handleEpisodes(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		writeErr(w, r, http.StatusBadRequest, err)
		return
	}
	season, err := strconv.Atoi(chi.URLParam(r, "season"))
	if err != nil || season < 0 {
		writeErr(w, r, http.StatusBadRequest, fmt.Errorf("invalid season: %s", chi.URLParam(r, "season")))
		return
	}
	episodes, err := s.deps.Catalog.Episodes(r.Context(), id, season)
	if err != nil {
		fail(w, r, err)
		return
	}
	if episodes == nil {
		episodes = []models.Episode{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"show_id": id, "season": season, "episodes": episodes})
}

func (s *Server) handleSemantic(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("q"))
	if query == "" {
		writeErr(w, r, http.StatusBadRequest, fmt.Errorf("q parameter is required"))
		return
	}
	filter := store.SemanticFilter{Kind: q.Get("kind")}
	if filter.Kind != "" && filter.Kind != models.KindMovie && filter.Kind != models.KindTV {
		writeErr(w, r, http.StatusBadRequest, fmt.Errorf("invalid kind: %s (use movie or tv)", filter.Kind))
		return
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeErr(w, r, http.StatusBadRequest, fmt.Errorf("invalid limit: %s", v))
			return
		}
		filter.Limit = n
	}
	filter = filter.Normalize()

	if s.deps.Indexer == nil {
		fail(w, r, service.ErrSemanticDisabled)
		return
	}
	hits, err := s.deps.Indexer.Semantic(r.Context(), query, filter)
	if err != nil {
		fail(w, r, err)
		return
	}
	if hits == nil {
		hits = []models.SemanticHit{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": hits, "limit": filter.Limit})
}

// handlePlaylist exports today's live matches as an M3U playlist on one
// server, for external players.
func (s *Server) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	if s.deps.Live == nil {
		writeErr(w, r, http.StatusServiceUnavailable, fmt.Errorf("live tv is not configured"))
		return
	}
	server := r.URL.Query().Get("server")
	if server == "" {
		server = player.Servers[0]
	}
	if _, ok := player.LookupServer(server); !ok {
		writeErr(w, r, http.StatusBadRequest, fmt.Errorf("unknown server: %s", server))
		return
	}
	matches, err := s.deps.Live.Matches(r.Context())
	if err != nil {
		writeErr(w, r, http.StatusBadGateway, err)
		return
	}
	var buf bytes.Buffer
	if err := live.WritePlaylist(&buf, matches, server); err != nil {
		writeErr(w, r, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "audio/x-mpegurl")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, &buf)
}

// --- list handlers ---

func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Library.Watchlist(r.Context(), profileID(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeList(w, items)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Library.Recent(r.Context(), profileID(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeList(w, items)
}

func writeList(w http.ResponseWriter, items []models.ListItem) {
	if items == nil {
		items = []models.ListItem{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleAddWatchlist(w http.ResponseWriter, r *http.Request) {
	var item models.ListItem
	if err := decodeBody(w, r, &item); err != nil {
		writeErr(w, r, http.StatusBadRequest, err)
		return
	}
	added, msg, err := s.deps.Library.AddWatchlist(r.Context(), profileID(r), item)
	if err != nil {
		fail(w, r, err)
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{"added": added, "message": msg})
}

func (s *Server) handleRemoveWatchlist(w http.ResponseWriter, r *http.Request) {
	itemType := chi.URLParam(r, "type")
	if itemType != models.TypeMovie && itemType != models.TypeTVShow {
		writeErr(w, r, http.StatusBadRequest, fmt.Errorf("invalid type: %s (use movie or tv_show)", itemType))
		return
	}
	id, err := parseID(r, "id")
	if err != nil {
		writeErr(w, r, http.StatusBadRequest, err)
		return
	}
	removed, err := s.deps.Library.RemoveWatchlist(r.Context(), profileID(r), id, itemType)
	if err != nil {
		fail(w, r, err)
		return
	}
	if !removed {
		writeErr(w, r, http.StatusNotFound, fmt.Errorf("%s not in watchlist", models.ItemKey(itemType, id)))
		return
	}
	writeNoContent(w)
}

// --- chat and action handlers ---

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	limit := defaultTranscriptLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeErr(w, r, http.StatusBadRequest, fmt.Errorf("invalid limit: %s", v))
			return
		}
		limit = n
	}
	msgs, err := s.deps.Bot.Transcript(r.Context(), profileID(r), limit)
	if err != nil {
		fail(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []models.ChatMessage{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

type chatRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeErr(w, r, http.StatusBadRequest, err)
		return
	}
	out, err := s.deps.Bot.Handle(r.Context(), profileID(r), req.Text)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListActions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"actions": s.deps.Actions.Actions()})
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeErr(w, r, http.StatusBadRequest, fmt.Errorf("read body: %w", err))
		return
	}
	res, err := s.deps.Actions.Dispatch(r.Context(), chi.URLParam(r, "action"), profileID(r), payload)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
