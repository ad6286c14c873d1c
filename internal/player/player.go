// Package player builds the embed and stream URLs opened by the player
// overlay.
package player

import (
	"fmt"
	"strings"
)

const (
	embedBaseURL = "https://vidsrc.su/embed"
	liveBaseURL  = "https://streamed.su/watch"
)

// Servers lists the live stream mirrors in display order.
var Servers = []string{"Alpha", "Bravo", "Charlie", "Delta", "Echo", "Foxtrot"}

// MovieURL returns the embed URL for a movie, resuming at progress seconds
// when progress is positive.
func MovieURL(id int64, progress int) string {
	return withStart(fmt.Sprintf("%s/movie/%d", embedBaseURL, id), progress)
}

// EpisodeURL returns the embed URL for one episode of a show.
func EpisodeURL(showID int64, season, episode, progress int) string {
	return withStart(fmt.Sprintf("%s/tv/%d/%d/%d", embedBaseURL, showID, season, episode), progress)
}

// LiveURL returns the stream URL of a live match on server. The server name
// is matched case-insensitively against Servers.
func LiveURL(matchID, server string) (string, error) {
	name, ok := LookupServer(server)
	if !ok {
		return "", fmt.Errorf("unknown server %q", server)
	}
	if matchID == "" {
		return "", fmt.Errorf("match id is required")
	}
	return fmt.Sprintf("%s/%s/%s/1", liveBaseURL, matchID, strings.ToLower(name)), nil
}

// LookupServer returns the canonical server name.
func LookupServer(server string) (string, bool) {
	for _, s := range Servers {
		if strings.EqualFold(s, server) {
			return s, true
		}
	}
	return "", false
}

func withStart(url string, progress int) string {
	if progress > 0 {
		return fmt.Sprintf("%s?start=%d", url, progress)
	}
	return url
}
