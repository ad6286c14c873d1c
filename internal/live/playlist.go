package live

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/voyagen/wolfflix/internal/player"
)

// WritePlaylist writes matches as an extended M3U playlist whose entries
// point at server. Matches without an id are skipped.
func WritePlaylist(w io.Writer, matches []Match, server string) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "#EXTM3U")
	for _, m := range matches {
		if m.ID == "" {
			continue
		}
		url, err := player.LiveURL(m.ID, server)
		if err != nil {
			return err
		}
		fmt.Fprintf(bw, "#EXTINF:-1 tvg-id=\"%s\"", attr(m.ID))
		if m.Poster != "" {
			fmt.Fprintf(bw, " tvg-logo=\"%s\"", attr(m.Poster))
		}
		if m.Category != "" {
			fmt.Fprintf(bw, " group-title=\"%s\"", attr(m.Category))
		}
		fmt.Fprintf(bw, ",%s\n%s\n", line(m.DisplayTitle()), url)
	}
	return bw.Flush()
}

func attr(s string) string {
	return strings.ReplaceAll(line(s), `"`, "'")
}

func line(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
