// Package intent turns a free-text chat request into a structured
// recommendation request: recognized genres, an optional actor name and a
// media type hint.
package intent

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/voyagen/wolfflix/internal/logging"
)

// MediaHint narrows a request to movies, TV or both.
type MediaHint string

const (
	HintMovie MediaHint = "movie"
	HintTV    MediaHint = "tv"
	HintBoth  MediaHint = "both"
)

// Intent is the parsed form of one chat message.
type Intent struct {
	Genres       []string  `json:"genres"`                 // GenreTable names in table order
	Actor        string    `json:"actor,omitempty"`        // as typed by the user, trimmed
	MediaType    MediaHint `json:"media_type"`
	Unrecognized []string  `json:"unrecognized,omitempty"` // genre-slot words not in GenreTable
}

// Empty reports whether the intent names neither a genre nor an actor.
func (i Intent) Empty() bool {
	return len(i.Genres) == 0 && i.Actor == ""
}

// Resolution is an Intent with its genres and actor resolved to provider ids.
type Resolution struct {
	Intent   Intent `json:"intent"`
	GenreIDs []int  `json:"genre_ids"`
	ActorID  int64  `json:"actor_id,omitempty"`
}

// UnrecognizedGenreError reports genre words that have no provider id.
type UnrecognizedGenreError struct {
	Genres []string
}

func (e *UnrecognizedGenreError) Error() string {
	return fmt.Sprintf("unrecognized genre(s): %s", strings.Join(e.Genres, ", "))
}

// ActorNotFoundError reports an actor name the person search could not match.
type ActorNotFoundError struct {
	Name string
}

func (e *ActorNotFoundError) Error() string {
	return fmt.Sprintf("actor not found: %q", e.Name)
}

// PersonSearcher resolves a person's name to a provider id.
type PersonSearcher interface {
	SearchPerson(ctx context.Context, name string) (id int64, found bool, err error)
}

var (
	actorPattern = regexp.MustCompile(`(?i)(?:with|featuring|starring)\s+([a-z\s]+)`)
	// Words the user puts in a genre slot: "<word> movies", "<word> genre", "genre <word>".
	slotBefore = regexp.MustCompile(`\b([a-z]+)\s+(?:movies?|films?|shows?|series|genres?)\b`)
	slotAfter  = regexp.MustCompile(`\bgenres?\s+(?:of\s+)?([a-z]+)\b`)
)

// Resolver parses and resolves chat messages.
type Resolver struct {
	wordBoundary bool
	patterns     []*regexp.Regexp // parallel to GenreTable, nil in substring mode
}

// NewResolver returns a Resolver. With wordBoundary set, genre keywords
// must appear as whole words; otherwise any substring matches, so "war"
// also matches inside "warmth".
func NewResolver(wordBoundary bool) *Resolver {
	r := &Resolver{wordBoundary: wordBoundary}
	if wordBoundary {
		r.patterns = make([]*regexp.Regexp, len(GenreTable))
		for i, g := range GenreTable {
			r.patterns[i] = regexp.MustCompile(`\b` + regexp.QuoteMeta(g.Name) + `\b`)
		}
	}
	return r
}

// Parse extracts the intent of text. It makes no external calls.
func (r *Resolver) Parse(text string) Intent {
	in := Intent{MediaType: HintBoth}

	working := text
	if loc := actorPattern.FindStringSubmatchIndex(text); loc != nil {
		in.Actor = strings.TrimSpace(text[loc[2]:loc[3]])
		// Drop the phrase so the actor's name is never read as a genre.
		working = text[:loc[0]] + " " + text[loc[1]:]
	}
	working = strings.ToLower(working)

	for i, g := range GenreTable {
		if r.contains(working, i, g.Name) {
			in.Genres = append(in.Genres, g.Name)
		}
	}

	hasMovie := strings.Contains(working, "movie")
	hasTV := strings.Contains(working, "tv")
	switch {
	case hasMovie && !hasTV:
		in.MediaType = HintMovie
	case hasTV && !hasMovie:
		in.MediaType = HintTV
	}

	// With an actor named the request is servable, so slot words are left alone.
	if in.Actor == "" {
		in.Unrecognized = unrecognizedSlots(working, in.Genres)
	}
	return in
}

func (r *Resolver) contains(text string, i int, name string) bool {
	if r.wordBoundary {
		return r.patterns[i].MatchString(text)
	}
	return strings.Contains(text, name)
}

// Resolve parses text and resolves it to provider ids. It returns an
// *UnrecognizedGenreError or *ActorNotFoundError when the request cannot
// be served; no partial resolution is returned in that case. A failing
// person search is logged and treated as no match.
func (r *Resolver) Resolve(ctx context.Context, text string, people PersonSearcher) (Resolution, error) {
	in := r.Parse(text)
	res := Resolution{Intent: in}

	unrecognized := append([]string(nil), in.Unrecognized...)
	for _, name := range in.Genres {
		id, ok := GenreID(name)
		if !ok {
			unrecognized = append(unrecognized, name)
			continue
		}
		res.GenreIDs = append(res.GenreIDs, id)
	}
	if len(unrecognized) > 0 {
		return res, &UnrecognizedGenreError{Genres: unrecognized}
	}

	if in.Actor != "" {
		id, found, err := people.SearchPerson(ctx, in.Actor)
		if err != nil {
			logging.Ctx(ctx).Error().Err(err).Str("actor", in.Actor).Msg("person search failed")
		}
		if err != nil || !found {
			return res, &ActorNotFoundError{Name: in.Actor}
		}
		res.ActorID = id
	}
	return res, nil
}

// stopWords may sit in a genre slot without naming a genre.
var stopWords = wordSet(
	"a an the some any more other few couple of me my your for and or to in on about",
	"those these that this all what which many several two three five ten",
	"good great best top new newest latest recent old classic popular similar must",
	"fun cool nice awesome favorite favourite interesting",
	"recommend suggest want need find show tv movie film series genre genres please",
	// verbs and descriptors that qualify a request rather than name a genre
	"watch like love enjoy prefer adore see",
	"funny scary sad happy silly cheesy spooky creepy cute dark light short long",
	"bad weird smart clever boring romantic exciting feel cozy chill easy",
	"kids kid children family friendly teen adult",
)

func wordSet(lines ...string) map[string]bool {
	set := make(map[string]bool)
	for _, line := range lines {
		for _, w := range strings.Fields(line) {
			set[w] = true
		}
	}
	return set
}

// descriptive reports whether word is inflected like a verb or adverb
// ("watching", "liked", "really") and so cannot be a genre name.
func descriptive(word string) bool {
	for _, suffix := range []string{"ing", "ed", "ly"} {
		if strings.HasSuffix(word, suffix) {
			return true
		}
	}
	return false
}

// unrecognizedSlots returns words used as a genre ("zombie movies",
// "genre noir") that are neither stop words, part of a GenreTable key, nor
// already matched as one of matched.
func unrecognizedSlots(text string, matched []string) []string {
	var out []string
	seen := make(map[string]bool)
	collect := func(word string) {
		if len(word) < 3 || stopWords[word] || descriptive(word) || seen[word] || partOfGenre(word) {
			return
		}
		for _, g := range matched {
			if strings.Contains(word, g) {
				return
			}
		}
		seen[word] = true
		out = append(out, word)
	}
	for _, m := range slotBefore.FindAllStringSubmatch(text, -1) {
		collect(m[1])
	}
	for _, m := range slotAfter.FindAllStringSubmatch(text, -1) {
		collect(m[1])
	}
	return out
}

func partOfGenre(word string) bool {
	for _, g := range GenreTable {
		if strings.Contains(g.Name, word) {
			return true
		}
	}
	return false
}
