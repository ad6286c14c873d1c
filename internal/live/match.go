package live

// Match is a live event listed by the stream provider.
type Match struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Category string   `json:"category,omitempty"`
	Date     int64    `json:"date,omitempty"` // unix milliseconds
	Poster   string   `json:"poster,omitempty"`
	Popular  bool     `json:"popular,omitempty"`
	Sources  []Source `json:"sources,omitempty"`
}

// Source is one mirror a match is available on.
type Source struct {
	Source string `json:"source"`
	ID     string `json:"id"`
}

// DisplayTitle returns the title shown in the Live TV row.
func (m Match) DisplayTitle() string {
	switch {
	case m.Title != "":
		return m.Title
	case m.ID != "":
		return m.ID
	default:
		return "No Title"
	}
}
