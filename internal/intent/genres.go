package intent

// Genre is a GenreTable entry: a lower-cased keyword and the provider's
// category id.
type Genre struct {
	Name string
	ID   int
}

// GenreTable lists the recognized genre keywords in match order.
var GenreTable = []Genre{
	{"action", 28},
	{"adventure", 12},
	{"animation", 16},
	{"comedy", 35},
	{"crime", 80},
	{"documentary", 99},
	{"drama", 18},
	{"family", 10751},
	{"fantasy", 14},
	{"history", 36},
	{"horror", 27},
	{"music", 10402},
	{"mystery", 9648},
	{"romance", 10749},
	{"science fiction", 878},
	{"thriller", 53},
	{"war", 10752},
	{"western", 37},
	{"tv movie", 10770},
}

var genreIDs = func() map[string]int {
	m := make(map[string]int, len(GenreTable))
	for _, g := range GenreTable {
		m[g.Name] = g.ID
	}
	return m
}()

// GenreID returns the provider id for a lower-cased genre name.
func GenreID(name string) (int, bool) {
	id, ok := genreIDs[name]
	return id, ok
}
