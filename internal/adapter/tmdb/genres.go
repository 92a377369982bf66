package tmdb

import (
	"sort"
	"strings"
)

// TMDB keys movie and TV genres in two unrelated ID spaces; the tables below
// carry both directions for each.

var movieGenreNames = map[int]string{
	28:    "Action",
	12:    "Adventure",
	16:    "Animation",
	35:    "Comedy",
	80:    "Crime",
	99:    "Documentary",
	18:    "Drama",
	10751: "Family",
	14:    "Fantasy",
	36:    "History",
	27:    "Horror",
	10402: "Music",
	9648:  "Mystery",
	10749: "Romance",
	878:   "Science Fiction",
	10770: "TV Movie",
	53:    "Thriller",
	10752: "War",
	37:    "Western",
}

var tvGenreNames = map[int]string{
	10759: "Action & Adventure",
	16:    "Animation",
	35:    "Comedy",
	80:    "Crime",
	99:    "Documentary",
	18:    "Drama",
	10751: "Family",
	10762: "Kids",
	9648:  "Mystery",
	10763: "News",
	10764: "Reality",
	10765: "Sci-Fi & Fantasy",
	10766: "Soap",
	10767: "Talk",
	10768: "War & Politics",
	37:    "Western",
}

var movieGenreIDs = map[string]int{
	"action":          28,
	"adventure":       12,
	"animation":       16,
	"comedy":          35,
	"crime":           80,
	"documentary":     99,
	"drama":           18,
	"family":          10751,
	"fantasy":         14,
	"history":         36,
	"horror":          27,
	"music":           10402,
	"mystery":         9648,
	"romance":         10749,
	"science fiction": 878,
	"sci-fi":          878,
	"tv movie":        10770,
	"thriller":        53,
	"war":             10752,
	"western":         37,
}

var tvGenreIDs = map[string]int{
	"action & adventure": 10759,
	"action":             10759,
	"adventure":          10759,
	"animation":          16,
	"comedy":             35,
	"crime":              80,
	"documentary":        99,
	"drama":              18,
	"family":             10751,
	"kids":               10762,
	"mystery":            9648,
	"news":               10763,
	"reality":            10764,
	"sci-fi & fantasy":   10765,
	"sci-fi":             10765,
	"fantasy":            10765,
	"soap":               10766,
	"talk":               10767,
	"war & politics":     10768,
	"war":                10768,
	"western":            37,
}

// genreNames resolves the first three genre IDs to display names, dropping
// IDs the table does not know.
func genreNames(table map[int]string, ids []int) []string {
	names := make([]string, 0, 3)
	for _, id := range ids {
		if len(names) == 3 {
			break
		}
		if name, ok := table[id]; ok {
			names = append(names, name)
		}
	}
	return names
}

// genreID resolves a human genre name to a TMDB ID, trying an exact
// lowercase match first and a substring match second ("sci-fi thriller"
// still lands on a known genre). The substring scan goes longest name
// first so "science fiction" wins over "fiction"-bearing shorter keys,
// and ties break alphabetically to keep resolution deterministic.
// Returns 0 when nothing matches.
func genreID(table map[string]int, genre string) int {
	lower := strings.ToLower(strings.TrimSpace(genre))
	if lower == "" {
		return 0
	}
	if id, ok := table[lower]; ok {
		return id
	}
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	for _, name := range names {
		if strings.Contains(lower, name) {
			return table[name]
		}
	}
	return 0
}
