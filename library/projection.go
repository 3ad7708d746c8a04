package library

import (
	"sort"
	"strings"
)

// SortKey orders a catalog listing.
type SortKey string

const (
	SortByTitle  SortKey = "title"
	SortByAuthor SortKey = "author"
	SortByCopies SortKey = "copies"
)

// AllGenres disables the genre filter.
const AllGenres = "all"

// ParseSortKey maps user input to a SortKey. Anything unrecognised sorts by
// title.
func ParseSortKey(s string) SortKey {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case SortByAuthor:
		return SortByAuthor
	case SortByCopies:
		return SortByCopies
	default:
		return SortByTitle
	}
}

// Query describes a filtered, sorted catalog listing.
type Query struct {
	Search string
	Genre  string
	Sort   SortKey
}

// Project filters and sorts books for display. The input is not modified.
//
// Search is a case-insensitive substring match on title or author. Genre must
// match exactly unless it is "all" or empty. Title and author sort ascending,
// copies sorts descending; ties keep input order.
func Project(books []Book, q Query) []Book {
	needle := strings.ToLower(q.Search)
	genre := q.Genre
	if genre == "" {
		genre = AllGenres
	}

	out := make([]Book, 0, len(books))
	for _, b := range books {
		if needle != "" &&
			!strings.Contains(strings.ToLower(b.Title), needle) &&
			!strings.Contains(strings.ToLower(b.Author), needle) {
			continue
		}
		if genre != AllGenres && b.Genre != genre {
			continue
		}
		out = append(out, b)
	}

	switch q.Sort {
	case SortByAuthor:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Author < out[j].Author })
	case SortByCopies:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Copies > out[j].Copies })
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	}
	return out
}

// Genres lists "all" followed by each distinct non-empty genre in the order
// it first appears.
func Genres(books []Book) []string {
	seen := make(map[string]struct{})
	genres := []string{AllGenres}
	for _, b := range books {
		if b.Genre == "" {
			continue
		}
		if _, ok := seen[b.Genre]; ok {
			continue
		}
		seen[b.Genre] = struct{}{}
		genres = append(genres, b.Genre)
	}
	return genres
}
