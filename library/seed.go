package library

import (
	_ "embed"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

//go:embed seed/books.json
var seedBooks []byte

// SeedBooks decodes the built-in starting catalog.
func SeedBooks() ([]*Book, error) {
	return DecodeBooks(seedBooks)
}

// DecodeBooks parses a JSON array of books and rejects records that could not
// be stocked: duplicate or non-positive IDs, blank titles, negative copies.
func DecodeBooks(data []byte) ([]*Book, error) {
	var books []*Book
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &books); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	seen := make(map[int64]struct{}, len(books))
	for i, b := range books {
		switch {
		case b == nil:
			return nil, fmt.Errorf("catalog entry %d is null", i)
		case b.ID <= 0:
			return nil, fmt.Errorf("catalog entry %d: id must be positive", i)
		case strings.TrimSpace(b.Title) == "":
			return nil, fmt.Errorf("catalog entry %d: title is required", i)
		case b.Copies < 0:
			return nil, fmt.Errorf("catalog entry %d: copies cannot be negative", i)
		}
		if _, dup := seen[b.ID]; dup {
			return nil, fmt.Errorf("catalog entry %d: duplicate id %d", i, b.ID)
		}
		seen[b.ID] = struct{}{}
	}
	return books, nil
}
