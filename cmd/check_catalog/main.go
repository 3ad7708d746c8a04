package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"library-borrowing/library"
)

// check_catalog validates a catalog file before it replaces library/seed/books.json.
// With no argument it checks the built-in catalog.
func main() {
	var (
		books  []*library.Book
		err    error
		source = "built-in catalog"
	)

	if len(os.Args) > 1 {
		source = filepath.Clean(os.Args[1])
		data, readErr := os.ReadFile(source)
		if readErr != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", source, readErr)
			os.Exit(1)
		}
		books, err = library.DecodeBooks(data)
	} else {
		books, err = library.SeedBooks()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid %s: %v\n", source, err)
		os.Exit(1)
	}

	fmt.Printf("Importing %s into a scratch database...\n", source)
	db, err := library.NewDatabase(library.MemoryDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.ImportBooks(books); err != nil {
		fmt.Fprintf(os.Stderr, "Import failed: %v\n", err)
		os.Exit(1)
	}

	imported, err := db.GetAllBooks()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving books: %v\n", err)
		os.Exit(1)
	}

	totalCopies, unstocked := 0, 0
	fmt.Printf("%-4s %-45s %-25s %s\n", "ID", "Title", "Author", "Copies")
	fmt.Println(strings.Repeat("-", 85))
	for _, book := range imported {
		totalCopies += book.Copies
		if book.Copies == 0 {
			unstocked++
		}
		fmt.Printf("%-4d %-45s %-25s %d\n", book.ID, truncateString(book.Title, 45), truncateString(book.Author, 25), book.Copies)
	}

	fmt.Printf("\nCatalog OK!\n")
	fmt.Printf("Titles: %d\n", len(imported))
	fmt.Printf("Copies: %d\n", totalCopies)
	if unstocked > 0 {
		fmt.Printf("Warning: %d titles have no copies and will not be stocked\n", unstocked)
	}
}

// truncateString cuts on rune boundaries so accented titles stay valid UTF-8.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
