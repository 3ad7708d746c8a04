package library

import (
	"sort"
	"sync"
)

// MaxBorrowed is how many books one user may hold at the same time.
const MaxBorrowed = 2

// Engine owns the library stock and the user's borrowed list and keeps the
// two consistent. Every mutation happens under one lock, so readers never see
// stock taken without the matching borrowed entry.
type Engine struct {
	mu       sync.RWMutex
	library  map[int64]*Book
	borrowed []Book
}

// NewEngine seeds the library with a copy of books. Records with no copies
// are not stocked.
func NewEngine(books []*Book) *Engine {
	e := &Engine{library: make(map[int64]*Book, len(books))}
	for _, b := range books {
		if b == nil || b.Copies < 1 {
			continue
		}
		cp := *b
		e.library[cp.ID] = &cp
	}
	return e
}

// Borrow moves one unit of book id from the library into the borrowed list.
// Checks run in order: the borrow limit, a duplicate borrow, then stock.
func (e *Engine) Borrow(id int64) (Book, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.borrowed) >= MaxBorrowed {
		return Book{}, ErrBorrowLimitExceeded
	}
	if e.borrowedIndex(id) >= 0 {
		return Book{}, ErrAlreadyBorrowed
	}
	stock, ok := e.library[id]
	if !ok || stock.Copies < 1 {
		return Book{}, ErrNotAvailable
	}

	loan := *stock
	loan.Copies = 1
	e.borrowed = append(e.borrowed, loan)

	stock.Copies--
	if stock.Copies == 0 {
		delete(e.library, id)
	}
	return loan, nil
}

// Return puts a borrowed book back on the shelf. It reports false, and changes
// nothing, when id is not currently borrowed.
func (e *Engine) Return(id int64) (Book, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.borrowedIndex(id)
	if i < 0 {
		return Book{}, false
	}
	loan := e.borrowed[i]
	e.borrowed = append(e.borrowed[:i], e.borrowed[i+1:]...)

	if stock, ok := e.library[id]; ok {
		stock.Copies++
	} else {
		restocked := loan
		restocked.Copies = 1
		e.library[id] = &restocked
	}
	return loan, true
}

func (e *Engine) borrowedIndex(id int64) int {
	for i := range e.borrowed {
		if e.borrowed[i].ID == id {
			return i
		}
	}
	return -1
}

// Library returns the books in stock ordered by ID.
func (e *Engine) Library() []Book {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.libraryLocked()
}

func (e *Engine) libraryLocked() []Book {
	out := make([]Book, 0, len(e.library))
	for _, b := range e.library {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Borrowed returns the borrowed list in the order books were taken.
func (e *Engine) Borrowed() []Book {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]Book(nil), e.borrowed...)
}

// Snapshot returns both collections as of the same instant.
func (e *Engine) Snapshot() (library, borrowed []Book) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.libraryLocked(), append([]Book(nil), e.borrowed...)
}

// TotalCopies is every unit on the shelf plus every unit on loan. It is
// constant across Borrow and Return.
func (e *Engine) TotalCopies() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	total := len(e.borrowed)
	for _, b := range e.library {
		total += b.Copies
	}
	return total
}
