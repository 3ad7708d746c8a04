package library

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// LibraryManager is the single owner of session and inventory state. Views
// read through it and route every change through it.
type LibraryManager struct {
	db      *Database
	session *Session
	engine  *Engine
	log     logrus.FieldLogger
}

// NewLibraryManager opens the database at dsn, imports books into it and
// stocks the engine from the imported catalog.
func NewLibraryManager(dsn string, books []*Book, log logrus.FieldLogger) (*LibraryManager, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	db, err := NewDatabase(dsn)
	if err != nil {
		return nil, err
	}
	if err := db.ImportBooks(books); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed catalog: %w", err)
	}
	catalog, err := db.GetAllBooks()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	engine := NewEngine(catalog)
	log.WithField("books", len(catalog)).WithField("copies", engine.TotalCopies()).Info("library stocked")

	return &LibraryManager{db: db, session: NewSession(), engine: engine, log: log}, nil
}

// NewSeededManager builds a manager over the built-in catalog.
func NewSeededManager(dsn string, log logrus.FieldLogger) (*LibraryManager, error) {
	books, err := SeedBooks()
	if err != nil {
		return nil, err
	}
	return NewLibraryManager(dsn, books, log)
}

// Close closes the underlying database.
func (lm *LibraryManager) Close() error { return lm.db.Close() }

// ------------------ Session ------------------

func (lm *LibraryManager) State() AuthState { return lm.session.State() }
func (lm *LibraryManager) UserName() string { return lm.session.Name() }
func (lm *LibraryManager) Mobile() string   { return lm.session.Mobile() }
func (lm *LibraryManager) View() View       { return lm.session.View() }
func (lm *LibraryManager) SessionID() string {
	return lm.session.ID()
}

func (lm *LibraryManager) Login(name, mobile string) error {
	if err := lm.session.Login(name, mobile); err != nil {
		lm.log.WithError(err).Debug("login rejected")
		return err
	}
	lm.log.WithField("user", lm.session.Name()).Info("otp requested")
	return nil
}

func (lm *LibraryManager) VerifyOTP(code string) error {
	if err := lm.session.VerifyOTP(code); err != nil {
		lm.log.WithError(err).Debug("otp rejected")
		return err
	}
	lm.log.WithField("session_id", lm.session.ID()).WithField("user", lm.session.Name()).Info("signed in")
	return nil
}

func (lm *LibraryManager) Back() error { return lm.session.Back() }

// Logout signs the user out. Borrowed books stay borrowed and the library
// keeps its current stock.
func (lm *LibraryManager) Logout() error {
	id := lm.session.ID()
	if err := lm.session.Logout(); err != nil {
		return err
	}
	lm.log.WithField("session_id", id).WithField("borrowed", len(lm.engine.Borrowed())).Info("signed out")
	return nil
}

func (lm *LibraryManager) SetView(v View) error { return lm.session.SetView(v) }

// ------------------ Circulation ------------------

// Borrow lends book id to the signed-in user.
func (lm *LibraryManager) Borrow(id int64) (Book, error) {
	if lm.session.State() != AuthAuthenticated {
		return Book{}, ErrNotAuthenticated
	}

	entry := lm.log.WithField("session_id", lm.session.ID()).WithField("book_id", id)
	book, err := lm.engine.Borrow(id)
	if err != nil {
		entry.WithError(err).Info("borrow refused")
		return Book{}, err
	}
	entry.WithField("title", book.Title).Info("book borrowed")

	if _, err := lm.db.RecordCheckout(lm.session.ID(), lm.session.Name(), id); err != nil {
		entry.WithError(err).Warn("journal checkout")
	}
	return book, nil
}

// Return takes book id back from the signed-in user. It reports false when
// the book was not borrowed.
func (lm *LibraryManager) Return(id int64) (Book, bool, error) {
	if lm.session.State() != AuthAuthenticated {
		return Book{}, false, ErrNotAuthenticated
	}

	entry := lm.log.WithField("session_id", lm.session.ID()).WithField("book_id", id)
	book, ok := lm.engine.Return(id)
	if !ok {
		entry.Debug("return ignored, book not borrowed")
		return Book{}, false, nil
	}
	entry.WithField("title", book.Title).Info("book returned")

	if err := lm.db.RecordReturn(lm.session.ID(), id); err != nil {
		entry.WithError(err).Warn("journal return")
	}
	return book, true, nil
}

// ------------------ Read side ------------------

// Library lists the books in stock through q.
func (lm *LibraryManager) Library(q Query) []Book {
	return Project(lm.engine.Library(), q)
}

func (lm *LibraryManager) Borrowed() []Book { return lm.engine.Borrowed() }

// Snapshot returns stock and borrowed list as of one instant.
func (lm *LibraryManager) Snapshot() (library, borrowed []Book) { return lm.engine.Snapshot() }

func (lm *LibraryManager) Genres() []string { return Genres(lm.engine.Library()) }

// Catalog returns the starting catalog as it was imported.
func (lm *LibraryManager) Catalog() ([]*Book, error) { return lm.db.GetAllBooks() }

// History lists the signed-in session's journal: books it borrowed and books
// it returned, including loans inherited from an earlier sign-in.
func (lm *LibraryManager) History() ([]*Checkout, error) {
	if lm.session.State() != AuthAuthenticated {
		return nil, ErrNotAuthenticated
	}
	return lm.db.GetCheckouts(lm.session.ID())
}

// IsBorrowFailure reports whether err is a refusal the user should be told
// about, as opposed to a programming or storage error.
func IsBorrowFailure(err error) bool {
	return errors.Is(err, ErrBorrowLimitExceeded) ||
		errors.Is(err, ErrAlreadyBorrowed) ||
		errors.Is(err, ErrNotAvailable)
}
