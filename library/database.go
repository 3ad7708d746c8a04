package library

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// MemoryDSN opens a private in-memory database. Nothing survives Close.
const MemoryDSN = "file::memory:?_foreign_keys=1"

// Database keeps the starting catalog and the circulation journal in SQLite.
// Live stock is owned by Engine; the books table is only the seed snapshot.
type Database struct {
	db *sql.DB

	addBookStmt     *sql.Stmt
	addCheckoutStmt *sql.Stmt
}

// NewDatabase opens the SQLite database at dsn, applies the schema and
// prepares common statements.
func NewDatabase(dsn string) (*Database, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// An in-memory database lives as long as its connection, so keep exactly one.
	db.SetMaxOpenConns(1)

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	database := &Database{db: db}
	if err := database.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}
	return database, nil
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	if d.addBookStmt != nil {
		d.addBookStmt.Close()
	}
	if d.addCheckoutStmt != nil {
		d.addCheckoutStmt.Close()
	}
	return d.db.Close()
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS books (
            id INTEGER PRIMARY KEY,
            title TEXT NOT NULL,
            author TEXT NOT NULL DEFAULT '',
            genre TEXT NOT NULL DEFAULT '',
            year INTEGER,
            copies INTEGER NOT NULL CHECK (copies >= 0),
            image TEXT NOT NULL DEFAULT ''
        );`,
		`CREATE TABLE IF NOT EXISTS checkouts (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            session_id TEXT NOT NULL,
            member_name TEXT NOT NULL,
            book_id INTEGER NOT NULL REFERENCES books(id),
            checkout_time DATETIME NOT NULL,
            return_time DATETIME,
            return_session_id TEXT NOT NULL DEFAULT ''
        );`,
		`CREATE INDEX IF NOT EXISTS idx_checkouts_return_session ON checkouts(return_session_id);`,
		`CREATE INDEX IF NOT EXISTS idx_checkouts_open ON checkouts(book_id) WHERE return_time IS NULL;`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements() error {
	var err error
	if d.addBookStmt, err = d.db.Prepare(`INSERT INTO books(id,title,author,genre,year,copies,image) VALUES(?,?,?,?,?,?,?)`); err != nil {
		return err
	}
	if d.addCheckoutStmt, err = d.db.Prepare(`INSERT INTO checkouts(session_id,member_name,book_id,checkout_time) VALUES(?,?,?,?)`); err != nil {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// Catalog
// ---------------------------------------------------------------------------

func nullableYear(year int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(year), Valid: year > 0}
}

// ImportBooks loads a whole catalog in one transaction; either every record
// lands or none do.
func (d *Database) ImportBooks(books []*Book) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt := tx.Stmt(d.addBookStmt)
	defer stmt.Close()
	for _, b := range books {
		if _, err := stmt.Exec(b.ID, b.Title, b.Author, b.Genre, nullableYear(b.Year), b.Copies, b.Image); err != nil {
			return fmt.Errorf("import book %d: %w", b.ID, err)
		}
	}
	return tx.Commit()
}

func scanBook(sc interface{ Scan(...any) error }) (*Book, error) {
	var (
		b    Book
		year sql.NullInt64
	)
	if err := sc.Scan(&b.ID, &b.Title, &b.Author, &b.Genre, &year, &b.Copies, &b.Image); err != nil {
		return nil, err
	}
	b.Year = int(year.Int64)
	return &b, nil
}

// GetAllBooks returns the seed catalog ordered by ID.
func (d *Database) GetAllBooks() ([]*Book, error) {
	rows, err := d.db.Query(`SELECT id,title,author,genre,year,copies,image FROM books ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []*Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// ---------------------------------------------------------------------------
// Circulation journal
// ---------------------------------------------------------------------------

// RecordCheckout journals a borrow and returns the new row ID.
func (d *Database) RecordCheckout(sessionID, memberName string, bookID int64) (int64, error) {
	res, err := d.addCheckoutStmt.Exec(sessionID, memberName, bookID, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// RecordReturn closes the oldest open checkout of bookID on behalf of
// sessionID. Books can come back in a later session than the one that took
// them, so the borrowing session is not matched; the returning session is
// stored alongside so it sees the return in its own history.
func (d *Database) RecordReturn(sessionID string, bookID int64) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var chkID int64
	err = tx.QueryRow(`SELECT id FROM checkouts WHERE book_id=? AND return_time IS NULL ORDER BY id ASC LIMIT 1`, bookID).
		Scan(&chkID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("book %d is not checked out", bookID)
	}
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`UPDATE checkouts SET return_time=?, return_session_id=? WHERE id=?`,
		time.Now().UTC(), sessionID, chkID); err != nil {
		return err
	}
	return tx.Commit()
}

// GetCheckouts lists journal rows a session borrowed or returned, newest
// first. An empty sessionID lists every session.
func (d *Database) GetCheckouts(sessionID string) ([]*Checkout, error) {
	rows, err := d.db.Query(`
        SELECT c.id, c.session_id, c.member_name, c.book_id, b.title, c.checkout_time, c.return_time, c.return_session_id
        FROM checkouts c
        JOIN books b ON b.id = c.book_id
        WHERE ? = '' OR c.session_id = ? OR c.return_session_id = ?
        ORDER BY c.id DESC;`, sessionID, sessionID, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Checkout
	for rows.Next() {
		var (
			c        Checkout
			returned sql.NullTime
		)
		if err := rows.Scan(&c.ID, &c.SessionID, &c.MemberName, &c.BookID, &c.Title, &c.CheckoutTime, &returned, &c.ReturnSessionID); err != nil {
			return nil, err
		}
		if returned.Valid {
			c.ReturnTime = returned.Time
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}
