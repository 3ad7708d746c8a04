package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"library-borrowing/library"

	"golang.org/x/term"
)

// app is the terminal front end. It renders whatever step the session is in
// and forwards input to the manager.
type app struct {
	mgr  *library.LibraryManager
	in   io.Reader
	sc   *bufio.Scanner
	out  io.Writer
	tick time.Duration

	// ctx ends every pending read; run replaces it with its own.
	ctx context.Context

	query     library.Query
	countdown *library.Countdown
}

func newApp(mgr *library.LibraryManager, in io.Reader, out io.Writer, tick time.Duration) *app {
	return &app{
		mgr:   mgr,
		in:    in,
		sc:    bufio.NewScanner(in),
		out:   out,
		tick:  tick,
		ctx:   context.Background(),
		query: library.Query{Genre: library.AllGenres, Sort: library.SortByTitle},
	}
}

func (a *app) printf(format string, args ...any) { fmt.Fprintf(a.out, format, args...) }
func (a *app) println(args ...any)               { fmt.Fprintln(a.out, args...) }

// await runs read on its own goroutine so that a cancelled context (Ctrl-C)
// releases the caller even while the read is still blocked. ok is false on
// cancellation.
func (a *app) await(read func() (string, bool)) (string, bool) {
	if a.ctx.Err() != nil {
		return "", false
	}

	type result struct {
		text string
		ok   bool
	}
	done := make(chan result, 1)
	go func() {
		text, ok := read()
		done <- result{text, ok}
	}()

	select {
	case r := <-done:
		return r.text, r.ok
	case <-a.ctx.Done():
		return "", false
	}
}

// prompt prints label and reads one trimmed line. ok is false on end of input
// or cancellation.
func (a *app) prompt(label string) (string, bool) {
	a.printf("%s", label)
	return a.await(func() (string, bool) {
		if !a.sc.Scan() {
			return "", false
		}
		return strings.TrimSpace(a.sc.Text()), true
	})
}

// promptSecret reads a line without echo when attached to a terminal.
func (a *app) promptSecret(label string) (string, bool) {
	f, ok := a.in.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return a.prompt(label)
	}
	fd := int(f.Fd())
	state, err := term.GetState(fd)
	if err != nil {
		return "", false
	}

	a.printf("%s", label)
	code, ok := a.await(func() (string, bool) {
		b, err := term.ReadPassword(fd)
		if err != nil {
			return "", false
		}
		return strings.TrimSpace(string(b)), true
	})
	if a.ctx.Err() != nil {
		// ReadPassword never got to put echo back.
		_ = term.Restore(fd, state)
	}
	a.println()
	return code, ok
}

func (a *app) run(ctx context.Context) error {
	a.ctx = ctx
	defer a.stopCountdown()

	a.println("Welcome to the Library!")
	a.println("Enter your details to get started. Type 'exit' at any prompt to quit.")

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		var keepGoing bool
		switch a.mgr.State() {
		case library.AuthLogin:
			keepGoing = a.loginView()
		case library.AuthOTP:
			keepGoing = a.otpView(ctx)
		case library.AuthAuthenticated:
			keepGoing = a.dashboard()
		default:
			return fmt.Errorf("unknown session state %d", a.mgr.State())
		}
		if !keepGoing {
			a.println("Goodbye!")
			return nil
		}
	}
}

// ------------------ Login ------------------

func (a *app) loginView() bool {
	a.println("\n📚 Welcome to Library")
	name, ok := a.prompt("Full Name: ")
	if !ok || name == "exit" {
		return false
	}
	mobile, ok := a.prompt("Mobile Number: ")
	if !ok || mobile == "exit" {
		return false
	}

	err := a.mgr.Login(name, mobile)
	var invalid library.ValidationErrors
	switch {
	case err == nil:
	case errors.As(err, &invalid):
		for _, fe := range invalid {
			a.printf("  ✗ %s\n", fe.Message)
		}
	default:
		a.printf("Error: %v\n", err)
	}
	return true
}

// ------------------ OTP ------------------

func (a *app) otpView(ctx context.Context) bool {
	if a.countdown == nil {
		a.printf("\n🔐 Enter OTP\nWe've sent a 6-digit code to +91 %s\n", a.mgr.Mobile())
		a.countdown = library.NewCountdown(a.tick, nil)
		a.countdown.Start(ctx)
	}

	if a.countdown.CanResend() {
		a.println("Didn't get it? Type 'resend' for a new code.")
	} else {
		a.printf("Resend OTP in %ds\n", a.countdown.Remaining())
	}

	code, ok := a.promptSecret("OTP ('back' to change number): ")
	if !ok || code == "exit" {
		return false
	}

	switch code {
	case "back":
		a.stopCountdown()
		if err := a.mgr.Back(); err != nil {
			a.printf("Error: %v\n", err)
		}
	case "resend":
		if !a.countdown.CanResend() {
			a.printf("You can request a new code in %ds.\n", a.countdown.Remaining())
			return true
		}
		a.countdown.Reset(ctx)
		a.printf("A new code has been sent to +91 %s\n", a.mgr.Mobile())
	default:
		if err := a.mgr.VerifyOTP(code); err != nil {
			if errors.Is(err, library.ErrIncompleteOTP) {
				a.println("  ✗ Please enter complete 6-digit OTP")
			} else {
				a.printf("Error: %v\n", err)
			}
			return true
		}
		a.stopCountdown()
		a.printf("✓ Verified. Welcome, %s!\n", a.mgr.UserName())
		a.printHelp()
	}
	return true
}

func (a *app) stopCountdown() {
	if a.countdown != nil {
		a.countdown.Stop()
		a.countdown = nil
	}
}

// ------------------ Dashboard ------------------

func (a *app) dashboard() bool {
	cmd, ok := a.prompt(fmt.Sprintf("\n[%s | %s | borrowed %d/%d] > ",
		a.mgr.UserName(), a.mgr.View(), len(a.mgr.Borrowed()), library.MaxBorrowed))
	if !ok {
		return false
	}

	switch cmd {
	case "library":
		a.setView(library.ViewLibrary)
		a.handleListLibrary()
	case "search":
		a.handleSearch()
	case "genres":
		a.println(strings.Join(a.mgr.Genres(), ", "))
	case "borrowed":
		a.setView(library.ViewBorrowed)
		a.handleListBorrowed()
	case "borrow":
		a.handleBorrow()
	case "return":
		a.handleReturn()
	case "history":
		a.handleHistory()
	case "logout":
		if err := a.mgr.Logout(); err != nil {
			a.printf("Error: %v\n", err)
			return true
		}
		a.query = library.Query{Genre: library.AllGenres, Sort: library.SortByTitle}
		a.println("🚪 Logged out.")
	case "help":
		a.printHelp()
	case "exit":
		return false
	case "":
	default:
		a.println("Unknown command. Type 'help' to see the available commands.")
	}
	return true
}

func (a *app) printHelp() {
	a.println("Commands:")
	a.println("  library   show available books (current filters)")
	a.println("  search    set search text, genre and sort order")
	a.println("  genres    list genres")
	a.println("  borrowed  show your borrowed books")
	a.println("  borrow    borrow a book by ID")
	a.println("  return    return a borrowed book by ID")
	a.println("  history   show this session's checkouts")
	a.println("  logout    sign out")
	a.println("  exit      quit")
}

func (a *app) setView(v library.View) {
	if err := a.mgr.SetView(v); err != nil {
		a.printf("Error: %v\n", err)
	}
}

// notify shows a message the user has to acknowledge before continuing.
func (a *app) notify(msg string) {
	a.printf("⚠ %s\n", msg)
	a.prompt("Press Enter to continue...")
	a.println()
}

func (a *app) handleListLibrary() {
	books := a.mgr.Library(a.query)
	printBooks(a.out, books, len(a.mgr.Library(library.Query{})))
}

func (a *app) handleSearch() {
	search, ok := a.prompt("Search by title or author (blank for any): ")
	if !ok {
		return
	}
	a.printf("Genres: %s\n", strings.Join(a.mgr.Genres(), ", "))
	genre, ok := a.prompt("Genre [all]: ")
	if !ok {
		return
	}
	if genre == "" {
		genre = library.AllGenres
	}
	sortBy, ok := a.prompt("Sort by title, author or copies [title]: ")
	if !ok {
		return
	}

	a.query = library.Query{Search: search, Genre: genre, Sort: library.ParseSortKey(sortBy)}
	a.setView(library.ViewLibrary)
	a.handleListLibrary()
}

func (a *app) handleListBorrowed() {
	books := a.mgr.Borrowed()
	a.printf("📖 Books Borrowed: %d\n", len(books))
	if len(books) == 0 {
		a.println("No books borrowed yet. Use 'borrow' to take one home.")
		return
	}
	a.printf("%-5s %-40s %-25s %-12s\n", "ID", "Title", "Author", "Genre")
	a.println(strings.Repeat("-", 85))
	for _, b := range books {
		a.printf("%-5d %-40s %-25s %-12s\n", b.ID, truncateString(b.Title, 40), truncateString(b.Author, 25), b.Genre)
	}
}

func (a *app) readBookID() (int64, bool) {
	idStr, ok := a.prompt("Book ID: ")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		a.printf("Invalid book ID: %s\n", idStr)
		return 0, false
	}
	return id, true
}

func (a *app) handleBorrow() {
	id, ok := a.readBookID()
	if !ok {
		return
	}

	book, err := a.mgr.Borrow(id)
	switch {
	case err == nil:
		a.printf("📚 Borrowed '%s'. Enjoy!\n", book.Title)
	case errors.Is(err, library.ErrBorrowLimitExceeded):
		a.notify(fmt.Sprintf("You can borrow only %d books", library.MaxBorrowed))
	case errors.Is(err, library.ErrAlreadyBorrowed):
		a.notify("You already borrowed this book")
	case library.IsBorrowFailure(err):
		a.notify(fmt.Sprintf("Book %d is not available", id))
	default:
		a.printf("Error borrowing book: %v\n", err)
	}
}

func (a *app) handleReturn() {
	id, ok := a.readBookID()
	if !ok {
		return
	}

	book, returned, err := a.mgr.Return(id)
	if err != nil {
		a.printf("Error returning book: %v\n", err)
		return
	}
	if !returned {
		a.printf("Book %d is not in your borrowed list.\n", id)
		return
	}
	a.printf("↩ Returned '%s'. Thank you!\n", book.Title)
}

func (a *app) handleHistory() {
	checkouts, err := a.mgr.History()
	if err != nil {
		a.printf("Error retrieving history: %v\n", err)
		return
	}
	if len(checkouts) == 0 {
		a.println("No checkouts in this session.")
		return
	}

	a.printf("%-5s %-40s %-20s %-20s\n", "ID", "Title", "Borrowed", "Returned")
	a.println(strings.Repeat("-", 88))
	for _, c := range checkouts {
		returned := "-"
		if c.Returned() {
			returned = c.ReturnTime.Local().Format(time.DateTime)
		}
		a.printf("%-5d %-40s %-20s %-20s\n", c.BookID, truncateString(c.Title, 40),
			c.CheckoutTime.Local().Format(time.DateTime), returned)
	}
}

// printBooks renders a listing with a "shown of total" footer.
func printBooks(out io.Writer, books []library.Book, total int) {
	if len(books) == 0 {
		fmt.Fprintln(out, "No books found. Try adjusting your search or filter criteria.")
		return
	}

	fmt.Fprintf(out, "%-5s %-40s %-25s %-12s %-6s %s\n", "ID", "Title", "Author", "Genre", "Year", "Copies")
	fmt.Fprintln(out, strings.Repeat("-", 100))
	for _, b := range books {
		year := ""
		if b.Year > 0 {
			year = strconv.Itoa(b.Year)
		}
		fmt.Fprintf(out, "%-5d %-40s %-25s %-12s %-6s %d\n",
			b.ID,
			truncateString(b.Title, 40),
			truncateString(b.Author, 25),
			truncateString(b.Genre, 12),
			year,
			b.Copies)
	}
	fmt.Fprintf(out, "\n%d of %d books\n", len(books), total)
}

// truncateString shortens s to maxLength runes, ending in "...".
func truncateString(s string, maxLength int) string {
	r := []rune(s)
	if len(r) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(r[:maxLength])
	}
	return string(r[:maxLength-3]) + "..."
}
