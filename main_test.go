package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"library-borrowing/library"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runSession(t *testing.T, input ...string) (string, *library.LibraryManager) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	mgr, err := library.NewSeededManager(library.MemoryDSN, logger)
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Close() })

	var out bytes.Buffer
	in := strings.NewReader(strings.Join(input, "\n") + "\n")
	require.NoError(t, newApp(mgr, in, &out, time.Hour).run(context.Background()))
	return out.String(), mgr
}

func TestAppSignInAndBorrow(t *testing.T) {
	out, mgr := runSession(t,
		"Asha Rao", "9876543210",
		"123456",
		"borrow", "3",
		"borrowed",
		"exit",
	)

	assert.Contains(t, out, "We've sent a 6-digit code to +91 9876543210")
	assert.Contains(t, out, "Welcome, Asha Rao!")
	assert.Contains(t, out, "Borrowed 'Animal Farm'")
	assert.Contains(t, out, "Books Borrowed: 1")
	assert.Contains(t, out, "Goodbye!")

	require.Len(t, mgr.Borrowed(), 1)
	assert.Equal(t, library.ViewBorrowed, mgr.View())
}

func TestAppLoginValidationMessages(t *testing.T) {
	out, mgr := runSession(t,
		"A", "12345",
		"exit",
	)

	assert.Contains(t, out, "Name must be at least 2 characters")
	assert.Contains(t, out, "Please enter a valid 10-digit mobile number")
	assert.Equal(t, library.AuthLogin, mgr.State())
}

func TestAppIncompleteOTPAndBack(t *testing.T) {
	out, mgr := runSession(t,
		"Asha", "9876543210",
		"123",
		"resend",
		"back",
		"exit",
	)

	assert.Contains(t, out, "Please enter complete 6-digit OTP")
	assert.Contains(t, out, "You can request a new code in")
	assert.Equal(t, library.AuthLogin, mgr.State())
	assert.Empty(t, mgr.UserName())
}

func TestAppBorrowLimitNotification(t *testing.T) {
	out, mgr := runSession(t,
		"Asha", "9876543210", "000000",
		"borrow", "1",
		"borrow", "1", "",
		"borrow", "2",
		"borrow", "5", "",
		"exit",
	)

	assert.Contains(t, out, "You already borrowed this book")
	assert.Contains(t, out, "You can borrow only 2 books")
	assert.Contains(t, out, "Press Enter to continue...")
	assert.Len(t, mgr.Borrowed(), 2)
}

func TestAppReturnAndHistory(t *testing.T) {
	out, mgr := runSession(t,
		"Asha", "9876543210", "000000",
		"borrow", "3",
		"return", "3",
		"return", "3",
		"history",
		"exit",
	)

	assert.Contains(t, out, "Returned 'Animal Farm'")
	assert.Contains(t, out, "Book 3 is not in your borrowed list.")
	assert.Contains(t, out, "Animal Farm")
	assert.Empty(t, mgr.Borrowed())
}

func TestAppSearchAndLogout(t *testing.T) {
	out, mgr := runSession(t,
		"Asha", "9876543210", "000000",
		"search", "orwell", "Dystopian", "copies",
		"logout",
		"exit",
	)

	assert.Contains(t, out, "2 of 13 books")
	assert.Contains(t, out, "Logged out.")
	assert.Equal(t, library.AuthLogin, mgr.State())
}

func TestCatalogCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"catalog", "--genre", "Fantasy", "--sort", "copies"})

	require.NoError(t, cmd.Execute())

	text := out.String()
	assert.Contains(t, text, "The Hobbit")
	assert.Contains(t, text, "The Fellowship of the Ring")
	assert.NotContains(t, text, "Animal Farm")
	assert.Less(t, strings.Index(text, "The Hobbit"), strings.Index(text, "The Fellowship of the Ring"))
	assert.Contains(t, text, "2 of 13 books")
}

func TestRootRejectsBadLogLevel(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"catalog", "--log-level", "loud"})

	assert.Error(t, cmd.Execute())
}

func TestAppStopsWhenCancelledAtPrompt(t *testing.T) {
	tests := map[string]struct {
		input string
		state library.AuthState
	}{
		"login":     {input: "", state: library.AuthLogin},
		"otp":       {input: "Asha\n9876543210\n", state: library.AuthOTP},
		"dashboard": {input: "Asha\n9876543210\n000000\n", state: library.AuthAuthenticated},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			logger, _ := test.NewNullLogger()
			mgr, err := library.NewSeededManager(library.MemoryDSN, logger)
			require.NoError(t, err)
			t.Cleanup(func() { mgr.Close() })

			pr, pw := io.Pipe()
			t.Cleanup(func() { pw.Close() })

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			done := make(chan error, 1)
			go func() { done <- newApp(mgr, pr, io.Discard, time.Hour).run(ctx) }()

			if tt.input != "" {
				_, err := io.WriteString(pw, tt.input)
				require.NoError(t, err)
			}
			require.Eventually(t, func() bool { return mgr.State() == tt.state },
				time.Second, 5*time.Millisecond)
			// Let run settle into the blocking read.
			time.Sleep(50 * time.Millisecond)
			cancel()

			select {
			case err := <-done:
				assert.NoError(t, err)
			case <-time.After(time.Second):
				t.Fatal("run kept waiting for input after cancel")
			}
			assert.Equal(t, tt.state, mgr.State())
		})
	}
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abcd...", truncateString("abcdefghij", 7))
	assert.Equal(t, "ab", truncateString("abcdef", 2))

	got := truncateString("Les Misérables", 11)
	assert.Equal(t, "Les Misé...", got)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "Les Misérables", truncateString("Les Misérables", 14))
}
