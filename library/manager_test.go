package library

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) (*LibraryManager, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	mgr, err := NewLibraryManager(MemoryDSN, testBooks(), logger)
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Close() })
	return mgr, hook
}

func signIn(t *testing.T, mgr *LibraryManager) {
	t.Helper()
	require.NoError(t, mgr.Login("Asha Rao", "9876543210"))
	require.NoError(t, mgr.VerifyOTP("000000"))
}

func libraryCopies(mgr *LibraryManager, id int64) int {
	for _, b := range mgr.Library(Query{}) {
		if b.ID == id {
			return b.Copies
		}
	}
	return 0
}

func TestManagerCirculationRequiresSignIn(t *testing.T) {
	mgr, _ := newManager(t)

	_, err := mgr.Borrow(1)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	_, _, err = mgr.Return(1)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	_, err = mgr.History()
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	require.NoError(t, mgr.Login("Asha", "9876543210"))
	_, err = mgr.Borrow(1)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	assert.Equal(t, 3, libraryCopies(mgr, 1))
}

func TestManagerBorrowAndReturn(t *testing.T) {
	mgr, hook := newManager(t)
	signIn(t, mgr)

	book, err := mgr.Borrow(1)
	require.NoError(t, err)
	assert.Equal(t, "Dune", book.Title)
	assert.Equal(t, 2, libraryCopies(mgr, 1))

	var logged bool
	for _, e := range hook.AllEntries() {
		if e.Message == "book borrowed" {
			logged = true
			assert.Equal(t, int64(1), e.Data["book_id"])
			assert.Equal(t, mgr.SessionID(), e.Data["session_id"])
		}
	}
	assert.True(t, logged, "borrow should be logged")

	_, returned, err := mgr.Return(1)
	require.NoError(t, err)
	assert.True(t, returned)
	assert.Equal(t, 3, libraryCopies(mgr, 1))

	_, returned, err = mgr.Return(1)
	require.NoError(t, err)
	assert.False(t, returned)
	assert.Equal(t, 3, libraryCopies(mgr, 1))

	history, err := mgr.History()
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].Returned())
	assert.Equal(t, "Asha Rao", history[0].MemberName)
}

func TestManagerBorrowFailures(t *testing.T) {
	mgr, hook := newManager(t)
	signIn(t, mgr)

	_, err := mgr.Borrow(1)
	require.NoError(t, err)

	_, err = mgr.Borrow(1)
	assert.ErrorIs(t, err, ErrAlreadyBorrowed)
	assert.True(t, IsBorrowFailure(err))
	assert.Equal(t, "borrow refused", hook.LastEntry().Message)

	_, err = mgr.Borrow(4)
	assert.ErrorIs(t, err, ErrNotAvailable)

	_, err = mgr.Borrow(2)
	require.NoError(t, err)
	_, err = mgr.Borrow(3)
	assert.ErrorIs(t, err, ErrBorrowLimitExceeded)

	history, err := mgr.History()
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

// Logout does not hand books back or restock the library. This is the
// current product behaviour; changing it should be a deliberate decision.
func TestManagerLogoutKeepsInventory(t *testing.T) {
	mgr, _ := newManager(t)
	signIn(t, mgr)

	_, err := mgr.Borrow(1)
	require.NoError(t, err)
	_, err = mgr.Borrow(2)
	require.NoError(t, err)
	require.NoError(t, mgr.SetView(ViewBorrowed))
	libBefore, borrowedBefore := mgr.Snapshot()

	require.NoError(t, mgr.Logout())

	assert.Equal(t, AuthLogin, mgr.State())
	assert.Empty(t, mgr.UserName())
	assert.Empty(t, mgr.Mobile())
	assert.Equal(t, ViewLibrary, mgr.View())

	libAfter, borrowedAfter := mgr.Snapshot()
	assert.Equal(t, libBefore, libAfter)
	assert.Equal(t, borrowedBefore, borrowedAfter)

	// The next person to sign in inherits the borrowed list and the limit.
	require.NoError(t, mgr.Login("Ravi", "9123456780"))
	require.NoError(t, mgr.VerifyOTP("654321"))
	_, err = mgr.Borrow(3)
	assert.ErrorIs(t, err, ErrBorrowLimitExceeded)

	_, returned, err := mgr.Return(2)
	require.NoError(t, err)
	assert.True(t, returned)
	assert.Equal(t, 1, libraryCopies(mgr, 2))
}

func TestManagerHistoryShowsInheritedReturn(t *testing.T) {
	mgr, _ := newManager(t)
	signIn(t, mgr)

	_, err := mgr.Borrow(3)
	require.NoError(t, err)
	first := mgr.SessionID()
	require.NoError(t, mgr.Logout())

	require.NoError(t, mgr.Login("Ravi", "9123456780"))
	require.NoError(t, mgr.VerifyOTP("654321"))
	require.NotEqual(t, first, mgr.SessionID())

	_, returned, err := mgr.Return(3)
	require.NoError(t, err)
	require.True(t, returned)

	history, err := mgr.History()
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Beowulf", history[0].Title)
	assert.Equal(t, first, history[0].SessionID)
	assert.Equal(t, mgr.SessionID(), history[0].ReturnSessionID)
	assert.True(t, history[0].Returned())
}

func TestManagerGenresAndCatalog(t *testing.T) {
	mgr, _ := newManager(t)

	assert.Equal(t, []string{"all", "Sci-Fi", "Romance", "Epic"}, mgr.Genres())

	catalog, err := mgr.Catalog()
	require.NoError(t, err)
	assert.Len(t, catalog, 4)
}

func TestSeededManager(t *testing.T) {
	logger, _ := test.NewNullLogger()
	mgr, err := NewSeededManager(MemoryDSN, logger)
	require.NoError(t, err)
	t.Cleanup(func() { mgr.Close() })

	seed, err := SeedBooks()
	require.NoError(t, err)

	total := 0
	for _, b := range seed {
		total += b.Copies
	}
	lib, borrowed := mgr.Snapshot()
	got := 0
	for _, b := range lib {
		got += b.Copies
	}
	assert.Equal(t, total, got+len(borrowed))
}
