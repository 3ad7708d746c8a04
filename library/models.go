package library

import "time"

// Book is a catalog record. Copies is the mutable stock count; every other
// field is metadata that never changes for the lifetime of the record.
type Book struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author,omitempty"`
	Genre  string `json:"genre,omitempty"`
	Year   int    `json:"year,omitempty"`
	Copies int    `json:"copies"`
	Image  string `json:"image"`
}

// AuthState is the step of the sign-in flow the session is in.
type AuthState int

const (
	AuthLogin AuthState = iota
	AuthOTP
	AuthAuthenticated
)

func (s AuthState) String() string {
	switch s {
	case AuthLogin:
		return "login"
	case AuthOTP:
		return "otp"
	case AuthAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// View selects which dashboard list is shown once authenticated.
type View int

const (
	ViewLibrary View = iota
	ViewBorrowed
)

func (v View) String() string {
	if v == ViewBorrowed {
		return "borrowed"
	}
	return "library"
}

// Checkout is one row of the circulation journal. ReturnTime is zero while
// the book is still out.
type Checkout struct {
	ID           int64     `json:"id"`
	SessionID    string    `json:"session_id"`
	MemberName   string    `json:"member_name"`
	BookID       int64     `json:"book_id"`
	Title        string    `json:"title"`
	CheckoutTime time.Time `json:"checkout_time"`
	ReturnTime   time.Time `json:"return_time"`

	// ReturnSessionID is the session that brought the book back, which may
	// differ from SessionID when a later sign-in inherits the loan.
	ReturnSessionID string `json:"return_session_id,omitempty"`
}

// Returned reports whether the book has come back.
func (c *Checkout) Returned() bool { return !c.ReturnTime.IsZero() }
