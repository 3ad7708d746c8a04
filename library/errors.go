package library

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrBorrowLimitExceeded = fmt.Errorf("you can borrow only %d books", MaxBorrowed)
	ErrAlreadyBorrowed     = errors.New("you already borrowed this book")
	ErrNotAvailable        = errors.New("book is not available in the library")
	ErrIncompleteOTP       = errors.New("please enter complete 6-digit OTP")
	ErrInvalidTransition   = errors.New("action not allowed in current state")
	ErrNotAuthenticated    = errors.New("not signed in")
)

// ValidationError is a field-level problem with the login form.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects every failing field of one submission.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, e := range v {
		msgs = append(msgs, e.Field+": "+e.Message)
	}
	return "invalid input: " + strings.Join(msgs, "; ")
}

// For returns the message for field, or "" if that field passed.
func (v ValidationErrors) For(field string) string {
	for _, e := range v {
		if e.Field == field {
			return e.Message
		}
	}
	return ""
}
