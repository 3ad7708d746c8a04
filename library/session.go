package library

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Session walks the sign-in flow login -> otp -> authenticated and holds the
// user's identity while signed in.
type Session struct {
	mu     sync.RWMutex
	state  AuthState
	name   string
	mobile string
	view   View
	id     uuid.UUID
}

// NewSession returns a session at the login step.
func NewSession() *Session {
	return &Session{state: AuthLogin, view: ViewLibrary}
}

// Login validates the trimmed name and mobile and moves to the OTP step.
// On a validation failure the returned error is a ValidationErrors and the
// session stays at login.
func (s *Session) Login(name, mobile string) error {
	form := loginForm{Name: strings.TrimSpace(name), Mobile: strings.TrimSpace(mobile)}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != AuthLogin {
		return fmt.Errorf("login from %s: %w", s.state, ErrInvalidTransition)
	}
	if err := validateLogin(form); err != nil {
		return err
	}

	s.name = form.Name
	s.mobile = form.Mobile
	s.state = AuthOTP
	return nil
}

// VerifyOTP accepts any complete 6-digit code. This is a demo step, not a
// real verification.
func (s *Session) VerifyOTP(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != AuthOTP {
		return fmt.Errorf("verify otp from %s: %w", s.state, ErrInvalidTransition)
	}
	if !ValidOTP(code) {
		return ErrIncompleteOTP
	}

	s.state = AuthAuthenticated
	s.view = ViewLibrary
	s.id = uuid.New()
	return nil
}

// Back abandons the OTP step and returns to login.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != AuthOTP {
		return fmt.Errorf("back from %s: %w", s.state, ErrInvalidTransition)
	}
	s.reset()
	return nil
}

// Logout ends the authenticated session. Inventory is owned elsewhere and is
// left as it is.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != AuthAuthenticated {
		return fmt.Errorf("logout from %s: %w", s.state, ErrInvalidTransition)
	}
	s.reset()
	return nil
}

func (s *Session) reset() {
	s.state = AuthLogin
	s.name = ""
	s.mobile = ""
	s.view = ViewLibrary
	s.id = uuid.Nil
}

// SetView switches the dashboard list.
func (s *Session) SetView(v View) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != AuthAuthenticated {
		return ErrNotAuthenticated
	}
	s.view = v
	return nil
}

func (s *Session) State() AuthState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *Session) Mobile() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mobile
}

func (s *Session) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

// ID is the identifier of the current authenticated session, or "" when
// nobody is signed in.
func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.id == uuid.Nil {
		return ""
	}
	return s.id.String()
}
