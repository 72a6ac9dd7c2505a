package prefs

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Sternrassler/unsplash-client/pkg/observe"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Preference keys.
const (
	KeyAccessToken = "access_token"
	KeyUsername    = "username"
	KeyLocale      = "locale"
)

// LoginState is the published login status.
type LoginState struct {
	LoggedIn bool
	Username string
}

// Session tracks the logged-in user on top of a Store and publishes every
// change of the login state.
type Session struct {
	store  Store
	state  *observe.Subject[LoginState]
	logger zerolog.Logger
}

// NewSession loads the persisted login state from store.
func NewSession(store Store) (*Session, error) {
	s := &Session{
		store:  store,
		logger: log.With().Str("component", "prefs").Logger(),
	}

	initial, err := s.load()
	if err != nil {
		return nil, err
	}
	s.state = observe.NewSubject(initial)
	return s, nil
}

func (s *Session) load() (LoginState, error) {
	token, err := s.store.Get(KeyAccessToken)
	if errors.Is(err, ErrNotFound) {
		return LoginState{}, nil
	}
	if err != nil {
		return LoginState{}, fmt.Errorf("read access token: %w", err)
	}

	username, err := s.store.Get(KeyUsername)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return LoginState{}, fmt.Errorf("read username: %w", err)
	}
	return LoginState{LoggedIn: token != "", Username: username}, nil
}

// Login persists the user token and publishes the new state.
func (s *Session) Login(token, username string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("access token is required")
	}

	if err := s.store.Set(KeyAccessToken, token); err != nil {
		return fmt.Errorf("store access token: %w", err)
	}
	if err := s.store.Set(KeyUsername, username); err != nil {
		return fmt.Errorf("store username: %w", err)
	}

	s.state.Publish(LoginState{LoggedIn: true, Username: username})
	s.logger.Info().Str("username", username).Msg("Logged in")
	return nil
}

// Logout removes the stored credentials and publishes the logged-out state.
func (s *Session) Logout() error {
	if err := s.store.Delete(KeyAccessToken); err != nil {
		return fmt.Errorf("delete access token: %w", err)
	}
	if err := s.store.Delete(KeyUsername); err != nil {
		return fmt.Errorf("delete username: %w", err)
	}

	s.state.Publish(LoginState{})
	s.logger.Info().Msg("Logged out")
	return nil
}

// AccessToken returns the stored user token, or "" when logged out.
func (s *Session) AccessToken() string {
	token, err := s.store.Get(KeyAccessToken)
	if err != nil {
		return ""
	}
	return token
}

// State returns the current login state.
func (s *Session) State() LoginState {
	return s.state.Value()
}

// Subscribe streams login state changes, starting with the current state.
func (s *Session) Subscribe() (<-chan LoginState, func()) {
	return s.state.Subscribe()
}

// Close ends all subscriptions. The store is owned by the caller.
func (s *Session) Close() {
	s.state.Close()
}
