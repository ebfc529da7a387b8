package auth

import (
	"fmt"
	"time"

	"vitrine/internal/config"
)

// Service gates the admin panel. Credential verification and session
// issuance are the whole contract: on success a session cookie unlocks
// the admin routes, on failure the caller reports the error and the
// user stays on the login view.
type Service struct {
	config         *config.AuthConfig
	userStore      *UserStore
	sessionManager *SessionManager
}

// NewService creates the authentication service.
func NewService(cfg *config.AuthConfig) (*Service, error) {
	duration, err := time.ParseDuration(cfg.SessionDuration)
	if err != nil {
		return nil, fmt.Errorf("invalid session duration: %w", err)
	}

	userStore, err := NewUserStore(cfg.UsersFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create user store: %w", err)
	}

	return &Service{
		config:         cfg,
		userStore:      userStore,
		sessionManager: NewSessionManager(duration, cfg.SecureCookies),
	}, nil
}

// Login verifies the email and password and creates a session.
func (s *Service) Login(email, password string) (*Session, error) {
	if !s.userStore.Authenticate(email, password) {
		return nil, fmt.Errorf("invalid credentials")
	}

	session, err := s.sessionManager.CreateSession(email)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return session, nil
}

// Logout invalidates a session.
func (s *Service) Logout(sessionID string) {
	s.sessionManager.DeleteSession(sessionID)
}

// ValidateSession checks if a session ID is valid.
func (s *Service) ValidateSession(sessionID string) (*Session, bool) {
	return s.sessionManager.GetSession(sessionID)
}

// RefreshSession extends a session's expiration.
func (s *Service) RefreshSession(sessionID string) bool {
	return s.sessionManager.RefreshSession(sessionID)
}

// GetSessionManager returns the session manager (for middleware).
func (s *Service) GetSessionManager() *SessionManager {
	return s.sessionManager
}
