package auth

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"vitrine/internal/config"
)

func TestUserStore(t *testing.T) {
	t.Run("CreatesDefaultAdmin", func(t *testing.T) {
		usersFile := filepath.Join(t.TempDir(), "users.toml")

		store, err := NewUserStore(usersFile)
		if err != nil {
			t.Fatalf("Failed to create user store: %v", err)
		}

		user := store.GetUser("admin@localhost")
		if user == nil {
			t.Fatal("Expected default admin account")
		}
		if user.Password != "" {
			t.Error("GetUser must not expose the password hash")
		}
		if _, err := os.Stat(usersFile); err != nil {
			t.Errorf("Expected users file to be written: %v", err)
		}
	})

	t.Run("HashesPlaintextOnLoad", func(t *testing.T) {
		usersFile := filepath.Join(t.TempDir(), "users.toml")
		content := `
[[users]]
email = "owner@example.com"
password = "hunter2secret"
created = "2026-01-01 00:00:00"
`
		if err := os.WriteFile(usersFile, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to seed users file: %v", err)
		}

		store, err := NewUserStore(usersFile)
		if err != nil {
			t.Fatalf("Failed to create user store: %v", err)
		}

		if !store.Authenticate("owner@example.com", "hunter2secret") {
			t.Error("Expected authentication with seeded password")
		}
		if store.Authenticate("owner@example.com", "wrong") {
			t.Error("Expected authentication to fail with wrong password")
		}
		if store.Authenticate("nobody@example.com", "hunter2secret") {
			t.Error("Expected authentication to fail for unknown user")
		}

		// The file no longer carries the plaintext
		data, err := os.ReadFile(usersFile)
		if err != nil {
			t.Fatalf("Failed to re-read users file: %v", err)
		}
		if strings.Contains(string(data), "hunter2secret") {
			t.Error("Expected plaintext password replaced by a hash")
		}
		if !strings.Contains(string(data), "$2") {
			t.Error("Expected bcrypt hash in users file")
		}
	})

	t.Run("EmailNormalized", func(t *testing.T) {
		usersFile := filepath.Join(t.TempDir(), "users.toml")
		content := `
[[users]]
email = "Owner@Example.COM"
password = "pw123456"
`
		if err := os.WriteFile(usersFile, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to seed users file: %v", err)
		}

		store, err := NewUserStore(usersFile)
		if err != nil {
			t.Fatalf("Failed to create user store: %v", err)
		}
		if !store.Authenticate("  owner@example.com ", "pw123456") {
			t.Error("Expected case-insensitive, trimmed email lookup")
		}
	})
}

func TestSessionManager(t *testing.T) {
	t.Run("CreateAndGet", func(t *testing.T) {
		sm := NewSessionManager(time.Hour, false)

		session, err := sm.CreateSession("owner@example.com")
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if len(session.ID) != 64 {
			t.Errorf("Expected 64-char session ID, got %d chars", len(session.ID))
		}

		got, valid := sm.GetSession(session.ID)
		if !valid {
			t.Fatal("Expected valid session")
		}
		if got.Email != "owner@example.com" {
			t.Errorf("Expected session email preserved, got %s", got.Email)
		}
	})

	t.Run("ExpiredSessionRejected", func(t *testing.T) {
		sm := NewSessionManager(-time.Minute, false)

		session, err := sm.CreateSession("owner@example.com")
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if _, valid := sm.GetSession(session.ID); valid {
			t.Error("Expected expired session to be rejected")
		}
		if sm.RefreshSession(session.ID) {
			t.Error("Expected refresh of expired session to fail")
		}
	})

	t.Run("DeleteSession", func(t *testing.T) {
		sm := NewSessionManager(time.Hour, false)

		session, _ := sm.CreateSession("owner@example.com")
		sm.DeleteSession(session.ID)
		if _, valid := sm.GetSession(session.ID); valid {
			t.Error("Expected deleted session to be gone")
		}
	})

	t.Run("CookieRoundTrip", func(t *testing.T) {
		sm := NewSessionManager(time.Hour, false)
		session, _ := sm.CreateSession("owner@example.com")

		rec := httptest.NewRecorder()
		sm.SetSessionCookie(rec, session)

		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		for _, c := range rec.Result().Cookies() {
			req.AddCookie(c)
		}

		got, valid := sm.GetSessionFromRequest(req)
		if !valid || got.ID != session.ID {
			t.Error("Expected session recovered from cookie")
		}
	})

	t.Run("NoCookie", func(t *testing.T) {
		sm := NewSessionManager(time.Hour, false)
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if _, valid := sm.GetSessionFromRequest(req); valid {
			t.Error("Expected no session without cookie")
		}
	})
}

func TestService(t *testing.T) {
	cfg := &config.AuthConfig{
		UsersFilePath:   filepath.Join(t.TempDir(), "users.toml"),
		SessionDuration: "1h",
	}
	content := `
[[users]]
email = "owner@example.com"
password = "pw123456"
`
	if err := os.WriteFile(cfg.UsersFilePath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to seed users file: %v", err)
	}

	svc, err := NewService(cfg)
	if err != nil {
		t.Fatalf("Failed to create auth service: %v", err)
	}

	t.Run("LoginAndLogout", func(t *testing.T) {
		session, err := svc.Login("owner@example.com", "pw123456")
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}

		if _, valid := svc.ValidateSession(session.ID); !valid {
			t.Error("Expected session valid after login")
		}

		svc.Logout(session.ID)
		if _, valid := svc.ValidateSession(session.ID); valid {
			t.Error("Expected session invalid after logout")
		}
	})

	t.Run("BadCredentials", func(t *testing.T) {
		if _, err := svc.Login("owner@example.com", "wrong"); err == nil {
			t.Error("Expected login failure with wrong password")
		}
	})

	t.Run("BadDuration", func(t *testing.T) {
		bad := &config.AuthConfig{
			UsersFilePath:   cfg.UsersFilePath,
			SessionDuration: "never",
		}
		if _, err := NewService(bad); err == nil {
			t.Error("Expected error for unparseable session duration")
		}
	})
}
