package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ledgerline/crm-api/internal/auth"
	"github.com/ledgerline/crm-api/internal/domain"
)

// Session is what `crmctl login` keeps between runs
type Session struct {
	Server string                      `json:"server"`
	Token  string                      `json:"token"`
	User   *domain.CurrentUserResponse `json:"user,omitempty"`
}

// Caller converts the signed-in user for row action gating
func (s *Session) Caller() *auth.UserContext {
	if s == nil || s.User == nil {
		return nil
	}
	return &auth.UserContext{
		UserID:     s.User.ID,
		Email:      s.User.Email,
		FullName:   s.User.FullName,
		Permission: s.User.Permission,
		System:     s.User.System,
	}
}

// DefaultSessionPath is ~/.crmctl/session.json
func DefaultSessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".crmctl", "session.json")
	}
	return filepath.Join(home, ".crmctl", "session.json")
}

// LoadSession reads path. A missing file is an empty session.
func LoadSession(path string) (*Session, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Session{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parsing session %s: %w", path, err)
	}
	return &s, nil
}

// Save writes the session readable by the owner only
func (s *Session) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating session dir: %w", err)
	}
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

// ClearSession removes the session file
func ClearSession(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session: %w", err)
	}
	return nil
}
