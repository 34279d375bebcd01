package auth

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// User is one API account from the user file.
type User struct {
	ID           uuid.UUID `yaml:"id"`
	Username     string    `yaml:"username"`
	PasswordHash string    `yaml:"password_hash"`
	Role         string    `yaml:"role"`
}

type userFile struct {
	Users []User `yaml:"users"`
}

// UserStore serves accounts from a YAML file and keeps issued refresh
// tokens in memory. Tokens do not survive a restart; clients log in
// again, which is acceptable for a single-boiler bridge.
type UserStore struct {
	mu        sync.RWMutex
	byName    map[string]User
	byID      map[uuid.UUID]User
	refreshes map[string]refreshEntry // keyed by token hash
}

type refreshEntry struct {
	userID    uuid.UUID
	expiresAt time.Time
}

// LoadUserStore liest die Benutzerdatei.
func LoadUserStore(path string) (*UserStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read user file: %w", err)
	}

	var file userFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse user file: %w", err)
	}
	if len(file.Users) == 0 {
		return nil, fmt.Errorf("user file %s contains no users", path)
	}

	store := &UserStore{
		byName:    make(map[string]User, len(file.Users)),
		byID:      make(map[uuid.UUID]User, len(file.Users)),
		refreshes: make(map[string]refreshEntry),
	}
	for _, u := range file.Users {
		if u.Username == "" || u.PasswordHash == "" {
			return nil, fmt.Errorf("user file %s: entry without username or password hash", path)
		}
		if u.ID == uuid.Nil {
			return nil, fmt.Errorf("user %q has no id", u.Username)
		}
		if _, dup := store.byName[u.Username]; dup {
			return nil, fmt.Errorf("duplicate user %q", u.Username)
		}
		store.byName[u.Username] = u
		store.byID[u.ID] = u
	}

	return store, nil
}

// GetUserByUsername looks up an account by login name.
func (s *UserStore) GetUserByUsername(username string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byName[username]
	return u, ok
}

// GetUserByID looks up an account by id.
func (s *UserStore) GetUserByID(id uuid.UUID) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	return u, ok
}

// StoreRefreshToken records an issued refresh token hash.
func (s *UserStore) StoreRefreshToken(tokenHash string, userID uuid.UUID, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshes[tokenHash] = refreshEntry{userID: userID, expiresAt: expiresAt}
}

// ConsumeRefreshToken resolves and revokes a refresh token hash in one
// step. Expired tokens are rejected and removed.
func (s *UserStore) ConsumeRefreshToken(tokenHash string) (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.refreshes[tokenHash]
	if !ok {
		return uuid.Nil, false
	}
	delete(s.refreshes, tokenHash)

	if time.Now().After(entry.expiresAt) {
		return uuid.Nil, false
	}
	return entry.userID, true
}

// RevokeRefreshToken drops a refresh token hash, if present.
func (s *UserStore) RevokeRefreshToken(tokenHash string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.refreshes, tokenHash)
}
