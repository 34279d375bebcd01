package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func writeUserFile(t *testing.T, users ...User) string {
	t.Helper()

	content := "users:\n"
	for _, u := range users {
		content += fmt.Sprintf("  - id: %s\n    username: %s\n    password_hash: \"%s\"\n    role: %s\n",
			u.ID, u.Username, u.PasswordHash, u.Role)
	}

	path := filepath.Join(t.TempDir(), "users.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write user file: %v", err)
	}
	return path
}

func newTestService(t *testing.T, role string) (*AuthService, string, string) {
	t.Helper()

	password := "correct-horse"
	hash, err := NewPasswordHasher().HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	path := writeUserFile(t, User{
		ID:           uuid.New(),
		Username:     "service",
		PasswordHash: hash,
		Role:         role,
	})

	store, err := LoadUserStore(path)
	if err != nil {
		t.Fatalf("LoadUserStore: %v", err)
	}

	svc := NewAuthService(store, Config{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  time.Minute,
		RefreshTokenTTL: time.Hour,
	}, zap.NewNop())

	return svc, "service", password
}

func TestLoginAndValidate(t *testing.T) {
	svc, username, password := newTestService(t, "admin")

	access, refresh, err := svc.LoginUser(username, password, "127.0.0.1")
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}
	if access == "" || refresh == "" {
		t.Fatal("expected both tokens")
	}

	claims, err := svc.ValidateAccessToken(access)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if claims.Username != username || claims.Role != "admin" {
		t.Errorf("claims = %s/%s, want %s/admin", claims.Username, claims.Role, username)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc, username, _ := newTestService(t, "viewer")

	if _, _, err := svc.LoginUser(username, "wrong", "127.0.0.1"); err == nil {
		t.Fatal("expected error for wrong password")
	}
	if _, _, err := svc.LoginUser("ghost", "wrong", "127.0.0.1"); err == nil {
		t.Fatal("expected error for unknown user")
	}
}

func TestRefreshRotation(t *testing.T) {
	svc, username, password := newTestService(t, "operator")

	_, refresh, err := svc.LoginUser(username, password, "127.0.0.1")
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}

	access2, refresh2, err := svc.RefreshAccessToken(refresh)
	if err != nil {
		t.Fatalf("RefreshAccessToken: %v", err)
	}
	if access2 == "" || refresh2 == "" || refresh2 == refresh {
		t.Fatal("refresh must rotate into a new token pair")
	}

	// The consumed token is gone.
	if _, _, err := svc.RefreshAccessToken(refresh); err == nil {
		t.Fatal("consumed refresh token must be rejected")
	}
}

func TestRevokedRefreshTokenRejected(t *testing.T) {
	svc, username, password := newTestService(t, "operator")

	_, refresh, err := svc.LoginUser(username, password, "127.0.0.1")
	if err != nil {
		t.Fatalf("LoginUser: %v", err)
	}

	svc.RevokeRefreshToken(refresh)
	if _, _, err := svc.RefreshAccessToken(refresh); err == nil {
		t.Fatal("revoked refresh token must be rejected")
	}
}

func TestRolePermissions(t *testing.T) {
	svc, _, _ := newTestService(t, "viewer")

	cases := []struct {
		role string
		want []Permission
	}{
		{"admin", []Permission{PermViewer, PermOperator, PermAdmin}},
		{"operator", []Permission{PermViewer, PermOperator}},
		{"viewer", []Permission{PermViewer}},
		{"unknown", []Permission{PermViewer}},
	}
	for _, c := range cases {
		got := svc.roleToPermissions(c.role)
		if len(got) != len(c.want) {
			t.Errorf("roleToPermissions(%q) = %v, want %v", c.role, got, c.want)
			continue
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Errorf("roleToPermissions(%q)[%d] = %v, want %v", c.role, i, got[i], c.want[i])
			}
		}
	}
}

func TestLoadUserStoreRejectsBadFiles(t *testing.T) {
	if _, err := LoadUserStore(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file must fail")
	}

	empty := filepath.Join(t.TempDir(), "empty.yaml")
	os.WriteFile(empty, []byte("users: []\n"), 0o600)
	if _, err := LoadUserStore(empty); err == nil {
		t.Error("empty user list must fail")
	}

	id := uuid.New()
	dup := writeUserFile(t,
		User{ID: id, Username: "twin", PasswordHash: "x", Role: "viewer"},
		User{ID: uuid.New(), Username: "twin", PasswordHash: "x", Role: "viewer"},
	)
	if _, err := LoadUserStore(dup); err == nil {
		t.Error("duplicate usernames must fail")
	}
}
