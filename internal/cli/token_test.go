package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"quiz-grading-service/internal/auth"
	"quiz-grading-service/internal/config"
	"quiz-grading-service/internal/domain"
)

func TestIssueTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("auth:\n  jwtSecret: cli-secret\n  tokenTTL: 1h\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	token, err := issueToken(context.Background(), path, tokenOptions{userID: "admin-1", role: "admin", name: "Ada"})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	p, err := auth.NewAuthenticator("cli-secret", time.Hour).Parse(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if p.ID != "admin-1" || p.Role != domain.RoleAdmin {
		t.Fatalf("unexpected principal %+v", p)
	}

	if _, err := issueToken(context.Background(), path, tokenOptions{userID: "u", role: "root"}); err == nil {
		t.Fatalf("expected unknown role to fail")
	}
}

func TestOpenMemoryBackend(t *testing.T) {
	b, err := openBackend(context.Background(), mustConfig(t))
	if err != nil {
		t.Fatalf("open backend: %v", err)
	}
	defer b.Close()
	if err := b.upsert(context.Background(), domain.UserProfile{ID: "u1", Name: "Uma"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	users, err := b.users.LookupUsers(context.Background(), []string{"u1", "ghost"})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(users) != 1 || users["u1"].Name != "Uma" {
		t.Fatalf("unexpected users %+v", users)
	}
}

func mustConfig(t *testing.T) config.Config {
	t.Helper()
	var cfg config.Config
	cfg.Storage.Driver = config.DriverMemory
	cfg.Feed.Driver = config.DriverMemory
	cfg.Auth.JWTSecret = "x"
	return cfg
}

func TestMemoryBackendLearnsProfilesFromTokens(t *testing.T) {
	ctx := context.Background()
	b, err := openBackend(ctx, mustConfig(t))
	if err != nil {
		t.Fatalf("open backend: %v", err)
	}
	defer b.Close()

	authn := auth.NewAuthenticator("x", time.Hour, auth.WithProfileSink(b.upsert))
	token, err := authn.IssueProfileToken(domain.UserProfile{ID: "u7", Name: "Nia", Email: "nia@example.com", Role: domain.RoleUser})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	authn.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).ServeHTTP(httptest.NewRecorder(), req)

	users, err := b.users.LookupUsers(ctx, []string{"u7"})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if users["u7"].Name != "Nia" || users["u7"].Email != "nia@example.com" {
		t.Fatalf("expected profile from token claims, got %+v", users)
	}
}
