// Package auth turns HS256 bearer tokens into domain principals. The core
// trusts the principal it is handed; this package is the only place a
// credential is checked.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"quiz-grading-service/internal/domain"
)

const issuer = "quiz-grading-service"

// ErrUnauthenticated is returned for missing, malformed or expired tokens.
var ErrUnauthenticated = errors.New("unauthenticated")

type Claims struct {
	Role  string `json:"role"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// ProfileSink receives the profile carried by a token with name or email claims.
type ProfileSink func(ctx context.Context, profile domain.UserProfile) error

type Authenticator struct {
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
	profile ProfileSink
}

type Option func(*Authenticator)

// WithProfileSink registers profiles seen on authenticated requests.
func WithProfileSink(sink ProfileSink) Option {
	return func(a *Authenticator) { a.profile = sink }
}

func NewAuthenticator(secret string, ttl time.Duration, opts ...Option) *Authenticator {
	a := &Authenticator{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// IssueToken signs a token for the principal.
func (a *Authenticator) IssueToken(p domain.Principal) (string, error) {
	return a.IssueProfileToken(domain.UserProfile{ID: p.ID, Role: p.Role})
}

// IssueProfileToken signs a token that also carries the user's name and email.
func (a *Authenticator) IssueProfileToken(profile domain.UserProfile) (string, error) {
	p := domain.Principal{ID: profile.ID, Role: profile.Role}
	if p.ID == "" {
		return "", &domain.ValidationError{Field: "principal", Reason: "principal id is required"}
	}
	if _, err := domain.ParseRole(string(p.Role)); err != nil {
		return "", err
	}
	now := a.now()
	claims := &Claims{
		Role:  string(p.Role),
		Name:  profile.Name,
		Email: profile.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Parse verifies the token and returns the principal it names.
func (a *Authenticator) Parse(tokenStr string) (domain.Principal, error) {
	profile, err := a.parseProfile(tokenStr)
	if err != nil {
		return domain.Principal{}, err
	}
	return domain.Principal{ID: profile.ID, Role: profile.Role}, nil
}

func (a *Authenticator) parseProfile(tokenStr string) (domain.UserProfile, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !token.Valid {
		return domain.UserProfile{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	role, err := domain.ParseRole(claims.Role)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return domain.UserProfile{}, fmt.Errorf("%w: missing subject", ErrUnauthenticated)
	}
	return domain.UserProfile{ID: claims.Subject, Name: claims.Name, Email: claims.Email, Role: role}, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// principal in the request context. Websocket clients may pass the token as
// the access_token query parameter. Name and email claims go to the profile
// sink when one is configured.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		profile, err := a.parseProfile(raw)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		if a.profile != nil && (profile.Name != "" || profile.Email != "") {
			if err := a.profile(r.Context(), profile); err != nil {
				log.Printf("record profile %s: %v", profile.ID, err)
			}
		}
		p := domain.Principal{ID: profile.ID, Role: profile.Role}
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return strings.TrimSpace(h[len("bearer "):])
	}
	return r.URL.Query().Get("access_token")
}

type ctxKey struct{}

func WithPrincipal(ctx context.Context, p domain.Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(domain.Principal)
	return p, ok
}
