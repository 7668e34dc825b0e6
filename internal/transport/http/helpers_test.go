package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"quiz-grading-service/internal/app"
	"quiz-grading-service/internal/auth"
	"quiz-grading-service/internal/domain"
	"quiz-grading-service/internal/infra/memory"
)

var (
	owner = domain.Principal{ID: "admin-1", Role: domain.RoleAdmin}
	rival = domain.Principal{ID: "admin-2", Role: domain.RoleAdmin}
	taker = domain.Principal{ID: "user-1", Role: domain.RoleUser}
)

type testServer struct {
	*httptest.Server
	authn *auth.Authenticator
	store *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memory.NewStore()
	store.PutUser(domain.UserProfile{ID: taker.ID, Name: "Tess", Email: "tess@example.com", Role: domain.RoleUser})
	cache := memory.NewQuizRepository(app.QuizLoaderFunc(store.GetQuiz), time.Minute)
	feed := memory.NewResultFeed()

	catalog := app.NewCatalogService(store, store, app.WithQuizCache(cache))
	grading := app.NewGradingService(cache, store, feed)
	results := app.NewResultService(store, store, store)
	authn := auth.NewAuthenticator("test-secret", time.Hour)

	router := NewRouter(NewAPI(catalog, grading, results), NewWSHandler(catalog, feed), authn, nil)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, authn: authn, store: store}
}

func (s *testServer) token(t *testing.T, p domain.Principal) string {
	t.Helper()
	tok, err := s.authn.IssueToken(p)
	require.NoError(t, err)
	return tok
}

// do sends body as JSON and decodes the response into out when out is non-nil.
func (s *testServer) do(t *testing.T, p domain.Principal, method, path string, body any, out any) int {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if p.ID != "" {
		req.Header.Set("Authorization", "Bearer "+s.token(t, p))
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func sampleSpec() map[string]any {
	return map[string]any{
		"title":       "Capitals",
		"description": "geography warmup",
		"questions": []map[string]any{
			{
				"id":           "q1",
				"questionText": "Capital of France?",
				"points":       1,
				"options": []map[string]any{
					{"id": "o1", "text": "Paris", "isCorrect": true},
					{"id": "o2", "text": "Lyon", "isCorrect": false},
				},
			},
			{
				"id":           "q2",
				"questionText": "Capital of Japan?",
				"points":       3,
				"options": []map[string]any{
					{"id": "o1", "text": "Osaka", "isCorrect": false},
					{"id": "o2", "text": "Tokyo", "isCorrect": true},
				},
			},
		},
	}
}
