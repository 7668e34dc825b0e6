package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"quiz-grading-service/internal/auth"
)

// NewRouter wires the REST API and the results websocket behind bearer auth.
func NewRouter(api *API, ws *WSHandler, authn *auth.Authenticator, allowedOrigins []string) http.Handler {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(authn.Middleware)

		r.Route("/api/quiz", func(r chi.Router) {
			r.Get("/", api.ListQuizzes)
			r.Get("/{id}", api.GetQuiz)
			r.Post("/submit/{id}", api.SubmitQuiz)
		})

		r.Route("/api/admin", func(r chi.Router) {
			r.Use(requireAdmin)
			r.Post("/quiz", api.CreateQuiz)
			r.Get("/quiz/{id}", api.GetOwnedQuiz)
			r.Put("/quiz/{id}", api.UpdateQuiz)
			r.Delete("/quiz/{id}", api.DeleteQuiz)
			r.Get("/results", api.AllResults)
			r.Get("/results/{quizId}", api.QuizResults)
			r.Get("/results/{quizId}/summary", api.QuizStats)
		})

		r.Get("/api/user/results", api.MyResults)
		r.Get("/ws/results", ws.ServeWS)
	})

	return r
}
