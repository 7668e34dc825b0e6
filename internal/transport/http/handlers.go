package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"quiz-grading-service/internal/app"
	"quiz-grading-service/internal/auth"
	"quiz-grading-service/internal/domain"
	"quiz-grading-service/internal/policy"
)

// API exposes the catalog, grading and result services over JSON.
type API struct {
	catalog *app.CatalogService
	grading *app.GradingService
	results *app.ResultService
}

func NewAPI(catalog *app.CatalogService, grading *app.GradingService, results *app.ResultService) *API {
	return &API{catalog: catalog, grading: grading, results: results}
}

// submissionResponse is the grading output returned to the quiz-taker.
type submissionResponse struct {
	Score          int                    `json:"score"`
	TotalQuestions int                    `json:"totalQuestions"`
	Answers        []domain.AnswerOutcome `json:"answers"`
}

func (a *API) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := a.catalog.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (a *API) GetQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := a.catalog.Get(r.Context(), chi.URLParam(r, "id"), true)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (a *API) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	var submission domain.Submission
	if !decodeJSON(w, r, &submission) {
		return
	}
	result, err := a.grading.Submit(r.Context(), principal(r), chi.URLParam(r, "id"), submission)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, submissionResponse{
		Score:          result.Score,
		TotalQuestions: result.TotalQuestions,
		Answers:        result.Answers,
	})
}

func (a *API) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	var spec domain.QuizSpec
	if !decodeJSON(w, r, &spec) {
		return
	}
	quiz, err := a.catalog.Create(r.Context(), principal(r), spec)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

func (a *API) GetOwnedQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := a.catalog.GetOwned(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (a *API) UpdateQuiz(w http.ResponseWriter, r *http.Request) {
	var patch domain.QuizPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	quiz, err := a.catalog.Update(r.Context(), principal(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (a *API) DeleteQuiz(w http.ResponseWriter, r *http.Request) {
	if err := a.catalog.Delete(r.Context(), principal(r), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Msg: "Quiz deleted"})
}

func (a *API) AllResults(w http.ResponseWriter, r *http.Request) {
	views, err := a.results.ListAll(r.Context(), principal(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (a *API) QuizResults(w http.ResponseWriter, r *http.Request) {
	views, err := a.results.ListByQuiz(r.Context(), principal(r), chi.URLParam(r, "quizId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (a *API) QuizStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.results.Stats(r.Context(), principal(r), chi.URLParam(r, "quizId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (a *API) MyResults(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	views, err := a.results.ListByUser(r.Context(), p, p.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// requireAdmin guards the admin routes before any body is decoded.
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !policy.CanViewAllResults(principal(r)) {
			writeJSON(w, http.StatusForbidden, errorResponse{Error: "access denied, admins only", Kind: domain.KindForbidden.String()})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func principal(r *http.Request) domain.Principal {
	p, _ := auth.PrincipalFromContext(r.Context())
	return p
}
