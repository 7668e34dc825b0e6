package http

import (
	"encoding/json"
	"log"
	"net/http"

	"quiz-grading-service/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

type messageResponse struct {
	Msg string `json:"msg"`
}

// writeServiceError maps a core error kind onto an HTTP status.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	status := http.StatusInternalServerError
	message := "request failed"
	switch kind {
	case domain.KindNotFound:
		status, message = http.StatusNotFound, err.Error()
	case domain.KindForbidden:
		status, message = http.StatusForbidden, err.Error()
	case domain.KindValidation:
		status, message = http.StatusBadRequest, err.Error()
	case domain.KindInvalidReference:
		status, message = http.StatusUnprocessableEntity, err.Error()
	default:
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	writeJSON(w, status, errorResponse{Error: message, Kind: kind.String()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body", Kind: domain.KindValidation.String()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
