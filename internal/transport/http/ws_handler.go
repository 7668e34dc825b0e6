package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"quiz-grading-service/internal/app"
	"quiz-grading-service/internal/domain"
	"quiz-grading-service/internal/policy"
)

// WSHandler streams newly graded results of one quiz to admin viewers.
type WSHandler struct {
	catalog  *app.CatalogService
	feed     app.ResultFeed
	upgrader websocket.Upgrader
}

func NewWSHandler(catalog *app.CatalogService, feed app.ResultFeed) *WSHandler {
	return &WSHandler{
		catalog: catalog,
		feed:    feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type subscribedPayload struct {
	QuizID string `json:"quizId"`
	Title  string `json:"title"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS checks access before upgrading, then relays the quiz's result feed
// until the client disconnects.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}
	if !policy.CanViewAllResults(principal(r)) {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "access denied, admins only", Kind: domain.KindForbidden.String()})
		return
	}
	quiz, err := h.catalog.Get(r.Context(), quizID, true)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	updates, cancel, err := h.feed.Subscribe(r.Context(), quizID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// single writer; gorilla connections do not support concurrent writes
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case result, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "result", Payload: result}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	send <- outboundMessage[any]{Type: "subscribed", Payload: subscribedPayload{QuizID: quiz.ID, Title: quiz.Title}}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "ping":
			send <- outboundMessage[any]{Type: "pong", Payload: struct{}{}}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
