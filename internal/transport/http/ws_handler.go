package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"uniquest/internal/app"
	"uniquest/internal/attempt"
)

// WSHandler runs quiz attempts over a websocket. Each connection owns exactly
// one attempt, and all transitions for it happen on the connection's read
// loop, so attempt state needs no locking of its own.
type WSHandler struct {
	service  *app.QuizService
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		logger:  logger,
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

type answerPayload struct {
	Value string `json:"value"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeAttempt upgrades the request, starts an attempt over the requested
// quiz, and processes learner actions until the connection closes. The
// attempt is dropped when the learner disconnects; attempts never survive
// the session.
func (h *WSHandler) ServeAttempt(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	if quizID == "" {
		http.Error(w, "missing quizId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	attemptID, a, err := h.service.StartAttempt(r.Context(), quizID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer h.service.EndAttempt(attemptID)

	h.sendState(conn, attemptID, a)

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.sendError(conn, "invalid answer payload")
				continue
			}
			a.Answer(payload.Value)
			h.sendState(conn, attemptID, a)
		case "advance":
			wasInProgress := a.State() == attempt.StateInProgress
			a.Advance()
			h.sendState(conn, attemptID, a)
			if wasInProgress && a.State() == attempt.StateSubmitted {
				_ = conn.WriteJSON(outboundMessage{Type: "result", Payload: app.ViewResult(attemptID, a)})
			}
		case "retreat":
			a.Retreat()
			h.sendState(conn, attemptID, a)
		case "restart":
			a.Restart()
			h.sendState(conn, attemptID, a)
		default:
			h.sendError(conn, "unsupported message type")
		}
	}
}

func (h *WSHandler) sendState(conn *websocket.Conn, attemptID string, a *attempt.Attempt) {
	if err := conn.WriteJSON(outboundMessage{Type: "state", Payload: app.ViewAttempt(attemptID, a)}); err != nil {
		h.logger.Error("ws write error", "err", err)
	}
}

func (h *WSHandler) sendError(conn *websocket.Conn, message string) {
	_ = conn.WriteJSON(outboundMessage{Type: "error", Payload: errorPayload{Message: message}})
}
