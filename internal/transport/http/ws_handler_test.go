package http

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"uniquest/internal/app"
	"uniquest/internal/domain"
	"uniquest/internal/infra/memory"
)

func TestWebSocketAttemptFlow(t *testing.T) {
	server := httptest.NewServer(NewRouter(newWSTestService(t), slog.Default()))
	defer server.Close()

	conn := dialAttempt(t, server.URL, "quiz-1")
	defer conn.Close()

	// Initial state snapshot.
	_, payload := readNext(conn, t, "state")
	if payload["currentIndex"].(float64) != 0 {
		t.Fatalf("expected currentIndex 0, got %v", payload["currentIndex"])
	}
	if payload["state"] != "in_progress" {
		t.Fatalf("expected in_progress, got %v", payload["state"])
	}
	question := payload["question"].(map[string]any)
	if question["correct_answer"] != "" {
		t.Fatalf("answer key must not be sent mid-attempt, got %v", question["correct_answer"])
	}

	// Answer question 1 and advance to question 2.
	writeMsg(conn, t, "answer", map[string]any{"value": "4"})
	readNext(conn, t, "state")
	writeMsg(conn, t, "advance", nil)
	_, payload = readNext(conn, t, "state")
	if payload["currentIndex"].(float64) != 1 {
		t.Fatalf("expected currentIndex 1, got %v", payload["currentIndex"])
	}

	// Advancing on the last question submits and yields a result.
	writeMsg(conn, t, "advance", nil)
	_, payload = readNext(conn, t, "state")
	if payload["state"] != "submitted" {
		t.Fatalf("expected submitted, got %v", payload["state"])
	}
	_, payload = readNext(conn, t, "result")
	summary := payload["summary"].(map[string]any)
	if summary["score"].(float64) != 1 || summary["percentage"].(float64) != 50 {
		t.Fatalf("unexpected summary: %v", summary)
	}
	review := payload["review"].([]any)
	if len(review) != 2 {
		t.Fatalf("expected 2 review items, got %d", len(review))
	}

	// Restart yields a fresh attempt over the same quiz.
	writeMsg(conn, t, "restart", nil)
	_, payload = readNext(conn, t, "state")
	if payload["state"] != "in_progress" || payload["currentIndex"].(float64) != 0 {
		t.Fatalf("expected fresh attempt after restart, got %v", payload)
	}
	if len(payload["answers"].(map[string]any)) != 0 {
		t.Fatalf("expected no answers after restart, got %v", payload["answers"])
	}
}

func TestWebSocketUnknownQuiz(t *testing.T) {
	server := httptest.NewServer(NewRouter(newWSTestService(t), slog.Default()))
	defer server.Close()

	conn := dialAttempt(t, server.URL, "missing")
	defer conn.Close()

	msgType, payload := readNext(conn, t, "")
	if msgType != "error" {
		t.Fatalf("expected error, got %s", msgType)
	}
	if payload["message"] == "" {
		t.Fatal("expected an error message")
	}
}

func TestWebSocketRetreatAtStartIsNoop(t *testing.T) {
	server := httptest.NewServer(NewRouter(newWSTestService(t), slog.Default()))
	defer server.Close()

	conn := dialAttempt(t, server.URL, "quiz-1")
	defer conn.Close()

	readNext(conn, t, "state")
	writeMsg(conn, t, "retreat", nil)
	_, payload := readNext(conn, t, "state")
	if payload["currentIndex"].(float64) != 0 {
		t.Fatalf("retreat at index 0 must stay at 0, got %v", payload["currentIndex"])
	}
}

func dialAttempt(t *testing.T, serverURL, quizID string) *websocket.Conn {
	t.Helper()
	u := "ws" + serverURL[len("http"):] + "/ws/attempt?quizId=" + quizID
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func writeMsg(conn *websocket.Conn, t *testing.T, msgType string, payload map[string]any) {
	t.Helper()
	msg := map[string]any{"type": msgType}
	if payload != nil {
		msg["payload"] = payload
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

func readNext(conn *websocket.Conn, t *testing.T, expect string) (string, map[string]any) {
	t.Helper()
	var msg struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read json: %v", err)
	}
	if expect != "" && msg.Type != expect {
		t.Fatalf("expected type %s, got %s", expect, msg.Type)
	}
	return msg.Type, msg.Payload
}

func newWSTestService(t *testing.T) *app.QuizService {
	t.Helper()
	store := memory.NewQuizStore(slog.Default())
	if err := store.Add(context.Background(), wsSampleQuiz()); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return app.NewQuizService(store, nil, slog.Default())
}

func wsSampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:    "quiz-1",
		Title: "Arithmetic",
		Questions: []domain.Question{
			{
				ID:            "q1",
				Question:      "What is 2 + 2?",
				Type:          domain.TypeShortAnswer,
				CorrectAnswer: "4",
				Explanation:   "Basic arithmetic.",
			},
			{
				ID:            "q2",
				Question:      "What is 3 + 3?",
				Type:          domain.TypeShortAnswer,
				CorrectAnswer: "6",
				Explanation:   "Basic arithmetic.",
			},
		},
	}
}
