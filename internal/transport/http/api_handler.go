package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"uniquest/internal/app"
	"uniquest/internal/domain"
)

// RoleHeader carries the caller's role. The tool serves a single trusted
// session, so the gate is a plain header check rather than credentialed auth.
const RoleHeader = "X-Role"

// RoleInstructor is required for quiz creation and deletion.
const RoleInstructor = "instructor"

// APIHandler exposes the authoring and listing operations over REST.
type APIHandler struct {
	service *app.QuizService
	logger  *slog.Logger
}

func NewAPIHandler(service *app.QuizService, logger *slog.Logger) *APIHandler {
	return &APIHandler{service: service, logger: logger}
}

// NewRouter wires the REST and websocket endpoints onto one chi router.
func NewRouter(service *app.QuizService, logger *slog.Logger) *chi.Mux {
	api := NewAPIHandler(service, logger)
	ws := NewWSHandler(service, logger)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", RoleHeader},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Route("/api/quizzes", func(r chi.Router) {
		r.Get("/", api.ListQuizzes)
		r.With(requireRole(RoleInstructor)).Post("/", api.CreateQuiz)
		r.With(requireRole(RoleInstructor)).Delete("/{quizID}", api.DeleteQuiz)
	})
	r.Get("/ws/attempt", ws.ServeAttempt)
	return r
}

// requireRole gates mutating endpoints on the role header.
func requireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get(RoleHeader) != role {
				writeError(w, http.StatusForbidden, "instructor role required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (h *APIHandler) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.service.ListQuizzes(r.Context())
	if err != nil {
		h.logger.Error("list quizzes", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to list quizzes")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"quizzes": quizzes})
}

func (h *APIHandler) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	var params domain.GenerateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	quiz, err := h.service.CreateQuiz(r.Context(), params)
	if err != nil {
		h.writeGenerationError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

func (h *APIHandler) DeleteQuiz(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "quizID")
	if err := h.service.DeleteQuiz(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrQuizNotFound) {
			writeError(w, http.StatusNotFound, "quiz not found")
			return
		}
		h.logger.Error("delete quiz", "quiz", id, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to delete quiz")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeGenerationError maps the authoring error taxonomy onto status codes.
// Validation and insufficient-material failures are the operator's to fix;
// schema and transport failures are upstream problems.
func (h *APIHandler) writeGenerationError(w http.ResponseWriter, err error) {
	var (
		validationErr   *domain.ValidationError
		insufficientErr *domain.InsufficientMaterialError
		schemaErr       *domain.SchemaError
		transportErr    *domain.TransportError
	)
	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusUnprocessableEntity, validationErr.Error())
	case errors.As(err, &insufficientErr):
		writeError(w, http.StatusUnprocessableEntity, insufficientErr.Error())
	case errors.Is(err, domain.ErrGenerationInFlight):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &schemaErr):
		h.logger.Error("generation schema failure", "err", err)
		writeError(w, http.StatusBadGateway, "the generation service returned an unusable response")
	case errors.As(err, &transportErr):
		h.logger.Error("generation transport failure", "err", err)
		writeError(w, http.StatusBadGateway, transportErr.Error())
	default:
		h.logger.Error("generation failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to generate quiz")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
