// Package genai calls the Gemini generateContent API to turn lecture text
// into a structured quiz. The client performs no retries; retry policy
// belongs to the authoring flow.
package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"uniquest/internal/domain"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-3-flash-preview"
	defaultTimeout = 60 * time.Second
)

// Client is an HTTP client for the generation service.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

// Option configures the client.
type Option func(*Client)

// WithModel overrides the default model name.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithBaseURL points the client at a different endpoint (tests, proxies).
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithTimeout bounds each generation call. Expiry surfaces as a TransportError.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient creates a generation client with the given API key.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		model:      defaultModel,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// generateContent request/response wire types (the slice of the API we use).

type generateRequest struct {
	SystemInstruction content          `json:"systemInstruction"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMIMEType string         `json:"responseMimeType"`
	ResponseSchema   map[string]any `json:"responseSchema"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// quizPayload is the fixed JSON shape the model is instructed to return.
type quizPayload struct {
	QuizTitle string            `json:"quiz_title"`
	Questions []questionPayload `json:"questions"`
}

type questionPayload struct {
	Question      *string  `json:"question"`
	Type          *string  `json:"type"`
	Options       []string `json:"options"`
	CorrectAnswer *string  `json:"correct_answer"`
	Explanation   *string  `json:"explanation"`
}

// Generate sends lecture text and generation parameters to the model and
// parses the structured response into a Quiz. Question ids are assigned
// client-side; ids from the remote are never trusted. The returned count is
// whatever the model produced, not reconciled against the requested count.
func (c *Client) Generate(ctx context.Context, params domain.GenerateParams) (domain.Quiz, error) {
	if err := params.Validate(); err != nil {
		return domain.Quiz{}, err
	}

	payload, err := c.call(ctx, params)
	if err != nil {
		return domain.Quiz{}, err
	}

	if payload.QuizTitle == SentinelInsufficientMaterial {
		return domain.Quiz{}, &domain.InsufficientMaterialError{}
	}
	if len(payload.Questions) == 0 {
		return domain.Quiz{}, &domain.SchemaError{Reason: "response contains no questions"}
	}

	questions := make([]domain.Question, 0, len(payload.Questions))
	for i, q := range payload.Questions {
		if q.Question == nil || q.Type == nil || q.CorrectAnswer == nil || q.Explanation == nil {
			return domain.Quiz{}, &domain.SchemaError{Reason: fmt.Sprintf("question %d is missing a mandatory field", i)}
		}
		qt := domain.QuestionType(*q.Type)
		if !qt.Valid() {
			return domain.Quiz{}, &domain.SchemaError{Reason: fmt.Sprintf("question %d has unknown type %q", i, *q.Type)}
		}
		questions = append(questions, domain.Question{
			ID:            uuid.NewString(),
			Question:      *q.Question,
			Type:          qt,
			Options:       q.Options,
			CorrectAnswer: *q.CorrectAnswer,
			Explanation:   *q.Explanation,
		})
	}

	title := payload.QuizTitle
	if strings.TrimSpace(title) == "" {
		title = "Untitled Quiz"
	}

	quiz := domain.Quiz{
		ID:          uuid.NewString(),
		Title:       title,
		CourseLevel: params.CourseLevel,
		Difficulty:  params.Difficulty,
		LectureText: params.LectureText,
		Questions:   questions,
		CreatedAt:   c.now(),
	}
	if err := quiz.Validate(); err != nil {
		return domain.Quiz{}, &domain.SchemaError{Reason: err.Error()}
	}
	return quiz, nil
}

func (c *Client) call(ctx context.Context, params domain.GenerateParams) (quizPayload, error) {
	reqBody := generateRequest{
		SystemInstruction: content{Parts: []part{{Text: systemInstruction(params.CourseLevel)}}},
		Contents:          []content{{Parts: []part{{Text: buildPrompt(params)}}}},
		GenerationConfig: generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   responseSchema(),
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return quizPayload{}, err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return quizPayload{}, err
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(request)
	if err != nil {
		return quizPayload{}, &domain.TransportError{Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return quizPayload{}, &domain.TransportError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return quizPayload{}, &domain.TransportError{
			Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(data, 200)),
		}
	}

	var outer generateResponse
	if err := json.Unmarshal(data, &outer); err != nil {
		return quizPayload{}, &domain.SchemaError{Reason: "response is not valid JSON"}
	}
	if len(outer.Candidates) == 0 || len(outer.Candidates[0].Content.Parts) == 0 {
		return quizPayload{}, &domain.SchemaError{Reason: "response has no candidates"}
	}

	var text strings.Builder
	for _, p := range outer.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}

	var payload quizPayload
	if err := json.Unmarshal([]byte(text.String()), &payload); err != nil {
		return quizPayload{}, &domain.SchemaError{Reason: "candidate text is not a valid quiz document"}
	}
	return payload, nil
}

func truncate(b []byte, n int) string {
	s := string(b)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
