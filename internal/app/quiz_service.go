package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"uniquest/internal/attempt"
	"uniquest/internal/domain"
	"uniquest/internal/scoring"
)

// QuizStore abstracts how the quiz set is persisted (in-memory, Redis,
// Postgres). Implementations serialize the full set as one snapshot blob.
type QuizStore interface {
	Load(ctx context.Context) error
	List(ctx context.Context) ([]domain.Quiz, error)
	Add(ctx context.Context, quiz domain.Quiz) error
	Remove(ctx context.Context, id string) error
}

// Generator turns lecture text into a quiz via the generation service.
type Generator interface {
	Generate(ctx context.Context, params domain.GenerateParams) (domain.Quiz, error)
}

// QuizService is the application shell: it owns the quiz store, the
// generation client, and the registry of live attempts. There is no
// package-level state; everything hangs off this object.
type QuizService struct {
	quizzes   QuizStore
	generator Generator
	logger    *slog.Logger

	mu         sync.Mutex
	generating bool
	attempts   map[string]*attempt.Attempt
}

func NewQuizService(quizzes QuizStore, generator Generator, logger *slog.Logger) *QuizService {
	return &QuizService{
		quizzes:   quizzes,
		generator: generator,
		logger:    logger,
		attempts:  make(map[string]*attempt.Attempt),
	}
}

// ListQuizzes returns the stored quizzes, most-recently-added first.
func (s *QuizService) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	return s.quizzes.List(ctx)
}

// CreateQuiz runs the authoring flow: validate parameters, invoke the
// generation client, commit the result to the store. Only one generation may
// be in flight at a time; a second call fails with ErrGenerationInFlight. A
// result arriving after the caller's context ended is discarded, never
// committed.
func (s *QuizService) CreateQuiz(ctx context.Context, params domain.GenerateParams) (domain.Quiz, error) {
	if err := params.Validate(); err != nil {
		return domain.Quiz{}, err
	}

	s.mu.Lock()
	if s.generating {
		s.mu.Unlock()
		return domain.Quiz{}, domain.ErrGenerationInFlight
	}
	s.generating = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.generating = false
		s.mu.Unlock()
	}()

	quiz, err := s.generator.Generate(ctx, params)
	if err != nil {
		return domain.Quiz{}, err
	}

	// The operator may have navigated away while the call was in flight.
	if ctx.Err() != nil {
		s.logger.Info("discarding stale generation result", "quiz", quiz.ID)
		return domain.Quiz{}, ctx.Err()
	}

	if err := s.quizzes.Add(ctx, quiz); err != nil {
		// The in-memory set already holds the quiz; losing the snapshot
		// write must not discard the generated content.
		s.logger.Warn("quiz accepted but snapshot write failed", "quiz", quiz.ID, "err", err)
	}
	return quiz, nil
}

// DeleteQuiz removes a quiz by id.
func (s *QuizService) DeleteQuiz(ctx context.Context, id string) error {
	if err := s.quizzes.Remove(ctx, id); err != nil {
		if errors.Is(err, domain.ErrQuizNotFound) {
			return err
		}
		s.logger.Warn("quiz removed but snapshot write failed", "quiz", id, "err", err)
	}
	return nil
}

// StartAttempt begins a fresh attempt over the stored quiz with the given id
// and returns the attempt's handle.
func (s *QuizService) StartAttempt(ctx context.Context, quizID string) (string, *attempt.Attempt, error) {
	quizzes, err := s.quizzes.List(ctx)
	if err != nil {
		return "", nil, err
	}
	for _, quiz := range quizzes {
		if quiz.ID != quizID {
			continue
		}
		a := attempt.New(quiz)
		id := uuid.NewString()
		s.mu.Lock()
		s.attempts[id] = a
		s.mu.Unlock()
		return id, a, nil
	}
	return "", nil, domain.ErrQuizNotFound
}

// Attempt looks up a live attempt by id.
func (s *QuizService) Attempt(id string) (*attempt.Attempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[id]
	if !ok {
		return nil, domain.ErrAttemptNotFound
	}
	return a, nil
}

// EndAttempt drops the attempt from the registry; attempt state is transient
// and never persisted.
func (s *QuizService) EndAttempt(id string) {
	s.mu.Lock()
	delete(s.attempts, id)
	s.mu.Unlock()
}

// AttemptView is a snapshot of attempt state for a front end.
type AttemptView struct {
	AttemptID    string            `json:"attemptId"`
	QuizID       string            `json:"quizId"`
	QuizTitle    string            `json:"quizTitle"`
	State        attempt.State     `json:"state"`
	CurrentIndex int               `json:"currentIndex"`
	Total        int               `json:"total"`
	Question     *domain.Question  `json:"question,omitempty"`
	Answers      map[string]string `json:"answers"`
}

// ResultView is the terminal payload once an attempt is submitted.
type ResultView struct {
	AttemptID string               `json:"attemptId"`
	Summary   scoring.Summary      `json:"summary"`
	Review    []scoring.ReviewItem `json:"review"`
}

// ViewAttempt renders the current state of an attempt. The question on
// screen is included only while the attempt is in progress, with the answer
// key stripped.
func ViewAttempt(id string, a *attempt.Attempt) AttemptView {
	view := AttemptView{
		AttemptID:    id,
		QuizID:       a.Quiz().ID,
		QuizTitle:    a.Quiz().Title,
		State:        a.State(),
		CurrentIndex: a.CurrentIndex(),
		Total:        len(a.Quiz().Questions),
		Answers:      a.Answers(),
	}
	if a.State() == attempt.StateInProgress {
		q := a.CurrentQuestion()
		q.CorrectAnswer = ""
		q.Explanation = ""
		view.Question = &q
	}
	return view
}

// ViewResult grades a submitted attempt and renders its review dataset.
func ViewResult(id string, a *attempt.Attempt) ResultView {
	return ResultView{
		AttemptID: id,
		Summary:   a.Score(),
		Review:    a.Review(),
	}
}
