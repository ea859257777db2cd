package memory

import (
	"context"
	"log/slog"
	"sync"

	"uniquest/internal/domain"
	"uniquest/internal/store"
)

// QuizStore keeps the quiz set in memory and "persists" it to an in-process
// snapshot blob. It backs single-binary runs and tests with the same
// load/mutate/persist contract as the durable backends.
type QuizStore struct {
	logger *slog.Logger

	mu      sync.RWMutex
	quizzes []domain.Quiz
	blob    []byte
}

func NewQuizStore(logger *slog.Logger) *QuizStore {
	return &QuizStore{logger: logger}
}

// Load reconstructs the quiz list from the snapshot blob. Corrupt data
// degrades to an empty list with a warning; Load never fails the caller.
func (s *QuizStore) Load(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.blob) == 0 {
		s.quizzes = nil
		return nil
	}
	quizzes, err := store.DecodeSnapshot(s.blob)
	if err != nil {
		s.logger.Warn("discarding corrupt quiz snapshot", "err", err)
		s.quizzes = nil
		return nil
	}
	quizzes, dropped := store.FilterValid(quizzes)
	if len(dropped) > 0 {
		s.logger.Warn("dropping invalid quizzes from snapshot", "ids", dropped)
	}
	s.quizzes = quizzes
	return nil
}

// List returns the quiz set, most-recently-added first.
func (s *QuizStore) List(_ context.Context) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Quiz, len(s.quizzes))
	copy(out, s.quizzes)
	return out, nil
}

// Add prepends the quiz and rewrites the snapshot. The in-memory set keeps
// the quiz even if persisting fails; the error is reported for logging.
func (s *QuizStore) Add(_ context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes = append([]domain.Quiz{quiz}, s.quizzes...)
	return s.persistLocked()
}

// Remove deletes the quiz by id and rewrites the snapshot.
func (s *QuizStore) Remove(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.quizzes[:0:0]
	found := false
	for _, q := range s.quizzes {
		if q.ID == id {
			found = true
			continue
		}
		kept = append(kept, q)
	}
	if !found {
		return domain.ErrQuizNotFound
	}
	s.quizzes = kept
	return s.persistLocked()
}

func (s *QuizStore) persistLocked() error {
	blob, err := store.EncodeSnapshot(s.quizzes)
	if err != nil {
		return err
	}
	s.blob = blob
	return nil
}

// CorruptSnapshot overwrites the stored blob, for exercising the degraded
// load path in tests.
func (s *QuizStore) CorruptSnapshot(raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blob = raw
}
