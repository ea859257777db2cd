package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"uniquest/internal/domain"
	"uniquest/internal/store"
)

// QuizStore keeps the quiz snapshot in a single row keyed by namespace, so
// the persistence contract matches the other backends: one blob, rewritten
// whole on every mutation.
type QuizStore struct {
	pool      *pgxpool.Pool
	namespace string
	logger    *slog.Logger

	mu      sync.RWMutex
	quizzes []domain.Quiz
}

func NewQuizStore(pool *pgxpool.Pool, namespace string, logger *slog.Logger) *QuizStore {
	if namespace == "" {
		namespace = store.DefaultNamespace
	}
	return &QuizStore{
		pool:      pool,
		namespace: namespace,
		logger:    logger,
	}
}

// Load reads the snapshot row. Missing row or corrupt blob degrades to an
// empty list with a warning.
func (s *QuizStore) Load(ctx context.Context) error {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT data FROM quiz_snapshots WHERE namespace=$1`, s.namespace).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		s.replace(nil)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read snapshot %q: %w", s.namespace, err)
	}

	quizzes, err := store.DecodeSnapshot(raw)
	if err != nil {
		s.logger.Warn("discarding corrupt quiz snapshot", "namespace", s.namespace, "err", err)
		s.replace(nil)
		return nil
	}
	quizzes, dropped := store.FilterValid(quizzes)
	if len(dropped) > 0 {
		s.logger.Warn("dropping invalid quizzes from snapshot", "namespace", s.namespace, "ids", dropped)
	}
	s.replace(quizzes)
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

// Add prepends in memory, then upserts the snapshot row.
func (s *QuizStore) Add(ctx context.Context, quiz domain.Quiz) error {
	s.mu.Lock()
	s.quizzes = append([]domain.Quiz{quiz}, s.quizzes...)
	blob, err := store.EncodeSnapshot(s.quizzes)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.persist(ctx, blob)
}

// Remove deletes by id, then upserts the snapshot row.
func (s *QuizStore) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
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
		s.mu.Unlock()
		return domain.ErrQuizNotFound
	}
	s.quizzes = kept
	blob, err := store.EncodeSnapshot(s.quizzes)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return s.persist(ctx, blob)
}

func (s *QuizStore) persist(ctx context.Context, blob []byte) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO quiz_snapshots (namespace, data, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (namespace) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		s.namespace, blob)
	if err != nil {
		return fmt.Errorf("write snapshot %q: %w", s.namespace, err)
	}
	return nil
}

func (s *QuizStore) replace(quizzes []domain.Quiz) {
	s.mu.Lock()
	s.quizzes = quizzes
	s.mu.Unlock()
}
