package redis

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"uniquest/internal/domain"
	"uniquest/internal/store"
)

// QuizStore persists the full quiz set as one snapshot blob under a fixed
// namespace key. Reads come from an in-memory copy refreshed by Load; every
// mutation rewrites the whole blob (SET of the complete snapshot, no
// incremental diffing).
type QuizStore struct {
	client    *redis.Client
	namespace string
	logger    *slog.Logger
	sf        singleflight.Group

	mu      sync.RWMutex
	quizzes []domain.Quiz
}

func NewQuizStore(client *redis.Client, namespace string, logger *slog.Logger) *QuizStore {
	if namespace == "" {
		namespace = store.DefaultNamespace
	}
	return &QuizStore{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// Load reads the snapshot blob and replaces the in-memory set. A missing key
// or corrupt blob degrades to an empty list with a warning; Load only fails
// on transport problems talking to redis. Concurrent loads collapse to one
// round trip.
func (s *QuizStore) Load(ctx context.Context) error {
	_, err, _ := s.sf.Do("load", func() (interface{}, error) {
		raw, err := s.client.Get(ctx, s.namespace).Bytes()
		if err == redis.Nil {
			s.replace(nil)
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read snapshot %q: %w", s.namespace, err)
		}

		quizzes, err := store.DecodeSnapshot(raw)
		if err != nil {
			s.logger.Warn("discarding corrupt quiz snapshot", "key", s.namespace, "err", err)
			s.replace(nil)
			return nil, nil
		}
		quizzes, dropped := store.FilterValid(quizzes)
		if len(dropped) > 0 {
			s.logger.Warn("dropping invalid quizzes from snapshot", "key", s.namespace, "ids", dropped)
		}
		s.replace(quizzes)
		return nil, nil
	})
	return err
}

// List returns the quiz set, most-recently-added first.
func (s *QuizStore) List(_ context.Context) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Quiz, len(s.quizzes))
	copy(out, s.quizzes)
	return out, nil
}

// Add prepends the quiz in memory, then rewrites the snapshot. The in-memory
// set keeps the quiz even when persisting fails, so a flaky backend does not
// force the operator to regenerate.
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

// Remove deletes by id, then rewrites the snapshot.
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
	if err := s.client.Set(ctx, s.namespace, blob, 0).Err(); err != nil {
		return fmt.Errorf("write snapshot %q: %w", s.namespace, err)
	}
	return nil
}

func (s *QuizStore) replace(quizzes []domain.Quiz) {
	s.mu.Lock()
	s.quizzes = quizzes
	s.mu.Unlock()
}
