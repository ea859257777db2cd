package redis

import (
	"context"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"uniquest/internal/domain"
	"uniquest/internal/store"
)

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	defer mr.Close()

	s := NewQuizStore(client, "test:quizzes", slog.Default())
	if err := s.Add(ctx, sampleQuiz("quiz-1")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add(ctx, sampleQuiz("quiz-2")); err != nil {
		t.Fatalf("add: %v", err)
	}

	// A second store over the same key simulates a process restart.
	restarted := NewQuizStore(client, "test:quizzes", slog.Default())
	if err := restarted.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	quizzes, err := restarted.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(quizzes) != 2 {
		t.Fatalf("expected 2 quizzes, got %d", len(quizzes))
	}
	if quizzes[0].ID != "quiz-2" || quizzes[1].ID != "quiz-1" {
		t.Fatalf("expected newest first, got %q then %q", quizzes[0].ID, quizzes[1].ID)
	}
	if quizzes[1].Questions[0].Explanation == "" {
		t.Fatalf("question fields lost: %+v", quizzes[1].Questions[0])
	}
}

func TestRemoveRewritesSnapshot(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)
	defer mr.Close()

	s := NewQuizStore(client, "test:quizzes", slog.Default())
	_ = s.Add(ctx, sampleQuiz("quiz-1"))
	_ = s.Add(ctx, sampleQuiz("quiz-2"))

	if err := s.Remove(ctx, "quiz-2"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := s.Remove(ctx, "quiz-2"); err != domain.ErrQuizNotFound {
		t.Fatalf("expected ErrQuizNotFound on second remove, got %v", err)
	}

	restarted := NewQuizStore(client, "test:quizzes", slog.Default())
	_ = restarted.Load(ctx)
	quizzes, _ := restarted.List(ctx)
	if len(quizzes) != 1 || quizzes[0].ID != "quiz-1" {
		t.Fatalf("expected only quiz-1 after remove, got %+v", quizzes)
	}
}

func TestMissingKeyLoadsEmpty(t *testing.T) {
	mr, client := newRedis(t)
	defer mr.Close()

	s := NewQuizStore(client, "test:quizzes", slog.Default())
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	quizzes, _ := s.List(context.Background())
	if len(quizzes) != 0 {
		t.Fatalf("expected empty list, got %d", len(quizzes))
	}
}

func TestCorruptBlobDegradesToEmpty(t *testing.T) {
	mr, client := newRedis(t)
	defer mr.Close()

	mr.Set("test:quizzes", "{definitely not a snapshot")

	s := NewQuizStore(client, "test:quizzes", slog.Default())
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("corrupt blob must not fail load: %v", err)
	}
	quizzes, _ := s.List(context.Background())
	if len(quizzes) != 0 {
		t.Fatalf("expected empty list after corrupt load, got %d", len(quizzes))
	}
}

func TestUnknownSnapshotVersion(t *testing.T) {
	mr, client := newRedis(t)
	defer mr.Close()

	mr.Set("test:quizzes", `{"version": 99, "quizzes": []}`)

	s := NewQuizStore(client, "test:quizzes", slog.Default())
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("unknown version must not fail load: %v", err)
	}
	quizzes, _ := s.List(context.Background())
	if len(quizzes) != 0 {
		t.Fatalf("expected empty list for unknown version, got %d", len(quizzes))
	}
}

func TestDefaultNamespace(t *testing.T) {
	mr, client := newRedis(t)
	defer mr.Close()

	s := NewQuizStore(client, "", slog.Default())
	_ = s.Add(context.Background(), sampleQuiz("quiz-1"))

	if !mr.Exists(store.DefaultNamespace) {
		t.Fatalf("expected snapshot under %q", store.DefaultNamespace)
	}
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	return mr, goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
}

func sampleQuiz(id string) domain.Quiz {
	return domain.Quiz{
		ID:          id,
		Title:       "Cell Biology",
		CourseLevel: "300",
		Difficulty:  domain.DifficultyMixed,
		LectureText: "The mitochondrion is the powerhouse of the cell.",
		Questions: []domain.Question{
			{
				ID:            id + "-q1",
				Question:      "Which organelle produces ATP?",
				Type:          domain.TypeMCQ,
				Options:       []string{"Mitochondrion", "Ribosome"},
				CorrectAnswer: "Mitochondrion",
				Explanation:   "The lecture names the mitochondrion as the powerhouse.",
			},
		},
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}
