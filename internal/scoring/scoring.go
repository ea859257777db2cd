// Package scoring grades a completed attempt against its quiz. The matching
// rule is exact equality after normalization; free-text answers get no fuzzy
// matching or partial credit.
package scoring

import (
	"math"
	"strings"

	"uniquest/internal/domain"
)

// Skipped is the sentinel shown in review output for unanswered questions.
const Skipped = "(Skipped)"

// Normalize is the single matching rule shared by scoring and review:
// surrounding whitespace is trimmed and the result is lowercased.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Matches reports whether a learner answer equals the correct answer under
// Normalize.
func Matches(answer, correct string) bool {
	return Normalize(answer) == Normalize(correct)
}

// Summary is the outcome of grading one attempt.
type Summary struct {
	Score      int `json:"score"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// ReviewItem is one question's review row, in original question order.
type ReviewItem struct {
	Question      string `json:"question"`
	LearnerAnswer string `json:"learnerAnswer"`
	CorrectAnswer string `json:"correctAnswer"`
	Explanation   string `json:"explanation"`
	IsCorrect     bool   `json:"isCorrect"`
}

// Grade counts correct answers; unanswered questions count as incorrect.
func Grade(quiz domain.Quiz, answers map[string]string) Summary {
	score := 0
	for _, q := range quiz.Questions {
		if answer, ok := answers[q.ID]; ok && Matches(answer, q.CorrectAnswer) {
			score++
		}
	}
	total := len(quiz.Questions)
	pct := 0
	if total > 0 {
		pct = int(math.Round(100 * float64(score) / float64(total)))
	}
	return Summary{Score: score, Total: total, Percentage: pct}
}

// Review builds the per-question review dataset using the same matching rule
// as Grade, so the two can never disagree.
func Review(quiz domain.Quiz, answers map[string]string) []ReviewItem {
	items := make([]ReviewItem, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		answer, answered := answers[q.ID]
		item := ReviewItem{
			Question:      q.Question,
			LearnerAnswer: answer,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
			IsCorrect:     answered && Matches(answer, q.CorrectAnswer),
		}
		if !answered {
			item.LearnerAnswer = Skipped
		}
		items = append(items, item)
	}
	return items
}
