// Package attempt implements the quiz-taking state machine: one learner's
// pass through a quiz, tracked transiently and never persisted.
package attempt

import (
	"uniquest/internal/domain"
	"uniquest/internal/scoring"
)

// State labels where an attempt is in its lifecycle.
type State string

const (
	StateInProgress State = "in_progress"
	StateSubmitted  State = "submitted"
)

// Attempt tracks current position, captured answers, and submission status
// for a single quiz. It is not safe for concurrent use; each attempt belongs
// to exactly one event-processing context.
type Attempt struct {
	quiz      domain.Quiz
	current   int
	answers   map[string]string
	submitted bool
}

// New starts a fresh attempt at question 0 with no answers.
func New(quiz domain.Quiz) *Attempt {
	return &Attempt{
		quiz:    quiz,
		answers: make(map[string]string),
	}
}

// Quiz returns the quiz this attempt runs over.
func (a *Attempt) Quiz() domain.Quiz { return a.quiz }

// State reports whether the attempt is in progress or submitted.
func (a *Attempt) State() State {
	if a.submitted {
		return StateSubmitted
	}
	return StateInProgress
}

// CurrentIndex is the zero-based position of the question on screen.
func (a *Attempt) CurrentIndex() int { return a.current }

// CurrentQuestion returns the question at the current index.
func (a *Attempt) CurrentQuestion() domain.Question {
	return a.quiz.Questions[a.current]
}

// Answers returns a copy of the captured answers keyed by question id.
func (a *Attempt) Answers() map[string]string {
	out := make(map[string]string, len(a.answers))
	for id, v := range a.answers {
		out[id] = v
	}
	return out
}

// Answer records the learner's answer for the current question, overwriting
// any previous value. No-op once submitted.
func (a *Attempt) Answer(value string) {
	if a.submitted {
		return
	}
	a.answers[a.CurrentQuestion().ID] = value
}

// Advance moves to the next question, or submits the attempt when invoked on
// the last question. Submission is monotonic: once submitted, stays submitted.
func (a *Attempt) Advance() {
	if a.submitted {
		return
	}
	if a.current < len(a.quiz.Questions)-1 {
		a.current++
		return
	}
	a.submitted = true
}

// Retreat moves back one question. No-op at index 0 or after submission.
func (a *Attempt) Retreat() {
	if a.submitted || a.current == 0 {
		return
	}
	a.current--
}

// Restart resets to a fresh attempt over the same quiz, from any state.
func (a *Attempt) Restart() {
	a.current = 0
	a.answers = make(map[string]string)
	a.submitted = false
}

// Score grades the attempt with the shared normalization rule.
func (a *Attempt) Score() scoring.Summary {
	return scoring.Grade(a.quiz, a.answers)
}

// Review returns the per-question review dataset in original order.
func (a *Attempt) Review() []scoring.ReviewItem {
	return scoring.Review(a.quiz, a.answers)
}
