package domain

import (
	"fmt"
	"strings"
	"time"
)

// Difficulty calibrates how hard the generated questions should be.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyMixed  Difficulty = "mixed"
)

// Valid reports whether d is one of the known difficulty bands.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyMixed:
		return true
	}
	return false
}

// QuestionType discriminates how a question is presented and answered.
type QuestionType string

const (
	TypeMCQ         QuestionType = "MCQ"
	TypeTrueFalse   QuestionType = "TrueFalse"
	TypeShortAnswer QuestionType = "ShortAnswer"
)

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	switch t {
	case TypeMCQ, TypeTrueFalse, TypeShortAnswer:
		return true
	}
	return false
}

// Question is one assessable item within a quiz.
type Question struct {
	ID            string       `json:"id"`
	Question      string       `json:"question"`
	Type          QuestionType `json:"type"`
	Options       []string     `json:"options,omitempty"`
	CorrectAnswer string       `json:"correct_answer"`
	Explanation   string       `json:"explanation"`
}

// Quiz is a generated assessment. Immutable after creation except for deletion.
type Quiz struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	CourseLevel string     `json:"courseLevel"`
	Difficulty  Difficulty `json:"difficulty"`
	LectureText string     `json:"lectureText"`
	Questions   []Question `json:"questions"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Validate checks the structural invariants of a quiz: non-empty question set,
// unique question ids, and for option-based types a correct answer that matches
// one of the options (case-insensitive, trimmed).
func (q Quiz) Validate() error {
	if len(q.Questions) == 0 {
		return fmt.Errorf("quiz %q has no questions", q.ID)
	}
	seen := make(map[string]struct{}, len(q.Questions))
	for i, question := range q.Questions {
		if question.ID == "" {
			return fmt.Errorf("question %d has no id", i)
		}
		if _, ok := seen[question.ID]; ok {
			return fmt.Errorf("duplicate question id %q", question.ID)
		}
		seen[question.ID] = struct{}{}

		if !question.Type.Valid() {
			return fmt.Errorf("question %q has unknown type %q", question.ID, question.Type)
		}
		if question.Type == TypeShortAnswer {
			continue
		}
		if len(question.Options) == 0 {
			return fmt.Errorf("question %q requires options", question.ID)
		}
		if !answerMatchesOption(question.CorrectAnswer, question.Options) {
			return fmt.Errorf("question %q: correct answer %q is not among its options", question.ID, question.CorrectAnswer)
		}
	}
	return nil
}

func answerMatchesOption(answer string, options []string) bool {
	want := strings.ToLower(strings.TrimSpace(answer))
	for _, opt := range options {
		if strings.ToLower(strings.TrimSpace(opt)) == want {
			return true
		}
	}
	return false
}

// GenerateParams are the operator-entered knobs for a generation request.
type GenerateParams struct {
	LectureText  string         `json:"lectureText"`
	NumQuestions int            `json:"numQuestions"`
	Difficulty   Difficulty     `json:"difficulty"`
	AllowedTypes []QuestionType `json:"allowedTypes"`
	CourseLevel  string         `json:"courseLevel"`
}

// Validate enforces the authoring-flow preconditions before any network call.
func (p GenerateParams) Validate() error {
	if strings.TrimSpace(p.LectureText) == "" {
		return &ValidationError{Field: "lectureText", Reason: "lecture text must not be blank"}
	}
	if p.NumQuestions < 1 || p.NumQuestions > 20 {
		return &ValidationError{Field: "numQuestions", Reason: "number of questions must be between 1 and 20"}
	}
	if !p.Difficulty.Valid() {
		return &ValidationError{Field: "difficulty", Reason: fmt.Sprintf("unknown difficulty %q", p.Difficulty)}
	}
	if len(p.AllowedTypes) == 0 {
		return &ValidationError{Field: "allowedTypes", Reason: "at least one question type must be selected"}
	}
	for _, t := range p.AllowedTypes {
		if !t.Valid() {
			return &ValidationError{Field: "allowedTypes", Reason: fmt.Sprintf("unknown question type %q", t)}
		}
	}
	return nil
}
