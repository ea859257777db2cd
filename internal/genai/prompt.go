package genai

import (
	"fmt"
	"strings"

	"uniquest/internal/domain"
)

// SentinelInsufficientMaterial is the reserved quiz title the model returns
// when the lecture text cannot support quality questions.
const SentinelInsufficientMaterial = "INSUFFICIENT MATERIAL TO GENERATE QUALITY QUESTIONS"

func systemInstruction(courseLevel string) string {
	return fmt.Sprintf(`You are a high-level university assessment generator.
Your task is to generate quiz questions STRICTLY from the lecture material provided.
- Do NOT introduce external knowledge.
- Do NOT rephrase content beyond what is necessary for clarity.
- Every question MUST be answerable directly from the lecture note.
- If content is insufficient, return a message saying %q in the quiz_title.
- Use clear academic language suited for the specified course level (%s).`, SentinelInsufficientMaterial, courseLevel)
}

func buildPrompt(p domain.GenerateParams) string {
	types := make([]string, 0, len(p.AllowedTypes))
	for _, t := range p.AllowedTypes {
		types = append(types, string(t))
	}
	return fmt.Sprintf(`Analyze this lecture note and generate exactly %d questions.
Difficulty Level: %s
Allowed Question Types: %s
Course Level: %s

Lecture Note:
"""
%s
"""`, p.NumQuestions, p.Difficulty, strings.Join(types, ", "), p.CourseLevel, p.LectureText)
}

// responseSchema is the JSON schema handed to the model so the response comes
// back as one structured object instead of prose.
func responseSchema() map[string]any {
	return map[string]any{
		"type": "OBJECT",
		"properties": map[string]any{
			"quiz_title": map[string]any{"type": "STRING"},
			"questions": map[string]any{
				"type": "ARRAY",
				"items": map[string]any{
					"type": "OBJECT",
					"properties": map[string]any{
						"question": map[string]any{"type": "STRING"},
						"type": map[string]any{
							"type": "STRING",
							"enum": []string{"MCQ", "TrueFalse", "ShortAnswer"},
						},
						"options": map[string]any{
							"type":  "ARRAY",
							"items": map[string]any{"type": "STRING"},
						},
						"correct_answer": map[string]any{"type": "STRING"},
						"explanation":    map[string]any{"type": "STRING"},
					},
					"required": []string{"question", "type", "correct_answer", "explanation"},
				},
			},
		},
		"required": []string{"quiz_title", "questions"},
	}
}
