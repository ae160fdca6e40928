package enums

import "fmt"

// AnswerSource records where a chat answer came from.
type AnswerSource string

const (
	AnswerSourceLocalKB AnswerSource = "local_kb"
	AnswerSourceLLM     AnswerSource = "llm"
)

// IsValid reports whether the value is a known AnswerSource.
func (a AnswerSource) IsValid() bool {
	return a == AnswerSourceLocalKB || a == AnswerSourceLLM
}

// Ratable reports whether answers from this source solicit a rating.
// LLM answers are logged for analytics only.
func (a AnswerSource) Ratable() bool {
	return a == AnswerSourceLocalKB
}

// ParseAnswerSource converts raw input into an AnswerSource.
func ParseAnswerSource(value string) (AnswerSource, error) {
	candidate := AnswerSource(value)
	if !candidate.IsValid() {
		return "", fmt.Errorf("invalid answer source %q", value)
	}
	return candidate, nil
}
