// Package mcq owns the text contract between the prompt sent to the
// generation service and the artifacts rendered from its answer.
package mcq

import (
	"fmt"
	"strings"
)

// Delimiter starts every question block in generated text.
const Delimiter = "## MCQ"

// Bounds for the number of questions a single request may ask for.
const (
	MinQuestions = 1
	MaxQuestions = 50
)

const promptTemplate = `Generate %d multiple-choice questions (MCQs) based on the following text.
For each question, provide:
- A clear question
- Four answer options (labeled A, B, C, D)
- The correct answer clearly indicated

Format each question like this:
%s
Question: [question text]
A) [option A]
B) [option B]
C) [option C]
D) [option D]
Correct Answer: [correct option]

Text to generate questions from:
%s
`

// BuildPrompt embeds the requested count and the full source text.
func BuildPrompt(count int, text string) string {
	return fmt.Sprintf(promptTemplate, count, Delimiter, text)
}

// SplitBlocks cuts generated text on Delimiter and returns the trimmed,
// non-empty segments in order. Text before the first delimiter counts as a
// block when it is not blank.
func SplitBlocks(text string) []string {
	var blocks []string
	for _, segment := range strings.Split(text, Delimiter) {
		if segment = strings.TrimSpace(segment); segment != "" {
			blocks = append(blocks, segment)
		}
	}
	return blocks
}

// ValidCount reports whether n is an allowed question count.
func ValidCount(n int) bool {
	return n >= MinQuestions && n <= MaxQuestions
}
