package grader

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stellarlinkco/simpleqa-bench/internal/llm"
)

const gradingPrompt = `Your job is to look at a question, a gold target, and a predicted answer, and then assign a grade of either ["CORRECT", "INCORRECT", "NOT_ATTEMPTED"].

Grade the predicted answer as follows:
- CORRECT: the predicted answer fully contains the gold target's information without contradicting it. Different phrasing, added detail, or omitted irrelevant detail does not matter.
- INCORRECT: the predicted answer contradicts the gold target in any way, even if hedged.
- NOT_ATTEMPTED: the predicted answer neither confirms nor contradicts the gold target, e.g. it declines to answer or says the answer could not be found.

Question: %s
Gold target: %s
Predicted answer: %s

Grade the predicted answer as one of:
A: CORRECT
B: INCORRECT
C: NOT_ATTEMPTED

Reply with just the single letter "A", "B", or "C", with no other text.`

// LLMGrader judges answers with a chat-completion model.
type LLMGrader struct {
	Provider llm.Provider
}

func (g *LLMGrader) Grade(ctx context.Context, question, referenceAnswer, candidateAnswer string) (Grade, error) {
	if g == nil || g.Provider == nil {
		return GradeError, errors.New("grader: nil provider")
	}
	if ctx == nil {
		return GradeError, errors.New("grader: nil context")
	}

	// An explicitly empty answer never contains the target; no judge call
	// needed.
	if strings.TrimSpace(candidateAnswer) == "" {
		return GradeNotAttempted, nil
	}

	prompt := fmt.Sprintf(gradingPrompt, question, referenceAnswer, candidateAnswer)
	resp, err := g.Provider.Complete(ctx, &llm.Request{
		Messages:  []llm.Message{{Role: "user", Content: prompt}},
		MaxTokens: 8,
	})
	if err != nil {
		return GradeError, fmt.Errorf("grader: %w", err)
	}
	if resp == nil {
		return GradeError, errors.New("grader: nil response")
	}

	return parseVerdict(resp.Text)
}

func parseVerdict(raw string) (Grade, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.Trim(s, `"'.`)
	if s == "" {
		return GradeError, errors.New("grader: empty verdict")
	}

	switch s[:1] {
	case "A":
		return GradeCorrect, nil
	case "B":
		return GradeIncorrect, nil
	case "C":
		return GradeNotAttempted, nil
	default:
		return GradeError, fmt.Errorf("grader: unparsable verdict %q", raw)
	}
}
