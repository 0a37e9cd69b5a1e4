package grader

import (
	"context"
	"strings"
)

// Grade is the judge's verdict for one answer.
type Grade string

const (
	GradeCorrect      Grade = "CORRECT"
	GradeIncorrect    Grade = "INCORRECT"
	GradeNotAttempted Grade = "NOT_ATTEMPTED"

	// GradeError marks rows where the adapter or the judge itself failed;
	// it counts against accuracy like INCORRECT but stays distinguishable
	// in the results file.
	GradeError Grade = "ERROR"
)

// ParseGrade maps a stored string back to a Grade. Unknown values come back
// as GradeError so corrupt-ish data never inflates accuracy.
func ParseGrade(s string) Grade {
	switch Grade(strings.ToUpper(strings.TrimSpace(s))) {
	case GradeCorrect:
		return GradeCorrect
	case GradeIncorrect:
		return GradeIncorrect
	case GradeNotAttempted:
		return GradeNotAttempted
	default:
		return GradeError
	}
}

// Grader judges a candidate answer against the reference answer.
type Grader interface {
	Grade(ctx context.Context, question, referenceAnswer, candidateAnswer string) (Grade, error)
}
