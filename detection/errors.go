package detection

import "errors"

var (
	// ErrNoAnswers is returned when a report is requested for an empty answer set.
	ErrNoAnswers = errors.New("no answers to analyse")
	// ErrDuplicateStudent is returned when a student id occurs twice in one answer set.
	ErrDuplicateStudent = errors.New("duplicate student id")
)
