package quiz

import "errors"

var (
	// ErrNoQuestions is returned when a paper has no valid questions left
	// after normalization. This is the only fatal validation outcome.
	ErrNoQuestions = errors.New("no questions found for this paper")
	// ErrFinished is returned when a mutation reaches a terminal session.
	ErrFinished = errors.New("attempt is already finished")
	// ErrNotStarted is returned for question operations before the session
	// has entered the in-progress state.
	ErrNotStarted = errors.New("attempt has not started")
	// ErrIndexOutOfRange is returned by JumpTo with a bad target.
	ErrIndexOutOfRange = errors.New("question index out of range")
	// ErrOptionOutOfRange is returned when a selected option does not exist.
	ErrOptionOutOfRange = errors.New("option index out of range")
)
