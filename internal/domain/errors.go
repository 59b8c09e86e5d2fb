package domain

import "errors"

var (
	// ErrInvalidTransition is returned when a session operation is called
	// from a state that does not permit it.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrNoQuestions is returned when a session is loaded with an empty
	// question set.
	ErrNoQuestions = errors.New("no questions loaded")
	// ErrSourceUnavailable indicates the upstream question source failed.
	ErrSourceUnavailable = errors.New("question source unavailable")
	// ErrValidation indicates a score submission failed field validation.
	ErrValidation = errors.New("validation failed")
)
