package services

import (
	"errors"
)

var (
	// ErrUnauthenticated rejects a write locally, before any network call.
	ErrUnauthenticated = errors.New("log in to vote or comment")
	// ErrInvalidSubmission rejects a malformed write locally.
	ErrInvalidSubmission = errors.New("invalid submission")
	// ErrSubmitInFlight rejects a second write from a node still submitting.
	ErrSubmitInFlight = errors.New("a submission for this comment is already in flight")
)

// SubmitError is any rejection from the mutation endpoint. Authentication, rate
// limiting and validation failures are not told apart.
type SubmitError struct {
	Op      string
	Message string
}

func (e *SubmitError) Error() string {
	return e.Op + " submission failed: " + e.Message
}
