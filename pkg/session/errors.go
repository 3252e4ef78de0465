package session

import (
	"errors"
	"fmt"
)

// ErrInterrupted is returned when the caller cancels between objectives.
// The session is still finalized and persisted.
var ErrInterrupted = errors.New("session interrupted")

// PersistenceError reports that the session report could not be written.
// The in-memory State returned alongside it is complete.
type PersistenceError struct {
	Dir string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist session report to %s: %v", e.Dir, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
