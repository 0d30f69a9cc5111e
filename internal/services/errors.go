package services

import (
	"errors"
	"fmt"
)

// ErrMalformedEvent marks a change-event payload that could not be deserialised.
// It signals a contract violation with the event source and is never swallowed.
var ErrMalformedEvent = errors.New("malformed document event")

// StoreError is returned when merging the title into Firestore fails.
// Redelivery by the trigger runtime is the recovery mechanism.
type StoreError struct {
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store write for %s failed: %v", e.Path, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
