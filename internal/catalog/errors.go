package catalog

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrRemote        = errors.New("remote call failed")
	ErrSerialization = errors.New("serialization failed")
)

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

// Status is 0 when no response was received.
type RemoteError struct {
	Op     string
	URL    string
	Status int
	Err    error
}

func (e *RemoteError) Error() string {
	msg := e.Op
	if e.URL != "" {
		msg += " " + e.URL
	}
	if e.Status != 0 {
		msg += fmt.Sprintf(": status=%d", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// A 404 also matches ErrNotFound.
func (e *RemoteError) Unwrap() []error {
	errs := []error{ErrRemote}
	if e.Status == http.StatusNotFound {
		errs = append(errs, ErrNotFound)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// SyncError means the local mutation stuck but the other collection was not
// brought into agreement. Nothing is rolled back.
type SyncError struct {
	Op         string
	CategoryID int
	Err        error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("sync %s category=%d: %v", e.Op, e.CategoryID, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }
