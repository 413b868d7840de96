package sync

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a sync failure so the HTTP boundary can map it to a
// status code without inspecting error strings.
type ErrorKind int

const (
	// KindUnauthorized: the caller has no valid identity.
	KindUnauthorized ErrorKind = iota + 1

	// KindConfiguration: mailbox credentials are missing or incomplete.
	KindConfiguration

	// KindConnection: the mail server could not be reached or rejected
	// authentication.
	KindConnection

	// KindProtocol: the mail server rejected a command mid-session.
	KindProtocol

	// KindFailed: any other unexpected failure.
	KindFailed
)

// SyncError is the single failure type returned by the sync orchestrator.
// The whole taxonomy travels in Kind; Message is safe to show to users.
type SyncError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *SyncError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *SyncError) Unwrap() error { return e.Err }

// AsSyncError extracts a SyncError from err's chain, if present.
func AsSyncError(err error) (*SyncError, bool) {
	var syncErr *SyncError
	if errors.As(err, &syncErr) {
		return syncErr, true
	}
	return nil, false
}
