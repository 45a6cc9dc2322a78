package adapter

import (
	"context"
	"errors"
	"sync"
)

var knownErrors = struct {
	sync.RWMutex
	kinds []error
}{kinds: []error{context.Canceled, context.DeadlineExceeded}}

// RegisterErrors makes sentinel errors survive the plugin boundary.
// An error returned by a plugin matches a registered sentinel with errors.Is
// on the host when both sides registered it.
func RegisterErrors(errs ...error) {
	knownErrors.Lock()
	defer knownErrors.Unlock()
	for _, err := range errs {
		if lookupKind(err.Error()) == nil {
			knownErrors.kinds = append(knownErrors.kinds, err)
		}
	}
}

// lookupKind expects the caller to hold the lock.
func lookupKind(kind string) error {
	for _, known := range knownErrors.kinds {
		if known.Error() == kind {
			return known
		}
	}
	return nil
}

// RemoteError is an error returned by an adapter running as a plugin.
type RemoteError struct {
	// Kind is the message of the registered sentinel the error wraps, if any.
	Kind    string
	Message string
}

func newRemoteError(err error) *RemoteError {
	re := &RemoteError{Message: err.Error()}
	knownErrors.RLock()
	defer knownErrors.RUnlock()
	for _, known := range knownErrors.kinds {
		if errors.Is(err, known) {
			re.Kind = known.Error()
			break
		}
	}
	return re
}

func (e *RemoteError) Error() string {
	return e.Message
}

func (e *RemoteError) Unwrap() error {
	if e.Kind == "" {
		return nil
	}
	knownErrors.RLock()
	defer knownErrors.RUnlock()
	return lookupKind(e.Kind)
}
