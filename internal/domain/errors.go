package domain

import (
	"fmt"
	"time"
)

// StoreError reports a failed blob read or write.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// ValidationError reports persisted or fetched content that violates the
// movie record schema. Index is the offending array position, -1 when the
// content is not an array element.
type ValidationError struct {
	Source string
	Index  int
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	msg := "validation"
	if e.Source != "" {
		msg += " " + e.Source
	}
	if e.Index >= 0 {
		msg += fmt.Sprintf(" [%d]", e.Index)
	}
	if e.Field != "" {
		msg += " " + e.Field
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return e.Err }

// FetchError reports a transport-level failure talking to the snapshot source.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// InvalidCheckpointError means the checkpoint lies after yesterday, which only
// happens with clock skew or corrupted state.
type InvalidCheckpointError struct {
	Checkpoint time.Time
	Yesterday  time.Time
}

func (e *InvalidCheckpointError) Error() string {
	return fmt.Sprintf("checkpoint %s is after yesterday (%s)", FormatDay(e.Checkpoint), FormatDay(e.Yesterday))
}
