package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrSaveFailed matches every local persistence failure.
	ErrSaveFailed = errors.New("failed to save score locally")
	// ErrInvalidRecord matches every rejected import.
	ErrInvalidRecord = errors.New("score data format validation failed")
)

// PersistError is a failed write to the key-value store.
type PersistError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

func (e *PersistError) Is(target error) bool { return target == ErrSaveFailed }

// ValidationError rejects an import; Index is the offending record.
type ValidationError struct {
	Index  int
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return "invalid score data: " + e.Reason
	}
	return fmt.Sprintf("invalid score record %d: %s", e.Index, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidRecord }
