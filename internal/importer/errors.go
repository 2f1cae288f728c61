package importer

import (
	"errors"
	"fmt"

	"github.com/tbourn/go-pilotlog-backend/internal/domain"
)

// Sentinel causes wrapped by ValidationError.
var (
	ErrUnknownTable  = errors.New("no schema registered for table")
	ErrMissingField  = errors.New("required field missing")
	ErrInvalidValue  = errors.New("invalid value")
	ErrNotObject     = errors.New("expected a JSON object")
	ErrNotArray      = errors.New("expected a JSON array")
	ErrDuplicateCode = errors.New("duplicate code in batch")
)

// MalformedInputError reports a payload that is not a JSON array of objects.
type MalformedInputError struct {
	Reason string
	Err    error
}

func (e *MalformedInputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed input: %s: %v", e.Reason, e.Err)
	}
	return "malformed input: " + e.Reason
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

// ValidationError identifies the record, table and external field that failed.
// Field is empty when the failure is about the record as a whole.
type ValidationError struct {
	Index int
	Table domain.TableType
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("record %d", e.Index)
	if e.Table != "" {
		msg += fmt.Sprintf(" (table %q)", e.Table)
	}
	if e.Field != "" {
		msg += fmt.Sprintf(" field %q", e.Field)
	}
	return msg + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// PersistenceError wraps a storage failure; the surrounding transaction has
// been rolled back when it is returned from Saver.Save.
type PersistenceError struct {
	Op    string
	Table string
	Err   error
}

func (e *PersistenceError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("persist %s %s: %v", e.Op, e.Table, e.Err)
	}
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidValue}, args...)...)
}
