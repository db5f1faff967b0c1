// Package apperr defines the failure kinds shared by every pipeline stage.
// Stages return *Error; the fetch orchestrator inspects the kind to report
// which transition failed.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	KindConfiguration    Kind = "configuration"     // missing credentials, unknown instrument key
	KindRetrieval        Kind = "retrieval"         // provider returned no or invalid data
	KindSchema           Kind = "schema"            // required OHLC columns missing or not numeric
	KindInsufficientData Kind = "insufficient_data" // series shorter than the minimum lookback
	KindInvalidRange     Kind = "invalid_range"     // start >= end
	KindEmptyResult      Kind = "empty_result"      // no rows survive filtering
	KindPersistence      Kind = "persistence"       // write failure
	KindUnknown          Kind = "unknown"
)

// Sentinels for errors.Is. They match any *Error of the same kind.
var (
	ErrConfiguration    = &Error{Kind: KindConfiguration}
	ErrRetrieval        = &Error{Kind: KindRetrieval}
	ErrSchema           = &Error{Kind: KindSchema}
	ErrInsufficientData = &Error{Kind: KindInsufficientData}
	ErrInvalidRange     = &Error{Kind: KindInvalidRange}
	ErrEmptyResult      = &Error{Kind: KindEmptyResult}
	ErrPersistence      = &Error{Kind: KindPersistence}
)

// Error is a classified failure with the operation that produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("[%s] %v", e.Kind, e.Err)
	case e.Op != "":
		return fmt.Sprintf("%s [%s]", e.Op, e.Kind)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a sentinel (or any *Error) of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New returns an *Error with a formatted message.
func New(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Wrap classifies err. A nil err stays nil; an err that is already classified
// keeps its original kind.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return err
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}
