package weather

import (
	"errors"
	"fmt"
)

// Sentinels for the three failure kinds. Match them with errors.Is.
var (
	ErrLocationNotFound = errors.New("location not found")
	ErrProvider         = errors.New("weather provider error")
	ErrTransport        = errors.New("weather transport error")
)

// Kind classifies an Error.
type Kind int

const (
	KindLocationNotFound Kind = iota + 1
	KindProvider
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindLocationNotFound:
		return "location_not_found"
	case KindProvider:
		return "provider"
	case KindTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Error is returned by every Client operation that fails.
// Message is human readable and safe to show to the user verbatim.
type Error struct {
	Kind    Kind
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrLocationNotFound:
		return e.Kind == KindLocationNotFound
	case ErrProvider:
		return e.Kind == KindProvider
	case ErrTransport:
		return e.Kind == KindTransport
	}
	return false
}

// Message returns the user-facing message carried by err, or "" if err is not an *Error.
func Message(err error) string {
	var werr *Error
	if errors.As(err, &werr) {
		return werr.Message
	}
	return ""
}
