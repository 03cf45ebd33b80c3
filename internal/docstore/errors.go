package docstore

import (
	"errors"
	"fmt"
)

// Kind classifies a document store failure
type Kind int

const (
	KindConfig Kind = iota + 1
	KindWrite
	KindRead
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "configuration"
	case KindWrite:
		return "storage write"
	case KindRead:
		return "storage read"
	case KindList:
		return "storage list"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is against an *Error of the matching kind
var (
	ErrConfig = &Error{Kind: KindConfig}
	ErrWrite  = &Error{Kind: KindWrite}
	ErrRead   = &Error{Kind: KindRead}
	ErrList   = &Error{Kind: KindList}
)

// ErrInvalidContent marks document content that is not valid UTF-8
var ErrInvalidContent = errors.New("content is not valid UTF-8")

// Error is returned by every Store operation that fails
type Error struct {
	Kind Kind
	// Key is the object key or listing prefix involved, if any
	Key string
	Err error
}

func (e *Error) Error() string {
	msg := e.Kind.String() + " failure"
	if e.Key != "" {
		msg += " for " + e.Key
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}
