package parser

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code identifies a whole-log failure.
type Code string

const (
	CodeEmptyLog      Code = "EMPTY_LOG"
	CodeInvalidFormat Code = "INVALID_FORMAT"
	CodeLineTooLong   Code = "LINE_TOO_LONG"
	CodeReadError     Code = "READ_ERROR"
)

var (
	ErrEmptyLog      = errors.New(string(CodeEmptyLog))
	ErrInvalidFormat = errors.New(string(CodeInvalidFormat))
	ErrLineTooLong   = errors.New(string(CodeLineTooLong))
	ErrReadError     = errors.New(string(CodeReadError))
)

// Error is the only error a parse returns. RawLine is set only here; a
// successful parse never retains raw text.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	RawLine string `json:"rawLine,omitempty"`
	Cause   error  `json:"-"`
}

func (e *Error) Error() string {
	msg := string(e.Code)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(" (line %d)", e.Line)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrEmptyLog:
		return e.Code == CodeEmptyLog
	case ErrInvalidFormat:
		return e.Code == CodeInvalidFormat
	case ErrLineTooLong:
		return e.Code == CodeLineTooLong
	case ErrReadError:
		return e.Code == CodeReadError
	}
	return false
}

// AsError extracts a *Error from err.
func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
