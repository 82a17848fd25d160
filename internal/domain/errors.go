package domain

import (
	"errors"
	"fmt"
)

// Kind groups error codes by how callers should react to them.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindParse
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindParse:
		return "parse"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	default:
		return "internal"
	}
}

// ErrorCode is one entry of the closed error catalog. Code is stable and
// safe to expose to API clients.
type ErrorCode struct {
	Code    string
	Kind    Kind
	Message string
}

// Error implements error so catalog entries can be used as sentinels.
func (c ErrorCode) Error() string { return c.Message }

// New returns an *Error for this code with an optional detail message.
func (c ErrorCode) New(detail string) *Error {
	return &Error{ErrorCode: c, Detail: detail}
}

// Newf is New with fmt formatting.
func (c ErrorCode) Newf(format string, args ...any) *Error {
	return c.New(fmt.Sprintf(format, args...))
}

// Wrap returns an *Error for this code that wraps err.
func (c ErrorCode) Wrap(err error) *Error {
	return &Error{ErrorCode: c, Err: err}
}

var (
	ErrInvalidInput = ErrorCode{"COMMON_001", KindValidation, "invalid input"}
	ErrInternal     = ErrorCode{"COMMON_002", KindInternal, "internal server error"}

	ErrEmailTaken       = ErrorCode{"MEMBER_001", KindConflict, "email is already in use"}
	ErrNicknameTaken    = ErrorCode{"MEMBER_002", KindConflict, "nickname is already in use"}
	ErrMemberNotFound   = ErrorCode{"MEMBER_003", KindNotFound, "member not found"}
	ErrBadCredentials   = ErrorCode{"MEMBER_004", KindUnauthorized, "email or password does not match"}
	ErrRecordKeyLinked  = ErrorCode{"MEMBER_005", KindConflict, "record key is already linked to a member"}
	ErrHealthDataParse  = ErrorCode{"HEALTH_001", KindParse, "failed to parse health data"}
	ErrHealthNotFound   = ErrorCode{"HEALTH_002", KindNotFound, "health data not found"}
	ErrRecordKeyInvalid = ErrorCode{"HEALTH_003", KindValidation, "invalid record key"}

	ErrUnauthorized = ErrorCode{"AUTH_001", KindUnauthorized, "authentication required"}
	ErrTokenExpired = ErrorCode{"AUTH_002", KindUnauthorized, "token has expired"}
	ErrTokenInvalid = ErrorCode{"AUTH_003", KindUnauthorized, "invalid token"}
	ErrForbidden    = ErrorCode{"AUTH_004", KindForbidden, "access to this record key is not allowed"}
)

// Error is a catalog error carrying request-specific detail and an optional
// underlying cause.
type Error struct {
	ErrorCode
	Detail string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Detail != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Message, e.Detail, e.Err)
	case e.Detail != "":
		return e.Message + ": " + e.Detail
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error or a bare ErrorCode with the same code.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case ErrorCode:
		return e.Code == t.Code
	case *Error:
		return e.Code == t.Code
	}
	return false
}

// CodeOf returns the catalog entry for err, falling back to ErrInternal
// when err is not a catalog error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.ErrorCode
	}
	var c ErrorCode
	if errors.As(err, &c) {
		return c
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		return ErrHealthDataParse
	}
	return ErrInternal
}
