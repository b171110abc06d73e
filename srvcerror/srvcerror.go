package srvcerror

import (
	"errors"
	"net/http"
)

// Kind groups error codes into the categories handled at each boundary.
type Kind string

const (
	KindInternal      Kind = "internal"
	KindAuth          Kind = "auth"
	KindAuthorization Kind = "authorization"
	KindStore         Kind = "store"
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindConflict      Kind = "conflict"
)

type Error struct {
	errorCode  string
	msgToUser  string // public
	dbgInfoErr error  // private, for debugging

	kind       Kind
	httpStatus int // optional, for HTTP responses
}

func (e *Error) Error() string {
	return e.msgToUser
}

func (e *Error) ErrorCode() string {
	return e.errorCode
}

func (e *Error) DebugInfo() error {
	return e.dbgInfoErr
}

func (e *Error) Unwrap() error {
	return e.dbgInfoErr
}

func (e *Error) SetDebug(err error) *Error {
	e.dbgInfoErr = err
	return e
}

func (e *Error) Kind() Kind {
	if e.kind == "" {
		return KindInternal
	}
	return e.kind
}

func (e *Error) SetKind(kind Kind) *Error {
	e.kind = kind
	return e
}

func (e *Error) HttpStatusCode() int {
	if e.httpStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.httpStatus
}

func (e *Error) SetHttpStatusCode(code int) *Error {
	e.httpStatus = code
	return e
}

func New(errorCode string, msgToUser string) *Error {
	return &Error{
		errorCode: errorCode,
		msgToUser: msgToUser,
	}
}

// HasCode reports whether err wraps a service error with the given code.
func HasCode(err error, code string) bool {
	var srvcErr *Error
	if errors.As(err, &srvcErr) {
		return srvcErr.errorCode == code
	}
	return false
}

// IsKind reports whether err wraps a service error of the given kind.
func IsKind(err error, kind Kind) bool {
	var srvcErr *Error
	if errors.As(err, &srvcErr) {
		return srvcErr.Kind() == kind
	}
	return false
}

const ErrCodeInternalServerError = "internal_server_error"

func ErrInternalSE() *Error {
	return New(
		ErrCodeInternalServerError,
		"internal server error",
	).SetHttpStatusCode(http.StatusInternalServerError)
}

const ErrCodeInvalidRequest = "invalid_request"

func ErrInvalidRequest(msg string) *Error {
	return New(ErrCodeInvalidRequest, msg).
		SetKind(KindValidation).
		SetHttpStatusCode(http.StatusBadRequest)
}
