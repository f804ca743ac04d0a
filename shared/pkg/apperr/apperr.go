// Package apperr carries client-facing errors: a machine code, a message,
// an HTTP status and an optional detail, plus extra fields rendered next to
// the error object.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeInvalidID         = "INVALID_ID"
	CodeNotFound          = "NOT_FOUND"
	CodeUserNotFound      = "USER_NOT_FOUND"
	CodeCartNotFound      = "CART_NOT_FOUND"
	CodeProductNotFound   = "PRODUCT_NOT_FOUND"
	CodeItemNotInCart     = "ITEM_NOT_IN_CART"
	CodeEmptyCart         = "EMPTY_CART"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeDocumentsMissing  = "DOCUMENTS_MISSING"
	CodeDuplicateEmail    = "DUPLICATE_EMAIL"
	CodeInvalidCreds      = "INVALID_CREDENTIALS"
	CodeTokenExpired      = "TOKEN_EXPIRED"
	CodeTokenInvalid      = "TOKEN_INVALID"
	CodeSamePassword      = "SAME_PASSWORD"
	CodeUpstream          = "UPSTREAM_ERROR"
	CodeInternal          = "INTERNAL"
)

type Error struct {
	Code    string
	Message string
	Status  int
	Detail  string
	Meta    map[string]any
	Err     error
}

func (e *Error) Error() string {
	msg := e.Code + ": " + e.Message
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// With returns a copy of e carrying an extra response field.
func (e *Error) With(key string, value any) *Error {
	out := *e
	out.Meta = make(map[string]any, len(e.Meta)+1)
	for k, v := range e.Meta {
		out.Meta[k] = v
	}
	out.Meta[key] = value
	return &out
}

func New(status int, code, message string) *Error {
	return &Error{Code: code, Message: message, Status: status}
}

func Newf(status int, code, format string, args ...any) *Error {
	return New(status, code, fmt.Sprintf(format, args...))
}

func Validation(message, detail string) *Error {
	return &Error{Code: CodeValidation, Message: message, Status: http.StatusBadRequest, Detail: detail}
}

func InvalidID(what, value string) *Error {
	return &Error{
		Code:    CodeInvalidID,
		Message: "invalid " + what + " id",
		Status:  http.StatusBadRequest,
		Detail:  fmt.Sprintf("%q is not a valid identifier", value),
	}
}

func NotFound(code, message string) *Error {
	return New(http.StatusNotFound, code, message)
}

func BadRequest(code, message string) *Error {
	return New(http.StatusBadRequest, code, message)
}

func Internal(err error) *Error {
	return &Error{Code: CodeInternal, Message: "internal server error", Status: http.StatusInternalServerError, Err: err}
}

// From returns err as *Error, wrapping anything unknown as Internal.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Internal(err)
}

func IsCode(err error, code string) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == code
}
