package user

import (
	"fmt"
	"net/http"
)

// DomainError is a structured, self-describing domain error used across the user module.
// It carries HTTP/RFC7807-friendly metadata so a shared formatter can convert any domain
// error into a Problem response without enumerating error types.
type DomainError struct {
	// Code is a stable, machine-readable business code (e.g., "ErrInvalidResetToken").
	Code string

	// HTTPStatus is the HTTP status suggested for this error (e.g., 400, 401, 404, 409, 500).
	HTTPStatus int

	// Title is a short human summary; if empty the formatter will default to StatusText(HTTPStatus).
	Title string

	// Message is the public text rendered by the front end. Detail overrides it.
	Message string

	// Detail is a request-specific public explanation, e.g. the violated password rule.
	Detail string

	// TypeURI is an RFC7807 type URI, e.g., "urn:problem:user/err-invalid-reset-token".
	TypeURI string

	// Context is an optional extension payload for clients.
	Context any

	cause error
}

// Error includes the underlying cause's message when there is one. It is for
// logs; clients only ever see ProblemDetail.
func (e *DomainError) Error() string {
	msg := e.ProblemDetail()
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is compares by Code so copies made with WithCause or WithDetail still match
// their sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause returns a copy of e wrapping err.
func (e *DomainError) WithCause(err error) *DomainError {
	if err == nil {
		return e
	}
	cp := *e
	cp.cause = err
	return &cp
}

// WithDetail returns a copy of e with a request-specific public detail.
func (e *DomainError) WithDetail(detail string) *DomainError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// --- RFC7807 mapping accessors (satisfy httpx.DomainProblem) ---

func (e *DomainError) ProblemCode() string { return e.Code }

func (e *DomainError) ProblemStatus() int {
	if e.HTTPStatus == 0 {
		return http.StatusInternalServerError
	}
	return e.HTTPStatus
}

func (e *DomainError) ProblemTitle() string { return e.Title }

func (e *DomainError) ProblemDetail() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Message
}

func (e *DomainError) ProblemTypeURI() string { return e.TypeURI }
func (e *DomainError) ProblemContext() any    { return e.Context }

// Messages are rendered verbatim by the journal front end.
var (
	// Session state
	ErrAlreadyAuthenticated = &DomainError{
		Code:       "ErrAlreadyAuthenticated",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "You are already logged in.",
		TypeURI:    "urn:problem:user/err-already-authenticated",
	}

	ErrUnauthorized = &DomainError{
		Code:       "ErrUnauthorized",
		HTTPStatus: http.StatusUnauthorized,
		Title:      "Unauthorized",
		Message:    "Unauthorized",
		TypeURI:    "urn:problem:user/err-unauthorized",
	}

	// Input
	ErrPasswordMismatch = &DomainError{
		Code:       "ErrPasswordMismatch",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "The passwords do not match. Make sure that the passwords match.",
		TypeURI:    "urn:problem:user/err-password-mismatch",
	}

	ErrWeakPassword = &DomainError{
		Code:       "ErrWeakPassword",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "The password does not meet the password requirements.",
		TypeURI:    "urn:problem:user/err-weak-password",
	}

	ErrBlankProfileField = &DomainError{
		Code:       "ErrBlankProfileField",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "First name, last name and email cannot be blank.",
		TypeURI:    "urn:problem:user/err-blank-profile-field",
	}

	// Credentials
	ErrInvalidCredentials = &DomainError{
		Code:       "ErrInvalidCredentials",
		HTTPStatus: http.StatusUnauthorized,
		Title:      "Unauthorized",
		Message:    "Invalid email or password.",
		TypeURI:    "urn:problem:user/err-invalid-credentials",
	}

	ErrAccountNotFound = &DomainError{
		Code:       "ErrAccountNotFound",
		HTTPStatus: http.StatusUnauthorized,
		Title:      "Unauthorized",
		Message:    "No account with that email address was found in our system.",
		TypeURI:    "urn:problem:user/err-account-not-found",
	}

	ErrInvalidResetToken = &DomainError{
		Code:       "ErrInvalidResetToken",
		HTTPStatus: http.StatusBadRequest,
		Title:      "Bad Request",
		Message:    "Invalid password reset token.",
		TypeURI:    "urn:problem:user/err-invalid-reset-token",
	}

	// Storage outcomes
	ErrNotFound = &DomainError{
		Code:       "ErrNotFound",
		HTTPStatus: http.StatusNotFound,
		Title:      "Not Found",
		Message:    "User not found.",
		TypeURI:    "urn:problem:user/err-not-found",
	}

	ErrEmailExists = &DomainError{
		Code:       "ErrEmailExists",
		HTTPStatus: http.StatusConflict,
		Title:      "Conflict",
		Message:    "An account with that email address already exists.",
		TypeURI:    "urn:problem:user/err-email-exists",
	}

	// Flow failures with generic public text
	ErrSignUpFailed = &DomainError{
		Code:       "ErrSignUpFailed",
		HTTPStatus: http.StatusInternalServerError,
		Title:      "Internal Server Error",
		Message:    "Server Error.",
		TypeURI:    "urn:problem:user/err-sign-up-failed",
	}

	ErrPasswordUpdateFailed = &DomainError{
		Code:       "ErrPasswordUpdateFailed",
		HTTPStatus: http.StatusInternalServerError,
		Title:      "Internal Server Error",
		Message:    "An error occurred while updating the password.",
		TypeURI:    "urn:problem:user/err-password-update-failed",
	}

	ErrInternal = &DomainError{
		Code:       "ErrInternal",
		HTTPStatus: http.StatusInternalServerError,
		Title:      "Internal Server Error",
		Message:    "Server Error.",
		TypeURI:    "urn:problem:user/err-internal",
	}
)
