package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"unicode"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5/middleware"
)

// Problem implements RFC 9457/7807-compatible problem bodies with custom extensions.
// Extensions included:
//   - message: the public, human-readable text the journal front end renders verbatim
//   - code: stable business code (e.g., ErrInvalidResetToken)
//   - context: extra error payload (e.g., validation fields map)
//   - requestId: propagated from chi middleware.RequestID
type Problem struct {
	// RFC 9457 standard fields
	Type     string `json:"type,omitempty"`
	Title    string `json:"title,omitempty"`
	Status   int    `json:"status,omitempty"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	// Huma-compatible list of detailed errors (optional usage)
	Errors []*huma.ErrorDetail `json:"errors,omitempty"`

	// Extensions (custom)
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	Context   any    `json:"context,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

// Error implements error interface by returning the problem detail.
func (p *Problem) Error() string {
	if p.Detail != "" {
		return p.Detail
	}
	if p.Title != "" {
		return p.Title
	}
	return http.StatusText(p.GetStatus())
}

// GetStatus implements huma.StatusError to set HTTP response status.
func (p *Problem) GetStatus() int {
	if p.Status == 0 {
		return http.StatusInternalServerError
	}
	return p.Status
}

// ContentType implements huma.ContentTypeFilter. Clients of this API only
// understand application/json, so problems keep the negotiated type.
func (p *Problem) ContentType(ct string) string {
	if ct == "" {
		return "application/json"
	}
	return ct
}

// DomainProblem is a minimal interface for domain errors so the formatter
// can build RFC 7807 problems without enumerating all domain error types.
//
// Any domain error type across modules can satisfy this.
type DomainProblem interface {
	ProblemCode() string
	ProblemStatus() int
	ProblemTitle() string
	ProblemDetail() string
	ProblemTypeURI() string
	ProblemContext() any
}

// ToProblem converts any error into an RFC 7807 Problem with extensions.
//
// Behavior:
//   - If err already implements huma.StatusError (e.g., a Problem), it is returned as-is.
//   - If err implements DomainProblem, it is formatted into a Problem.
//   - Otherwise, returns a generic internal Problem with code ErrInternal.
func ToProblem(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	if _, ok := err.(huma.StatusError); ok {
		return err
	}

	var dp DomainProblem
	if errors.As(err, &dp) {
		code := dp.ProblemCode()
		status := dp.ProblemStatus()
		detail := defaultDetail(dp.ProblemDetail(), status)
		typeURI := dp.ProblemTypeURI()
		if typeURI == "" {
			typeURI = "urn:problem:" + toKebab(code)
		}

		return &Problem{
			Type:      typeURI,
			Title:     defaultTitle(dp.ProblemTitle(), status),
			Status:    status,
			Detail:    detail,
			Message:   detail,
			Code:      code,
			Context:   dp.ProblemContext(),
			RequestID: middleware.GetReqID(ctx),
		}
	}

	return InternalProblem(ctx, "")
}

// InternalProblem builds a generic 500 internal error problem. If detail is empty,
// a safe user-friendly message will be used.
func InternalProblem(ctx context.Context, detail string) *Problem {
	if detail == "" {
		detail = "Server Error."
	}
	return &Problem{
		Type:      "urn:problem:internal",
		Title:     http.StatusText(http.StatusInternalServerError),
		Status:    http.StatusInternalServerError,
		Detail:    detail,
		Message:   detail,
		Code:      "ErrInternal",
		RequestID: middleware.GetReqID(ctx),
	}
}

// NewError replaces huma.NewError so that framework-generated errors (malformed
// JSON, schema violations) share the Problem shape.
func NewError(status int, msg string, errs ...error) huma.StatusError {
	return NewProblem(status, msg, errs...)
}

// NewProblem builds a Problem for a bare status and message. Schema
// violations are reported as 400 rather than huma's default 422.
func NewProblem(status int, msg string, errs ...error) *Problem {
	if status == http.StatusUnprocessableEntity {
		status = http.StatusBadRequest
	}

	p := &Problem{
		Type:   "urn:problem:" + toKebab(codeForStatus(status)),
		Title:  http.StatusText(status),
		Status: status,
		Detail: msg,
		Code:   codeForStatus(status),
	}
	for _, err := range errs {
		if err == nil {
			continue
		}
		var ed huma.ErrorDetailer
		if errors.As(err, &ed) {
			p.Errors = append(p.Errors, ed.ErrorDetail())
			continue
		}
		p.Errors = append(p.Errors, &huma.ErrorDetail{Message: err.Error()})
	}

	p.Message = defaultDetail(msg, status)
	if len(p.Errors) > 0 && p.Errors[0].Message != "" {
		p.Message = p.Errors[0].Message
		if p.Errors[0].Location != "" {
			p.Message = p.Errors[0].Location + ": " + p.Errors[0].Message
		}
	}
	if p.Detail == "" {
		p.Detail = p.Message
	}
	return p
}

// WriteProblem encodes p to w as JSON. It is for code paths that run outside a
// huma operation (router middleware, guards writing their own response).
func WriteProblem(w http.ResponseWriter, p *Problem) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(p.GetStatus())
	_ = json.NewEncoder(w).Encode(p)
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "ErrValidation"
	case http.StatusUnauthorized:
		return "ErrUnauthorized"
	case http.StatusForbidden:
		return "ErrForbidden"
	case http.StatusNotFound:
		return "ErrNotFound"
	case http.StatusMethodNotAllowed:
		return "ErrMethodNotAllowed"
	case http.StatusConflict:
		return "ErrConflict"
	case http.StatusRequestEntityTooLarge:
		return "ErrRequestTooLarge"
	case http.StatusUnsupportedMediaType:
		return "ErrUnsupportedMediaType"
	}
	if status >= 500 {
		return "ErrInternal"
	}
	return "ErrRequest"
}

func defaultTitle(title string, status int) string {
	if title != "" {
		return title
	}
	return http.StatusText(status)
}

func defaultDetail(detail string, status int) string {
	if detail != "" {
		return detail
	}
	switch status {
	case http.StatusUnauthorized:
		return "Unauthorized"
	case http.StatusForbidden:
		return "Forbidden"
	case http.StatusNotFound:
		return "Not found"
	case http.StatusConflict:
		return "Conflict"
	case http.StatusBadRequest:
		return "Bad request"
	default:
		return http.StatusText(status)
	}
}

// toKebab converts codes like ErrInvalidResetToken or USER_NOT_FOUND to
// kebab-case: err-invalid-reset-token, user-not-found
func toKebab(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	var prevIsLowerOrDigit bool
	for i, r := range s {
		switch r {
		case '_', ' ', '-':
			if b.Len() > 0 && !strings.HasSuffix(b.String(), "-") {
				b.WriteByte('-')
			}
			prevIsLowerOrDigit = false
			continue
		}
		if i > 0 && unicode.IsUpper(r) && prevIsLowerOrDigit {
			b.WriteByte('-')
		}
		b.WriteRune(unicode.ToLower(r))
		prevIsLowerOrDigit = unicode.IsLower(r) || unicode.IsDigit(r)
	}
	return b.String()
}
