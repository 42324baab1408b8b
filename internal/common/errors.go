package common

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds - use errors.Is() to check
var (
	// Generic errors
	ErrInternal   = errors.New("internal error")
	ErrNotFound   = errors.New("not found")
	ErrBadRequest = errors.New("bad request")

	// Workflow errors
	ErrValidation      = errors.New("validation error")
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrExtraction      = errors.New("extraction failed")
	ErrConfiguration   = errors.New("configuration error")
	ErrUpstream        = errors.New("upstream error")
	ErrPersistence     = errors.New("persistence error")

	// Resource-specific errors
	ErrFileNotFound = fmt.Errorf("file %w", ErrNotFound)
)

// ValidationError represents a validation error with field details
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is implements errors.Is for ValidationError
func (e ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// KindError carries an error kind, the message shown to API clients and
// the underlying cause.
type KindError struct {
	Kind   error
	Detail string
	Err    error
}

func (e *KindError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Detail, e.Err)
	}
	return e.Detail
}

func (e *KindError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newKind(kind error, detail string, err error) error {
	return &KindError{Kind: kind, Detail: detail, Err: err}
}

// BadRequest reports a malformed request. err may be nil.
func BadRequest(detail string, err error) error {
	return newKind(ErrBadRequest, detail, err)
}

// PayloadTooLarge reports an upload that exceeded the size limit.
func PayloadTooLarge(detail string) error {
	return newKind(ErrPayloadTooLarge, detail, nil)
}

// Extraction reports a document that yielded no text.
func Extraction(detail string) error {
	return newKind(ErrExtraction, detail, nil)
}

// Configuration reports a missing or invalid operator setting.
func Configuration(detail string) error {
	return newKind(ErrConfiguration, detail, nil)
}

// Upstream wraps a failure of the external generation service. The cause
// is part of the client-facing detail.
func Upstream(err error) error {
	return newKind(ErrUpstream, fmt.Sprintf("Error generating MCQs: %v", err), err)
}

// WrapPersistence wraps a disk write failure with context
func WrapPersistence(operation string, err error) error {
	return newKind(ErrPersistence, "Error saving results: "+operation, err)
}

// WrapNotFound wraps an error as a not found error with context
func WrapNotFound(resource string, err error) error {
	return fmt.Errorf("%s: %w", resource, errors.Join(ErrNotFound, err))
}

// WrapInternal wraps an error as an internal error with context
func WrapInternal(operation string, err error) error {
	return fmt.Errorf("%s: %w", operation, errors.Join(ErrInternal, err))
}

// IsNotFound checks if error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if error is a validation error
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsUpstream checks if error came from the generation service
func IsUpstream(err error) bool {
	return errors.Is(err, ErrUpstream)
}

// HTTPStatus maps an error kind to the response status code.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation), errors.Is(err, ErrExtraction), errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Detail returns the client-facing message for err.
func Detail(err error) string {
	var verrs interface{ Details() []ValidationError }
	if errors.As(err, &verrs) {
		return err.Error()
	}
	var ve ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var ke *KindError
	if errors.As(err, &ke) {
		return ke.Detail
	}
	if errors.Is(err, ErrNotFound) {
		return "File not found"
	}
	return "Internal server error"
}
