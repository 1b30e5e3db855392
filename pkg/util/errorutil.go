package util

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgInvalidTextRepresentation is raised when an id is not a valid uuid; such a row cannot exist.
const pgInvalidTextRepresentation = "22P02"

// Error codes surfaced to API callers.
const (
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeAppendFailed     = "APPEND_FAILED"
	CodeNoRecipient      = "NO_RECIPIENT"
	CodeDeliveryFailed   = "DELIVERY_FAILED"
	CodeNotFound         = "NOT_FOUND"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeInternal         = "INTERNAL_ERROR"
)

// Sentinels matched with errors.Is against any DomainError carrying the same code.
var (
	ErrValidationFailed = errors.New("validation failed")
	ErrAppendFailed     = errors.New("timeline append failed")
	ErrNoRecipient      = errors.New("no recipient")
	ErrDeliveryFailed   = errors.New("delivery failed")
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
)

var sentinelByCode = map[string]error{
	CodeValidationFailed: ErrValidationFailed,
	CodeAppendFailed:     ErrAppendFailed,
	CodeNoRecipient:      ErrNoRecipient,
	CodeDeliveryFailed:   ErrDeliveryFailed,
	CodeNotFound:         ErrNotFound,
	CodeUnauthorized:     ErrUnauthorized,
}

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel bound to the error code.
func (e *DomainError) Is(target error) bool {
	sentinel, ok := sentinelByCode[e.Code]
	return ok && sentinel == target
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

// NewRoleRequired is a validation failure caused by an actor lacking the required role.
func NewRoleRequired(role string) error {
	return NewDomainError(CodeValidationFailed, fmt.Sprintf("role %s required", role), http.StatusForbidden,
		map[string]any{"required_role": role})
}

// NewAppendFailed reports a failed audit write. Callers add state_changed or message_sent
// to the details so the client knows whether the primary effect already happened.
func NewAppendFailed(err error, details map[string]any) error {
	return &DomainError{
		Code:       CodeAppendFailed,
		Message:    "timeline append failed",
		HTTPStatus: http.StatusInternalServerError,
		Details:    details,
		Err:        err,
	}
}

// WithDetail returns err with key set in its details when err is a DomainError.
func WithDetail(err error, key string, value any) error {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return err
	}
	if domainErr.Details == nil {
		domainErr.Details = map[string]any{}
	}
	domainErr.Details[key] = value
	return domainErr
}

func NewNoRecipient(requestID string) error {
	return NewDomainError(CodeNoRecipient, "no recipient email available", http.StatusUnprocessableEntity,
		map[string]any{"request_id": requestID})
}

func NewDeliveryFailed(err error) error {
	return &DomainError{
		Code:       CodeDeliveryFailed,
		Message:    "notification delivery failed",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgInvalidTextRepresentation {
		return NewNotFound("resource", nil).(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}

// MapError is ToDomainError returning the error interface; nil stays nil.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}
