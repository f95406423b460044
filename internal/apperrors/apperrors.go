/*
Package apperrors - Typed Errors for the Workflow & SLA Engine

Provides typed error definitions for consistent error handling across the
workflow engine, bulk coordinator, and escalation service. Replaces
string-based error checking with a small struct and errors.Is()-compatible
matching.

USAGE:

	return apperrors.ErrApplicationNotFound

	if apperrors.Is(err, apperrors.ErrApplicationNotFound) {
	    c.JSON(http.StatusNotFound, ...)
	}

	return apperrors.Wrap(err, apperrors.ErrStoreUnavailable)
*/
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
)

// AppError represents an application-level error with an HTTP status code
// and a machine-readable code for comparison across package boundaries.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is implements error matching for errors.Is(), comparing by Code so that a
// wrapped instance still matches its sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewAppError creates a new application error.
func NewAppError(code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

// Wrap attaches an underlying error to an AppError sentinel, preserving its
// Code/Message/HTTPStatus.
func Wrap(err error, appErr *AppError) *AppError {
	return &AppError{
		Code:       appErr.Code,
		Message:    appErr.Message,
		HTTPStatus: appErr.HTTPStatus,
		Err:        err,
	}
}

// WithMessage returns a copy of the error with a custom message, keeping Code
// and HTTPStatus for errors.Is() matching.
func (e *AppError) WithMessage(msg string) *AppError {
	return &AppError{Code: e.Code, Message: msg, HTTPStatus: e.HTTPStatus, Err: e.Err}
}

// Validation errors.
var (
	ErrApplicationNotFound     = NewAppError("APPLICATION_NOT_FOUND", "application not found", http.StatusNotFound)
	ErrStageNotFound           = NewAppError("STAGE_NOT_FOUND", "stage not found or inactive", http.StatusNotFound)
	ErrStageNotForApplicationJob = NewAppError("STAGE_NOT_FOR_APPLICATION_JOB", "stage does not belong to the application's job", http.StatusBadRequest)
	ErrEscalationNotFound      = NewAppError("ESCALATION_NOT_FOUND", "escalation not found", http.StatusNotFound)
	ErrTransitionNotFound      = NewAppError("TRANSITION_NOT_FOUND", "transition not found", http.StatusNotFound)
	ErrUnknownApplications     = NewAppError("UNKNOWN_APPLICATIONS", "one or more application ids do not exist", http.StatusBadRequest)
	ErrOperationNotFound       = NewAppError("OPERATION_NOT_FOUND", "bulk operation not found", http.StatusNotFound)
)

// State errors.
var (
	ErrAlreadyEscalated  = NewAppError("ALREADY_ESCALATED", "transition already has an unresolved escalation", http.StatusConflict)
	ErrAlreadyResolved   = NewAppError("ALREADY_RESOLVED", "escalation already resolved", http.StatusConflict)
	ErrOperationInProgress = NewAppError("OPERATION_IN_PROGRESS", "bulk operation is still in progress", http.StatusConflict)
	ErrOperationTerminal = NewAppError("OPERATION_TERMINAL", "bulk operation has already reached a terminal state", http.StatusConflict)
	ErrConcurrentAdvance = NewAppError("CONCURRENT_ADVANCE", "a concurrent advance won the race for this application", http.StatusConflict)
)

// Infrastructure errors.
var (
	ErrStoreUnavailable = NewAppError("STORE_UNAVAILABLE", "store is unavailable", http.StatusServiceUnavailable)
	ErrClockFailure     = NewAppError("CLOCK_FAILURE", "clock failure", http.StatusInternalServerError)
	ErrNotFound         = NewAppError("NOT_FOUND", "resource not found", http.StatusNotFound)
	ErrConflict         = NewAppError("CONFLICT", "conflicting write", http.StatusConflict)
)

// UnknownApplicationsError carries the offending ids for UnknownApplications
// so callers can report exactly which ids were missing, per spec scenario 4.
type UnknownApplicationsError struct {
	*AppError
	IDs []string
}

// NewUnknownApplicationsError builds an UnknownApplications error carrying ids.
func NewUnknownApplicationsError(ids []string) *UnknownApplicationsError {
	return &UnknownApplicationsError{AppError: ErrUnknownApplications, IDs: ids}
}
