package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kioku-srs/kioku-api/internal/service/planner"
	"github.com/kioku-srs/kioku-api/internal/service/study"
	"github.com/kioku-srs/kioku-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, store.ErrCardNotFound),
		errors.Is(err, store.ErrNoteNotFound),
		errors.Is(err, store.ErrDeckNotFound),
		errors.Is(err, store.ErrPlanItemNotFound),
		errors.Is(err, planner.ErrItemNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, study.ErrInvalidRating),
		errors.Is(err, planner.ErrInvalidBatchSize):
		return http.StatusBadRequest

	// Nothing-there cases
	case errors.Is(err, study.ErrNothingToStudy),
		errors.Is(err, planner.ErrPlanExhausted):
		return http.StatusNoContent

	case errors.Is(err, study.ErrNothingShowing):
		return http.StatusConflict

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	// Handle nil error
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	// Not found errors
	case errors.Is(err, store.ErrCardNotFound):
		return "Card not found"

	case errors.Is(err, store.ErrNoteNotFound):
		return "Note not found"

	case errors.Is(err, store.ErrDeckNotFound):
		return "Deck not found"

	case errors.Is(err, store.ErrPlanItemNotFound),
		errors.Is(err, planner.ErrItemNotFound):
		return "Plan item not found"

	// Conflict errors
	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"

	case errors.Is(err, study.ErrNothingShowing):
		return "No card is currently showing"

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	case errors.Is(err, study.ErrInvalidRating):
		return "Invalid rating"

	case errors.Is(err, planner.ErrInvalidBatchSize):
		return "Invalid batch size"

	// Default case for unknown errors
	default:
		if strings.Contains(err.Error(), "plan rebuild") {
			return "Failed to build plan"
		} else if strings.Contains(err.Error(), "rate card") {
			return "Failed to rate card"
		}
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError removes sensitive details from validation errors
// and returns a user-friendly message.
func SanitizeValidationError(err error) string {
	errMsg := err.Error()

	// Check if this is likely a validation error message
	if strings.Contains(errMsg, "Field validation") {
		// Extract the field name and validation tag
		// Example format: "Key: 'PushNotesRequest.Notes' Error:Field validation for 'Notes' failed on the 'required' tag"
		parts := strings.Split(errMsg, "Error:")
		if len(parts) >= 2 {
			fieldParts := strings.Split(parts[1], "'")
			if len(fieldParts) >= 3 {
				field := fieldParts[1]
				var tag string
				if len(fieldParts) >= 5 {
					tag = fieldParts[3]
				}

				if tag != "" {
					return fmt.Sprintf("Invalid %s: %s", field, getValidationTagMessage(tag))
				}
				return fmt.Sprintf("Invalid %s", field)
			}
		}
	}

	// Fall back to a generic validation error message
	return "Validation error"
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "gt":
		return "must be greater"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}
