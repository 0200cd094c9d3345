package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
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

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: 404,
	}

	ErrZoneNotFound = &AppError{
		Code:       "ZONE_NOT_FOUND",
		Message:    "Zone not found",
		StatusCode: 404,
	}

	ErrAgentNotFound = &AppError{
		Code:       "AGENT_NOT_FOUND",
		Message:    "Agent not found",
		StatusCode: 404,
	}

	ErrInvalidSyncPayload = &AppError{
		Code:       "INVALID_SYNC_PAYLOAD",
		Message:    "Sync payload has no recognizable record array",
		StatusCode: 422,
	}

	ErrInvalidPoint = &AppError{
		Code:       "INVALID_POINT",
		Message:    "Point coordinates must be finite numbers",
		StatusCode: 422,
	}

	ErrArchiveDisabled = &AppError{
		Code:       "ARCHIVE_DISABLED",
		Message:    "Event archive is not configured",
		StatusCode: 503,
	}
)
