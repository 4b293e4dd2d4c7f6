package errors

import (
	stderrors "errors"
	"net/http"
)

// Domain errors shared between repositories, services and handlers.
// Not-found conditions deliberately collapse into ErrNotOwner or
// ErrSlotUnavailable so callers cannot probe for record existence.
var (
	ErrInvalidRange       = stderrors.New("end time must be after start time")
	ErrInvalidDuration    = stderrors.New("minimum slot duration is 30 minutes")
	ErrOverlapConflict    = stderrors.New("overlaps an existing availability slot")
	ErrSlotUnavailable    = stderrors.New("slot no longer available")
	ErrNotOwner           = stderrors.New("not allowed")
	ErrSlotNotFree        = stderrors.New("slot is booked")
	ErrAlreadyTerminal    = stderrors.New("appointment already completed or cancelled")
	ErrDuplicateAccount   = stderrors.New("email or phone already registered")
	ErrInvalidCredentials = stderrors.New("invalid credentials")
)

// HTTPError represents an error with an associated HTTP status code.
type HTTPError struct {
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTPError with the given code and message.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{
		Code:    code,
		Message: message,
	}
}

// FromDomain maps a domain error to an HTTPError. Anything outside the
// taxonomy is reported as a generic system failure.
func FromDomain(err error) *HTTPError {
	switch {
	case stderrors.Is(err, ErrInvalidRange),
		stderrors.Is(err, ErrInvalidDuration):
		return NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case stderrors.Is(err, ErrOverlapConflict),
		stderrors.Is(err, ErrSlotUnavailable),
		stderrors.Is(err, ErrSlotNotFree),
		stderrors.Is(err, ErrDuplicateAccount):
		return NewHTTPError(http.StatusConflict, err.Error())
	case stderrors.Is(err, ErrNotOwner):
		return NewHTTPError(http.StatusForbidden, err.Error())
	case stderrors.Is(err, ErrAlreadyTerminal):
		return NewHTTPError(http.StatusGone, err.Error())
	case stderrors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, err.Error())
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
