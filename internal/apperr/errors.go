package apperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Error struct {
	Code    string
	Message string
	Origin  error // underlying cause, if any
}

func (e *Error) Error() string {
	if e.Origin != nil {
		return e.Message + ": " + e.Origin.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Origin }

const (
	// Resource errors
	NotFound     = "NOT_FOUND"
	Duplicate    = "DUPLICATE"
	InvalidInput = "INVALID_INPUT"

	// Authentication/Authorization errors
	Unauthorized       = "UNAUTHORIZED"
	Forbidden          = "FORBIDDEN"
	InvalidToken       = "INVALID_TOKEN"
	InvalidCredentials = "INVALID_CREDENTIALS"

	// OTP errors
	OTPExpired  = "OTP_EXPIRED"
	OTPMismatch = "OTP_MISMATCH"

	// Location errors
	InconsistentLocation = "INCONSISTENT_LOCATION"

	// Upstream and storage
	Upstream        = "UPSTREAM_ERROR"
	TooManyRequests = "TOO_MANY_REQUESTS"
	Database        = "DATABASE_ERROR"
)

func New(code, message string, origin error) *Error {
	return &Error{Code: code, Message: message, Origin: origin}
}

func NewNotFound(what string) *Error {
	return &Error{Code: NotFound, Message: what + " not found"}
}

func NewInvalidInput(message string) *Error {
	return &Error{Code: InvalidInput, Message: message}
}

func NewUnauthorized(reason string) *Error {
	return &Error{Code: Unauthorized, Message: "Unauthorized: " + reason}
}

func NewDatabase(origin error) *Error {
	return &Error{Code: Database, Message: "Database error", Origin: origin}
}

// IsCode reports whether any error in err's chain is an *Error with the given code.
func IsCode(err error, code string) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// HTTPStatus converts an error code to an HTTP status code.
func HTTPStatus(code string) int {
	switch code {
	case NotFound:
		return http.StatusNotFound
	case InvalidInput, InconsistentLocation, OTPMismatch:
		return http.StatusBadRequest
	case Unauthorized, InvalidToken, InvalidCredentials:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case Duplicate:
		return http.StatusConflict
	case OTPExpired:
		return http.StatusGone
	case TooManyRequests:
		return http.StatusTooManyRequests
	case Upstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Respond writes err as {"error": message}. Anything that is not an *Error
// becomes a 500 with a generic message; its text is never sent to the client.
func Respond(c *gin.Context, err error) {
	var e *Error
	if !errors.As(err, &e) {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if e.Origin != nil {
		_ = c.Error(e.Origin)
	}
	c.JSON(HTTPStatus(e.Code), gin.H{"error": e.Message, "code": e.Code})
}
