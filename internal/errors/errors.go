package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrTaskNotFound is returned when a task does not exist.
	ErrTaskNotFound = errors.New("task not found")
	// ErrTaskForbidden is returned when the caller does not own the task.
	ErrTaskForbidden = errors.New("you do not have access to this task")
	// ErrTitleRequired is returned when a task title is missing or blank.
	ErrTitleRequired = errors.New("title is required")
	// ErrTitleTooLong is returned when a task title exceeds its bound.
	ErrTitleTooLong = errors.New("title must be at most 80 characters")
	// ErrInvalidStatus is returned for unknown status tokens.
	ErrInvalidStatus = errors.New("status must be one of: to-do, in-progress, done")
	// ErrTaskAlreadyDone is returned when changing the status of a finished task.
	ErrTaskAlreadyDone = errors.New("task is already done and its status cannot change")
	// ErrTaskConflict is returned when a task was modified by a concurrent request.
	ErrTaskConflict = errors.New("task was modified concurrently, reload and retry")

	// ErrUsernameTaken is returned when registering with an existing username.
	ErrUsernameTaken = errors.New("username already exists")
	// ErrEmailTaken is returned when registering with an existing email.
	ErrEmailTaken = errors.New("email already in use")
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidRefreshToken is returned when a refresh token is invalid or expired.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	// ErrUserNotFound is returned when a user does not exist.
	ErrUserNotFound = errors.New("user not found")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Code:  e.Code,
	}
}

var mappings = []struct {
	err    error
	status int
	code   string
}{
	{ErrTaskNotFound, http.StatusNotFound, "TASK_NOT_FOUND"},
	{ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
	{ErrTaskForbidden, http.StatusForbidden, "FORBIDDEN"},
	{ErrTitleRequired, http.StatusBadRequest, "TITLE_REQUIRED"},
	{ErrTitleTooLong, http.StatusBadRequest, "TITLE_TOO_LONG"},
	{ErrInvalidStatus, http.StatusBadRequest, "INVALID_STATUS"},
	{ErrTaskAlreadyDone, http.StatusConflict, "TASK_ALREADY_DONE"},
	{ErrTaskConflict, http.StatusConflict, "TASK_CONFLICT"},
	{ErrUsernameTaken, http.StatusConflict, "USERNAME_TAKEN"},
	{ErrEmailTaken, http.StatusConflict, "EMAIL_TAKEN"},
	{ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{ErrInvalidRefreshToken, http.StatusUnauthorized, "INVALID_REFRESH_TOKEN"},
}

// MapErrorToHTTP maps domain errors to HTTP errors. Unknown errors become a
// generic 500 so internals never reach the client.
func MapErrorToHTTP(err error) *HTTPError {
	for _, m := range mappings {
		if errors.Is(err, m.err) {
			return NewHTTPError(m.status, m.err.Error(), m.code)
		}
	}
	return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
}
