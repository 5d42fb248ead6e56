package types

import "net/http"

// NewBadRequestError returns a 400 Bad Request error with the specified message.
func NewBadRequestError(message string) *Error {
	return NewError(http.StatusBadRequest, message)
}

// NewUnauthorizedError returns a 401 Unauthorized error with the specified message.
func NewUnauthorizedError(message string) *Error {
	return NewError(http.StatusUnauthorized, message)
}

// NewForbiddenError returns a 403 Forbidden error with the specified message.
func NewForbiddenError(message string) *Error {
	return NewError(http.StatusForbidden, message)
}

// NewNotFoundError returns a 404 Not Found error with the specified message.
func NewNotFoundError(message string) *Error {
	return NewError(http.StatusNotFound, message)
}
