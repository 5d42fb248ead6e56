package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
)

// RuntimeError is an error returned by a CLI command that failed for reasons
// other than invalid input. It can carry a hint for the user.
type RuntimeError struct {
	msg  string
	err  error
	hint string
}

// NewRuntimeError returns a new RuntimeError.
func NewRuntimeError(msg string, err error, hint string) *RuntimeError {
	return &RuntimeError{msg: msg, err: err, hint: hint}
}

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return fmt.Sprintf("%s: %s", e.msg, e.err)
}

// Unwrap returns the wrapped error.
func (e *RuntimeError) Unwrap() error {
	return e.err
}

// Hint returns the hint shown to the user, if any.
func (e *RuntimeError) Hint() string {
	return e.hint
}

// Errorf logs the error and its hint, if any, using the default slog logger.
// It's meant to be used as the last step before exiting the process.
func Errorf(err error) {
	Log(err)
	var rerr *RuntimeError
	if errors.As(err, &rerr) && rerr.hint != "" {
		slog.Info(rerr.hint)
	}
}

// Log logs an error using the default slog logger, extracting metadata if it's
// a StructuredError.
func Log(err error) {
	LogTo(slog.Default(), err.Error(), err)
}

// LogTo logs msg at the error level with logger. Metadata and the cause of a
// StructuredError found in the err chain are rendered as fields.
func LogTo(logger *slog.Logger, msg string, err error) {
	var serr *StructuredError
	if !errors.As(err, &serr) {
		if msg == err.Error() {
			logger.Error(msg)
		} else {
			logger.Error(msg, "error", err.Error())
		}
		return
	}

	args := make([]any, 0, len(serr.metadata)*2+4)
	if msg != serr.Error() {
		args = append(args, "error", serr.Error())
	}

	cause := serr.metadata["cause"]
	if serr.cause != nil {
		cause = serr.cause
	}
	if cause != nil {
		args = append(args, "cause", cause)
	}

	keys := make([]string, 0, len(serr.metadata))
	for k := range serr.metadata {
		if k != "cause" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		args = append(args, k, serr.metadata[k])
	}

	logger.Error(msg, args...)
}
