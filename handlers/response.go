package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/adamspd/patentehub/auth"
	"github.com/adamspd/patentehub/db"
	"github.com/adamspd/patentehub/models"
	"github.com/adamspd/patentehub/utils"
)

// Response is the envelope returned by every operation.
type Response[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
	Code    int    `json:"code"`
}

// apiError is an expected failure with its status code.
type apiError struct {
	code int
	msg  string
}

func (e *apiError) Error() string { return e.msg }

func newError(code int, format string, args ...interface{}) error {
	return &apiError{code: code, msg: fmt.Sprintf(format, args...)}
}

func badRequest(format string, args ...interface{}) error {
	return newError(http.StatusBadRequest, format, args...)
}

func notFound(format string, args ...interface{}) error {
	return newError(http.StatusNotFound, format, args...)
}

func forbidden(format string, args ...interface{}) error {
	return newError(http.StatusForbidden, format, args...)
}

var errRateLimited = newError(http.StatusTooManyRequests, "too many attempts, try again later")

func ok[T any](data T) Response[T] {
	return Response[T]{Success: true, Data: data, Code: http.StatusOK}
}

func created[T any](data T) Response[T] {
	return Response[T]{Success: true, Data: data, Code: http.StatusCreated}
}

func fail[T any](err error) Response[T] {
	var apiErr *apiError
	switch {
	case errors.As(err, &apiErr):
		return Response[T]{Error: apiErr.msg, Code: apiErr.code}
	case errors.Is(err, auth.ErrNoSession):
		return Response[T]{Error: "session expired or missing", Code: http.StatusUnauthorized}
	case errors.Is(err, auth.ErrForbidden):
		return Response[T]{Error: "not allowed", Code: http.StatusForbidden}
	case errors.Is(err, models.ErrBanned):
		return Response[T]{Error: "account is banned", Code: http.StatusForbidden}
	case errors.Is(err, db.ErrNotFound), errors.Is(err, db.ErrUnknownCollection):
		return Response[T]{Error: "not found", Code: http.StatusNotFound}
	case errors.Is(err, db.ErrConflict):
		return Response[T]{Error: "already exists", Code: http.StatusConflict}
	case errors.Is(err, db.ErrMissingKey), errors.Is(err, db.ErrInvalidRecord):
		return Response[T]{Error: err.Error(), Code: http.StatusBadRequest}
	}
	utils.LogError("Unexpected failure: %v", err)
	return Response[T]{Error: "internal error", Code: http.StatusInternalServerError}
}
