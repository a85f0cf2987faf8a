package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/kartcup/internal/domain/model"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

// badRequest wraps a malformed-request cause with ErrBadRequest.
func badRequest(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err)
}

// classify maps an error onto an HTTP status and a stable error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest, "validation_failed"
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, model.ErrVersionConflict):
		return http.StatusConflict, "version_conflict"
	case errors.Is(err, model.ErrMatchExists):
		return http.StatusConflict, "already_exists"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
