package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/site-cloner/internal/db"
)

// ErrSiteNotFound indicates no clone exists for a slug
type ErrSiteNotFound struct {
	Slug string
}

func (e *ErrSiteNotFound) Error() string {
	return fmt.Sprintf("site not found: %s", e.Slug)
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrStoreDisabled is returned by run endpoints when no database is configured.
var ErrStoreDisabled = errors.New("run store is not configured")

// ErrCloneDisabled is returned by the clone endpoint when the server cannot drive a browser.
var ErrCloneDisabled = errors.New("cloning is not enabled on this server")

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var notFound *ErrSiteNotFound
	var invalid *ErrValidation
	switch {
	case errors.As(err, &notFound), errors.Is(err, db.ErrRunNotFound):
		return http.StatusNotFound
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.Is(err, ErrStoreDisabled), errors.Is(err, ErrCloneDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
