package apierr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/yungbote/recipebook-backend/internal/domain"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// From maps domain sentinels onto an API error; unknown errors become 500s.
func From(err error) *Error {
	var ae *Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ae):
		return ae
	case errors.Is(err, domain.ErrNotFound):
		return New(http.StatusNotFound, "not_found", err)
	case errors.Is(err, domain.ErrInvalidRecipe), errors.Is(err, domain.ErrInvalidID):
		return New(http.StatusBadRequest, "invalid_argument", err)
	default:
		return New(http.StatusInternalServerError, "internal", err)
	}
}
