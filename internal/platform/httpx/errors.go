package httpx

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Sentinel errors shared by the domain layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
)

// Problemer is implemented by structured domain errors that carry their own
// problem document (code, message, relevant numbers).
type Problemer interface {
	Problem() ProblemDetail
}

// RespondError maps domain errors to HTTP responses using RFC7807. Structured
// errors render themselves; everything else falls back to a category mapping.
func RespondError(w http.ResponseWriter, err error) {
	var p Problemer
	if errors.As(err, &p) {
		JSON(w, problemStatus(p), p.Problem())
		return
	}
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		Problem(w, http.StatusBadRequest, "Validation Failed", verrs.Error())
	case errors.Is(err, ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrValidation):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case errors.Is(err, ErrUnauthorized):
		Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func problemStatus(p Problemer) int {
	if s := p.Problem().Status; s != 0 {
		return s
	}
	return http.StatusUnprocessableEntity
}
