package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/story-master/internal/db"
)

// ErrMissingField indicates a required JSON field was absent from the body
type ErrMissingField struct {
	Fields []string
}

func (e *ErrMissingField) Error() string {
	return fmt.Sprintf("missing required field(s): %s", strings.Join(e.Fields, ", "))
}

// ErrValidation indicates a field was present but invalid
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrInvalidID indicates a malformed story id in the path
type ErrInvalidID struct {
	ID string
}

func (e *ErrInvalidID) Error() string {
	return fmt.Sprintf("invalid story id: %s", e.ID)
}

// ErrStoryNotFound indicates the story does not exist
type ErrStoryNotFound struct {
	ID string
}

func (e *ErrStoryNotFound) Error() string {
	return fmt.Sprintf("story not found: %s", e.ID)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		missing  *ErrMissingField
		invalid  *ErrValidation
		badID    *ErrInvalidID
		notFound *ErrStoryNotFound
		dbNF     *db.NotFoundError
	)
	switch {
	case errors.As(err, &missing):
		return http.StatusUnprocessableEntity
	case errors.As(err, &invalid), errors.As(err, &badID):
		return http.StatusBadRequest
	case errors.As(err, &notFound), errors.As(err, &dbNF):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// fromValidator converts the first validator failure to an ErrValidation
func fromValidator(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ErrValidation{Field: "body", Message: err.Error()}
	}
	fe := verrs[0]
	field := jsonFieldName(fe.StructField())

	var msg string
	switch fe.Tag() {
	case "notblank", "required":
		msg = "must not be blank"
	case "datetime":
		msg = "must be a date in YYYY-MM-DD format"
	case "gte":
		msg = "must be at least " + fe.Param()
	case "max":
		msg = "must be at most " + fe.Param() + " characters"
	default:
		msg = "failed " + fe.Tag() + " check"
	}
	return &ErrValidation{Field: field, Message: msg}
}

// jsonFieldName maps a Go field name like DateCompleted to date_completed
func jsonFieldName(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
