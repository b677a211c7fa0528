package guided

import (
	"errors"
	"fmt"
)

var (
	// ErrGateClosed is returned by every action while the lesson is incomplete.
	ErrGateClosed = errors.New("complete the lesson first")
	// ErrSaving is returned when a submission is already in flight.
	ErrSaving = errors.New("story is already being saved")
	// ErrNoCategory is returned by drafting actions before a theme is chosen.
	ErrNoCategory = errors.New("no story theme selected")
	// ErrCategoryChosen is returned when choosing a theme mid-draft; use ChangeTheme first.
	ErrCategoryChosen = errors.New("a story theme is already selected")
	// ErrTitleLocked is returned when the title is edited after the first stage.
	ErrTitleLocked = errors.New("the title can only be changed during the introduction")
	// ErrRerollDisabled is returned by RerollPrompt under the fixed prompt policy.
	ErrRerollDisabled = errors.New("prompt re-roll is disabled")
	// ErrNotFinalStage is returned by Submit before the conclusion stage.
	ErrNotFinalStage = errors.New("a story can only be saved from the conclusion")
	// ErrClosed is returned once the workflow has been closed.
	ErrClosed = errors.New("workflow closed")
)

// ValidationError is a local precondition failure. The draft is unchanged.
type ValidationError struct {
	Field   string
	Stage   Stage
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
