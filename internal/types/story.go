// Package types provides the wire types shared by the story store, its HTTP
// client and the writing workflow.
package types

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the calendar format used for date_completed.
const DateLayout = "2006-01-02"

// Stage keys used by the catalog and the story payload.
const (
	StageKeyIntroduction = "introduction"
	StageKeyMiddle       = "middle"
	StageKeyConclusion   = "conclusion"
)

// Story is a completed story as owned by the story store.
type Story struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Category        string    `json:"category"`
	Introduction    string    `json:"introduction"`
	Middle          string    `json:"middle"`
	Conclusion      string    `json:"conclusion"`
	WordCount       int       `json:"word_count"`
	DateCompleted   string    `json:"date_completed"`
	StudentName     string    `json:"student_name,omitempty"`
	TeacherFeedback string    `json:"teacher_feedback,omitempty"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
	UpdatedAt       time.Time `json:"updated_at,omitempty"`
}

// Parts returns the three stage texts in order.
func (s Story) Parts() [3]string {
	return [3]string{s.Introduction, s.Middle, s.Conclusion}
}

// Text joins the non-empty stage texts with single spaces.
func (s Story) Text() string {
	parts := make([]string, 0, 3)
	for _, p := range s.Parts() {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// StoryCreateRequest is the payload sent to create a story.
type StoryCreateRequest struct {
	Title         string `json:"title" validate:"notblank"`
	Category      string `json:"category" validate:"notblank"`
	Introduction  string `json:"introduction" validate:"notblank"`
	Middle        string `json:"middle" validate:"notblank"`
	Conclusion    string `json:"conclusion" validate:"notblank"`
	DateCompleted string `json:"date_completed" validate:"required,datetime=2006-01-02"`
	WordCount     int    `json:"word_count" validate:"gte=0"`
	StudentName   string `json:"student_name,omitempty" validate:"omitempty,max=100"`
}

// Validate validates the StoryCreateRequest using the validator.
func (r *StoryCreateRequest) Validate() error {
	return newValidator().Struct(r)
}

// newValidator returns a validator with the notblank rule registered.
func newValidator() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return validate
}
