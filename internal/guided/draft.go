package guided

import (
	"strings"
	"time"

	"github.com/jonathan/story-master/internal/catalog"
	"github.com/jonathan/story-master/internal/types"
)

// Draft is the story being composed. Snapshots returned by a Workflow are
// copies and never alias its state.
type Draft struct {
	Category     *catalog.Category
	Title        string
	Parts        [NumStages]string
	Stage        Stage
	HintsVisible [NumStages]bool
	HintCursor   int
	StudentName  string

	// promptIdx selects the prompt shown for each stage.
	promptIdx [NumStages]int
}

// Completed reports whether the stage's trimmed text is non-empty.
func (d Draft) Completed(s Stage) bool {
	return s.Valid() && strings.TrimSpace(d.Parts[s]) != ""
}

// Ready reports whether the draft satisfies the submission precondition.
func (d Draft) Ready() bool {
	return d.checkSubmittable() == nil
}

// Text is the active stage's buffer.
func (d Draft) Text() string {
	return d.Parts[d.Stage]
}

// WordCount counts words across all stages.
func (d Draft) WordCount() int {
	return types.JoinedWordCount(d.Parts[:]...)
}

// Empty reports whether the draft carries no learner text.
func (d Draft) Empty() bool {
	if strings.TrimSpace(d.Title) != "" {
		return false
	}
	for _, p := range d.Parts {
		if strings.TrimSpace(p) != "" {
			return false
		}
	}
	return true
}

func (d Draft) checkSubmittable() error {
	if strings.TrimSpace(d.Title) == "" {
		return &ValidationError{Field: "title", Stage: StageIntroduction, Message: "Add a title!"}
	}
	for _, s := range Stages {
		if !d.Completed(s) {
			return &ValidationError{Field: s.Key(), Stage: s, Message: "Complete all parts!"}
		}
	}
	if d.Category == nil {
		return ErrNoCategory
	}
	return nil
}

// Assemble builds the creation payload for a ready draft. Text fields are
// trimmed, the word count covers the space-joined trimmed parts and the
// completion date is the UTC calendar date of completed.
func Assemble(d Draft, completed time.Time) (*types.StoryCreateRequest, error) {
	if err := d.checkSubmittable(); err != nil {
		return nil, err
	}

	var parts [NumStages]string
	for i, p := range d.Parts {
		parts[i] = strings.TrimSpace(p)
	}
	return &types.StoryCreateRequest{
		Title:         strings.TrimSpace(d.Title),
		Category:      d.Category.Name,
		Introduction:  parts[StageIntroduction],
		Middle:        parts[StageMiddle],
		Conclusion:    parts[StageConclusion],
		DateCompleted: completed.UTC().Format(types.DateLayout),
		WordCount:     types.WordCount(strings.Join(parts[:], " ")),
		StudentName:   strings.TrimSpace(d.StudentName),
	}, nil
}

// PreviewPart is one written stage of the story so far.
type PreviewPart struct {
	Stage Stage
	Name  string
	Text  string
}

// Preview lists the non-empty stages in order.
func (d Draft) Preview() []PreviewPart {
	var out []PreviewPart
	for _, s := range Stages {
		if t := strings.TrimSpace(d.Parts[s]); t != "" {
			out = append(out, PreviewPart{Stage: s, Name: s.Name(), Text: t})
		}
	}
	return out
}
