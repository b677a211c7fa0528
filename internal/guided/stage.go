// Package guided implements the three-stage story drafting workflow: lesson
// gating, per-stage validation, hint cycling, prompt selection, and
// assembly and submission of the finished story.
package guided

import "github.com/jonathan/story-master/internal/types"

// Stage is one of the three writing stages.
type Stage int

const (
	StageIntroduction Stage = iota
	StageMiddle
	StageConclusion
)

// NumStages is the number of writing stages.
const NumStages = 3

// Stages lists the stages in writing order.
var Stages = [NumStages]Stage{StageIntroduction, StageMiddle, StageConclusion}

var (
	stageKeys  = [NumStages]string{types.StageKeyIntroduction, types.StageKeyMiddle, types.StageKeyConclusion}
	stageNames = [NumStages]string{"Introduction", "Main Story", "Conclusion"}
)

// Key is the catalog and payload key for the stage.
func (s Stage) Key() string {
	if !s.Valid() {
		return ""
	}
	return stageKeys[s]
}

// Name is the learner-facing stage name.
func (s Stage) Name() string {
	if !s.Valid() {
		return ""
	}
	return stageNames[s]
}

func (s Stage) String() string { return s.Name() }

// Valid reports whether s is a real stage.
func (s Stage) Valid() bool { return s >= StageIntroduction && s <= StageConclusion }

// Last reports whether s is the final stage.
func (s Stage) Last() bool { return s == StageConclusion }

// Phase is the top-level state of a workflow.
type Phase int

const (
	// PhaseGated blocks the workflow until the lesson is completed.
	PhaseGated Phase = iota
	// PhaseSelectCategory waits for a story theme.
	PhaseSelectCategory
	// PhaseWriting drafts the story; the draft's Stage says which part.
	PhaseWriting
)

func (p Phase) String() string {
	switch p {
	case PhaseGated:
		return "gated"
	case PhaseSelectCategory:
		return "select-category"
	case PhaseWriting:
		return "writing"
	}
	return "unknown"
}
