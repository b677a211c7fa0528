// Package lesson steps a learner through the story structure lesson.
package lesson

import (
	"sync"

	"github.com/jonathan/story-master/internal/catalog"
)

// Kind tags a walkthrough step.
type Kind int

const (
	KindIntro Kind = iota
	KindPart
	KindOutro
)

func (k Kind) String() string {
	switch k {
	case KindIntro:
		return "intro"
	case KindPart:
		return "part"
	case KindOutro:
		return "outro"
	}
	return "unknown"
}

// Step is a position in the walkthrough. Part is only meaningful for KindPart.
type Step struct {
	Kind Kind
	Part int
}

// Walkthrough is a linear pointer over the intro, each lesson part and the
// outro. It is safe for concurrent use.
type Walkthrough struct {
	lesson     catalog.Lesson
	onComplete func()

	mu        sync.Mutex
	pos       int
	seen      map[int]bool
	completed bool
}

// New creates a walkthrough positioned on the intro. onComplete runs at most
// once, when the learner confirms the outro.
func New(l catalog.Lesson, onComplete func()) *Walkthrough {
	return &Walkthrough{
		lesson:     l,
		onComplete: onComplete,
		seen:       make(map[int]bool),
	}
}

// Lesson returns the lesson content.
func (w *Walkthrough) Lesson() catalog.Lesson { return w.lesson }

func (w *Walkthrough) last() int { return len(w.lesson.Parts) + 1 }

func (w *Walkthrough) stepAt(pos int) Step {
	switch {
	case pos <= 0:
		return Step{Kind: KindIntro}
	case pos >= w.last():
		return Step{Kind: KindOutro}
	default:
		return Step{Kind: KindPart, Part: pos - 1}
	}
}

// Current returns the active step.
func (w *Walkthrough) Current() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stepAt(w.pos)
}

// CurrentPart returns the lesson part on screen, if any.
func (w *Walkthrough) CurrentPart() (catalog.LessonPart, bool) {
	step := w.Current()
	if step.Kind != KindPart {
		return catalog.LessonPart{}, false
	}
	return w.lesson.Parts[step.Part], true
}

// Advance marks the current step seen and moves forward, stopping at the outro.
func (w *Walkthrough) Advance() Step {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.seen[w.pos] = true
	if w.pos < w.last() {
		w.pos++
	}
	return w.stepAt(w.pos)
}

// Retreat moves back one step, stopping at the intro.
func (w *Walkthrough) Retreat() Step {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.pos > 0 {
		w.pos--
	}
	return w.stepAt(w.pos)
}

// Seen reports whether the step has been advanced past.
func (w *Walkthrough) Seen(s Step) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch s.Kind {
	case KindIntro:
		return w.seen[0]
	case KindPart:
		return w.seen[s.Part+1]
	default:
		return w.seen[w.last()]
	}
}

// Progress returns the 1-based position and the total number of steps.
func (w *Walkthrough) Progress() (pos, total int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pos + 1, w.last() + 1
}

// Complete confirms the outro. It reports false when not on the outro or
// already completed; the callback runs only on the first confirmation.
func (w *Walkthrough) Complete() bool {
	w.mu.Lock()
	if w.pos != w.last() || w.completed {
		w.mu.Unlock()
		return false
	}
	w.completed = true
	w.seen[w.pos] = true
	w.mu.Unlock()

	if w.onComplete != nil {
		w.onComplete()
	}
	return true
}

// Completed reports whether the outro has been confirmed.
func (w *Walkthrough) Completed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.completed
}
