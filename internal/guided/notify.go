package guided

import (
	"fmt"
	"strings"
)

// NoticeKind classifies a learner-facing notice.
type NoticeKind int

const (
	NoticeInfo NoticeKind = iota
	NoticeSuccess
	NoticeError
)

// Notice is a short message for the learner, like a toast.
type Notice struct {
	Kind        NoticeKind
	Title       string
	Description string
}

// Notifier receives notices. Calls are made without the workflow lock held.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

type nopNotifier struct{}

func (nopNotifier) Notify(Notice) {}

func gateNotice() Notice {
	return Notice{
		Kind:        NoticeError,
		Title:       "Complete the lesson first!",
		Description: "Learn about story structure before you start writing.",
	}
}

func stageDoneNotice(done Stage) Notice {
	next := done + 1
	return Notice{
		Kind:        NoticeSuccess,
		Title:       fmt.Sprintf("Great %s!", done.Name()),
		Description: fmt.Sprintf("Now let's work on the %s.", strings.ToLower(next.Name())),
	}
}

func emptyStageNotice(s Stage) Notice {
	return Notice{
		Kind:        NoticeError,
		Title:       "Write something first!",
		Description: fmt.Sprintf("Please write your %s before moving to the next step.", strings.ToLower(s.Name())),
	}
}

func validationNotice(v *ValidationError) Notice {
	n := Notice{Kind: NoticeError, Title: v.Message}
	switch v.Field {
	case "title":
		n.Description = "Your amazing story needs a title."
	default:
		n.Description = "Make sure you've written the introduction, main story, and conclusion."
	}
	return n
}

func savedNotice(title string) Notice {
	return Notice{
		Kind:        NoticeSuccess,
		Title:       "Story Complete!",
		Description: fmt.Sprintf("%q has been saved to your collection!", title),
	}
}

func saveFailedNotice(err error) Notice {
	return Notice{
		Kind:        NoticeError,
		Title:       "Could not save your story",
		Description: fmt.Sprintf("Your draft is safe. Please try again. (%v)", err),
	}
}
