package types

import (
	"sort"
	"time"
)

// Progress is the learner's authoritative progress as computed by the store.
type Progress struct {
	LessonCompleted bool      `json:"lesson_completed"`
	CurrentStreak   int       `json:"current_streak"`
	StoriesCount    int       `json:"stories_count"`
	TotalWords      int       `json:"total_words"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
	UpdatedAt       time.Time `json:"updated_at,omitempty"`
}

// ProgressUpdate is a partial progress update. Only LessonCompleted is
// persisted; the derived counters are accepted for wire compatibility and
// recomputed by the store.
type ProgressUpdate struct {
	LessonCompleted *bool `json:"lesson_completed,omitempty"`
	CurrentStreak   *int  `json:"current_streak,omitempty" validate:"omitempty,gte=0"`
	StoriesCount    *int  `json:"stories_count,omitempty" validate:"omitempty,gte=0"`
	TotalWords      *int  `json:"total_words,omitempty" validate:"omitempty,gte=0"`
}

// Validate validates the ProgressUpdate using the validator.
func (u *ProgressUpdate) Validate() error {
	return newValidator().Struct(u)
}

// Bool returns a pointer to b, for building partial updates.
func Bool(b bool) *bool {
	return &b
}

// CurrentStreak counts consecutive calendar days, ending at the most recent
// date, on which at least one story was completed. The streak is broken (0)
// when the most recent date is older than yesterday relative to today.
// Dates that do not parse as DateLayout, or that lie after today, are ignored.
func CurrentStreak(dates []string, today time.Time) int {
	y, m, dd := today.Date()
	todayDate := time.Date(y, m, dd, 0, 0, 0, 0, time.UTC)

	seen := make(map[string]bool, len(dates))
	var days []time.Time
	for _, d := range dates {
		t, err := time.Parse(DateLayout, d)
		if err != nil || seen[d] || t.After(todayDate) {
			continue
		}
		seen[d] = true
		days = append(days, t)
	}
	if len(days) == 0 {
		return 0
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	if todayDate.Sub(days[0]) > 24*time.Hour {
		return 0
	}

	streak := 1
	for i := 1; i < len(days); i++ {
		if days[i-1].Sub(days[i]) != 24*time.Hour {
			break
		}
		streak++
	}
	return streak
}
