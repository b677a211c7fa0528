package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// rawStory accepts every historical story shape: the structured
// introduction/middle/conclusion form and the older flattened form with
// content, dateCreated and wordCount.
type rawStory struct {
	ID              json.RawMessage `json:"id"`
	Title           string          `json:"title"`
	Category        string          `json:"category"`
	Introduction    string          `json:"introduction"`
	Middle          string          `json:"middle"`
	Conclusion      string          `json:"conclusion"`
	Content         string          `json:"content"`
	WordCount       *int            `json:"word_count"`
	LegacyWordCount *int            `json:"wordCount"`
	DateCompleted   string          `json:"date_completed"`
	DateCreated     string          `json:"dateCreated"`
	StudentName     string          `json:"student_name"`
	TeacherFeedback string          `json:"teacher_feedback"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// NormalizeStory decodes any supported story shape into the canonical
// structured Story. A flattened content field becomes the introduction when
// no stage text is present. The word count resolves from word_count, then
// wordCount, then the stage texts.
func NormalizeStory(data []byte) (Story, error) {
	var raw rawStory
	if err := json.Unmarshal(data, &raw); err != nil {
		return Story{}, fmt.Errorf("failed to decode story: %w", err)
	}

	s := Story{
		ID:              decodeID(raw.ID),
		Title:           raw.Title,
		Category:        raw.Category,
		Introduction:    raw.Introduction,
		Middle:          raw.Middle,
		Conclusion:      raw.Conclusion,
		DateCompleted:   raw.DateCompleted,
		StudentName:     raw.StudentName,
		TeacherFeedback: raw.TeacherFeedback,
		CreatedAt:       raw.CreatedAt,
		UpdatedAt:       raw.UpdatedAt,
	}
	if s.Introduction == "" && s.Middle == "" && s.Conclusion == "" {
		s.Introduction = raw.Content
	}
	if s.DateCompleted == "" {
		s.DateCompleted = raw.DateCreated
	}
	if s.Category == "" {
		s.Category = "Other"
	}

	switch {
	case raw.WordCount != nil:
		s.WordCount = *raw.WordCount
	case raw.LegacyWordCount != nil:
		s.WordCount = *raw.LegacyWordCount
	default:
		s.WordCount = JoinedWordCount(s.Introduction, s.Middle, s.Conclusion)
	}
	return s, nil
}

// NormalizeStories decodes a JSON array of stories of mixed shapes.
func NormalizeStories(data []byte) ([]Story, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to decode story list: %w", err)
	}
	stories := make([]Story, 0, len(items))
	for i, item := range items {
		s, err := NormalizeStory(item)
		if err != nil {
			return nil, fmt.Errorf("story %d: %w", i, err)
		}
		stories = append(stories, s)
	}
	return stories, nil
}

// decodeID accepts string and numeric ids.
func decodeID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return n.String()
	}
	return strings.Trim(string(raw), `"`)
}
